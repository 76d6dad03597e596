// Package readqueue implements the pipelining "trampoline" (spec §4.7):
// it passes a single underlying reader hand-to-hand between successive
// request holders over a channel, guaranteeing that the (n+1)-th read
// never begins before the n-th body is fully consumed or released, even
// if a handler processes requests concurrently — without ever locking
// the stream.
//
// Grounded directly on the original source's read_queue.rs: a queue
// holds either the current reader or a channel waiting to receive it;
// enqueue swaps in a fresh waiting slot and hands the caller a
// QueuedReader wrapping whichever it displaced. Go has no destructor, so
// where the Rust version forwards the reader in Drop, this version
// requires the holder to call Release explicitly. The connection loop
// enqueues a slot per request and blocks on Wait before it starts reading
// that request's headers; Release itself is called by whatever actually
// finishes consuming the previous request's body — the connection loop's
// own drain, or a handler that has handed the body to another goroutine.
package readqueue

import "io"

// Queue holds the read side of one connection's pipelined stream.
type Queue struct {
	next chan io.Reader
}

// New returns a Queue primed with the connection's underlying reader as
// its first head.
func New(r io.Reader) *Queue {
	q := &Queue{next: make(chan io.Reader, 1)}
	q.next <- r
	return q
}

// Enqueue reserves the next slot in line and returns a QueuedReader for
// it. Call Enqueue once per pipelined request, in order, before parsing
// that request's body.
func (q *Queue) Enqueue() *QueuedReader {
	waiting := q.next
	fresh := make(chan io.Reader, 1)
	q.next = fresh
	return &QueuedReader{waiting: waiting, next: fresh}
}

// QueuedReader is a single slot in the trampoline: either it already
// holds the reader (the first slot enqueued) or it is waiting to receive
// it from the slot ahead of it.
type QueuedReader struct {
	current io.Reader
	waiting <-chan io.Reader
	next    chan<- io.Reader

	released bool
}

// acquire blocks until this slot's predecessor releases the reader, then
// caches it as current.
func (q *QueuedReader) acquire() io.Reader {
	if q.current == nil {
		q.current = <-q.waiting
	}
	return q.current
}

// Read reads from the underlying reader, blocking if it is not yet this
// slot's turn.
func (q *QueuedReader) Read(p []byte) (int, error) {
	return q.acquire().Read(p)
}

// Wait blocks until this slot's predecessor has called Release — i.e.
// until it is genuinely this slot's turn to read. The connection loop
// calls this before starting to read the next pipelined request's header
// block directly off the connection's shared reader, so that read can
// never race a previous request's body still being drained elsewhere.
func (q *QueuedReader) Wait() {
	q.acquire()
}

// Release forwards the reader to the next slot in line. Must be called
// once per QueuedReader, after its body has been fully consumed or
// explicitly drained — this is what lets the next pipelined request's
// parse proceed. Calls after the first are no-ops.
func (q *QueuedReader) Release() {
	if q.released {
		return
	}
	q.released = true
	q.next <- q.acquire()
}
