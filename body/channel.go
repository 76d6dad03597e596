package body

import (
	"io"
	"sync"
)

// Channel creates a channel-fed Body and the Sender half bound to it,
// matching the data model's "Channel (MPSC) fed by another thread;
// modeled as the iterator variant whose source is the receiver half."
func Channel() (*Sender, *Body) {
	ch := &channelIter{
		items:  make(chan Chunk, 16),
		closed: make(chan struct{}),
	}
	return &Sender{ch: ch}, FromIter(ch)
}

// Sender is the producer half of a channel-backed Body (spec's
// BodyChannel). Send/SendTrailers/SendTrailer/Abort are safe to call
// from any goroutine; Close must be called exactly once when the
// producer is done, after which is the receiver sees io.EOF.
type Sender struct {
	ch     *channelIter
	once   sync.Once
	closed bool
	mu     sync.Mutex
}

// ErrBodyClosed is returned by Send/SendTrailers/SendTrailer once Abort
// has been called. The Sender does not observe the receiving Body being
// abandoned: with no reader, Send blocks once the 16-item buffer is full.
var ErrBodyClosed = newErr("body: channel closed")

// Send pushes a data chunk. Blocks if the receiver hasn't caught up.
func (s *Sender) Send(data []byte) error {
	return s.send(Chunk{Kind: ChunkData, Data: data})
}

// SendTrailers pushes a trailer block; conventionally the last item sent
// before Close.
func (s *Sender) SendTrailers(h Header) error {
	return s.send(Chunk{Kind: ChunkTrailers, Trailers: h})
}

// SendTrailer pushes a single trailer name/value pair as a one-field
// trailer block.
func (s *Sender) SendTrailer(name, value string) error {
	return s.SendTrailers(Header{{Name: name, Value: value}})
}

func (s *Sender) send(c Chunk) error {
	select {
	case <-s.ch.closed:
		return ErrBodyClosed
	default:
	}
	select {
	case s.ch.items <- c:
		return nil
	case <-s.ch.closed:
		return ErrBodyClosed
	}
}

// Close signals normal end-of-body; the receiver's Next returns io.EOF
// once buffered items are drained.
func (s *Sender) Close() {
	s.once.Do(func() { close(s.ch.items) })
}

// Abort signals abnormal termination; the receiver's Next returns
// ErrBodyAborted instead of io.EOF.
func (s *Sender) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch.closed)
}

type channelIter struct {
	items  chan Chunk
	closed chan struct{}
}

func (c *channelIter) Next() (Chunk, error) {
	select {
	case chunk, ok := <-c.items:
		if !ok {
			return Chunk{}, io.EOF
		}
		return chunk, nil
	case <-c.closed:
		return Chunk{}, ErrBodyAborted
	}
}

// ErrBodyAborted mirrors message.ErrBodyAborted without creating an
// import cycle between body and message; message re-exports this value.
var ErrBodyAborted = newErr("body aborted")
