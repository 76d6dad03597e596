// Package body implements the polymorphic, consume-once HTTP message body:
// empty, buffered, chunk-iterator, reader-backed, or channel-fed, exposed
// uniformly as a byte reader or a Chunk iterator.
package body

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/valyala/bytebufferpool"
)

// SmallBodyThreshold is the eager-read/eager-buffer cutover used by both
// the request parser and the request/response writer (spec §4.4 step 3,
// §4.5). Kept as a package var rather than a const so embedders that need
// a different cutover can override it process-wide — see Open Question
// (a): we resolved this as "configurable, default 1024" rather than a
// hardcoded constant.
var SmallBodyThreshold int64 = 1024

var bufPool bytebufferpool.Pool

// ChunkKind tags a Chunk as carrying data or trailers.
type ChunkKind uint8

const (
	ChunkData ChunkKind = iota
	ChunkTrailers
)

// Chunk is the unit produced by IntoChunks and consumed by the chunked
// transfer-encoding writer: either a data payload or a trailer block.
type Chunk struct {
	Kind     ChunkKind
	Data     []byte
	Trailers Header
}

// Header is the minimal trailer-carrying header shape the body package
// needs; message.Header satisfies a superset of it, but body must not
// import message (message imports body), so trailers are carried as
// plain name/value pairs here and adapted at the message boundary.
type Header []HeaderField

type HeaderField struct {
	Name  string
	Value string
}

// kind tags which producer backs a Body.
type kind uint8

const (
	kindEmpty kind = iota
	kindBuffered
	kindIter
	kindReader
)

// ChunkIter yields chunks one at a time until it returns io.EOF.
type ChunkIter interface {
	Next() (Chunk, error)
}

// Body is a consume-once container. Exactly one of IntoReader,
// IntoChunks, IntoBytes may be called; calling a second one panics,
// matching the "consumed exactly once" invariant in the data model.
type Body struct {
	k kind

	buffered []byte

	iter ChunkIter

	reader io.Reader
	length int64 // -1 if unknown

	consumed bool
}

// Empty returns a zero-length body.
func Empty() *Body { return &Body{k: kindEmpty} }

// FromBytes returns a buffered body of known length.
func FromBytes(b []byte) *Body { return &Body{k: kindBuffered, buffered: b} }

// FromString returns a buffered body of known length.
func FromString(s string) *Body { return FromBytes([]byte(s)) }

// FromReader returns a body backed by r. length < 0 means unknown.
func FromReader(r io.Reader, length int64) *Body {
	return &Body{k: kindReader, reader: r, length: length}
}

// FromIter returns a body whose chunks are produced lazily by it; length
// is always unknown for this variant.
func FromIter(it ChunkIter) *Body {
	return &Body{k: kindIter, iter: it, length: -1}
}

// FromFile succeeds only when f refers to a regular file, mirroring the
// original source's TryFrom<File>. The declared length is the file size.
func FromFile(f *os.File) (*Body, error) {
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !st.Mode().IsRegular() {
		return nil, errors.New("body: not a regular file")
	}
	return FromReader(f, st.Size()), nil
}

// Len reports the body's known length, if any.
func (b *Body) Len() (int64, bool) {
	switch b.k {
	case kindEmpty:
		return 0, true
	case kindBuffered:
		return int64(len(b.buffered)), true
	case kindReader:
		if b.length >= 0 {
			return b.length, true
		}
		return 0, false
	default: // kindIter, channel-backed iter
		return 0, false
	}
}

// IsEmpty reports whether the body is known to carry zero bytes.
func (b *Body) IsEmpty() bool {
	n, ok := b.Len()
	return ok && n == 0
}

func (b *Body) markConsumed() {
	if b.consumed {
		panic("body: consumed more than once")
	}
	b.consumed = true
}

// IntoReader returns a plain byte-stream view of the body. For the
// iterator variant this filters out trailer chunks and concatenates data
// chunks; for the reader-with-length variant it caps reads at length.
func (b *Body) IntoReader() io.Reader {
	b.markConsumed()
	switch b.k {
	case kindEmpty:
		return bytes.NewReader(nil)
	case kindBuffered:
		return bytes.NewReader(b.buffered)
	case kindReader:
		if b.length >= 0 {
			return io.LimitReader(b.reader, b.length)
		}
		return b.reader
	case kindIter:
		return &chunkReader{iter: b.iter}
	}
	panic("body: unreachable kind")
}

// IntoChunks returns a Chunk iterator view of the body.
func (b *Body) IntoChunks() ChunkIter {
	b.markConsumed()
	switch b.k {
	case kindEmpty:
		return emptyIter{}
	case kindBuffered:
		return &onceIter{chunk: Chunk{Kind: ChunkData, Data: b.buffered}}
	case kindIter:
		return b.iter
	case kindReader:
		return &readerChunker{r: b.reader, remaining: b.length}
	}
	panic("body: unreachable kind")
}

// IntoBytes collects the body via IntoReader, pre-sizing the destination
// buffer when the length is known.
func (b *Body) IntoBytes() ([]byte, error) {
	n, known := b.Len()
	r := b.IntoReader()

	buf := bufPool.Get()
	defer bufPool.Put(buf)

	if known && n > 0 {
		if n > int64(cap(buf.B)) {
			buf.B = make([]byte, 0, n)
		}
	}

	var out bytes.Buffer
	if known {
		out.Grow(int(n))
	}
	if _, err := io.Copy(&out, r); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Drain discards the body, honoring the drop contract: a reader-backed
// body is read into a sink up to its declared length (or to EOF when the
// length is unknown), and an iterator-backed body (chunked or channel-fed)
// is pulled until its iterator reports io.EOF, so the underlying stream
// is left positioned for the next pipelined request. Empty and buffered
// bodies drop trivially. Safe to call instead of any IntoXxx method; on
// an already consumed body it is a no-op.
func (b *Body) Drain() error {
	if b.consumed {
		return nil
	}
	b.markConsumed()
	switch b.k {
	case kindReader:
		var r io.Reader = b.reader
		if b.length >= 0 {
			r = io.LimitReader(r, b.length)
		}
		_, err := io.Copy(io.Discard, r)
		return err
	case kindIter:
		for {
			_, err := b.iter.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
		}
	default:
		return nil
	}
}

type emptyIter struct{}

func (emptyIter) Next() (Chunk, error) { return Chunk{}, io.EOF }

type onceIter struct {
	chunk Chunk
	done  bool
}

func (it *onceIter) Next() (Chunk, error) {
	if it.done {
		return Chunk{}, io.EOF
	}
	it.done = true
	if len(it.chunk.Data) == 0 {
		return Chunk{}, io.EOF
	}
	return it.chunk, nil
}

// chunkReaderBufSize is the fixed read-buffer size used when a Body
// backed by a reader is viewed as a Chunk iterator (spec §4.2: "8 KiB").
const chunkReaderBufSize = 8 * 1024

type readerChunker struct {
	r         io.Reader
	remaining int64 // -1 if unbounded
	buf       [chunkReaderBufSize]byte
}

func (c *readerChunker) Next() (Chunk, error) {
	if c.remaining == 0 {
		return Chunk{}, io.EOF
	}
	max := len(c.buf)
	if c.remaining > 0 && int64(max) > c.remaining {
		max = int(c.remaining)
	}
	n, err := c.r.Read(c.buf[:max])
	if n > 0 {
		if c.remaining > 0 {
			c.remaining -= int64(n)
		}
		data := make([]byte, n)
		copy(data, c.buf[:n])
		if err != nil && err != io.EOF {
			return Chunk{Kind: ChunkData, Data: data}, nil
		}
		return Chunk{Kind: ChunkData, Data: data}, nil
	}
	if err == io.EOF || err == nil {
		return Chunk{}, io.EOF
	}
	return Chunk{}, err
}

// chunkReader adapts a ChunkIter back into an io.Reader, discarding
// trailer chunks, for Body.IntoReader's iterator-variant case.
type chunkReader struct {
	iter ChunkIter
	cur  []byte
}

func (r *chunkReader) Read(p []byte) (int, error) {
	for len(r.cur) == 0 {
		c, err := r.iter.Next()
		if err == io.EOF {
			return 0, io.EOF
		}
		if err != nil {
			return 0, err
		}
		if c.Kind == ChunkData {
			r.cur = c.Data
		}
	}
	n := copy(p, r.cur)
	r.cur = r.cur[n:]
	return n, nil
}
