package message

import (
	"bufio"
	"io"

	"github.com/shockwave-labs/httpcore/body"
)

// headerBlockMax bounds how many bytes of start-line + headers we will
// buffer before giving up, matching the teacher's DoS-conscious parser
// (MaxRequestLineSize + MaxHeadersSize in shockwave's http11/constants.go).
const headerBlockMax = 16 * 1024

// readHeaderBlock implements spec §4.4 step 1 / §4.6 parsing preamble:
// accumulate bytes until a terminator of either CRLFCRLF or LFLF is
// found or EOF occurs. Zero bytes before EOF → ErrConnectionClosed;
// fewer than required → ErrIncompleteRequest.
func readHeaderBlock(r *bufio.Reader) ([]byte, error) {
	var buf []byte
	for {
		line, err := r.ReadBytes('\n')
		if len(line) > 0 {
			buf = append(buf, line...)
		}
		if err != nil {
			if len(buf) == 0 {
				return nil, ErrConnectionClosed
			}
			return nil, ErrIncompleteRequest
		}
		if isBlankLine(line) {
			return buf, nil
		}
		if len(buf) > headerBlockMax {
			return nil, ErrInvalidRequest
		}
	}
}

// isBlankLine reports whether line is just a line terminator (CRLF or
// bare LF), i.e. the blank line ending the header block.
func isBlankLine(line []byte) bool {
	return len(line) == 1 && line[0] == '\n' ||
		len(line) == 2 && line[0] == '\r' && line[1] == '\n'
}

// chunkIterFromReader adapts body.ChunkedReader (a plain io.Reader) into
// a body.ChunkIter, so a chunked request/response body can flow through
// Body's iterator variant with real trailers attached to the final
// chunk, per spec §4.2/§4.3.
type chunkIterAdapter struct {
	cr            *body.ChunkedReader
	eofSeen       bool
	trailersSent  bool
	buf           [8192]byte
}

func chunkIterFromReader(r *bufio.Reader) body.ChunkIter {
	return &chunkIterAdapter{cr: body.NewChunkedReader(r)}
}

func (a *chunkIterAdapter) Next() (body.Chunk, error) {
	if a.eofSeen {
		if !a.trailersSent {
			a.trailersSent = true
			if trailers := a.cr.Trailers(); len(trailers) > 0 {
				return body.Chunk{Kind: body.ChunkTrailers, Trailers: trailers}, nil
			}
		}
		return body.Chunk{}, io.EOF
	}
	n, err := a.cr.Read(a.buf[:])
	if n > 0 {
		data := make([]byte, n)
		copy(data, a.buf[:n])
		return body.Chunk{Kind: body.ChunkData, Data: data}, nil
	}
	if err == io.EOF {
		a.eofSeen = true
		return a.Next()
	}
	return body.Chunk{}, err
}

// releasingReader reads up to remaining bytes from r, then fires release
// exactly once — on the read that exhausts remaining, or on any error.
// This is the §4.7 trampoline's actual release point for a Content-Length
// body: whichever goroutine happens to read this body to completion (the
// connection loop's own Drain, or a handler that handed the body off)
// is the one that unblocks the next pipelined request's header read.
type releasingReader struct {
	r         io.Reader
	remaining int64
	release   func()
	done      bool
}

func (rr *releasingReader) Read(p []byte) (int, error) {
	if rr.remaining <= 0 {
		rr.fire()
		return 0, io.EOF
	}
	if int64(len(p)) > rr.remaining {
		p = p[:rr.remaining]
	}
	n, err := rr.r.Read(p)
	rr.remaining -= int64(n)
	if rr.remaining <= 0 {
		if err == nil {
			err = io.EOF
		}
		rr.fire()
	} else if err != nil {
		rr.fire()
	}
	return n, err
}

func (rr *releasingReader) fire() {
	if !rr.done {
		rr.done = true
		rr.release()
	}
}

// releasingChunkIter is releasingReader's counterpart for a chunked body:
// it fires release once the wrapped iterator reports EOF (after any
// trailers) or any other error.
type releasingChunkIter struct {
	it      body.ChunkIter
	release func()
	done    bool
}

func (it *releasingChunkIter) Next() (body.Chunk, error) {
	c, err := it.it.Next()
	if err != nil && !it.done {
		it.done = true
		it.release()
	}
	return c, err
}
