package message

import (
	"bufio"
	"io"

	"github.com/shockwave-labs/httpcore/body"
)

// WriteRequest implements spec §4.5: compute framing, emit the
// start-line, headers, blank line, then the body per that framing.
// Bodies under body.SmallBodyThreshold are fully buffered before the
// single write, matching the request parser's symmetric eager-read rule.
func WriteRequest(req *Request, w *bufio.Writer) error {
	bodyLen, bodyKnown := req.Body.Len()

	enc, err := requestFraming(req.Header, req.Method, req.Version, bodyLen, bodyKnown)
	if err != nil {
		return err
	}

	if err := writeRequestLine(w, req); err != nil {
		return err
	}
	if err := writeHeaderBlock(w, req.Header); err != nil {
		return err
	}

	return writeBody(w, req.Body, enc)
}

func writeRequestLine(w *bufio.Writer, req *Request) error {
	if _, err := w.WriteString(req.Method); err != nil {
		return err
	}
	if _, err := w.WriteString(" "); err != nil {
		return err
	}
	if _, err := w.WriteString(req.Path); err != nil {
		return err
	}
	if _, err := w.WriteString(" "); err != nil {
		return err
	}
	if _, err := w.WriteString(req.Version.String()); err != nil {
		return err
	}
	_, err := w.WriteString("\r\n")
	return err
}

func writeHeaderBlock(w *bufio.Writer, h *Header) error {
	var err error
	h.VisitAll(func(name, value string) bool {
		if _, e := w.WriteString(name); e != nil {
			err = e
			return false
		}
		if _, e := w.WriteString(": "); e != nil {
			err = e
			return false
		}
		if _, e := w.WriteString(value); e != nil {
			err = e
			return false
		}
		if _, e := w.WriteString("\r\n"); e != nil {
			err = e
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	_, err = w.WriteString("\r\n")
	return err
}

// writeBody emits b according to enc, honoring the <1024-byte eager
// buffering rule for non-chunked encodings and streaming through
// body.ChunkedWriter for Chunked.
func writeBody(w *bufio.Writer, b *body.Body, enc Encoding) error {
	switch enc.Kind {
	case Chunked:
		cw := body.NewChunkedWriter(w)
		it := b.IntoChunks()
		for {
			c, err := it.Next()
			if err != nil {
				if err == io.EOF {
					break
				}
				return err
			}
			if c.Kind == body.ChunkData {
				if err := cw.WriteChunk(c.Data); err != nil {
					return err
				}
			} else {
				return cw.Finish(c.Trailers)
			}
		}
		return cw.Finish(nil)

	case FixedLength, CloseDelimited:
		if enc.Length >= 0 && enc.Length < body.SmallBodyThreshold {
			buf, err := b.IntoBytes()
			if err != nil {
				return err
			}
			if _, err := w.Write(buf); err != nil {
				return err
			}
			return w.Flush()
		}
		r := b.IntoReader()
		buf := make([]byte, 32*1024)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				if _, werr := w.Write(buf[:n]); werr != nil {
					return werr
				}
			}
			if err != nil {
				if err == io.EOF {
					break
				}
				return err
			}
		}
		return w.Flush()
	}
	return w.Flush()
}
