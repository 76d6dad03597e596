package message

import (
	"bufio"
	"strings"

	"github.com/shockwave-labs/httpcore/body"
)

// ParseRequest implements spec §4.4: read the header block, parse the
// start-line and headers, then derive the body framing from headers.
//
// release is called exactly once, whenever this request's body has
// genuinely been read to completion or discarded — not necessarily before
// ParseRequest returns. For a body with nothing left to read at parse
// time (Empty, or a small body eagerly buffered here) that is immediate;
// for a large or chunked body, or any Content-Length body of a request
// carrying Expect: 100-continue, it fires lazily, the first time a consumer
// (the connection loop's own Drain, or a handler that has handed the body
// to another goroutine) actually reads it to exhaustion. Callers that
// don't pipeline requests over a shared reader (tests, the client's
// request/response stub servers) can pass a no-op.
func ParseRequest(r *bufio.Reader, release func()) (*Request, error) {
	raw, err := readHeaderBlock(r)
	if err != nil {
		return nil, err
	}

	lineEnd := indexCRLF(raw)
	if lineEnd < 0 {
		return nil, ErrIncompleteRequest
	}
	startLine := raw[:lineEnd]
	headerBlock := raw[lineEnd+len(lineTerm(raw, lineEnd)):]

	method, path, version, err := parseRequestLine(startLine)
	if err != nil {
		return nil, err
	}

	req := NewRequest()
	req.Method = method
	req.Path = path
	req.Version = version

	if err := parseHeaderLines(req.Header, headerBlock, true); err != nil {
		return nil, err
	}

	if err := setupRequestBody(req, r, release); err != nil {
		return nil, err
	}

	return req, nil
}

func parseRequestLine(line []byte) (method, path string, version Version, err error) {
	parts := strings.Fields(string(line))
	if len(parts) < 3 {
		return "", "", 0, ErrIncompleteRequest
	}
	if len(parts) != 3 {
		return "", "", 0, ErrInvalidRequest
	}
	method, path, proto := parts[0], parts[1], parts[2]
	if method == "" || (path == "" || (path[0] != '/' && path != "*")) {
		return "", "", 0, ErrInvalidRequest
	}
	version, err = parseVersion(proto)
	if err != nil {
		return "", "", 0, err
	}
	return method, path, version, nil
}

func parseVersion(proto string) (Version, error) {
	switch proto {
	case "HTTP/1.0":
		return HTTP10, nil
	case "HTTP/1.1":
		return HTTP11, nil
	default:
		return 0, &UnsupportedVersionError{Version: proto}
	}
}

func parseHeaderLines(h *Header, block []byte, requireUniqueHost bool) error {
	var contentLength = -1
	hasTE := false
	hasHost := false

	lines := splitLines(block)
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		i := indexByte(line, ':')
		if i <= 0 || line[0] == ' ' || line[0] == '\t' {
			return ErrInvalidRequest
		}
		// RFC 7230 §3.2.4: no whitespace is permitted between the header
		// field-name and the colon. Tolerating it (e.g. "Host : evil.com")
		// lets two HTTP implementations disagree on whether the space is
		// part of the field-name, a classic request-smuggling vector.
		if line[i-1] == ' ' || line[i-1] == '\t' {
			return ErrInvalidHeader
		}
		name := string(line[:i])
		value := string(trimSpaceBytes(line[i+1:]))

		if equalFold(name, "Content-Length") {
			n, ok := parseUint(value)
			if !ok {
				return ErrInvalidRequest
			}
			if contentLength >= 0 && int64(contentLength) != n {
				return ErrDuplicateContentLength
			}
			contentLength = int(n)
		}
		if equalFold(name, "Transfer-Encoding") {
			hasTE = true
		}
		if requireUniqueHost && equalFold(name, "Host") {
			if hasHost {
				return ErrDuplicateHost
			}
			hasHost = true
		}

		if err := h.Add(name, value); err != nil {
			return err
		}
	}

	if hasTE && contentLength >= 0 {
		return ErrContentLengthWithTransferEncoding
	}
	return nil
}

// setupRequestBody implements §4.4 step 3. Every path sets req.Body and
// arranges for release to fire exactly once for this request — see
// ParseRequest's doc comment for when.
func setupRequestBody(req *Request, r *bufio.Reader, release func()) error {
	h := req.Header

	if h.HasToken("Transfer-Encoding", "chunked") {
		req.Body = body.FromIter(&releasingChunkIter{it: chunkIterFromReader(r), release: release})
		return nil
	}
	if te := h.Get("Transfer-Encoding"); te != "" {
		release()
		return ErrInvalidTransferEncoding
	}

	if cl := h.Get("Content-Length"); cl != "" {
		n, ok := parseUint(cl)
		if !ok {
			release()
			return ErrInvalidRequest
		}
		req.ContentLength = n
		// A request carrying Expect: 100-continue is not read eagerly: its
		// client waits for the interim 100 before sending the body.
		if n < body.SmallBodyThreshold && !req.ExpectsContinue() {
			buf := make([]byte, n)
			if _, err := readFull(r, buf); err != nil {
				release()
				return ErrIncompleteRequest
			}
			req.Body = body.FromBytes(buf)
			release()
			return nil
		}
		req.Body = body.FromReader(&releasingReader{r: r, remaining: n, release: release}, n)
		return nil
	}

	req.ContentLength = 0
	req.Body = body.Empty()
	release()
	return nil
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func indexCRLF(b []byte) int {
	for i := 0; i < len(b); i++ {
		if b[i] == '\n' {
			if i > 0 && b[i-1] == '\r' {
				return i - 1
			}
			return i
		}
	}
	return -1
}

func lineTerm(b []byte, at int) []byte {
	if at+1 < len(b) && b[at] == '\r' && b[at+1] == '\n' {
		return b[at : at+2]
	}
	return b[at : at+1]
}

func splitLines(b []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i := 0; i < len(b); i++ {
		if b[i] == '\n' {
			end := i
			if end > start && b[end-1] == '\r' {
				end--
			}
			lines = append(lines, b[start:end])
			start = i + 1
		}
	}
	if start < len(b) {
		lines = append(lines, b[start:])
	}
	return lines
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

func trimSpaceBytes(b []byte) []byte {
	i, j := 0, len(b)
	for i < j && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	for j > i && (b[j-1] == ' ' || b[j-1] == '\t') {
		j--
	}
	return b[i:j]
}
