package message

import (
	"bufio"
	"strconv"

	"github.com/shockwave-labs/httpcore/body"
)

// ParseResponse implements §4.6's parsing rules: same header-block
// reading as requests, then framing derived from Content-Length /
// Transfer-Encoding, falling back to a close-delimited (read-to-EOF)
// body when neither is present and Connection contains close.
func ParseResponse(r *bufio.Reader) (*Response, error) {
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

	version, status, reason, err := parseStatusLine(startLine)
	if err != nil {
		return nil, err
	}

	res := &Response{Version: version, StatusCode: status, Reason: reason, Header: NewHeader()}
	if err := parseHeaderLines(res.Header, headerBlock, false); err != nil {
		return nil, err
	}

	if err := setupResponseBody(res, r); err != nil {
		return nil, err
	}
	return res, nil
}

func parseStatusLine(line []byte) (Version, int, string, error) {
	i := indexByte(line, ' ')
	if i < 0 {
		return 0, 0, "", ErrInvalidRequest
	}
	version, err := parseVersion(string(line[:i]))
	if err != nil {
		return 0, 0, "", err
	}
	rest := trimSpaceBytes(line[i+1:])
	j := indexByte(rest, ' ')
	var codeBytes, reasonBytes []byte
	if j < 0 {
		codeBytes, reasonBytes = rest, nil
	} else {
		codeBytes, reasonBytes = rest[:j], trimSpaceBytes(rest[j+1:])
	}
	code, err := strconv.Atoi(string(codeBytes))
	if err != nil {
		return 0, 0, "", ErrInvalidRequest
	}
	return version, code, string(reasonBytes), nil
}

func setupResponseBody(res *Response, r *bufio.Reader) error {
	h := res.Header

	if h.HasToken("Transfer-Encoding", "chunked") {
		res.Body = body.FromIter(chunkIterFromReader(r))
		return nil
	}
	if te := h.Get("Transfer-Encoding"); te != "" {
		return ErrInvalidTransferEncoding
	}

	if cl := h.Get("Content-Length"); cl != "" {
		n, ok := parseUint(cl)
		if !ok {
			return ErrInvalidRequest
		}
		if n < body.SmallBodyThreshold {
			buf := make([]byte, n)
			if _, err := readFull(r, buf); err != nil {
				return ErrIncompleteRequest
			}
			res.Body = body.FromBytes(buf)
			return nil
		}
		res.Body = body.FromReader(r, n)
		return nil
	}

	if h.HasToken("Connection", "close") {
		res.Body = body.FromReader(r, -1)
		return nil
	}

	res.Body = body.Empty()
	return nil
}
