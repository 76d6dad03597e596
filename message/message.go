package message

import (
	"github.com/shockwave-labs/httpcore/body"
	"github.com/shockwave-labs/httpcore/stream"
)

// Version identifies the HTTP/1.x wire version (spec §6: "HTTP/1.0 ↔
// version id 0; HTTP/1.1 ↔ version id 1; others rejected").
type Version uint8

const (
	HTTP10 Version = 0
	HTTP11 Version = 1
)

func (v Version) String() string {
	if v == HTTP10 {
		return "HTTP/1.0"
	}
	return "HTTP/1.1"
}

// Request is the parsed or to-be-written shape of an HTTP/1.x request.
type Request struct {
	Method  string
	Path    string // request-target, verbatim (may be "*" for OPTIONS/CONNECT)
	Version Version

	Header *Header
	Body   *body.Body

	// ContentLength mirrors the parsed Content-Length header. It is 0 when
	// the request has neither Content-Length nor Transfer-Encoding (empty
	// body), and -1 for a chunked body.
	ContentLength int64

	// RemoteAddr is informational, set by the connection loop.
	RemoteAddr string
}

// NewRequest returns a Request with initialized header.
func NewRequest() *Request {
	return &Request{Header: NewHeader(), ContentLength: -1}
}

// AsksForClose reports whether the request's Connection header contains
// "close".
func (r *Request) AsksForClose() bool { return r.Header.HasToken("Connection", "close") }

// AsksForKeepAlive reports whether the request's Connection header
// contains "keep-alive".
func (r *Request) AsksForKeepAlive() bool { return r.Header.HasToken("Connection", "keep-alive") }

// DemandsClose implements spec §4.8's per-version persistence default:
// HTTP/1.0 closes unless keep-alive was asked for; HTTP/1.1 stays open
// unless close was asked for.
func (r *Request) DemandsClose() bool {
	if r.Version == HTTP10 {
		return !r.AsksForKeepAlive()
	}
	return r.AsksForClose()
}

// ExpectsContinue reports an Expect: 100-continue request header.
func (r *Request) ExpectsContinue() bool {
	return r.Header.HasToken("Expect", "100-continue")
}

// IsHead/IsConnect gate body suppression on the response side (§4.8
// step 2 write_body).
func (r *Request) IsHead() bool    { return r.Method == "HEAD" }
func (r *Request) IsConnect() bool { return r.Method == "CONNECT" }

// UpgradeHandler takes ownership of the raw stream after a response head
// carrying it has been written; no further HTTP traffic follows on that
// connection (spec §3/§9).
type UpgradeHandler func(stream.Stream)

// Response is the parsed or to-be-written shape of an HTTP/1.x response.
type Response struct {
	Version    Version
	StatusCode int
	Reason     string // empty means "use the standard reason phrase"

	Header *Header
	Body   *body.Body

	// Upgrade, if non-nil, is invoked exactly once by the connection loop
	// after the response head is written, and removed at send time
	// (spec §9: "model it as an owned callable stored in response
	// extensions, removed at send time").
	Upgrade UpgradeHandler
}

// NewResponse returns a Response with initialized header and no body.
func NewResponse(status int) *Response {
	return &Response{StatusCode: status, Version: HTTP11, Header: NewHeader(), Body: body.Empty()}
}
