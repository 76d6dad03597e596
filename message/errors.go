package message

import (
	"fmt"

	"github.com/shockwave-labs/httpcore/body"
)

// Errors mirror the sentinel style of the http11 parser this package
// generalizes from shockwave: a flat pre-allocated var block per
// concern, so a parse failure never allocates just to report itself.
var (
	// ErrConnectionClosed is a clean EOF seen before any bytes of a new
	// request arrived. The connection loop treats this as a quiet close,
	// not a failure.
	ErrConnectionClosed = newErr("connection closed")

	// ErrIncompleteRequest is an EOF mid-headers, or a start-line missing
	// one of method/path/version.
	ErrIncompleteRequest = newErr("incomplete request")

	// ErrInvalidRequest covers a malformed start-line or header line.
	ErrInvalidRequest = newErr("invalid request")

	// ErrInvalidTransferEncoding is a Transfer-Encoding value other than
	// "chunked".
	ErrInvalidTransferEncoding = newErr("invalid transfer-encoding")

	// ErrInvalidChunkSize is an unparseable chunk-size line. It is the
	// same value body's chunked decoder returns.
	ErrInvalidChunkSize = body.ErrInvalidChunkSize

	// ErrInvalidHeader is a header name or value that cannot be emitted
	// or parsed safely (bare CR/LF, RFC 7230 §3.2).
	ErrInvalidHeader = newErr("invalid header")

	// ErrBodyAborted surfaces on the reader side of a channel body whose
	// sender called Abort. It is the same value as body.ErrBodyAborted.
	ErrBodyAborted = body.ErrBodyAborted

	// ErrFramingMismatch is a declared Content-Length that disagrees with
	// the body's actual known length on a send.
	ErrFramingMismatch = newErr("framing mismatch: declared content-length does not match body")

	// ErrContentLengthWithTransferEncoding rejects a request or response
	// that carries both headers at once (RFC 7230 §3.3.3 smuggling
	// guard, carried over from the teacher's parser).
	ErrContentLengthWithTransferEncoding = newErr("both content-length and transfer-encoding present")

	// ErrDuplicateContentLength rejects multiple Content-Length headers
	// with disagreeing values (same smuggling guard).
	ErrDuplicateContentLength = newErr("duplicate content-length headers disagree")

	// ErrDuplicateHost rejects a request carrying more than one Host
	// header (RFC 7230 §5.4 "a server MUST respond with a 400 (Bad
	// Request) status code to any HTTP/1.1 request message that lacks a
	// Host header field and to any request message that contains more
	// than one Host header field", same smuggling-guard family as the
	// Content-Length checks above).
	ErrDuplicateHost = newErr("duplicate host headers")

	// ErrBodySizeUndetermined is returned by the request writer when an
	// outgoing request has no Content-Length, no chunked encoding, and a
	// body of unknown length that cannot be chunked: a GET or HEAD
	// request, or any HTTP/1.0 request. The response writer never returns
	// it; it falls back to a close-delimited body instead.
	ErrBodySizeUndetermined = newErr("could not determine outgoing body size")
)

type sentinelError struct{ s string }

func newErr(s string) error { return &sentinelError{s: s} }

func (e *sentinelError) Error() string { return "message: " + e.s }

// UnsupportedVersionError reports a start-line HTTP version this module
// does not understand. Carries the offending literal since the caller
// often wants to log it.
type UnsupportedVersionError struct {
	Version string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("message: unsupported http version %q", e.Version)
}
