// Package conn implements the per-connection keep-alive loop: parse,
// dispatch to a handler, write the response, decide whether to persist,
// continue, or upgrade (spec §4.8).
package conn

import "github.com/shockwave-labs/httpcore/message"

// Handler is what the connection loop calls per request. A plain
// function value is sufficient; ShouldContinue defaults to always
// answering 100 via HandlerFunc, mirroring the spec's "a callable that
// implements call is sufficient; should_continue defaults to returning
// 100."
type Handler interface {
	Call(req *message.Request) (*message.Response, error)
	ShouldContinue(req *message.Request) int
}

// HandlerFunc adapts a plain function to Handler, always answering 100
// to Expect: 100-continue.
type HandlerFunc func(req *message.Request) (*message.Response, error)

func (f HandlerFunc) Call(req *message.Request) (*message.Response, error) { return f(req) }
func (f HandlerFunc) ShouldContinue(*message.Request) int                  { return 100 }

// WithContinue wraps a HandlerFunc and a should_continue policy,
// matching the spec's "handler returns a status; 100 permits the client
// to send" Expect/100 mediation.
type WithContinue struct {
	Handler            func(req *message.Request) (*message.Response, error)
	ShouldContinueFunc func(req *message.Request) int
}

func (w WithContinue) Call(req *message.Request) (*message.Response, error) { return w.Handler(req) }

func (w WithContinue) ShouldContinue(req *message.Request) int {
	if w.ShouldContinueFunc == nil {
		return 100
	}
	return w.ShouldContinueFunc(req)
}
