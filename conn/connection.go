package conn

import (
	"bufio"
	"errors"
	"time"

	"github.com/shockwave-labs/httpcore/internal/readqueue"
	"github.com/shockwave-labs/httpcore/message"
	"github.com/shockwave-labs/httpcore/stream"
)

// Config mirrors the teacher's ConnectionConfig/DefaultConnectionConfig
// shape: a plain builder struct, no env vars, no CLI (spec §6).
type Config struct {
	ReadTimeout     time.Duration
	ReadBufferSize  int
	WriteBufferSize int

	// OnRequestServed, if set, is called once a response has been
	// written successfully for each request — the seam server.Server
	// uses to drive internal/metrics without conn importing it.
	OnRequestServed func()
}

// DefaultConfig matches the teacher's DefaultConnectionConfig defaults
// (4096-byte buffers), with no read timeout (spec §5: "configurable,
// default none").
func DefaultConfig() Config {
	return Config{ReadBufferSize: 4096, WriteBufferSize: 4096}
}

// Connection owns one accepted or dialed Stream and runs the keep-alive
// loop described in spec §4.8.
type Connection struct {
	s       stream.Stream
	cfg     Config
	handler Handler

	r     *bufio.Reader
	w     *bufio.Writer
	queue *readqueue.Queue

	requests int
}

// New wraps s with handler and the loop configuration.
func New(s stream.Stream, cfg Config, handler Handler) *Connection {
	r := bufio.NewReaderSize(s, cfg.ReadBufferSize)
	return &Connection{
		s:       s,
		cfg:     cfg,
		handler: handler,
		r:       r,
		w:       bufio.NewWriterSize(s, cfg.WriteBufferSize),
		queue:   readqueue.New(r),
	}
}

// Serve runs the connection loop until the peer closes, a parse/write
// error occurs, the response demands close, or a response carries an
// upgrade handler. It implements spec §4.8 steps 1-6.
//
// Header parsing happens directly off the connection's one persistent
// bufio.Reader (c.r). A single goroutine runs this loop, but that alone
// does not serialize access to c.r: the §4.7 design note calls out a
// handler that hands the request body to another goroutine (e.g. via a
// BodyChannel sender) before returning, and that goroutine keeps reading
// c.r concurrently with whatever this loop does next. slot.Wait(), called
// before every header read, blocks until the previous request's body has
// actually been released — by ParseRequest's release callback, fired the
// moment that body (Content-Length or chunked) is read to exhaustion,
// wherever that happens. Release is never called eagerly by this loop
// itself; it is owned entirely by the body, so an async consumer finishing
// late still correctly delays the next header read.
func (c *Connection) Serve() error {
	for {
		if c.cfg.ReadTimeout > 0 {
			c.s.SetReadTimeout(c.cfg.ReadTimeout)
		}

		slot := c.queue.Enqueue()
		slot.Wait()
		req, err := message.ParseRequest(c.r, slot.Release)
		if err != nil {
			if errors.Is(err, message.ErrConnectionClosed) {
				slot.Release()
				return nil
			}
			slot.Release()
			return err
		}
		c.requests++

		demandsClose := req.DemandsClose()

		if req.ExpectsContinue() {
			status := c.handler.ShouldContinue(req)
			if status == 100 {
				if _, err := c.w.WriteString("HTTP/1.1 100 Continue\r\n\r\n"); err != nil {
					return err
				}
				if err := c.w.Flush(); err != nil {
					return err
				}
			} else {
				res := message.NewResponse(status)
				if _, err := message.WriteResponse(res, c.w, true); err != nil {
					return err
				}
				if err := c.w.Flush(); err != nil {
					return err
				}
				if req.Body != nil {
					req.Body.Drain()
				}
				continue
			}
		}

		res, err := c.handler.Call(req)
		if err != nil {
			if req.Body != nil {
				req.Body.Drain()
			}
			return err
		}

		res.Version = req.Version
		if req.Version == message.HTTP10 && !req.AsksForKeepAlive() {
			res.Header.Set("Connection", "close")
		}
		if !res.Header.Has("Date") {
			res.Header.Set("Date", time.Now().UTC().Format(http1Date))
		}

		writeBody := !req.IsHead() && !(req.IsConnect() && res.StatusCode/100 != 2)

		outcome, err := message.WriteResponse(res, c.w, writeBody)
		if err != nil {
			return err
		}

		if req.Body != nil {
			req.Body.Drain()
		}

		if c.cfg.OnRequestServed != nil {
			c.cfg.OnRequestServed()
		}

		switch outcome.Kind {
		case message.OutcomeUpgrade:
			if err := c.w.Flush(); err != nil {
				return err
			}
			outcome.Upgrade(c.s)
			return nil
		case message.OutcomeClose:
			return nil
		case message.OutcomeKeepAlive:
			if demandsClose {
				return nil
			}
			if err := c.w.Flush(); err != nil {
				return err
			}
		}
	}
}

// http1Date is the RFC 7231 §7.1.1.1 IMF-fixdate layout Go's time
// package expects for Format/Parse.
const http1Date = "Mon, 02 Jan 2006 15:04:05 GMT"

// RequestCount returns how many requests this connection has served so
// far, for callers enforcing a max-requests-per-connection policy.
func (c *Connection) RequestCount() int { return c.requests }
