// Package client implements the client-side request/response cycle and
// per-authority connection reuse (supplementing spec.md from the
// original source's src/client.rs, which the distillation dropped).
package client

import (
	"bufio"
	"fmt"
	"net"
	"sync"

	"github.com/shockwave-labs/httpcore/message"
	"github.com/shockwave-labs/httpcore/stream"
)

// Config holds client settings; no env vars, no CLI (spec §6). New takes
// no Config and nothing in this package reads DialTimeout: Do dials with
// net.Dial and no timeout.
type Config struct {
	DialTimeout string
}

// Client keeps one persistent Connection per authority (host:port),
// reusing it across calls the way the original source's
// Client::connections map does, and dropping or handing it off per the
// outcome of the previous exchange.
type Client struct {
	mu    sync.Mutex
	conns map[string]*persistentConn
}

type persistentConn struct {
	s stream.Stream
	r *bufio.Reader
	w *bufio.Writer
}

// New returns a Client with no warm connections.
func New() *Client {
	return &Client{conns: make(map[string]*persistentConn)}
}

// Do sends req to authority (e.g. "example.com:80"), injecting a Host
// header, reusing a pooled connection if one is idle and warm. The
// resulting Response's body must be fully consumed (or Drained) before
// the connection can be reused for a subsequent Do to the same
// authority — mirroring the original source's "outcome" handling. On a
// 101 response the connection is neither pooled nor closed, and Do does
// not give the caller access to its stream.
func (c *Client) Do(authority string, req *message.Request) (*message.Response, error) {
	req.Header.Set("Host", authority)

	pc, err := c.acquire(authority)
	if err != nil {
		return nil, err
	}

	if err := message.WriteRequest(req, pc.w); err != nil {
		pc.s.Close()
		return nil, err
	}
	if err := pc.w.Flush(); err != nil {
		pc.s.Close()
		return nil, err
	}

	res, err := message.ParseResponse(pc.r)
	if err != nil {
		pc.s.Close()
		return nil, err
	}

	asksForClose := res.Header.HasToken("Connection", "close")
	switch {
	case asksForClose:
		pc.s.Close()
	case res.StatusCode == 101:
		// Upgrade: the connection leaves the pool and stays open; it is
		// not returned to the caller.
		c.mu.Lock()
		delete(c.conns, authority)
		c.mu.Unlock()
	default:
		c.mu.Lock()
		c.conns[authority] = pc
		c.mu.Unlock()
	}

	return res, nil
}

func (c *Client) acquire(authority string) (*persistentConn, error) {
	c.mu.Lock()
	pc, ok := c.conns[authority]
	if ok {
		delete(c.conns, authority)
	}
	c.mu.Unlock()
	if ok {
		return pc, nil
	}

	conn, err := net.Dial("tcp", authority)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", authority, err)
	}
	tcp, ok := conn.(*net.TCPConn)
	var s stream.Stream
	if ok {
		s = stream.NewTCP(tcp)
	} else {
		return nil, fmt.Errorf("client: unexpected conn type for %s", authority)
	}
	return &persistentConn{s: s, r: bufio.NewReader(s), w: bufio.NewWriter(s)}, nil
}
