//go:build unix

package stream

import (
	"net"
	"time"
)

// unixStream wraps a *net.UnixConn, the optional Unix-domain capability
// (spec §3: "Unix-domain (optional)"). Build-tagged to unix-like GOOS,
// mirroring the original source's reliance on
// std::os::unix::net::UnixStream.
type unixStream struct {
	conn *net.UnixConn
}

// NewUnix wraps an already-accepted or already-dialed Unix-domain
// connection.
func NewUnix(conn *net.UnixConn) Stream {
	return &unixStream{conn: conn}
}

func (s *unixStream) Read(p []byte) (int, error)  { return s.conn.Read(p) }
func (s *unixStream) Write(p []byte) (int, error) { return s.conn.Write(p) }
func (s *unixStream) Close() error                { return s.conn.Close() }

func (s *unixStream) Clone() (Stream, error) {
	return &unixStream{conn: s.conn}, nil
}

func (s *unixStream) LocalAddr() net.Addr  { return s.conn.LocalAddr() }
func (s *unixStream) RemoteAddr() net.Addr { return s.conn.RemoteAddr() }

func (s *unixStream) SetReadTimeout(d time.Duration) error {
	if d <= 0 {
		return s.conn.SetReadDeadline(time.Time{})
	}
	return s.conn.SetReadDeadline(time.Now().Add(d))
}

// SetNoDelay has no meaning for Unix-domain sockets; accepted as a no-op
// so callers can treat every Stream uniformly.
func (s *unixStream) SetNoDelay(bool) error { return nil }

func (s *unixStream) Unwrap() net.Conn { return s.conn }

// UnixAcceptor adapts a *net.UnixListener into a stream.Iterator.
type UnixAcceptor struct {
	Listener *net.UnixListener
}

func NewUnixAcceptor(l *net.UnixListener) *UnixAcceptor { return &UnixAcceptor{Listener: l} }

func (a *UnixAcceptor) Next() (Stream, error) {
	conn, err := a.Listener.AcceptUnix()
	if err != nil {
		return nil, err
	}
	return NewUnix(conn), nil
}
