package server

import (
	"bufio"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/shockwave-labs/httpcore/conn"
	"github.com/shockwave-labs/httpcore/message"
	"github.com/shockwave-labs/httpcore/stream"
)

func listenerAddr(t *testing.T, srv *Server) string {
	t.Helper()
	a, ok := srv.incoming.(*stream.TCPAcceptor)
	if !ok {
		t.Fatalf("incoming is %T, not *stream.TCPAcceptor", srv.incoming)
	}
	return a.Listener.Addr().String()
}

func TestBindAndServeEchoesOneRequest(t *testing.T) {
	srv, err := Bind("127.0.0.1:0", DefaultConfig())
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	addr := listenerAddr(t, srv)

	handler := conn.HandlerFunc(func(req *message.Request) (*message.Response, error) {
		return message.NewResponse(200), nil
	})
	go srv.Serve(handler)

	cc, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer cc.Close()

	cc.Write([]byte("GET / HTTP/1.1\r\nConnection: close\r\n\r\n"))
	cc.SetReadDeadline(time.Now().Add(2 * time.Second))
	res, err := message.ParseResponse(bufio.NewReader(cc))
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if res.StatusCode != 200 {
		t.Fatalf("status = %d", res.StatusCode)
	}
}

func TestServeSingleThreadRunsInline(t *testing.T) {
	srv, err := Bind("127.0.0.1:0", DefaultConfig())
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	addr := listenerAddr(t, srv)

	served := make(chan struct{}, 1)
	handler := conn.HandlerFunc(func(req *message.Request) (*message.Response, error) {
		served <- struct{}{}
		return message.NewResponse(200), nil
	})
	go srv.ServeSingleThread(handler)

	cc, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer cc.Close()
	cc.Write([]byte("GET / HTTP/1.1\r\nConnection: close\r\n\r\n"))

	select {
	case <-served:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never ran")
	}
}

var errAlwaysReject = errors.New("rejected")

func TestMakeServiceDropsOnHookError(t *testing.T) {
	srv, err := Bind("127.0.0.1:0", DefaultConfig())
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	addr := listenerAddr(t, srv)

	go srv.MakeService(func(s stream.Stream) (conn.Handler, error) {
		return nil, errAlwaysReject
	})

	cc, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer cc.Close()
	cc.Write([]byte("GET / HTTP/1.1\r\n\r\n"))
	cc.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	buf := make([]byte, 1)
	if _, err := cc.Read(buf); err == nil {
		t.Fatal("expected connection to be dropped by the rejecting hook")
	}
}
