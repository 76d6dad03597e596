package conn

import (
	"bufio"
	"io"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shockwave-labs/httpcore/body"
	"github.com/shockwave-labs/httpcore/message"
	"github.com/shockwave-labs/httpcore/stream"
)

// dialConnection spins up a single server-side Connection over a loopback
// TCP pair and returns the client-side net.Conn for the test to drive.
func dialConnection(t *testing.T, handler Handler) (client net.Conn, serverDone <-chan error) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		defer l.Close()
		sc, err := l.Accept()
		if err != nil {
			done <- err
			return
		}
		tcp := sc.(*net.TCPConn)
		c := New(stream.NewTCP(tcp), DefaultConfig(), handler)
		err = c.Serve()
		tcp.Close()
		done <- err
	}()

	cc, err := net.Dial("tcp", l.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	return cc, done
}

func TestServeEchoesSingleRequest(t *testing.T) {
	handler := HandlerFunc(func(req *message.Request) (*message.Response, error) {
		data, _ := req.Body.IntoBytes()
		res := message.NewResponse(200)
		res.Body = body.FromBytes(data)
		return res, nil
	})

	cc, done := dialConnection(t, handler)
	defer cc.Close()

	cc.Write([]byte("POST /echo HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello"))
	cc.Write([]byte("GET /close HTTP/1.1\r\nConnection: close\r\n\r\n"))

	r := bufio.NewReader(cc)
	res1, err := message.ParseResponse(r)
	if err != nil {
		t.Fatalf("ParseResponse 1: %v", err)
	}
	data1, _ := res1.Body.IntoBytes()
	if string(data1) != "hello" {
		t.Fatalf("body1 = %q", data1)
	}

	res2, err := message.ParseResponse(r)
	if err != nil {
		t.Fatalf("ParseResponse 2: %v", err)
	}
	if res2.StatusCode != 200 {
		t.Fatalf("status2 = %d", res2.StatusCode)
	}

	select {
	case err := <-done:
		if err != nil && err != io.EOF {
			t.Fatalf("Serve returned: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Connection: close")
	}
}

func TestServeHTTP10ClosesByDefault(t *testing.T) {
	handler := HandlerFunc(func(req *message.Request) (*message.Response, error) {
		return message.NewResponse(200), nil
	})
	cc, done := dialConnection(t, handler)
	defer cc.Close()

	cc.Write([]byte("GET / HTTP/1.0\r\n\r\n"))

	r := bufio.NewReader(cc)
	res, err := message.ParseResponse(r)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if res.StatusCode != 200 {
		t.Fatalf("status = %d", res.StatusCode)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("connection did not close for HTTP/1.0 default")
	}
}

func TestServeExpectContinue(t *testing.T) {
	handler := HandlerFunc(func(req *message.Request) (*message.Response, error) {
		data, _ := req.Body.IntoBytes()
		res := message.NewResponse(200)
		res.Body = body.FromBytes(data)
		return res, nil
	})
	cc, done := dialConnection(t, handler)
	defer cc.Close()

	cc.Write([]byte("POST /up HTTP/1.1\r\nExpect: 100-continue\r\nContent-Length: 4\r\nConnection: close\r\n\r\n"))

	r := bufio.NewReader(cc)
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if !strings.Contains(line, "100") {
		t.Fatalf("first line = %q; want 100 Continue", line)
	}
	// consume the blank line terminating the interim response
	if _, err := r.ReadString('\n'); err != nil {
		t.Fatalf("ReadString blank: %v", err)
	}

	cc.Write([]byte("body"))

	res, err := message.ParseResponse(r)
	if err != nil {
		t.Fatalf("ParseResponse final: %v", err)
	}
	data, _ := res.Body.IntoBytes()
	if string(data) != "body" {
		t.Fatalf("body = %q", data)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestServeRejectsContinueWithHandlerStatus(t *testing.T) {
	handler := WithContinue{
		Handler: func(req *message.Request) (*message.Response, error) {
			return message.NewResponse(200), nil
		},
		ShouldContinueFunc: func(req *message.Request) int { return 417 },
	}
	cc, done := dialConnection(t, handler)
	defer cc.Close()

	cc.Write([]byte("POST /up HTTP/1.1\r\nExpect: 100-continue\r\nContent-Length: 4\r\n\r\nbody"))
	cc.Write([]byte("GET /bye HTTP/1.1\r\nConnection: close\r\n\r\n"))

	r := bufio.NewReader(cc)
	res1, err := message.ParseResponse(r)
	if err != nil {
		t.Fatalf("ParseResponse 1: %v", err)
	}
	if res1.StatusCode != 417 {
		t.Fatalf("status1 = %d; want 417", res1.StatusCode)
	}

	res2, err := message.ParseResponse(r)
	if err != nil {
		t.Fatalf("ParseResponse 2: %v", err)
	}
	if res2.StatusCode != 200 {
		t.Fatalf("status2 = %d", res2.StatusCode)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
}

// TestServePipelinesAfterAsyncBodyConsumption exercises the §4.7
// trampoline directly: the handler for the first request takes ownership
// of its body via IntoReader, hands that reader to another goroutine, and
// returns immediately — the shape described in the design note as the
// reason the trampoline exists. The second, pipelined request's header
// read must not begin until that goroutine actually finishes reading the
// first body off the wire; if it did, the second handler invocation below
// would observe bodyDrained still false.
func TestServePipelinesAfterAsyncBodyConsumption(t *testing.T) {
	var bodyDrained atomic.Bool
	first := true
	handler := HandlerFunc(func(req *message.Request) (*message.Response, error) {
		if first {
			first = false
			bodyReader := req.Body.IntoReader()
			go func() {
				time.Sleep(50 * time.Millisecond)
				io.Copy(io.Discard, bodyReader)
				bodyDrained.Store(true)
			}()
			return message.NewResponse(200), nil
		}
		if !bodyDrained.Load() {
			t.Error("second request's header read began before the first request's body was released")
		}
		return message.NewResponse(200), nil
	})

	cc, serverDone := dialConnection(t, handler)
	defer cc.Close()

	// Larger than body.SmallBodyThreshold so the body is reader-backed
	// (lazily read) rather than eagerly buffered at parse time — only the
	// reader-backed path defers release to whoever actually reads it.
	payload := strings.Repeat("x", 2000)
	cc.Write([]byte("POST /slow HTTP/1.1\r\nContent-Length: 2000\r\n\r\n" + payload))
	cc.Write([]byte("GET /fast HTTP/1.1\r\nConnection: close\r\n\r\n"))

	r := bufio.NewReader(cc)
	if _, err := message.ParseResponse(r); err != nil {
		t.Fatalf("ParseResponse 1: %v", err)
	}
	if _, err := message.ParseResponse(r); err != nil {
		t.Fatalf("ParseResponse 2: %v", err)
	}

	select {
	case <-serverDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Connection: close")
	}
}

func TestServeSuppressesBodyForHead(t *testing.T) {
	handler := HandlerFunc(func(req *message.Request) (*message.Response, error) {
		res := message.NewResponse(200)
		res.Body = body.FromString("this should not be written")
		return res, nil
	})
	cc, done := dialConnection(t, handler)
	defer cc.Close()

	cc.Write([]byte("HEAD / HTTP/1.1\r\nConnection: close\r\n\r\n"))

	raw, err := io.ReadAll(cc)
	if err != nil && err != io.EOF {
		t.Fatalf("ReadAll: %v", err)
	}
	if strings.Contains(string(raw), "should not be written") {
		t.Fatalf("body leaked on HEAD response: %q", raw)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
}
