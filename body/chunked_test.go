package body

import (
	"bufio"
	"bytes"
	"io"
	"testing"
)

func TestChunkedRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	cw := NewChunkedWriter(bw)

	if err := cw.WriteChunk([]byte("hello ")); err != nil {
		t.Fatalf("WriteChunk: %v", err)
	}
	if err := cw.WriteChunk([]byte("world")); err != nil {
		t.Fatalf("WriteChunk: %v", err)
	}
	if err := cw.Finish(Header{{Name: "X-Checksum", Value: "abc123"}}); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	cr := NewChunkedReader(bufio.NewReader(&buf))
	got, err := io.ReadAll(cr)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "hello world" {
		t.Fatalf("got %q", got)
	}
	trailers := cr.Trailers()
	if len(trailers) != 1 || trailers[0].Name != "X-Checksum" || trailers[0].Value != "abc123" {
		t.Fatalf("trailers = %+v", trailers)
	}
}

func TestChunkedEmptyBody(t *testing.T) {
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	cw := NewChunkedWriter(bw)
	if err := cw.Finish(nil); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	cr := NewChunkedReader(bufio.NewReader(&buf))
	got, err := io.ReadAll(cr)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %q; want empty", got)
	}
}

func TestChunkedExtensionsIgnored(t *testing.T) {
	raw := "5;foo=bar\r\nhello\r\n0\r\n\r\n"
	cr := NewChunkedReader(bufio.NewReader(bytes.NewBufferString(raw)))
	got, err := io.ReadAll(cr)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q", got)
	}
}

func TestChunkedInvalidSize(t *testing.T) {
	raw := "zzz\r\n"
	cr := NewChunkedReader(bufio.NewReader(bytes.NewBufferString(raw)))
	_, err := cr.Read(make([]byte, 16))
	if err != ErrInvalidChunkSize {
		t.Fatalf("err = %v; want ErrInvalidChunkSize", err)
	}
}

func TestChunkedBareLF(t *testing.T) {
	raw := "5\nhello\n0\n\n"
	cr := NewChunkedReader(bufio.NewReader(bytes.NewBufferString(raw)))
	got, err := io.ReadAll(cr)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q", got)
	}
}
