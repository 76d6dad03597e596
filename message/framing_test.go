package message

import "testing"

func TestRequestFramingInjectsContentLength(t *testing.T) {
	h := NewHeader()
	enc, err := requestFraming(h, "POST", HTTP11, 5, true)
	if err != nil {
		t.Fatalf("requestFraming: %v", err)
	}
	if enc.Kind != FixedLength || enc.Length != 5 {
		t.Fatalf("enc = %+v", enc)
	}
	if got := h.Get("Content-Length"); got != "5" {
		t.Fatalf("Content-Length header = %q", got)
	}
}

func TestRequestFramingMismatchErrors(t *testing.T) {
	h := NewHeader()
	h.Set("Content-Length", "10")
	_, err := requestFraming(h, "POST", HTTP11, 5, true)
	if err != ErrFramingMismatch {
		t.Fatalf("err = %v; want ErrFramingMismatch", err)
	}
}

func TestRequestFramingUnknownBodyGetIsUndetermined(t *testing.T) {
	h := NewHeader()
	_, err := requestFraming(h, "GET", HTTP11, 0, false)
	if err != ErrBodySizeUndetermined {
		t.Fatalf("err = %v; want ErrBodySizeUndetermined", err)
	}
}

func TestRequestFramingUnknownBodyPostChunks(t *testing.T) {
	h := NewHeader()
	enc, err := requestFraming(h, "POST", HTTP11, 0, false)
	if err != nil {
		t.Fatalf("requestFraming: %v", err)
	}
	if enc.Kind != Chunked {
		t.Fatalf("enc.Kind = %v; want Chunked", enc.Kind)
	}
	if !h.HasToken("Transfer-Encoding", "chunked") {
		t.Fatal("Transfer-Encoding: chunked not set")
	}
}

func TestRequestFramingHTTP10CannotChunk(t *testing.T) {
	h := NewHeader()
	_, err := requestFraming(h, "POST", HTTP10, 0, false)
	if err != ErrBodySizeUndetermined {
		t.Fatalf("err = %v; want ErrBodySizeUndetermined", err)
	}
}

func TestResponseFramingStripsTEOnHTTP10(t *testing.T) {
	h := NewHeader()
	h.Set("Transfer-Encoding", "chunked")
	enc, err := responseFraming(h, HTTP10, 0, false)
	if err != nil {
		t.Fatalf("responseFraming: %v", err)
	}
	if h.HasToken("Transfer-Encoding", "chunked") {
		t.Fatal("Transfer-Encoding survived on HTTP/1.0")
	}
	if enc.Kind != CloseDelimited {
		t.Fatalf("enc.Kind = %v; want CloseDelimited", enc.Kind)
	}
	if !h.HasToken("Connection", "close") {
		t.Fatal("Connection: close not injected")
	}
}

func TestResponseFramingMismatchErrors(t *testing.T) {
	h := NewHeader()
	h.Set("Content-Length", "3")
	_, err := responseFraming(h, HTTP11, 10, true)
	if err != ErrFramingMismatch {
		t.Fatalf("err = %v; want ErrFramingMismatch", err)
	}
}

func TestResponseFramingFallsBackToChunkedOnHTTP11(t *testing.T) {
	h := NewHeader()
	enc, err := responseFraming(h, HTTP11, 0, false)
	if err != nil {
		t.Fatalf("responseFraming: %v", err)
	}
	if enc.Kind != Chunked {
		t.Fatalf("enc.Kind = %v; want Chunked", enc.Kind)
	}
}

func TestResponseFramingRespectsExistingConnectionClose(t *testing.T) {
	h := NewHeader()
	h.Set("Connection", "close")
	enc, err := responseFraming(h, HTTP11, 0, false)
	if err != nil {
		t.Fatalf("responseFraming: %v", err)
	}
	if enc.Kind != CloseDelimited {
		t.Fatalf("enc.Kind = %v; want CloseDelimited", enc.Kind)
	}
}
