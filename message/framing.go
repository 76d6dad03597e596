package message

// Encoding is the outgoing body framing, derived fresh on every write —
// never stored (spec §3: "Framing decision. Derived — not stored").
type Encoding struct {
	Kind   EncodingKind
	Length int64 // meaningful only when Kind == FixedLength
}

type EncodingKind uint8

const (
	FixedLength EncodingKind = iota
	Chunked
	CloseDelimited
)

// Outcome is what the connection loop does after a response head (and,
// if write_body, body) has been written (spec §4.6/§4.8).
type Outcome struct {
	Kind    OutcomeKind
	Upgrade UpgradeHandler // set iff Kind == OutcomeUpgrade
}

type OutcomeKind uint8

const (
	OutcomeKeepAlive OutcomeKind = iota
	OutcomeClose
	OutcomeUpgrade
)

// requestFraming implements the §4.5 table for an outgoing request.
// bodyLen/bodyKnown describe the body the caller is about to send.
// It may mutate h (inject Content-Length or Transfer-Encoding) and
// returns the resulting Encoding.
func requestFraming(h *Header, method string, version Version, bodyLen int64, bodyKnown bool) (Encoding, error) {
	if h.HasToken("Transfer-Encoding", "chunked") && version == HTTP11 {
		return Encoding{Kind: Chunked}, nil
	}

	if cl, ok := contentLengthHeader(h); ok {
		if bodyKnown && cl != bodyLen {
			return Encoding{}, ErrFramingMismatch
		}
		return Encoding{Kind: FixedLength, Length: cl}, nil
	}

	if bodyKnown {
		h.Set("Content-Length", itoa(bodyLen))
		return Encoding{Kind: FixedLength, Length: bodyLen}, nil
	}

	if version == HTTP11 && method != "GET" && method != "HEAD" {
		h.Set("Transfer-Encoding", "chunked")
		return Encoding{Kind: Chunked}, nil
	}

	return Encoding{}, ErrBodySizeUndetermined
}

// responseFraming implements §4.6's writing rules: the same table as
// §4.5 plus a close-delimited fallback, plus HTTP/1.0 chunked stripping.
// A Content-Length that disagrees with a known body length fails loudly
// rather than silently picking one (spec §9, §8 invariant on
// length-lying bodies).
func responseFraming(h *Header, version Version, bodyLen int64, bodyKnown bool) (Encoding, error) {
	if version == HTTP10 {
		h.Del("Transfer-Encoding")
	}

	if h.HasToken("Transfer-Encoding", "chunked") && version == HTTP11 {
		return Encoding{Kind: Chunked}, nil
	}

	if cl, ok := contentLengthHeader(h); ok {
		if bodyKnown && cl != bodyLen {
			return Encoding{}, ErrFramingMismatch
		}
		return Encoding{Kind: FixedLength, Length: cl}, nil
	}

	if bodyKnown {
		h.Set("Content-Length", itoa(bodyLen))
		return Encoding{Kind: FixedLength, Length: bodyLen}, nil
	}

	if !h.HasToken("Connection", "close") && version == HTTP11 {
		h.Set("Transfer-Encoding", "chunked")
		return Encoding{Kind: Chunked}, nil
	}

	if !h.HasToken("Connection", "close") {
		h.Set("Connection", "close")
	}
	return Encoding{Kind: CloseDelimited}, nil
}

func contentLengthHeader(h *Header) (int64, bool) {
	v := h.Get("Content-Length")
	if v == "" {
		return 0, false
	}
	n, ok := parseUint(v)
	if !ok {
		return 0, false
	}
	return n, true
}

func parseUint(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	var n int64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int64(c-'0')
	}
	return n, true
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	neg := n < 0
	if neg {
		n = -n
	}
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
