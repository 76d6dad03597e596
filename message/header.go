// Package message implements the HTTP/1.x request and response data model:
// headers, the framing decision, and the wire parser/writer pair.
package message

// Header stores HTTP header fields in insertion order, preserving
// duplicates (a request may legitimately repeat a header name, and
// trailers are themselves just a Header). Small requests carry few
// headers, so a plain slice outperforms a map and keeps iteration order
// stable for re-emission.
//
// Lookups are case-insensitive per RFC 7230 §3.2.
type Header struct {
	fields []headerField
}

type headerField struct {
	name  string
	value string
}

// NewHeader returns an empty Header ready for use.
func NewHeader() *Header {
	return &Header{}
}

// Add appends a header field, keeping any existing value(s) for name.
// Returns ErrInvalidHeader if name or value carries a bare CR or LF
// (RFC 7230 §3.2 — this is what stops header/response-splitting
// injection).
func (h *Header) Add(name, value string) error {
	if containsCRLF(name) || containsCRLF(value) {
		return ErrInvalidHeader
	}
	h.fields = append(h.fields, headerField{name: name, value: value})
	return nil
}

// Set replaces all existing values for name with a single value.
func (h *Header) Set(name, value string) error {
	if containsCRLF(name) || containsCRLF(value) {
		return ErrInvalidHeader
	}
	h.Del(name)
	h.fields = append(h.fields, headerField{name: name, value: value})
	return nil
}

// Get returns the first value stored for name, or "" if absent.
func (h *Header) Get(name string) string {
	for _, f := range h.fields {
		if equalFold(f.name, name) {
			return f.value
		}
	}
	return ""
}

// Values returns every value stored for name, in insertion order.
func (h *Header) Values(name string) []string {
	var out []string
	for _, f := range h.fields {
		if equalFold(f.name, name) {
			out = append(out, f.value)
		}
	}
	return out
}

// Has reports whether name is present at least once.
func (h *Header) Has(name string) bool {
	for _, f := range h.fields {
		if equalFold(f.name, name) {
			return true
		}
	}
	return false
}

// HasToken reports whether the (comma-separated) value of name contains
// token, case-insensitively — the shape needed for Connection: close,
// Connection: keep-alive and Transfer-Encoding: chunked checks.
func (h *Header) HasToken(name, token string) bool {
	for _, f := range h.fields {
		if !equalFold(f.name, name) {
			continue
		}
		if hasCommaToken(f.value, token) {
			return true
		}
	}
	return false
}

// Del removes every field matching name.
func (h *Header) Del(name string) {
	out := h.fields[:0]
	for _, f := range h.fields {
		if !equalFold(f.name, name) {
			out = append(out, f)
		}
	}
	h.fields = out
}

// Len returns the number of stored fields (not distinct names).
func (h *Header) Len() int { return len(h.fields) }

// Reset clears all fields for reuse from a pool.
func (h *Header) Reset() { h.fields = h.fields[:0] }

// Clone returns a deep copy.
func (h *Header) Clone() *Header {
	if h == nil {
		return NewHeader()
	}
	c := &Header{fields: make([]headerField, len(h.fields))}
	copy(c.fields, h.fields)
	return c
}

// VisitAll calls visitor for every field in insertion order. Iteration
// stops early if visitor returns false.
func (h *Header) VisitAll(visitor func(name, value string) bool) {
	for _, f := range h.fields {
		if !visitor(f.name, f.value) {
			return
		}
	}
}

func containsCRLF(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '\r' || s[i] == '\n' {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if lower(a[i]) != lower(b[i]) {
			return false
		}
	}
	return true
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + 32
	}
	return b
}

// hasCommaToken reports whether token appears as one of the
// comma-separated, whitespace-trimmed items in value (case-insensitive).
func hasCommaToken(value, token string) bool {
	start := 0
	for i := 0; i <= len(value); i++ {
		if i == len(value) || value[i] == ',' {
			item := trimSpace(value[start:i])
			if equalFold(item, token) {
				return true
			}
			start = i + 1
		}
	}
	return false
}

func trimSpace(s string) string {
	i, j := 0, len(s)
	for i < j && isSpace(s[i]) {
		i++
	}
	for j > i && isSpace(s[j-1]) {
		j--
	}
	return s[i:j]
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' }
