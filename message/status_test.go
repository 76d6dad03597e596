package message

import "testing"

func TestReasonPhraseKnownAndUnknown(t *testing.T) {
	if got := ReasonPhrase(200); got != "OK" {
		t.Fatalf("ReasonPhrase(200) = %q", got)
	}
	if got := ReasonPhrase(599); got != "Unknown" {
		t.Fatalf("ReasonPhrase(599) = %q", got)
	}
}

func TestUnsupportedVersionErrorMessage(t *testing.T) {
	err := &UnsupportedVersionError{Version: "HTTP/2.0"}
	if err.Error() == "" {
		t.Fatal("empty error message")
	}
}
