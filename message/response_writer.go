package message

import (
	"bufio"
	"strconv"
)

// WriteResponse implements §4.6's writing rules and §4.8 step 6's
// write_body suppression: it always emits the status line, headers, and
// blank line (so framing headers stay accurate per Design Note (c) even
// when no body follows), but only emits the body itself when writeBody
// is true. The Outcome is computed after writing, from the upgrade
// handler, the final encoding, and the Connection header — exactly the
// order the original write_response follows.
func WriteResponse(res *Response, w *bufio.Writer, writeBody bool) (Outcome, error) {
	bodyLen, bodyKnown := res.Body.Len()

	enc, err := responseFraming(res.Header, res.Version, bodyLen, bodyKnown)
	if err != nil {
		return Outcome{}, err
	}

	if err := writeStatusLine(w, res); err != nil {
		return Outcome{}, err
	}
	if err := writeHeaderBlock(w, res.Header); err != nil {
		return Outcome{}, err
	}

	if writeBody {
		if err := writeResponseBody(w, res, enc); err != nil {
			return Outcome{}, err
		}
	} else if err := w.Flush(); err != nil {
		return Outcome{}, err
	}

	return computeOutcome(res, enc), nil
}

// writeResponseBody reuses the same encoding-to-bytes mapping the
// request writer uses (writeBody, in request_writer.go).
func writeResponseBody(w *bufio.Writer, res *Response, enc Encoding) error {
	return writeBody(w, res.Body, enc)
}

func computeOutcome(res *Response, enc Encoding) Outcome {
	if res.Upgrade != nil {
		h := res.Upgrade
		res.Upgrade = nil // "removed at send time" (spec §9)
		return Outcome{Kind: OutcomeUpgrade, Upgrade: h}
	}
	if enc.Kind == CloseDelimited || res.Header.HasToken("Connection", "close") {
		return Outcome{Kind: OutcomeClose}
	}
	return Outcome{Kind: OutcomeKeepAlive}
}

func writeStatusLine(w *bufio.Writer, res *Response) error {
	if _, err := w.WriteString(res.Version.String()); err != nil {
		return err
	}
	if _, err := w.WriteString(" "); err != nil {
		return err
	}
	if _, err := w.WriteString(strconv.Itoa(res.StatusCode)); err != nil {
		return err
	}
	if _, err := w.WriteString(" "); err != nil {
		return err
	}
	reason := res.Reason
	if reason == "" {
		reason = ReasonPhrase(res.StatusCode)
	}
	if _, err := w.WriteString(reason); err != nil {
		return err
	}
	_, err := w.WriteString("\r\n")
	return err
}
