package body

type sentinelError struct{ s string }

func newErr(s string) error { return &sentinelError{s: s} }

func (e *sentinelError) Error() string { return "body: " + e.s }
