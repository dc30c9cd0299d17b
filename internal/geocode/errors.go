package geocode

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of the reverse-geocoding oracle.
type ErrorKind int

const (
	// KindNetwork covers timeouts and connectivity failures.
	KindNetwork ErrorKind = iota + 1
	// KindRateLimited means the oracle throttled the request (HTTP 429).
	KindRateLimited
	// KindOracle means the oracle answered with a structured error or an empty result.
	KindOracle
	// KindMalformed means the response body could not be decoded.
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindRateLimited:
		return "rate_limited"
	case KindOracle:
		return "oracle_error"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Retryable reports whether the client retries failures of this kind.
func (k ErrorKind) Retryable() bool {
	return k == KindNetwork || k == KindRateLimited
}

// Sentinels for errors.Is checks against a kind.
var (
	ErrNetwork     = &Error{Kind: KindNetwork}
	ErrRateLimited = &Error{Kind: KindRateLimited}
	ErrOracle      = &Error{Kind: KindOracle}
	ErrMalformed   = &Error{Kind: KindMalformed}
)

// Error is a failed oracle interaction.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNetwork) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func newError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
