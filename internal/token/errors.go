package token

import (
	"errors"
	"fmt"
)

// Kind is the specific validation failure class of an Error.
type Kind string

// Validation failure kinds.
const (
	KindExpired      Kind = "expired"
	KindBadSignature Kind = "bad-signature"
	KindBadAudience  Kind = "bad-audience"
	KindBadIssuer    Kind = "bad-issuer"
	KindBadNonce     Kind = "bad-nonce"
	KindMalformed    Kind = "malformed"
)

// Error is a token validation failure carrying its specific sub-reason.
type Error struct {
	Kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("token %s: %s: %v", e.Kind, e.msg, e.err)
	}

	return fmt.Sprintf("token %s: %s", e.Kind, e.msg)
}

func (e *Error) Unwrap() error {
	return e.err
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

func wrapError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, msg: msg, err: err}
}

// KindOf returns the Kind of a validation error, or the empty string when err
// is not a token validation failure.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}

	return ""
}
