package flow

import (
	"errors"
	"fmt"
)

// ErrUnknownProvider is returned when a request names a provider that is not
// in the registry. Handlers answer it with a not-found response.
var ErrUnknownProvider = errors.New("unknown provider")

// Reason classifies why a login attempt failed. Reasons are internal
// observability data; the user-facing response is always a generic
// authentication failure.
type Reason string

const (
	// ReasonStateMismatch marks a callback whose state does not match the
	// stored attempt. Logged as a potential forgery signal.
	ReasonStateMismatch Reason = "state_mismatch"

	// ReasonAttemptExpired marks a callback for which no live attempt
	// exists, either timed out or already consumed.
	ReasonAttemptExpired Reason = "attempt_expired"

	// ReasonAccessDenied marks a login rejected by the user-mapping hook as
	// a policy decision.
	ReasonAccessDenied Reason = "access_denied"

	// ReasonExchangeFailed marks a failed authorization-code exchange.
	ReasonExchangeFailed Reason = "exchange_failed"

	// ReasonBadToken marks a token the validator refused.
	ReasonBadToken Reason = "bad_token"

	// ReasonMappingFailed marks an internal fault inside the user-mapping
	// step, distinct from a policy denial.
	ReasonMappingFailed Reason = "mapping_failed"

	// ReasonProviderError marks a callback in which the provider reported an
	// error instead of an authorization code.
	ReasonProviderError Reason = "provider_error"
)

// Error is a failed login attempt with its classification attached.
type Error struct {
	Reason Reason
	err    error
}

func failed(reason Reason, err error) *Error {
	return &Error{Reason: reason, err: err}
}

func (e *Error) Error() string {
	if e.err == nil {
		return string(e.Reason)
	}

	return fmt.Sprintf("%s: %v", e.Reason, e.err)
}

func (e *Error) Unwrap() error {
	return e.err
}

// ReasonOf extracts the failure reason from an error chain. It returns an
// empty Reason when the error is not a flow failure.
func ReasonOf(err error) Reason {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Reason
	}

	return ""
}
