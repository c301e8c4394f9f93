package hook

import "github.com/pkg/errors"

var (
	// ErrMalformedReference is returned when a reference string does not have
	// the "<module-path>:<symbol>" shape.
	ErrMalformedReference = errors.New("malformed hook reference")

	// ErrUnknownModule is returned when the module path of a reference was
	// never registered.
	ErrUnknownModule = errors.New("unknown hook module")

	// ErrUnknownSymbol is returned when the module exists but does not export
	// the referenced symbol.
	ErrUnknownSymbol = errors.New("unknown hook symbol")

	// ErrWrongSignature is returned when the referenced export exists but does
	// not match the signature class expected for the hook slot.
	ErrWrongSignature = errors.New("hook has wrong signature for this slot")

	// ErrAccessDenied is raised by user-mapping hooks to reject a login as a
	// policy decision. It is an expected rejection path, not a system fault.
	ErrAccessDenied = errors.New("access denied")
)

// Denied wraps ErrAccessDenied with the policy reason. User-mapping hooks
// return it to reject a login outright.
func Denied(reason string) error {
	return errors.Wrap(ErrAccessDenied, reason)
}
