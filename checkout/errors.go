package checkout

import "fmt"

// ErrorKind is the checkout error taxonomy from spec.md §7.
type ErrorKind string

const (
	MissingRequiredParameter ErrorKind = "MissingRequiredParameter"
	CommitNotFetched         ErrorKind = "CommitNotFetched"
	CheckoutConflict         ErrorKind = "CheckoutConflict"
	Internal                 ErrorKind = "Internal"
	NotImplemented           ErrorKind = "NotImplemented"
)

// Error is the error type Checkout returns for the failures it
// classifies: a missing Ref, a target that cannot be resolved or read,
// conflicts, and accumulated internal error ops. Caller is always
// "checkout". Other failures (filesystem, index store, HEAD/ref writes,
// malformed objects, a bad pattern) are returned as they are, not
// wrapped in an Error.
type Error struct {
	Caller string
	Kind   ErrorKind
	// Conflicts carries every conflicting path, for Kind ==
	// CheckoutConflict.
	Conflicts []string
	// Messages carries every accumulated internal error, for Kind ==
	// Internal.
	Messages []string
	// Err wraps an underlying error, when Kind doesn't need a batch.
	Err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case CheckoutConflict:
		return fmt.Sprintf("%s: %s: %d conflicting path(s): %v", e.Caller, e.Kind, len(e.Conflicts), e.Conflicts)
	case Internal:
		return fmt.Sprintf("%s: %s: %v", e.Caller, e.Kind, e.Messages)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Caller, e.Kind, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Caller, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, err error) *Error {
	return &Error{Caller: "checkout", Kind: kind, Err: err}
}
