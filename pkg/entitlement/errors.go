package entitlement

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated indicates a missing or expired bearer credential.
	// Operations requiring a principal short-circuit with it before any
	// network attempt.
	ErrUnauthenticated = errors.New("entitlement: missing or expired credential")

	// ErrUnavailable indicates a transport-level failure reaching a remote
	// endpoint. It is the only failure kind that triggers the fallback
	// verifier.
	ErrUnavailable = errors.New("entitlement: endpoint unavailable")

	// ErrUnauthorized indicates the action lacks its preconditions, such as
	// opening the billing portal without a prior billing relationship.
	ErrUnauthorized = errors.New("entitlement: action not permitted")

	// ErrClientClosed is returned by operations on a disposed client.
	ErrClientClosed = errors.New("entitlement: client is closed")
)

// BusinessError reports a processing failure explicitly returned by the
// remote side, including payloads that fail strict validation at the
// boundary.
type BusinessError struct {
	Message string
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("entitlement: remote reported failure: %s", e.Message)
}

// IsBusinessError reports whether err carries a BusinessError.
func IsBusinessError(err error) bool {
	var be *BusinessError
	return errors.As(err, &be)
}
