package principal

import (
	"errors"

	"github.com/google/uuid"
)

// ErrNoPrincipal indicates that no authenticated principal is available.
var ErrNoPrincipal = errors.New("principal: no authenticated principal")

// Principal identifies the authenticated end-user together with the bearer
// credential issued by the identity provider. It is a plain value: comparing
// two principals with Equal answers "is this still the same signed-in user",
// regardless of token rotation.
type Principal struct {
	ID    uuid.UUID // stable user identifier
	Token string    // bearer credential for remote calls
}

// IsZero reports whether p carries no identity.
func (p Principal) IsZero() bool {
	return p.ID == uuid.Nil
}

// Equal reports whether both principals refer to the same user.
// Tokens are deliberately ignored: a refreshed credential does not make
// a different principal.
func (p Principal) Equal(other Principal) bool {
	return p.ID == other.ID
}
