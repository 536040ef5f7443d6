package core

import (
	"context"

	"github.com/google/uuid"
)

const IdentityContextKey contextKey = "identity"

// Identity is the already-authenticated caller, resolved from the
// session token by the auth middleware. Slices treat the user id as
// opaque.
type Identity struct {
	UserID   uuid.UUID
	Username string
}

func CallerIdentity(ctx context.Context) Identity {
	identity, ok := ctx.Value(IdentityContextKey).(Identity)
	if !ok {
		return Identity{}
	}

	return identity
}
