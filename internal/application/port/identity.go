package port

import (
	"context"

	"github.com/finops/budget-approval/internal/domain/entity"
)

// IdentityProvider supplies the current actor. Role checks downstream are
// advisory gating only; there is no authentication enforcement in scope.
type IdentityProvider interface {
	// Authenticate resolves an actor id into a full actor, or fails if the
	// actor is unknown.
	Authenticate(ctx context.Context, actorID string) (*entity.Actor, error)
}
