package identity

import (
	"context"
	"fmt"

	"github.com/finops/budget-approval/internal/application/port"
	"github.com/finops/budget-approval/internal/domain/entity"
)

// StaticProvider resolves actors from a fixed in-memory directory. There is
// no credential check: callers pass an actor id and get the matching profile.
type StaticProvider struct {
	actors map[string]*entity.Actor
}

// NewStaticProvider creates a provider seeded with the given actors
func NewStaticProvider(actors []*entity.Actor) *StaticProvider {
	byID := make(map[string]*entity.Actor, len(actors))
	for _, a := range actors {
		byID[a.ID] = a
	}
	return &StaticProvider{actors: byID}
}

// NewDefaultProvider creates a provider with the standard demo directory:
// one actor per role, the department roles both in dept-1.
func NewDefaultProvider() *StaticProvider {
	return NewStaticProvider([]*entity.Actor{
		{ID: "1", Name: "Finance Admin", Email: "finance@example.com", Role: entity.RoleFinance},
		{ID: "2", Name: "Department Head", Email: "hod@example.com", Role: entity.RoleHOD, Department: "dept-1"},
		{ID: "3", Name: "Clerk User", Email: "clerk@example.com", Role: entity.RoleClerk, Department: "dept-1"},
	})
}

// Authenticate resolves an actor id, or fails if the actor is unknown
func (p *StaticProvider) Authenticate(_ context.Context, actorID string) (*entity.Actor, error) {
	actor, ok := p.actors[actorID]
	if !ok {
		return nil, fmt.Errorf("unknown actor %q", actorID)
	}
	c := *actor
	return &c, nil
}

// Verify interface compliance
var _ port.IdentityProvider = (*StaticProvider)(nil)
