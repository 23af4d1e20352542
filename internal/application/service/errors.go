package service

import (
	"fmt"

	"github.com/finops/budget-approval/internal/domain/entity"
)

// ValidationError reports malformed, missing or out-of-range input. It is
// recovered locally and shown inline on the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// AuthorizationError reports that the actor's role lacks permission for an
// operation. The UI gates operations by role, so reaching this is a bug
// rather than a user-correctable condition.
type AuthorizationError struct {
	Role      entity.Role
	Operation Operation
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("role %s is not permitted to perform %s", e.Role, e.Operation)
}

// InvalidStateError reports an operation attempted on a request in the wrong
// lifecycle state, e.g. approving an already-approved request.
type InvalidStateError struct {
	RequestID string
	Status    string
	Operation Operation
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s request %s in state %s", e.Operation, e.RequestID, e.Status)
}

// LimitExceededError reports that recording an expense would push the total
// spend past the request's approved amount. Amounts are minor units.
type LimitExceededError struct {
	RequestID string
	Attempted int64
	Approved  int64
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("expenses on request %s would total %d, exceeding approved amount %d",
		e.RequestID, e.Attempted, e.Approved)
}

// NotFoundError reports a missing entity by kind and id
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}
