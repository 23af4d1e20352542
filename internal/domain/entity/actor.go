package entity

// Actor is the current user as supplied by the identity provider. Role gates
// which workflow operations are callable; Department scopes which budgets and
// requests a clerk or head of department may act on. Finance acts across all
// departments.
type Actor struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	Department string `json:"department,omitempty"`
}

// ActsAcrossDepartments reports whether the actor is exempt from department
// scoping.
func (a *Actor) ActsAcrossDepartments() bool {
	return a.Role == RoleFinance
}
