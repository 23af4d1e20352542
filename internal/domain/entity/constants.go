package entity

// Budget status constants
const (
	BudgetStatusActive   = "active"
	BudgetStatusDraft    = "draft"
	BudgetStatusArchived = "archived"
)

// Expenditure request status constants
const (
	RequestStatusPending   = "pending"
	RequestStatusApproved  = "approved"
	RequestStatusRejected  = "rejected"
	RequestStatusCompleted = "completed"
)

// Expense status constants. Only "recorded" is written in the current
// workflow; verification is a later lifecycle stage kept for the schema.
const (
	ExpenseStatusRecorded = "recorded"
	ExpenseStatusVerified = "verified"
	ExpenseStatusRejected = "rejected"
)

// History action constants
const (
	HistoryActionCreated  = "created"
	HistoryActionEdited   = "edited"
	HistoryActionApproved = "approved"
	HistoryActionRejected = "rejected"
	HistoryActionReverted = "reverted"
)

// Role represents an actor's role in the approval workflow
type Role string

const (
	RoleFinance Role = "finance"
	RoleHOD     Role = "hod"
	RoleClerk   Role = "clerk"
)

var validRoles = map[Role]bool{
	RoleFinance: true,
	RoleHOD:     true,
	RoleClerk:   true,
}

// IsValid returns true if the role is a known workflow role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}
