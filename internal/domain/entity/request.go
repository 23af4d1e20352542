package entity

import "time"

// ExpenditureRequest represents a clerk's ask to spend against a budget,
// requiring head-of-department approval. The budget hierarchy ids are copied
// from the budget at submission time.
//
// Invariant: ApprovedAmount <= RequestedAmount when approved, and
// ApprovedAmount == 0 while the request is pending or rejected.
type ExpenditureRequest struct {
	ID              string    `json:"id"`
	BudgetID        string    `json:"budget_id"`
	DepartmentID    string    `json:"department_id"`
	SubDepartmentID string    `json:"sub_department_id"`
	BudgetHeadID    string    `json:"budget_head_id"`
	SubBudgetHeadID string    `json:"sub_budget_head_id"`
	RequestedBy     string    `json:"requested_by"`
	RequestedAmount int64     `json:"requested_amount"`
	ApprovedAmount  int64     `json:"approved_amount"`
	Purpose         string    `json:"purpose"`
	Status          string    `json:"status"`
	ReferenceNumber string    `json:"reference_number,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Expense represents an actual recorded spend against an approved request,
// possibly one installment of several. Immutable once recorded.
type Expense struct {
	ID                string    `json:"id"`
	RequestID         string    `json:"request_id"`
	ReferenceNumber   string    `json:"reference_number"`
	DepartmentID      string    `json:"department_id"`
	SubDepartmentID   string    `json:"sub_department_id"`
	BudgetHeadID      string    `json:"budget_head_id"`
	SubBudgetHeadID   string    `json:"sub_budget_head_id"`
	Amount            int64     `json:"amount"`
	InstallmentNumber int       `json:"installment_number"`
	TotalInstallments int       `json:"total_installments"`
	RecordedBy        string    `json:"recorded_by"`
	Status            string    `json:"status"`
	Notes             string    `json:"notes,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
