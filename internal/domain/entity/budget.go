package entity

import "time"

// Budget represents a department's allocated funds for a financial year,
// budget head and sub-head. All amounts are integer minor units.
//
// Invariant: Amount == AllocatedAmount + RemainingAmount at all times.
// Balance fields are mutated only through DebitRemaining and
// CreditAllocatedToRemaining so the invariant cannot be broken piecemeal.
type Budget struct {
	ID              string    `json:"id"`
	DepartmentID    string    `json:"department_id"`
	SubDepartmentID string    `json:"sub_department_id"`
	BudgetHeadID    string    `json:"budget_head_id"`
	SubBudgetHeadID string    `json:"sub_budget_head_id"`
	FinancialYear   string    `json:"financial_year"`
	Amount          int64     `json:"amount"`
	AllocatedAmount int64     `json:"allocated_amount"`
	RemainingAmount int64     `json:"remaining_amount"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DebitRemaining moves amount from the remaining balance to the allocated
// balance. It fails with *InsufficientBalanceError if the remaining balance
// would go negative, leaving the budget untouched.
func (b *Budget) DebitRemaining(amount int64) error {
	if amount > b.RemainingAmount {
		return &InsufficientBalanceError{
			BudgetID:  b.ID,
			Requested: amount,
			Remaining: b.RemainingAmount,
		}
	}
	b.RemainingAmount -= amount
	b.AllocatedAmount += amount
	return nil
}

// CreditAllocatedToRemaining moves amount back from the allocated balance to
// the remaining balance, reversing an earlier debit. It fails with
// *InsufficientBalanceError if more than the allocated balance is released.
func (b *Budget) CreditAllocatedToRemaining(amount int64) error {
	if amount > b.AllocatedAmount {
		return &InsufficientBalanceError{
			BudgetID:  b.ID,
			Requested: amount,
			Remaining: b.AllocatedAmount,
		}
	}
	b.AllocatedAmount -= amount
	b.RemainingAmount += amount
	return nil
}

// Balanced reports whether the balance invariant holds.
func (b *Budget) Balanced() bool {
	return b.Amount == b.AllocatedAmount+b.RemainingAmount
}

// IsActive reports whether the budget accepts new expenditure requests.
func (b *Budget) IsActive() bool {
	return b.Status == BudgetStatusActive
}
