package entity

import "fmt"

// InsufficientBalanceError is returned when a balance movement would drive a
// budget's remaining (or allocated) balance negative. Amounts are minor units.
type InsufficientBalanceError struct {
	BudgetID  string
	Requested int64
	Remaining int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance on budget %s: requested %d, available %d",
		e.BudgetID, e.Requested, e.Remaining)
}
