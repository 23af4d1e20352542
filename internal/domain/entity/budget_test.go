package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBudget() *Budget {
	return &Budget{
		ID:              "budget-1",
		DepartmentID:    "dept-1",
		FinancialYear:   "2023-2024",
		Amount:          500000,
		AllocatedAmount: 120000,
		RemainingAmount: 380000,
		Status:          BudgetStatusActive,
	}
}

func TestBudget_DebitRemaining(t *testing.T) {
	b := newTestBudget()

	err := b.DebitRemaining(22000)
	require.NoError(t, err)

	assert.Equal(t, int64(358000), b.RemainingAmount)
	assert.Equal(t, int64(142000), b.AllocatedAmount)
	assert.Equal(t, int64(500000), b.Amount)
	assert.True(t, b.Balanced())
}

func TestBudget_DebitRemaining_Insufficient(t *testing.T) {
	b := newTestBudget()

	err := b.DebitRemaining(380001)
	require.Error(t, err)

	var insufficientErr *InsufficientBalanceError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, "budget-1", insufficientErr.BudgetID)
	assert.Equal(t, int64(380001), insufficientErr.Requested)
	assert.Equal(t, int64(380000), insufficientErr.Remaining)

	// failed debit must leave the budget untouched
	assert.Equal(t, int64(380000), b.RemainingAmount)
	assert.Equal(t, int64(120000), b.AllocatedAmount)
	assert.True(t, b.Balanced())
}

func TestBudget_CreditAllocatedToRemaining(t *testing.T) {
	b := newTestBudget()
	require.NoError(t, b.DebitRemaining(22000))

	err := b.CreditAllocatedToRemaining(22000)
	require.NoError(t, err)

	assert.Equal(t, int64(380000), b.RemainingAmount)
	assert.Equal(t, int64(120000), b.AllocatedAmount)
	assert.True(t, b.Balanced())
}

func TestBudget_CreditAllocatedToRemaining_ExceedsAllocated(t *testing.T) {
	b := newTestBudget()

	err := b.CreditAllocatedToRemaining(120001)
	require.Error(t, err)

	var insufficientErr *InsufficientBalanceError
	assert.ErrorAs(t, err, &insufficientErr)
	assert.True(t, b.Balanced())
}

func TestBudget_DebitCreditRoundTrip(t *testing.T) {
	b := newTestBudget()

	amounts := []int64{1, 5000, 380000}
	for _, amount := range amounts {
		before := *b
		require.NoError(t, b.DebitRemaining(amount))
		require.NoError(t, b.CreditAllocatedToRemaining(amount))
		assert.Equal(t, before.RemainingAmount, b.RemainingAmount)
		assert.Equal(t, before.AllocatedAmount, b.AllocatedAmount)
		assert.True(t, b.Balanced())
	}
}

func TestRole_IsValid(t *testing.T) {
	assert.True(t, RoleFinance.IsValid())
	assert.True(t, RoleHOD.IsValid())
	assert.True(t, RoleClerk.IsValid())
	assert.False(t, Role("admin").IsValid())
	assert.False(t, Role("").IsValid())
}
