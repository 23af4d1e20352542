package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finops/budget-approval/internal/application/port"
	"github.com/finops/budget-approval/internal/domain/entity"
)

func submitRequest(t *testing.T, f *fixture, amount int64) *entity.ExpenditureRequest {
	t.Helper()
	req, err := f.requests.Submit(context.Background(), SubmitRequestInput{
		BudgetID:        f.budget.ID,
		RequestedAmount: amount,
		Purpose:         "New laptops for the development team",
	}, f.clerk)
	require.NoError(t, err)
	return req
}

func TestSubmitRequest(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := submitRequest(t, f, 25000)

	assert.Equal(t, entity.RequestStatusPending, req.Status)
	assert.Equal(t, int64(25000), req.RequestedAmount)
	assert.Equal(t, int64(0), req.ApprovedAmount)
	assert.Equal(t, f.clerk.ID, req.RequestedBy)
	assert.Equal(t, "dept-1", req.DepartmentID)
	assert.Equal(t, "sbh-1", req.SubBudgetHeadID)

	// Submission must not move any budget balance.
	budget := f.currentBudget()
	assert.Equal(t, int64(380000), budget.RemainingAmount)
	assert.Equal(t, int64(120000), budget.AllocatedAmount)

	records, err := f.history.ForRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, entity.HistoryActionCreated, records[0].Action)
	assert.Equal(t, f.clerk.ID, records[0].PerformedBy)
	assert.Equal(t, entity.RoleClerk, records[0].PerformedByRole)
	require.NotNil(t, records[0].NewAmount)
	assert.Equal(t, int64(25000), *records[0].NewAmount)
}

func TestSubmitRequestValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tests := []struct {
		name  string
		in    SubmitRequestInput
		actor *entity.Actor
		field string
	}{
		{
			name:  "purpose too short",
			in:    SubmitRequestInput{BudgetID: "budget-1", RequestedAmount: 1000, Purpose: "too short"},
			actor: f.clerk,
			field: "purpose",
		},
		{
			name:  "purpose too long",
			in:    SubmitRequestInput{BudgetID: "budget-1", RequestedAmount: 1000, Purpose: strings.Repeat("x", 201)},
			actor: f.clerk,
			field: "purpose",
		},
		{
			name:  "zero amount",
			in:    SubmitRequestInput{BudgetID: "budget-1", RequestedAmount: 0, Purpose: "New laptops for the team"},
			actor: f.clerk,
			field: "requested_amount",
		},
		{
			name:  "amount exceeds remaining",
			in:    SubmitRequestInput{BudgetID: "budget-1", RequestedAmount: 380001, Purpose: "New laptops for the team"},
			actor: f.clerk,
			field: "requested_amount",
		},
		{
			name:  "unknown budget",
			in:    SubmitRequestInput{BudgetID: "nope", RequestedAmount: 1000, Purpose: "New laptops for the team"},
			actor: f.clerk,
			field: "budget_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.requests.Submit(ctx, tt.in, tt.actor)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestSubmitRequestAuthorization(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	in := SubmitRequestInput{BudgetID: "budget-1", RequestedAmount: 1000, Purpose: "New laptops for the team"}

	// Finance allocates budgets but does not submit spending requests.
	_, err := f.requests.Submit(ctx, in, f.finance)
	var aerr *AuthorizationError
	require.ErrorAs(t, err, &aerr)

	// A clerk from another department cannot submit against this budget.
	outsider := &entity.Actor{ID: "9", Name: "Other Clerk", Role: entity.RoleClerk, Department: "dept-2"}
	_, err = f.requests.Submit(ctx, in, outsider)
	require.ErrorAs(t, err, &aerr)
}

func TestApproveRequestDebitsBudget(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := submitRequest(t, f, 25000)

	approved, err := f.requests.Approve(ctx, req.ID, 22000, "approved with a reduced amount", f.hod)
	require.NoError(t, err)

	assert.Equal(t, entity.RequestStatusApproved, approved.Status)
	assert.Equal(t, int64(22000), approved.ApprovedAmount)
	assert.True(t, strings.HasPrefix(approved.ReferenceNumber, "REQ-"))

	// Only the approved amount moves; the unapproved 3000 stays in remaining.
	budget := f.currentBudget()
	assert.Equal(t, int64(358000), budget.RemainingAmount)
	assert.Equal(t, int64(142000), budget.AllocatedAmount)
	assert.True(t, budget.Balanced())

	records, err := f.history.ForRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, entity.HistoryActionApproved, records[1].Action)
	assert.Equal(t, entity.RequestStatusPending, records[1].PreviousStatus)
	assert.Equal(t, entity.RequestStatusApproved, records[1].NewStatus)
	require.NotNil(t, records[1].NewAmount)
	assert.Equal(t, int64(22000), *records[1].NewAmount)
}

func TestApproveRequestAboveRequestedAmount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := submitRequest(t, f, 25000)

	_, err := f.requests.Approve(ctx, req.ID, 30000, "", f.hod)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "approved_amount", verr.Field)

	// Nothing changed.
	stored, err := f.requests.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusPending, stored.Status)
	assert.Equal(t, int64(380000), f.currentBudget().RemainingAmount)
}

func TestApproveRequestInsufficientBalance(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := submitRequest(t, f, 300000)
	// Drain the budget behind the request's back.
	other := submitRequest(t, f, 200000)
	_, err := f.requests.Approve(ctx, other.ID, 200000, "", f.hod)
	require.NoError(t, err)

	_, err = f.requests.Approve(ctx, req.ID, 300000, "", f.hod)
	var berr *entity.InsufficientBalanceError
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, int64(300000), berr.Requested)
	assert.Equal(t, int64(180000), berr.Remaining)

	// The failed approval left the request pending and the ledger untouched.
	stored, err := f.requests.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusPending, stored.Status)
	assert.Equal(t, int64(180000), f.currentBudget().RemainingAmount)
}

func TestApproveRequestWrongState(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := submitRequest(t, f, 25000)
	_, err := f.requests.Approve(ctx, req.ID, 25000, "", f.hod)
	require.NoError(t, err)

	_, err = f.requests.Approve(ctx, req.ID, 25000, "", f.hod)
	var serr *InvalidStateError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, entity.RequestStatusApproved, serr.Status)
}

func TestApproveRequestAuthorization(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := submitRequest(t, f, 25000)

	var aerr *AuthorizationError
	_, err := f.requests.Approve(ctx, req.ID, 25000, "", f.clerk)
	require.ErrorAs(t, err, &aerr)

	otherHOD := &entity.Actor{ID: "8", Name: "Marketing Head", Role: entity.RoleHOD, Department: "dept-2"}
	_, err = f.requests.Approve(ctx, req.ID, 25000, "", otherHOD)
	require.ErrorAs(t, err, &aerr)
}

func TestRejectRequest(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := submitRequest(t, f, 25000)

	rejected, err := f.requests.Reject(ctx, req.ID, "insufficient justification", f.hod)
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusRejected, rejected.Status)

	// Rejection never touches the ledger.
	budget := f.currentBudget()
	assert.Equal(t, int64(380000), budget.RemainingAmount)
	assert.Equal(t, int64(120000), budget.AllocatedAmount)

	records, err := f.history.ForRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, entity.HistoryActionRejected, records[1].Action)
	assert.Equal(t, "insufficient justification", records[1].Notes)
}

func TestRejectRequestRequiresNotes(t *testing.T) {
	f := newFixture()

	req := submitRequest(t, f, 25000)

	_, err := f.requests.Reject(context.Background(), req.ID, "", f.hod)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "notes", verr.Field)
}

func TestRevertApprovedRequestRestoresBudget(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := submitRequest(t, f, 25000)
	_, err := f.requests.Approve(ctx, req.ID, 22000, "", f.hod)
	require.NoError(t, err)

	reverted, err := f.requests.Revert(ctx, req.ID, f.hod)
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusPending, reverted.Status)
	assert.Equal(t, int64(0), reverted.ApprovedAmount)

	// The full approved amount flows back.
	budget := f.currentBudget()
	assert.Equal(t, int64(380000), budget.RemainingAmount)
	assert.Equal(t, int64(120000), budget.AllocatedAmount)
	assert.True(t, budget.Balanced())

	records, err := f.history.ForRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, entity.HistoryActionReverted, records[2].Action)
	require.NotNil(t, records[2].PreviousAmount)
	assert.Equal(t, int64(22000), *records[2].PreviousAmount)
}

func TestRevertApprovedRequestWithRecordedExpensesFails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := submitRequest(t, f, 25000)
	_, err := f.requests.Approve(ctx, req.ID, 22000, "", f.hod)
	require.NoError(t, err)
	_, err = f.expenses.Record(ctx, req.ID, RecordExpenseInput{
		Amount: 15000, InstallmentNumber: 1, TotalInstallments: 2,
	}, f.clerk)
	require.NoError(t, err)

	// Money has been spent against the approval; reverting would return
	// spent funds to remaining and leave the expense total above the
	// approved amount.
	_, err = f.requests.Revert(ctx, req.ID, f.hod)
	var serr *InvalidStateError
	require.ErrorAs(t, err, &serr)

	stored, err := f.requests.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusApproved, stored.Status)
	assert.Equal(t, int64(22000), stored.ApprovedAmount)

	budget := f.currentBudget()
	assert.Equal(t, int64(358000), budget.RemainingAmount)
	assert.Equal(t, int64(142000), budget.AllocatedAmount)

	sum, err := f.expenseRepo.SumByRequestID(ctx, req.ID)
	require.NoError(t, err)
	assert.LessOrEqual(t, sum, stored.ApprovedAmount)
}

func TestRevertRejectedRequest(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := submitRequest(t, f, 25000)
	_, err := f.requests.Reject(ctx, req.ID, "come back with quotes", f.hod)
	require.NoError(t, err)

	reverted, err := f.requests.Revert(ctx, req.ID, f.hod)
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusPending, reverted.Status)

	// No balances moved in either direction.
	assert.Equal(t, int64(380000), f.currentBudget().RemainingAmount)

	records, err := f.history.ForRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Nil(t, records[2].PreviousAmount)
}

func TestRevertPendingRequestFails(t *testing.T) {
	f := newFixture()

	req := submitRequest(t, f, 25000)

	_, err := f.requests.Revert(context.Background(), req.ID, f.hod)
	var serr *InvalidStateError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, entity.RequestStatusPending, serr.Status)
}

func TestEditRequest(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := submitRequest(t, f, 25000)

	edited, err := f.requests.Edit(ctx, req.ID, EditRequestInput{
		RequestedAmount: 28000,
		Purpose:         "New laptops and docking stations",
		Notes:           "added docking stations",
	}, f.clerk)
	require.NoError(t, err)
	assert.Equal(t, int64(28000), edited.RequestedAmount)
	assert.Equal(t, "New laptops and docking stations", edited.Purpose)

	records, err := f.history.ForRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, entity.HistoryActionEdited, records[1].Action)
	require.NotNil(t, records[1].PreviousAmount)
	assert.Equal(t, int64(25000), *records[1].PreviousAmount)
	require.NotNil(t, records[1].NewAmount)
	assert.Equal(t, int64(28000), *records[1].NewAmount)
}

func TestEditRequestOwnership(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := submitRequest(t, f, 25000)
	in := EditRequestInput{RequestedAmount: 20000, Purpose: "New laptops for the team"}

	// Another clerk in the same department does not own the request.
	otherClerk := &entity.Actor{ID: "7", Name: "Second Clerk", Role: entity.RoleClerk, Department: "dept-1"}
	_, err := f.requests.Edit(ctx, req.ID, in, otherClerk)
	var aerr *AuthorizationError
	require.ErrorAs(t, err, &aerr)

	// The head of department may adjust any pending request in the department.
	_, err = f.requests.Edit(ctx, req.ID, in, f.hod)
	require.NoError(t, err)
}

func TestEditNonPendingRequestFails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := submitRequest(t, f, 25000)
	_, err := f.requests.Approve(ctx, req.ID, 25000, "", f.hod)
	require.NoError(t, err)

	_, err = f.requests.Edit(ctx, req.ID, EditRequestInput{
		RequestedAmount: 20000,
		Purpose:         "New laptops for the team",
	}, f.clerk)
	var serr *InvalidStateError
	require.ErrorAs(t, err, &serr)
}

func TestListRequestsScopesDepartment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	submitRequest(t, f, 10000)
	submitRequest(t, f, 20000)

	// Finance sees everything.
	all, err := f.requests.List(ctx, port.RequestFilter{}, f.finance)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// A head of another department sees nothing even with an explicit filter.
	otherHOD := &entity.Actor{ID: "8", Name: "Marketing Head", Role: entity.RoleHOD, Department: "dept-2"}
	scoped, err := f.requests.List(ctx, port.RequestFilter{DepartmentID: "dept-1"}, otherHOD)
	require.NoError(t, err)
	assert.Empty(t, scoped)
}

func TestGetRequestNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.requests.Get(context.Background(), "missing")
	var nerr *NotFoundError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "request", nerr.Kind)
}
