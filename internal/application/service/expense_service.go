package service

import (
	"context"
	"fmt"
	"time"

	"github.com/finops/budget-approval/internal/application/port"
	"github.com/finops/budget-approval/internal/domain/entity"
	"github.com/finops/budget-approval/internal/domain/workflow"
)

// RecordExpenseInput carries the validated field set for a new expense installment
type RecordExpenseInput struct {
	Amount            int64  `json:"amount"`
	InstallmentNumber int    `json:"installment_number"`
	TotalInstallments int    `json:"total_installments"`
	Notes             string `json:"notes"`
}

// ExpenseService records expense installments against approved requests and
// closes requests out. Expenses never touch the budget ledger directly: the
// debit happened at approval, and only Stop returns the unspent remainder.
type ExpenseService interface {
	Record(ctx context.Context, requestID string, in RecordExpenseInput, actor *entity.Actor) (*entity.Expense, error)
	Stop(ctx context.Context, requestID string, actor *entity.Actor) (*entity.ExpenditureRequest, error)
	ListByRequest(ctx context.Context, requestID string) ([]*entity.Expense, error)
}

type expenseServiceImpl struct {
	budgetRepo  port.BudgetRepository
	requestRepo port.RequestRepository
	expenseRepo port.ExpenseRepository
	txManager   port.TransactionManager
	logger      Logger
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(
	budgetRepo port.BudgetRepository,
	requestRepo port.RequestRepository,
	expenseRepo port.ExpenseRepository,
	txManager port.TransactionManager,
	logger Logger,
) ExpenseService {
	return &expenseServiceImpl{
		budgetRepo:  budgetRepo,
		requestRepo: requestRepo,
		expenseRepo: expenseRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// Record creates an expense installment against an approved request. The
// running total across installments may never exceed the approved amount.
// When the total reaches the approved amount exactly, the request completes;
// there is no remainder, so no balance moves back to the budget.
func (s *expenseServiceImpl) Record(ctx context.Context, requestID string, in RecordExpenseInput, actor *entity.Actor) (*entity.Expense, error) {
	if err := CanPerform(actor, OpRecordExpense, ""); err != nil {
		return nil, err
	}

	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := CanPerform(actor, OpRecordExpense, request.DepartmentID); err != nil {
		return nil, err
	}
	if request.Status != entity.RequestStatusApproved {
		return nil, &InvalidStateError{RequestID: requestID, Status: request.Status, Operation: OpRecordExpense}
	}

	if in.Amount <= 0 {
		return nil, &ValidationError{Field: "amount", Message: "amount must be positive"}
	}
	if in.TotalInstallments < 1 {
		return nil, &ValidationError{Field: "total_installments", Message: "must be at least 1"}
	}
	if in.InstallmentNumber < 1 || in.InstallmentNumber > in.TotalInstallments {
		return nil, &ValidationError{Field: "installment_number", Message: "must be between 1 and total installments"}
	}

	now := time.Now()
	expense := &entity.Expense{
		ID:                newID(),
		RequestID:         request.ID,
		ReferenceNumber:   newReferenceNumber("EXP"),
		DepartmentID:      request.DepartmentID,
		SubDepartmentID:   request.SubDepartmentID,
		BudgetHeadID:      request.BudgetHeadID,
		SubBudgetHeadID:   request.SubBudgetHeadID,
		Amount:            in.Amount,
		InstallmentNumber: in.InstallmentNumber,
		TotalInstallments: in.TotalInstallments,
		RecordedBy:        actor.ID,
		Status:            entity.ExpenseStatusRecorded,
		Notes:             in.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		priorSum, err := s.expenseRepo.SumByRequestID(txCtx, request.ID)
		if err != nil {
			return fmt.Errorf("sum expenses: %w", err)
		}
		if priorSum+in.Amount > request.ApprovedAmount {
			return &LimitExceededError{
				RequestID: request.ID,
				Attempted: priorSum + in.Amount,
				Approved:  request.ApprovedAmount,
			}
		}

		if err := s.expenseRepo.Create(txCtx, expense); err != nil {
			return fmt.Errorf("create expense: %w", err)
		}

		// Exact spend closes the request out.
		if priorSum+in.Amount == request.ApprovedAmount {
			machine := workflow.NewRequestLifecycle(workflow.StateApproved)
			if err := machine.Fire(workflow.TriggerStopExpenses); err != nil {
				return err
			}
			request.Status = machine.State().String()
			request.UpdatedAt = now
			if err := s.requestRepo.Update(txCtx, request); err != nil {
				return fmt.Errorf("update request: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		s.logger.Errorw("Failed to record expense", "error", err, "request_id", requestID)
		return nil, err
	}

	s.logger.Infow("Expense recorded", "expense_id", expense.ID, "request_id", requestID,
		"amount", in.Amount, "installment", in.InstallmentNumber)
	return expense, nil
}

// Stop closes an approved request and returns the unspent remainder of the
// approved amount to the budget's remaining balance. A request that is
// already completed cannot be stopped again: the call fails with
// *InvalidStateError rather than silently succeeding, so the budget is never
// credited twice.
func (s *expenseServiceImpl) Stop(ctx context.Context, requestID string, actor *entity.Actor) (*entity.ExpenditureRequest, error) {
	if err := CanPerform(actor, OpStopExpenses, ""); err != nil {
		return nil, err
	}

	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := CanPerform(actor, OpStopExpenses, request.DepartmentID); err != nil {
		return nil, err
	}

	state, err := workflow.ParseState(request.Status)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", request.ID, err)
	}
	machine := workflow.NewRequestLifecycle(state)
	if !machine.CanFire(workflow.TriggerStopExpenses) {
		return nil, &InvalidStateError{RequestID: requestID, Status: request.Status, Operation: OpStopExpenses}
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		spent, err := s.expenseRepo.SumByRequestID(txCtx, request.ID)
		if err != nil {
			return fmt.Errorf("sum expenses: %w", err)
		}

		remainder := request.ApprovedAmount - spent
		if remainder > 0 {
			budget, err := s.loadBudget(txCtx, request.BudgetID)
			if err != nil {
				return err
			}
			if err := budget.CreditAllocatedToRemaining(remainder); err != nil {
				return err
			}
			if err := s.budgetRepo.Update(txCtx, budget); err != nil {
				return fmt.Errorf("update budget: %w", err)
			}
		}

		if err := machine.Fire(workflow.TriggerStopExpenses); err != nil {
			return err
		}
		request.Status = machine.State().String()
		request.UpdatedAt = time.Now()

		if err := s.requestRepo.Update(txCtx, request); err != nil {
			return fmt.Errorf("update request: %w", err)
		}

		return nil
	})
	if err != nil {
		s.logger.Errorw("Failed to stop expenses", "error", err, "request_id", requestID)
		return nil, err
	}

	s.logger.Infow("Expenses stopped", "request_id", requestID)
	return request, nil
}

// ListByRequest retrieves all expenses recorded against a request
func (s *expenseServiceImpl) ListByRequest(ctx context.Context, requestID string) ([]*entity.Expense, error) {
	expenses, err := s.expenseRepo.GetByRequestID(ctx, requestID)
	if err != nil {
		s.logger.Errorw("Failed to list expenses", "error", err, "request_id", requestID)
		return nil, err
	}
	return expenses, nil
}

func (s *expenseServiceImpl) loadRequest(ctx context.Context, requestID string) (*entity.ExpenditureRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if request == nil {
		return nil, &NotFoundError{Kind: "request", ID: requestID}
	}
	return request, nil
}

func (s *expenseServiceImpl) loadBudget(ctx context.Context, budgetID string) (*entity.Budget, error) {
	budget, err := s.budgetRepo.GetByID(ctx, budgetID)
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}
	if budget == nil {
		return nil, &NotFoundError{Kind: "budget", ID: budgetID}
	}
	return budget, nil
}
