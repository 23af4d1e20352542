package service

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/finops/budget-approval/internal/application/port"
	"github.com/finops/budget-approval/internal/domain/entity"
	"github.com/finops/budget-approval/internal/domain/workflow"
)

// Purpose length bounds for expenditure requests, in characters
const (
	purposeMinLength = 10
	purposeMaxLength = 200
)

// SubmitRequestInput carries the validated field set for a new request
type SubmitRequestInput struct {
	BudgetID        string `json:"budget_id"`
	RequestedAmount int64  `json:"requested_amount"`
	Purpose         string `json:"purpose"`
}

// EditRequestInput carries the validated field set for editing a pending request
type EditRequestInput struct {
	RequestedAmount int64  `json:"requested_amount"`
	Purpose         string `json:"purpose"`
	Notes           string `json:"notes"`
}

// RequestService drives the expenditure request lifecycle. Every mutation is
// all-or-nothing: the request, the budget balances and the history record
// change together inside one transaction, or not at all.
type RequestService interface {
	Submit(ctx context.Context, in SubmitRequestInput, actor *entity.Actor) (*entity.ExpenditureRequest, error)
	Edit(ctx context.Context, requestID string, in EditRequestInput, actor *entity.Actor) (*entity.ExpenditureRequest, error)
	Approve(ctx context.Context, requestID string, approvedAmount int64, notes string, actor *entity.Actor) (*entity.ExpenditureRequest, error)
	Reject(ctx context.Context, requestID string, notes string, actor *entity.Actor) (*entity.ExpenditureRequest, error)
	Revert(ctx context.Context, requestID string, actor *entity.Actor) (*entity.ExpenditureRequest, error)
	Get(ctx context.Context, requestID string) (*entity.ExpenditureRequest, error)
	List(ctx context.Context, filter port.RequestFilter, actor *entity.Actor) ([]*entity.ExpenditureRequest, error)
}

type requestServiceImpl struct {
	budgetRepo  port.BudgetRepository
	requestRepo port.RequestRepository
	expenseRepo port.ExpenseRepository
	historyRepo port.HistoryRepository
	txManager   port.TransactionManager
	logger      Logger
}

// NewRequestService creates a new RequestService
func NewRequestService(
	budgetRepo port.BudgetRepository,
	requestRepo port.RequestRepository,
	expenseRepo port.ExpenseRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	logger Logger,
) RequestService {
	return &requestServiceImpl{
		budgetRepo:  budgetRepo,
		requestRepo: requestRepo,
		expenseRepo: expenseRepo,
		historyRepo: historyRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// Submit creates a pending expenditure request against an active budget.
// The budget is not debited until approval.
func (s *requestServiceImpl) Submit(ctx context.Context, in SubmitRequestInput, actor *entity.Actor) (*entity.ExpenditureRequest, error) {
	if err := CanPerform(actor, OpSubmitRequest, ""); err != nil {
		return nil, err
	}
	if err := validatePurpose(in.Purpose); err != nil {
		return nil, err
	}
	if in.RequestedAmount <= 0 {
		return nil, &ValidationError{Field: "requested_amount", Message: "amount must be positive"}
	}

	budget, err := s.budgetRepo.GetByID(ctx, in.BudgetID)
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}
	if budget == nil {
		return nil, &ValidationError{Field: "budget_id", Message: "budget not found"}
	}
	if !budget.IsActive() {
		return nil, &ValidationError{Field: "budget_id", Message: "budget is not active"}
	}
	if err := CanPerform(actor, OpSubmitRequest, budget.DepartmentID); err != nil {
		return nil, err
	}
	if in.RequestedAmount > budget.RemainingAmount {
		return nil, &ValidationError{Field: "requested_amount", Message: "amount exceeds remaining budget balance"}
	}

	now := time.Now()
	request := &entity.ExpenditureRequest{
		ID:              newID(),
		BudgetID:        budget.ID,
		DepartmentID:    budget.DepartmentID,
		SubDepartmentID: budget.SubDepartmentID,
		BudgetHeadID:    budget.BudgetHeadID,
		SubBudgetHeadID: budget.SubBudgetHeadID,
		RequestedBy:     actor.ID,
		RequestedAmount: in.RequestedAmount,
		ApprovedAmount:  0,
		Purpose:         in.Purpose,
		Status:          entity.RequestStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.requestRepo.Create(txCtx, request); err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		history := newHistory(request.ID, entity.HistoryActionCreated, actor)
		history.NewStatus = entity.RequestStatusPending
		history.NewAmount = amountPtr(in.RequestedAmount)
		if err := s.historyRepo.Create(txCtx, history); err != nil {
			return fmt.Errorf("create history: %w", err)
		}

		return nil
	})
	if err != nil {
		s.logger.Errorw("Failed to submit request", "error", err, "budget_id", in.BudgetID)
		return nil, err
	}

	s.logger.Infow("Request submitted", "request_id", request.ID, "budget_id", budget.ID,
		"requested_amount", in.RequestedAmount)
	return request, nil
}

// Edit changes the amount or purpose of a pending request. Clerks may edit
// their own requests; heads of department may adjust any pending request in
// their department before deciding.
func (s *requestServiceImpl) Edit(ctx context.Context, requestID string, in EditRequestInput, actor *entity.Actor) (*entity.ExpenditureRequest, error) {
	if err := CanPerform(actor, OpEditRequest, ""); err != nil {
		return nil, err
	}

	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := CanPerform(actor, OpEditRequest, request.DepartmentID); err != nil {
		return nil, err
	}
	if actor.Role == entity.RoleClerk && request.RequestedBy != actor.ID {
		return nil, &AuthorizationError{Role: actor.Role, Operation: OpEditRequest}
	}
	if request.Status != entity.RequestStatusPending {
		return nil, &InvalidStateError{RequestID: requestID, Status: request.Status, Operation: OpEditRequest}
	}
	if err := validatePurpose(in.Purpose); err != nil {
		return nil, err
	}
	if in.RequestedAmount <= 0 {
		return nil, &ValidationError{Field: "requested_amount", Message: "amount must be positive"}
	}

	budget, err := s.loadBudget(ctx, request.BudgetID)
	if err != nil {
		return nil, err
	}
	if in.RequestedAmount > budget.RemainingAmount {
		return nil, &ValidationError{Field: "requested_amount", Message: "amount exceeds remaining budget balance"}
	}

	previousAmount := request.RequestedAmount
	request.RequestedAmount = in.RequestedAmount
	request.Purpose = in.Purpose
	request.UpdatedAt = time.Now()

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.requestRepo.Update(txCtx, request); err != nil {
			return fmt.Errorf("update request: %w", err)
		}

		history := newHistory(request.ID, entity.HistoryActionEdited, actor)
		history.PreviousAmount = amountPtr(previousAmount)
		history.NewAmount = amountPtr(in.RequestedAmount)
		history.Notes = in.Notes
		if err := s.historyRepo.Create(txCtx, history); err != nil {
			return fmt.Errorf("create history: %w", err)
		}

		return nil
	})
	if err != nil {
		s.logger.Errorw("Failed to edit request", "error", err, "request_id", requestID)
		return nil, err
	}

	s.logger.Infow("Request edited", "request_id", requestID,
		"previous_amount", previousAmount, "new_amount", in.RequestedAmount)
	return request, nil
}

// Approve moves a pending request to approved and debits the approved amount
// from the budget's remaining balance into its allocated balance. Any
// unapproved delta of the requested amount stays in remaining.
func (s *requestServiceImpl) Approve(ctx context.Context, requestID string, approvedAmount int64, notes string, actor *entity.Actor) (*entity.ExpenditureRequest, error) {
	if err := CanPerform(actor, OpApproveRequest, ""); err != nil {
		return nil, err
	}

	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := CanPerform(actor, OpApproveRequest, request.DepartmentID); err != nil {
		return nil, err
	}

	machine, err := s.lifecycle(request)
	if err != nil {
		return nil, err
	}
	if !machine.CanFire(workflow.TriggerApprove) {
		return nil, &InvalidStateError{RequestID: requestID, Status: request.Status, Operation: OpApproveRequest}
	}

	if approvedAmount <= 0 {
		return nil, &ValidationError{Field: "approved_amount", Message: "amount must be positive"}
	}
	if approvedAmount > request.RequestedAmount {
		return nil, &ValidationError{Field: "approved_amount", Message: "amount exceeds requested amount"}
	}

	previousStatus := request.Status
	var budget *entity.Budget
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		budget, err = s.loadBudget(txCtx, request.BudgetID)
		if err != nil {
			return err
		}
		if err := budget.DebitRemaining(approvedAmount); err != nil {
			return err
		}
		if err := machine.Fire(workflow.TriggerApprove); err != nil {
			return err
		}

		request.Status = machine.State().String()
		request.ApprovedAmount = approvedAmount
		if notes != "" {
			request.Notes = notes
		}
		if request.ReferenceNumber == "" {
			request.ReferenceNumber = newReferenceNumber("REQ")
		}
		request.UpdatedAt = time.Now()

		if err := s.requestRepo.Update(txCtx, request); err != nil {
			return fmt.Errorf("update request: %w", err)
		}
		if err := s.budgetRepo.Update(txCtx, budget); err != nil {
			return fmt.Errorf("update budget: %w", err)
		}

		history := newHistory(request.ID, entity.HistoryActionApproved, actor)
		history.PreviousStatus = previousStatus
		history.NewStatus = request.Status
		history.PreviousAmount = amountPtr(request.RequestedAmount)
		history.NewAmount = amountPtr(approvedAmount)
		history.Notes = notes
		if err := s.historyRepo.Create(txCtx, history); err != nil {
			return fmt.Errorf("create history: %w", err)
		}

		return nil
	})
	if err != nil {
		s.logger.Errorw("Failed to approve request", "error", err, "request_id", requestID)
		return nil, err
	}

	s.logger.Infow("Request approved", "request_id", requestID,
		"approved_amount", approvedAmount, "budget_remaining", budget.RemainingAmount)
	return request, nil
}

// Reject moves a pending request to rejected. Funds were never debited, so
// the budget is untouched. Notes are mandatory so the requester learns why.
func (s *requestServiceImpl) Reject(ctx context.Context, requestID string, notes string, actor *entity.Actor) (*entity.ExpenditureRequest, error) {
	if err := CanPerform(actor, OpRejectRequest, ""); err != nil {
		return nil, err
	}

	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := CanPerform(actor, OpRejectRequest, request.DepartmentID); err != nil {
		return nil, err
	}

	machine, err := s.lifecycle(request)
	if err != nil {
		return nil, err
	}
	if !machine.CanFire(workflow.TriggerReject) {
		return nil, &InvalidStateError{RequestID: requestID, Status: request.Status, Operation: OpRejectRequest}
	}

	if notes == "" {
		return nil, &ValidationError{Field: "notes", Message: "rejection notes are required"}
	}

	previousStatus := request.Status
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := machine.Fire(workflow.TriggerReject); err != nil {
			return err
		}

		request.Status = machine.State().String()
		request.Notes = notes
		request.UpdatedAt = time.Now()

		if err := s.requestRepo.Update(txCtx, request); err != nil {
			return fmt.Errorf("update request: %w", err)
		}

		history := newHistory(request.ID, entity.HistoryActionRejected, actor)
		history.PreviousStatus = previousStatus
		history.NewStatus = request.Status
		history.Notes = notes
		if err := s.historyRepo.Create(txCtx, history); err != nil {
			return fmt.Errorf("create history: %w", err)
		}

		return nil
	})
	if err != nil {
		s.logger.Errorw("Failed to reject request", "error", err, "request_id", requestID)
		return nil, err
	}

	s.logger.Infow("Request rejected", "request_id", requestID)
	return request, nil
}

// Revert undoes the latest approve or reject decision, returning the request
// to pending. Reverting an approval credits the approved amount back from the
// budget's allocated balance to its remaining balance; reverting a rejection
// touches no balances because none were moved. An approval with recorded
// expenses cannot be reverted: the spent money is gone, so resetting the
// approved amount would both overstate the remaining balance and leave the
// expense total above the approved amount.
func (s *requestServiceImpl) Revert(ctx context.Context, requestID string, actor *entity.Actor) (*entity.ExpenditureRequest, error) {
	if err := CanPerform(actor, OpRevertRequest, ""); err != nil {
		return nil, err
	}

	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := CanPerform(actor, OpRevertRequest, request.DepartmentID); err != nil {
		return nil, err
	}

	machine, err := s.lifecycle(request)
	if err != nil {
		return nil, err
	}
	if !machine.CanFire(workflow.TriggerRevert) {
		return nil, &InvalidStateError{RequestID: requestID, Status: request.Status, Operation: OpRevertRequest}
	}

	wasApproved := request.Status == entity.RequestStatusApproved
	previousStatus := request.Status
	previousAmount := request.ApprovedAmount

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if wasApproved {
			spent, err := s.expenseRepo.SumByRequestID(txCtx, request.ID)
			if err != nil {
				return fmt.Errorf("sum expenses: %w", err)
			}
			if spent > 0 {
				return &InvalidStateError{RequestID: requestID, Status: request.Status, Operation: OpRevertRequest}
			}

			budget, err := s.loadBudget(txCtx, request.BudgetID)
			if err != nil {
				return err
			}
			if err := budget.CreditAllocatedToRemaining(previousAmount); err != nil {
				return err
			}
			if err := s.budgetRepo.Update(txCtx, budget); err != nil {
				return fmt.Errorf("update budget: %w", err)
			}
		}

		if err := machine.Fire(workflow.TriggerRevert); err != nil {
			return err
		}

		request.Status = machine.State().String()
		request.ApprovedAmount = 0
		request.UpdatedAt = time.Now()

		if err := s.requestRepo.Update(txCtx, request); err != nil {
			return fmt.Errorf("update request: %w", err)
		}

		history := newHistory(request.ID, entity.HistoryActionReverted, actor)
		history.PreviousStatus = previousStatus
		history.NewStatus = request.Status
		if wasApproved {
			history.PreviousAmount = amountPtr(previousAmount)
			history.NewAmount = amountPtr(0)
		}
		if err := s.historyRepo.Create(txCtx, history); err != nil {
			return fmt.Errorf("create history: %w", err)
		}

		return nil
	})
	if err != nil {
		s.logger.Errorw("Failed to revert request", "error", err, "request_id", requestID)
		return nil, err
	}

	s.logger.Infow("Request reverted", "request_id", requestID, "previous_status", previousStatus)
	return request, nil
}

// Get retrieves a request by id
func (s *requestServiceImpl) Get(ctx context.Context, requestID string) (*entity.ExpenditureRequest, error) {
	return s.loadRequest(ctx, requestID)
}

// List retrieves requests matching the filter. Clerks and heads of
// department only see their own department regardless of the filter.
func (s *requestServiceImpl) List(ctx context.Context, filter port.RequestFilter, actor *entity.Actor) ([]*entity.ExpenditureRequest, error) {
	if actor != nil && !actor.ActsAcrossDepartments() {
		filter.DepartmentID = actor.Department
	}
	requests, err := s.requestRepo.List(ctx, filter)
	if err != nil {
		s.logger.Errorw("Failed to list requests", "error", err)
		return nil, err
	}
	return requests, nil
}

func (s *requestServiceImpl) loadRequest(ctx context.Context, requestID string) (*entity.ExpenditureRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if request == nil {
		return nil, &NotFoundError{Kind: "request", ID: requestID}
	}
	return request, nil
}

func (s *requestServiceImpl) loadBudget(ctx context.Context, budgetID string) (*entity.Budget, error) {
	budget, err := s.budgetRepo.GetByID(ctx, budgetID)
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}
	if budget == nil {
		return nil, &NotFoundError{Kind: "budget", ID: budgetID}
	}
	return budget, nil
}

func (s *requestServiceImpl) lifecycle(request *entity.ExpenditureRequest) (workflow.StateMachine, error) {
	state, err := workflow.ParseState(request.Status)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", request.ID, err)
	}
	return workflow.NewRequestLifecycle(state), nil
}

func newHistory(requestID, action string, actor *entity.Actor) *entity.HistoryRecord {
	return &entity.HistoryRecord{
		ID:              newID(),
		RequestID:       requestID,
		Action:          action,
		PerformedBy:     actor.ID,
		PerformedByRole: actor.Role,
		Timestamp:       time.Now(),
	}
}

func amountPtr(amount int64) *int64 {
	return &amount
}

func validatePurpose(purpose string) error {
	length := utf8.RuneCountInString(purpose)
	if length < purposeMinLength {
		return &ValidationError{Field: "purpose", Message: fmt.Sprintf("must be at least %d characters", purposeMinLength)}
	}
	if length > purposeMaxLength {
		return &ValidationError{Field: "purpose", Message: fmt.Sprintf("must not exceed %d characters", purposeMaxLength)}
	}
	return nil
}
