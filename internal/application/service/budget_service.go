package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/finops/budget-approval/internal/application/port"
	"github.com/finops/budget-approval/internal/domain/entity"
)

var financialYearPattern = regexp.MustCompile(`^(\d{4})-(\d{4})$`)

// CreateBudgetInput carries the validated field set for a new budget
type CreateBudgetInput struct {
	DepartmentID    string `json:"department_id"`
	SubDepartmentID string `json:"sub_department_id"`
	BudgetHeadID    string `json:"budget_head_id"`
	SubBudgetHeadID string `json:"sub_budget_head_id"`
	FinancialYear   string `json:"financial_year"`
	Amount          int64  `json:"amount"`
	Status          string `json:"status"`
}

// BudgetService manages budget allocation. Balance fields are owned by the
// workflow engine once a budget exists; this service only creates, archives
// and reads.
type BudgetService interface {
	Create(ctx context.Context, in CreateBudgetInput, actor *entity.Actor) (*entity.Budget, error)
	Archive(ctx context.Context, budgetID string, actor *entity.Actor) (*entity.Budget, error)
	Get(ctx context.Context, budgetID string) (*entity.Budget, error)
	List(ctx context.Context, departmentID string, limit, offset int, actor *entity.Actor) ([]*entity.Budget, error)
}

type budgetServiceImpl struct {
	budgetRepo  port.BudgetRepository
	requestRepo port.RequestRepository
	catalogRepo port.CatalogRepository
	txManager   port.TransactionManager
	logger      Logger
}

// NewBudgetService creates a new BudgetService
func NewBudgetService(
	budgetRepo port.BudgetRepository,
	requestRepo port.RequestRepository,
	catalogRepo port.CatalogRepository,
	txManager port.TransactionManager,
	logger Logger,
) BudgetService {
	return &budgetServiceImpl{
		budgetRepo:  budgetRepo,
		requestRepo: requestRepo,
		catalogRepo: catalogRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// Create allocates a new budget. Finance only. The hierarchy ids must form a
// valid chain in the reference catalog: the sub-department must belong to the
// department and the sub-head to the budget head. A new budget starts fully
// unallocated: remaining equals the full amount.
func (s *budgetServiceImpl) Create(ctx context.Context, in CreateBudgetInput, actor *entity.Actor) (*entity.Budget, error) {
	if err := CanPerform(actor, OpCreateBudget, ""); err != nil {
		return nil, err
	}

	if in.Amount <= 0 {
		return nil, &ValidationError{Field: "amount", Message: "amount must be positive"}
	}
	if err := validateFinancialYear(in.FinancialYear); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = entity.BudgetStatusActive
	}
	if status != entity.BudgetStatusActive && status != entity.BudgetStatusDraft {
		return nil, &ValidationError{Field: "status", Message: "must be active or draft"}
	}
	if err := s.validateHierarchy(ctx, in); err != nil {
		return nil, err
	}

	now := time.Now()
	budget := &entity.Budget{
		ID:              newID(),
		DepartmentID:    in.DepartmentID,
		SubDepartmentID: in.SubDepartmentID,
		BudgetHeadID:    in.BudgetHeadID,
		SubBudgetHeadID: in.SubBudgetHeadID,
		FinancialYear:   in.FinancialYear,
		Amount:          in.Amount,
		AllocatedAmount: 0,
		RemainingAmount: in.Amount,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.budgetRepo.Create(ctx, budget); err != nil {
		s.logger.Errorw("Failed to create budget", "error", err, "department_id", in.DepartmentID)
		return nil, fmt.Errorf("create budget: %w", err)
	}

	s.logger.Infow("Budget created", "budget_id", budget.ID, "department_id", budget.DepartmentID,
		"financial_year", budget.FinancialYear, "amount", budget.Amount)
	return budget, nil
}

// Archive retires a budget. Refused while pending or approved requests still
// reference it, so a budget is never pulled out from under an open request.
func (s *budgetServiceImpl) Archive(ctx context.Context, budgetID string, actor *entity.Actor) (*entity.Budget, error) {
	if err := CanPerform(actor, OpArchiveBudget, ""); err != nil {
		return nil, err
	}

	budget, err := s.budgetRepo.GetByID(ctx, budgetID)
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}
	if budget == nil {
		return nil, &NotFoundError{Kind: "budget", ID: budgetID}
	}
	if budget.Status == entity.BudgetStatusArchived {
		return budget, nil
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		open, err := s.requestRepo.CountOpenByBudgetID(txCtx, budgetID)
		if err != nil {
			return fmt.Errorf("count open requests: %w", err)
		}
		if open > 0 {
			return &ValidationError{Field: "budget_id",
				Message: fmt.Sprintf("budget has %d open requests and cannot be archived", open)}
		}

		budget.Status = entity.BudgetStatusArchived
		budget.UpdatedAt = time.Now()
		if err := s.budgetRepo.Update(txCtx, budget); err != nil {
			return fmt.Errorf("update budget: %w", err)
		}

		return nil
	})
	if err != nil {
		s.logger.Errorw("Failed to archive budget", "error", err, "budget_id", budgetID)
		return nil, err
	}

	s.logger.Infow("Budget archived", "budget_id", budgetID)
	return budget, nil
}

// Get retrieves a budget by id
func (s *budgetServiceImpl) Get(ctx context.Context, budgetID string) (*entity.Budget, error) {
	budget, err := s.budgetRepo.GetByID(ctx, budgetID)
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}
	if budget == nil {
		return nil, &NotFoundError{Kind: "budget", ID: budgetID}
	}
	return budget, nil
}

// List retrieves budgets, department-scoped for clerks and heads of department
func (s *budgetServiceImpl) List(ctx context.Context, departmentID string, limit, offset int, actor *entity.Actor) ([]*entity.Budget, error) {
	if actor != nil && !actor.ActsAcrossDepartments() {
		departmentID = actor.Department
	}
	budgets, err := s.budgetRepo.List(ctx, departmentID, limit, offset)
	if err != nil {
		s.logger.Errorw("Failed to list budgets", "error", err)
		return nil, err
	}
	return budgets, nil
}

func (s *budgetServiceImpl) validateHierarchy(ctx context.Context, in CreateBudgetInput) error {
	dept, err := s.catalogRepo.GetDepartment(ctx, in.DepartmentID)
	if err != nil {
		return fmt.Errorf("get department: %w", err)
	}
	if dept == nil {
		return &ValidationError{Field: "department_id", Message: "unknown department"}
	}

	subDept, err := s.catalogRepo.GetSubDepartment(ctx, in.SubDepartmentID)
	if err != nil {
		return fmt.Errorf("get sub-department: %w", err)
	}
	if subDept == nil || subDept.DepartmentID != in.DepartmentID {
		return &ValidationError{Field: "sub_department_id", Message: "sub-department does not belong to department"}
	}

	head, err := s.catalogRepo.GetBudgetHead(ctx, in.BudgetHeadID)
	if err != nil {
		return fmt.Errorf("get budget head: %w", err)
	}
	if head == nil {
		return &ValidationError{Field: "budget_head_id", Message: "unknown budget head"}
	}

	subHead, err := s.catalogRepo.GetSubBudgetHead(ctx, in.SubBudgetHeadID)
	if err != nil {
		return fmt.Errorf("get sub budget head: %w", err)
	}
	if subHead == nil || subHead.BudgetHeadID != in.BudgetHeadID {
		return &ValidationError{Field: "sub_budget_head_id", Message: "sub-head does not belong to budget head"}
	}

	return nil
}

func validateFinancialYear(fy string) error {
	matches := financialYearPattern.FindStringSubmatch(fy)
	if matches == nil {
		return &ValidationError{Field: "financial_year", Message: "must look like 2023-2024"}
	}
	start, _ := strconv.Atoi(matches[1])
	end, _ := strconv.Atoi(matches[2])
	if end != start+1 {
		return &ValidationError{Field: "financial_year", Message: "years must be consecutive"}
	}
	return nil
}
