package service

import (
	"context"
	"fmt"

	"github.com/finops/budget-approval/internal/application/port"
	"github.com/finops/budget-approval/internal/domain/entity"
)

// DepartmentSummary aggregates budget balances and request counts for one
// department, for dashboard display. No file export happens here.
type DepartmentSummary struct {
	DepartmentID     string `json:"department_id"`
	DepartmentName   string `json:"department_name"`
	BudgetCount      int    `json:"budget_count"`
	TotalAmount      int64  `json:"total_amount"`
	TotalAllocated   int64  `json:"total_allocated"`
	TotalRemaining   int64  `json:"total_remaining"`
	PendingRequests  int    `json:"pending_requests"`
	ApprovedRequests int    `json:"approved_requests"`
}

// ReportService produces read-only aggregates across the ledger
type ReportService interface {
	DepartmentSummaries(ctx context.Context, actor *entity.Actor) ([]*DepartmentSummary, error)
}

type reportServiceImpl struct {
	budgetRepo  port.BudgetRepository
	requestRepo port.RequestRepository
	catalogRepo port.CatalogRepository
	logger      Logger
}

// NewReportService creates a new ReportService
func NewReportService(
	budgetRepo port.BudgetRepository,
	requestRepo port.RequestRepository,
	catalogRepo port.CatalogRepository,
	logger Logger,
) ReportService {
	return &reportServiceImpl{
		budgetRepo:  budgetRepo,
		requestRepo: requestRepo,
		catalogRepo: catalogRepo,
		logger:      logger,
	}
}

// DepartmentSummaries returns one summary per department that has budgets.
// Finance and heads of department only; a head of department sees just their
// own department's row.
func (s *reportServiceImpl) DepartmentSummaries(ctx context.Context, actor *entity.Actor) ([]*DepartmentSummary, error) {
	if err := CanPerform(actor, OpViewReports, ""); err != nil {
		return nil, err
	}

	rows, err := s.budgetRepo.SummarizeByDepartment(ctx)
	if err != nil {
		s.logger.Errorw("Failed to summarize budgets", "error", err)
		return nil, fmt.Errorf("summarize budgets: %w", err)
	}

	var summaries []*DepartmentSummary
	for _, row := range rows {
		if !actor.ActsAcrossDepartments() && row.DepartmentID != actor.Department {
			continue
		}

		summary := &DepartmentSummary{
			DepartmentID:   row.DepartmentID,
			BudgetCount:    row.BudgetCount,
			TotalAmount:    row.TotalAmount,
			TotalAllocated: row.TotalAllocated,
			TotalRemaining: row.TotalRemaining,
		}

		if dept, err := s.catalogRepo.GetDepartment(ctx, row.DepartmentID); err == nil && dept != nil {
			summary.DepartmentName = dept.Name
		}

		counts, err := s.requestRepo.CountByStatus(ctx, row.DepartmentID)
		if err != nil {
			s.logger.Errorw("Failed to count requests", "error", err, "department_id", row.DepartmentID)
			return nil, fmt.Errorf("count requests: %w", err)
		}
		summary.PendingRequests = counts[entity.RequestStatusPending]
		summary.ApprovedRequests = counts[entity.RequestStatusApproved]

		summaries = append(summaries, summary)
	}

	return summaries, nil
}
