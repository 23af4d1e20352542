package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/finops/budget-approval/internal/application/port"
	"github.com/finops/budget-approval/internal/domain/entity"
)

// BudgetRepository implements port.BudgetRepository
type BudgetRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewBudgetRepository creates a new budget repository
func NewBudgetRepository(db *sql.DB, logger *zap.Logger) port.BudgetRepository {
	return &BudgetRepository{
		db:     db,
		logger: logger,
	}
}

const budgetColumns = `
	id, department_id, sub_department_id, budget_head_id, sub_budget_head_id,
	financial_year, amount, allocated_amount, remaining_amount, status,
	created_at, updated_at
`

// Create creates a new budget
func (r *BudgetRepository) Create(ctx context.Context, budget *entity.Budget) error {
	query := `
		INSERT INTO budgets (` + budgetColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		budget.ID,
		budget.DepartmentID,
		budget.SubDepartmentID,
		budget.BudgetHeadID,
		budget.SubBudgetHeadID,
		budget.FinancialYear,
		budget.Amount,
		budget.AllocatedAmount,
		budget.RemainingAmount,
		budget.Status,
		budget.CreatedAt,
		budget.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create budget", zap.Error(err))
		return fmt.Errorf("failed to create budget: %w", err)
	}

	return nil
}

// GetByID retrieves a budget by ID, nil when not found
func (r *BudgetRepository) GetByID(ctx context.Context, id string) (*entity.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE id = ?`

	budget, err := scanBudget(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get budget by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}

	return budget, nil
}

// Update persists all mutable budget fields
func (r *BudgetRepository) Update(ctx context.Context, budget *entity.Budget) error {
	query := `
		UPDATE budgets
		SET amount = ?, allocated_amount = ?, remaining_amount = ?,
			status = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		budget.Amount,
		budget.AllocatedAmount,
		budget.RemainingAmount,
		budget.Status,
		budget.UpdatedAt,
		budget.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update budget", zap.String("id", budget.ID), zap.Error(err))
		return fmt.Errorf("failed to update budget: %w", err)
	}

	return nil
}

// List retrieves budgets with optional department filter and pagination
func (r *BudgetRepository) List(ctx context.Context, departmentID string, limit, offset int) ([]*entity.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets`
	var args []interface{}

	if departmentID != "" {
		query += ` WHERE department_id = ?`
		args = append(args, departmentID)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list budgets", zap.Error(err))
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []*entity.Budget
	for rows.Next() {
		budget, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, budget)
	}

	return budgets, rows.Err()
}

// SummarizeByDepartment aggregates budget balances per department
func (r *BudgetRepository) SummarizeByDepartment(ctx context.Context) ([]*port.BudgetSummary, error) {
	query := `
		SELECT department_id, COUNT(*),
			COALESCE(SUM(amount), 0),
			COALESCE(SUM(allocated_amount), 0),
			COALESCE(SUM(remaining_amount), 0)
		FROM budgets
		GROUP BY department_id
		ORDER BY department_id
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to summarize budgets", zap.Error(err))
		return nil, fmt.Errorf("failed to summarize budgets: %w", err)
	}
	defer rows.Close()

	var summaries []*port.BudgetSummary
	for rows.Next() {
		var s port.BudgetSummary
		if err := rows.Scan(&s.DepartmentID, &s.BudgetCount, &s.TotalAmount, &s.TotalAllocated, &s.TotalRemaining); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		summaries = append(summaries, &s)
	}

	return summaries, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBudget(row rowScanner) (*entity.Budget, error) {
	var budget entity.Budget
	err := row.Scan(
		&budget.ID,
		&budget.DepartmentID,
		&budget.SubDepartmentID,
		&budget.BudgetHeadID,
		&budget.SubBudgetHeadID,
		&budget.FinancialYear,
		&budget.Amount,
		&budget.AllocatedAmount,
		&budget.RemainingAmount,
		&budget.Status,
		&budget.CreatedAt,
		&budget.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

// Verify interface compliance
var _ port.BudgetRepository = (*BudgetRepository)(nil)
