package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/finops/budget-approval/internal/application/port"
	"github.com/finops/budget-approval/internal/domain/entity"
)

// ExpenseRepository implements port.ExpenseRepository. Expenses are immutable
// once recorded, so there is no update or delete.
type ExpenseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *sql.DB, logger *zap.Logger) port.ExpenseRepository {
	return &ExpenseRepository{
		db:     db,
		logger: logger,
	}
}

const expenseColumns = `
	id, request_id, reference_number, department_id, sub_department_id,
	budget_head_id, sub_budget_head_id, amount, installment_number,
	total_installments, recorded_by, status, notes, created_at, updated_at
`

// Create creates a new expense installment
func (r *ExpenseRepository) Create(ctx context.Context, expense *entity.Expense) error {
	query := `
		INSERT INTO expenses (` + expenseColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		expense.ID,
		expense.RequestID,
		expense.ReferenceNumber,
		expense.DepartmentID,
		expense.SubDepartmentID,
		expense.BudgetHeadID,
		expense.SubBudgetHeadID,
		expense.Amount,
		expense.InstallmentNumber,
		expense.TotalInstallments,
		expense.RecordedBy,
		expense.Status,
		expense.Notes,
		expense.CreatedAt,
		expense.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create expense", zap.Error(err))
		return fmt.Errorf("failed to create expense: %w", err)
	}

	return nil
}

// GetByRequestID retrieves all expenses for a request in recording order
func (r *ExpenseRepository) GetByRequestID(ctx context.Context, requestID string) ([]*entity.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE request_id = ?
		ORDER BY installment_number, created_at
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to get expenses", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*entity.Expense
	for rows.Next() {
		var expense entity.Expense
		err := rows.Scan(
			&expense.ID,
			&expense.RequestID,
			&expense.ReferenceNumber,
			&expense.DepartmentID,
			&expense.SubDepartmentID,
			&expense.BudgetHeadID,
			&expense.SubBudgetHeadID,
			&expense.Amount,
			&expense.InstallmentNumber,
			&expense.TotalInstallments,
			&expense.RecordedBy,
			&expense.Status,
			&expense.Notes,
			&expense.CreatedAt,
			&expense.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, &expense)
	}

	return expenses, rows.Err()
}

// SumByRequestID returns the total amount recorded against a request
func (r *ExpenseRepository) SumByRequestID(ctx context.Context, requestID string) (int64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE request_id = ?`

	var sum int64
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, requestID).Scan(&sum)
	if err != nil {
		r.logger.Error("Failed to sum expenses", zap.String("request_id", requestID), zap.Error(err))
		return 0, fmt.Errorf("failed to sum expenses: %w", err)
	}

	return sum, nil
}

// Verify interface compliance
var _ port.ExpenseRepository = (*ExpenseRepository)(nil)
