package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/finops/budget-approval/internal/application/port"
	"github.com/finops/budget-approval/internal/domain/entity"
)

// CatalogRepository implements port.CatalogRepository over the seeded
// reference tables. The catalog is read-only at runtime; rows are loaded
// by migrations.
type CatalogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *sql.DB, logger *zap.Logger) port.CatalogRepository {
	return &CatalogRepository{
		db:     db,
		logger: logger,
	}
}

// GetDepartment retrieves a department by ID, nil when not found
func (r *CatalogRepository) GetDepartment(ctx context.Context, id string) (*entity.Department, error) {
	var d entity.Department
	err := getExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, name FROM departments WHERE id = ?`, id).Scan(&d.ID, &d.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get department: %w", err)
	}
	return &d, nil
}

// GetSubDepartment retrieves a sub-department by ID, nil when not found
func (r *CatalogRepository) GetSubDepartment(ctx context.Context, id string) (*entity.SubDepartment, error) {
	var sd entity.SubDepartment
	err := getExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, name, department_id FROM sub_departments WHERE id = ?`, id).
		Scan(&sd.ID, &sd.Name, &sd.DepartmentID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sub-department: %w", err)
	}
	return &sd, nil
}

// GetBudgetHead retrieves a budget head by ID, nil when not found
func (r *CatalogRepository) GetBudgetHead(ctx context.Context, id string) (*entity.BudgetHead, error) {
	var h entity.BudgetHead
	err := getExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, name FROM budget_heads WHERE id = ?`, id).Scan(&h.ID, &h.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget head: %w", err)
	}
	return &h, nil
}

// GetSubBudgetHead retrieves a sub budget head by ID, nil when not found
func (r *CatalogRepository) GetSubBudgetHead(ctx context.Context, id string) (*entity.SubBudgetHead, error) {
	var sh entity.SubBudgetHead
	err := getExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, name, budget_head_id FROM sub_budget_heads WHERE id = ?`, id).
		Scan(&sh.ID, &sh.Name, &sh.BudgetHeadID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sub budget head: %w", err)
	}
	return &sh, nil
}

// ListDepartments retrieves all departments
func (r *CatalogRepository) ListDepartments(ctx context.Context) ([]*entity.Department, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx,
		`SELECT id, name FROM departments ORDER BY id`)
	if err != nil {
		r.logger.Error("Failed to list departments", zap.Error(err))
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	defer rows.Close()

	var departments []*entity.Department
	for rows.Next() {
		var d entity.Department
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		departments = append(departments, &d)
	}
	return departments, rows.Err()
}

// ListBudgetHeads retrieves all budget heads
func (r *CatalogRepository) ListBudgetHeads(ctx context.Context) ([]*entity.BudgetHead, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx,
		`SELECT id, name FROM budget_heads ORDER BY id`)
	if err != nil {
		r.logger.Error("Failed to list budget heads", zap.Error(err))
		return nil, fmt.Errorf("failed to list budget heads: %w", err)
	}
	defer rows.Close()

	var heads []*entity.BudgetHead
	for rows.Next() {
		var h entity.BudgetHead
		if err := rows.Scan(&h.ID, &h.Name); err != nil {
			return nil, fmt.Errorf("failed to scan budget head: %w", err)
		}
		heads = append(heads, &h)
	}
	return heads, rows.Err()
}

// Verify interface compliance
var _ port.CatalogRepository = (*CatalogRepository)(nil)
