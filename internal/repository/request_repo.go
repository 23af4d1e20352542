package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/finops/budget-approval/internal/application/port"
	"github.com/finops/budget-approval/internal/domain/entity"
)

// RequestRepository implements port.RequestRepository
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

const requestColumns = `
	id, budget_id, department_id, sub_department_id, budget_head_id, sub_budget_head_id,
	requested_by, requested_amount, approved_amount, purpose, status,
	reference_number, notes, created_at, updated_at
`

// Create creates a new expenditure request
func (r *RequestRepository) Create(ctx context.Context, request *entity.ExpenditureRequest) error {
	query := `
		INSERT INTO expenditure_requests (` + requestColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		request.ID,
		request.BudgetID,
		request.DepartmentID,
		request.SubDepartmentID,
		request.BudgetHeadID,
		request.SubBudgetHeadID,
		request.RequestedBy,
		request.RequestedAmount,
		request.ApprovedAmount,
		request.Purpose,
		request.Status,
		request.ReferenceNumber,
		request.Notes,
		request.CreatedAt,
		request.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create request", zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	return nil
}

// GetByID retrieves an expenditure request by ID, nil when not found
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*entity.ExpenditureRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM expenditure_requests WHERE id = ?`

	request, err := scanRequest(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get request by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	return request, nil
}

// Update persists all mutable request fields
func (r *RequestRepository) Update(ctx context.Context, request *entity.ExpenditureRequest) error {
	query := `
		UPDATE expenditure_requests
		SET requested_amount = ?, approved_amount = ?, purpose = ?, status = ?,
			reference_number = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		request.RequestedAmount,
		request.ApprovedAmount,
		request.Purpose,
		request.Status,
		request.ReferenceNumber,
		request.Notes,
		request.UpdatedAt,
		request.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update request", zap.String("id", request.ID), zap.Error(err))
		return fmt.Errorf("failed to update request: %w", err)
	}

	return nil
}

// List retrieves expenditure requests matching the filter
func (r *RequestRepository) List(ctx context.Context, filter port.RequestFilter) ([]*entity.ExpenditureRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM expenditure_requests WHERE 1=1`
	var args []interface{}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.DepartmentID != "" {
		query += ` AND department_id = ?`
		args = append(args, filter.DepartmentID)
	}
	if filter.BudgetID != "" {
		query += ` AND budget_id = ?`
		args = append(args, filter.BudgetID)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.ExpenditureRequest
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, request)
	}

	return requests, rows.Err()
}

// CountOpenByBudgetID counts pending and approved requests against a budget
func (r *RequestRepository) CountOpenByBudgetID(ctx context.Context, budgetID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM expenditure_requests
		WHERE budget_id = ? AND status IN (?, ?)
	`

	var count int
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query,
		budgetID, entity.RequestStatusPending, entity.RequestStatusApproved).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count open requests", zap.String("budget_id", budgetID), zap.Error(err))
		return 0, fmt.Errorf("failed to count open requests: %w", err)
	}

	return count, nil
}

// CountByStatus counts requests per status, optionally scoped to a department
func (r *RequestRepository) CountByStatus(ctx context.Context, departmentID string) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM expenditure_requests`
	var args []interface{}

	if departmentID != "" {
		query += ` WHERE department_id = ?`
		args = append(args, departmentID)
	}
	query += ` GROUP BY status`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to count requests by status", zap.Error(err))
		return nil, fmt.Errorf("failed to count requests: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[status] = count
	}

	return counts, rows.Err()
}

func scanRequest(row rowScanner) (*entity.ExpenditureRequest, error) {
	var request entity.ExpenditureRequest
	err := row.Scan(
		&request.ID,
		&request.BudgetID,
		&request.DepartmentID,
		&request.SubDepartmentID,
		&request.BudgetHeadID,
		&request.SubBudgetHeadID,
		&request.RequestedBy,
		&request.RequestedAmount,
		&request.ApprovedAmount,
		&request.Purpose,
		&request.Status,
		&request.ReferenceNumber,
		&request.Notes,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// Verify interface compliance
var _ port.RequestRepository = (*RequestRepository)(nil)
