package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/finops/budget-approval/internal/application/port"
	"github.com/finops/budget-approval/internal/domain/entity"
)

// HistoryRepository implements port.HistoryRepository. The log is
// append-only: Create is the only write.
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

const historyColumns = `
	id, request_id, action, performed_by, performed_by_role,
	previous_status, new_status, previous_amount, new_amount, notes, timestamp
`

// Create appends a history record
func (r *HistoryRepository) Create(ctx context.Context, record *entity.HistoryRecord) error {
	query := `
		INSERT INTO history_records (` + historyColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		record.ID,
		record.RequestID,
		record.Action,
		record.PerformedBy,
		record.PerformedByRole,
		record.PreviousStatus,
		record.NewStatus,
		nullableAmount(record.PreviousAmount),
		nullableAmount(record.NewAmount),
		record.Notes,
		record.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to create history record", zap.Error(err))
		return fmt.Errorf("failed to create history record: %w", err)
	}

	return nil
}

// GetByRequestID retrieves all history for a request, oldest first
func (r *HistoryRepository) GetByRequestID(ctx context.Context, requestID string) ([]*entity.HistoryRecord, error) {
	query := `
		SELECT ` + historyColumns + `
		FROM history_records
		WHERE request_id = ?
		ORDER BY timestamp
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to get history", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	return collectHistory(rows)
}

// Query retrieves history records matching the filter, oldest first
func (r *HistoryRepository) Query(ctx context.Context, filter port.HistoryFilter) ([]*entity.HistoryRecord, error) {
	query := `SELECT ` + historyColumns + ` FROM history_records WHERE 1=1`
	var args []interface{}

	if filter.RequestID != "" {
		query += ` AND request_id = ?`
		args = append(args, filter.RequestID)
	}
	if filter.Action != "" {
		query += ` AND action = ?`
		args = append(args, filter.Action)
	}
	if filter.Role != "" {
		query += ` AND performed_by_role = ?`
		args = append(args, filter.Role)
	}
	if filter.SearchTerm != "" {
		query += ` AND (notes LIKE ? OR performed_by LIKE ?)`
		term := "%" + filter.SearchTerm + "%"
		args = append(args, term, term)
	}
	query += ` ORDER BY timestamp`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query history", zap.Error(err))
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	return collectHistory(rows)
}

func collectHistory(rows *sql.Rows) ([]*entity.HistoryRecord, error) {
	var records []*entity.HistoryRecord
	for rows.Next() {
		var record entity.HistoryRecord
		var previousAmount, newAmount sql.NullInt64

		err := rows.Scan(
			&record.ID,
			&record.RequestID,
			&record.Action,
			&record.PerformedBy,
			&record.PerformedByRole,
			&record.PreviousStatus,
			&record.NewStatus,
			&previousAmount,
			&newAmount,
			&record.Notes,
			&record.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}

		if previousAmount.Valid {
			record.PreviousAmount = &previousAmount.Int64
		}
		if newAmount.Valid {
			record.NewAmount = &newAmount.Int64
		}

		records = append(records, &record)
	}

	return records, rows.Err()
}

func nullableAmount(amount *int64) sql.NullInt64 {
	if amount == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *amount, Valid: true}
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
