package service

import (
	"context"

	"github.com/finops/budget-approval/internal/application/port"
	"github.com/finops/budget-approval/internal/domain/entity"
)

// HistoryService reads the append-only audit trail. Records are written by
// the workflow services as a side effect of every transition; nothing here
// mutates the log.
type HistoryService interface {
	Query(ctx context.Context, filter port.HistoryFilter) ([]*entity.HistoryRecord, error)
	ForRequest(ctx context.Context, requestID string) ([]*entity.HistoryRecord, error)
}

type historyServiceImpl struct {
	historyRepo port.HistoryRepository
	logger      Logger
}

// NewHistoryService creates a new HistoryService
func NewHistoryService(historyRepo port.HistoryRepository, logger Logger) HistoryService {
	return &historyServiceImpl{
		historyRepo: historyRepo,
		logger:      logger,
	}
}

// Query retrieves history records matching the filter, oldest first
func (s *historyServiceImpl) Query(ctx context.Context, filter port.HistoryFilter) ([]*entity.HistoryRecord, error) {
	if filter.Role != "" && !filter.Role.IsValid() {
		return nil, &ValidationError{Field: "role", Message: "unknown role"}
	}
	if filter.Action != "" && !validHistoryAction(filter.Action) {
		return nil, &ValidationError{Field: "action", Message: "unknown action"}
	}

	records, err := s.historyRepo.Query(ctx, filter)
	if err != nil {
		s.logger.Errorw("Failed to query history", "error", err)
		return nil, err
	}
	return records, nil
}

// ForRequest retrieves the full audit trail of one request, oldest first
func (s *historyServiceImpl) ForRequest(ctx context.Context, requestID string) ([]*entity.HistoryRecord, error) {
	records, err := s.historyRepo.GetByRequestID(ctx, requestID)
	if err != nil {
		s.logger.Errorw("Failed to get history", "error", err, "request_id", requestID)
		return nil, err
	}
	return records, nil
}

func validHistoryAction(action string) bool {
	switch action {
	case entity.HistoryActionCreated, entity.HistoryActionEdited, entity.HistoryActionApproved,
		entity.HistoryActionRejected, entity.HistoryActionReverted:
		return true
	}
	return false
}
