package entity

import "time"

// HistoryRecord is one entry in the append-only audit trail of an
// expenditure request. Records are never mutated or deleted; one record is
// written per workflow transition.
type HistoryRecord struct {
	ID              string    `json:"id"`
	RequestID       string    `json:"request_id"`
	Action          string    `json:"action"`
	PerformedBy     string    `json:"performed_by"`
	PerformedByRole Role      `json:"performed_by_role"`
	PreviousStatus  string    `json:"previous_status,omitempty"`
	NewStatus       string    `json:"new_status,omitempty"`
	PreviousAmount  *int64    `json:"previous_amount,omitempty"`
	NewAmount       *int64    `json:"new_amount,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}
