package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finops/budget-approval/internal/application/port"
	"github.com/finops/budget-approval/internal/domain/entity"
)

// Walks a request through its full lifecycle and checks the audit trail can
// be sliced by every filter dimension.
func TestHistoryQueryFilters(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := submitRequest(t, f, 25000)
	_, err := f.requests.Reject(ctx, req.ID, "missing vendor quotes", f.hod)
	require.NoError(t, err)
	_, err = f.requests.Revert(ctx, req.ID, f.hod)
	require.NoError(t, err)
	_, err = f.requests.Approve(ctx, req.ID, 22000, "second look approved", f.hod)
	require.NoError(t, err)

	other := submitRequest(t, f, 10000)

	all, err := f.history.Query(ctx, port.HistoryFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	byRequest, err := f.history.Query(ctx, port.HistoryFilter{RequestID: req.ID})
	require.NoError(t, err)
	assert.Len(t, byRequest, 4)

	byAction, err := f.history.Query(ctx, port.HistoryFilter{Action: entity.HistoryActionCreated})
	require.NoError(t, err)
	assert.Len(t, byAction, 2)

	byRole, err := f.history.Query(ctx, port.HistoryFilter{Role: entity.RoleHOD})
	require.NoError(t, err)
	assert.Len(t, byRole, 3)

	bySearch, err := f.history.Query(ctx, port.HistoryFilter{SearchTerm: "vendor quotes"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, entity.HistoryActionRejected, bySearch[0].Action)

	combined, err := f.history.Query(ctx, port.HistoryFilter{
		RequestID: other.ID,
		Action:    entity.HistoryActionCreated,
		Role:      entity.RoleClerk,
	})
	require.NoError(t, err)
	assert.Len(t, combined, 1)
}

func TestHistoryQueryRejectsUnknownFilterValues(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var verr *ValidationError

	_, err := f.history.Query(ctx, port.HistoryFilter{Role: "superuser"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "role", verr.Field)

	_, err = f.history.Query(ctx, port.HistoryFilter{Action: "deleted"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "action", verr.Field)
}

func TestHistoryForRequestIsEmptyForUnknownRequest(t *testing.T) {
	f := newFixture()

	records, err := f.history.ForRequest(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, records)
}
