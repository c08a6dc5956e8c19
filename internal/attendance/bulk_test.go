package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkToggleValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		sessionID string
		nims      []string
		action    BulkAction
	}{
		{name: "missing session", nims: []string{"S1"}, action: ActionMark},
		{name: "nil nims", sessionID: f.session.ID, action: ActionMark},
		{name: "empty nims", sessionID: f.session.ID, nims: []string{}, action: ActionMark},
		{name: "missing action", sessionID: f.session.ID, nims: []string{"S1"}},
		{name: "bad action", sessionID: f.session.ID, nims: []string{"S1"}, action: "toggle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.BulkToggle(ctx, tt.sessionID, tt.nims, tt.action)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestBulkMarkSkipsUnknown(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.BulkToggle(context.Background(), f.session.ID, []string{"A", "B"}, ActionMark)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, []MarkedRow{{NIM: "B", Name: "Bayu", CreatedAt: t0}}, res.Results)
	assert.Equal(t, []string{"A"}, res.Skipped)

	attendees, err := f.svc.SessionAttendees(context.Background(), f.session.ID)
	require.NoError(t, err)
	require.Len(t, attendees, 1)
	assert.Equal(t, "B", attendees[0].NIM)

	student, err := f.store.GetStudentByNIM(context.Background(), "B")
	require.NoError(t, err)
	row, err := f.store.GetAttendance(context.Background(), student.ID, f.session.ID)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, BulkDeviceID, row.DeviceID)
	assert.True(t, row.ManualOverride)
}

func TestBulkMarkIdempotent(t *testing.T) {
	f := newFixture(t)
	_, err := f.submit("S1", "d1", 0, 0)
	require.NoError(t, err)

	res, err := f.svc.BulkToggle(context.Background(), f.session.ID, []string{"S1", "S1", "S2"}, ActionMark)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, "S2", res.Results[0].NIM)
	assert.Len(t, f.pairs(t), 2)

	again, err := f.svc.BulkToggle(context.Background(), f.session.ID, []string{"S1", "S2"}, ActionMark)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)
	assert.Empty(t, again.Results)
	assert.Len(t, f.pairs(t), 2)
}

func TestBulkMarkIgnoresExpiry(t *testing.T) {
	f := newFixture(t)
	f.now = f.session.ExpiresAt.Add(24 * time.Hour)

	res, err := f.svc.BulkToggle(context.Background(), f.session.ID, []string{"S1"}, ActionMark)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
}

func TestBulkUnmarkDeletesAnyDevice(t *testing.T) {
	f := newFixture(t)
	_, err := f.submit("S1", "d1", 0, 0)
	require.NoError(t, err)
	_, err = f.svc.BulkToggle(context.Background(), f.session.ID, []string{"S2"}, ActionMark)
	require.NoError(t, err)

	res, err := f.svc.BulkToggle(context.Background(), f.session.ID, []string{"S1", "S2", "B", "ghost"}, ActionUnmark)
	require.NoError(t, err)
	assert.Equal(t, ActionUnmark, res.Action)
	assert.EqualValues(t, 2, res.Deleted)
	assert.Empty(t, f.pairs(t))

	// the student can check in again after an unmark
	_, err = f.submit("S1", "d9", 0, 0)
	assert.NoError(t, err)
}

func TestBulkUnmarkNoMatches(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.BulkToggle(context.Background(), f.session.ID, []string{"ghost"}, ActionUnmark)
	require.NoError(t, err)
	assert.EqualValues(t, 0, res.Deleted)
}

func TestBulkUnmarkOtherSessionUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other, err := f.svc.CreateSession(ctx, "Fisika", 0, 0)
	require.NoError(t, err)

	_, err = f.svc.BulkToggle(ctx, other.ID, []string{"S1"}, ActionMark)
	require.NoError(t, err)
	_, err = f.svc.BulkToggle(ctx, f.session.ID, []string{"S1"}, ActionMark)
	require.NoError(t, err)

	res, err := f.svc.BulkToggle(ctx, f.session.ID, []string{"S1"}, ActionUnmark)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Deleted)

	pairs := f.pairs(t)
	require.Len(t, pairs, 1)
	assert.Equal(t, other.ID, pairs[0].SessionID)
}
