package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"equiprent-backend/internal/config"
	"equiprent-backend/internal/service"

	"github.com/stretchr/testify/assert"
)

type fakeRentals struct {
	service.RentalService
	expiredAt   time.Time
	completedAt time.Time
	panics      bool
}

func (f *fakeRentals) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	if f.panics {
		panic("boom")
	}
	f.expiredAt = now
	return 2, nil
}

func (f *fakeRentals) CompleteFinished(ctx context.Context, now time.Time) (int, error) {
	f.completedAt = now
	return 0, errors.New("db down")
}

type fakeNotifications struct {
	service.NotificationService
	before time.Time
}

func (f *fakeNotifications) PurgeRead(ctx context.Context, before time.Time) (int64, error) {
	f.before = before
	return 5, nil
}

func newTestRunner(rentals *fakeRentals, notes *fakeNotifications, retention int) *JobRunner {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{NotificationRetentionDays: retention}}
	jr := NewJobRunner(&Services{Rental: rentals, Notification: notes}, cfg)
	jr.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return jr
}

func TestJobRunner_RunAll(t *testing.T) {
	rentals := &fakeRentals{}
	notes := &fakeNotifications{}
	jr := newTestRunner(rentals, notes, 7)

	jr.RunAll()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, now, rentals.expiredAt)
	assert.Equal(t, now, rentals.completedAt)
	assert.Equal(t, now.AddDate(0, 0, -7), notes.before)
}

func TestJobRunner_RetentionDefault(t *testing.T) {
	notes := &fakeNotifications{}
	jr := newTestRunner(&fakeRentals{}, notes, 0)

	jr.PurgeReadNotifications()
	assert.Equal(t, time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC), notes.before)
}

func TestJobRunner_RunWithRecovery(t *testing.T) {
	jr := newTestRunner(&fakeRentals{panics: true}, &fakeNotifications{}, 30)

	assert.NotPanics(t, jr.ExpireStaleRentals)
	assert.False(t, jr.runWithRecovery("failing", func(ctx context.Context) (int, error) {
		return 0, errors.New("nope")
	}))
	assert.True(t, jr.runWithRecovery("ok", func(ctx context.Context) (int, error) {
		return 1, nil
	}))
	assert.False(t, jr.runWithRecovery("panicking", func(ctx context.Context) (int, error) {
		panic("boom")
	}))
}

func TestJobRunner_CompleteFinishedRentals(t *testing.T) {
	rentals := &fakeRentals{}
	jr := newTestRunner(rentals, &fakeNotifications{}, 30)

	// A failing run is logged and does not panic.
	assert.NotPanics(t, jr.CompleteFinishedRentals)
	assert.Equal(t, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC), rentals.completedAt)
	assert.False(t, jr.runWithRecovery("complete_finished_rentals", func(ctx context.Context) (int, error) {
		return rentals.CompleteFinished(ctx, jr.now())
	}))
}

func TestJobRunner_PurgeReadNotifications(t *testing.T) {
	tests := []struct {
		name      string
		retention int
		want      time.Time
	}{
		{"Configured window", 7, time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)},
		{"Negative falls back to default", -1, time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)},
		{"Long window", 90, time.Date(2025, 12, 10, 12, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notes := &fakeNotifications{}
			jr := newTestRunner(&fakeRentals{}, notes, tt.retention)

			jr.PurgeReadNotifications()
			assert.Equal(t, tt.want, notes.before)
		})
	}
}
