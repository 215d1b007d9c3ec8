package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aristath/folio/internal/modules/prices"
	"github.com/aristath/folio/internal/reliability"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name  string
	runs  atomic.Int32
	err   error
	delay time.Duration
}

func (j *countingJob) Run() error {
	j.runs.Add(1)
	if j.delay > 0 {
		time.Sleep(j.delay)
	}
	return j.err
}

func (j *countingJob) Name() string { return j.name }

type panickingJob struct{}

func (panickingJob) Run() error   { panic("boom") }
func (panickingJob) Name() string { return "panicking" }

func TestScheduler_AddJob_InvalidSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	err := s.AddJob("not a schedule", &countingJob{name: "bad"})
	assert.Error(t, err)
	assert.Empty(t, s.Jobs())
}

func TestScheduler_RunsRegisteredJob(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "tick"}
	require.NoError(t, s.AddJob("@every 1s", job))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return job.runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestScheduler_RecoversPanics(t *testing.T) {
	s := New(zerolog.Nop())
	after := &countingJob{name: "after"}
	require.NoError(t, s.AddJob("@every 1s", panickingJob{}))
	require.NoError(t, s.AddJob("@every 1s", after))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return after.runs.Load() > 1 }, 4*time.Second, 50*time.Millisecond)
}

func TestScheduler_RunNowRecordsResult(t *testing.T) {
	s := New(zerolog.Nop())
	failing := &countingJob{name: "b_failing", err: errors.New("upstream down")}
	ok := &countingJob{name: "a_ok"}
	require.NoError(t, s.AddJob("0 0 2 * * *", failing))
	require.NoError(t, s.AddJob("0 0 3 * * *", ok))

	assert.EqualError(t, s.RunNow(failing), "upstream down")
	assert.NoError(t, s.RunNow(ok))

	jobs := s.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "a_ok", jobs[0].Name)
	assert.Equal(t, "0 0 3 * * *", jobs[0].Schedule)
	assert.Empty(t, jobs[0].LastErr)
	assert.False(t, jobs[0].LastRun.IsZero())
	assert.Equal(t, "b_failing", jobs[1].Name)
	assert.Equal(t, "upstream down", jobs[1].LastErr)
}

type mockRefresher struct {
	mock.Mock
}

func (m *mockRefresher) RefreshHoldings(ctx context.Context) (*prices.BulkRefreshResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*prices.BulkRefreshResult), args.Error(1)
}

func TestPriceRefreshJob(t *testing.T) {
	t.Run("per-symbol failures do not fail the run", func(t *testing.T) {
		refresher := &mockRefresher{}
		refresher.On("RefreshHoldings", mock.Anything).Return(&prices.BulkRefreshResult{
			Refreshed:   []string{"AAPL"},
			Failed:      map[string]string{"MSFT": "no data"},
			Skipped:     []string{"SAP.DE"},
			RateLimited: true,
		}, nil)

		job := NewPriceRefreshJob(refresher, time.Second, zerolog.Nop())
		assert.Equal(t, "price_refresh", job.Name())
		assert.NoError(t, job.Run())
		refresher.AssertExpectations(t)
	})

	t.Run("store failure fails the run", func(t *testing.T) {
		refresher := &mockRefresher{}
		refresher.On("RefreshHoldings", mock.Anything).Return(nil, errors.New("database is locked"))

		job := NewPriceRefreshJob(refresher, 0, zerolog.Nop())
		err := job.Run()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database is locked")
	})

	t.Run("run is bounded by the timeout", func(t *testing.T) {
		refresher := &mockRefresher{}
		refresher.On("RefreshHoldings", mock.Anything).Return(&prices.BulkRefreshResult{}, nil).Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			deadline, ok := ctx.Deadline()
			assert.True(t, ok)
			assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
		})

		job := NewPriceRefreshJob(refresher, time.Minute, zerolog.Nop())
		assert.NoError(t, job.Run())
	})
}

type mockBackuper struct {
	mock.Mock
}

func (m *mockBackuper) CreateAndUpload(ctx context.Context) (*reliability.BackupInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reliability.BackupInfo), args.Error(1)
}

func (m *mockBackuper) Rotate(ctx context.Context, retentionDays int) (int, error) {
	args := m.Called(ctx, retentionDays)
	return args.Int(0), args.Error(1)
}

func TestBackupJob(t *testing.T) {
	t.Run("uploads then rotates", func(t *testing.T) {
		backups := &mockBackuper{}
		backups.On("CreateAndUpload", mock.Anything).Return(&reliability.BackupInfo{Key: "folio/x.tar.gz"}, nil)
		backups.On("Rotate", mock.Anything, 30).Return(2, nil)

		job := NewBackupJob(backups, 30, zerolog.Nop())
		assert.Equal(t, "backup", job.Name())
		assert.NoError(t, job.Run())
		backups.AssertExpectations(t)
	})

	t.Run("upload failure skips rotation", func(t *testing.T) {
		backups := &mockBackuper{}
		backups.On("CreateAndUpload", mock.Anything).Return(nil, errors.New("access denied"))

		job := NewBackupJob(backups, 30, zerolog.Nop())
		assert.Error(t, job.Run())
		backups.AssertNotCalled(t, "Rotate", mock.Anything, mock.Anything)
	})

	t.Run("rotation failure is not fatal", func(t *testing.T) {
		backups := &mockBackuper{}
		backups.On("CreateAndUpload", mock.Anything).Return(&reliability.BackupInfo{Key: "k"}, nil)
		backups.On("Rotate", mock.Anything, 7).Return(0, errors.New("list failed"))

		job := NewBackupJob(backups, 7, zerolog.Nop())
		assert.NoError(t, job.Run())
	})
}
