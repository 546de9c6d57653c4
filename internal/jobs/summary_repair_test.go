package jobs

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"servicemarket/pkg/logger"
)

func TestMain(m *testing.M) {
	f, _ := os.Open(os.DevNull)
	logger.SetOutput(f)
	os.Exit(m.Run())
}

type mockSummaryStore struct {
	mock.Mock
}

func (m *mockSummaryStore) ListIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *mockSummaryStore) RebuildSummary(ctx context.Context, chatID string) (bool, error) {
	args := m.Called(ctx, chatID)
	return args.Bool(0), args.Error(1)
}

func TestSummaryRepairJob_Run(t *testing.T) {
	store := new(mockSummaryStore)
	ctx := context.Background()

	store.On("ListIDs", ctx).Return([]string{"c1", "c2", "c3"}, nil)
	store.On("RebuildSummary", ctx, "c1").Return(true, nil)
	store.On("RebuildSummary", ctx, "c2").Return(false, errors.New("aborted"))
	store.On("RebuildSummary", ctx, "c3").Return(false, nil)

	report, err := NewSummaryRepairJob(store).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, RepairReport{Scanned: 3, Repaired: 1, Failed: 1}, report)
	store.AssertExpectations(t)
}

func TestSummaryRepairJob_ListFailure(t *testing.T) {
	store := new(mockSummaryStore)
	ctx := context.Background()
	store.On("ListIDs", ctx).Return(nil, errors.New("unavailable"))

	_, err := NewSummaryRepairJob(store).Run(ctx)
	assert.Error(t, err)
	store.AssertNotCalled(t, "RebuildSummary", mock.Anything, mock.Anything)
}

func TestSummaryRepairJob_SecondPassIsNoop(t *testing.T) {
	store := new(mockSummaryStore)
	ctx := context.Background()

	store.On("ListIDs", ctx).Return([]string{"c1"}, nil)
	store.On("RebuildSummary", ctx, "c1").Return(true, nil).Once()
	store.On("RebuildSummary", ctx, "c1").Return(false, nil).Once()

	job := NewSummaryRepairJob(store)
	first, err := job.Run(ctx)
	require.NoError(t, err)
	second, err := job.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Repaired)
	assert.Equal(t, 0, second.Repaired)
}

func TestSummaryRepairJob_SkipsOverlappingRun(t *testing.T) {
	store := new(mockSummaryStore)
	job := NewSummaryRepairJob(store)

	job.running.Lock()
	report, err := job.Run(context.Background())
	job.running.Unlock()

	require.NoError(t, err)
	assert.Zero(t, report.Scanned)
	store.AssertNotCalled(t, "ListIDs", mock.Anything)
}

func TestSummaryRepairJob_Schedule(t *testing.T) {
	c := cron.New()
	_, err := NewSummaryRepairJob(new(mockSummaryStore)).Schedule(c, "@every 30m")
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)

	_, err = NewSummaryRepairJob(new(mockSummaryStore)).Schedule(c, "not a cron expression")
	assert.Error(t, err)
}
