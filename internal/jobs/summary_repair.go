// Package jobs holds scheduled maintenance work.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"servicemarket/pkg/logger"
)

// SummaryStore is what the repair job needs from the chat repository.
type SummaryStore interface {
	ListIDs(ctx context.Context) ([]string, error)
	RebuildSummary(ctx context.Context, chatID string) (bool, error)
}

// RepairReport summarizes one pass.
type RepairReport struct {
	Scanned  int
	Repaired int
	Failed   int
}

// SummaryRepairJob recomputes every chat summary from its message log. It
// converges drifted counters and migrates documents off the flat unread
// counter. Running it twice in a row changes nothing the second time.
type SummaryRepairJob struct {
	store   SummaryStore
	timeout time.Duration

	// running guards against a slow pass overlapping the next tick.
	running sync.Mutex
}

func NewSummaryRepairJob(store SummaryStore) *SummaryRepairJob {
	return &SummaryRepairJob{
		store:   store,
		timeout: 10 * time.Minute,
	}
}

// Run performs one pass. A chat that fails is logged and skipped.
func (j *SummaryRepairJob) Run(ctx context.Context) (RepairReport, error) {
	var report RepairReport

	if !j.running.TryLock() {
		logger.Warn("Summary repair still running, skipping this tick")
		return report, nil
	}
	defer j.running.Unlock()

	ids, err := j.store.ListIDs(ctx)
	if err != nil {
		logger.Error("Summary repair could not list chats: %v", err)
		return report, err
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Scanned++

		changed, err := j.store.RebuildSummary(ctx, id)
		if err != nil {
			report.Failed++
			logger.Error("Summary repair failed for chat %s: %v", id, err)
			continue
		}
		if changed {
			report.Repaired++
		}
	}

	logger.Info("Summary repair done: %d scanned, %d repaired, %d failed", report.Scanned, report.Repaired, report.Failed)
	return report, nil
}

// Schedule registers the job on c under the cron expression expr.
func (j *SummaryRepairJob) Schedule(c *cron.Cron, expr string) (cron.EntryID, error) {
	return c.AddFunc(expr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()
		j.Run(ctx)
	})
}
