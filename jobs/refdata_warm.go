package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/stockdesk/internal/invoice"
	jobmetrics "github.com/odyssey-erp/stockdesk/internal/jobs"
	"github.com/odyssey-erp/stockdesk/internal/refdata"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Warmer reloads the reference data snapshot.
type Warmer interface {
	Warm(ctx context.Context) error
}

// RefDataWarmJob refreshes the cached stock and lookup lists.
type RefDataWarmJob struct {
	warmer  Warmer
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewRefDataWarmJob constructs the job. A nil metrics uses the process default.
func NewRefDataWarmJob(warmer Warmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *RefDataWarmJob {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	return &RefDataWarmJob{warmer: warmer, logger: logger, metrics: metrics}
}

// Handle processes TaskRefDataWarm tasks.
func (j *RefDataWarmJob) Handle(ctx context.Context, task *asynq.Task) (err error) {
	var payload RefDataWarmPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("decode refdata warm payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	tracker := j.metrics.Track("refdata_warm")
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.logger.With(slog.String("task", task.Type()), slog.String("reason", payload.Reason))
	if err := j.warmer.Warm(ctx); err != nil {
		logger.Error("refdata warm failed", slog.Any("error", err))
		return err
	}
	logger.Info("refdata warm complete")
	return nil
}

// RefData is the cached snapshot served to the panel.
type RefData interface {
	Load(ctx context.Context) (refdata.Snapshot, error)
	Stock(ctx context.Context) ([]invoice.ItemOption, error)
	Invalidate(ctx context.Context) error
}

// Enqueuer submits warm runs.
type Enqueuer interface {
	EnqueueRefDataWarm(ctx context.Context, reason string) (*asynq.TaskInfo, error)
}

// WarmingRefData schedules a background warm after every invalidation so the
// next panel load is served from cache.
type WarmingRefData struct {
	RefData
	enqueuer Enqueuer
	logger   *slog.Logger
}

// NewWarmingRefData wraps data. A nil enqueuer leaves invalidation untouched.
func NewWarmingRefData(data RefData, enqueuer Enqueuer, logger *slog.Logger) *WarmingRefData {
	if logger == nil {
		logger = slog.Default()
	}
	return &WarmingRefData{RefData: data, enqueuer: enqueuer, logger: logger}
}

// Invalidate drops the snapshot and queues a warm run. Queue failures are
// logged only; the next load fetches from upstream anyway.
func (w *WarmingRefData) Invalidate(ctx context.Context) error {
	if err := w.RefData.Invalidate(ctx); err != nil {
		return err
	}
	if w.enqueuer == nil {
		return nil
	}
	if _, err := w.enqueuer.EnqueueRefDataWarm(ctx, "invalidated"); err != nil {
		w.logger.WarnContext(ctx, "enqueue refdata warm", slog.Any("error", err))
	}
	return nil
}
