package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/hairline-erp/hairline/jobs"
)

// Inspector is the subset of *asynq.Inspector the CLI reads from.
type Inspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	Close() error
}

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    jobs.Enqueuer
	inspector Inspector
	now       func() time.Time
}

// NewJobsCLI initialises the CLI helpers against the queue's Redis.
func NewJobsCLI(opts asynq.RedisClientOpt) *JobsCLI {
	return &JobsCLI{client: asynq.NewClient(opts), inspector: asynq.NewInspector(opts), now: time.Now}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		err = errors.Join(err, c.inspector.Close())
	}
	if c.client != nil {
		err = errors.Join(err, c.client.Close())
	}
	return err
}

// Trigger enqueues a scheduled job by task type, outside its cron slot.
func (c *JobsCLI) Trigger(ctx context.Context, name string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	var task *asynq.Task
	var err error
	switch name {
	case jobs.TaskInvoiceOverdueSweep, "overdue-sweep":
		task, err = jobs.NewOverdueSweepTask(c.now())
	case jobs.TaskInventoryLowStockScan, "low-stock-scan":
		task, err = jobs.NewLowStockScanTask("")
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.MaxRetry(3))
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
}

// InspectQueues reports metrics for every queue the worker serves.
// Queues that have never received a task report zeros.
func (c *JobsCLI) InspectQueues(ctx context.Context) ([]QueueStats, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	queues := []string{jobs.QueueCritical, jobs.QueueDefault}
	out := make([]QueueStats, 0, len(queues))
	for _, q := range queues {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		stats := QueueStats{Queue: q}
		info, err := c.inspector.GetQueueInfo(q)
		switch {
		case errors.Is(err, asynq.ErrQueueNotFound):
		case err != nil:
			return out, fmt.Errorf("jobs cli: inspect %s: %w", q, err)
		case info != nil:
			stats.Pending = info.Pending
			stats.Active = info.Active
			stats.Scheduled = info.Scheduled
			stats.Retry = info.Retry
		}
		out = append(out, stats)
	}
	return out, nil
}
