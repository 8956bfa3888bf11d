package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/hairline-erp/hairline/jobs"
)

type recordingEnqueuer struct {
	tasks  []*asynq.Task
	closed bool
}

func (r *recordingEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{ID: "t1", Type: task.Type(), Queue: jobs.QueueDefault}, nil
}

func (r *recordingEnqueuer) Close() error {
	r.closed = true
	return nil
}

type stubInspector struct {
	infos map[string]*asynq.QueueInfo
	err   error
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	info, ok := s.infos[queue]
	if !ok {
		return nil, asynq.ErrQueueNotFound
	}
	return info, nil
}

func (s stubInspector) Close() error { return nil }

func TestTriggerEnqueuesScheduledJobs(t *testing.T) {
	enq := &recordingEnqueuer{}
	c := &JobsCLI{client: enq, now: func() time.Time { return time.Date(2025, 8, 4, 0, 5, 0, 0, time.UTC) }}

	info, err := c.Trigger(context.Background(), "overdue-sweep")
	require.NoError(t, err)
	require.Equal(t, jobs.TaskInvoiceOverdueSweep, info.Type)

	_, err = c.Trigger(context.Background(), jobs.TaskInventoryLowStockScan)
	require.NoError(t, err)
	require.Len(t, enq.tasks, 2)
	require.Equal(t, jobs.TaskInventoryLowStockScan, enq.tasks[1].Type())

	_, err = c.Trigger(context.Background(), jobs.TaskPaymentNotify)
	require.ErrorContains(t, err, "unsupported job")
	require.Len(t, enq.tasks, 2)
}

func TestInspectQueuesTreatsMissingQueueAsEmpty(t *testing.T) {
	c := &JobsCLI{inspector: stubInspector{infos: map[string]*asynq.QueueInfo{
		jobs.QueueDefault: {Queue: jobs.QueueDefault, Pending: 3, Retry: 1},
	}}}

	stats, err := c.InspectQueues(context.Background())
	require.NoError(t, err)
	require.Equal(t, []QueueStats{
		{Queue: jobs.QueueCritical},
		{Queue: jobs.QueueDefault, Pending: 3, Retry: 1},
	}, stats)
}

func TestInspectQueuesWrapsErrors(t *testing.T) {
	c := &JobsCLI{inspector: stubInspector{err: errors.New("redis down")}}
	_, err := c.InspectQueues(context.Background())
	require.ErrorContains(t, err, "redis down")
}

func TestCloseReleasesClient(t *testing.T) {
	enq := &recordingEnqueuer{}
	c := &JobsCLI{client: enq, inspector: stubInspector{}}
	require.NoError(t, c.Close())
	require.True(t, enq.closed)
}
