package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/tekstil/internal/exports"
	jobmetrics "github.com/odyssey-erp/tekstil/internal/jobs"
)

type stubRunner struct {
	out  exports.Export
	err  error
	seen uuid.UUID
}

func (s *stubRunner) Run(ctx context.Context, id uuid.UUID) (exports.Export, error) {
	s.seen = id
	return s.out, s.err
}

func exportTask(t *testing.T, id uuid.UUID) *asynq.Task {
	t.Helper()
	task, err := NewReportExportTask(ReportExportPayload{ExportID: id})
	require.NoError(t, err)
	assert.Equal(t, TaskReportExport, task.Type())
	return task
}

func TestReportExportJobSuccess(t *testing.T) {
	id := uuid.New()
	runner := &stubRunner{out: exports.Export{ID: id, Format: "xlsx", Status: exports.StatusDone, Size: 10}}
	job := NewReportExportJob(runner, jobmetrics.NewMetrics(prometheus.NewRegistry()), nil)

	require.NoError(t, job.Handle(context.Background(), exportTask(t, id)))
	assert.Equal(t, id, runner.seen)
}

func TestReportExportJobFailedExportSkipsRetry(t *testing.T) {
	runner := &stubRunner{out: exports.Export{Format: "pdf", Status: exports.StatusFailed}, err: errors.New("render report: gotenberg down")}
	job := NewReportExportJob(runner, jobmetrics.NewMetrics(prometheus.NewRegistry()), nil)

	err := job.Handle(context.Background(), exportTask(t, uuid.New()))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestReportExportJobStoreErrorRetries(t *testing.T) {
	runner := &stubRunner{err: errors.New("connection reset")}
	job := NewReportExportJob(runner, nil, nil)

	err := job.Handle(context.Background(), exportTask(t, uuid.New()))
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestReportExportJobBadPayload(t *testing.T) {
	job := NewReportExportJob(&stubRunner{}, nil, nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskReportExport, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

type stubPruner struct {
	retention time.Duration
	err       error
}

func (s *stubPruner) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.retention = olderThan
	return 3, s.err
}

func TestIdempotencyCleanupHandler(t *testing.T) {
	pruner := &stubPruner{}
	handler := NewIdempotencyCleanupHandler(pruner, 48*time.Hour, nil, nil)
	require.NoError(t, handler(context.Background(), NewIdempotencyCleanupTask()))
	assert.Equal(t, 48*time.Hour, pruner.retention)

	pruner.err = errors.New("db down")
	assert.Error(t, handler(context.Background(), NewIdempotencyCleanupTask()))
}

func TestHealthWithoutInspector(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(nil, nil).MountRoutes(r)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body healthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	require.Len(t, body.Queues, 2)
	assert.Equal(t, QueueDefault, body.Queues[0].Queue)
	assert.Zero(t, body.Queues[0].Pending)
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

func TestHealthReportsQueueDepth(t *testing.T) {
	inspector := stubInspector{infos: map[string]*asynq.QueueInfo{
		QueueDefault: {Queue: QueueDefault, Pending: 4, Active: 1, Retry: 2, Latency: 1500 * time.Millisecond, Paused: true},
	}}
	r := chi.NewRouter()
	NewHandler(inspector, nil).MountRoutes(r)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body healthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, 4, body.Queues[0].Pending)
	assert.InDelta(t, 1.5, body.Queues[0].Latency, 0.001)
	assert.Equal(t, QueueMaintenance, body.Queues[1].Queue)
}

func TestHealthInspectorError(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(stubInspector{err: errors.New("redis down")}, nil).MountRoutes(r)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/problem+json")
}

type stubEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (s *stubEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	s.tasks = append(s.tasks, task)
	s.opts = append(s.opts, opts)
	if s.err != nil {
		return nil, s.err
	}
	return &asynq.TaskInfo{ID: "x"}, nil
}

func (s *stubEnqueuer) Close() error { return nil }

func TestClientEnqueueReportExport(t *testing.T) {
	id := uuid.New()
	stub := &stubEnqueuer{}
	client := &Client{client: stub}
	require.NoError(t, client.EnqueueReportExport(context.Background(), id))
	require.Len(t, stub.tasks, 1)
	assert.Equal(t, TaskReportExport, stub.tasks[0].Type())

	var payload ReportExportPayload
	require.NoError(t, json.Unmarshal(stub.tasks[0].Payload(), &payload))
	assert.Equal(t, id, payload.ExportID)
	assert.Contains(t, stub.opts[0], asynq.TaskID("export:"+id.String()))

	stub.err = asynq.ErrTaskIDConflict
	assert.NoError(t, client.EnqueueReportExport(context.Background(), id))

	stub.err = errors.New("redis down")
	assert.Error(t, client.EnqueueReportExport(context.Background(), id))
}

func TestNewWorkerRejectsIncompleteRegistrations(t *testing.T) {
	opts := asynq.RedisClientOpt{Addr: "127.0.0.1:0"}
	_, err := NewWorker(WorkerConfig{RedisOpts: opts, Handlers: []TaskHandler{{Type: TaskReportExport}}})
	assert.Error(t, err)

	_, err = NewWorker(WorkerConfig{RedisOpts: opts, Cron: []CronRegistration{{Spec: "0 * * * *"}}})
	assert.Error(t, err)

	_, err = NewClient(asynq.RedisClientOpt{})
	assert.Error(t, err)
}
