package exports

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/tekstil/internal/platform/objectstore"
	"github.com/odyssey-erp/tekstil/internal/reporting"
	"github.com/odyssey-erp/tekstil/internal/reporting/export"
)

type fakeEnqueuer struct {
	ids []uuid.UUID
	err error
}

func (f *fakeEnqueuer) EnqueueReportExport(ctx context.Context, id uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.ids = append(f.ids, id)
	return nil
}

type fakeBuilder struct {
	err   error
	token string
	query reporting.Query
}

func (f *fakeBuilder) Build(ctx context.Context, token string, q reporting.Query) (reporting.Report, error) {
	f.token = token
	f.query = q
	if f.err != nil {
		return reporting.Report{}, f.err
	}
	def, _ := reporting.Lookup(q.Report)
	return reporting.Report{Definition: def, Period: "Semua Periode", Records: []reporting.Record{{}}}, nil
}

type fakeRenderer struct {
	err error
}

func (f fakeRenderer) Render(ctx context.Context, rep reporting.Report, format string) (export.Artifact, error) {
	if f.err != nil {
		return export.Artifact{}, f.err
	}
	return export.Artifact{Filename: rep.Filename(format), ContentType: "application/pdf", Data: []byte("%PDF-1.4")}, nil
}

type fixture struct {
	service  *Service
	repo     *MemoryRepository
	enqueuer *fakeEnqueuer
	builder  *fakeBuilder
	store    *objectstore.RedisStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &fixture{
		repo:     NewMemoryRepository(),
		enqueuer: &fakeEnqueuer{},
		builder:  &fakeBuilder{},
		store:    objectstore.NewRedisStore(client, "test", time.Hour),
	}
	f.service = NewService(f.repo, f.enqueuer, f.store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	f.service.now = func() time.Time { return time.Date(2025, 1, 5, 8, 0, 0, 0, time.UTC) }
	return f
}

func (f *fixture) runner(renderer Renderer) *Runner {
	return NewRunner(f.service, f.builder, renderer, "service-token")
}

func TestCreateQueuesExport(t *testing.T) {
	f := newFixture(t)
	e, err := f.service.Create(context.Background(), Request{Report: "sales-delivery", Format: "xlsx", From: "2025-01-01"})
	require.NoError(t, err)
	assert.Equal(t, StatusQueued, e.Status)
	assert.Equal(t, []uuid.UUID{e.ID}, f.enqueuer.ids)

	stored, err := f.repo.Get(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", stored.From)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	cases := []Request{
		{Report: "sales-delivery", Format: "csv"},
		{Report: "", Format: "xlsx"},
		{Report: "sales-delivery", Format: "xlsx", From: "kemarin"},
		{Report: "sales-delivery", Format: "xlsx", Status: "done"},
		{Report: "stok", Format: "xlsx"},
	}
	for _, req := range cases {
		_, err := f.service.Create(context.Background(), req)
		assert.Error(t, err, "%+v", req)
	}
	assert.Empty(t, f.enqueuer.ids)
}

func TestCreateEnqueueFailureMarksFailed(t *testing.T) {
	f := newFixture(t)
	f.enqueuer.err = errors.New("redis down")
	f.service.newID = func() uuid.UUID { return uuid.MustParse("11111111-1111-1111-1111-111111111111") }

	_, err := f.service.Create(context.Background(), Request{Report: "sales-delivery", Format: "pdf"})
	require.Error(t, err)
	stored, err := f.repo.Get(context.Background(), uuid.MustParse("11111111-1111-1111-1111-111111111111"))
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, stored.Status)
}

func TestRunStoresArtifact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e, err := f.service.Create(ctx, Request{Report: "purchase-order-status", Format: "pdf", Status: "not_done", Type: "greige"})
	require.NoError(t, err)

	done, err := f.runner(fakeRenderer{}).Run(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, done.Status)
	assert.Equal(t, "service-token", f.builder.token)
	assert.Equal(t, "not_done", f.builder.query.Status)
	assert.Equal(t, "greige", f.builder.query.Type)
	assert.Equal(t, "Laporan Status Purchase Order - Semua Periode.pdf", done.Filename)

	got, obj, err := f.service.Download(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, done.ID, got.ID)
	assert.Equal(t, "%PDF-1.4", string(obj.Data))

	_, err = f.runner(fakeRenderer{}).Run(ctx, e.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRunEmptyReport(t *testing.T) {
	f := newFixture(t)
	f.builder.err = reporting.ErrNoData
	e, err := f.service.Create(context.Background(), Request{Report: "sales-delivery", Format: "xlsx"})
	require.NoError(t, err)

	out, err := f.runner(fakeRenderer{}).Run(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusEmpty, out.Status)
	assert.Equal(t, "Tidak ada data", out.Error)

	_, _, err = f.service.Download(context.Background(), e.ID)
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestRunFailureThenRetry(t *testing.T) {
	f := newFixture(t)
	e, err := f.service.Create(context.Background(), Request{Report: "sales-delivery", Format: "pdf"})
	require.NoError(t, err)

	out, err := f.runner(fakeRenderer{err: errors.New("gotenberg down")}).Run(context.Background(), e.ID)
	require.Error(t, err)
	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, "gotenberg down", out.Error)

	out, err = f.runner(fakeRenderer{}).Run(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, out.Status)
	assert.Empty(t, out.Error)
}

func TestRunResumesInterruptedExport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e, err := f.service.Create(ctx, Request{Report: "sales-delivery", Format: "pdf"})
	require.NoError(t, err)

	// worker died after claiming the export
	_, err = f.repo.Transition(ctx, e.ID, StatusRunning, f.service.now(), nil)
	require.NoError(t, err)

	out, err := f.runner(fakeRenderer{}).Run(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, out.Status)
	assert.Equal(t, e.ID.String()+".pdf", out.ArtifactKey)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusQueued, StatusRunning))
	assert.True(t, CanTransition(StatusFailed, StatusRunning))
	assert.True(t, CanTransition(StatusRunning, StatusRunning))
	assert.False(t, CanTransition(StatusDone, StatusRunning))
	assert.False(t, CanTransition(StatusEmpty, StatusFailed))
	assert.False(t, CanTransition(StatusQueued, StatusDone))
}

func newRouter(f *fixture) http.Handler {
	r := chi.NewRouter()
	NewHandler(nil, f.service).MountRoutes(r)
	return r
}

func TestHandlerFlow(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)

	body, _ := json.Marshal(Request{Report: "sales-delivery", Format: "pdf"})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/exports", bytes.NewReader(body)))
	require.Equal(t, http.StatusAccepted, rr.Code)
	var created Export
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "/exports/"+created.ID.String(), rr.Header().Get("Location"))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/exports/"+created.ID.String()+"/download", nil))
	assert.Equal(t, http.StatusConflict, rr.Code)

	_, err := f.runner(fakeRenderer{}).Run(context.Background(), created.ID)
	require.NoError(t, err)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/exports/"+created.ID.String(), nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"done"`)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/exports/"+created.ID.String()+"/download", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "Laporan Surat Jalan Penjualan")
	assert.Equal(t, "%PDF-1.4", rr.Body.String())
}

func TestHandlerErrors(t *testing.T) {
	router := newRouter(newFixture(t))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/exports/not-a-uuid", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/exports/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/exports", bytes.NewBufferString(`{"report":"sales-delivery","format":"csv"}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/exports", bytes.NewBufferString(`{"report":"stok","format":"pdf"}`)))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
