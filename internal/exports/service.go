package exports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/odyssey-erp/tekstil/internal/platform/httpx"
	"github.com/odyssey-erp/tekstil/internal/platform/objectstore"
	"github.com/odyssey-erp/tekstil/internal/reporting"
	"github.com/odyssey-erp/tekstil/internal/reporting/export"
)

// Store persists export rows.
type Store interface {
	Insert(ctx context.Context, e Export) error
	Get(ctx context.Context, id uuid.UUID) (Export, error)
	Transition(ctx context.Context, id uuid.UUID, to Status, at time.Time, mutate func(*Export)) (Export, error)
}

// Enqueuer schedules the background run of an export.
type Enqueuer interface {
	EnqueueReportExport(ctx context.Context, id uuid.UUID) error
}

// ReportBuilder assembles reports.
type ReportBuilder interface {
	Build(ctx context.Context, token string, q reporting.Query) (reporting.Report, error)
}

// Renderer turns a report into a file.
type Renderer interface {
	Render(ctx context.Context, rep reporting.Report, format string) (export.Artifact, error)
}

// Service coordinates export requests and worker runs.
type Service struct {
	store     Store
	enqueuer  Enqueuer
	artifacts objectstore.Store
	logger    *slog.Logger
	validate  *validator.Validate
	now       func() time.Time
	newID     func() uuid.UUID
}

// NewService constructs the export service.
func NewService(store Store, enqueuer Enqueuer, artifacts objectstore.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		enqueuer:  enqueuer,
		artifacts: artifacts,
		logger:    logger,
		validate:  validator.New(),
		now:       time.Now,
		newID:     uuid.New,
	}
}

func (r Request) query() reporting.Query {
	return reporting.Query{Report: r.Report, From: r.From, To: r.To, Status: r.Status, Type: r.Type}
}

// Create validates req, records it as queued and enqueues the worker task.
func (s *Service) Create(ctx context.Context, req Request) (Export, error) {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return Export{}, fmt.Errorf("%s: %w", verrs[0].Field(), httpx.ErrValidation)
		}
		return Export{}, fmt.Errorf("%v: %w", err, httpx.ErrValidation)
	}
	if _, _, err := req.query().Resolve(); err != nil {
		if errors.Is(err, reporting.ErrUnknownReport) {
			return Export{}, fmt.Errorf("%v: %w", err, httpx.ErrNotFound)
		}
		return Export{}, fmt.Errorf("%v: %w", err, httpx.ErrValidation)
	}

	now := s.now().UTC()
	e := Export{
		ID:           s.newID(),
		Report:       req.Report,
		Format:       req.Format,
		From:         req.From,
		To:           req.To,
		StatusFilter: req.Status,
		TypeFilter:   req.Type,
		Status:       StatusQueued,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Insert(ctx, e); err != nil {
		return Export{}, err
	}
	if err := s.enqueuer.EnqueueReportExport(ctx, e.ID); err != nil {
		if _, terr := s.store.Transition(ctx, e.ID, StatusFailed, s.now().UTC(), func(x *Export) {
			x.Error = "gagal menjadwalkan export"
		}); terr != nil {
			s.logger.Warn("mark export failed", slog.String("export_id", e.ID.String()), slog.Any("error", terr))
		}
		return Export{}, fmt.Errorf("enqueue export: %w", err)
	}
	s.logger.Info("export queued", slog.String("export_id", e.ID.String()), slog.String("report", e.Report), slog.String("format", e.Format))
	return e, nil
}

// Get returns one export.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Export, error) {
	return s.store.Get(ctx, id)
}

// Download returns a finished export and its artifact.
func (s *Service) Download(ctx context.Context, id uuid.UUID) (Export, objectstore.Object, error) {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		return Export{}, objectstore.Object{}, err
	}
	if e.Status != StatusDone || e.ArtifactKey == "" {
		return e, objectstore.Object{}, ErrNotReady
	}
	obj, err := s.artifacts.Get(ctx, e.ArtifactKey)
	if err != nil {
		return e, objectstore.Object{}, err
	}
	return e, obj, nil
}

// Runner executes exports inside the worker.
type Runner struct {
	service  *Service
	builder  ReportBuilder
	renderer Renderer
	token    string
}

// NewRunner wires the worker side. token is the service credential used
// against the ERP backend.
func NewRunner(service *Service, builder ReportBuilder, renderer Renderer, token string) *Runner {
	return &Runner{service: service, builder: builder, renderer: renderer, token: token}
}

// Run builds, renders and stores one export, and records the outcome. The
// returned export carries the final status; an error means the export
// failed.
func (r *Runner) Run(ctx context.Context, id uuid.UUID) (Export, error) {
	s := r.service
	e, err := s.store.Transition(ctx, id, StatusRunning, s.now().UTC(), func(x *Export) { x.Error = "" })
	if err != nil {
		return Export{}, err
	}
	logger := s.logger.With(slog.String("export_id", id.String()), slog.String("report", e.Report))

	q := reporting.Query{Report: e.Report, From: e.From, To: e.To, Status: e.StatusFilter, Type: e.TypeFilter}
	rep, err := r.builder.Build(ctx, r.token, q)
	if errors.Is(err, reporting.ErrNoData) {
		logger.Info("export empty")
		return s.store.Transition(ctx, id, StatusEmpty, s.now().UTC(), func(x *Export) { x.Error = reporting.ErrNoData.Error() })
	}
	if err != nil {
		return r.fail(ctx, logger, id, "build report", err)
	}
	artifact, err := r.renderer.Render(ctx, rep, e.Format)
	if err != nil {
		return r.fail(ctx, logger, id, "render report", err)
	}
	key := id.String() + "." + e.Format
	if err := s.artifacts.Put(ctx, objectstore.Object{Key: key, ContentType: artifact.ContentType, Data: artifact.Data}); err != nil {
		return r.fail(ctx, logger, id, "store artifact", err)
	}
	done, err := s.store.Transition(ctx, id, StatusDone, s.now().UTC(), func(x *Export) {
		x.Filename = artifact.Filename
		x.ArtifactKey = key
		x.Size = len(artifact.Data)
	})
	if err != nil {
		return Export{}, err
	}
	logger.Info("export done", slog.Int("size", done.Size))
	return done, nil
}

func (r *Runner) fail(ctx context.Context, logger *slog.Logger, id uuid.UUID, step string, cause error) (Export, error) {
	logger.Warn("export failed", slog.String("step", step), slog.Any("error", cause))
	e, err := r.service.store.Transition(ctx, id, StatusFailed, r.service.now().UTC(), func(x *Export) {
		x.Error = cause.Error()
	})
	if err != nil {
		return Export{}, errors.Join(cause, err)
	}
	return e, fmt.Errorf("%s: %w", step, cause)
}
