package jobs

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/tekstil/internal/platform/httpx"
)

// QueueInspector reads queue statistics. *asynq.Inspector satisfies it.
type QueueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// Handler exposes HTTP endpoints for job observability.
type Handler struct {
	inspector QueueInspector
	logger    *slog.Logger
}

// NewHandler constructs an HTTP handler for jobs endpoints. inspector may be
// nil, in which case queues report as empty.
func NewHandler(inspector QueueInspector, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{inspector: inspector, logger: logger}
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/health", h.health)
}

type queueHealth struct {
	Queue     string  `json:"queue"`
	Pending   int     `json:"pending"`
	Active    int     `json:"active"`
	Scheduled int     `json:"scheduled"`
	Retry     int     `json:"retry"`
	Archived  int     `json:"archived"`
	Latency   float64 `json:"latency_seconds"`
	Paused    bool    `json:"paused"`
}

type healthResponse struct {
	Status string        `json:"status"`
	Queues []queueHealth `json:"queues"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	for _, queue := range []string{QueueDefault, QueueMaintenance} {
		q, err := h.queue(queue)
		if err != nil {
			h.logger.Warn("jobs health", slog.String("queue", queue), slog.Any("error", err))
			httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "antrian tidak dapat dibaca")
			return
		}
		if q.Paused {
			resp.Status = "degraded"
		}
		resp.Queues = append(resp.Queues, q)
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) queue(name string) (queueHealth, error) {
	out := queueHealth{Queue: name}
	if h.inspector == nil {
		return out, nil
	}
	info, err := h.inspector.GetQueueInfo(name)
	if err != nil {
		// a queue that never received a task does not exist yet
		if errors.Is(err, asynq.ErrQueueNotFound) {
			return out, nil
		}
		return out, err
	}
	if info == nil {
		return out, nil
	}
	return queueHealth{
		Queue:     info.Queue,
		Pending:   info.Pending,
		Active:    info.Active,
		Scheduled: info.Scheduled,
		Retry:     info.Retry,
		Archived:  info.Archived,
		Latency:   info.Latency.Seconds(),
		Paused:    info.Paused,
	}, nil
}
