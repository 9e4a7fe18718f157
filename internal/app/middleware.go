package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/odyssey-erp/tekstil/internal/observability"
	"github.com/odyssey-erp/tekstil/internal/platform/httpx"
	"github.com/odyssey-erp/tekstil/internal/shared"
)

const (
	defaultRequestTimeout = 60 * time.Second
	defaultRatePerMinute  = 120
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics
}

// MiddlewareStack returns the chain installed in front of every route.
// ForwardToken runs before the limiter so callers are keyed by token.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout, perMinute, production := defaultRequestTimeout, defaultRatePerMinute, false
	if cfg.Config != nil {
		if cfg.Config.AppRequestTimeout > 0 {
			timeout = cfg.Config.AppRequestTimeout
		}
		if cfg.Config.RateLimitPerMin > 0 {
			perMinute = cfg.Config.RateLimitPerMin
		}
		production = cfg.Config.IsProduction()
	}

	chain := []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		middleware.RequestLogger(&middleware.DefaultLogFormatter{
			Logger:  slog.NewLogLogger(logger.Handler(), slog.LevelInfo),
			NoColor: true,
		}),
		middleware.Recoverer,
	}
	if cfg.Metrics != nil {
		chain = append(chain, cfg.Metrics.Middleware)
	}
	return append(chain,
		middleware.Timeout(timeout),
		secureHeaders(logger, production),
		middleware.Compress(5),
		ForwardToken,
		httprate.Limit(perMinute, time.Minute,
			httprate.WithKeyFuncs(shared.CallerKey),
			httprate.WithLimitHandler(httpx.RateLimited),
		),
	)
}

// secureHeaders applies unrolled/secure. Report pages inline their styles
// and load the print script from /static.
func secureHeaders(logger *slog.Logger, production bool) func(http.Handler) http.Handler {
	sec := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		PermissionsPolicy:     "camera=(), microphone=(), geolocation=()",
		ContentSecurityPolicy: "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:",
		SSLRedirect:           production,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := sec.Process(w, r); err != nil {
				logger.Warn("secure headers blocked request", slog.String("path", r.URL.Path), slog.Any("error", err))
				httpx.Problem(w, http.StatusBadRequest, "Bad Request", "permintaan ditolak")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ForwardToken stores the caller's bearer token in the request context so
// handlers can forward it to the ERP backend.
func ForwardToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := shared.TokenFromRequest(r); token != "" {
			r = r.WithContext(shared.ContextWithToken(r.Context(), token))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireToken rejects requests without a bearer token.
func RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shared.TokenFromContext(r.Context()) == "" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", shared.ErrMissingToken.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}
