// Package httpserver assembles the studio web UI: router, middleware and handlers.
package httpserver

import (
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/useflyyer/studio/internal/help"
	custommw "github.com/useflyyer/studio/internal/httpserver/middleware"
	"github.com/useflyyer/studio/internal/httpserver/ui"
	"github.com/useflyyer/studio/internal/observability"
	"github.com/useflyyer/studio/public"
)

// Config holds runtime options for the studio HTTP server.
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	Logger     *zap.Logger
	Settings   ui.SettingsStore
	Help       help.Panel
	Defaults   ui.Defaults
	CookiePath string
	SecureCSRF bool
}

// New constructs the HTTP server with middleware stack and embedded assets.
func New(cfg Config) (*http.Server, error) {
	handler, err := NewRouter(cfg)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	errorLog, err := zap.NewStdLogAt(logger.Named("http"), zap.WarnLevel)
	if err != nil {
		return nil, fmt.Errorf("httpserver: error log: %w", err)
	}
	return &http.Server{
		Addr:         cfg.Address,
		Handler:      handler,
		ErrorLog:     errorLog,
		ReadTimeout:  durationOr(cfg.ReadTimeout, 15*time.Second),
		WriteTimeout: durationOr(cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:  durationOr(cfg.IdleTimeout, 60*time.Second),
	}, nil
}

// NewRouter builds the chi router serving the studio.
func NewRouter(cfg Config) (http.Handler, error) {
	handlers, err := ui.NewHandlers(ui.Dependencies{
		Settings: cfg.Settings,
		Help:     cfg.Help,
		Defaults: cfg.Defaults,
	})
	if err != nil {
		return nil, err
	}
	staticContent, err := public.StaticFS()
	if err != nil {
		return nil, fmt.Errorf("embed static: %w", err)
	}

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(observability.InjectLoggerMiddleware(cfg.Logger))
	router.Use(observability.RequestLoggerMiddleware())
	router.Use(chimw.Recoverer)
	router.Use(chimw.Timeout(60 * time.Second))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/assets/*", assetsHandler(staticContent))

	mountStudioRoutes(router, handlers, custommw.CSRFConfig{
		CookiePath: firstNonEmpty(cfg.CookiePath, "/"),
		Secure:     cfg.SecureCSRF,
	})
	return router, nil
}

func mountStudioRoutes(router chi.Router, h *ui.Handlers, csrf custommw.CSRFConfig) {
	router.Group(func(r chi.Router) {
		r.Use(custommw.HTMX())
		r.Use(custommw.NoStore())
		r.Use(custommw.CSRF(csrf))

		r.Get("/", h.Studio)
		r.Post("/", h.Submit)
		r.Post("/modes/{mode}", h.ToggleMode)
		r.Post("/ratio", h.SetRatio)
	})
}

func assetsHandler(content fs.FS) http.Handler {
	return http.StripPrefix("/assets", custommw.AssetsWithCache(content))
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
