package testutil

import (
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/useflyyer/studio/internal/help"
	"github.com/useflyyer/studio/internal/httpserver"
	"github.com/useflyyer/studio/internal/httpserver/ui"
	"github.com/useflyyer/studio/internal/settings"
)

// ServerOption customises the HTTP server configuration for tests.
type ServerOption func(*httpserver.Config)

// WithSettingsStore overrides the settings store used by the studio handlers.
func WithSettingsStore(store ui.SettingsStore) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Settings = store
	}
}

// WithDefaults sets the form defaults used when the page query is empty.
func WithDefaults(d ui.Defaults) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Defaults = d
	}
}

// WithHelp replaces the help panel.
func WithHelp(panel help.Panel) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Help = panel
	}
}

// WithLogger wires a custom logger, typically an observer core.
func WithLogger(logger *zap.Logger) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Logger = logger
	}
}

// NewCookieStore returns a settings cookie store with fixed test keys.
func NewCookieStore(t testing.TB) *settings.CookieStore {
	t.Helper()
	store, err := settings.NewCookieStore(settings.CookieConfig{
		HashKey: []byte("studio-test-hash-key-0123456789a"),
	})
	if err != nil {
		t.Fatalf("cookie store: %v", err)
	}
	return store
}

// NewServer constructs an httptest server running the studio HTTP stack with sensible defaults.
func NewServer(t testing.TB, opts ...ServerOption) *httptest.Server {
	t.Helper()

	panel, err := help.Default()
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	cfg := httpserver.Config{
		Address:  ":0",
		Logger:   zap.NewNop(),
		Settings: NewCookieStore(t),
		Help:     panel,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	srv, err := httpserver.New(cfg)
	if err != nil {
		t.Fatalf("httpserver: %v", err)
	}
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}
