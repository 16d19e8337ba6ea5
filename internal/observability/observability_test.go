package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewWriterLoggerEncodesSeverity(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, "warn")
	logger.Info("hidden")
	logger.Warn("visible", zap.String("k", "v"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "WARN", entry["severity"])
	assert.Equal(t, "visible", entry["message"])
	assert.Equal(t, "v", entry["k"])
	assert.Contains(t, entry, "timestamp")
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	assert.Equal(t, zapcore.InfoLevel, parseLevel("").Level())
	assert.Equal(t, zapcore.InfoLevel, parseLevel("loud").Level())
	assert.Equal(t, zapcore.DebugLevel, parseLevel(" DEBUG ").Level())
}

func TestContextLogger(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	core, _ := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
}

func newObservedRouter(t *testing.T) (http.Handler, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(InjectLoggerMiddleware(zap.New(core)))
	r.Use(RequestLoggerMiddleware())
	r.Get("/ok", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("fine"))
	})
	r.Get("/modes/{mode}", func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Debug("inside handler")
		http.NotFound(w, r)
	})
	r.Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	return r, logs
}

func TestRequestLoggerLevels(t *testing.T) {
	router, logs := newObservedRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/modes/poster", nil))

	completed := logs.FilterMessage("request completed").All()
	require.Len(t, completed, 2)

	ok := completed[0]
	assert.Equal(t, zapcore.InfoLevel, ok.Level)
	fields := ok.ContextMap()
	assert.EqualValues(t, http.StatusOK, fields["status"])
	assert.EqualValues(t, 4, fields["bytes"])
	assert.NotEmpty(t, fields["request_id"])
	assert.NotContains(t, fields, "htmx")

	missing := completed[1]
	assert.Equal(t, zapcore.WarnLevel, missing.Level)
	assert.Equal(t, "/modes/{mode}", missing.ContextMap()["route"])

	inner := logs.FilterMessage("inside handler").All()
	require.Len(t, inner, 1)
	assert.Equal(t, "/modes/poster", inner[0].ContextMap()["path"])
}

func TestRequestLoggerMarksHTMX(t *testing.T) {
	router, logs := newObservedRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("HX-Request", "true")
	router.ServeHTTP(httptest.NewRecorder(), req)

	completed := logs.FilterMessage("request completed").All()
	require.Len(t, completed, 1)
	assert.Equal(t, true, completed[0].ContextMap()["htmx"])
}

func TestRequestLoggerPanicLogsError(t *testing.T) {
	router, logs := newObservedRouter(t)
	assert.Panics(t, func() {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	})
	completed := logs.FilterMessage("request completed").All()
	require.Len(t, completed, 1)
	assert.Equal(t, zapcore.ErrorLevel, completed[0].Level)
	assert.EqualValues(t, http.StatusInternalServerError, completed[0].ContextMap()["status"])
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "abc", sanitizeString("a\nb\x00c", 10))
	assert.Equal(t, "ab", sanitizeString("abcdef", 2))
}
