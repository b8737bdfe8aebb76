package lumber

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_CompletionEntry(t *testing.T) {
	logger, device := newMemoryLogger(SeverityDebug)

	handler := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.InfoCtx(r.Context(), "handling")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	handler.ServeHTTP(rec, req)

	require.Equal(t, 2, device.count())

	// The in-handler entry carries the request scope.
	inner := device.snapshot()[0]
	assert.Equal(t, "handling", inner.Message)
	assert.Equal(t, http.MethodPost, inner.Attributes["http.method"])
	assert.Equal(t, "/orders", inner.Attributes["http.path"])
	assert.NotEmpty(t, inner.UnitOfWorkID)

	// The completion entry records the outcome.
	completion := device.last()
	assert.Equal(t, "request completed", completion.Message)
	assert.Equal(t, http.StatusCreated, completion.Attributes["http.status"])
	assert.Equal(t, int64(2), completion.Attributes["http.bytes"])
	assert.Contains(t, completion.Attributes, "http.duration")
	assert.Equal(t, inner.UnitOfWorkID, completion.UnitOfWorkID)
}

func TestMiddleware_RequestIDHeader(t *testing.T) {
	logger, device := newMemoryLogger(SeverityDebug)
	handler := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	// Client-provided ids are honored.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "client-id-1")
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "client-id-1", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "client-id-1", device.last().UnitOfWorkID)

	// Missing ids are generated and echoed back.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := rec.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, device.last().UnitOfWorkID)
}

func TestMiddleware_DefaultStatus(t *testing.T) {
	logger, device := newMemoryLogger(SeverityDebug)
	handler := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("implicit 200"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, device.last().Attributes["http.status"])
}
