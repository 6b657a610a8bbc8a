package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/replyflow/inbox/pkg/logger"
)

func TestLogging_CorrelationID(t *testing.T) {
	var fromCtx string
	r := chi.NewRouter()
	r.Use(Logging(logger.NewNop()))
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		fromCtx = GetCorrelationID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})

	t.Run("propagates caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/items/3", nil)
		req.Header.Set("X-Correlation-ID", "corr-123")
		rec := httptest.NewRecorder()

		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Equal(t, "corr-123", rec.Header().Get("X-Correlation-ID"))
		assert.Equal(t, "corr-123", fromCtx)
	})

	t.Run("generates id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/4", nil))

		generated := rec.Header().Get("X-Correlation-ID")
		assert.NotEmpty(t, generated)
		assert.Equal(t, generated, fromCtx)
	})
}

func TestResponseWriterFlush(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	var _ http.Flusher = rw
	rw.Flush()
	assert.True(t, rec.Flushed)
}
