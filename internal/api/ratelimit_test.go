package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitedRouter(l *RateLimiter) http.Handler {
	r := chi.NewRouter()
	r.With(l.Middleware).Post("/attack", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func TestRateLimiterWithoutRedis(t *testing.T) {
	h := limitedRouter(NewRateLimiter(nil, 1, time.Minute, nil))
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/attack", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestConnectRedisEmptyAddr(t *testing.T) {
	assert.Nil(t, ConnectRedis(context.Background(), "", "", 0, slog.Default()))
}

func TestRateLimiterRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := ConnectRedis(context.Background(), addr, os.Getenv("REDIS_PASSWORD"), 0, logger)
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })

	h := limitedRouter(NewRateLimiter(client, 2, time.Minute, logger))
	remote := "10.9.8.7:" + uuid.NewString()[:4]
	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/attack", nil)
		req.RemoteAddr = remote
		last = httptest.NewRecorder()
		h.ServeHTTP(last, req)
		codes = append(codes, last.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "60", last.Header().Get("Retry-After"))
}
