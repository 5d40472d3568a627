package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jobboard-backend/internal/services/health"
	"jobboard-backend/internal/shared/config"
	"jobboard-backend/internal/shared/server/middleware"
)

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRouterRateLimitsWritesHarderThanReads(t *testing.T) {
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRouter(RouterDeps{
		Config:      config.Config{Env: "dev", RateLimitRPS: 1, RateLimitBurst: 2},
		RateLimiter: middleware.NewRateLimiter(func() time.Time { return fixed }),
		Health:      health.NewService(nil),
	})

	serve := func(method, path string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		return w.Code
	}

	for i := 0; i < 2; i++ {
		if code := serve(http.MethodGet, "/api/v1/health"); code != http.StatusOK {
			t.Fatalf("read %d: expected 200, got %d", i, code)
		}
	}
	if code := serve(http.MethodGet, "/api/v1/health"); code != http.StatusTooManyRequests {
		t.Fatalf("expected read burst exhausted, got %d", code)
	}

	if code := serve(http.MethodPost, "/api/v1/jobs"); code != http.StatusNotFound {
		t.Fatalf("first write: expected 404 from unregistered route, got %d", code)
	}
	if code := serve(http.MethodPost, "/api/v1/jobs"); code != http.StatusTooManyRequests {
		t.Fatalf("expected write burst of one, got %d", code)
	}
}
