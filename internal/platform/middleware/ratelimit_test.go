package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestMemoryLimiter_AllowsWithinBurst(t *testing.T) {
	l := NewMemoryLimiter(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 3})

	for i := 0; i < 3; i++ {
		allowed, _, err := l.Allow(context.Background(), "1.2.3.4")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !allowed {
			t.Fatalf("request %d should be allowed within burst", i+1)
		}
	}

	allowed, retryAfter, _ := l.Allow(context.Background(), "1.2.3.4")
	if allowed {
		t.Error("request beyond burst should be denied")
	}
	if retryAfter < 1 {
		t.Errorf("expected retry-after >= 1, got %d", retryAfter)
	}
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	l := NewMemoryLimiter(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})

	if allowed, _, _ := l.Allow(context.Background(), "a"); !allowed {
		t.Fatal("first request for key a should pass")
	}
	if allowed, _, _ := l.Allow(context.Background(), "a"); allowed {
		t.Fatal("second request for key a should be denied")
	}
	if allowed, _, _ := l.Allow(context.Background(), "b"); !allowed {
		t.Fatal("key b should have its own bucket")
	}
}

type stubLimiter struct {
	allowed bool
	err     error
}

func (s *stubLimiter) Allow(context.Context, string) (bool, int, error) {
	return s.allowed, 2, s.err
}

func newLimitedContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRateLimit_Denied(t *testing.T) {
	c, rec := newLimitedContext()
	handler := RateLimit(&stubLimiter{allowed: false})(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	err := handler(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %v", err)
	}
	if rec.Header().Get("Retry-After") != "2" {
		t.Errorf("expected Retry-After header, got %q", rec.Header().Get("Retry-After"))
	}
}

func TestRateLimit_FailsOpenOnBackendError(t *testing.T) {
	c, _ := newLimitedContext()
	called := false
	handler := RateLimit(&stubLimiter{err: context.DeadlineExceeded})(func(c echo.Context) error {
		called = true
		return nil
	})

	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected handler to run when limiter backend errors")
	}
}
