package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gotestcase/internal/pkg/cache"
	"gotestcase/internal/pkg/logger"
	"gotestcase/internal/pkg/middleware"
	"gotestcase/internal/pkg/token"
)

type fakeTokens struct{}

func (fakeTokens) ValidateToken(s string) (*token.CustomClaims, error) {
	if s == "bom" {
		return &token.CustomClaims{UserID: "user-1", Email: "a@b.co"}, nil
	}
	return nil, errors.New("inválido")
}

func TestAuthMiddleware(t *testing.T) {
	var seen middleware.UserClaims
	h := middleware.NewAuthMiddleware(fakeTokens{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = middleware.GetUserClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		header string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"Basic abc", http.StatusUnauthorized},
		{"Bearer ruim", http.StatusUnauthorized},
		{"Bearer bom", http.StatusNoContent},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/v1/projects", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tc.status, rec.Code, "header %q", tc.header)
	}
	assert.Equal(t, "user-1", seen.UserID)
}

type memCache struct {
	counters map[string]int
	ttls     map[string]time.Duration
	expires  int
	failIncr bool
}

func newMemCache() *memCache {
	return &memCache{counters: map[string]int{}, ttls: map[string]time.Duration{}}
}

func (m *memCache) Get(ctx context.Context, key string) (string, error) { return "", cache.ErrCacheMiss }
func (m *memCache) Set(ctx context.Context, key string, value interface{}, _ time.Duration) error {
	return nil
}
func (m *memCache) Delete(ctx context.Context, keys ...string) error { return nil }
func (m *memCache) Incr(ctx context.Context, key string) (int64, error) {
	if m.failIncr {
		return 0, errors.New("redis fora")
	}
	m.counters[key]++
	return int64(m.counters[key]), nil
}
func (m *memCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	m.expires++
	m.ttls[key] = ttl
	return nil
}

func TestRateLimiter(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	hit := func(h http.Handler) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("bloqueia acima do limite", func(t *testing.T) {
		c := newMemCache()
		h := middleware.RateLimiter(c, 2, time.Minute, logger.NewNop())(okHandler)

		codes := make([]int, 0, 3)
		remaining := make([]string, 0, 3)
		for i := 0; i < 3; i++ {
			rec := hit(h)
			codes = append(codes, rec.Code)
			remaining = append(remaining, rec.Header().Get("X-RateLimit-Remaining"))
		}
		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
		assert.Equal(t, []string{"1", "0", ""}, remaining)
	})

	t.Run("expiração definida só na primeira requisição da janela", func(t *testing.T) {
		c := newMemCache()
		h := middleware.RateLimiter(c, 5, 30*time.Second, logger.NewNop())(okHandler)

		for i := 0; i < 3; i++ {
			hit(h)
		}
		assert.Equal(t, 3, c.counters["rate-limit:10.0.0.1"])
		assert.Equal(t, 1, c.expires)
		assert.Equal(t, 30*time.Second, c.ttls["rate-limit:10.0.0.1"])
	})

	t.Run("cache indisponível libera a requisição", func(t *testing.T) {
		c := newMemCache()
		c.failIncr = true
		h := middleware.RateLimiter(c, 1, time.Minute, logger.NewNop())(okHandler)

		assert.Equal(t, http.StatusOK, hit(h).Code)
		assert.Equal(t, http.StatusOK, hit(h).Code)
		assert.Zero(t, c.expires)
	})
}
