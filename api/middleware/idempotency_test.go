package middleware

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
)

type fakeIdempotencyStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{values: map[string]string{}}
}

func (s *fakeIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (s *fakeIdempotencyStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = fmt.Sprint(value)
	return nil
}

func (s *fakeIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; ok {
		return false, nil
	}
	s.values[key] = fmt.Sprint(value)
	return true, nil
}

func (s *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "tp:idempotency:" + scope + ":" + id
}

func (s *fakeIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

// The middleware is mounted with r.Use on the /api/v1 sub-router, where
// chi has not matched the final segment yet. Guarding must therefore key
// off the request path, not the in-flight route pattern.
func TestIdempotencyGuardsSubRouterMounts(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test-idempotency", Level: logger.ParseLevel("debug"), Output: io.Discard})
	store := newFakeIdempotencyStore()

	var calls int
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Idempotency(store, logg))
		r.Post("/checkout", func(w http.ResponseWriter, req *http.Request) {
			calls++
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			fmt.Fprintf(w, `{"order":%d}`, calls)
		})
		r.Post("/cart/items", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusCreated)
		})
	})

	send := func(path, key, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		return resp
	}

	t.Run("missing key rejected", func(t *testing.T) {
		resp := send("/api/v1/checkout", "", `{}`)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 without key, got %d", resp.Code)
		}
		if calls != 0 {
			t.Fatalf("handler must not run without a key, ran %d times", calls)
		}
	})

	t.Run("replay returns stored response", func(t *testing.T) {
		first := send("/api/v1/checkout", "abc", `{"payment":null}`)
		if first.Code != http.StatusCreated {
			t.Fatalf("expected 201 on first request, got %d", first.Code)
		}
		replay := send("/api/v1/checkout", "abc", `{"payment":null}`)
		if replay.Code != http.StatusCreated {
			t.Fatalf("expected 201 on replay, got %d", replay.Code)
		}
		if calls != 1 {
			t.Fatalf("expected handler to run once, ran %d times", calls)
		}
		if replay.Body.String() != first.Body.String() {
			t.Fatalf("replay body %q differs from stored %q", replay.Body.String(), first.Body.String())
		}
		if ct := replay.Header().Get("Content-Type"); ct != "application/json" {
			t.Fatalf("expected stored Content-Type on replay, got %q", ct)
		}
	})

	t.Run("key reuse with different body conflicts", func(t *testing.T) {
		resp := send("/api/v1/checkout", "abc", `{"payment":{"amount":"1.00"}}`)
		if resp.Code != http.StatusConflict {
			t.Fatalf("expected 409 on body mismatch, got %d", resp.Code)
		}
	})

	t.Run("unguarded route passes through", func(t *testing.T) {
		resp := send("/api/v1/cart/items", "", `{}`)
		if resp.Code != http.StatusCreated {
			t.Fatalf("expected cart mutation to skip idempotency, got %d", resp.Code)
		}
	})
}
