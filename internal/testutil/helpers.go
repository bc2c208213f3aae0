// Package testutil holds helpers shared by HTTP and service tests.
package testutil

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/TimurManjosov/flagship-eval/internal/cache"
	"github.com/TimurManjosov/flagship-eval/internal/engine"
	"github.com/TimurManjosov/flagship-eval/internal/evaluation"
	"github.com/TimurManjosov/flagship-eval/internal/resolver"
	"github.com/TimurManjosov/flagship-eval/internal/store"
)

// Stack is an in-memory evaluation stack.
type Stack struct {
	Store    *store.MemoryStore
	Cache    *cache.MemoryCache
	Resolver *resolver.Resolver
	Service  *evaluation.Service
}

// NewStack builds a service over an in-memory store and cache, seeded with flags.
func NewStack(t *testing.T, flags ...store.UpsertParams) *Stack {
	t.Helper()
	st := store.NewMemoryStore()
	if err := SeedFlags(context.Background(), st, flags); err != nil {
		t.Fatalf("seed flags: %v", err)
	}
	c := cache.NewMemoryCache()
	r := resolver.New(c, st)
	return &Stack{
		Store:    st,
		Cache:    c,
		Resolver: r,
		Service:  evaluation.NewService(r, engine.NewEvaluator(nil), zerolog.Nop()),
	}
}

// CheckoutFlag is the 30/70 A/B flag used across tests.
// user-1 lands on B, user-42 on A, anonymous on B.
func CheckoutFlag(projectID string) store.UpsertParams {
	return store.UpsertParams{
		ProjectID: projectID,
		Key:       "checkout",
		Rules:     []store.Rule{{Priority: 1, Clause: "country==US"}},
		Variants:  []store.Variant{{Key: "A", Weight: 3000}, {Key: "B", Weight: 7000}},
	}
}

// HTTPRequest is a helper for making test HTTP requests.
type HTTPRequest struct {
	Method  string
	Path    string
	Body    string
	Headers map[string]string
}

// Do executes the HTTP request and returns the response recorder.
func (r *HTTPRequest) Do(t *testing.T, handler http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if r.Body != "" {
		body = bytes.NewBufferString(r.Body)
	}
	req := httptest.NewRequest(r.Method, r.Path, body)
	if r.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// SeedFlags populates the store with test flags.
func SeedFlags(ctx context.Context, st store.Store, flags []store.UpsertParams) error {
	for _, f := range flags {
		if err := st.UpsertFlag(ctx, f); err != nil {
			return err
		}
	}
	return nil
}
