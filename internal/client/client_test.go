package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Evaluate(t *testing.T) {
	var got EvaluateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/evaluate" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"enabled":true,"variant":"B"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	resp, err := c.Evaluate(context.Background(), EvaluateRequest{
		ProjectID:   "proj-1",
		Environment: "prod",
		FlagKey:     "checkout",
		Context:     map[string]any{"userId": "user-1"},
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !resp.Enabled || resp.Variant != "B" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if got.ProjectID != "proj-1" || got.FlagKey != "checkout" || got.Context["userId"] != "user-1" {
		t.Fatalf("unexpected request body %+v", got)
	}
}

func TestClient_EvaluateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"Service Unavailable","message":"Flag store unavailable","code":"STORE_UNAVAILABLE","request_id":"r1"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Evaluate(context.Background(), EvaluateRequest{ProjectID: "p", Environment: "e", FlagKey: "f"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusServiceUnavailable || apiErr.Code != "STORE_UNAVAILABLE" || apiErr.RequestID != "r1" {
		t.Fatalf("unexpected APIError %+v", apiErr)
	}
}

func TestClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).Ready(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "bad gateway" {
		t.Fatalf("expected raw body as message, got %q", apiErr.Message)
	}
}

func TestAPIError_FieldsSorted(t *testing.T) {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: "Validation failed",
		Fields: map[string]string{
			"projectId":   "is required",
			"flagKey":     "is required",
			"environment": "is required",
			"context":     "must be a JSON object",
		},
	}

	want := "API error (status 400) VALIDATION_ERROR: Validation failed" +
		"; context: must be a JSON object; environment: is required; flagKey: is required; projectId: is required"
	for i := 0; i < 20; i++ {
		if got := err.Error(); got != want {
			t.Fatalf("Error() = %q, want %q", got, want)
		}
	}
}

func TestClient_Ready(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/readyz" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	if err := NewClient(srv.URL).Ready(context.Background()); err != nil {
		t.Fatalf("Ready: %v", err)
	}
}
