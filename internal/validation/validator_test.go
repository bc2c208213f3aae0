package validation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/TimurManjosov/flagship-eval/internal/store"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name        string
		key         string
		wantValid   bool
		wantMessage string
	}{
		{name: "valid alphanumeric", key: "my_flag_123", wantValid: true},
		{name: "valid with hyphen", key: "my-flag-123", wantValid: true},
		{name: "empty key", key: "", wantMessage: "Key is required"},
		{name: "whitespace only", key: "   ", wantMessage: "Key is required"},
		{name: "too long", key: strings.Repeat("a", 65), wantMessage: "Key must not exceed 64 characters"},
		{name: "exactly 64 chars", key: strings.Repeat("a", 64), wantValid: true},
		{
			name:        "contains spaces",
			key:         "my flag",
			wantMessage: "Key must contain only alphanumeric characters, underscores, and hyphens",
		},
		{
			name:        "contains colon",
			key:         "a:b",
			wantMessage: "Key must contain only alphanumeric characters, underscores, and hyphens",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateKey(tt.key)
			if result.Valid != tt.wantValid {
				t.Errorf("ValidateKey(%q).Valid = %v, want %v", tt.key, result.Valid, tt.wantValid)
			}
			if !tt.wantValid && result.Errors["key"] != tt.wantMessage {
				t.Errorf("ValidateKey(%q) error = %q, want %q", tt.key, result.Errors["key"], tt.wantMessage)
			}
		})
	}
}

func TestValidateEvaluateRequest(t *testing.T) {
	tests := []struct {
		name       string
		params     EvaluateParams
		wantFields []string
	}{
		{
			name:   "valid",
			params: EvaluateParams{ProjectID: "proj-1", Environment: "prod", FlagKey: "checkout"},
		},
		{
			name:       "all missing",
			params:     EvaluateParams{},
			wantFields: []string{"projectId", "environment", "flagKey"},
		},
		{
			name:       "blank environment",
			params:     EvaluateParams{ProjectID: "proj-1", Environment: "  ", FlagKey: "checkout"},
			wantFields: []string{"environment"},
		},
		{
			name:       "overlong project",
			params:     EvaluateParams{ProjectID: strings.Repeat("p", 129), Environment: "prod", FlagKey: "f"},
			wantFields: []string{"projectId"},
		},
		{
			name:   "flag key with unusual characters is accepted",
			params: EvaluateParams{ProjectID: "proj-1", Environment: "prod", FlagKey: "legacy.flag"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateEvaluateRequest(tt.params)
			if result.Valid != (len(tt.wantFields) == 0) {
				t.Fatalf("Valid = %v, errors = %v", result.Valid, result.Errors)
			}
			if len(result.Errors) != len(tt.wantFields) {
				t.Fatalf("expected %d errors, got %v", len(tt.wantFields), result.Errors)
			}
			for _, f := range tt.wantFields {
				if _, ok := result.Errors[f]; !ok {
					t.Errorf("expected error for field %q, got %v", f, result.Errors)
				}
			}
		})
	}
}

func TestParseContext(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantValid bool
		wantLen   int
	}{
		{name: "absent", raw: "", wantValid: true},
		{name: "null", raw: "null", wantValid: true},
		{name: "empty object", raw: "{}", wantValid: true},
		{name: "object", raw: `{"userId":"u1","age":30,"beta":true}`, wantValid: true, wantLen: 3},
		{name: "array", raw: `["a"]`},
		{name: "string", raw: `"ctx"`},
		{name: "number", raw: `42`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, result := ParseContext(json.RawMessage(tt.raw))
			if result.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, errors = %v", result.Valid, result.Errors)
			}
			if !tt.wantValid {
				if result.Errors["context"] == "" {
					t.Fatalf("expected context error")
				}
				return
			}
			if ctx == nil {
				t.Fatal("expected non-nil context")
			}
			if len(ctx) != tt.wantLen {
				t.Fatalf("expected %d entries, got %v", tt.wantLen, ctx)
			}
		})
	}
}

func TestParseContext_KeepsNumbersExact(t *testing.T) {
	ctx, result := ParseContext(json.RawMessage(`{"userId":12345678901234567890}`))
	if !result.Valid {
		t.Fatalf("unexpected errors %v", result.Errors)
	}
	n, ok := ctx["userId"].(json.Number)
	if !ok || n.String() != "12345678901234567890" {
		t.Fatalf("expected json.Number, got %#v", ctx["userId"])
	}
}

func TestValidateVariants(t *testing.T) {
	tests := []struct {
		name      string
		variants  []store.Variant
		wantValid bool
	}{
		{name: "none", wantValid: true},
		{name: "basis points", variants: []store.Variant{{Key: "A", Weight: 3000}, {Key: "B", Weight: 7000}}, wantValid: true},
		{name: "under allocated", variants: []store.Variant{{Key: "A", Weight: 10}}, wantValid: true},
		{name: "zero weight", variants: []store.Variant{{Key: "A", Weight: 0}, {Key: "B", Weight: 10000}}, wantValid: true},
		{name: "negative", variants: []store.Variant{{Key: "A", Weight: -1}}},
		{name: "duplicate", variants: []store.Variant{{Key: "A", Weight: 1}, {Key: "A", Weight: 1}}},
		{name: "empty key", variants: []store.Variant{{Key: "", Weight: 1}}},
		{name: "over allocated", variants: []store.Variant{{Key: "A", Weight: 6000}, {Key: "B", Weight: 6000}}},
		{name: "long key", variants: []store.Variant{{Key: strings.Repeat("v", 65), Weight: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateVariants(tt.variants)
			if result.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, errors = %v", result.Valid, result.Errors)
			}
		})
	}
}

func TestValidateRules(t *testing.T) {
	ok := ValidateRules([]store.Rule{
		{Priority: 1, Clause: "country==US && plan==pro"},
		{Priority: 2, Clause: "beta=="},
	})
	if !ok.Valid {
		t.Fatalf("expected valid rules, got %v", ok.Errors)
	}

	bad := ValidateRules([]store.Rule{{Priority: 1, Clause: "country=US"}})
	if bad.Valid || !strings.Contains(bad.Errors["rules"], "priority 1") {
		t.Fatalf("expected rules error naming the priority, got %v", bad.Errors)
	}
}

func TestValidateFlag(t *testing.T) {
	valid := store.UpsertParams{
		ProjectID: "proj-1",
		Key:       "checkout",
		Rules:     []store.Rule{{Priority: 1, Clause: "country==US"}},
		Variants:  []store.Variant{{Key: "A", Weight: 3000}, {Key: "B", Weight: 7000}},
	}
	if result := ValidateFlag(valid); !result.Valid {
		t.Fatalf("expected valid flag, got %v", result.Errors)
	}

	invalid := store.UpsertParams{
		Key:         "bad key",
		Description: strings.Repeat("d", 501),
		Rules:       []store.Rule{{Priority: 1, Clause: "=="}},
		Variants:    []store.Variant{{Key: "A", Weight: -5}},
	}
	result := ValidateFlag(invalid)
	for _, field := range []string{"projectId", "key", "description", "rules", "variants"} {
		if _, ok := result.Errors[field]; !ok {
			t.Errorf("expected error for %q, got %v", field, result.Errors)
		}
	}
}

func TestValidationResult_FirstErrorWins(t *testing.T) {
	r := NewValidationResult()
	r.AddError("key", "first")
	r.AddError("key", "second")
	if r.Errors["key"] != "first" || r.Valid {
		t.Fatalf("unexpected result %+v", r)
	}
	r.Merge(nil)
}
