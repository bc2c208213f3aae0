// Package validation provides validation rules for evaluate requests and
// flag definitions.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/TimurManjosov/flagship-eval/internal/engine"
	"github.com/TimurManjosov/flagship-eval/internal/rollout"
	"github.com/TimurManjosov/flagship-eval/internal/store"
)

const (
	// MaxKeyLength is the maximum length for flag keys
	MaxKeyLength = 64
	// MaxIdentifierLength bounds project IDs and environment keys
	MaxIdentifierLength = 128
	// MaxDescriptionLength is the maximum length for flag descriptions
	MaxDescriptionLength = 500
	// MaxVariantKeyLength is the maximum length for variant keys
	MaxVariantKeyLength = 64
)

// keyPattern matches alphanumeric characters, underscores, and hyphens
var keyPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidationResult holds the result of validation
type ValidationResult struct {
	Valid  bool
	Errors map[string]string
}

// NewValidationResult creates a new validation result
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		Valid:  true,
		Errors: make(map[string]string),
	}
}

// AddError adds a field error and marks the result as invalid.
// The first error recorded for a field wins.
func (v *ValidationResult) AddError(field, message string) {
	v.Valid = false
	if _, exists := v.Errors[field]; !exists {
		v.Errors[field] = message
	}
}

// Merge combines another validation result into this one
func (v *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	for field, message := range other.Errors {
		v.AddError(field, message)
	}
}

// EvaluateParams are the identifying fields of an evaluate request.
type EvaluateParams struct {
	ProjectID   string
	Environment string
	FlagKey     string
}

// ValidateEvaluateRequest checks that every identifier is present and non-blank.
// Flag keys are not pattern-checked here: an unknown key simply evaluates to disabled.
func ValidateEvaluateRequest(params EvaluateParams) *ValidationResult {
	result := NewValidationResult()
	result.Merge(validateIdentifier("projectId", "Project ID", params.ProjectID))
	result.Merge(validateIdentifier("environment", "Environment", params.Environment))
	result.Merge(validateIdentifier("flagKey", "Flag key", params.FlagKey))
	return result
}

func validateIdentifier(field, label, value string) *ValidationResult {
	result := NewValidationResult()
	if strings.TrimSpace(value) == "" {
		result.AddError(field, label+" is required")
		return result
	}
	if utf8.RuneCountInString(value) > MaxIdentifierLength {
		result.AddError(field, fmt.Sprintf("%s must not exceed %d characters", label, MaxIdentifierLength))
	}
	return result
}

// ParseContext decodes the optional "context" member of an evaluate request.
// Absent or null yields an empty context; anything other than a JSON object
// is a validation error. Numbers are kept as json.Number.
func ParseContext(raw json.RawMessage) (engine.Context, *ValidationResult) {
	result := NewValidationResult()
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return engine.Context{}, result
	}
	if trimmed[0] != '{' {
		result.AddError("context", "Context must be a JSON object")
		return nil, result
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var ctx engine.Context
	if err := dec.Decode(&ctx); err != nil {
		result.AddError("context", "Context must be a JSON object: "+err.Error())
		return nil, result
	}
	if ctx == nil {
		ctx = engine.Context{}
	}
	return ctx, result
}

// ValidateKey validates a flag key
func ValidateKey(key string) *ValidationResult {
	result := NewValidationResult()
	key = strings.TrimSpace(key)

	if key == "" {
		result.AddError("key", "Key is required")
		return result
	}

	if utf8.RuneCountInString(key) > MaxKeyLength {
		result.AddError("key", "Key must not exceed 64 characters")
		return result
	}

	if !keyPattern.MatchString(key) {
		result.AddError("key", "Key must contain only alphanumeric characters, underscores, and hyphens")
	}

	return result
}

// ValidateDescription validates a flag description
func ValidateDescription(description string) *ValidationResult {
	result := NewValidationResult()

	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		result.AddError("description", "Description must not exceed 500 characters")
	}

	return result
}

// ValidateVariants validates the ordered variant list of a flag.
// Weights need not sum to the bucket space; the last variant absorbs the rest.
func ValidateVariants(variants []store.Variant) *ValidationResult {
	result := NewValidationResult()

	converted := make([]rollout.Variant, len(variants))
	for i, v := range variants {
		if utf8.RuneCountInString(v.Key) > MaxVariantKeyLength {
			result.AddError("variants", "Variant key must not exceed 64 characters")
			return result
		}
		converted[i] = rollout.Variant{Key: v.Key, Weight: v.Weight}
	}

	if err := rollout.ValidateVariants(converted); err != nil {
		result.AddError("variants", err.Error())
		return result
	}
	if total := rollout.TotalWeight(converted); total > rollout.BucketSpace {
		result.AddError("variants", fmt.Sprintf("Variant weights must not exceed %d (got %d)", rollout.BucketSpace, total))
	}

	return result
}

// ValidateRules checks that every clause parses. Evaluation tolerates malformed
// clauses by skipping them, but definitions written through this repo must be clean.
func ValidateRules(rules []store.Rule) *ValidationResult {
	result := NewValidationResult()
	for i, rule := range rules {
		if _, err := engine.ParseClause(rule.Clause); err != nil {
			result.AddError("rules", fmt.Sprintf("Rule %d (priority %d): %v", i, rule.Priority, err))
			return result
		}
	}
	return result
}

// ValidateFlag validates a complete flag definition before it is written.
func ValidateFlag(params store.UpsertParams) *ValidationResult {
	result := NewValidationResult()
	result.Merge(validateIdentifier("projectId", "Project ID", params.ProjectID))
	result.Merge(ValidateKey(params.Key))
	result.Merge(ValidateDescription(params.Description))
	result.Merge(ValidateRules(params.Rules))
	result.Merge(ValidateVariants(params.Variants))
	return result
}
