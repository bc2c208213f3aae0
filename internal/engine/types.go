package engine

import "github.com/TimurManjosov/flagship-eval/internal/store"

// UserIDField is the context field used as the bucketing seed.
const UserIDField = "userId"

// Context maps field names to loosely typed scalar values (string, number, bool)
// as they arrive in JSON. A nil Context behaves like an empty one.
type Context map[string]any

// Result is the outcome of evaluating one flag.
type Result struct {
	Enabled bool   `json:"enabled"`
	Variant string `json:"variant,omitempty"`

	// MatchedRule is the first rule whose clause matched the context, if any.
	// It does not influence Variant.
	MatchedRule *store.Rule `json:"-"`
	// Bucket is the computed bucket, or -1 when the flag was not found.
	Bucket int `json:"-"`
}

// HasVariant reports whether a variant was assigned.
func (r Result) HasVariant() bool {
	return r.Variant != ""
}
