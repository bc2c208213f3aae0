package store

import (
	"context"
	"errors"
	"time"
)

// ErrFlagNotFound is returned by FindFlag when no flag exists for the project and key.
var ErrFlagNotFound = errors.New("flag not found")

// Store defines the interface for durable flag persistence.
// Implementations must be thread-safe and support concurrent access.
type Store interface {
	// FindFlag retrieves a flag with its rules (ascending priority) and variants
	// (stored order). Returns ErrFlagNotFound if the flag does not exist.
	FindFlag(ctx context.Context, projectID, flagKey string) (*Flag, error)

	// ListFlags retrieves all flags of a project, sorted by key.
	// Returns an empty slice if the project has no flags.
	ListFlags(ctx context.Context, projectID string) ([]Flag, error)

	// UpsertFlag creates or updates a flag.
	// Rules and variants of an existing flag are replaced.
	UpsertFlag(ctx context.Context, params UpsertParams) error

	// DeleteFlag removes a flag by project and key.
	// Returns no error if the flag doesn't exist (idempotent).
	DeleteFlag(ctx context.Context, projectID, flagKey string) error

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	// After Close is called, the store should not be used.
	Close() error
}

// Variant is one weighted branch of a flag.
// The sum of weights of a flag defines its bucket space (10000 = basis points).
type Variant struct {
	Key    string `json:"key" yaml:"key"`
	Weight int    `json:"weight" yaml:"weight"`
}

// Rule is a targeting rule. Clause is a conjunction of equality tests,
// e.g. "country==US && plan==pro". Lower priority values are checked first.
type Rule struct {
	Priority int    `json:"priority" yaml:"priority"`
	Clause   string `json:"clause" yaml:"clause"`
}

// Flag represents a feature flag with its targeting rules and variants.
type Flag struct {
	ID          string    `json:"id" yaml:"id"`
	ProjectID   string    `json:"projectId" yaml:"projectId"`
	Key         string    `json:"key" yaml:"key"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Rules       []Rule    `json:"rules" yaml:"rules"`
	Variants    []Variant `json:"variants" yaml:"variants"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// UpsertParams contains the parameters for upserting a flag.
type UpsertParams struct {
	ProjectID   string    `json:"projectId" yaml:"projectId"`
	Key         string    `json:"key" yaml:"key"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Rules       []Rule    `json:"rules,omitempty" yaml:"rules,omitempty"`
	Variants    []Variant `json:"variants,omitempty" yaml:"variants,omitempty"`
}
