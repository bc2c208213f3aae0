package engine

import (
	"github.com/TimurManjosov/flagship-eval/internal/rollout"
	"github.com/TimurManjosov/flagship-eval/internal/store"
)

// Evaluator runs the evaluation pipeline: rule match, bucket, weighted pick.
// It holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	hasher rollout.Hasher
}

// NewEvaluator creates an evaluator using hasher for bucketing.
// A nil hasher means rollout.SHA1Hex.
func NewEvaluator(hasher rollout.Hasher) *Evaluator {
	if hasher == nil {
		hasher = rollout.SHA1Hex
	}
	return &Evaluator{hasher: hasher}
}

// Evaluate computes the result for flag and ctx with the default hasher.
func Evaluate(flag *store.Flag, ctx Context) Result {
	return NewEvaluator(nil).Evaluate(flag, ctx)
}

// Evaluate computes deterministic evaluation for a flag and context.
//
// A nil flag (not found) yields {Enabled: false}. Otherwise the flag is
// enabled; the first matching rule is recorded on MatchedRule and the variant
// is picked by weight from the bucket of "flagKey:userId". A flag without
// variants is enabled with no variant.
func (e *Evaluator) Evaluate(flag *store.Flag, ctx Context) Result {
	if flag == nil {
		return Result{Enabled: false, Bucket: -1}
	}

	result := Result{Enabled: true}
	if rule, ok := MatchRule(flag.Rules, ctx); ok {
		result.MatchedRule = &rule
	}

	result.Bucket = e.Bucket(flag.Key, ctx)
	if variant, ok := rollout.PickVariant(toRolloutVariants(flag.Variants), result.Bucket); ok {
		result.Variant = variant
	}
	return result
}

// Bucket returns the bucket of ctx's user for flagKey.
func (e *Evaluator) Bucket(flagKey string, ctx Context) int {
	seed := rollout.Seed(flagKey, ctx.UserID(rollout.AnonymousUser))
	return rollout.Bucket(seed, e.hasher)
}

// MatchRule returns the first rule, in the given order, whose clause matches
// ctx. Rules are expected to be sorted by ascending priority.
func MatchRule(rules []store.Rule, ctx Context) (store.Rule, bool) {
	for _, rule := range rules {
		if ClauseMatches(rule.Clause, ctx) {
			return rule, true
		}
	}
	return store.Rule{}, false
}

func toRolloutVariants(variants []store.Variant) []rollout.Variant {
	out := make([]rollout.Variant, len(variants))
	for i, v := range variants {
		out[i] = rollout.Variant{Key: v.Key, Weight: v.Weight}
	}
	return out
}
