package rollout

import (
	"errors"
	"fmt"
)

// ErrInvalidVariantWeights is returned when a variant weight is negative.
var ErrInvalidVariantWeights = errors.New("variant weights must be non-negative")

// Variant is the minimal shape the picker needs: a key and a weight.
type Variant struct {
	Key    string
	Weight int
}

// PickVariant walks variants in order, accumulating weights, and returns the
// first variant whose cumulative weight exceeds bucket.
//
// Example: variants = [A:3000, B:7000]
//   - bucket 0-2999    → A
//   - bucket 3000-9999 → B
//
// When the weights never exceed bucket (they sum to less than the bucket
// space) the last variant is returned. ok is false only for an empty list.
func PickVariant(variants []Variant, bucket int) (key string, ok bool) {
	if len(variants) == 0 {
		return "", false
	}

	cumulative := 0
	for _, v := range variants {
		cumulative += v.Weight
		if bucket < cumulative {
			return v.Key, true
		}
	}
	return variants[len(variants)-1].Key, true
}

// TotalWeight sums variant weights.
func TotalWeight(variants []Variant) int {
	total := 0
	for _, v := range variants {
		total += v.Weight
	}
	return total
}

// ValidateVariants checks that every key is non-empty and unique and that
// no weight is negative. The sum is not required to equal BucketSpace.
// Returns nil for an empty slice.
func ValidateVariants(variants []Variant) error {
	seen := make(map[string]bool, len(variants))
	for _, v := range variants {
		if v.Key == "" {
			return errors.New("variant key cannot be empty")
		}
		if seen[v.Key] {
			return errors.New("duplicate variant key: " + v.Key)
		}
		seen[v.Key] = true
		if v.Weight < 0 {
			return fmt.Errorf("%w: %s has weight %d", ErrInvalidVariantWeights, v.Key, v.Weight)
		}
	}
	return nil
}
