package rollout

import (
	"errors"
	"strconv"
	"testing"
)

func TestPickVariant_Boundaries(t *testing.T) {
	variants := []Variant{{Key: "A", Weight: 3000}, {Key: "B", Weight: 7000}}

	tests := []struct {
		bucket int
		want   string
	}{
		{bucket: 0, want: "A"},
		{bucket: 2999, want: "A"},
		{bucket: 3000, want: "B"},
		{bucket: 9999, want: "B"},
	}
	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.bucket), func(t *testing.T) {
			got, ok := PickVariant(variants, tt.bucket)
			if !ok || got != tt.want {
				t.Errorf("PickVariant(bucket=%d) = %q, %v; want %q", tt.bucket, got, ok, tt.want)
			}
		})
	}
}

func TestPickVariant_Monotonic(t *testing.T) {
	variants := []Variant{{Key: "A", Weight: 3000}, {Key: "B", Weight: 7000}}
	for b := 0; b < BucketSpace; b++ {
		got, _ := PickVariant(variants, b)
		want := "B"
		if b < 3000 {
			want = "A"
		}
		if got != want {
			t.Fatalf("bucket %d: got %s, want %s", b, got, want)
		}
	}
}

func TestPickVariant_UnderweightedFallsBackToLast(t *testing.T) {
	got, ok := PickVariant([]Variant{{Key: "A", Weight: 100}}, 9999)
	if !ok || got != "A" {
		t.Fatalf("expected last-element fallback A, got %q ok=%v", got, ok)
	}

	got, _ = PickVariant([]Variant{{Key: "A", Weight: 100}, {Key: "B", Weight: 100}}, 5000)
	if got != "B" {
		t.Fatalf("expected fallback to last variant B, got %q", got)
	}
}

func TestPickVariant_Empty(t *testing.T) {
	if got, ok := PickVariant(nil, 10); ok || got != "" {
		t.Fatalf("expected no variant, got %q ok=%v", got, ok)
	}
}

func TestPickVariant_ZeroWeightSkipped(t *testing.T) {
	variants := []Variant{{Key: "off", Weight: 0}, {Key: "on", Weight: 10000}}
	if got, _ := PickVariant(variants, 0); got != "on" {
		t.Fatalf("zero-weight variant should never win, got %q", got)
	}
}

func TestPickVariant_NonBasisPointSum(t *testing.T) {
	// Weights summing past the bucket space are tolerated: the walk still
	// stops at the first cumulative weight above the bucket.
	variants := []Variant{{Key: "A", Weight: 50}, {Key: "B", Weight: 20000}}
	if got, _ := PickVariant(variants, 49); got != "A" {
		t.Fatalf("got %q, want A", got)
	}
	if got, _ := PickVariant(variants, 50); got != "B" {
		t.Fatalf("got %q, want B", got)
	}
}

func TestTotalWeight(t *testing.T) {
	if got := TotalWeight([]Variant{{Weight: 3000}, {Weight: 7000}}); got != 10000 {
		t.Fatalf("TotalWeight = %d", got)
	}
}

func TestValidateVariants(t *testing.T) {
	tests := []struct {
		name     string
		variants []Variant
		wantErr  bool
	}{
		{name: "empty", variants: nil},
		{name: "basis points", variants: []Variant{{Key: "A", Weight: 3000}, {Key: "B", Weight: 7000}}},
		{name: "under-weighted is allowed", variants: []Variant{{Key: "A", Weight: 100}}},
		{name: "empty key", variants: []Variant{{Key: "", Weight: 1}}, wantErr: true},
		{name: "duplicate key", variants: []Variant{{Key: "A", Weight: 1}, {Key: "A", Weight: 1}}, wantErr: true},
		{name: "negative weight", variants: []Variant{{Key: "A", Weight: -1}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVariants(tt.variants)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateVariants() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	err := ValidateVariants([]Variant{{Key: "A", Weight: -5}})
	if !errors.Is(err, ErrInvalidVariantWeights) {
		t.Fatalf("expected ErrInvalidVariantWeights, got %v", err)
	}
}
