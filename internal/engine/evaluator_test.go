package engine

import (
	"encoding/json"
	"strconv"
	"sync"
	"testing"

	"github.com/TimurManjosov/flagship-eval/internal/rollout"
	"github.com/TimurManjosov/flagship-eval/internal/store"
)

func checkoutFlag() *store.Flag {
	return &store.Flag{
		ProjectID: "proj-1",
		Key:       "checkout",
		Rules: []store.Rule{
			{Priority: 1, Clause: "country==US && plan==pro"},
			{Priority: 2, Clause: "country==US"},
		},
		Variants: []store.Variant{
			{Key: "A", Weight: 3000},
			{Key: "B", Weight: 7000},
		},
	}
}

func TestEvaluate_NotFound(t *testing.T) {
	got := Evaluate(nil, Context{"userId": "user-1"})
	if got.Enabled || got.HasVariant() {
		t.Fatalf("expected disabled without variant, got %+v", got)
	}

	b, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"enabled":false}` {
		t.Fatalf("unexpected JSON %s", b)
	}
}

func TestEvaluate_ReferenceAssignments(t *testing.T) {
	// Buckets pinned in rollout: checkout:user-1=4844, checkout:user-42=2305, checkout:anon=7735.
	tests := []struct {
		name        string
		ctx         Context
		wantVariant string
		wantBucket  int
	}{
		{name: "user-1", ctx: Context{"userId": "user-1"}, wantVariant: "B", wantBucket: 4844},
		{name: "user-42", ctx: Context{"userId": "user-42"}, wantVariant: "A", wantBucket: 2305},
		{name: "anonymous", ctx: Context{}, wantVariant: "B", wantBucket: 7735},
		{name: "null userId is anonymous", ctx: Context{"userId": nil}, wantVariant: "B", wantBucket: 7735},
		{name: "nil context", ctx: nil, wantVariant: "B", wantBucket: 7735},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(checkoutFlag(), tt.ctx)
			if !got.Enabled {
				t.Fatal("expected enabled")
			}
			if got.Variant != tt.wantVariant || got.Bucket != tt.wantBucket {
				t.Fatalf("got variant=%s bucket=%d, want %s/%d", got.Variant, got.Bucket, tt.wantVariant, tt.wantBucket)
			}
		})
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	flag := checkoutFlag()
	ctx := Context{"userId": "user-77", "country": "DE"}
	first := Evaluate(flag, ctx)
	for i := 0; i < 100; i++ {
		if got := Evaluate(flag, ctx); got.Variant != first.Variant || got.Bucket != first.Bucket {
			t.Fatalf("iteration %d: got %+v, want %+v", i, got, first)
		}
	}
}

func TestEvaluate_AnonymousDeterminism(t *testing.T) {
	flag := checkoutFlag()
	a := Evaluate(flag, Context{"country": "US"})
	b := Evaluate(flag, Context{"plan": "free"})
	if a.Bucket != b.Bucket || a.Variant != b.Variant {
		t.Fatalf("anonymous requests diverged: %+v vs %+v", a, b)
	}
}

func TestEvaluate_NumericUserIDMatchesString(t *testing.T) {
	flag := checkoutFlag()
	tests := []struct {
		numeric any
		str     string
	}{
		{numeric: float64(42), str: "42"},
		{numeric: json.Number("42"), str: "42"},
		{numeric: float64(1e15), str: "1000000000000000"},
		{numeric: json.Number("1234567890123456"), str: "1234567890123456"},
		{numeric: float64(0.000001), str: "0.000001"},
		{numeric: float64(1e-7), str: "1e-7"},
		{numeric: float64(1e21), str: "1e+21"},
	}
	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			n := Evaluate(flag, Context{"userId": tt.numeric})
			s := Evaluate(flag, Context{"userId": tt.str})
			if n.Bucket != s.Bucket || n.Variant != s.Variant {
				t.Fatalf("numeric and string userId should share an assignment: %+v vs %+v", n, s)
			}
		})
	}
}

func TestEvaluate_SixteenDigitUserID(t *testing.T) {
	got := Evaluate(checkoutFlag(), Context{"userId": json.Number("1234567890123456")})
	if got.Bucket != 1056 || got.Variant != "A" {
		t.Fatalf("expected bucket 1056 variant A, got %+v", got)
	}
}

func TestEvaluate_EmptyVariants(t *testing.T) {
	flag := &store.Flag{Key: "kill-switch"}
	got := Evaluate(flag, Context{"userId": "user-1"})
	if !got.Enabled || got.HasVariant() {
		t.Fatalf("expected enabled with no variant, got %+v", got)
	}

	b, _ := json.Marshal(got)
	if string(b) != `{"enabled":true}` {
		t.Fatalf("unexpected JSON %s", b)
	}
}

func TestEvaluate_UnderweightedFallback(t *testing.T) {
	flag := &store.Flag{Key: "checkout", Variants: []store.Variant{{Key: "A", Weight: 100}}}
	// checkout:user-1 buckets to 4844, well above the single weight.
	if got := Evaluate(flag, Context{"userId": "user-1"}); got.Variant != "A" {
		t.Fatalf("expected fallback to A, got %+v", got)
	}
}

func TestEvaluate_MatchedRuleDoesNotChangeVariant(t *testing.T) {
	flag := checkoutFlag()

	matched := Evaluate(flag, Context{"userId": "user-1", "country": "US", "plan": "pro"})
	unmatched := Evaluate(flag, Context{"userId": "user-1", "country": "FR"})

	if matched.MatchedRule == nil || matched.MatchedRule.Priority != 1 {
		t.Fatalf("expected priority 1 rule to match, got %+v", matched.MatchedRule)
	}
	if unmatched.MatchedRule != nil {
		t.Fatalf("expected no rule to match, got %+v", unmatched.MatchedRule)
	}
	if matched.Variant != unmatched.Variant {
		t.Fatalf("rule match altered the variant: %s vs %s", matched.Variant, unmatched.Variant)
	}
}

func TestEvaluate_MalformedRuleIsSkipped(t *testing.T) {
	flag := checkoutFlag()
	flag.Rules = append([]store.Rule{{Priority: 0, Clause: "garbage"}}, flag.Rules...)

	got := Evaluate(flag, Context{"userId": "user-1", "country": "US"})
	if !got.Enabled {
		t.Fatal("malformed rule must not disable the flag")
	}
	if got.MatchedRule == nil || got.MatchedRule.Priority != 2 {
		t.Fatalf("expected fall-through to priority 2, got %+v", got.MatchedRule)
	}
}

func TestEvaluator_XXHash(t *testing.T) {
	ev := NewEvaluator(rollout.XXHashHex)
	flag := checkoutFlag()
	ctx := Context{"userId": "user-1"}

	got := ev.Evaluate(flag, ctx)
	want := rollout.Bucket("checkout:user-1", rollout.XXHashHex)
	if got.Bucket != want {
		t.Fatalf("bucket = %d, want %d", got.Bucket, want)
	}
}

func TestEvaluate_Distribution(t *testing.T) {
	flag := checkoutFlag()
	counts := map[string]int{}
	total := 20000
	for i := 0; i < total; i++ {
		counts[Evaluate(flag, Context{"userId": "user-" + strconv.Itoa(i)}).Variant]++
	}

	pctA := float64(counts["A"]) / float64(total) * 100
	if pctA < 27 || pctA > 36 {
		t.Fatalf("expected ~30%% in A, got %.2f%%", pctA)
	}
}

func TestEvaluate_ConcurrentSafe(t *testing.T) {
	flag := checkoutFlag()
	want := Evaluate(flag, Context{"userId": "user-1"}).Variant

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := Evaluate(flag, Context{"userId": "user-1"}).Variant; got != want {
				t.Errorf("got %s, want %s", got, want)
			}
		}()
	}
	wg.Wait()
}

func TestMatchRule_FirstWins(t *testing.T) {
	rules := []store.Rule{
		{Priority: 1, Clause: "plan==pro"},
		{Priority: 2, Clause: "plan==pro && country==US"},
	}
	rule, ok := MatchRule(rules, Context{"plan": "pro", "country": "US"})
	if !ok || rule.Priority != 1 {
		t.Fatalf("expected first rule, got %+v ok=%v", rule, ok)
	}

	if _, ok := MatchRule(nil, Context{}); ok {
		t.Fatal("expected no match for empty rules")
	}
}
