package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/rs/zerolog"

	mydb "github.com/TimurManjosov/flagship-eval/internal/db"
)

// newPostgresTestStore connects to TEST_DATABASE_DSN; the test is skipped when unset.
func newPostgresTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	ctx := context.Background()
	pool, err := mydb.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	if err := mydb.Migrate(ctx, pool, zerolog.Nop()); err != nil {
		pool.Close()
		t.Fatalf("Migrate: %v", err)
	}
	st := NewPostgresStore(pool)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	st := newPostgresTestStore(t)
	ctx := context.Background()
	projectID := "it-" + t.Name()
	t.Cleanup(func() { _ = st.DeleteFlag(ctx, projectID, "checkout") })

	err := st.UpsertFlag(ctx, UpsertParams{
		ProjectID: projectID,
		Key:       "checkout",
		Rules: []Rule{
			{Priority: 20, Clause: "plan==pro"},
			{Priority: 10, Clause: "country==US"},
		},
		Variants: []Variant{{Key: "B", Weight: 7000}, {Key: "A", Weight: 3000}},
	})
	if err != nil {
		t.Fatalf("UpsertFlag: %v", err)
	}

	flag, err := st.FindFlag(ctx, projectID, "checkout")
	if err != nil {
		t.Fatalf("FindFlag: %v", err)
	}
	if flag.ID == "" {
		t.Error("expected flag ID")
	}
	if len(flag.Rules) != 2 || flag.Rules[0].Priority != 10 {
		t.Errorf("expected rules ordered by priority, got %+v", flag.Rules)
	}
	if len(flag.Variants) != 2 || flag.Variants[0].Key != "B" {
		t.Errorf("expected variants in stored order, got %+v", flag.Variants)
	}

	// Replacing variants keeps the flag row.
	if err := st.UpsertFlag(ctx, UpsertParams{ProjectID: projectID, Key: "checkout"}); err != nil {
		t.Fatalf("UpsertFlag (replace): %v", err)
	}
	again, err := st.FindFlag(ctx, projectID, "checkout")
	if err != nil {
		t.Fatalf("FindFlag after replace: %v", err)
	}
	if again.ID != flag.ID {
		t.Errorf("expected ID %s to survive upsert, got %s", flag.ID, again.ID)
	}
	if len(again.Rules) != 0 || len(again.Variants) != 0 {
		t.Errorf("expected rules and variants to be cleared, got %+v / %+v", again.Rules, again.Variants)
	}
}

func TestPostgresStore_NotFound(t *testing.T) {
	st := newPostgresTestStore(t)

	_, err := st.FindFlag(context.Background(), "it-missing", "nope")
	if !errors.Is(err, ErrFlagNotFound) {
		t.Fatalf("expected ErrFlagNotFound, got %v", err)
	}
}
