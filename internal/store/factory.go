package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	mydb "github.com/TimurManjosov/flagship-eval/internal/db"
)

type factoryOptions struct {
	migrate bool
	log     zerolog.Logger
}

// FactoryOption configures NewStore.
type FactoryOption func(*factoryOptions)

// WithMigrations applies the embedded schema migrations before returning a
// postgres store. It has no effect on the memory store.
func WithMigrations(log zerolog.Logger) FactoryOption {
	return func(o *factoryOptions) {
		o.migrate = true
		o.log = log
	}
}

// NewStore creates a new store based on the given store type.
// Supported types: "memory", "postgres"
func NewStore(ctx context.Context, storeType, dbDSN string, opts ...FactoryOption) (Store, error) {
	o := factoryOptions{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	switch storeType {
	case "memory":
		return NewMemoryStore(), nil
	case "postgres":
		pool, err := mydb.NewPool(ctx, dbDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		if o.migrate {
			if err := mydb.Migrate(ctx, pool, o.log); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return NewPostgresStore(pool), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeType)
	}
}
