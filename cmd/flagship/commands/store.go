package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/TimurManjosov/flagship-eval/internal/config"
	"github.com/TimurManjosov/flagship-eval/internal/logging"
	"github.com/TimurManjosov/flagship-eval/internal/store"
)

// openStore connects to the durable store described by the server
// configuration (STORE_TYPE, DB_DSN, DB_MIGRATE).
func openStore(ctx context.Context, forceMigrate bool) (store.Store, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("config: %w", err)
	}
	if cfg.StoreType == "memory" {
		return nil, zerolog.Nop(), fmt.Errorf("STORE_TYPE=memory has no durable state; point DB_DSN at postgres")
	}

	level := "warn"
	if verbose {
		level = "info"
	}
	log, err := logging.New(level, logging.FormatConsole, os.Stderr)
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	var opts []store.FactoryOption
	if forceMigrate || cfg.DatabaseMigrate {
		opts = append(opts, store.WithMigrations(log))
	}
	st, err := store.NewStore(ctx, cfg.StoreType, cfg.DatabaseDSN, opts...)
	if err != nil {
		return nil, log, err
	}
	if err := st.Ping(ctx); err != nil {
		_ = st.Close()
		return nil, log, fmt.Errorf("store unreachable: %w", err)
	}
	return st, log, nil
}

func requireProject() (string, error) {
	p := resolveProject()
	if p == "" {
		return "", fmt.Errorf("project is required (pass --project, set FLAGSHIP_PROJECT, or configure project_id)")
	}
	return p, nil
}
