package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const findFlagSQL = `
SELECT f.id, f.project_id, f.key, f.description, f.updated_at,
       COALESCE((SELECT json_agg(json_build_object('priority', r.priority, 'clause', r.clause)
                                 ORDER BY r.priority, r.id)
                 FROM flag_rules r WHERE r.flag_id = f.id), '[]'::json) AS rules,
       COALESCE((SELECT json_agg(json_build_object('key', v.key, 'weight', v.weight)
                                 ORDER BY v.position)
                 FROM flag_variants v WHERE v.flag_id = f.id), '[]'::json) AS variants
FROM flags f
WHERE f.project_id = $1 AND f.key = $2`

const listFlagsSQL = `
SELECT f.id, f.project_id, f.key, f.description, f.updated_at,
       COALESCE((SELECT json_agg(json_build_object('priority', r.priority, 'clause', r.clause)
                                 ORDER BY r.priority, r.id)
                 FROM flag_rules r WHERE r.flag_id = f.id), '[]'::json) AS rules,
       COALESCE((SELECT json_agg(json_build_object('key', v.key, 'weight', v.weight)
                                 ORDER BY v.position)
                 FROM flag_variants v WHERE v.flag_id = f.id), '[]'::json) AS variants
FROM flags f
WHERE f.project_id = $1
ORDER BY f.key`

const upsertFlagSQL = `
INSERT INTO flags (id, project_id, key, description, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (project_id, key)
DO UPDATE SET description = EXCLUDED.description, updated_at = now()
RETURNING id`

// PostgresStore is a PostgreSQL implementation of the Store interface.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// FindFlag retrieves a single flag with rules and variants in one round trip.
func (p *PostgresStore) FindFlag(ctx context.Context, projectID, flagKey string) (*Flag, error) {
	row := p.pool.QueryRow(ctx, findFlagSQL, projectID, flagKey)
	flag, err := scanFlag(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFlagNotFound
		}
		return nil, err
	}
	return &flag, nil
}

// ListFlags retrieves all flags of a project.
func (p *PostgresStore) ListFlags(ctx context.Context, projectID string) ([]Flag, error) {
	rows, err := p.pool.Query(ctx, listFlagsSQL, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flags := make([]Flag, 0)
	for rows.Next() {
		flag, err := scanFlag(rows)
		if err != nil {
			return nil, err
		}
		flags = append(flags, flag)
	}
	return flags, rows.Err()
}

// UpsertFlag creates or updates a flag and replaces its rules and variants
// inside a single transaction.
func (p *PostgresStore) UpsertFlag(ctx context.Context, params UpsertParams) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var flagID pgtype.UUID
	newID := pgtype.UUID{Bytes: uuid.New(), Valid: true}
	if err := tx.QueryRow(ctx, upsertFlagSQL, newID, params.ProjectID, params.Key, params.Description).Scan(&flagID); err != nil {
		return fmt.Errorf("upsert flag: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM flag_rules WHERE flag_id = $1`, flagID); err != nil {
		return fmt.Errorf("clear rules: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM flag_variants WHERE flag_id = $1`, flagID); err != nil {
		return fmt.Errorf("clear variants: %w", err)
	}

	batch := &pgx.Batch{}
	for _, r := range params.Rules {
		batch.Queue(`INSERT INTO flag_rules (flag_id, priority, clause) VALUES ($1, $2, $3)`, flagID, r.Priority, r.Clause)
	}
	for i, v := range params.Variants {
		batch.Queue(`INSERT INTO flag_variants (flag_id, position, key, weight) VALUES ($1, $2, $3, $4)`, flagID, i, v.Key, v.Weight)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("write rules and variants: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// DeleteFlag removes a flag; rules and variants cascade.
func (p *PostgresStore) DeleteFlag(ctx context.Context, projectID, flagKey string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM flags WHERE project_id = $1 AND key = $2`, projectID, flagKey)
	return err
}

// Ping checks database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

func scanFlag(row pgx.Row) (Flag, error) {
	var (
		id          pgtype.UUID
		flag        Flag
		description pgtype.Text
		updatedAt   pgtype.Timestamptz
		rawRules    []byte
		rawVariants []byte
	)
	if err := row.Scan(&id, &flag.ProjectID, &flag.Key, &description, &updatedAt, &rawRules, &rawVariants); err != nil {
		return Flag{}, err
	}

	rules, err := unmarshalRules(rawRules)
	if err != nil {
		return Flag{}, fmt.Errorf("decode rules: %w", err)
	}
	variants, err := unmarshalVariants(rawVariants)
	if err != nil {
		return Flag{}, fmt.Errorf("decode variants: %w", err)
	}

	if id.Valid {
		flag.ID = uuid.UUID(id.Bytes).String()
	}
	if description.Valid {
		flag.Description = description.String
	}
	flag.UpdatedAt = timestampOrZero(updatedAt)
	flag.Rules = rules
	flag.Variants = variants
	return flag, nil
}

func timestampOrZero(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}
	return ts.Time.UTC()
}
