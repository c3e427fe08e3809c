package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/seer-cli/internal/db"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. The caller keeps ownership of it.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Upsert(ctx context.Context, t Table, rows [][]any) (int64, error) {
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        t.Name,
		Columns:      t.Columns,
		ConflictKeys: t.ConflictKeys,
	}, rows)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: upsert %s", t.Name)
	}
	return n, nil
}

func (s *PostgresStore) Select(ctx context.Context, t Table, f Filter) ([]Record, error) {
	query, args, err := buildSelect(t, f, postgresPlaceholder)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: select %s", t.Name)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: scan %s", t.Name)
	}

	out := make([]Record, len(maps))
	for i, m := range maps {
		out[i] = Record(m)
	}
	return out, nil
}

func (s *PostgresStore) Count(ctx context.Context, t Table) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM "+t.Name).Scan(&n); err != nil {
		return 0, eris.Wrapf(err, "postgres: count %s", t.Name)
	}
	return n, nil
}

func (s *PostgresStore) LogStart(ctx context.Context, runID, dataset string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO ingest_log (run_id, dataset, status, started_at)
		 VALUES ($1, $2, 'running', now()) RETURNING id`,
		runID, dataset,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: start ingest log for %s", dataset)
	}
	return id, nil
}

func (s *PostgresStore) LogComplete(ctx context.Context, id int64, rows int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE ingest_log SET status = 'complete', completed_at = now(), rows = $1 WHERE id = $2`,
		rows, id,
	)
	return eris.Wrapf(err, "postgres: complete ingest log %d", id)
}

func (s *PostgresStore) LogFail(ctx context.Context, id int64, errMsg string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE ingest_log SET status = 'failed', completed_at = now(), error = $1 WHERE id = $2`,
		errMsg, id,
	)
	return eris.Wrapf(err, "postgres: fail ingest log %d", id)
}

func (s *PostgresStore) ListLog(ctx context.Context, limit int) ([]LogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, run_id, dataset, status, started_at, completed_at, rows, error
		 FROM ingest_log ORDER BY started_at DESC, id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list ingest log")
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var e LogEntry
		var status string
		var errStr *string
		if err := rows.Scan(&e.ID, &e.RunID, &e.Dataset, &status, &e.StartedAt, &e.CompletedAt, &e.Rows, &errStr); err != nil {
			return nil, eris.Wrap(err, "postgres: scan ingest log entry")
		}
		e.Status = LogStatus(status)
		if errStr != nil {
			e.Error = *errStr
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrap(err, "postgres: iterate ingest log")
	}
	return entries, nil
}
