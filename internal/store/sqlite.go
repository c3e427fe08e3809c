package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/seer-cli/internal/db"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: conn}, nil
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Upsert(ctx context.Context, t Table, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(t.Columns) == 0 {
		return 0, eris.New("sqlite: upsert: no columns specified")
	}
	if len(t.ConflictKeys) == 0 {
		return 0, eris.New("sqlite: upsert: no conflict keys specified")
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)), ", ")
	action := "DO NOTHING"
	updateCols := db.UpdateColumns(db.UpsertConfig{Columns: t.Columns, ConflictKeys: t.ConflictKeys})
	if len(updateCols) > 0 {
		sets := make([]string, len(updateCols))
		for i, c := range updateCols {
			sets[i] = fmt.Sprintf("%s = excluded.%s", c, c)
		}
		action = "DO UPDATE SET " + strings.Join(sets, ", ")
	}
	upsertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) %s",
		t.Name,
		strings.Join(t.Columns, ", "),
		placeholders,
		strings.Join(t.ConflictKeys, ", "),
		action,
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: upsert: prepare for %s", t.Name)
	}
	defer stmt.Close() //nolint:errcheck

	var total int64
	for i, row := range rows {
		if len(row) != len(t.Columns) {
			return 0, eris.Errorf("sqlite: upsert: row %d has %d values, want %d", i, len(row), len(t.Columns))
		}
		res, err := stmt.ExecContext(ctx, row...)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert: row %d into %s", i, t.Name)
		}
		n, _ := res.RowsAffected()
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert: commit tx")
	}
	return total, nil
}

func (s *SQLiteStore) Select(ctx context.Context, t Table, f Filter) ([]Record, error) {
	query, args, err := buildSelect(t, f, sqlitePlaceholder)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: select %s", t.Name)
	}
	defer rows.Close() //nolint:errcheck

	cols, err := rows.Columns()
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: columns %s", t.Name)
	}

	var out []Record
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, eris.Wrapf(err, "sqlite: scan %s", t.Name)
		}
		rec := make(Record, len(cols))
		for i, c := range cols {
			rec[c] = vals[i]
		}
		out = append(out, rec)
	}
	return out, eris.Wrapf(rows.Err(), "sqlite: iterate %s", t.Name)
}

func (s *SQLiteStore) Count(ctx context.Context, t Table) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM "+t.Name).Scan(&n); err != nil {
		return 0, eris.Wrapf(err, "sqlite: count %s", t.Name)
	}
	return n, nil
}

func (s *SQLiteStore) LogStart(ctx context.Context, runID, dataset string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO ingest_log (run_id, dataset, status, started_at) VALUES (?, ?, ?, ?)`,
		runID, dataset, string(LogRunning), time.Now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: start ingest log for %s", dataset)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: ingest log id")
	}
	return id, nil
}

func (s *SQLiteStore) LogComplete(ctx context.Context, id int64, rows int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE ingest_log SET status = ?, completed_at = ?, rows = ? WHERE id = ?`,
		string(LogComplete), time.Now().UTC(), rows, id,
	)
	return eris.Wrapf(err, "sqlite: complete ingest log %d", id)
}

func (s *SQLiteStore) LogFail(ctx context.Context, id int64, errMsg string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE ingest_log SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(LogFailed), time.Now().UTC(), errMsg, id,
	)
	return eris.Wrapf(err, "sqlite: fail ingest log %d", id)
}

func (s *SQLiteStore) ListLog(ctx context.Context, limit int) ([]LogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, dataset, status, started_at, completed_at, rows, error
		 FROM ingest_log ORDER BY started_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list ingest log")
	}
	defer rows.Close() //nolint:errcheck

	var entries []LogEntry
	for rows.Next() {
		var e LogEntry
		var status string
		var completedAt sql.NullTime
		var errStr sql.NullString
		if err := rows.Scan(&e.ID, &e.RunID, &e.Dataset, &status, &e.StartedAt, &completedAt, &e.Rows, &errStr); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan ingest log entry")
		}
		e.Status = LogStatus(status)
		if completedAt.Valid {
			t := completedAt.Time
			e.CompletedAt = &t
		}
		e.Error = errStr.String
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: iterate ingest log")
}
