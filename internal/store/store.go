// Package store provides the keyed table store the ingestion pipeline writes
// to and the chart endpoints read from.
package store

import (
	"context"
	"time"
)

// Table describes a stored dataset table and its natural key.
type Table struct {
	Name         string
	Columns      []string
	ConflictKeys []string
}

// HasColumn reports whether col is one of the table's columns.
func (t Table) HasColumn(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Filter restricts a Select to rows whose columns equal the given values.
// OrderBy lists columns to sort ascending by; empty means the natural key.
type Filter struct {
	Where   map[string]any
	OrderBy []string
}

// Record is one stored row keyed by column name. Values are driver-native
// (int64/int32/float64/string or nil); read them with Float, Int and String.
type Record map[string]any

// Reader is the read side of the store.
type Reader interface {
	Select(ctx context.Context, t Table, f Filter) ([]Record, error)
	Count(ctx context.Context, t Table) (int64, error)
}

// LogStatus is the state of one dataset step in the ingest log.
type LogStatus string

const (
	LogRunning  LogStatus = "running"
	LogComplete LogStatus = "complete"
	LogFailed   LogStatus = "failed"
)

// LogEntry represents a row in ingest_log.
type LogEntry struct {
	ID          int64      `json:"id"`
	RunID       string     `json:"run_id"`
	Dataset     string     `json:"dataset"`
	Status      LogStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Rows        int64      `json:"rows"`
	Error       string     `json:"error,omitempty"`
}

// Store defines the persistence interface for ingested datasets.
type Store interface {
	Reader

	// Upsert inserts rows, overwriting rows that share the table's natural key.
	// Each row holds values in t.Columns order.
	Upsert(ctx context.Context, t Table, rows [][]any) (int64, error)

	// Ingest log
	LogStart(ctx context.Context, runID, dataset string) (int64, error)
	LogComplete(ctx context.Context, id int64, rows int64) error
	LogFail(ctx context.Context, id int64, errMsg string) error
	ListLog(ctx context.Context, limit int) ([]LogEntry, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
