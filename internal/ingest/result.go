// Package ingest runs the parse, upsert and validate sequence over every
// registry dataset.
package ingest

import (
	"net/http"
)

// Status tags the outcome of an ingestion run.
type Status string

const (
	// StatusCommitted means every dataset was written and every benchmark passed.
	StatusCommitted Status = "committed"
	// StatusCommittedWithWarnings means every dataset was written but
	// validation produced findings. The data stays committed.
	StatusCommittedWithWarnings Status = "committed_with_warnings"
	// StatusFailed means at least one dataset step failed. Datasets that
	// succeeded stay committed.
	StatusFailed Status = "failed"
)

// Result is the outcome of one ingestion run. Counts are reported whatever
// the status.
type Result struct {
	RunID    string            `json:"runId"`
	Status   Status            `json:"status"`
	Counts   map[string]int64  `json:"counts"`
	Findings []Finding         `json:"validationErrors,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
}

// Committed reports whether no dataset step failed.
func (r *Result) Committed() bool {
	return r.Status != StatusFailed
}

// HTTPStatus maps the result onto a response code: 200 committed, 207
// committed with warnings, 500 failed.
func (r *Result) HTTPStatus() int {
	switch r.Status {
	case StatusCommitted:
		return http.StatusOK
	case StatusCommittedWithWarnings:
		return http.StatusMultiStatus
	default:
		return http.StatusInternalServerError
	}
}

func (r *Result) settle() {
	switch {
	case len(r.Errors) > 0:
		r.Status = StatusFailed
	case len(r.Findings) > 0:
		r.Status = StatusCommittedWithWarnings
	default:
		r.Status = StatusCommitted
	}
}
