// Package api exposes ingestion, chart reads and dataset reads over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/seer-cli/internal/charts"
	"github.com/sells-group/seer-cli/internal/ingest"
	"github.com/sells-group/seer-cli/internal/stats"
	"github.com/sells-group/seer-cli/internal/store"
)

// Ingester runs one ingestion pass.
type Ingester interface {
	Run(ctx context.Context, opts ingest.RunOpts) (*ingest.Result, error)
}

// LogLister reads the ingest log.
type LogLister interface {
	ListLog(ctx context.Context, limit int) ([]store.LogEntry, error)
}

// Handler wires the HTTP endpoints to the ingest orchestrator and chart service.
type Handler struct {
	ingester Ingester
	charts   *charts.Service
	log      LogLister

	// held while an ingestion runs
	running sync.Mutex
}

// New constructs a handler.
func New(ing Ingester, svc *charts.Service, log LogLister) *Handler {
	return &Handler{ingester: ing, charts: svc, log: log}
}

// Register mounts the endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/ingest", h.HandleIngest)
		r.Get("/ingest/log", h.HandleIngestLog)
		r.Get("/charts", h.HandleOverview)
		r.Get("/charts/{key}", h.HandleChart)
		r.Get("/datasets/{dataset}", h.HandleDataset)
	})
}

// HandleHealth handles GET /health.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleIngest handles POST /api/ingest. The response code follows the
// result: 200 committed, 207 committed with warnings, 500 failed.
func (h *Handler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	log := zap.L().With(zap.String("component", "api"))

	if !h.running.TryLock() {
		writeError(w, http.StatusConflict, "ingestion already running")
		return
	}
	defer h.running.Unlock()

	start := time.Now()
	res, err := h.ingester.Run(r.Context(), ingest.RunOpts{})
	if err != nil && res == nil {
		log.Error("ingest failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Info("ingest finished",
		zap.String("run_id", res.RunID),
		zap.String("status", string(res.Status)),
		zap.Duration("elapsed", time.Since(start)),
	)
	writeJSON(w, res.HTTPStatus(), res)
}

// HandleIngestLog handles GET /api/ingest/log?limit=N.
func (h *Handler) HandleIngestLog(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.log.ListLog(r.Context(), limit)
	if err != nil {
		zap.L().Warn("list ingest log failed", zap.Error(err))
		writeJSON(w, http.StatusOK, map[string]any{"data": []store.LogEntry{}, "error": err.Error()})
		return
	}
	if entries == nil {
		entries = []store.LogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": entries})
}

// HandleOverview handles GET /api/charts.
func (h *Handler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	out, err := h.charts.Overview(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleChart handles GET /api/charts/{key}.
func (h *Handler) HandleChart(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !slices.Contains(charts.Keys, key) {
		writeError(w, http.StatusNotFound, "unknown chart "+strconv.Quote(key))
		return
	}

	var mq charts.MortalityQuery
	if key == charts.MortalityByDimension {
		q, err := mortalityQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		mq = q
	}

	res, err := h.charts.Chart(r.Context(), key, mq)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleDataset handles GET /api/datasets/{dataset}.
func (h *Handler) HandleDataset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "dataset")
	res, err := h.charts.Dataset(r.Context(), name)
	if errors.Is(err, charts.ErrUnknownDataset) {
		writeError(w, http.StatusNotFound, "unknown dataset "+strconv.Quote(name))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func mortalityQuery(r *http.Request) (charts.MortalityQuery, error) {
	q := r.URL.Query()
	var mq charts.MortalityQuery

	if s := q.Get("dimension"); s != "" {
		d, err := stats.ParseDimension(s)
		if err != nil {
			return mq, err
		}
		mq.Dimension = d
	}
	if s := q.Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil || y <= 0 {
			return mq, eris.New("year must be a positive integer")
		}
		mq.Filter.Year = y
	}
	mq.Filter.State = q.Get("state")
	mq.Filter.Race = q.Get("race")
	mq.Filter.Sex = q.Get("sex")
	mq.Filter.Cause = q.Get("cause")
	return mq, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
