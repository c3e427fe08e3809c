package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/seer-cli/internal/api"
	"github.com/sells-group/seer-cli/internal/config"
	"github.com/sells-group/seer-cli/internal/dataset"
	"github.com/sells-group/seer-cli/internal/ingest"
	"github.com/sells-group/seer-cli/internal/stats"
	"github.com/sells-group/seer-cli/internal/store"
)

// testConfig points the store and sources at a temp dir.
func testConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg = &config.Config{
		Store:  config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(dir, "seer.db")},
		Server: config.ServerConfig{Port: 8080, AllowedOrigins: []string{"https://example.org"}},
		Ingest: config.IngestConfig{SourceDir: dir},
		AAPC:   stats.DefaultAAPCConfig(),
	}
	return dir
}

func TestInitEnv_IngestAndServe(t *testing.T) {
	dir := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "survival_by_stage.txt"),
		[]byte("Localized only,60 mo,0.92\nIn situ,60 mo,0.99\n"), 0o600))

	reg := prometheus.NewRegistry()
	e, err := initEnv(context.Background(), reg)
	require.NoError(t, err)
	defer e.Close()

	res, err := e.Orchestrator.Run(context.Background(), ingest.RunOpts{Datasets: []string{dataset.SurvivalByStage}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Counts[dataset.SurvivalByStage])

	h := newRouter(api.New(e.Orchestrator, e.Charts, e.Store), reg, cfg.Server.AllowedOrigins)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/charts/survival-curve-by-stage", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"stageI":92`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "seer_ingest_rows_upserted_total")
}

func TestNewRouter_CORS(t *testing.T) {
	testConfig(t)
	e, err := initEnv(context.Background(), nil)
	require.NoError(t, err)
	defer e.Close()

	h := newRouter(api.New(e.Orchestrator, e.Charts, e.Store), prometheus.NewRegistry(), cfg.Server.AllowedOrigins)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://example.org")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://example.org", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewSource(t *testing.T) {
	testConfig(t)
	_, ok := newSource().(*dataset.DirSource)
	assert.True(t, ok)

	cfg.Ingest.MortalityURL = "https://wonder.example.org/mortality.json"
	overlay, ok := newSource().(*dataset.OverlaySource)
	require.True(t, ok)
	assert.True(t, overlay.Names[dataset.Mortality])

	cfg.Ingest.SourceURL = "https://exports.example.org/"
	src, ok := newSource().(*dataset.HTTPSource)
	require.True(t, ok)
	assert.Equal(t, "https://wonder.example.org/mortality.json", src.Overrides[dataset.Mortality])
}

func TestInitEnv_BadRulesFile(t *testing.T) {
	testConfig(t)
	cfg.Ingest.RulesFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := initEnv(context.Background(), nil)
	require.Error(t, err)
}

func TestFormatResult(t *testing.T) {
	obs := 12.0
	var buf bytes.Buffer
	formatResult(&buf, &ingest.Result{
		RunID:  "run-1",
		Status: ingest.StatusFailed,
		Counts: map[string]int64{"survival_by_stage": 4, "cause_of_death": 0},
		Errors: map[string]string{"cause_of_death": "source: open data/cause_of_death.txt: no such file or directory"},
		Findings: []ingest.Finding{
			{Dataset: "survival_by_stage", Benchmark: "distant_stage_5yr", Observed: &obs, Message: "Distant at 60 months is 12.0%"},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "run run-1: failed")
	lines := strings.Split(out, "\n")
	// Datasets are listed alphabetically.
	assert.True(t, strings.HasPrefix(lines[4], "cause_of_death"))
	assert.Contains(t, lines[4], "...")
	assert.True(t, strings.HasPrefix(lines[5], "survival_by_stage"))
	assert.Contains(t, out, "distant_stage_5yr (survival_by_stage)")
}

func TestFormatLogEntries(t *testing.T) {
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	done := started.Add(90 * time.Second)

	var buf bytes.Buffer
	formatLogEntries(&buf, []store.LogEntry{
		{ID: 2, RunID: "2f1c9a7e-1111", Dataset: "cause_of_death", Status: store.LogFailed, StartedAt: started, CompletedAt: &done, Error: "boom"},
		{ID: 1, RunID: "2f1c9a7e-1111", Dataset: "survival_by_stage", Status: store.LogRunning, StartedAt: started},
	})

	out := buf.String()
	assert.Contains(t, out, "2f1c9...")
	assert.Contains(t, out, "1m30s")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "running")
}

func TestFormatCounts(t *testing.T) {
	testConfig(t)
	st, err := initStore(context.Background())
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	var buf bytes.Buffer
	require.NoError(t, formatCounts(context.Background(), &buf, st, dataset.NewRegistry()))
	assert.Contains(t, buf.String(), "mortality")
	assert.Contains(t, buf.String(), "survival_by_subtype")
}
