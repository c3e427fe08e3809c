package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sells-group/seer-cli/internal/charts"
	"github.com/sells-group/seer-cli/internal/dataset"
	"github.com/sells-group/seer-cli/internal/fetcher"
	"github.com/sells-group/seer-cli/internal/ingest"
	"github.com/sells-group/seer-cli/internal/seer"
	"github.com/sells-group/seer-cli/internal/store"
)

// env bundles the components shared by the ingest and serve commands.
type env struct {
	Store        store.Store
	Registry     *dataset.Registry
	Orchestrator *ingest.Orchestrator
	Charts       *charts.Service
}

// Close releases the store.
func (e *env) Close() {
	_ = e.Store.Close()
}

// initEnv opens the store and wires the parse, ingest and chart components.
// reg receives the ingestion metrics; nil skips them.
func initEnv(ctx context.Context, reg prometheus.Registerer) (*env, error) {
	rules, err := cfg.Ingest.Rules()
	if err != nil {
		return nil, err
	}
	parser, err := seer.NewParser(rules)
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}

	var metrics *ingest.Metrics
	if reg != nil {
		metrics = ingest.NewMetrics(reg)
	}

	registry := dataset.NewRegistry()
	gate := ingest.NewGate(st, registry, cfg.Validation.Benchmarks)

	return &env{
		Store:        st,
		Registry:     registry,
		Orchestrator: ingest.NewOrchestrator(st, newSource(), registry, parser, gate, metrics),
		Charts:       charts.NewService(st, registry, cfg.AAPC),
	}, nil
}

// newSource picks the extract source: a base URL when configured, the
// source directory otherwise. A mortality URL overrides the mortality
// extract either way.
func newSource() dataset.Source {
	ic := cfg.Ingest
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  ic.UserAgent,
		Timeout:    time.Duration(ic.TimeoutSecs) * time.Second,
		MaxRetries: ic.MaxRetries,
		RateLimits: fetcher.DefaultRateLimits(),
	})

	overrides := map[string]string{}
	if ic.MortalityURL != "" {
		overrides[dataset.Mortality] = ic.MortalityURL
	}

	if ic.SourceURL != "" {
		return &dataset.HTTPSource{BaseURL: ic.SourceURL, Overrides: overrides, Fetcher: f, Charset: ic.Charset}
	}

	dir := &dataset.DirSource{Dir: ic.SourceDir, Charset: ic.Charset}
	if ic.MortalityURL == "" {
		return dir
	}
	return &dataset.OverlaySource{
		Names:    map[string]bool{dataset.Mortality: true},
		Primary:  &dataset.HTTPSource{Overrides: overrides, Fetcher: f},
		Fallback: dir,
	}
}
