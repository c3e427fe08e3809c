package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/seer-cli/internal/dataset"
	"github.com/sells-group/seer-cli/internal/seer"
	"github.com/sells-group/seer-cli/internal/store"
)

// Orchestrator runs every selected dataset through open, parse and upsert,
// then runs the validation gate over what was committed.
type Orchestrator struct {
	store   store.Store
	source  dataset.Source
	reg     *dataset.Registry
	parser  *seer.Parser
	gate    *Gate
	metrics *Metrics
}

// RunOpts configures which datasets to ingest.
type RunOpts struct {
	Datasets []string // restrict to specific dataset names; empty means all
}

// NewOrchestrator creates a new orchestrator. A nil gate uses the default
// benchmarks; metrics may be nil.
func NewOrchestrator(s store.Store, src dataset.Source, reg *dataset.Registry, p *seer.Parser, gate *Gate, m *Metrics) *Orchestrator {
	if gate == nil {
		gate = NewGate(s, reg, nil)
	}
	return &Orchestrator{
		store:   s,
		source:  src,
		reg:     reg,
		parser:  p,
		gate:    gate,
		metrics: m,
	}
}

// Run ingests the selected datasets in registry order. A dataset failure is
// recorded in the result and its siblings still run; nothing is rolled back.
// The returned error is non-nil only when the run could not proceed
// (unknown dataset names, cancellation); the partial result is returned
// alongside a cancellation error.
func (o *Orchestrator) Run(ctx context.Context, opts RunOpts) (*Result, error) {
	log := zap.L().With(zap.String("component", "ingest.orchestrator"))

	datasets, err := o.reg.Select(opts.Datasets)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:  uuid.NewString(),
		Counts: make(map[string]int64, len(datasets)),
	}
	log = log.With(zap.String("run_id", res.RunID))
	log.Info("starting ingest", zap.Int("datasets", len(datasets)))

	for _, ds := range datasets {
		select {
		case <-ctx.Done():
			res.fail(ds.Name(), ctx.Err())
			res.settle()
			o.metrics.ObserveRun(res)
			return res, eris.Wrap(ctx.Err(), "ingest: run cancelled")
		default:
		}

		dsLog := log.With(zap.String("dataset", ds.Name()))

		logID, err := o.store.LogStart(ctx, res.RunID, ds.Name())
		if err != nil {
			dsLog.Error("failed to record ingest start", zap.Error(err))
		}

		start := time.Now()
		n, err := o.ingest(ctx, ds)
		elapsed := time.Since(start)
		o.metrics.ObserveDataset(ds.Name(), n, elapsed, err)
		res.Counts[ds.Name()] = n

		if err != nil {
			dsLog.Error("ingest failed", zap.Error(err), zap.Duration("elapsed", elapsed))
			res.fail(ds.Name(), err)
			if logID > 0 {
				if logErr := o.store.LogFail(ctx, logID, err.Error()); logErr != nil {
					dsLog.Error("failed to record ingest failure", zap.Error(logErr))
				}
			}
			continue
		}

		if logID > 0 {
			if err := o.store.LogComplete(ctx, logID, n); err != nil {
				dsLog.Error("failed to record ingest completion", zap.Error(err))
			}
		}
		dsLog.Info("ingest complete", zap.Int64("rows", n), zap.Duration("elapsed", elapsed))
	}

	res.Findings = o.gate.Check(ctx)
	res.settle()
	o.metrics.ObserveRun(res)

	log.Info("ingest run complete",
		zap.String("status", string(res.Status)),
		zap.Int("failed", len(res.Errors)),
		zap.Int("findings", len(res.Findings)),
	)
	return res, nil
}

func (o *Orchestrator) ingest(ctx context.Context, ds dataset.Dataset) (int64, error) {
	rc, err := o.source.Open(ctx, ds)
	if err != nil {
		return 0, err
	}
	defer rc.Close() //nolint:errcheck

	rows, err := ds.Parse(ctx, o.parser, rc)
	if err != nil {
		return 0, eris.Wrapf(err, "ingest: parse %s", ds.Name())
	}
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := o.store.Upsert(ctx, ds.Table(), rows)
	if err != nil {
		return 0, eris.Wrapf(err, "ingest: upsert %s", ds.Name())
	}
	return n, nil
}

func (r *Result) fail(name string, err error) {
	if r.Errors == nil {
		r.Errors = make(map[string]string)
	}
	r.Errors[name] = err.Error()
}
