package ingest

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/seer-cli/internal/dataset"
	"github.com/sells-group/seer-cli/internal/store"
)

// Benchmark is a known aggregate that must fall inside a clinical band.
// Label matches the dataset's dimension column exactly, or by prefix when
// Prefix is set. Min and Max are percentages.
type Benchmark struct {
	Name          string  `mapstructure:"name" json:"name"`
	Dataset       string  `mapstructure:"dataset" json:"dataset"`
	Label         string  `mapstructure:"label" json:"label"`
	Prefix        bool    `mapstructure:"prefix" json:"prefix"`
	IntervalMonth int     `mapstructure:"interval_month" json:"intervalMonth"`
	Min           float64 `mapstructure:"min" json:"min"`
	Max           float64 `mapstructure:"max" json:"max"`
}

// DefaultBenchmarks returns the five-year survival checks.
func DefaultBenchmarks() []Benchmark {
	return []Benchmark{
		{Name: "distant_stage_5yr", Dataset: dataset.SurvivalByStage, Label: "Distant", Prefix: true, IntervalMonth: 60, Min: 20, Max: 45},
		{Name: "triple_negative_5yr", Dataset: dataset.SurvivalBySubtype, Label: "HR-/HER2-", IntervalMonth: 60, Min: 65, Max: 90},
		{Name: "hr_pos_her2_pos_5yr", Dataset: dataset.SurvivalBySubtype, Label: "HR+/HER2+", IntervalMonth: 60, Min: 80, Max: 98},
	}
}

// Finding is an advisory validation result. Observed is nil when the
// benchmark row was missing or unreadable.
type Finding struct {
	Dataset   string   `json:"dataset"`
	Benchmark string   `json:"benchmark"`
	Observed  *float64 `json:"observed"`
	Min       float64  `json:"min"`
	Max       float64  `json:"max"`
	Message   string   `json:"message"`
}

// Gate reads committed benchmark rows back and reports those outside their
// band. It never writes.
type Gate struct {
	reader     store.Reader
	registry   *dataset.Registry
	benchmarks []Benchmark
}

// NewGate creates a gate. Empty benchmarks fall back to DefaultBenchmarks.
func NewGate(r store.Reader, reg *dataset.Registry, benchmarks []Benchmark) *Gate {
	if len(benchmarks) == 0 {
		benchmarks = DefaultBenchmarks()
	}
	return &Gate{reader: r, registry: reg, benchmarks: benchmarks}
}

// Benchmarks returns the configured benchmarks.
func (g *Gate) Benchmarks() []Benchmark { return g.benchmarks }

// Check evaluates every benchmark and returns the findings.
func (g *Gate) Check(ctx context.Context) []Finding {
	log := zap.L().With(zap.String("component", "ingest.gate"))

	var findings []Finding
	for _, b := range g.benchmarks {
		if f := g.check(ctx, b); f != nil {
			log.Warn("validation finding",
				zap.String("benchmark", f.Benchmark),
				zap.String("dataset", f.Dataset),
				zap.String("message", f.Message),
			)
			findings = append(findings, *f)
		}
	}
	return findings
}

func (g *Gate) check(ctx context.Context, b Benchmark) *Finding {
	finding := func(observed *float64, msg string) *Finding {
		return &Finding{Dataset: b.Dataset, Benchmark: b.Name, Observed: observed, Min: b.Min, Max: b.Max, Message: msg}
	}

	d, err := g.registry.Get(b.Dataset)
	if err != nil {
		return finding(nil, err.Error())
	}
	t := d.Table()
	dimCol := t.ConflictKeys[0]

	recs, err := g.reader.Select(ctx, t, store.Filter{Where: map[string]any{"interval_month": b.IntervalMonth}})
	if err != nil {
		return finding(nil, fmt.Sprintf("read %s: %v", t.Name, err))
	}

	for _, r := range recs {
		label := r.String(dimCol)
		if b.Prefix && !strings.HasPrefix(label, b.Label) {
			continue
		}
		if !b.Prefix && label != b.Label {
			continue
		}
		frac := r.Float("relative_survival")
		if frac == nil {
			continue
		}
		pct := *frac * 100
		if pct < b.Min || pct > b.Max {
			return finding(&pct, fmt.Sprintf("%s at %d months is %.1f%%, expected %.0f-%.0f%%", label, b.IntervalMonth, pct, b.Min, b.Max))
		}
		return nil
	}
	return finding(nil, fmt.Sprintf("no %q row at %d months in %s", b.Label, b.IntervalMonth, t.Name))
}
