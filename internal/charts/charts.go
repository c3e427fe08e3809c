// Package charts runs the read-time derivations over stored rows.
package charts

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/seer-cli/internal/dataset"
	"github.com/sells-group/seer-cli/internal/seer"
	"github.com/sells-group/seer-cli/internal/stats"
	"github.com/sells-group/seer-cli/internal/store"
)

// Chart keys.
const (
	AAPCByAge            = "aapc-by-age"
	AAPCByRace           = "aapc-by-race"
	SurvivalCurveByStage = "survival-curve-by-stage"
	MortalityByDimension = "mortality-by-dimension"
)

// Keys lists every chart in overview order.
var Keys = []string{AAPCByAge, AAPCByRace, SurvivalCurveByStage, MortalityByDimension}

// ErrUnknownChart is returned for a chart key that is not served.
var ErrUnknownChart = eris.New("charts: unknown chart")

// ErrUnknownDataset is returned for a dataset key that is not registered.
var ErrUnknownDataset = eris.New("charts: unknown dataset")

// Result is one chart or dataset read. A storage error yields empty Data
// and a non-empty Error instead of failing the read.
type Result struct {
	Key   string `json:"key"`
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
}

// MortalityQuery selects the mortality pivot.
type MortalityQuery struct {
	Dimension stats.Dimension
	Filter    stats.MortalityFilter
}

// Service computes charts from a store.Reader.
type Service struct {
	reader   store.Reader
	registry *dataset.Registry
	aapc     *stats.AAPCEngine
	curve    *stats.CurveStitcher
	mort     *stats.MortalityAggregator
}

// NewService creates a chart service.
func NewService(r store.Reader, reg *dataset.Registry, aapc stats.AAPCConfig) *Service {
	return &Service{
		reader:   r,
		registry: reg,
		aapc:     stats.NewAAPCEngine(aapc),
		curve:    stats.DefaultCurveStitcher(),
		mort:     stats.NewMortalityAggregator(),
	}
}

// Chart returns the chart for key. mq is used only by the mortality chart;
// a zero Dimension means age.
func (s *Service) Chart(ctx context.Context, key string, mq MortalityQuery) (Result, error) {
	switch key {
	case AAPCByAge:
		return s.AAPCByAge(ctx), nil
	case AAPCByRace:
		return s.AAPCByRace(ctx), nil
	case SurvivalCurveByStage:
		return s.SurvivalCurve(ctx), nil
	case MortalityByDimension:
		return s.Mortality(ctx, mq), nil
	default:
		return Result{}, eris.Wrapf(ErrUnknownChart, "%q", key)
	}
}

// AAPCByAge is the incidence trend per age band.
func (s *Service) AAPCByAge(ctx context.Context) Result {
	return s.aapcChart(ctx, AAPCByAge, dataset.IncidenceRatesByAgeYearTable)
}

// AAPCByRace is the incidence trend per race.
func (s *Service) AAPCByRace(ctx context.Context) Result {
	return s.aapcChart(ctx, AAPCByRace, dataset.IncidenceRatesByRaceYearTable)
}

func (s *Service) aapcChart(ctx context.Context, key string, t store.Table) Result {
	recs, err := s.reader.Select(ctx, t, store.Filter{})
	if err != nil {
		return readFailed(key, []stats.AAPCResult{}, err)
	}
	series := groupSeries(dataset.RateRows(recs, t.ConflictKeys[0]))
	return Result{Key: key, Data: s.aapc.EstimateAll(series)}
}

// SurvivalCurve is the stitched stage I-IV survival curve in percent.
func (s *Service) SurvivalCurve(ctx context.Context) Result {
	t := dataset.SurvivalByStageTable
	recs, err := s.reader.Select(ctx, t, store.Filter{})
	if err != nil {
		return readFailed(SurvivalCurveByStage, []stats.CurvePoint{}, err)
	}
	return Result{Key: SurvivalCurveByStage, Data: s.curve.Stitch(dataset.SurvivalRows(recs, "stage"))}
}

// Mortality pivots the mortality table along q.Dimension.
func (s *Service) Mortality(ctx context.Context, q MortalityQuery) Result {
	if q.Dimension == "" {
		q.Dimension = stats.DimAge
	}

	where := map[string]any{}
	if q.Filter.Year != 0 {
		where["year"] = q.Filter.Year
	}
	if q.Filter.State != "" {
		where["state"] = q.Filter.State
	}

	recs, err := s.reader.Select(ctx, dataset.MortalityTable, store.Filter{Where: where})
	if err != nil {
		return readFailed(MortalityByDimension, []any{}, err)
	}
	rows := dataset.MortalityRows(recs)

	switch q.Dimension {
	case stats.DimCause:
		return Result{Key: MortalityByDimension, Data: nonNil(s.mort.CauseShare(rows, q.Filter))}
	case stats.DimState:
		return Result{Key: MortalityByDimension, Data: nonNil(s.mort.BaseSeries(rows, q.Filter))}
	default:
		cats, err := s.mort.ByCategory(rows, q.Dimension, q.Filter)
		if err != nil {
			return readFailed(MortalityByDimension, []any{}, err)
		}
		return Result{Key: MortalityByDimension, Data: cats}
	}
}

// Overview computes every chart concurrently with default parameters.
func (s *Service) Overview(ctx context.Context) ([]Result, error) {
	out := make([]Result, len(Keys))
	g, gctx := errgroup.WithContext(ctx)
	for i, key := range Keys {
		g.Go(func() error {
			r, err := s.Chart(gctx, key, MortalityQuery{})
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Dataset returns the raw stored rows of a registered dataset.
func (s *Service) Dataset(ctx context.Context, name string) (Result, error) {
	d, err := s.registry.Get(name)
	if err != nil {
		return Result{}, eris.Wrapf(ErrUnknownDataset, "%q", name)
	}
	recs, err := s.reader.Select(ctx, d.Table(), store.Filter{})
	if err != nil {
		return readFailed(name, []store.Record{}, err), nil
	}
	if recs == nil {
		recs = []store.Record{}
	}
	return Result{Key: name, Data: recs}, nil
}

func readFailed(key string, empty any, err error) Result {
	zap.L().With(zap.String("component", "charts")).Warn("chart read failed",
		zap.String("chart", key), zap.Error(err))
	return Result{Key: key, Data: empty, Error: err.Error()}
}

// groupSeries collects rate rows into per-group series in order of first
// appearance.
func groupSeries(rows []seer.IncidenceRateRow) []stats.GroupSeries {
	idx := make(map[string]int)
	var out []stats.GroupSeries
	for _, r := range rows {
		i, ok := idx[r.Group]
		if !ok {
			i = len(out)
			idx[r.Group] = i
			out = append(out, stats.GroupSeries{Group: r.Group})
		}
		out[i].Points = append(out[i].Points, stats.YearValue{Year: r.Year, Rate: r.Rate, Count: r.Count})
	}
	for i := range out {
		sort.SliceStable(out[i].Points, func(a, b int) bool { return out[i].Points[a].Year < out[i].Points[b].Year })
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
