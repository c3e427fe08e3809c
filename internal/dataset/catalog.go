package dataset

import (
	"context"
	"io"

	"github.com/sells-group/seer-cli/internal/fetcher"
	"github.com/sells-group/seer-cli/internal/seer"
	"github.com/sells-group/seer-cli/internal/store"
)

func survivalDataset(t store.Table, parse func(*seer.Parser, io.Reader) ([]seer.SurvivalRow, error)) Dataset {
	return &textDataset[seer.SurvivalRow]{
		table: t,
		parse: parse,
		encode: func(r seer.SurvivalRow) []any {
			var key any = r.Dimension
			if r.Year != 0 {
				key = r.Year
			}
			return []any{key, r.IntervalMonth, value(r.RelativeSurvival), value(r.CILower), value(r.CIUpper), value(r.N)}
		},
	}
}

func rateDataset(t store.Table, parse func(*seer.Parser, io.Reader) ([]seer.IncidenceRateRow, error)) Dataset {
	return &textDataset[seer.IncidenceRateRow]{
		table: t,
		parse: parse,
		encode: func(r seer.IncidenceRateRow) []any {
			return []any{r.Group, r.Year, value(r.Rate), value(r.Count), value(r.Population)}
		},
	}
}

// Catalog returns every dataset in ingestion order.
func Catalog() []Dataset {
	return []Dataset{
		survivalDataset(SurvivalBySubtypeTable, (*seer.Parser).SurvivalBySubtype),
		survivalDataset(SurvivalByStageTable, (*seer.Parser).SurvivalByStage),
		survivalDataset(SurvivalByYearTable, (*seer.Parser).SurvivalByYear),
		&textDataset[seer.IncidenceRaceRow]{
			table: IncidenceByRaceTable,
			parse: (*seer.Parser).IncidenceByRace,
			encode: func(r seer.IncidenceRaceRow) []any {
				return []any{r.Race, value(r.Rate), value(r.Count), value(r.Population)}
			},
		},
		&textDataset[seer.IncidenceYearRow]{
			table: IncidenceByYearTable,
			parse: (*seer.Parser).IncidenceByYear,
			encode: func(r seer.IncidenceYearRow) []any {
				return []any{r.Year, value(r.Rate), value(r.Count), value(r.Population)}
			},
		},
		&textDataset[seer.CauseOfDeathRow]{
			table: CauseOfDeathTable,
			parse: (*seer.Parser).CauseOfDeath,
			encode: func(r seer.CauseOfDeathRow) []any {
				return []any{r.Cause, value(r.Count)}
			},
		},
		&textDataset[seer.StageAtDxRow]{
			table: IncidenceByStageAtDxTable,
			parse: (*seer.Parser).StageAtDx,
			encode: func(r seer.StageAtDxRow) []any {
				return []any{r.Group, r.Count, r.Population, value(r.RatePer100k)}
			},
		},
		rateDataset(IncidenceRatesByRaceYearTable, (*seer.Parser).IncidenceRatesByRaceYear),
		rateDataset(IncidenceRatesByAgeYearTable, (*seer.Parser).IncidenceRatesByAgeYear),
		&mortalityDataset{},
	}
}

// mortalityDataset reads the registry's JSON mortality export.
type mortalityDataset struct{}

func (d *mortalityDataset) Name() string       { return Mortality }
func (d *mortalityDataset) Table() store.Table { return MortalityTable }
func (d *mortalityDataset) File() string       { return Mortality + ".json" }

func (d *mortalityDataset) Parse(ctx context.Context, p *seer.Parser, r io.Reader) ([][]any, error) {
	raw, err := fetcher.CollectJSONArray[seer.MortalityRow](ctx, r)
	if err != nil {
		return nil, err
	}
	typed := p.Mortality(raw)
	rows := make([][]any, 0, len(typed))
	for _, m := range typed {
		rows = append(rows, []any{
			m.Year, m.State,
			keyString(m.AgeGroup), keyString(m.Race), keyString(m.Sex), keyString(m.CauseFilter),
			value(m.Deaths), value(m.RatePer100k),
		})
	}
	return rows, nil
}

// value unwraps a nullable number for storage.
func value(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// keyString stores a nullable key column as "" so the natural key compares.
func keyString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
