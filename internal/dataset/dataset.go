// Package dataset is the catalogue of registry extracts: where each one is
// read from, how it parses, and which table it is stored in.
package dataset

import (
	"context"
	"io"

	"github.com/sells-group/seer-cli/internal/seer"
	"github.com/sells-group/seer-cli/internal/store"
)

// Dataset names. Each matches its storage table.
const (
	SurvivalBySubtype        = "survival_by_subtype"
	SurvivalByStage          = "survival_by_stage"
	SurvivalByYear           = "survival_by_year"
	IncidenceByRace          = "incidence_by_race"
	IncidenceByYear          = "incidence_by_year"
	CauseOfDeath             = "cause_of_death"
	IncidenceByStageAtDx     = "incidence_by_stage_at_dx"
	IncidenceRatesByRaceYear = "incidence_rates_by_race_year"
	IncidenceRatesByAgeYear  = "incidence_rates_by_age_year"
	Mortality                = "mortality"
)

// Dataset defines one ingestible registry extract.
type Dataset interface {
	// Name returns the unique identifier, e.g. "survival_by_stage".
	Name() string

	// Table returns the storage table and its natural key.
	Table() store.Table

	// File returns the source file name, e.g. "survival_by_stage.txt".
	File() string

	// Parse reads the source and returns storage rows in Table().Columns
	// order. It never writes anywhere.
	Parse(ctx context.Context, p *seer.Parser, r io.Reader) ([][]any, error)
}

// textDataset adapts one typed parse target to the Dataset interface.
type textDataset[T any] struct {
	table  store.Table
	parse  func(*seer.Parser, io.Reader) ([]T, error)
	encode func(T) []any
}

func (d *textDataset[T]) Name() string       { return d.table.Name }
func (d *textDataset[T]) Table() store.Table { return d.table }
func (d *textDataset[T]) File() string       { return d.table.Name + ".txt" }

func (d *textDataset[T]) Parse(_ context.Context, p *seer.Parser, r io.Reader) ([][]any, error) {
	typed, err := d.parse(p, r)
	if err != nil {
		return nil, err
	}
	rows := make([][]any, 0, len(typed))
	for _, t := range typed {
		rows = append(rows, d.encode(t))
	}
	return rows, nil
}
