package seer

import (
	"io"
	"strings"
)

// Parser turns registry extracts into typed, filtered rows. It holds no
// mutable state and is safe for concurrent use.
type Parser struct {
	tok      *Tokenizer
	coerce   *Coercer
	interval *IntervalSelector

	subtype    *DimensionFilter
	stage      *DimensionFilter
	stageGroup *DimensionFilter
	race       *DimensionFilter
	age        *DimensionFilter
	cause      *DimensionFilter
}

// NewParser builds a parser from rules.
func NewParser(rules Rules) (*Parser, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	tok, err := NewTokenizer(rules)
	if err != nil {
		return nil, err
	}
	return &Parser{
		tok:        tok,
		coerce:     NewCoercer(rules),
		interval:   NewIntervalSelector(rules),
		subtype:    NewDimensionFilter(ModeSubtype, rules),
		stage:      NewDimensionFilter(ModeStage, rules),
		stageGroup: NewDimensionFilter(ModeStageGroup, rules),
		race:       NewDimensionFilter(ModeRace, rules),
		age:        NewDimensionFilter(ModeAge, rules),
		cause:      NewDimensionFilter(ModeCause, rules),
	}, nil
}

// SurvivalBySubtype parses "subtype, interval, rel surv, lower, upper, n" lines.
func (p *Parser) SurvivalBySubtype(r io.Reader) ([]SurvivalRow, error) {
	return p.survival(r, p.subtype)
}

// SurvivalByStage parses "stage, interval, rel surv, lower, upper, n" lines.
func (p *Parser) SurvivalByStage(r io.Reader) ([]SurvivalRow, error) {
	return p.survival(r, p.stage)
}

func (p *Parser) survival(r io.Reader, f *DimensionFilter) ([]SurvivalRow, error) {
	recs, err := p.tok.Records(r)
	if err != nil {
		return nil, err
	}

	var out []SurvivalRow
	for _, fields := range recs {
		fields = p.tok.Fit(fields, survivalColumns)
		if len(fields) < 2 {
			continue
		}
		label, ok := f.Apply(p.coerce.String(fields[0]))
		if !ok {
			continue
		}
		month, ok := p.interval.Month(fields[1])
		if !ok {
			continue
		}
		row := p.survivalValues(fields)
		row.Dimension = label
		row.IntervalMonth = month
		out = append(out, row)
	}
	return out, nil
}

// SurvivalByYear parses "year, interval, rel surv, lower, upper, n" lines,
// keeping the year-survival interval and years inside the survival band.
func (p *Parser) SurvivalByYear(r io.Reader) ([]SurvivalRow, error) {
	recs, err := p.tok.Records(r)
	if err != nil {
		return nil, err
	}

	var out []SurvivalRow
	for _, fields := range recs {
		fields = p.tok.Fit(fields, survivalColumns)
		if len(fields) < 2 {
			continue
		}
		month, ok := p.interval.Month(fields[1])
		if !ok {
			continue
		}
		year, ok := p.interval.SurvivalYear(p.coerce.String(fields[0]), month)
		if !ok {
			continue
		}
		row := p.survivalValues(fields)
		row.Dimension = p.coerce.String(fields[0])
		row.Year = year
		row.IntervalMonth = month
		out = append(out, row)
	}
	return out, nil
}

func (p *Parser) survivalValues(fields []string) SurvivalRow {
	return SurvivalRow{
		RelativeSurvival: p.coerce.Fraction(field(fields, 2)),
		CILower:          p.coerce.Fraction(field(fields, 3)),
		CIUpper:          p.coerce.Fraction(field(fields, 4)),
		N:                p.coerce.Number(field(fields, 5)),
	}
}

// IncidenceByRace parses "race, rate, count, population" lines.
func (p *Parser) IncidenceByRace(r io.Reader) ([]IncidenceRaceRow, error) {
	recs, err := p.tok.Records(r)
	if err != nil {
		return nil, err
	}

	var out []IncidenceRaceRow
	for _, fields := range recs {
		fields = p.tok.Fit(fields, 4)
		race, ok := p.race.Apply(p.coerce.String(field(fields, 0)))
		if !ok {
			continue
		}
		rate, count, pop := p.rateTriple(fields, 1)
		if rate == nil && count == nil && pop == nil {
			continue
		}
		out = append(out, IncidenceRaceRow{Race: race, Rate: rate, Count: count, Population: pop})
	}
	return out, nil
}

// IncidenceByYear parses "year, rate, count, population" lines.
func (p *Parser) IncidenceByYear(r io.Reader) ([]IncidenceYearRow, error) {
	recs, err := p.tok.Records(r)
	if err != nil {
		return nil, err
	}

	var out []IncidenceYearRow
	for _, fields := range recs {
		fields = p.tok.Fit(fields, 4)
		year, ok := p.interval.IncidenceYear(p.coerce.String(field(fields, 0)))
		if !ok {
			continue
		}
		rate, count, pop := p.rateTriple(fields, 1)
		if rate == nil && count == nil && pop == nil {
			continue
		}
		out = append(out, IncidenceYearRow{Year: year, Rate: rate, Count: count, Population: pop})
	}
	return out, nil
}

// CauseOfDeath parses "cause, count" lines. Count is the only value, so
// rows without one are dropped.
func (p *Parser) CauseOfDeath(r io.Reader) ([]CauseOfDeathRow, error) {
	recs, err := p.tok.Records(r)
	if err != nil {
		return nil, err
	}

	var out []CauseOfDeathRow
	for _, fields := range recs {
		fields = p.tok.Fit(fields, 2)
		cause, ok := p.cause.Apply(p.coerce.String(field(fields, 0)))
		if !ok {
			continue
		}
		count := p.coerce.Number(field(fields, 1))
		if count == nil {
			continue
		}
		out = append(out, CauseOfDeathRow{Cause: cause, Count: count})
	}
	return out, nil
}

// survivalColumns is the survival layout: label, interval, rel surv,
// lower, upper, n.
const survivalColumns = 6

// StageAtDx parses "stage, count, population" lines and sums them into
// stage groups. Unmapped stages count toward neither numerator nor
// denominator. Groups are returned in Localized, Regional, Distant order.
func (p *Parser) StageAtDx(r io.Reader) ([]StageAtDxRow, error) {
	recs, err := p.tok.Records(r)
	if err != nil {
		return nil, err
	}

	type acc struct{ count, pop float64 }
	sums := make(map[string]*acc)
	for _, fields := range recs {
		fields = p.tok.Fit(fields, 3)
		group, ok := p.stageGroup.Apply(p.coerce.String(field(fields, 0)))
		if !ok {
			continue
		}
		count := p.coerce.Number(field(fields, 1))
		pop := p.coerce.Number(field(fields, 2))
		if count == nil && pop == nil {
			continue
		}
		a, ok := sums[group]
		if !ok {
			a = &acc{}
			sums[group] = a
		}
		if count != nil {
			a.count += *count
		}
		if pop != nil {
			a.pop += *pop
		}
	}

	var out []StageAtDxRow
	for _, g := range []string{GroupLocalized, GroupRegional, GroupDistant} {
		a, ok := sums[g]
		if !ok {
			continue
		}
		row := StageAtDxRow{Group: g, Count: a.count, Population: a.pop}
		if a.pop > 0 {
			rate := a.count / a.pop * 100000
			row.RatePer100k = &rate
		}
		out = append(out, row)
	}
	return out, nil
}

// IncidenceRatesByRaceYear parses "race, year, rate, count, population" lines.
func (p *Parser) IncidenceRatesByRaceYear(r io.Reader) ([]IncidenceRateRow, error) {
	return p.rates(r, p.race)
}

// IncidenceRatesByAgeYear parses "age group, year, rate, count, population" lines.
func (p *Parser) IncidenceRatesByAgeYear(r io.Reader) ([]IncidenceRateRow, error) {
	return p.rates(r, p.age)
}

func (p *Parser) rates(r io.Reader, f *DimensionFilter) ([]IncidenceRateRow, error) {
	recs, err := p.tok.Records(r)
	if err != nil {
		return nil, err
	}

	var out []IncidenceRateRow
	for _, fields := range recs {
		fields = p.tok.Fit(fields, 5)
		group, ok := f.Apply(p.coerce.String(field(fields, 0)))
		if !ok {
			continue
		}
		year, ok := p.interval.IncidenceYear(p.coerce.String(field(fields, 1)))
		if !ok {
			continue
		}
		rate, count, pop := p.rateTriple(fields, 2)
		if rate == nil && count == nil {
			continue
		}
		out = append(out, IncidenceRateRow{Group: group, Year: year, Rate: rate, Count: count, Population: pop})
	}
	return out, nil
}

// Mortality normalizes decoded mortality rows: blank categoricals become
// nil, and rows without a year or carrying more than one dimension are
// dropped. An empty state marks a national row and is kept as "".
func (p *Parser) Mortality(rows []MortalityRow) []MortalityRow {
	out := make([]MortalityRow, 0, len(rows))
	for _, r := range rows {
		r.State = strings.TrimSpace(r.State)
		r.AgeGroup = p.nullable(r.AgeGroup)
		r.Race = p.nullable(r.Race)
		r.Sex = p.nullable(r.Sex)
		r.CauseFilter = p.nullable(r.CauseFilter)
		if r.Year == 0 || r.Dimensions() > 1 {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (p *Parser) nullable(s *string) *string {
	if s == nil {
		return nil
	}
	v := p.coerce.String(*s)
	if v == "" {
		return nil
	}
	return &v
}

func (p *Parser) rateTriple(fields []string, at int) (rate, count, pop *float64) {
	return p.coerce.Number(field(fields, at)),
		p.coerce.Number(field(fields, at+1)),
		p.coerce.Number(field(fields, at+2))
}

// field returns fields[i] or "" when the line is short.
func field(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}
