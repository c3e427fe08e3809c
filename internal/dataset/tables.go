package dataset

import "github.com/sells-group/seer-cli/internal/store"

var survivalValueColumns = []string{"relative_survival", "ci_lower", "ci_upper", "n"}

// Storage tables, one per dataset.
var (
	SurvivalBySubtypeTable = store.Table{
		Name:         SurvivalBySubtype,
		Columns:      append([]string{"subtype", "interval_month"}, survivalValueColumns...),
		ConflictKeys: []string{"subtype", "interval_month"},
	}
	SurvivalByStageTable = store.Table{
		Name:         SurvivalByStage,
		Columns:      append([]string{"stage", "interval_month"}, survivalValueColumns...),
		ConflictKeys: []string{"stage", "interval_month"},
	}
	SurvivalByYearTable = store.Table{
		Name:         SurvivalByYear,
		Columns:      append([]string{"year", "interval_month"}, survivalValueColumns...),
		ConflictKeys: []string{"year", "interval_month"},
	}
	IncidenceByRaceTable = store.Table{
		Name:         IncidenceByRace,
		Columns:      []string{"race", "rate", "count", "population"},
		ConflictKeys: []string{"race"},
	}
	IncidenceByYearTable = store.Table{
		Name:         IncidenceByYear,
		Columns:      []string{"year", "rate", "count", "population"},
		ConflictKeys: []string{"year"},
	}
	CauseOfDeathTable = store.Table{
		Name:         CauseOfDeath,
		Columns:      []string{"cause", "count"},
		ConflictKeys: []string{"cause"},
	}
	IncidenceByStageAtDxTable = store.Table{
		Name:         IncidenceByStageAtDx,
		Columns:      []string{"stage_group", "count", "population", "rate_per_100k"},
		ConflictKeys: []string{"stage_group"},
	}
	IncidenceRatesByRaceYearTable = store.Table{
		Name:         IncidenceRatesByRaceYear,
		Columns:      []string{"race", "year", "rate", "count", "population"},
		ConflictKeys: []string{"race", "year"},
	}
	IncidenceRatesByAgeYearTable = store.Table{
		Name:         IncidenceRatesByAgeYear,
		Columns:      []string{"age_group", "year", "rate", "count", "population"},
		ConflictKeys: []string{"age_group", "year"},
	}
	MortalityTable = store.Table{
		Name:         Mortality,
		Columns:      []string{"year", "state", "age_group", "race", "sex", "cause_filter", "deaths", "rate_per_100k"},
		ConflictKeys: []string{"year", "state", "age_group", "race", "sex", "cause_filter"},
	}
)
