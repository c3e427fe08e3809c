package ingest

import (
	"context"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/seer-cli/internal/dataset"
	"github.com/sells-group/seer-cli/internal/stats"
	"github.com/sells-group/seer-cli/internal/store"
)

func TestOrchestrator_SurvivalByStageEndToEnd(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	src := writeExtracts(t, map[string][]string{
		"survival_by_stage.txt": {
			`"Stage","Interval","Relative Survival"`,
			`"Localized only","60 mo","0.92"`,
			`"In situ","60 mo","0.99"`,
		},
	})
	reg := dataset.NewRegistry()

	o := NewOrchestrator(st, src, reg, newTestParser(t), NewGate(st, reg, []Benchmark{stageBenchmark}), nil)
	res, err := o.Run(ctx, RunOpts{Datasets: []string{dataset.SurvivalByStage}})
	require.NoError(t, err)

	assert.True(t, res.Committed())
	assert.Empty(t, res.Errors)
	assert.Equal(t, int64(1), res.Counts[dataset.SurvivalByStage])

	n, err := st.Count(ctx, dataset.SurvivalByStageTable)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	recs, err := st.Select(ctx, dataset.SurvivalByStageTable, store.Filter{})
	require.NoError(t, err)
	curve := stats.DefaultCurveStitcher().Stitch(dataset.SurvivalRows(recs, "stage"))
	require.Len(t, curve, len(stats.CurveMonths))
	last := curve[len(curve)-1]
	assert.Equal(t, 60, last.Month)
	assert.InDelta(t, 92.0, last.StageI, 1e-9)
}

func TestOrchestrator_ValidationDoesNotRollBack(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	src := writeExtracts(t, map[string][]string{
		"survival_by_stage.txt": {
			"Localized only,60 mo,0.92",
			"Distant site(s)/node(s) involved,60 mo,0.10",
		},
	})
	reg := dataset.NewRegistry()

	o := NewOrchestrator(st, src, reg, newTestParser(t), NewGate(st, reg, []Benchmark{stageBenchmark}), nil)
	res, err := o.Run(ctx, RunOpts{Datasets: []string{dataset.SurvivalByStage}})
	require.NoError(t, err)

	assert.Equal(t, StatusCommittedWithWarnings, res.Status)
	assert.Equal(t, http.StatusMultiStatus, res.HTTPStatus())
	require.Len(t, res.Findings, 1)
	assert.InDelta(t, 10.0, *res.Findings[0].Observed, 1e-9)

	n, err := st.Count(ctx, dataset.SurvivalByStageTable)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestOrchestrator_FailedDatasetDoesNotStopSiblings(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	src := writeExtracts(t, map[string][]string{
		"cause_of_death.txt":    {"Breast,42000", "Lung and Bronchus,127000"},
		"survival_by_stage.txt": {"Distant site(s)/node(s) involved,60 mo,0.31"},
	})
	reg := dataset.NewRegistry()
	m := NewMetrics(prometheus.NewRegistry())

	o := NewOrchestrator(st, src, reg, newTestParser(t), NewGate(st, reg, []Benchmark{stageBenchmark}), m)
	res, err := o.Run(ctx, RunOpts{Datasets: []string{dataset.IncidenceByRace, dataset.CauseOfDeath, dataset.SurvivalByStage}})
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, http.StatusInternalServerError, res.HTTPStatus())
	require.Contains(t, res.Errors, dataset.IncidenceByRace)
	assert.Contains(t, res.Errors[dataset.IncidenceByRace], "incidence_by_race.txt")
	assert.Equal(t, int64(0), res.Counts[dataset.IncidenceByRace])
	assert.Equal(t, int64(2), res.Counts[dataset.CauseOfDeath])
	assert.Equal(t, int64(1), res.Counts[dataset.SurvivalByStage])
	assert.Empty(t, res.Findings)

	entries, err := st.ListLog(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	statuses := map[string]store.LogStatus{}
	for _, e := range entries {
		assert.Equal(t, res.RunID, e.RunID)
		statuses[e.Dataset] = e.Status
	}
	assert.Equal(t, store.LogFailed, statuses[dataset.IncidenceByRace])
	assert.Equal(t, store.LogComplete, statuses[dataset.CauseOfDeath])

	assert.InDelta(t, 1.0, testutil.ToFloat64(m.DatasetOutcome.WithLabelValues(dataset.IncidenceByRace, "failed")), 1e-9)
	assert.InDelta(t, 2.0, testutil.ToFloat64(m.RowsUpserted.WithLabelValues(dataset.CauseOfDeath)), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.RunOutcome.WithLabelValues(string(StatusFailed))), 1e-9)
}

func TestOrchestrator_AllCommitted(t *testing.T) {
	st := newTestStore(t)
	src := writeExtracts(t, map[string][]string{
		"survival_by_stage.txt": {"Distant site(s)/node(s) involved,60 mo,0.31"},
	})
	reg := dataset.NewRegistry()

	o := NewOrchestrator(st, src, reg, newTestParser(t), NewGate(st, reg, []Benchmark{stageBenchmark}), nil)
	res, err := o.Run(context.Background(), RunOpts{Datasets: []string{dataset.SurvivalByStage}})
	require.NoError(t, err)
	assert.Equal(t, StatusCommitted, res.Status)
	assert.Equal(t, http.StatusOK, res.HTTPStatus())
	assert.NotEmpty(t, res.RunID)
}

func TestOrchestrator_UnknownDataset(t *testing.T) {
	st := newTestStore(t)
	o := NewOrchestrator(st, &dataset.DirSource{Dir: t.TempDir()}, dataset.NewRegistry(), newTestParser(t), nil, nil)

	_, err := o.Run(context.Background(), RunOpts{Datasets: []string{"bogus"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown dataset")
}

func TestOrchestrator_CancelledBetweenDatasets(t *testing.T) {
	st := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := NewOrchestrator(st, &dataset.DirSource{Dir: t.TempDir()}, dataset.NewRegistry(), newTestParser(t), nil, nil)
	res, err := o.Run(ctx, RunOpts{})
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Len(t, res.Errors, 1)

	n, err := st.Count(context.Background(), dataset.SurvivalBySubtypeTable)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOrchestrator_Postgres(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	st := store.NewPostgresFromPool(mock)

	mock.ExpectQuery(`INSERT INTO ingest_log`).
		WithArgs(pgxmock.AnyArg(), dataset.CauseOfDeath).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(9)))
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_cause_of_death"}, dataset.CauseOfDeathTable.Columns).WillReturnResult(1)
	mock.ExpectExec(`DELETE FROM`).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`INSERT INTO "cause_of_death"`).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectExec(`UPDATE ingest_log SET status = 'complete'`).
		WithArgs(int64(1), int64(9)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`SELECT .* FROM survival_by_stage WHERE interval_month = \$1`).
		WithArgs(60).
		WillReturnRows(pgxmock.NewRows(dataset.SurvivalByStageTable.Columns).
			AddRow("Distant site(s)/node(s) involved", int32(60), 0.31, nil, nil, nil))

	src := writeExtracts(t, map[string][]string{"cause_of_death.txt": {"Breast,42000"}})
	reg := dataset.NewRegistry()
	o := NewOrchestrator(st, src, reg, newTestParser(t), NewGate(st, reg, []Benchmark{stageBenchmark}), nil)

	res, err := o.Run(context.Background(), RunOpts{Datasets: []string{dataset.CauseOfDeath}})
	require.NoError(t, err)
	assert.Equal(t, StatusCommitted, res.Status)
	assert.Equal(t, int64(1), res.Counts[dataset.CauseOfDeath])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveDataset("x", 1, 0, nil)
	m.ObserveRun(&Result{Status: StatusCommitted})
}
