package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/seer-cli/internal/dataset"
	"github.com/sells-group/seer-cli/internal/seer"
	"github.com/sells-group/seer-cli/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "seer.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func newTestParser(t *testing.T) *seer.Parser {
	t.Helper()
	p, err := seer.NewParser(seer.DefaultRules())
	require.NoError(t, err)
	return p
}

// writeExtracts writes dataset extracts into a temp dir and returns a source over it.
func writeExtracts(t *testing.T, files map[string][]string) *dataset.DirSource {
	t.Helper()
	dir := t.TempDir()
	for name, lines := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(strings.Join(lines, "\n")), 0o600))
	}
	return &dataset.DirSource{Dir: dir}
}

var stageBenchmark = Benchmark{
	Name: "distant_stage_5yr", Dataset: dataset.SurvivalByStage, Label: "Distant", Prefix: true,
	IntervalMonth: 60, Min: 20, Max: 45,
}
