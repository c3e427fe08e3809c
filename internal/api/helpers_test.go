package api

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/seer-cli/internal/seer"
)

func newParser(t *testing.T) *seer.Parser {
	t.Helper()
	p, err := seer.NewParser(seer.DefaultRules())
	require.NoError(t, err)
	return p
}
