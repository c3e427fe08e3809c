package store

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// buildSelect renders a SELECT for t with f applied. placeholder renders the
// n-th (1-based) bind parameter for the target driver. Column names come from
// the Table definition; filter keys must name one of its columns.
func buildSelect(t Table, f Filter, placeholder func(n int) string) (string, []any, error) {
	if len(t.Columns) == 0 {
		return "", nil, eris.Errorf("store: table %q has no columns", t.Name)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", strings.Join(t.Columns, ", "), t.Name)

	keys := make([]string, 0, len(f.Where))
	for k := range f.Where {
		if !t.HasColumn(k) {
			return "", nil, eris.Errorf("store: unknown filter column %q for %s", k, t.Name)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, len(keys))
	for i, k := range keys {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		fmt.Fprintf(&sb, "%s = %s", k, placeholder(i+1))
		args = append(args, f.Where[k])
	}

	order := f.OrderBy
	if len(order) == 0 {
		order = t.ConflictKeys
	}
	for _, col := range order {
		if !t.HasColumn(col) {
			return "", nil, eris.Errorf("store: unknown order column %q for %s", col, t.Name)
		}
	}
	if len(order) > 0 {
		fmt.Fprintf(&sb, " ORDER BY %s", strings.Join(order, ", "))
	}

	return sb.String(), args, nil
}

func postgresPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

func sqlitePlaceholder(int) string { return "?" }
