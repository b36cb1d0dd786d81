package dataset

import (
	"math"
	"strconv"
	"strings"
)

// NumericColumns are always coerced to numbers; bad values become missing.
var NumericColumns = []string{
	"attendance_percent",
	"midterm_score",
	"final_score",
	"assignments_avg",
	"quizzes_avg",
	"participation_score",
}

var missingTokens = map[string]struct{}{
	"":     {},
	"nan":  {},
	"NaN":  {},
	"NA":   {},
	"N/A":  {},
	"n/a":  {},
	"null": {},
	"NULL": {},
	"#N/A": {},
	"<NA>": {},
}

// NormalizeColumn applies the header rules in order: trim, lowercase,
// spaces to underscores, "(%)" to "percent".
func NormalizeColumn(name string) string {
	s := strings.TrimSpace(name)
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "(%)", "percent")
	return s
}

// Clean returns a normalized copy of t. It is idempotent.
func Clean(t *Table) *Table {
	out := &Table{
		Columns: make([]string, len(t.Columns)),
		Rows:    make([][]any, len(t.Rows)),
	}
	for i, c := range t.Columns {
		out.Columns[i] = NormalizeColumn(c)
	}
	for r, row := range t.Rows {
		nr := make([]any, len(out.Columns))
		for i := range nr {
			if i < len(row) {
				nr[i] = missingToNil(row[i])
			}
		}
		out.Rows[r] = nr
	}

	forced := make(map[string]bool, len(NumericColumns))
	for _, c := range NumericColumns {
		forced[c] = true
	}
	for i, c := range out.Columns {
		if forced[c] {
			coerce(out, i)
		} else if allNumeric(out, i) {
			coerce(out, i)
		}
	}
	return out
}

func missingToNil(v any) any {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		if _, ok := missingTokens[s]; ok {
			return nil
		}
		return s
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	}
	return v
}

func parseNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return Float(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func coerce(t *Table, col int) {
	for _, row := range t.Rows {
		if row[col] == nil {
			continue
		}
		if f, ok := parseNumber(row[col]); ok {
			row[col] = f
		} else {
			row[col] = nil
		}
	}
}

// allNumeric reports whether every present cell parses and at least one is present.
func allNumeric(t *Table, col int) bool {
	seen := false
	for _, row := range t.Rows {
		if row[col] == nil {
			continue
		}
		if _, ok := parseNumber(row[col]); !ok {
			return false
		}
		seen = true
	}
	return seen
}
