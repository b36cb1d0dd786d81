// Package features defines the named feature sets a model can be trained
// on and how raw table cells and form inputs are encoded into numbers.
package features

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/baharkarakas/student-performance/internal/dataset"
)

type Kind int

const (
	Numeric Kind = iota
	// YesNo is 1 for "YES" on forms.
	YesNo
	// Completion is 1 for "completed" on forms.
	Completion
)

type Feature struct {
	Name  string
	Label string
	Kind  Kind
}

type Set struct {
	Name     string
	Target   string
	Features []Feature
}

const Target = "final_score"

var Extended = Set{
	Name:   "extended",
	Target: Target,
	Features: []Feature{
		{Name: "attendance_percent", Label: "Attendance (%)", Kind: Numeric},
		{Name: "midterm_score", Label: "Midterm score", Kind: Numeric},
		{Name: "private_class", Label: "Private class", Kind: YesNo},
		{Name: "physical_fitness", Label: "Physical fitness", Kind: YesNo},
		{Name: "mental_fitness", Label: "Mental fitness", Kind: YesNo},
		{Name: "subject1_duration", Label: "Subject 1 study hours", Kind: Numeric},
		{Name: "subject2_duration", Label: "Subject 2 study hours", Kind: Numeric},
		{Name: "test_preparation_course", Label: "Test preparation course", Kind: Completion},
		{Name: "participation_score", Label: "Participation score", Kind: Numeric},
	},
}

var Legacy = Set{
	Name:   "legacy",
	Target: Target,
	Features: []Feature{
		{Name: "attendance_percent", Label: "Attendance (%)", Kind: Numeric},
		{Name: "assignments_avg", Label: "Assignments average", Kind: Numeric},
		{Name: "quizzes_avg", Label: "Quizzes average", Kind: Numeric},
		{Name: "participation_score", Label: "Participation score", Kind: Numeric},
	},
}

func Lookup(name string) (Set, error) {
	switch name {
	case Extended.Name:
		return Extended, nil
	case Legacy.Name:
		return Legacy, nil
	}
	return Set{}, fmt.Errorf("unknown feature set %q", name)
}

// Available returns the features of s present in t, keeping s's order.
func (s Set) Available(t *dataset.Table) []Feature {
	var out []Feature
	for _, f := range s.Features {
		if t.Has(f.Name) {
			out = append(out, f)
		}
	}
	return out
}

// Find looks a feature up by name in every known set.
func Find(name string) (Feature, bool) {
	for _, s := range []Set{Extended, Legacy} {
		for _, f := range s.Features {
			if f.Name == name {
				return f, true
			}
		}
	}
	return Feature{Name: name, Label: name, Kind: Numeric}, false
}

func Names(fs []Feature) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Name
	}
	return out
}

// EncodeCell turns a cleaned table cell into a training value. ok is false
// for cells that should be treated as missing.
func EncodeCell(v any) (float64, bool) {
	if f, ok := dataset.Float(v); ok {
		return f, true
	}
	s, isStr := v.(string)
	if !isStr {
		return 0, false
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "completed":
		return 1, true
	case "no", "false", "none":
		return 0, true
	}
	return 0, false
}

// FormValue coerces a submitted form field. Numbers that fail to parse
// become 0.
func (f Feature) FormValue(raw string) float64 {
	raw = strings.TrimSpace(raw)
	switch f.Kind {
	case YesNo:
		if raw == "YES" {
			return 1
		}
		return 0
	case Completion:
		if raw == "completed" {
			return 1
		}
		return 0
	}
	if raw == "" || raw == "None" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}

// JSONValue coerces a value from a JSON request body.
func (f Feature) JSONValue(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		return f.FormValue(x)
	}
	return 0
}
