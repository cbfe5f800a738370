// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package dictionary

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// MistakeKind names a labelling inconsistency.
type MistakeKind string

const (
	MistakeLevelLabelCount    MistakeKind = "level_label_count"
	MistakeDuplicateLevel     MistakeKind = "duplicate_level"
	MistakeDuplicateLabel     MistakeKind = "duplicate_label"
	MistakeNonNumericLevel    MistakeKind = "non_numeric_level"
	MistakeLevelOrder         MistakeKind = "level_order"
	MistakeLabelLevelMismatch MistakeKind = "label_level_mismatch"
)

// Mistake is a warning about the levels and labels of one variable.
type Mistake struct {
	QID    string      `json:"qid" yaml:"qid"`
	Name   string      `json:"name" yaml:"name"`
	Kind   MistakeKind `json:"kind" yaml:"kind"`
	Detail string      `json:"detail" yaml:"detail"`
}

// NonUniqueName is a name used by more than one variable.
type NonUniqueName struct {
	Name string   `json:"name" yaml:"name"`
	QIDs []string `json:"qids" yaml:"qids"`
}

// ValidationResult holds the errors and warnings found in a dictionary.
type ValidationResult struct {
	NonUnique []NonUniqueName `json:"non_unique" yaml:"non_unique"`
	Mistakes  []Mistake       `json:"mistakes" yaml:"mistakes"`
}

// HasErrors reports whether some names are not unique.
func (r ValidationResult) HasErrors() bool {
	return len(r.NonUnique) > 0
}

// MistakeQIDs returns the set of variables with at least one mistake.
func (r ValidationResult) MistakeQIDs() map[string]bool {
	out := make(map[string]bool, len(r.Mistakes))
	for _, m := range r.Mistakes {
		out[m.QID] = true
	}
	return out
}

// Usable returns the dictionary without the variables whose names are not
// unique.
func (r ValidationResult) Usable(d *Dictionary) *Dictionary {
	drop := make(map[string]bool)
	for _, n := range r.NonUnique {
		for _, qid := range n.QIDs {
			drop[qid] = true
		}
	}
	return d.Without(drop)
}

// Exclude returns the usable dictionary without the variables that have
// mistakes.
func Exclude(d *Dictionary, r ValidationResult) *Dictionary {
	return r.Usable(d).Without(r.MistakeQIDs())
}

// Validate checks names for uniqueness and the levels of each categorical
// variable for labelling mistakes. Open variables are not checked for
// mistakes.
func Validate(d *Dictionary) ValidationResult {
	var result ValidationResult
	vars := d.Variables()

	byName := make(map[string][]string)
	var order []string
	for _, v := range vars {
		if _, ok := byName[v.Name]; !ok {
			order = append(order, v.Name)
		}
		byName[v.Name] = append(byName[v.Name], v.QID)
	}
	for _, name := range order {
		if qids := byName[name]; len(qids) > 1 {
			result.NonUnique = append(result.NonUnique, NonUniqueName{Name: name, QIDs: qids})
		}
	}

	for _, v := range vars {
		if !v.HasLevels() {
			continue
		}
		result.Mistakes = append(result.Mistakes, variableMistakes(v)...)
	}
	return result
}

var leadingNumber = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\b`)

func variableMistakes(v Variable) []Mistake {
	var out []Mistake
	add := func(kind MistakeKind, format string, args ...interface{}) {
		out = append(out, Mistake{QID: v.QID, Name: v.Name, Kind: kind, Detail: fmt.Sprintf(format, args...)})
	}

	missing := 0
	for _, l := range v.Levels {
		if l.Label == "" {
			missing++
		}
	}
	if missing > 0 || len(v.Labels) != len(v.Levels) {
		add(MistakeLevelLabelCount, "%d levels, %d labels", len(v.Levels), len(v.Labels))
	}
	// The single level of a multi-answer choice is the selection marker, not
	// a recode taken from the survey.
	if v.IsMultiAnswer() {
		return out
	}

	if dups := duplicates(v.Levels, func(l Level) string { return l.Value }); len(dups) > 0 {
		add(MistakeDuplicateLevel, "repeated levels: %s", strings.Join(dups, ", "))
	}
	if dups := duplicates(v.Levels, func(l Level) string { return l.Label }); len(dups) > 0 {
		add(MistakeDuplicateLabel, "repeated labels: %s", strings.Join(dups, ", "))
	}

	numeric := true
	var values []float64
	for _, l := range v.Levels {
		f, err := strconv.ParseFloat(strings.TrimSpace(l.Value), 64)
		if err != nil {
			numeric = false
			add(MistakeNonNumericLevel, "level %q is not a number", l.Value)
			continue
		}
		values = append(values, f)

		if m := leadingNumber.FindStringSubmatch(l.Label); m != nil {
			if n, err := strconv.ParseFloat(m[1], 64); err == nil && n != f {
				add(MistakeLabelLevelMismatch, "label %q on level %s", l.Label, l.Value)
			}
		}
	}
	if numeric && !sort.Float64sAreSorted(values) {
		add(MistakeLevelOrder, "levels not increasing: %s", levelValues(v.Levels))
	}
	return out
}

// duplicates returns the non-empty keys seen more than once, in order of
// their second appearance.
func duplicates(levels []Level, key func(Level) string) []string {
	seen := make(map[string]int)
	var out []string
	for _, l := range levels {
		k := key(l)
		if k == "" {
			continue
		}
		seen[k]++
		if seen[k] == 2 {
			out = append(out, k)
		}
	}
	return out
}
