// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package dictionary

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Match types of a correspondence.
const (
	MatchExact = "exact"
	MatchFuzzy = "fuzzy"
)

// DefaultMaxDistance is the edit distance threshold used when none is set.
const DefaultMaxDistance = 5

// CompareOptions tunes the matcher.
type CompareOptions struct {
	// MaxDistance is the largest Levenshtein distance accepted for a fuzzy
	// match. Zero disables fuzzy matching; negative values are rejected.
	MaxDistance int
}

// DefaultCompareOptions returns options with DefaultMaxDistance.
func DefaultCompareOptions() CompareOptions {
	return CompareOptions{MaxDistance: DefaultMaxDistance}
}

// Correspondence pairs a variable of a dictionary with a variable of a
// reference dictionary.
type Correspondence struct {
	Name            string `json:"name" yaml:"name"`
	NameReference   string `json:"name_reference" yaml:"name_reference"`
	Text            string `json:"text" yaml:"text"`
	TextReference   string `json:"text_reference" yaml:"text_reference"`
	MatchType       string `json:"match_type" yaml:"match_type"`
	Distance        int    `json:"distance" yaml:"distance"`
	LabelMatch      bool   `json:"label_match" yaml:"label_match"`
	LevelCountMatch bool   `json:"level_count_match" yaml:"level_count_match"`
}

type candidate struct {
	v    Variable
	text string
}

// Compare matches the variables of dict to those of reference by their
// identifying text: exact equality first, then the closest remaining texts
// within opts.MaxDistance edits. Each variable appears in at most one
// correspondence. Variables without identifying text take no part. The
// result follows the column order of dict.
func Compare(dict, reference *Dictionary, opts CompareOptions) ([]Correspondence, error) {
	if opts.MaxDistance < 0 {
		return nil, fmt.Errorf("max distance must be >= 0, got %d", opts.MaxDistance)
	}
	left, err := candidates(dict)
	if err != nil {
		return nil, err
	}
	right, err := candidates(reference)
	if err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}

	pairs := make(map[int]int)
	distances := make(map[int]int)
	usedRight := make(map[int]bool)

	byText := make(map[string][]int)
	for j, c := range right {
		byText[c.text] = append(byText[c.text], j)
	}
	for i, c := range left {
		queue := byText[c.text]
		for len(queue) > 0 && usedRight[queue[0]] {
			queue = queue[1:]
		}
		if len(queue) == 0 {
			continue
		}
		j := queue[0]
		byText[c.text] = queue[1:]
		pairs[i] = j
		distances[i] = 0
		usedRight[j] = true
	}

	if opts.MaxDistance > 0 {
		type scored struct{ i, j, d int }
		var all []scored
		for i, lc := range left {
			if _, ok := pairs[i]; ok {
				continue
			}
			for j, rc := range right {
				if usedRight[j] {
					continue
				}
				if d := levenshtein.ComputeDistance(lc.text, rc.text); d <= opts.MaxDistance {
					all = append(all, scored{i, j, d})
				}
			}
		}
		sort.Slice(all, func(a, b int) bool {
			if all[a].d != all[b].d {
				return all[a].d < all[b].d
			}
			if left[all[a].i].v.Column != left[all[b].i].v.Column {
				return left[all[a].i].v.Column < left[all[b].i].v.Column
			}
			return right[all[a].j].v.Column < right[all[b].j].v.Column
		})
		for _, s := range all {
			if _, ok := pairs[s.i]; ok || usedRight[s.j] {
				continue
			}
			pairs[s.i] = s.j
			distances[s.i] = s.d
			usedRight[s.j] = true
		}
	}

	var out []Correspondence
	for i, lc := range left {
		j, ok := pairs[i]
		if !ok {
			continue
		}
		rc := right[j]
		c := Correspondence{
			Name:            lc.v.Name,
			NameReference:   rc.v.Name,
			Text:            lc.text,
			TextReference:   rc.text,
			MatchType:       MatchExact,
			Distance:        distances[i],
			LabelMatch:      sameLevels(lc.v.Levels, rc.v.Levels),
			LevelCountMatch: len(lc.v.Levels) == len(rc.v.Levels),
		}
		if c.Distance > 0 {
			c.MatchType = MatchFuzzy
		}
		out = append(out, c)
	}
	return out, nil
}

func candidates(d *Dictionary) ([]candidate, error) {
	vars := d.Variables()
	out := make([]candidate, 0, len(vars))
	for _, v := range vars {
		text, err := IdentifyingText(v)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", v.QID, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		out = append(out, candidate{v: v, text: text})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].v.Column < out[j].v.Column })
	return out, nil
}

// sameLevels reports whether both level -> label sets are identical.
func sameLevels(a, b []Level) bool {
	if len(a) != len(b) {
		return false
	}
	am := Variable{Levels: a}.LevelMap()
	bm := Variable{Levels: b}.LevelMap()
	if len(am) != len(bm) {
		return false
	}
	for k, v := range am {
		if w, ok := bm[k]; !ok || w != v {
			return false
		}
	}
	return true
}
