// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package dictionary builds, validates and compares variable dictionaries:
// one row per survey variable and answer level, describing how raw export
// columns become named, labelled analysis variables.
package dictionary

import (
	"strconv"
	"strings"
)

// Row is one (variable, level) entry of a dictionary. Open variables without
// answer levels have a single row with an empty level.
type Row struct {
	QID         string `json:"qid" yaml:"qid"`
	QuestionID  string `json:"question_id" yaml:"question_id"`
	Name        string `json:"name" yaml:"name"`
	Block       string `json:"block" yaml:"block"`
	Question    string `json:"question" yaml:"question"`
	Item        string `json:"item" yaml:"item"`
	Level       string `json:"level" yaml:"level"`
	Label       string `json:"label" yaml:"label"`
	Type        string `json:"type" yaml:"type"`
	Selector    string `json:"selector" yaml:"selector"`
	SubSelector string `json:"sub_selector" yaml:"sub_selector"`
	ContentType string `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	Column      int    `json:"column" yaml:"column"`
}

// Level is one answer level of a variable.
type Level struct {
	Value string `json:"level" yaml:"level"`
	Label string `json:"label" yaml:"label"`
}

// Variable groups the rows sharing a qid.
type Variable struct {
	QID         string
	QuestionID  string
	Name        string
	Block       string
	Question    string
	Item        string
	Type        string
	Selector    string
	SubSelector string
	ContentType string
	Column      int
	// Levels are the answer levels in display order. Rows with an empty
	// level are not levels; their label, if any, is kept in Labels only.
	Levels []Level
	// Labels holds every row label, including those of rows without a level.
	Labels []string
}

// Dictionary is the variable dictionary of one survey.
type Dictionary struct {
	SurveyID string `json:"survey_id,omitempty" yaml:"survey_id,omitempty"`
	Rows     []Row  `json:"rows" yaml:"rows"`
}

// Variables groups rows by qid, in order of first appearance.
func (d *Dictionary) Variables() []Variable {
	if d == nil {
		return nil
	}
	index := make(map[string]int)
	var vars []Variable
	for _, r := range d.Rows {
		i, ok := index[r.QID]
		if !ok {
			i = len(vars)
			index[r.QID] = i
			vars = append(vars, Variable{
				QID:         r.QID,
				QuestionID:  r.QuestionID,
				Name:        r.Name,
				Block:       r.Block,
				Question:    r.Question,
				Item:        r.Item,
				Type:        r.Type,
				Selector:    r.Selector,
				SubSelector: r.SubSelector,
				ContentType: r.ContentType,
				Column:      r.Column,
			})
		}
		v := &vars[i]
		if r.Label != "" {
			v.Labels = append(v.Labels, r.Label)
		}
		if r.Level != "" {
			v.Levels = append(v.Levels, Level{Value: r.Level, Label: r.Label})
		}
	}
	return vars
}

// Variable returns the variable with the given qid.
func (d *Dictionary) Variable(qid string) (Variable, bool) {
	for _, v := range d.Variables() {
		if v.QID == qid {
			return v, true
		}
	}
	return Variable{}, false
}

// Names returns the distinct variable names in column order.
func (d *Dictionary) Names() []string {
	var names []string
	for _, v := range d.Variables() {
		names = append(names, v.Name)
	}
	return names
}

// QuestionIDs returns the distinct question ids in order of appearance.
func (d *Dictionary) QuestionIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, r := range d.Rows {
		if r.QuestionID != "" && !seen[r.QuestionID] {
			seen[r.QuestionID] = true
			ids = append(ids, r.QuestionID)
		}
	}
	return ids
}

// Blocks returns the distinct block names in order of appearance.
func (d *Dictionary) Blocks() []string {
	seen := make(map[string]bool)
	var blocks []string
	for _, r := range d.Rows {
		if !seen[r.Block] {
			seen[r.Block] = true
			blocks = append(blocks, r.Block)
		}
	}
	return blocks
}

// Filter returns a new dictionary with the rows of the variables for which
// keep returns true.
func (d *Dictionary) Filter(keep func(Variable) bool) *Dictionary {
	kept := make(map[string]bool)
	for _, v := range d.Variables() {
		if keep(v) {
			kept[v.QID] = true
		}
	}
	out := &Dictionary{SurveyID: d.SurveyID}
	for _, r := range d.Rows {
		if kept[r.QID] {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Without returns a new dictionary without the variables named in qids.
func (d *Dictionary) Without(qids map[string]bool) *Dictionary {
	return d.Filter(func(v Variable) bool { return !qids[v.QID] })
}

// SplitByBlock returns one dictionary per block, keyed by block name.
func (d *Dictionary) SplitByBlock() map[string]*Dictionary {
	out := make(map[string]*Dictionary)
	for _, r := range d.Rows {
		sub, ok := out[r.Block]
		if !ok {
			sub = &Dictionary{SurveyID: d.SurveyID}
			out[r.Block] = sub
		}
		sub.Rows = append(sub.Rows, r)
	}
	return out
}

// Rename sets the name of every row of the variable qid.
func (d *Dictionary) Rename(qid, name string) bool {
	found := false
	for i := range d.Rows {
		if d.Rows[i].QID == qid {
			d.Rows[i].Name = name
			found = true
		}
	}
	return found
}

// Clone returns a deep copy.
func (d *Dictionary) Clone() *Dictionary {
	out := &Dictionary{SurveyID: d.SurveyID, Rows: make([]Row, len(d.Rows))}
	copy(out.Rows, d.Rows)
	return out
}

// LevelMap returns the level -> label map of a variable.
func (v Variable) LevelMap() map[string]string {
	m := make(map[string]string, len(v.Levels))
	for _, l := range v.Levels {
		m[l.Value] = l.Label
	}
	return m
}

// HasLevels reports whether the variable is categorical.
func (v Variable) HasLevels() bool {
	return len(v.Levels) > 0
}

// IsMultiAnswer reports whether the variable is one choice of a
// multiple-answer question. Its export values are arrays held under the
// parent key (see SourceKey).
func (v Variable) IsMultiAnswer() bool {
	switch v.Type {
	case "MC":
		return multiAnswerSelectors[v.Selector] && v.SubSelector != TextEntrySubSelector
	case "Matrix":
		return v.Selector == "Likert" && v.SubSelector == "MultipleAnswer"
	}
	return false
}

// SourceKey is the key under which the platform exports this variable's
// value. Multi-answer variables share the key of their question or row.
func (v Variable) SourceKey() string {
	if v.IsMultiAnswer() {
		if i := strings.LastIndex(v.QID, "_"); i > 0 {
			return v.QID[:i]
		}
	}
	return v.QID
}

// ToVars exposes the variable's fields to row filter expressions.
func (v Variable) ToVars() map[string]string {
	return map[string]string{
		"qid":          v.QID,
		"question_id":  v.QuestionID,
		"name":         v.Name,
		"block":        v.Block,
		"question":     v.Question,
		"item":         v.Item,
		"type":         v.Type,
		"selector":     v.Selector,
		"sub_selector": v.SubSelector,
		"level":        levelValues(v.Levels),
		"label":        strings.Join(v.Labels, "|"),
	}
}

func levelValues(levels []Level) string {
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = l.Value
	}
	return strings.Join(parts, "|")
}

// FormatLevel renders a numeric export value the way levels are written.
func FormatLevel(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
