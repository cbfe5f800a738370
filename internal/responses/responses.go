// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package responses turns exported survey responses into labelled datasets
// using a variable dictionary.
package responses

import (
	"fmt"
	"strconv"
	"strings"

	"survey-dict/internal/dictionary"
	"survey-dict/internal/qualtrics"
)

// Table holds raw exported responses keyed by export key.
type Table struct {
	IDs  []string
	Rows []map[string]interface{}
}

// NewTable wraps exported responses. The responses are not copied.
func NewTable(rs []qualtrics.Response) *Table {
	t := &Table{IDs: make([]string, len(rs)), Rows: make([]map[string]interface{}, len(rs))}
	for i, r := range rs {
		t.IDs[i] = r.ID
		t.Rows[i] = r.Values
	}
	return t
}

// Len returns the number of respondents.
func (t *Table) Len() int {
	return len(t.Rows)
}

// RecodeOptions controls the values substituted for missing answers.
type RecodeOptions struct {
	// UnansweredRecode replaces missing values of single-value variables.
	UnansweredRecode *float64
	// UnansweredRecodeMulti replaces the values of multi-answer variables
	// whose question was not answered. It defaults to UnansweredRecode.
	UnansweredRecodeMulti *float64
}

// Column is one named variable of a dataset.
type Column struct {
	Name  string
	QID   string
	Block string
	// Label is the identifying text of the variable.
	Label  string
	Levels []dictionary.Level
	// Values has one entry per respondent: float64, string or nil.
	Values []interface{}
}

// Labels returns the level -> label set attached to the column.
func (c *Column) Labels() []dictionary.Level {
	if len(c.Levels) == 0 {
		return nil
	}
	out := make([]dictionary.Level, len(c.Levels))
	copy(out, c.Levels)
	return out
}

// Dataset is a recoded response table with one column per dictionary variable.
type Dataset struct {
	IDs     []string
	Columns []Column
}

// Column returns the column with the given name.
func (d *Dataset) Column(name string) (*Column, bool) {
	for i := range d.Columns {
		if d.Columns[i].Name == name {
			return &d.Columns[i], true
		}
	}
	return nil, false
}

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// SplitByBlock returns one dataset per block. Every part keeps the
// respondent ids.
func (d *Dataset) SplitByBlock() map[string]*Dataset {
	out := make(map[string]*Dataset)
	for _, c := range d.Columns {
		part, ok := out[c.Block]
		if !ok {
			part = &Dataset{IDs: d.IDs}
			out[c.Block] = part
		}
		part.Columns = append(part.Columns, c)
	}
	return out
}

// Recode renames the export keys of table to the dictionary names and
// attaches level labels. Multi-answer choices become 1 when selected and 0
// when the question was answered without selecting them. Keys absent from the
// dictionary are dropped.
func Recode(table *Table, dict *dictionary.Dictionary, opts RecodeOptions) (*Dataset, error) {
	if table == nil || dict == nil {
		return nil, fmt.Errorf("table and dictionary are required")
	}
	multiMissing := opts.UnansweredRecodeMulti
	if multiMissing == nil {
		multiMissing = opts.UnansweredRecode
	}

	vars := dict.Variables()
	ds := &Dataset{IDs: append([]string(nil), table.IDs...), Columns: make([]Column, 0, len(vars))}
	seen := make(map[string]string, len(vars))
	for _, v := range vars {
		if other, dup := seen[v.Name]; dup {
			return nil, fmt.Errorf("name %q is used by %s and %s", v.Name, other, v.QID)
		}
		seen[v.Name] = v.QID

		label, err := dictionary.IdentifyingText(v)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", v.QID, err)
		}
		col := Column{
			Name:   v.Name,
			QID:    v.QID,
			Block:  v.Block,
			Label:  label,
			Levels: v.Levels,
			Values: make([]interface{}, table.Len()),
		}

		multi := v.IsMultiAnswer()
		key := v.SourceKey()
		choice := strings.TrimPrefix(v.QID, key+"_")
		for i, row := range table.Rows {
			raw, ok := row[key]
			switch {
			case !ok || raw == nil:
				col.Values[i] = missing(multi, opts.UnansweredRecode, multiMissing)
			case multi:
				col.Values[i] = selected(raw, choice)
			default:
				col.Values[i] = scalar(raw, v.HasLevels())
			}
		}
		ds.Columns = append(ds.Columns, col)
	}
	return ds, nil
}

func missing(multi bool, single, multiValue *float64) interface{} {
	r := single
	if multi {
		r = multiValue
	}
	if r == nil {
		return nil
	}
	return *r
}

// selected reports 1 when the exported selection contains the choice id.
func selected(raw interface{}, choice string) interface{} {
	items, ok := raw.([]interface{})
	if !ok {
		items = []interface{}{raw}
	}
	for _, it := range items {
		if valueString(it) == choice {
			return 1.0
		}
	}
	return 0.0
}

// scalar converts numeric strings of categorical variables to numbers.
func scalar(raw interface{}, categorical bool) interface{} {
	if s, ok := raw.(string); ok && categorical {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return raw
}

func valueString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		return dictionary.FormatLevel(t)
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
