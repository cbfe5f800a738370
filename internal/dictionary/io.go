// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package dictionary

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// CSVHeader is the column order of dictionary CSV files.
var CSVHeader = []string{
	"qid", "question_id", "name", "block", "question", "item", "level", "label",
	"type", "selector", "sub_selector", "content_type", "column",
}

// Record returns the row as CSV fields in CSVHeader order.
func (r Row) Record() []string {
	return []string{
		r.QID, r.QuestionID, r.Name, r.Block, r.Question, r.Item, r.Level, r.Label,
		r.Type, r.Selector, r.SubSelector, r.ContentType, strconv.Itoa(r.Column),
	}
}

// WriteCSV writes the dictionary with a header line.
func WriteCSV(w io.Writer, d *Dictionary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range d.Rows {
		if err := cw.Write(r.Record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a dictionary written by WriteCSV. Columns are matched by
// header name; unknown columns are ignored and missing ones left empty.
func ReadCSV(r io.Reader) (*Dictionary, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return &Dictionary{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	if _, ok := index["qid"]; !ok {
		return nil, fmt.Errorf("missing qid column")
	}

	d := &Dictionary{}
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		get := func(col string) string {
			if i, ok := index[col]; ok && i < len(rec) {
				return rec[i]
			}
			return ""
		}
		row := Row{
			QID:         get("qid"),
			QuestionID:  get("question_id"),
			Name:        get("name"),
			Block:       get("block"),
			Question:    get("question"),
			Item:        get("item"),
			Level:       get("level"),
			Label:       get("label"),
			Type:        get("type"),
			Selector:    get("selector"),
			SubSelector: get("sub_selector"),
			ContentType: get("content_type"),
		}
		if c := get("column"); c != "" {
			n, err := strconv.Atoi(c)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid column %q", line, c)
			}
			row.Column = n
		}
		d.Rows = append(d.Rows, row)
	}
	return d, nil
}

// Load reads a dictionary file. The format follows the extension: .csv,
// .json, or .yaml/.yml. JSON and YAML documents must carry a rows list.
func Load(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dictionary: %w", err)
	}
	defer f.Close()

	var d *Dictionary
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		d, err = ReadCSV(f)
	case ".json":
		d = &Dictionary{}
		err = json.NewDecoder(f).Decode(d)
	case ".yaml", ".yml":
		d = &Dictionary{}
		err = yaml.NewDecoder(f).Decode(d)
		if err == io.EOF {
			err = nil
		}
	default:
		return nil, fmt.Errorf("unsupported dictionary format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse dictionary %s: %w", path, err)
	}
	// A JSON or YAML document without a rows list (a variable summary, say)
	// is not a dictionary.
	if d.Rows == nil && !strings.EqualFold(filepath.Ext(path), ".csv") {
		return nil, fmt.Errorf("dictionary %s has no rows", path)
	}
	return d, nil
}

// Save writes a dictionary file in the format given by its extension.
func Save(path string, d *Dictionary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dictionary file: %w", err)
	}
	if err := Write(f, d, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write encodes a dictionary as csv, json or yaml.
func Write(w io.Writer, d *Dictionary, format string) error {
	switch format {
	case "csv":
		return WriteCSV(w, d)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported dictionary format %q", format)
}
