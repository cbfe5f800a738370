// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package responses

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"survey-dict/internal/dictionary"
)

// IDColumn is the name of the respondent id column in written datasets.
const IDColumn = "response_id"

// WriteCSV writes one line per respondent. Missing values are empty.
func WriteCSV(w io.Writer, d *Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{IDColumn}, d.Names()...)); err != nil {
		return err
	}
	record := make([]string, len(d.Columns)+1)
	for i, id := range d.IDs {
		record[0] = id
		for j, c := range d.Columns {
			record[j+1] = valueString(c.Values[i])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonVariable struct {
	Name   string             `json:"name"`
	QID    string             `json:"qid"`
	Block  string             `json:"block,omitempty"`
	Label  string             `json:"label"`
	Levels []dictionary.Level `json:"levels,omitempty"`
}

type jsonDataset struct {
	Variables []jsonVariable           `json:"variables"`
	Responses []map[string]interface{} `json:"responses"`
}

// WriteJSON writes the dataset with its variable and level labels.
func WriteJSON(w io.Writer, d *Dataset) error {
	out := jsonDataset{
		Variables: make([]jsonVariable, len(d.Columns)),
		Responses: make([]map[string]interface{}, len(d.IDs)),
	}
	for j, c := range d.Columns {
		out.Variables[j] = jsonVariable{Name: c.Name, QID: c.QID, Block: c.Block, Label: c.Label, Levels: c.Labels()}
	}
	for i, id := range d.IDs {
		rec := make(map[string]interface{}, len(d.Columns)+1)
		rec[IDColumn] = id
		for _, c := range d.Columns {
			rec[c.Name] = c.Values[i]
		}
		out.Responses[i] = rec
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding dataset: %w", err)
	}
	return nil
}

// Write encodes the dataset as csv or json.
func Write(w io.Writer, d *Dataset, format string) error {
	switch format {
	case "csv":
		return WriteCSV(w, d)
	case "json":
		return WriteJSON(w, d)
	}
	return fmt.Errorf("unsupported dataset format %q", format)
}
