// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package shared

import (
	"strconv"

	"survey-dict/internal/dictionary"
	"survey-dict/internal/formatters"
)

// Document is the structure rendered by the JSON and YAML formatters
type Document struct {
	Kind            string                       `json:"kind" yaml:"kind"`
	SurveyID        string                       `json:"survey_id,omitempty" yaml:"survey_id,omitempty"`
	ReferenceID     string                       `json:"reference_id,omitempty" yaml:"reference_id,omitempty"`
	Rows            []dictionary.Row             `json:"rows,omitempty" yaml:"rows,omitempty"`
	Variables       []VariableSummary            `json:"variables,omitempty" yaml:"variables,omitempty"`
	Validation      *dictionary.ValidationResult `json:"validation,omitempty" yaml:"validation,omitempty"`
	Correspondences []dictionary.Correspondence  `json:"correspondences,omitempty" yaml:"correspondences,omitempty"`
	Summary         Summary                      `json:"summary" yaml:"summary"`
}

// VariableSummary is one variable of a dictionary without its level rows
type VariableSummary struct {
	Column int    `json:"column" yaml:"column"`
	Name   string `json:"name" yaml:"name"`
	QID    string `json:"qid" yaml:"qid"`
	Block  string `json:"block" yaml:"block"`
	Type   string `json:"type" yaml:"type"`
	Text   string `json:"text" yaml:"text"`
	Levels int    `json:"levels" yaml:"levels"`
}

// Summary holds the counts shown at the end of every report
type Summary struct {
	Variables    int `json:"variables,omitempty" yaml:"variables,omitempty"`
	Rows         int `json:"rows,omitempty" yaml:"rows,omitempty"`
	NonUnique    int `json:"non_unique,omitempty" yaml:"non_unique,omitempty"`
	Mistakes     int `json:"mistakes,omitempty" yaml:"mistakes,omitempty"`
	Matches      int `json:"matches,omitempty" yaml:"matches,omitempty"`
	ExactMatches int `json:"exact_matches,omitempty" yaml:"exact_matches,omitempty"`
	FuzzyMatches int `json:"fuzzy_matches,omitempty" yaml:"fuzzy_matches,omitempty"`
}

// Summarize counts the contents of a report
func Summarize(report formatters.Report) Summary {
	var s Summary
	if report.Dictionary != nil {
		s.Variables = len(report.Dictionary.Variables())
		s.Rows = len(report.Dictionary.Rows)
	}
	if report.Validation != nil {
		s.NonUnique = len(report.Validation.NonUnique)
		s.Mistakes = len(report.Validation.Mistakes)
	}
	for _, c := range report.Correspondences {
		s.Matches++
		if c.MatchType == dictionary.MatchExact {
			s.ExactMatches++
		} else {
			s.FuzzyMatches++
		}
	}
	return s
}

// Summaries lists the variables of a dictionary with their identifying text
func Summaries(d *dictionary.Dictionary) []VariableSummary {
	var out []VariableSummary
	for _, v := range d.Variables() {
		text, err := dictionary.IdentifyingText(v)
		if err != nil {
			text = v.Question
		}
		out = append(out, VariableSummary{
			Column: v.Column,
			Name:   v.Name,
			QID:    v.QID,
			Block:  v.Block,
			Type:   v.Type + "/" + v.Selector,
			Text:   text,
			Levels: len(v.Levels),
		})
	}
	return out
}

// ConvertReport converts a report to the JSON/YAML document. Dictionaries
// always carry their level rows so the document can be loaded back; the
// variable list is added outside verbose mode.
func ConvertReport(report formatters.Report, options formatters.FormatterOptions) Document {
	doc := Document{
		Kind:        report.Kind,
		SurveyID:    report.SurveyID,
		ReferenceID: report.ReferenceID,
		Summary:     Summarize(report),
	}
	switch report.Kind {
	case formatters.KindDictionary:
		if report.Dictionary != nil {
			doc.Rows = report.Dictionary.Rows
			if !options.Verbose {
				doc.Variables = Summaries(report.Dictionary)
			}
		}
	case formatters.KindValidation:
		doc.Validation = report.Validation
	case formatters.KindCorrespondence:
		doc.Correspondences = report.Correspondences
	}
	return doc
}

// Table returns the report as a header and records, for tabular formats
func Table(report formatters.Report) ([]string, [][]string) {
	switch report.Kind {
	case formatters.KindDictionary:
		var records [][]string
		if report.Dictionary != nil {
			for _, r := range report.Dictionary.Rows {
				records = append(records, r.Record())
			}
		}
		return dictionary.CSVHeader, records

	case formatters.KindValidation:
		header := []string{"severity", "kind", "name", "qid", "detail"}
		var records [][]string
		if v := report.Validation; v != nil {
			for _, n := range v.NonUnique {
				for _, qid := range n.QIDs {
					records = append(records, []string{"error", "non_unique_name", n.Name, qid, ""})
				}
			}
			for _, m := range v.Mistakes {
				records = append(records, []string{"warning", string(m.Kind), m.Name, m.QID, m.Detail})
			}
		}
		return header, records

	case formatters.KindCorrespondence:
		header := []string{"name", "name_reference", "text", "text_reference", "match_type", "distance", "label_match", "level_count_match"}
		var records [][]string
		for _, c := range report.Correspondences {
			records = append(records, []string{
				c.Name, c.NameReference, c.Text, c.TextReference, c.MatchType,
				strconv.Itoa(c.Distance), strconv.FormatBool(c.LabelMatch), strconv.FormatBool(c.LevelCountMatch),
			})
		}
		return header, records
	}
	return nil, nil
}
