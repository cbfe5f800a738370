// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package qualtrics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Survey is the question metadata of one survey, flattened from the
// survey-definitions endpoint.
type Survey struct {
	ID        string
	Name      string
	Questions map[string]Question
	// Blocks are in survey-flow order. Trash blocks are dropped.
	Blocks []Block
}

// Block groups questions as they are presented to respondents.
type Block struct {
	ID          string
	Description string
	QuestionIDs []string
}

// Question is one survey question with its choices and answers in display order.
type Question struct {
	ID          string
	Text        string
	ExportTag   string
	Type        string
	Selector    string
	SubSelector string
	ContentType string
	// Choices are the answer options of MC questions or the rows/statements of
	// Matrix, Slider, CS, FORM and SBS questions.
	Choices []Choice
	// Answers are the scale points (columns) of Matrix questions.
	Answers []Choice
	// Columns are the additional questions of a side-by-side question.
	Columns []Column
}

// Choice is a choice, row or answer with its recode value.
type Choice struct {
	ID        string
	Display   string
	Recode    string
	TextEntry bool
}

// Level returns the value the choice takes in exported data: the recode value
// when one is set, the choice id otherwise.
func (c Choice) Level() string {
	if c.Recode != "" {
		return c.Recode
	}
	return c.ID
}

// Column is one column question of a side-by-side (SBS) question.
type Column struct {
	ID          string
	Text        string
	Selector    string
	SubSelector string
	Answers     []Choice
}

// QuestionsInOrder returns the survey's questions following block order;
// questions that no block references come last, sorted by id.
func (s *Survey) QuestionsInOrder() []QuestionRef {
	var refs []QuestionRef
	seen := make(map[string]bool)
	for _, b := range s.Blocks {
		for _, qid := range b.QuestionIDs {
			q, ok := s.Questions[qid]
			if !ok || seen[qid] {
				continue
			}
			seen[qid] = true
			refs = append(refs, QuestionRef{Block: b.Description, Question: q})
		}
	}

	var rest []string
	for qid := range s.Questions {
		if !seen[qid] {
			rest = append(rest, qid)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return lessQID(rest[i], rest[j]) })
	for _, qid := range rest {
		refs = append(refs, QuestionRef{Question: s.Questions[qid]})
	}
	return refs
}

// QuestionRef pairs a question with the description of its block.
type QuestionRef struct {
	Block    string
	Question Question
}

// lessQID orders QID7 before QID12.
func lessQID(a, b string) bool {
	na, errA := strconv.Atoi(strings.TrimPrefix(a, "QID"))
	nb, errB := strconv.Atoi(strings.TrimPrefix(b, "QID"))
	if errA == nil && errB == nil && na != nb {
		return na < nb
	}
	return a < b
}

// The wire types below mirror the survey-definitions payload. The API returns
// empty maps as [] and ids as either numbers or strings, hence the lenient
// decoders.

type definitionPayload struct {
	SurveyID   string                  `json:"SurveyID"`
	SurveyName string                  `json:"SurveyName"`
	Questions  map[string]wireQuestion `json:"Questions"`
	Blocks     lenientMap[wireBlock]   `json:"Blocks"`
	SurveyFlow *wireFlow               `json:"SurveyFlow"`
}

type wireQuestion struct {
	QuestionID          string                    `json:"QuestionID"`
	QuestionText        string                    `json:"QuestionText"`
	DataExportTag       string                    `json:"DataExportTag"`
	QuestionType        string                    `json:"QuestionType"`
	Selector            string                    `json:"Selector"`
	SubSelector         string                    `json:"SubSelector"`
	Choices             lenientMap[wireChoice]    `json:"Choices"`
	ChoiceOrder         idList                    `json:"ChoiceOrder"`
	Answers             lenientMap[wireChoice]    `json:"Answers"`
	AnswerOrder         idList                    `json:"AnswerOrder"`
	RecodeValues        lenientMap[lenientString] `json:"RecodeValues"`
	AdditionalQuestions lenientMap[wireQuestion]  `json:"AdditionalQuestions"`
	Validation          *wireValidation           `json:"Validation"`
}

type wireChoice struct {
	Display   string      `json:"Display"`
	TextEntry lenientBool `json:"TextEntry"`
}

type wireValidation struct {
	Settings struct {
		ContentType string `json:"ContentType"`
	} `json:"Settings"`
}

type wireBlock struct {
	Type          string `json:"Type"`
	Description   string `json:"Description"`
	ID            string `json:"ID"`
	BlockElements []struct {
		Type       string `json:"Type"`
		QuestionID string `json:"QuestionID"`
	} `json:"BlockElements"`
}

type wireFlow struct {
	Type string     `json:"Type"`
	ID   string     `json:"ID"`
	Flow []wireFlow `json:"Flow"`
}

// decodeDefinition converts the result object of GET /survey-definitions/{id}.
func decodeDefinition(raw []byte) (*Survey, error) {
	var p definitionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decoding survey definition: %w", err)
	}

	s := &Survey{
		ID:        p.SurveyID,
		Name:      p.SurveyName,
		Questions: make(map[string]Question, len(p.Questions)),
	}
	for key, wq := range p.Questions {
		q := convertQuestion(wq)
		if q.ID == "" {
			q.ID = key
		}
		s.Questions[q.ID] = q
	}

	blocksByID := make(map[string]wireBlock, len(p.Blocks))
	for key, b := range p.Blocks {
		if b.ID == "" {
			b.ID = key
		}
		blocksByID[b.ID] = b
	}

	var order []string
	if p.SurveyFlow != nil {
		order = flowBlockIDs(*p.SurveyFlow, nil)
	}
	var unflowed []string
	inFlow := make(map[string]bool, len(order))
	for _, id := range order {
		inFlow[id] = true
	}
	for id := range blocksByID {
		if !inFlow[id] {
			unflowed = append(unflowed, id)
		}
	}
	sort.Strings(unflowed)
	order = append(order, unflowed...)

	for _, id := range order {
		wb, ok := blocksByID[id]
		if !ok || strings.EqualFold(wb.Type, "Trash") {
			continue
		}
		b := Block{ID: wb.ID, Description: wb.Description}
		for _, el := range wb.BlockElements {
			if el.Type == "Question" && el.QuestionID != "" {
				b.QuestionIDs = append(b.QuestionIDs, el.QuestionID)
			}
		}
		s.Blocks = append(s.Blocks, b)
	}
	return s, nil
}

func flowBlockIDs(f wireFlow, acc []string) []string {
	switch f.Type {
	case "Block", "Standard", "Default":
		if f.ID != "" {
			acc = append(acc, f.ID)
		}
	}
	for _, child := range f.Flow {
		acc = flowBlockIDs(child, acc)
	}
	return acc
}

func convertQuestion(wq wireQuestion) Question {
	q := Question{
		ID:          wq.QuestionID,
		Text:        wq.QuestionText,
		ExportTag:   wq.DataExportTag,
		Type:        wq.QuestionType,
		Selector:    wq.Selector,
		SubSelector: wq.SubSelector,
	}
	if wq.Validation != nil {
		q.ContentType = wq.Validation.Settings.ContentType
	}

	// Matrix recodes apply to the answers (columns), MC recodes to the choices.
	if q.Type == "Matrix" {
		q.Choices = orderedChoices(wq.Choices, wq.ChoiceOrder, nil)
		q.Answers = orderedChoices(wq.Answers, wq.AnswerOrder, wq.RecodeValues)
	} else {
		q.Choices = orderedChoices(wq.Choices, wq.ChoiceOrder, wq.RecodeValues)
		q.Answers = orderedChoices(wq.Answers, wq.AnswerOrder, nil)
	}

	keys := make([]string, 0, len(wq.AdditionalQuestions))
	for k := range wq.AdditionalQuestions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return lessNumeric(keys[i], keys[j]) })
	for _, k := range keys {
		aq := wq.AdditionalQuestions[k]
		q.Columns = append(q.Columns, Column{
			ID:          k,
			Text:        aq.QuestionText,
			Selector:    aq.Selector,
			SubSelector: aq.SubSelector,
			Answers:     orderedChoices(aq.Answers, aq.AnswerOrder, aq.RecodeValues),
		})
	}
	return q
}

// orderedChoices returns the choices in the declared order; ids missing from
// the order are appended in numeric order.
func orderedChoices(m lenientMap[wireChoice], order idList, recodes lenientMap[lenientString]) []Choice {
	if len(m) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(m))
	var ids []string
	for _, id := range order {
		if _, ok := m[id]; ok && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	var rest []string
	for id := range m {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return lessNumeric(rest[i], rest[j]) })
	ids = append(ids, rest...)

	out := make([]Choice, 0, len(ids))
	for _, id := range ids {
		wc := m[id]
		out = append(out, Choice{
			ID:        id,
			Display:   wc.Display,
			Recode:    string(recodes[id]),
			TextEntry: bool(wc.TextEntry),
		})
	}
	return out
}

func lessNumeric(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}

// lenientMap decodes a JSON object, treating an empty array as an empty map.
type lenientMap[T any] map[string]T

func (m *lenientMap[T]) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] == '[' || bytes.Equal(trimmed, []byte("null")) {
		*m = nil
		return nil
	}
	var out map[string]T
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return err
	}
	*m = out
	return nil
}

// idList decodes an array of numbers or strings into strings.
type idList []string

func (l *idList) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		var s lenientString
		if err := json.Unmarshal(r, &s); err != nil {
			return err
		}
		out = append(out, string(s))
	}
	*l = out
	return nil
}

// lenientString accepts a JSON string or number.
type lenientString string

func (s *lenientString) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if bytes.Equal(trimmed, []byte("null")) {
		*s = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var v string
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return err
		}
		*s = lenientString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return err
	}
	*s = lenientString(n.String())
	return nil
}

// lenientBool accepts true/false as JSON booleans or strings.
type lenientBool bool

func (v *lenientBool) UnmarshalJSON(b []byte) error {
	switch strings.Trim(strings.ToLower(string(bytes.TrimSpace(b))), `"`) {
	case "true", "1", "on":
		*v = true
	default:
		*v = false
	}
	return nil
}
