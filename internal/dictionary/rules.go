// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package dictionary

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Field is one of the text fields that can identify a variable.
type Field uint8

const (
	FieldQuestion Field = 1 << iota
	FieldItem
	FieldLabel
)

// FieldSet is a combination of Fields.
type FieldSet uint8

// Has reports whether f is in the set.
func (s FieldSet) Has(f Field) bool {
	return s&FieldSet(f) != 0
}

// Empty reports whether the set contains no field.
func (s FieldSet) Empty() bool {
	return s == 0
}

func (s FieldSet) String() string {
	var parts []string
	if s.Has(FieldQuestion) {
		parts = append(parts, "question")
	}
	if s.Has(FieldItem) {
		parts = append(parts, "item")
	}
	if s.Has(FieldLabel) {
		parts = append(parts, "label")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

const (
	question          = FieldSet(FieldQuestion)
	questionItem      = FieldSet(FieldQuestion | FieldItem)
	questionItemLabel = FieldSet(FieldQuestion | FieldItem | FieldLabel)
)

// ErrUnsupportedVariant is matched by every UnsupportedVariantError.
var ErrUnsupportedVariant = errors.New("unsupported question variant")

// UnsupportedVariantError reports a (type, selector, sub-selector)
// combination the rule table does not know.
type UnsupportedVariantError struct {
	Type        string
	Selector    string
	SubSelector string
}

func (e *UnsupportedVariantError) Error() string {
	return fmt.Sprintf("%s: type=%q selector=%q sub_selector=%q", ErrUnsupportedVariant, e.Type, e.Selector, e.SubSelector)
}

func (e *UnsupportedVariantError) Is(target error) bool {
	return target == ErrUnsupportedVariant
}

// anySub marks selector rules that do not depend on the sub-selector.
const anySub = "*"

// TextEntrySubSelector marks the free-text companion variable of an MC
// choice that allows text entry (export key QIDn_<choice>_TEXT).
const TextEntrySubSelector = "TEXT"

// fieldRules maps type -> selector -> sub-selector -> fields.
var fieldRules = map[string]map[string]map[string]FieldSet{
	"MC": {
		"SAVR":  {anySub: question, TextEntrySubSelector: questionItem},
		"SAHR":  {anySub: question, TextEntrySubSelector: questionItem},
		"SACOL": {anySub: question, TextEntrySubSelector: questionItem},
		"DL":    {anySub: question, TextEntrySubSelector: questionItem},
		"SB":    {anySub: question, TextEntrySubSelector: questionItem},
		"NPS":   {anySub: question, TextEntrySubSelector: questionItem},
		"MAVR":  {anySub: questionItem, TextEntrySubSelector: questionItem},
		"MAHR":  {anySub: questionItem, TextEntrySubSelector: questionItem},
		"MACOL": {anySub: questionItem, TextEntrySubSelector: questionItem},
		"MSB":   {anySub: questionItem, TextEntrySubSelector: questionItem},
	},
	"Matrix": {
		"Likert": {
			"SingleAnswer":   questionItem,
			"DL":             questionItem,
			"MultipleAnswer": questionItemLabel,
		},
		"Bipolar": {anySub: questionItem},
		"Profile": {anySub: questionItem},
		"RO":      {anySub: questionItem},
		"CS":      {anySub: questionItem},
		"MaxDiff": {anySub: questionItem},
		"TE": {
			"":       questionItemLabel,
			"Short":  questionItemLabel,
			"Medium": questionItemLabel,
			"Long":   questionItemLabel,
		},
	},
	"Slider": {
		"HSLIDER": {anySub: questionItem},
		"HBAR":    {anySub: questionItem},
		"STAR":    {anySub: questionItem},
	},
	"TE": {
		"SL":   {anySub: question},
		"ML":   {anySub: question},
		"ESTB": {anySub: question},
		"PW":   {anySub: question},
		"FORM": {anySub: questionItem},
	},
	"SBS": {
		"SBSMatrix": {anySub: questionItem},
	},
	"CS": {
		"VRTL":    {anySub: questionItem},
		"HR":      {anySub: questionItem},
		"HBAR":    {anySub: questionItem},
		"HSLIDER": {anySub: questionItem},
	},
}

var multiAnswerSelectors = map[string]bool{"MAVR": true, "MAHR": true, "MACOL": true, "MSB": true}

// displayOnlyTypes carry no response data and are skipped by the builder.
var displayOnlyTypes = map[string]bool{"DB": true, "Timing": true, "Meta": true}

// IdentifyingFields returns the text fields that together identify a variable
// of the given variant within a survey. The item field is dropped when the
// variable has no item text. Unknown variants return an
// *UnsupportedVariantError.
func IdentifyingFields(qtype, selector, subSelector string, hasItem bool) (FieldSet, error) {
	selectors, ok := fieldRules[qtype]
	if !ok {
		return 0, &UnsupportedVariantError{Type: qtype, Selector: selector, SubSelector: subSelector}
	}
	subs, ok := selectors[selector]
	if !ok {
		return 0, &UnsupportedVariantError{Type: qtype, Selector: selector, SubSelector: subSelector}
	}
	fields, ok := subs[subSelector]
	if !ok {
		fields, ok = subs[anySub]
	}
	if !ok {
		return 0, &UnsupportedVariantError{Type: qtype, Selector: selector, SubSelector: subSelector}
	}
	if !hasItem {
		fields &^= FieldSet(FieldItem)
	}
	return fields, nil
}

// Variant is one supported (type, selector, sub-selector) combination.
// SubSelector is "*" when any sub-selector is accepted.
type Variant struct {
	Type        string
	Selector    string
	SubSelector string
	Fields      FieldSet
}

// SupportedVariants lists the rule table, sorted by type and selector.
func SupportedVariants() []Variant {
	var out []Variant
	for t, selectors := range fieldRules {
		for sel, subs := range selectors {
			for sub, fields := range subs {
				out = append(out, Variant{Type: t, Selector: sel, SubSelector: sub, Fields: fields})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		if out[i].Selector != out[j].Selector {
			return out[i].Selector < out[j].Selector
		}
		return out[i].SubSelector < out[j].SubSelector
	})
	return out
}

// IdentifyingText joins the identifying fields of a variable with " - ".
// For variables with a label field, the label is the first row label.
func IdentifyingText(v Variable) (string, error) {
	fields, err := IdentifyingFields(v.Type, v.Selector, v.SubSelector, v.Item != "")
	if err != nil {
		return "", err
	}
	var parts []string
	if fields.Has(FieldQuestion) && v.Question != "" {
		parts = append(parts, v.Question)
	}
	if fields.Has(FieldItem) && v.Item != "" {
		parts = append(parts, v.Item)
	}
	if fields.Has(FieldLabel) && len(v.Labels) > 0 {
		parts = append(parts, v.Labels[0])
	}
	return strings.Join(parts, " - "), nil
}
