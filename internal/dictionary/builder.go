// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package dictionary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"survey-dict/internal/expr"
	"survey-dict/internal/keywords"
	"survey-dict/internal/observability"
	"survey-dict/internal/qualtrics"
)

// BuildOptions controls naming and selection of dictionary variables.
type BuildOptions struct {
	// VarName is NameQuestion (default) or NameEasy.
	VarName string
	// NameStyle is StyleAsIs (default) or StyleSnake.
	NameStyle string
	// MaxNameWords limits the keyword words taken from each identifying
	// field in easyname mode. Zero means 2.
	MaxNameWords int
	// BlockPrefix, when set, prefixes names with a value derived from the
	// block name, joined by BlockSep.
	BlockPrefix *expr.BlockPrefix
	BlockSep    string
	// Overrides maps qid -> name and wins over every other naming rule.
	Overrides map[string]string
	// Filter keeps only the variables it matches.
	Filter *expr.RowFilter
	// SkipUnsupported drops questions of unknown variants instead of failing.
	SkipUnsupported bool
	Observer        *observability.StandardObserver
}

// DefaultBuildOptions returns the options used when none are configured.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		VarName:      NameQuestion,
		NameStyle:    StyleAsIs,
		MaxNameWords: 2,
		BlockSep:     ".",
	}
}

// SurveyFetcher retrieves survey metadata. *qualtrics.Client implements it.
type SurveyFetcher interface {
	FetchSurvey(ctx context.Context, surveyID string) (*qualtrics.Survey, error)
}

// Builder fetches survey metadata and turns it into a dictionary.
type Builder struct {
	fetcher SurveyFetcher
	opts    BuildOptions
}

// NewBuilder creates a builder backed by fetcher.
func NewBuilder(fetcher SurveyFetcher, opts BuildOptions) *Builder {
	return &Builder{fetcher: fetcher, opts: opts}
}

// Build fetches the survey definition and builds its dictionary.
func (b *Builder) Build(ctx context.Context, surveyID string) (*Dictionary, error) {
	finish := b.opts.Observer.StartTiming("dictionary", "build", surveyID)
	survey, err := b.fetcher.FetchSurvey(ctx, surveyID)
	if err != nil {
		finish(false, map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("failed to fetch survey %s: %w", surveyID, err)
	}
	dict, err := FromSurvey(survey, b.opts)
	if err != nil {
		finish(false, map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	if dict.SurveyID == "" {
		dict.SurveyID = surveyID
	}
	finish(true, map[string]interface{}{"variables": len(dict.Variables()), "rows": len(dict.Rows)})
	return dict, nil
}

// draft is a variable before naming.
type draft struct {
	Variable
	exportTag string
}

// FromSurvey builds the dictionary of an already fetched survey. Questions
// follow block order; display-only questions produce no variables.
func FromSurvey(survey *qualtrics.Survey, opts BuildOptions) (*Dictionary, error) {
	if survey == nil {
		return nil, errors.New("survey can't be nil")
	}
	debug := opts.Observer.Debug()

	var drafts []draft
	for _, ref := range survey.QuestionsInOrder() {
		q := ref.Question
		if displayOnlyTypes[q.Type] {
			continue
		}
		vars, err := questionVariables(ref)
		if err != nil {
			if opts.SkipUnsupported && errors.Is(err, ErrUnsupportedVariant) {
				debug.LogDetail("dictionary", fmt.Sprintf("skipping %s: %v", q.ID, err))
				continue
			}
			return nil, fmt.Errorf("question %s: %w", q.ID, err)
		}
		drafts = append(drafts, vars...)
	}

	if err := assignNames(drafts, opts); err != nil {
		return nil, err
	}

	dict := &Dictionary{SurveyID: survey.ID}
	column := 0
	for _, d := range drafts {
		if opts.Filter != nil {
			ok, err := opts.Filter.Match(d.ToVars())
			if err != nil {
				return nil, fmt.Errorf("variable %s: %w", d.QID, err)
			}
			if !ok {
				continue
			}
		}
		column++
		d.Column = column
		dict.Rows = append(dict.Rows, d.rows()...)
	}
	debug.LogMetric("dictionary", "variables", column)
	return dict, nil
}

// rows expands a variable to one row per level, or a single row when it has
// no levels.
func (v Variable) rows() []Row {
	base := Row{
		QID:         v.QID,
		QuestionID:  v.QuestionID,
		Name:        v.Name,
		Block:       v.Block,
		Question:    v.Question,
		Item:        v.Item,
		Type:        v.Type,
		Selector:    v.Selector,
		SubSelector: v.SubSelector,
		ContentType: v.ContentType,
		Column:      v.Column,
	}
	if len(v.Levels) == 0 {
		if len(v.Labels) > 0 {
			base.Label = v.Labels[0]
		}
		return []Row{base}
	}
	out := make([]Row, len(v.Levels))
	for i, l := range v.Levels {
		r := base
		r.Level = l.Value
		r.Label = l.Label
		out[i] = r
	}
	return out
}

func questionVariables(ref qualtrics.QuestionRef) ([]draft, error) {
	q := ref.Question
	if _, err := IdentifyingFields(q.Type, q.Selector, q.SubSelector, true); err != nil {
		return nil, err
	}
	base := draft{
		Variable: Variable{
			QuestionID:  q.ID,
			Block:       ref.Block,
			Question:    CleanText(q.Text),
			Type:        q.Type,
			Selector:    q.Selector,
			SubSelector: q.SubSelector,
			ContentType: q.ContentType,
		},
		exportTag: q.ExportTag,
	}
	variable := func(qid, item string) draft {
		d := base
		d.QID = qid
		d.Item = item
		return d
	}

	var out []draft
	switch q.Type {
	case "MC":
		if multiAnswerSelectors[q.Selector] {
			for _, c := range q.Choices {
				item := CleanText(c.Display)
				d := variable(q.ID+"_"+c.ID, item)
				d.Levels = []Level{{Value: "1", Label: item}}
				d.Labels = []string{item}
				out = append(out, d)
			}
		} else {
			d := variable(q.ID, "")
			d.Levels, d.Labels = choiceLevels(q.Choices)
			out = append(out, d)
		}
		for _, c := range q.Choices {
			if !c.TextEntry {
				continue
			}
			d := variable(q.ID+"_"+c.ID+"_TEXT", CleanText(c.Display)+" (text entry)")
			d.SubSelector = TextEntrySubSelector
			out = append(out, d)
		}

	case "Matrix":
		for _, row := range q.Choices {
			item := CleanText(row.Display)
			switch {
			case q.Selector == "TE":
				for _, a := range q.Answers {
					d := variable(q.ID+"_"+row.ID+"_"+a.ID, item)
					d.Labels = []string{CleanText(a.Display)}
					out = append(out, d)
				}
			case q.Selector == "Likert" && q.SubSelector == "MultipleAnswer":
				for _, a := range q.Answers {
					label := CleanText(a.Display)
					d := variable(q.ID+"_"+row.ID+"_"+a.ID, item)
					d.Levels = []Level{{Value: "1", Label: label}}
					d.Labels = []string{label}
					out = append(out, d)
				}
			default:
				d := variable(q.ID+"_"+row.ID, item)
				d.Levels, d.Labels = choiceLevels(q.Answers)
				out = append(out, d)
			}
		}

	case "Slider", "CS":
		for _, c := range q.Choices {
			out = append(out, variable(q.ID+"_"+c.ID, CleanText(c.Display)))
		}

	case "TE":
		if q.Selector == "FORM" {
			for _, c := range q.Choices {
				out = append(out, variable(q.ID+"_"+c.ID, CleanText(c.Display)))
			}
		} else {
			out = append(out, variable(q.ID+"_TEXT", ""))
		}

	case "SBS":
		for _, col := range q.Columns {
			header := CleanText(col.Text)
			for _, row := range q.Choices {
				item := CleanText(row.Display)
				if header != "" {
					item = header + " - " + item
				}
				d := variable(q.ID+"#"+col.ID+"_"+row.ID, item)
				d.Levels, d.Labels = choiceLevels(col.Answers)
				out = append(out, d)
			}
		}
	}
	return out, nil
}

func choiceLevels(choices []qualtrics.Choice) ([]Level, []string) {
	if len(choices) == 0 {
		return nil, nil
	}
	levels := make([]Level, len(choices))
	labels := make([]string, len(choices))
	for i, c := range choices {
		label := CleanText(c.Display)
		levels[i] = Level{Value: c.Level(), Label: label}
		labels[i] = label
	}
	return levels, labels
}

// assignNames sets the Name of every draft according to opts.
func assignNames(drafts []draft, opts BuildOptions) error {
	mode := opts.VarName
	if mode == "" {
		mode = NameQuestion
	}
	if mode != NameQuestion && mode != NameEasy {
		return fmt.Errorf("unknown var_name mode %q (want %s or %s)", mode, NameQuestion, NameEasy)
	}
	maxWords := opts.MaxNameWords
	if maxWords <= 0 {
		maxWords = 2
	}
	sep := opts.BlockSep
	if sep == "" && opts.BlockPrefix != nil {
		sep = "."
	}

	ex := keywords.NewExtractor()
	prefixes := make(map[string]string)
	names := make([]string, len(drafts))
	for i, d := range drafts {
		name := questionName(d)
		if mode == NameEasy {
			if suggested := strings.ToLower(suggestName(ex, identifyingTexts(d.Variable), maxWords)); suggested != "" {
				name = suggested
			}
		}
		if opts.NameStyle == StyleSnake {
			name = SnakeCase(name)
		}

		if opts.BlockPrefix != nil && d.Block != "" {
			prefix, ok := prefixes[d.Block]
			if !ok {
				var err error
				prefix, err = opts.BlockPrefix.Prefix(d.Block)
				if err != nil {
					return err
				}
				prefixes[d.Block] = prefix
			}
			if prefix != "" {
				name = prefix + sep + name
			}
		}
		names[i] = name
	}

	// Export tags may legitimately collide; the validator reports those.
	if mode == NameEasy {
		names = Uniquify(names)
	}
	for i := range drafts {
		drafts[i].Name = names[i]
		if override, ok := opts.Overrides[drafts[i].QID]; ok && override != "" {
			drafts[i].Name = override
		}
	}
	return nil
}

// questionName is the export tag followed by the suffix the export key adds
// to the question id, sanitised.
func questionName(d draft) string {
	tag := d.exportTag
	if tag == "" {
		tag = d.QuestionID
	}
	return SanitizeName(tag + strings.TrimPrefix(d.QID, d.QuestionID))
}

// identifyingTexts returns the texts of the variable's identifying fields.
func identifyingTexts(v Variable) []string {
	fields, err := IdentifyingFields(v.Type, v.Selector, v.SubSelector, v.Item != "")
	if err != nil {
		return []string{v.Question}
	}
	var texts []string
	if fields.Has(FieldQuestion) {
		texts = append(texts, v.Question)
	}
	if fields.Has(FieldItem) {
		texts = append(texts, v.Item)
	}
	if fields.Has(FieldLabel) && len(v.Labels) > 0 {
		texts = append(texts, v.Labels[0])
	}
	return texts
}
