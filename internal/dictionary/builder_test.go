// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package dictionary

import (
	"context"
	"errors"
	"testing"

	"survey-dict/internal/expr"
	"survey-dict/internal/qualtrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSurvey() *qualtrics.Survey {
	return &qualtrics.Survey{
		ID:   "SV_test",
		Name: "Wellbeing",
		Questions: map[string]qualtrics.Question{
			"QID1": {
				ID: "QID1", Text: "<p>How satisfied are you with your <b>life</b>?</p>", ExportTag: "Q1",
				Type: "MC", Selector: "SAVR", SubSelector: "TX",
				Choices: []qualtrics.Choice{
					{ID: "1", Display: "Low", Recode: "1"},
					{ID: "2", Display: "High", Recode: "2"},
					{ID: "3", Display: "Other", Recode: "3", TextEntry: true},
				},
			},
			"QID2": {
				ID: "QID2", Text: "Which fruit do you eat?", ExportTag: "Fruit",
				Type: "MC", Selector: "MAVR", SubSelector: "TX",
				Choices: []qualtrics.Choice{{ID: "1", Display: "Apples"}, {ID: "2", Display: "Pears"}},
			},
			"QID3": {
				ID: "QID3", Text: "Rate the following", ExportTag: "Q3",
				Type: "Matrix", Selector: "Likert", SubSelector: "SingleAnswer",
				Choices: []qualtrics.Choice{{ID: "1", Display: "Sleep"}, {ID: "2", Display: "Appetite"}},
				Answers: []qualtrics.Choice{{ID: "1", Display: "Never", Recode: "0"}, {ID: "2", Display: "Always", Recode: "1"}},
			},
			"QID4": {
				ID: "QID4", Text: "Intro", ExportTag: "Q4", Type: "DB", Selector: "TB",
			},
			"QID5": {
				ID: "QID5", Text: "Your age", ExportTag: "Age", Type: "TE", Selector: "SL", ContentType: "ValidNumber",
			},
			"QID6": {
				ID: "QID6", Text: "Hours per day", ExportTag: "Q6",
				Type: "Matrix", Selector: "TE", SubSelector: "Short",
				Choices: []qualtrics.Choice{{ID: "1", Display: "Work"}},
				Answers: []qualtrics.Choice{{ID: "1", Display: "Weekday"}, {ID: "2", Display: "Weekend"}},
			},
			"QID7": {
				ID: "QID7", Text: "Drinks", ExportTag: "Q7", Type: "SBS", Selector: "SBSMatrix",
				Choices: []qualtrics.Choice{{ID: "1", Display: "Coffee"}},
				Columns: []qualtrics.Column{{
					ID: "1", Text: "Frequency", Selector: "DL",
					Answers: []qualtrics.Choice{{ID: "1", Display: "Daily"}, {ID: "2", Display: "Weekly"}},
				}},
			},
			"QID8": {
				ID: "QID8", Text: "Energy", ExportTag: "Q8", Type: "Slider", Selector: "HSLIDER",
				Choices: []qualtrics.Choice{{ID: "1", Display: "Morning"}},
			},
		},
		Blocks: []qualtrics.Block{
			{ID: "BL_1", Description: "Intro", QuestionIDs: []string{"QID4", "QID1", "QID2"}},
			{ID: "BL_2", Description: "Mood", QuestionIDs: []string{"QID3", "QID5", "QID6", "QID7"}},
		},
	}
}

func variableQIDs(d *Dictionary) []string {
	var out []string
	for _, v := range d.Variables() {
		out = append(out, v.QID)
	}
	return out
}

func TestFromSurvey_VariablesInBlockOrder(t *testing.T) {
	d, err := FromSurvey(testSurvey(), DefaultBuildOptions())
	require.NoError(t, err)

	assert.Equal(t, "SV_test", d.SurveyID)
	assert.Equal(t, []string{
		"QID1", "QID1_3_TEXT", "QID2_1", "QID2_2",
		"QID3_1", "QID3_2", "QID5_TEXT", "QID6_1_1", "QID6_1_2", "QID7#1_1",
		"QID8_1",
	}, variableQIDs(d))

	for i, v := range d.Variables() {
		assert.Equal(t, i+1, v.Column, v.QID)
	}
	v, ok := d.Variable("QID8_1")
	require.True(t, ok)
	assert.Equal(t, "", v.Block, "questions outside blocks come last without a block")
}

func TestFromSurvey_MCSingle(t *testing.T) {
	d, err := FromSurvey(testSurvey(), DefaultBuildOptions())
	require.NoError(t, err)

	v, ok := d.Variable("QID1")
	require.True(t, ok)
	assert.Equal(t, "Q1", v.Name)
	assert.Equal(t, "Intro", v.Block)
	assert.Equal(t, "How satisfied are you with your life?", v.Question)
	assert.Equal(t, []Level{{"1", "Low"}, {"2", "High"}, {"3", "Other"}}, v.Levels)

	te, ok := d.Variable("QID1_3_TEXT")
	require.True(t, ok)
	assert.Equal(t, "Q1_3_TEXT", te.Name)
	assert.Equal(t, "Other (text entry)", te.Item)
	assert.Equal(t, TextEntrySubSelector, te.SubSelector)
	assert.False(t, te.HasLevels())
	assert.False(t, te.IsMultiAnswer())
	assert.Equal(t, "QID1_3_TEXT", te.SourceKey())
}

func TestFromSurvey_MCMulti(t *testing.T) {
	d, err := FromSurvey(testSurvey(), DefaultBuildOptions())
	require.NoError(t, err)

	v, ok := d.Variable("QID2_2")
	require.True(t, ok)
	assert.Equal(t, "Fruit_2", v.Name)
	assert.Equal(t, "Pears", v.Item)
	assert.Equal(t, []Level{{"1", "Pears"}}, v.Levels)
	assert.True(t, v.IsMultiAnswer())
	assert.Equal(t, "QID2", v.SourceKey())
}

func TestFromSurvey_Matrix(t *testing.T) {
	d, err := FromSurvey(testSurvey(), DefaultBuildOptions())
	require.NoError(t, err)

	row, ok := d.Variable("QID3_2")
	require.True(t, ok)
	assert.Equal(t, "Appetite", row.Item)
	assert.Equal(t, []Level{{"0", "Never"}, {"1", "Always"}}, row.Levels)

	cell, ok := d.Variable("QID6_1_2")
	require.True(t, ok)
	assert.Equal(t, "Work", cell.Item)
	assert.Empty(t, cell.Levels)
	assert.Equal(t, []string{"Weekend"}, cell.Labels)

	text, err := IdentifyingText(cell)
	require.NoError(t, err)
	assert.Equal(t, "Hours per day - Work - Weekend", text)
}

func TestFromSurvey_TextEntryAndSBS(t *testing.T) {
	d, err := FromSurvey(testSurvey(), DefaultBuildOptions())
	require.NoError(t, err)

	te, ok := d.Variable("QID5_TEXT")
	require.True(t, ok)
	assert.Equal(t, "ValidNumber", te.ContentType)
	assert.Equal(t, "Age_TEXT", te.Name)

	sbs, ok := d.Variable("QID7#1_1")
	require.True(t, ok)
	assert.Equal(t, "Q7_1_1", sbs.Name, "# is not kept in names")
	assert.Equal(t, "Frequency - Coffee", sbs.Item)
	assert.Equal(t, []Level{{"1", "Daily"}, {"2", "Weekly"}}, sbs.Levels)
}

func TestFromSurvey_RowsPerLevel(t *testing.T) {
	d, err := FromSurvey(testSurvey(), DefaultBuildOptions())
	require.NoError(t, err)

	var q1 []Row
	for _, r := range d.Rows {
		if r.QID == "QID1" {
			q1 = append(q1, r)
		}
	}
	require.Len(t, q1, 3)
	for _, r := range q1 {
		assert.Equal(t, "Q1", r.Name)
		assert.Equal(t, 1, r.Column)
		assert.Equal(t, "SAVR", r.Selector)
	}
}

func TestFromSurvey_UnsupportedVariant(t *testing.T) {
	s := testSurvey()
	s.Questions["QID9"] = qualtrics.Question{ID: "QID9", Type: "HeatMap", Selector: "HeatMap"}

	_, err := FromSurvey(s, DefaultBuildOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedVariant))
	var uv *UnsupportedVariantError
	require.True(t, errors.As(err, &uv))
	assert.Equal(t, "HeatMap", uv.Type)

	opts := DefaultBuildOptions()
	opts.SkipUnsupported = true
	d, err := FromSurvey(s, opts)
	require.NoError(t, err)
	assert.NotContains(t, variableQIDs(d), "QID9")
}

func TestFromSurvey_EasyNames(t *testing.T) {
	opts := DefaultBuildOptions()
	opts.VarName = NameEasy
	d, err := FromSurvey(testSurvey(), opts)
	require.NoError(t, err)

	v, _ := d.Variable("QID1")
	assert.Equal(t, "satisfied_life", v.Name)
	v, _ = d.Variable("QID2_1")
	assert.Equal(t, "fruit_eat_apples", v.Name)

	names := d.Names()
	seen := make(map[string]bool)
	for _, n := range names {
		assert.False(t, seen[n], "duplicate name %s", n)
		seen[n] = true
	}
}

func TestFromSurvey_BlockPrefixOverridesAndFilter(t *testing.T) {
	prefix, err := expr.NewBlockPrefix(`block.lowerAscii()`)
	require.NoError(t, err)
	filter, err := expr.NewRowFilter(`block == "Mood"`)
	require.NoError(t, err)

	opts := DefaultBuildOptions()
	opts.BlockPrefix = prefix
	opts.BlockSep = "_"
	opts.Overrides = map[string]string{"QID5_TEXT": "age"}
	opts.Filter = filter

	d, err := FromSurvey(testSurvey(), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"QID3_1", "QID3_2", "QID5_TEXT", "QID6_1_1", "QID6_1_2", "QID7#1_1"}, variableQIDs(d))

	v, _ := d.Variable("QID3_1")
	assert.Equal(t, "mood_Q3_1", v.Name)
	assert.Equal(t, 1, v.Column)
	v, _ = d.Variable("QID5_TEXT")
	assert.Equal(t, "age", v.Name)
}

func TestFromSurvey_SnakeStyle(t *testing.T) {
	opts := DefaultBuildOptions()
	opts.NameStyle = StyleSnake
	d, err := FromSurvey(testSurvey(), opts)
	require.NoError(t, err)

	v, _ := d.Variable("QID5_TEXT")
	assert.Equal(t, "age_text", v.Name)
}

func TestFromSurvey_InvalidMode(t *testing.T) {
	opts := DefaultBuildOptions()
	opts.VarName = "shortname"
	_, err := FromSurvey(testSurvey(), opts)
	assert.Error(t, err)
}

type stubFetcher struct {
	survey *qualtrics.Survey
	err    error
	calls  []string
}

func (s *stubFetcher) FetchSurvey(_ context.Context, id string) (*qualtrics.Survey, error) {
	s.calls = append(s.calls, id)
	return s.survey, s.err
}

func TestBuilder_Build(t *testing.T) {
	f := &stubFetcher{survey: testSurvey()}
	d, err := NewBuilder(f, DefaultBuildOptions()).Build(context.Background(), "SV_test")
	require.NoError(t, err)
	assert.Equal(t, []string{"SV_test"}, f.calls)
	assert.NotEmpty(t, d.Rows)

	f = &stubFetcher{err: errors.New("boom")}
	_, err = NewBuilder(f, DefaultBuildOptions()).Build(context.Background(), "SV_x")
	assert.ErrorContains(t, err, "boom")
}
