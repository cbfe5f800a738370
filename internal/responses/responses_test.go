// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package responses

import (
	"bytes"
	"encoding/json"
	"testing"

	"survey-dict/internal/dictionary"
	"survey-dict/internal/qualtrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDictionary() *dictionary.Dictionary {
	return &dictionary.Dictionary{Rows: []dictionary.Row{
		{QID: "QID1", QuestionID: "QID1", Name: "sat", Block: "Intro", Question: "Satisfied?", Type: "MC", Selector: "SAVR", Level: "1", Label: "Low", Column: 1},
		{QID: "QID1", QuestionID: "QID1", Name: "sat", Block: "Intro", Question: "Satisfied?", Type: "MC", Selector: "SAVR", Level: "2", Label: "High", Column: 1},
		{QID: "QID2_1", QuestionID: "QID2", Name: "fruit_apples", Block: "Intro", Question: "Fruit", Item: "Apples", Type: "MC", Selector: "MAVR", Level: "1", Label: "Apples", Column: 2},
		{QID: "QID2_2", QuestionID: "QID2", Name: "fruit_pears", Block: "Intro", Question: "Fruit", Item: "Pears", Type: "MC", Selector: "MAVR", Level: "1", Label: "Pears", Column: 3},
		{QID: "QID3_TEXT", QuestionID: "QID3", Name: "comment", Block: "Mood", Question: "Anything else?", Type: "TE", Selector: "SL", Column: 4},
	}}
}

func testTable() *Table {
	return NewTable([]qualtrics.Response{
		{ID: "R_1", Values: map[string]interface{}{"QID1": 2.0, "QID2": []interface{}{1.0}, "QID3_TEXT": "fine", "_recordId": "R_1"}},
		{ID: "R_2", Values: map[string]interface{}{"QID1": "1", "QID2": []interface{}{"1", "2"}}},
		{ID: "R_3", Values: map[string]interface{}{}},
	})
}

func TestRecode(t *testing.T) {
	ds, err := Recode(testTable(), testDictionary(), RecodeOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"R_1", "R_2", "R_3"}, ds.IDs)
	assert.Equal(t, []string{"sat", "fruit_apples", "fruit_pears", "comment"}, ds.Names())

	sat, ok := ds.Column("sat")
	require.True(t, ok)
	assert.Equal(t, []interface{}{2.0, 1.0, nil}, sat.Values)
	assert.Equal(t, "Satisfied?", sat.Label)

	apples, _ := ds.Column("fruit_apples")
	assert.Equal(t, []interface{}{1.0, 1.0, nil}, apples.Values)
	pears, _ := ds.Column("fruit_pears")
	assert.Equal(t, []interface{}{0.0, 1.0, nil}, pears.Values)
	assert.Equal(t, "Fruit - Pears", pears.Label)

	comment, _ := ds.Column("comment")
	assert.Equal(t, []interface{}{"fine", nil, nil}, comment.Values)
}

func TestRecode_UnansweredValues(t *testing.T) {
	single, multi := -99.0, -98.0

	ds, err := Recode(testTable(), testDictionary(), RecodeOptions{UnansweredRecode: &single})
	require.NoError(t, err)
	sat, _ := ds.Column("sat")
	assert.Equal(t, -99.0, sat.Values[2])
	pears, _ := ds.Column("fruit_pears")
	assert.Equal(t, -99.0, pears.Values[2], "multi falls back to the single value")

	ds, err = Recode(testTable(), testDictionary(), RecodeOptions{UnansweredRecode: &single, UnansweredRecodeMulti: &multi})
	require.NoError(t, err)
	pears, _ = ds.Column("fruit_pears")
	assert.Equal(t, []interface{}{0.0, 1.0, -98.0}, pears.Values)
}

func TestRecode_LabelsRoundTrip(t *testing.T) {
	dict := testDictionary()
	ds, err := Recode(testTable(), dict, RecodeOptions{})
	require.NoError(t, err)

	for _, v := range dict.Variables() {
		c, ok := ds.Column(v.Name)
		require.True(t, ok, v.Name)
		assert.Equal(t, v.Levels, c.Labels(), v.Name)
	}
}

func TestRecode_NonUniqueNames(t *testing.T) {
	dict := testDictionary()
	dict.Rename("QID3_TEXT", "sat")
	_, err := Recode(testTable(), dict, RecodeOptions{})
	assert.ErrorContains(t, err, `"sat"`)
}

func TestDataset_SplitByBlock(t *testing.T) {
	ds, err := Recode(testTable(), testDictionary(), RecodeOptions{})
	require.NoError(t, err)

	parts := ds.SplitByBlock()
	require.Len(t, parts, 2)
	assert.Equal(t, []string{"sat", "fruit_apples", "fruit_pears"}, parts["Intro"].Names())
	assert.Equal(t, []string{"comment"}, parts["Mood"].Names())
	assert.Equal(t, ds.IDs, parts["Mood"].IDs)
}

func TestWriteCSV(t *testing.T) {
	ds, err := Recode(testTable(), testDictionary(), RecodeOptions{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, ds))
	assert.Equal(t, "response_id,sat,fruit_apples,fruit_pears,comment\n"+
		"R_1,2,1,0,fine\n"+
		"R_2,1,1,1,\n"+
		"R_3,,,,\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	ds, err := Recode(testTable(), testDictionary(), RecodeOptions{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, ds, "json"))

	var got jsonDataset
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got.Variables, 4)
	assert.Equal(t, []dictionary.Level{{Value: "1", Label: "Low"}, {Value: "2", Label: "High"}}, got.Variables[0].Levels)
	require.Len(t, got.Responses, 3)
	assert.Equal(t, "R_1", got.Responses[0][IDColumn])
	assert.Equal(t, 2.0, got.Responses[0]["sat"])
	assert.Nil(t, got.Responses[2]["comment"])

	assert.Error(t, Write(&buf, ds, "xlsx"))
}
