// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package keywords

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_SkipsStopwordsAndInstructions(t *testing.T) {
	got := Extract("Please indicate how satisfied you are with your life as a whole.", 0)
	require.NotEmpty(t, got)

	var phrases []string
	for _, k := range got {
		phrases = append(phrases, k.Phrase)
	}
	assert.Contains(t, phrases, "satisfied")
	assert.Contains(t, phrases, "life")
	assert.NotContains(t, phrases, "please")
	assert.NotContains(t, phrases, "your")
}

func TestExtract_LanguageStopwords(t *testing.T) {
	ex := NewExtractor()
	ex.Stopwords = nil
	got := ex.Extract("the quality of sleep", 0)
	require.Len(t, got, 2)
	assert.Equal(t, "quality", got[0].Phrase)
	assert.Equal(t, "sleep", got[1].Phrase)

	ex.Language = "fr"
	got = ex.Extract("la qualité du sommeil", 0)
	require.Len(t, got, 2)
	assert.Equal(t, "qualité", got[0].Phrase)
	assert.Equal(t, "sommeil", got[1].Phrase)
}

func TestExtract_MultiWordPhrasesScoreHigher(t *testing.T) {
	got := Extract("Trouble falling asleep, or sleeping too much", 0)
	require.NotEmpty(t, got)
	assert.Equal(t, "trouble falling asleep", got[0].Phrase)
	assert.Equal(t, []string{"trouble", "falling", "asleep"}, got[0].Words)
}

func TestExtract_Limit(t *testing.T) {
	got := Extract("Appetite; energy; concentration; sleep quality", 2)
	assert.Len(t, got, 2)
	assert.Equal(t, "sleep quality", got[0].Phrase)
}

func TestExtract_PunctuationSplitsPhrases(t *testing.T) {
	got := Extract("mood, energy", 0)
	require.Len(t, got, 2)
	assert.Equal(t, "mood", got[0].Phrase)
	assert.Equal(t, 0, got[0].Position)
	assert.Equal(t, "energy", got[1].Phrase)
	assert.Equal(t, 1, got[1].Position)
}

func TestExtract_EmptyAndNumbers(t *testing.T) {
	assert.Empty(t, Extract("", 3))
	assert.Empty(t, Extract("1 2 3 of the", 3))
}
