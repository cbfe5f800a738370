// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package keywords

import (
	"strings"

	"github.com/bbalet/stopwords"
)

// contractionParts are the fragments left when contractions are split at the
// apostrophe ("don't" -> "don" "t").
var contractionParts = []string{
	"s", "t", "d", "ll", "re", "ve", "m", "don", "didn", "doesn", "isn", "aren",
	"wasn", "weren", "won", "wouldn", "shouldn", "couldn", "hasn", "haven",
}

// surveyStopwords are instruction words common in questionnaire wording that
// carry no meaning about the construct being measured.
var surveyStopwords = []string{
	"please", "following", "indicate", "select", "choose", "answer", "answers",
	"question", "questions", "statement", "statements", "item", "items", "rate",
	"rating", "describe", "describes", "best", "extent", "agree", "disagree",
	"often", "past", "last", "week", "weeks", "month", "months", "currently",
	"apply", "applies", "option", "options", "response", "responses", "think",
	"tell", "us", "below", "click", "check", "box", "scale", "like", "feel",
	"generally", "usually", "much", "well", "true", "false", "overall",
}

// DefaultStopwords returns the words treated as stopwords on top of the
// language list: contraction fragments and questionnaire instructions.
func DefaultStopwords() map[string]bool {
	set := make(map[string]bool, len(contractionParts)+len(surveyStopwords))
	for _, w := range contractionParts {
		set[w] = true
	}
	for _, w := range surveyStopwords {
		set[w] = true
	}
	return set
}

// isStopword reports whether the lowercased word w is in the extra set or in
// the stopword list of the extractor's language.
func (e *Extractor) isStopword(w string) bool {
	if e.Stopwords[w] {
		return true
	}
	lang := e.Language
	if lang == "" {
		lang = "en"
	}
	// CleanString blanks stopwords and digits.
	return strings.TrimSpace(stopwords.CleanString(w, lang, false)) == ""
}
