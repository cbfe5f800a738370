// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package dictionary

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"survey-dict/internal/keywords"

	"github.com/fatih/camelcase"
)

// Variable naming modes.
const (
	// NameQuestion uses the platform export tag of each question.
	NameQuestion = "question_name"
	// NameEasy builds names from keywords of the identifying text.
	NameEasy = "easyname"
)

// Name styles applied after naming.
const (
	StyleAsIs  = "as_is"
	StyleSnake = "snake"
)

// SanitizeName replaces characters that are not valid in variable names with
// underscores and makes sure the name does not start with a digit.
func SanitizeName(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range name {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore && b.Len() > 0 {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	out := strings.TrimRight(b.String(), "_")
	if out != "" && unicode.IsDigit(rune(out[0])) {
		out = "v" + out
	}
	return out
}

// SnakeCase converts an export tag such as "LifeSat2B" or "Q1Satisfaction"
// to lower snake case ("life_sat2_b", "q1_satisfaction"). Digit runs stay
// attached to the word before them.
func SnakeCase(name string) string {
	var words []string
	for _, part := range camelcase.Split(name) {
		if !isAlnum(part) {
			continue
		}
		if isDigits(part) && len(words) > 0 {
			words[len(words)-1] += part
			continue
		}
		words = append(words, strings.ToLower(part))
	}
	return SanitizeName(strings.Join(words, "_"))
}

func isAlnum(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// keywordWords returns up to limit keyword words of text, in the order they
// appear in the text.
func keywordWords(ex *keywords.Extractor, text string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	type placed struct {
		word string
		pos  int
	}
	var picked []placed
	seen := make(map[string]bool)
	for _, kw := range ex.Extract(text, 0) {
		for i, w := range kw.Words {
			if len(picked) >= limit {
				break
			}
			if seen[w] {
				continue
			}
			seen[w] = true
			picked = append(picked, placed{word: w, pos: kw.Position + i})
		}
		if len(picked) >= limit {
			break
		}
	}
	sort.SliceStable(picked, func(i, j int) bool { return picked[i].pos < picked[j].pos })
	out := make([]string, len(picked))
	for i, p := range picked {
		out[i] = p.word
	}
	return out
}

// SuggestName builds a short name from the keyword words of each identifying
// text, taking at most maxWords words from each. It returns "" when no text
// yields a keyword.
func SuggestName(texts []string, maxWords int) string {
	return suggestName(keywords.NewExtractor(), texts, maxWords)
}

func suggestName(ex *keywords.Extractor, texts []string, maxWords int) string {
	var parts []string
	for _, t := range texts {
		words := keywordWords(ex, t, maxWords)
		if len(words) > 0 {
			parts = append(parts, strings.Join(words, "_"))
		}
	}
	return SanitizeName(strings.Join(parts, "_"))
}

// Uniquify appends _2, _3, ... to repeated names, leaving first occurrences
// unchanged.
func Uniquify(names []string) []string {
	taken := make(map[string]bool, len(names))
	for _, n := range names {
		taken[n] = true
	}
	count := make(map[string]int, len(names))
	out := make([]string, len(names))
	for i, n := range names {
		count[n]++
		if count[n] == 1 {
			out[i] = n
			continue
		}
		for k := count[n]; ; k++ {
			candidate := fmt.Sprintf("%s_%d", n, k)
			if !taken[candidate] {
				taken[candidate] = true
				count[n] = k
				out[i] = candidate
				break
			}
		}
	}
	return out
}
