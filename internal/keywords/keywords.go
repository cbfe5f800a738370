// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package keywords extracts short keyword phrases from question wording. It
// scores stopword-delimited candidate phrases by the degree/frequency ratio of
// their words (RAKE). Stopwords come from github.com/bbalet/stopwords plus a
// set of questionnaire instruction words.
package keywords

import (
	"sort"
	"strings"
	"unicode"
)

// Keyword is a candidate phrase with its score.
type Keyword struct {
	Phrase string
	Words  []string
	Score  float64
	// Position is the index of the first word of the phrase in the text.
	Position int
}

// Extractor holds the stopword settings and limits used for extraction.
type Extractor struct {
	// Language is the ISO 639-1 code of the stopword list. Empty means "en".
	Language string
	// Stopwords are extra words delimiting phrases.
	Stopwords map[string]bool
	// MaxPhraseWords drops candidate phrases longer than this. Zero means 3.
	MaxPhraseWords int
	// MinWordLength drops words shorter than this. Zero means 2.
	MinWordLength int
}

// NewExtractor returns an extractor with the default stopwords.
func NewExtractor() *Extractor {
	return &Extractor{Language: "en", Stopwords: DefaultStopwords(), MaxPhraseWords: 3, MinWordLength: 2}
}

// Extract returns at most max keywords (all when max <= 0) of text ranked by
// score; ties keep the order of first appearance.
func Extract(text string, max int) []Keyword {
	return NewExtractor().Extract(text, max)
}

// Extract is the method form of the package level Extract.
func (e *Extractor) Extract(text string, max int) []Keyword {
	maxWords := e.MaxPhraseWords
	if maxWords <= 0 {
		maxWords = 3
	}
	phrases := e.candidates(text)

	freq := make(map[string]int)
	degree := make(map[string]int)
	for _, p := range phrases {
		if len(p.Words) > maxWords {
			continue
		}
		for _, w := range p.Words {
			freq[w]++
			degree[w] += len(p.Words)
		}
	}

	seen := make(map[string]bool)
	var out []Keyword
	for _, p := range phrases {
		if len(p.Words) > maxWords || seen[p.Phrase] {
			continue
		}
		seen[p.Phrase] = true
		score := 0.0
		for _, w := range p.Words {
			score += float64(degree[w]) / float64(freq[w])
		}
		p.Score = score
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

// candidates splits text into runs of non-stopword tokens. Punctuation ends a
// run as a stopword does.
func (e *Extractor) candidates(text string) []Keyword {
	minLen := e.MinWordLength
	if minLen <= 0 {
		minLen = 2
	}

	var phrases []Keyword
	var current []string
	start := 0
	position := 0
	flush := func() {
		if len(current) > 0 {
			phrases = append(phrases, Keyword{
				Phrase:   strings.Join(current, " "),
				Words:    current,
				Position: start,
			})
		}
		current = nil
	}

	for _, segment := range splitSegments(text) {
		for _, tok := range segment {
			w := strings.ToLower(tok)
			if len([]rune(w)) < minLen || isNumber(w) || e.isStopword(w) {
				flush()
			} else {
				if len(current) == 0 {
					start = position
				}
				current = append(current, w)
			}
			position++
		}
		flush()
	}
	return phrases
}

// splitSegments breaks text at sentence and clause punctuation, then into
// word tokens.
func splitSegments(text string) [][]string {
	var segments [][]string
	var words []string
	var word []rune
	endWord := func() {
		if len(word) > 0 {
			words = append(words, string(word))
			word = word[:0]
		}
	}
	endSegment := func() {
		endWord()
		if len(words) > 0 {
			segments = append(segments, words)
			words = nil
		}
	}

	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			word = append(word, r)
		case r == '\'' || r == '’':
			// contractions: "don't" -> "don" "t"
			endWord()
		case strings.ContainsRune(".,;:!?()[]{}\"/|–—", r):
			endSegment()
		default:
			endWord()
		}
	}
	endSegment()
	return segments
}

func isNumber(w string) bool {
	for _, r := range w {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return w != ""
}
