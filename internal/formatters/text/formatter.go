// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"fmt"
	"strings"

	"survey-dict/internal/dictionary"
	"survey-dict/internal/formatters"
	"survey-dict/internal/formatters/shared"

	"github.com/fatih/color"
)

// Formatter implements text-based output formatting
type Formatter struct {
	colors map[string]*color.Color
}

// NewFormatter creates a new text formatter
func NewFormatter() *Formatter {
	return &Formatter{
		colors: map[string]*color.Color{
			"green":   color.New(color.FgGreen),
			"yellow":  color.New(color.FgYellow),
			"red":     color.New(color.FgRed),
			"cyan":    color.New(color.FgCyan),
			"magenta": color.New(color.FgMagenta),
			"blue":    color.New(color.FgBlue),
			"white":   color.New(color.FgWhite, color.Bold),
		},
	}
}

func (f *Formatter) Name() string {
	return "text"
}

func (f *Formatter) Description() string {
	return "Human-readable text output with colors and tables"
}

func (f *Formatter) FileExtension() string {
	return ".txt"
}

func (f *Formatter) Format(report formatters.Report, options formatters.FormatterOptions) (string, error) {
	var builder strings.Builder
	switch report.Kind {
	case formatters.KindDictionary:
		f.formatDictionary(&builder, report.Dictionary, options)
	case formatters.KindValidation:
		f.formatValidation(&builder, report.Validation, options)
	case formatters.KindCorrespondence:
		f.formatCorrespondences(&builder, report.Correspondences, options)
	default:
		return "", fmt.Errorf("unknown report kind %q", report.Kind)
	}
	return builder.String(), nil
}

// paint applies a named color unless colors are disabled
func (f *Formatter) paint(options formatters.FormatterOptions, name, format string, args ...interface{}) string {
	if options.NoColor {
		return fmt.Sprintf(format, args...)
	}
	return f.colors[name].Sprintf(format, args...)
}

func (f *Formatter) appendHeader(builder *strings.Builder, options formatters.FormatterOptions, format string, args ...interface{}) {
	header := fmt.Sprintf(format, args...)
	builder.WriteString(f.paint(options, "white", "%s\n", header))
	builder.WriteString(f.paint(options, "white", "%s\n", strings.Repeat("-", len([]rune(header)))))
}

func (f *Formatter) formatDictionary(builder *strings.Builder, d *dictionary.Dictionary, options formatters.FormatterOptions) {
	if d == nil || len(d.Rows) == 0 {
		builder.WriteString("No variables found.")
		return
	}

	vars := d.Variables()
	nameWidth := columnWidth(vars, func(v dictionary.Variable) string { return v.Name }, 4, 32)
	qidWidth := columnWidth(vars, func(v dictionary.Variable) string { return v.QID }, 3, 16)
	f.appendHeader(builder, options, "%-4s %-*s %-*s %-14s %-6s %s", "COL", nameWidth, "NAME", qidWidth, "QID", "TYPE", "LEVELS", "TEXT")

	for _, v := range vars {
		text, err := dictionary.IdentifyingText(v)
		if err != nil {
			text = v.Question
		}
		fmt.Fprintf(builder, "%s %s %s %s %s %s\n",
			f.paint(options, "blue", "%4d", v.Column),
			f.paint(options, "green", "%-*s", nameWidth, truncate(v.Name, nameWidth)),
			f.paint(options, "magenta", "%-*s", qidWidth, truncate(v.QID, qidWidth)),
			f.paint(options, "cyan", "%-14s", truncate(v.Type+"/"+v.Selector, 14)),
			fmt.Sprintf("%6d", len(v.Levels)),
			truncate(text, 80))

		if options.Verbose {
			for _, l := range v.Levels {
				fmt.Fprintf(builder, "%*s %s = %s\n", 6, "", f.paint(options, "yellow", "%s", l.Value), l.Label)
			}
		}
	}

	s := shared.Summarize(formatters.Report{Dictionary: d})
	fmt.Fprintf(builder, "\n%d variables, %d rows", s.Variables, s.Rows)
	if blocks := d.Blocks(); len(blocks) > 1 {
		fmt.Fprintf(builder, ", %d blocks", len(blocks))
	}
	builder.WriteString("\n")
}

func (f *Formatter) formatValidation(builder *strings.Builder, r *dictionary.ValidationResult, options formatters.FormatterOptions) {
	if r == nil || (len(r.NonUnique) == 0 && len(r.Mistakes) == 0) {
		builder.WriteString(f.paint(options, "green", "%s", "No problems found.") + "\n")
		return
	}

	if len(r.NonUnique) > 0 {
		f.appendHeader(builder, options, "NON-UNIQUE NAMES (%d)", len(r.NonUnique))
		for _, n := range r.NonUnique {
			fmt.Fprintf(builder, "%s %s: %s\n",
				f.paint(options, "red", "[%-7s]", "ERROR"),
				n.Name, strings.Join(n.QIDs, ", "))
		}
		builder.WriteString("\n")
	}

	if len(r.Mistakes) > 0 {
		f.appendHeader(builder, options, "LABEL MISTAKES (%d)", len(r.Mistakes))
		for _, m := range r.Mistakes {
			fmt.Fprintf(builder, "%s %s %s (%s)",
				f.paint(options, "yellow", "[%-7s]", "WARNING"),
				f.paint(options, "cyan", "%-20s", m.Kind),
				m.Name, m.QID)
			if options.Verbose && m.Detail != "" {
				fmt.Fprintf(builder, ": %s", m.Detail)
			}
			builder.WriteString("\n")
		}
	}
}

func (f *Formatter) formatCorrespondences(builder *strings.Builder, cs []dictionary.Correspondence, options formatters.FormatterOptions) {
	if len(cs) == 0 {
		builder.WriteString("No matching variables found.")
		return
	}

	nameWidth, refWidth := 4, 9
	for _, c := range cs {
		nameWidth = max(nameWidth, min(len(c.Name), 32))
		refWidth = max(refWidth, min(len(c.NameReference), 32))
	}
	f.appendHeader(builder, options, "%-*s %-*s %-6s %-4s %-6s %s", nameWidth, "NAME", refWidth, "REFERENCE", "MATCH", "DIST", "LABELS", "TEXT")

	for _, c := range cs {
		matchColor := "green"
		if c.MatchType == dictionary.MatchFuzzy {
			matchColor = "yellow"
		}
		labels := "same"
		labelColor := "green"
		if !c.LabelMatch {
			labels = "differ"
			labelColor = "red"
		}
		fmt.Fprintf(builder, "%s %s %s %4d %s %s\n",
			f.paint(options, "white", "%-*s", nameWidth, truncate(c.Name, nameWidth)),
			fmt.Sprintf("%-*s", refWidth, truncate(c.NameReference, refWidth)),
			f.paint(options, matchColor, "%-6s", c.MatchType),
			c.Distance,
			f.paint(options, labelColor, "%-6s", labels),
			truncate(c.Text, 80))
		if options.Verbose && c.Text != c.TextReference {
			fmt.Fprintf(builder, "%*s -> %s\n", nameWidth+refWidth+19, "", truncate(c.TextReference, 80))
		}
	}

	s := shared.Summarize(formatters.Report{Correspondences: cs})
	fmt.Fprintf(builder, "\n%d matches (%d exact, %d fuzzy)\n", s.Matches, s.ExactMatches, s.FuzzyMatches)
}

func columnWidth(vars []dictionary.Variable, get func(dictionary.Variable) string, minWidth, maxWidth int) int {
	w := minWidth
	for _, v := range vars {
		w = max(w, len([]rune(get(v))))
	}
	return min(w, maxWidth)
}

// truncate shortens s to width runes, ending with "..." when cut
func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
