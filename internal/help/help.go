// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package help

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"survey-dict/internal/dictionary"

	"github.com/fatih/color"
)

// CommandInfo describes one CLI command
type CommandInfo struct {
	Name        string
	Usage       string
	Description string
	Flags       [][2]string // flag, description
	Examples    []string
}

var commonFlags = [][2]string{
	{"--config <path>", "Path to configuration file (YAML)"},
	{"--profile <name>", "Profile name to use from config file"},
	{"--format <format>", "Output format: text, json, yaml, csv (default: text)"},
	{"--output <path>", "Write output to a file instead of stdout"},
	{"--verbose", "Show levels and details"},
	{"--debug", "Log API calls and pipeline steps to stderr"},
	{"--no-color", "Disable colored output"},
}

var dictionaryFlags = [][2]string{
	{"--var-name <mode>", "question_name or easyname (default: question_name)"},
	{"--name-style <style>", "as_is or snake (default: as_is)"},
	{"--max-name-words <n>", "Keyword words per field in easyname mode (default: 2)"},
	{"--block-prefix <expr>", "CEL expression over 'block' giving a name prefix"},
	{"--block-sep <sep>", "Separator between block prefix and name (default: .)"},
	{"--filter <expr>", "CEL expression selecting variables (qid, name, block, type, ...)"},
	{"--overrides <path>", "YAML file of qid -> name overrides"},
	{"--skip-unsupported", "Skip questions of unknown types instead of failing"},
}

// Commands lists the CLI commands
var Commands = []CommandInfo{
	{
		Name:        "generate",
		Usage:       "survey-dict generate --survey <id> [options]",
		Description: "Fetch survey metadata and write the variable dictionary",
		Flags: append(append([][2]string{
			{"--survey <id>", "Survey id (SV_...)"},
			{"--split-by-block", "Write one dictionary per block (requires --output)"},
			{"--exclude-mistakes", "Drop variables with labelling mistakes"},
		}, dictionaryFlags...), commonFlags...),
		Examples: []string{
			"survey-dict generate --survey SV_abc123",
			"survey-dict generate --survey SV_abc123 --var-name easyname --format csv --output dict.csv",
		},
	},
	{
		Name:        "validate",
		Usage:       "survey-dict validate (--survey <id> | --dict <path>) [options]",
		Description: "Report non-unique names (errors, exit status 3) and labelling mistakes (warnings)",
		Flags: append(append([][2]string{
			{"--survey <id>", "Survey id to build the dictionary from"},
			{"--dict <path>", "Existing dictionary file (.csv, .json, .yaml)"},
		}, dictionaryFlags...), commonFlags...),
		Examples: []string{"survey-dict validate --dict dict.csv"},
	},
	{
		Name:        "compare",
		Usage:       "survey-dict compare (--survey <id> | --dict <path>) (--ref-survey <id> | --ref-dict <path>) [options]",
		Description: "Match variables of two dictionaries by question text",
		Flags: append(append([][2]string{
			{"--survey <id>", "Survey id of the dictionary to rename"},
			{"--dict <path>", "Dictionary file to rename"},
			{"--ref-survey <id>", "Survey id of the reference dictionary"},
			{"--ref-dict <path>", "Reference dictionary file"},
			{"--max-distance <n>", "Largest edit distance for fuzzy matches, 0 disables (default: 5)"},
		}, dictionaryFlags...), commonFlags...),
		Examples: []string{"survey-dict compare --survey SV_wave2 --ref-dict wave1.csv --format csv"},
	},
	{
		Name:        "fetch",
		Usage:       "survey-dict fetch --survey <id> [options]",
		Description: "Export responses and write them with dictionary names and labels. Variables sharing a name are left out (exit status 3)",
		Flags: append(append([][2]string{
			{"--survey <id>", "Survey id"},
			{"--dict <path>", "Use this dictionary instead of generating one"},
			{"--data-format <fmt>", "csv or json (default: csv)"},
			{"--unanswer-recode <n>", "Value for missing answers"},
			{"--unanswer-recode-multi <n>", "Value for unanswered multi-answer questions"},
			{"--split-by-block", "Write one dataset per block (requires --output)"},
		}, dictionaryFlags...), commonFlags...),
		Examples: []string{"survey-dict fetch --survey SV_abc123 --output responses.csv --split-by-block"},
	},
	{
		Name:        "types",
		Usage:       "survey-dict types",
		Description: "List the supported question types and the fields identifying their variables",
	},
	{
		Name:        "version",
		Usage:       "survey-dict version",
		Description: "Print version information",
	},
}

// System renders help text
type System struct {
	out     io.Writer
	noColor bool
	colors  map[string]*color.Color
}

// NewSystem creates a new help system writing to out
func NewSystem(out io.Writer, noColor bool) *System {
	return &System{
		out:     out,
		noColor: noColor,
		colors: map[string]*color.Color{
			"title":   color.New(color.FgWhite, color.Bold),
			"header":  color.New(color.FgBlue, color.Bold),
			"item":    color.New(color.FgCyan),
			"example": color.New(color.FgMagenta),
		},
	}
}

func (h *System) print(name, format string, args ...interface{}) {
	if h.noColor {
		fmt.Fprintf(h.out, format, args...)
		return
	}
	h.colors[name].Fprintf(h.out, format, args...)
}

// ShowGeneralHelp displays general help information
func (h *System) ShowGeneralHelp() {
	h.print("title", "survey-dict - Survey Variable Dictionary Tool\n")
	fmt.Fprintln(h.out, "==============================================")
	fmt.Fprintln(h.out)
	h.print("header", "USAGE:\n")
	fmt.Fprintln(h.out, "  survey-dict <command> [options]")
	fmt.Fprintln(h.out)

	h.print("header", "COMMANDS:\n")
	w := tabwriter.NewWriter(h.out, 0, 0, 2, ' ', 0)
	for _, c := range Commands {
		fmt.Fprintf(w, "  %s\t%s\n", c.Name, c.Description)
	}
	fmt.Fprintf(w, "  %s\t%s\n", "help", "Show help for a command: survey-dict help <command>")
	w.Flush()
	fmt.Fprintln(h.out)

	h.print("header", "ENVIRONMENT:\n")
	w = tabwriter.NewWriter(h.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  QUALTRICS_API_KEY\tAPI token (the variable name is set by api.token_env)")
	fmt.Fprintln(w, "  QUALTRICS_BASE_URL\tAPI base URL when no data center is configured")
	fmt.Fprintln(w, "  SURVEYDICT_CONFIG_DIR\tDirectory holding config.yaml and overrides.yaml")
	w.Flush()
}

// ShowCommandHelp displays help for one command. It returns false when the
// command is unknown.
func (h *System) ShowCommandHelp(name string) bool {
	var cmd *CommandInfo
	for i := range Commands {
		if Commands[i].Name == name {
			cmd = &Commands[i]
		}
	}
	if cmd == nil {
		return false
	}

	h.print("title", "%s\n", strings.ToUpper(cmd.Name))
	fmt.Fprintln(h.out, cmd.Description)
	fmt.Fprintln(h.out)
	h.print("header", "USAGE:\n")
	fmt.Fprintf(h.out, "  %s\n", cmd.Usage)

	if len(cmd.Flags) > 0 {
		fmt.Fprintln(h.out)
		h.print("header", "OPTIONS:\n")
		w := tabwriter.NewWriter(h.out, 0, 0, 2, ' ', 0)
		for _, f := range cmd.Flags {
			fmt.Fprintf(w, "  %s\t%s\n", f[0], f[1])
		}
		w.Flush()
	}

	if len(cmd.Examples) > 0 {
		fmt.Fprintln(h.out)
		h.print("header", "EXAMPLES:\n")
		for _, e := range cmd.Examples {
			h.print("example", "  %s\n", e)
		}
	}
	return true
}

// ShowTypesHelp lists the supported question variants and their
// identifying fields
func (h *System) ShowTypesHelp() {
	h.print("title", "Supported question types\n")
	fmt.Fprintln(h.out)

	w := tabwriter.NewWriter(h.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tSELECTOR\tSUB-SELECTOR\tIDENTIFIED BY")
	for _, v := range dictionary.SupportedVariants() {
		sub := v.SubSelector
		switch sub {
		case "*":
			sub = "any"
		case "":
			sub = "(none)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.Type, v.Selector, sub, v.Fields)
	}
	w.Flush()
	fmt.Fprintln(h.out)
	fmt.Fprintln(h.out, "Display-only types (DB, Timing, Meta) produce no variables.")
}
