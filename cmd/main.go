// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"

	"survey-dict/internal/config"
	"survey-dict/internal/core"
	"survey-dict/internal/dictionary"
	"survey-dict/internal/help"
	"survey-dict/internal/observability"
	"survey-dict/internal/responses"
	"survey-dict/internal/version"

	"survey-dict/internal/formatters"
	_ "survey-dict/internal/formatters/csv"
	_ "survey-dict/internal/formatters/json"
	_ "survey-dict/internal/formatters/text"
	_ "survey-dict/internal/formatters/yaml"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Exit codes
const (
	exitOK         = 0
	exitFailure    = 1
	exitUsage      = 2
	exitValidation = 3
)

// commandFlags holds the flag values shared by the survey commands
type commandFlags struct {
	fs *flag.FlagSet

	configFile  *string
	profileName *string
	format      *string
	output      *string
	verbose     *bool
	debug       *bool
	noColor     *bool

	survey    *string
	dict      *string
	refSurvey *string
	refDict   *string

	varName         *string
	nameStyle       *string
	maxNameWords    *int
	blockPrefix     *string
	blockSep        *string
	filter          *string
	overridesFile   *string
	skipUnsupported *bool
	splitByBlock    *bool
	excludeMistakes *bool

	maxDistance *int

	dataFormat          *string
	unanswerRecode      *string
	unanswerRecodeMulti *string
}

func newCommandFlags(name string) *commandFlags {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	f := &commandFlags{fs: fs}

	f.configFile = fs.String("config", "", "Path to configuration file (YAML)")
	f.profileName = fs.String("profile", "", "Profile name to use from config file")
	f.format = fs.String("format", "", "Output format: text, json, yaml, csv (default: text)")
	f.output = fs.String("output", "", "Path to output file (if not specified, output to stdout)")
	f.verbose = fs.Bool("verbose", false, "Show levels and details")
	f.debug = fs.Bool("debug", false, "Log API calls and pipeline steps to stderr")
	f.noColor = fs.Bool("no-color", false, "Disable colored output")

	f.survey = fs.String("survey", "", "Survey id")
	f.dict = fs.String("dict", "", "Dictionary file (.csv, .json, .yaml)")
	f.refSurvey = fs.String("ref-survey", "", "Reference survey id (compare)")
	f.refDict = fs.String("ref-dict", "", "Reference dictionary file (compare)")

	f.varName = fs.String("var-name", "", "Naming mode: question_name or easyname")
	f.nameStyle = fs.String("name-style", "", "Name style: as_is or snake")
	f.maxNameWords = fs.Int("max-name-words", 0, "Keyword words per identifying field in easyname mode")
	f.blockPrefix = fs.String("block-prefix", "", "CEL expression over 'block' giving a name prefix")
	f.blockSep = fs.String("block-sep", "", "Separator between block prefix and name")
	f.filter = fs.String("filter", "", "CEL expression selecting variables")
	f.overridesFile = fs.String("overrides", "", "YAML file of qid -> name overrides")
	f.skipUnsupported = fs.Bool("skip-unsupported", false, "Skip questions of unknown types instead of failing")
	f.splitByBlock = fs.Bool("split-by-block", false, "Write one file per block (requires --output)")
	f.excludeMistakes = fs.Bool("exclude-mistakes", false, "Drop variables with labelling mistakes")

	f.maxDistance = fs.Int("max-distance", 0, "Largest edit distance for fuzzy matches, 0 disables")

	f.dataFormat = fs.String("data-format", "", "Dataset format: csv or json")
	f.unanswerRecode = fs.String("unanswer-recode", "", "Value for missing answers")
	f.unanswerRecodeMulti = fs.String("unanswer-recode-multi", "", "Value for unanswered multi-answer questions")

	fs.Usage = func() {
		help.NewSystem(os.Stderr, true).ShowCommandHelp(name)
	}
	return f
}

// isSet checks if a flag was explicitly set on the command line
func (f *commandFlags) isSet(name string) bool {
	found := false
	f.fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

// loadConfiguration loads the configuration file or returns default config
func loadConfiguration(configFile string) *config.Config {
	configPath := configFile
	if configPath == "" {
		configPath = config.FindConfigFile()
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Error loading config file: %v\n", err)
		fmt.Fprintf(os.Stderr, "Using default configuration\n")
		cfg = config.Defaults()
	}
	return cfg
}

// resolveConfiguration applies the profile and then the flags set on the
// command line to cfg
func resolveConfiguration(cfg *config.Config, f *commandFlags) error {
	if *f.profileName != "" {
		if err := cfg.ApplyProfile(*f.profileName); err != nil {
			return err
		}
	}

	setString := func(flagName string, dst *string, v string) {
		if f.isSet(flagName) {
			*dst = v
		}
	}
	setBool := func(flagName string, dst *bool, v bool) {
		if f.isSet(flagName) {
			*dst = v
		}
	}

	setString("format", &cfg.Defaults.Format, *f.format)
	setString("output", &cfg.Defaults.Output, *f.output)
	setBool("verbose", &cfg.Defaults.Verbose, *f.verbose)
	setBool("debug", &cfg.Defaults.Debug, *f.debug)
	setBool("no-color", &cfg.Defaults.NoColor, *f.noColor)

	setString("var-name", &cfg.Dictionary.VarName, *f.varName)
	setString("name-style", &cfg.Dictionary.NameStyle, *f.nameStyle)
	if f.isSet("max-name-words") {
		cfg.Dictionary.MaxNameWords = *f.maxNameWords
	}
	setString("block-prefix", &cfg.Dictionary.BlockPrefix, *f.blockPrefix)
	setString("block-sep", &cfg.Dictionary.BlockSep, *f.blockSep)
	setString("filter", &cfg.Dictionary.Filter, *f.filter)
	setString("overrides", &cfg.Dictionary.OverridesFile, *f.overridesFile)
	setBool("skip-unsupported", &cfg.Dictionary.SkipUnsupported, *f.skipUnsupported)
	setBool("exclude-mistakes", &cfg.Dictionary.ExcludeMistakes, *f.excludeMistakes)
	if f.isSet("split-by-block") {
		cfg.Dictionary.SplitByBlock = *f.splitByBlock
		cfg.Responses.SplitByBlock = *f.splitByBlock
	}

	if f.isSet("max-distance") {
		cfg.Compare.MaxDistance = *f.maxDistance
	}

	setString("data-format", &cfg.Responses.Format, *f.dataFormat)
	if err := setFloat(f, "unanswer-recode", *f.unanswerRecode, &cfg.Responses.UnanswerRecode); err != nil {
		return err
	}
	if err := setFloat(f, "unanswer-recode-multi", *f.unanswerRecodeMulti, &cfg.Responses.UnanswerRecodeMulti); err != nil {
		return err
	}

	if _, ok := formatters.Get(cfg.Defaults.Format); !ok {
		return fmt.Errorf("unsupported format '%s' (available: %v)", cfg.Defaults.Format, formatters.List())
	}
	return config.ValidateConfig(cfg)
}

// setFloat parses a numeric flag into an optional config value
func setFloat(f *commandFlags, flagName, raw string, dst **float64) error {
	if !f.isSet(flagName) {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("--%s must be a number: %w", flagName, err)
	}
	*dst = &v
	return nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		help.NewSystem(os.Stderr, !isTerminal(os.Stderr)).ShowGeneralHelp()
		return exitUsage
	}

	noColor := !isTerminal(os.Stdout)
	switch cmd := args[0]; cmd {
	case "help", "-h", "--help":
		h := help.NewSystem(os.Stdout, noColor)
		if len(args) > 1 {
			if !h.ShowCommandHelp(args[1]) {
				fmt.Fprintf(os.Stderr, "Error: unknown command '%s'\n", args[1])
				return exitUsage
			}
			return exitOK
		}
		h.ShowGeneralHelp()
		return exitOK
	case "version", "--version":
		fmt.Println(version.Info())
		return exitOK
	case "types":
		help.NewSystem(os.Stdout, noColor).ShowTypesHelp()
		return exitOK
	case "generate", "validate", "compare", "fetch":
		return runCommand(cmd, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command '%s'\n\n", cmd)
		help.NewSystem(os.Stderr, true).ShowGeneralHelp()
		return exitUsage
	}
}

func runCommand(cmd string, args []string) int {
	f := newCommandFlags(cmd)
	if err := f.fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	cfg := loadConfiguration(*f.configFile)
	if err := resolveConfiguration(cfg, f); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}

	// Colour only makes sense on a terminal
	if cfg.Defaults.NoColor || cfg.Defaults.Output != "" || !isTerminal(os.Stdout) {
		cfg.Defaults.NoColor = true
		color.NoColor = true
	}

	observer := observability.New(cfg.Defaults.Debug, os.Stderr)
	pipeline, err := core.NewPipeline(cfg, observer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFailure
	}
	defer pipeline.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	src := core.Source{SurveyID: *f.survey, DictPath: *f.dict}
	switch cmd {
	case "generate":
		err = runGenerate(ctx, pipeline, cfg, src.SurveyID)
	case "validate":
		var failed bool
		failed, err = runValidate(ctx, pipeline, cfg, src)
		if err == nil && failed {
			return exitValidation
		}
	case "compare":
		err = runCompare(ctx, pipeline, cfg, src, core.Source{SurveyID: *f.refSurvey, DictPath: *f.refDict})
	case "fetch":
		var dropped bool
		dropped, err = runFetch(ctx, pipeline, cfg, src)
		if err == nil && dropped {
			return exitValidation
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFailure
	}
	return exitOK
}

func formatterOptions(cfg *config.Config) formatters.FormatterOptions {
	return formatters.FormatterOptions{Verbose: cfg.Defaults.Verbose, NoColor: cfg.Defaults.NoColor}
}

// writeReport renders a report to the configured output
func writeReport(cfg *config.Config, report formatters.Report) error {
	out, err := formatters.Export(cfg.Defaults.Format, report, formatterOptions(cfg))
	if err != nil {
		return err
	}
	return core.WriteOutput(cfg.Defaults.Output, os.Stdout, func(w io.Writer) error {
		_, err := io.WriteString(w, out)
		return err
	})
}

func runGenerate(ctx context.Context, p *core.Pipeline, cfg *config.Config, surveyID string) error {
	if surveyID == "" {
		return errors.New("--survey is required")
	}
	result, err := p.Generate(ctx, surveyID)
	if err != nil {
		return err
	}
	warnValidation(result.Validation)
	if len(result.Excluded) > 0 {
		sort.Strings(result.Excluded)
		fmt.Fprintf(os.Stderr, "Excluded %d variables with labelling mistakes: %v\n", len(result.Excluded), result.Excluded)
	}

	if !cfg.Dictionary.SplitByBlock {
		return writeReport(cfg, formatters.Report{
			Kind:       formatters.KindDictionary,
			SurveyID:   surveyID,
			Dictionary: result.Dictionary,
		})
	}

	written, err := core.WriteBlocks(cfg.Defaults.Output, result.Dictionary.SplitByBlock(),
		func(w io.Writer, d *dictionary.Dictionary) error {
			out, err := formatters.Export(cfg.Defaults.Format, formatters.Report{
				Kind:       formatters.KindDictionary,
				SurveyID:   surveyID,
				Dictionary: d,
			}, formatterOptions(cfg))
			if err != nil {
				return err
			}
			_, err = io.WriteString(w, out)
			return err
		})
	reportWritten(written)
	return err
}

// runValidate reports whether the dictionary has non-unique names
func runValidate(ctx context.Context, p *core.Pipeline, cfg *config.Config, src core.Source) (bool, error) {
	dict, result, err := p.Validate(ctx, src)
	if err != nil {
		return false, err
	}
	err = writeReport(cfg, formatters.Report{
		Kind:       formatters.KindValidation,
		SurveyID:   dict.SurveyID,
		Dictionary: dict,
		Validation: &result,
	})
	return result.HasErrors(), err
}

func runCompare(ctx context.Context, p *core.Pipeline, cfg *config.Config, src, ref core.Source) error {
	if ref.SurveyID == "" && ref.DictPath == "" {
		return errors.New("--ref-survey or --ref-dict is required")
	}
	result, err := p.Compare(ctx, src, ref)
	if err != nil {
		return err
	}
	return writeReport(cfg, formatters.Report{
		Kind:            formatters.KindCorrespondence,
		SurveyID:        result.Dictionary.SurveyID,
		ReferenceID:     result.Reference.SurveyID,
		Correspondences: result.Correspondences,
	})
}

// runFetch writes the recoded responses and reports whether variables were
// left out because their names are not unique.
func runFetch(ctx context.Context, p *core.Pipeline, cfg *config.Config, src core.Source) (bool, error) {
	result, err := p.Fetch(ctx, src)
	if err != nil {
		return false, err
	}
	for _, n := range result.Dropped {
		fmt.Fprintf(os.Stderr, "Error: name %q is used by %v; these variables were left out\n", n.Name, n.QIDs)
	}
	dropped := len(result.Dropped) > 0

	format := cfg.Responses.Format
	if !cfg.Responses.SplitByBlock {
		return dropped, core.WriteOutput(cfg.Defaults.Output, os.Stdout, func(w io.Writer) error {
			return responses.Write(w, result.Dataset, format)
		})
	}

	written, err := core.WriteBlocks(cfg.Defaults.Output, result.Dataset.SplitByBlock(),
		func(w io.Writer, d *responses.Dataset) error {
			return responses.Write(w, d, format)
		})
	reportWritten(written)
	return dropped, err
}

// warnValidation prints validation problems of a generated dictionary
func warnValidation(result dictionary.ValidationResult) {
	for _, n := range result.NonUnique {
		fmt.Fprintf(os.Stderr, "Warning: name %q is used by %v\n", n.Name, n.QIDs)
	}
	if len(result.Mistakes) > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %d labelling mistakes (run validate for details)\n", len(result.Mistakes))
	}
}

func reportWritten(paths []string) {
	for _, p := range paths {
		fmt.Fprintf(os.Stderr, "Wrote %s\n", p)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
