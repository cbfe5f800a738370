// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"survey-dict/internal/cache"
	"survey-dict/internal/config"
	"survey-dict/internal/dictionary"
	"survey-dict/internal/expr"
	"survey-dict/internal/observability"
	"survey-dict/internal/overrides"
	"survey-dict/internal/qualtrics"
	"survey-dict/internal/resilience"
	"survey-dict/internal/responses"

	"golang.org/x/sync/errgroup"
)

// Source names where a dictionary comes from: a survey to fetch or a
// dictionary file. DictPath wins when both are set.
type Source struct {
	SurveyID string
	DictPath string
}

func (s Source) String() string {
	if s.DictPath != "" {
		return s.DictPath
	}
	return s.SurveyID
}

// GenerateResult holds a built dictionary and its validation.
type GenerateResult struct {
	Dictionary *dictionary.Dictionary
	Validation dictionary.ValidationResult
	// Excluded lists the question ids dropped for labelling mistakes.
	Excluded []string
}

// CompareResult holds both dictionaries and their correspondences.
type CompareResult struct {
	Dictionary      *dictionary.Dictionary
	Reference       *dictionary.Dictionary
	Correspondences []dictionary.Correspondence
}

// FetchResult holds exported responses recoded with a dictionary.
type FetchResult struct {
	Dictionary *dictionary.Dictionary
	Dataset    *responses.Dataset
	// Dropped lists the names shared by several variables. Their variables
	// are left out of Dataset.
	Dropped []dictionary.NonUniqueName
}

// Pipeline runs the dictionary operations shared by the CLI commands.
type Pipeline struct {
	cfg       *config.Config
	observer  *observability.StandardObserver
	buildOpts dictionary.BuildOptions
	cache     cache.Cache
	client    *qualtrics.Client
}

// NewPipeline compiles the configured expressions, loads the overrides file
// and opens the definition cache.
func NewPipeline(cfg *config.Config, observer *observability.StandardObserver) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("config can't be nil")
	}
	if observer == nil {
		observer = observability.Nop()
	}

	opts := dictionary.DefaultBuildOptions()
	opts.VarName = cfg.Dictionary.VarName
	opts.NameStyle = cfg.Dictionary.NameStyle
	if cfg.Dictionary.MaxNameWords > 0 {
		opts.MaxNameWords = cfg.Dictionary.MaxNameWords
	}
	if cfg.Dictionary.BlockSep != "" {
		opts.BlockSep = cfg.Dictionary.BlockSep
	}
	opts.SkipUnsupported = cfg.Dictionary.SkipUnsupported
	opts.Observer = observer

	if cfg.Dictionary.BlockPrefix != "" {
		prefix, err := expr.NewBlockPrefix(cfg.Dictionary.BlockPrefix)
		if err != nil {
			return nil, fmt.Errorf("invalid block prefix: %w", err)
		}
		opts.BlockPrefix = prefix
	}
	if cfg.Dictionary.Filter != "" {
		filter, err := expr.NewRowFilter(cfg.Dictionary.Filter)
		if err != nil {
			return nil, fmt.Errorf("invalid filter: %w", err)
		}
		opts.Filter = filter
	}

	manager, err := overrides.NewManager(cfg.Dictionary.OverridesFile)
	if err != nil {
		return nil, err
	}
	opts.Overrides = manager.Map()
	observer.Debug().LogMetric("core", "overrides", len(opts.Overrides))

	c, err := cache.New(cache.Options{Backend: cfg.Cache.Backend, Redis: cfg.Cache.Redis})
	if err != nil {
		return nil, err
	}
	if rc, ok := c.(*cache.RedisCache); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rc.Ping(ctx); err != nil {
			rc.Close()
			return nil, fmt.Errorf("cache backend unavailable: %w", err)
		}
	}

	return &Pipeline{cfg: cfg, observer: observer, buildOpts: opts, cache: c}, nil
}

// BuildOptions returns the options used to build dictionaries.
func (p *Pipeline) BuildOptions() dictionary.BuildOptions {
	return p.buildOpts
}

// Client returns the API client, creating it on first use so that commands
// working on files alone need no token.
func (p *Pipeline) Client() (*qualtrics.Client, error) {
	if p.client != nil {
		return p.client, nil
	}

	debug := p.observer.Debug()
	retry := resilience.APIRetryConfig()
	retry.MaxRetries = p.cfg.API.MaxRetries
	retry.OnRetry = func(attempt int, err error) {
		debug.LogDetail("qualtrics", fmt.Sprintf("retry %d after error: %v", attempt, err))
	}

	client, err := qualtrics.NewClient(qualtrics.Options{
		BaseURL:      p.cfg.API.EffectiveBaseURL(),
		DataCenter:   p.cfg.API.DataCenter,
		Token:        p.cfg.API.Token(),
		Timeout:      p.cfg.API.Timeout,
		PollInterval: p.cfg.API.PollInterval,
		Retry:        retry,
		Cache:        p.cache,
		CacheTTL:     p.cfg.Cache.TTL,
		Observer:     p.observer,
	})
	if errors.Is(err, qualtrics.ErrMissingToken) {
		return nil, fmt.Errorf("%w: set %s", err, p.cfg.API.TokenEnv)
	}
	if err != nil {
		return nil, err
	}
	p.client = client
	return client, nil
}

// Dictionary loads the dictionary file of src, or builds the dictionary of
// its survey. Overrides and the filter apply to loaded files as well.
func (p *Pipeline) Dictionary(ctx context.Context, src Source) (*dictionary.Dictionary, error) {
	switch {
	case src.DictPath != "":
		dict, err := dictionary.Load(src.DictPath)
		if err != nil {
			return nil, err
		}
		return p.refine(dict)
	case src.SurveyID != "":
		client, err := p.Client()
		if err != nil {
			return nil, err
		}
		return dictionary.NewBuilder(client, p.buildOpts).Build(ctx, src.SurveyID)
	default:
		return nil, errors.New("either a survey id or a dictionary file is required")
	}
}

// refine applies the configured filter and overrides to a copy of a loaded
// dictionary.
func (p *Pipeline) refine(dict *dictionary.Dictionary) (*dictionary.Dictionary, error) {
	dict = dict.Clone()
	if p.buildOpts.Filter != nil {
		drop := make(map[string]bool)
		for _, v := range dict.Variables() {
			ok, err := p.buildOpts.Filter.Match(v.ToVars())
			if err != nil {
				return nil, fmt.Errorf("variable %s: %w", v.QID, err)
			}
			if !ok {
				drop[v.QID] = true
			}
		}
		dict = dict.Without(drop)
	}
	for qid, name := range p.buildOpts.Overrides {
		dict.Rename(qid, name)
	}
	return dict, nil
}

// Generate builds the dictionary of a survey and validates it. Variables
// with labelling mistakes are dropped when exclude_mistakes is set.
func (p *Pipeline) Generate(ctx context.Context, surveyID string) (*GenerateResult, error) {
	done := p.observer.Debug().StartStep("core", "generate", surveyID)
	dict, err := p.Dictionary(ctx, Source{SurveyID: surveyID})
	if err != nil {
		done(false, err.Error())
		return nil, err
	}
	result := &GenerateResult{Dictionary: dict, Validation: dictionary.Validate(dict)}
	if p.cfg.Dictionary.ExcludeMistakes {
		for qid := range result.Validation.MistakeQIDs() {
			result.Excluded = append(result.Excluded, qid)
		}
		result.Dictionary = dictionary.Exclude(dict, result.Validation)
	}
	done(true, fmt.Sprintf("%d rows, %d excluded", len(result.Dictionary.Rows), len(result.Excluded)))
	return result, nil
}

// Validate checks the dictionary of src.
func (p *Pipeline) Validate(ctx context.Context, src Source) (*dictionary.Dictionary, dictionary.ValidationResult, error) {
	dict, err := p.Dictionary(ctx, src)
	if err != nil {
		return nil, dictionary.ValidationResult{}, err
	}
	finish := p.observer.StartTiming("core", "validate", dict.SurveyID)
	result := dictionary.Validate(dict)
	finish(true, map[string]interface{}{
		"non_unique": len(result.NonUnique),
		"mistakes":   len(result.Mistakes),
	})
	return dict, result, nil
}

// Compare obtains both dictionaries concurrently and matches them.
func (p *Pipeline) Compare(ctx context.Context, src, ref Source) (*CompareResult, error) {
	// The client is shared by both fetches; create it before they start.
	if src.DictPath == "" || ref.DictPath == "" {
		if _, err := p.Client(); err != nil {
			return nil, err
		}
	}

	done := p.observer.Debug().StartStep("core", "compare", src.String()+" vs "+ref.String())
	var dict, refDict *dictionary.Dictionary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := p.Dictionary(gctx, src)
		if err != nil {
			return fmt.Errorf("dictionary %s: %w", src, err)
		}
		dict = d
		return nil
	})
	g.Go(func() error {
		d, err := p.Dictionary(gctx, ref)
		if err != nil {
			return fmt.Errorf("reference %s: %w", ref, err)
		}
		refDict = d
		return nil
	})
	if err := g.Wait(); err != nil {
		done(false, err.Error())
		return nil, err
	}

	finish := p.observer.StartTiming("core", "compare", dict.SurveyID)
	pairs, err := dictionary.Compare(dict, refDict, dictionary.CompareOptions{MaxDistance: p.cfg.Compare.MaxDistance})
	if err != nil {
		finish(false, map[string]interface{}{"error": err.Error()})
		done(false, err.Error())
		return nil, err
	}
	finish(true, map[string]interface{}{"correspondences": len(pairs)})
	done(true, fmt.Sprintf("%d correspondences", len(pairs)))
	return &CompareResult{Dictionary: dict, Reference: refDict, Correspondences: pairs}, nil
}

// Fetch exports the responses of src's survey and recodes them with its
// dictionary. A dictionary file may replace the generated dictionary but the
// survey id is always required. Variables whose names are not unique are
// reported in Dropped and left out of the dataset.
func (p *Pipeline) Fetch(ctx context.Context, src Source) (*FetchResult, error) {
	if src.SurveyID == "" {
		return nil, errors.New("a survey id is required to export responses")
	}
	client, err := p.Client()
	if err != nil {
		return nil, err
	}
	done := p.observer.Debug().StartStep("core", "fetch", src.SurveyID)
	dict, err := p.Dictionary(ctx, src)
	if err != nil {
		done(false, err.Error())
		return nil, err
	}
	validation := dictionary.Validate(dict)
	usable := validation.Usable(dict)

	rs, err := client.ExportResponses(ctx, src.SurveyID, usable.QuestionIDs())
	if err != nil {
		done(false, err.Error())
		return nil, fmt.Errorf("failed to export responses: %w", err)
	}
	ds, err := responses.Recode(responses.NewTable(rs), usable, responses.RecodeOptions{
		UnansweredRecode:      p.cfg.Responses.UnanswerRecode,
		UnansweredRecodeMulti: p.cfg.Responses.UnanswerRecodeMulti,
	})
	if err != nil {
		done(false, err.Error())
		return nil, err
	}
	done(true, fmt.Sprintf("%d responses, %d names dropped", len(rs), len(validation.NonUnique)))
	return &FetchResult{Dictionary: dict, Dataset: ds, Dropped: validation.NonUnique}, nil
}

// Close releases the definition cache.
func (p *Pipeline) Close() error {
	if p.cache == nil {
		return nil
	}
	return p.cache.Close()
}
