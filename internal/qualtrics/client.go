// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package qualtrics is a small client for the Qualtrics v3 REST API covering
// the two calls the dictionary tooling needs: survey definitions and response
// exports.
package qualtrics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"survey-dict/internal/cache"
	"survey-dict/internal/observability"
	"survey-dict/internal/resilience"
	"survey-dict/internal/version"
)

// ErrMissingToken is returned by NewClient when no API token is configured.
var ErrMissingToken = errors.New("qualtrics: API token is not set")

// APIError is a non-2xx response from the API.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
	Endpoint  string
	// Wait is the delay requested by a Retry-After header, if any.
	Wait time.Duration
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("qualtrics %s: %d %s (%s)", e.Endpoint, e.Status, msg, e.Code)
	}
	return fmt.Sprintf("qualtrics %s: %d %s", e.Endpoint, e.Status, msg)
}

// RetryAfter lets resilience.RetryWithBackoff wait as long as the API asks.
func (e *APIError) RetryAfter() time.Duration {
	return e.Wait
}

// HTTPStatus lets resilience.ClassifyError decide on retries.
func (e *APIError) HTTPStatus() int {
	return e.Status
}

// Options configures a Client.
type Options struct {
	// BaseURL overrides the URL derived from DataCenter, e.g. for tests.
	BaseURL      string
	DataCenter   string
	Token        string
	Timeout      time.Duration
	PollInterval time.Duration
	Retry        resilience.RetryConfig
	HTTPClient   *http.Client
	Cache        cache.Cache
	CacheTTL     time.Duration
	Observer     *observability.StandardObserver
}

// Client talks to one Qualtrics data center with one API token.
type Client struct {
	baseURL      string
	token        string
	http         *http.Client
	retry        resilience.RetryConfig
	pollInterval time.Duration
	cache        cache.Cache
	cacheTTL     time.Duration
	observer     *observability.StandardObserver
}

// NewClient validates the options and builds a client.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, ErrMissingToken
	}

	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		if opts.DataCenter == "" {
			return nil, errors.New("qualtrics: either base URL or data center must be set")
		}
		base = fmt.Sprintf("https://%s.qualtrics.com/API/v3", opts.DataCenter)
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("qualtrics: invalid base URL %q: %w", base, err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	poll := opts.PollInterval
	if poll <= 0 {
		poll = 2 * time.Second
	}

	observer := opts.Observer
	if observer == nil {
		observer = observability.Nop()
	}

	return &Client{
		baseURL:      base,
		token:        opts.Token,
		http:         httpClient,
		retry:        opts.Retry,
		pollInterval: poll,
		cache:        opts.Cache,
		cacheTTL:     opts.CacheTTL,
		observer:     observer,
	}, nil
}

// envelope is the standard v3 response wrapper.
type envelope struct {
	Result json.RawMessage `json:"result"`
	Meta   struct {
		HTTPStatus string `json:"httpStatus"`
		RequestID  string `json:"requestId"`
		Error      *struct {
			ErrorMessage string `json:"errorMessage"`
			ErrorCode    string `json:"errorCode"`
		} `json:"error"`
	} `json:"meta"`
}

// FetchSurvey returns the question metadata of a survey. Definitions are
// served from the cache when one is configured.
func (c *Client) FetchSurvey(ctx context.Context, surveyID string) (*Survey, error) {
	if strings.TrimSpace(surveyID) == "" {
		return nil, errors.New("qualtrics: survey id is empty")
	}

	done := c.observer.StartTiming("qualtrics", "fetch_survey", surveyID)
	cacheKey := "survey-definition:" + surveyID

	if c.cache != nil {
		raw, ok, err := c.cache.Get(ctx, cacheKey)
		if err == nil && ok {
			s, err := decodeDefinition(raw)
			if err == nil {
				done(true, map[string]interface{}{"cache": "hit", "questions": len(s.Questions)})
				return s, nil
			}
		}
	}

	raw, err := c.getResult(ctx, "/survey-definitions/"+url.PathEscape(surveyID))
	if err != nil {
		done(false, map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("fetching survey definition %s: %w", surveyID, err)
	}

	s, err := decodeDefinition(raw)
	if err != nil {
		done(false, map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	if s.ID == "" {
		s.ID = surveyID
	}

	if c.cache != nil {
		// A failing cache only costs a refetch next time.
		_ = c.cache.Set(ctx, cacheKey, raw, c.cacheTTL)
	}

	done(true, map[string]interface{}{"cache": "miss", "questions": len(s.Questions)})
	return s, nil
}

func (c *Client) getResult(ctx context.Context, path string) (json.RawMessage, error) {
	return c.doJSON(ctx, http.MethodGet, path, nil)
}

// doJSON performs a request with retries and returns the result field of the
// response envelope.
func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
	}

	return resilience.RetryWithResult(ctx, c.retry, func(ctx context.Context) (json.RawMessage, error) {
		b, err := c.do(ctx, method, path, payload, "application/json")
		if err != nil {
			return nil, err
		}
		var env envelope
		if err := json.Unmarshal(b, &env); err != nil {
			return nil, resilience.NewPermanentError(fmt.Sprintf("decoding %s response: %v", path, err), err)
		}
		return env.Result, nil
	})
}

// getRaw downloads a non-JSON body (export files) with retries.
func (c *Client) getRaw(ctx context.Context, path string) ([]byte, error) {
	return resilience.RetryWithResult(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		return c.do(ctx, http.MethodGet, path, nil, "")
	})
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, contentType string) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, resilience.NewPermanentError(fmt.Sprintf("building request: %v", err), err)
	}
	req.Header.Set("X-API-TOKEN", c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if contentType != "" && payload != nil {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(fmt.Sprintf("reading %s response: %v", path, err), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Endpoint: method + " " + path}
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			apiErr.Wait = time.Duration(secs) * time.Second
		}
		var env envelope
		if json.Unmarshal(b, &env) == nil {
			apiErr.RequestID = env.Meta.RequestID
			if env.Meta.Error != nil {
				apiErr.Message = env.Meta.Error.ErrorMessage
				apiErr.Code = env.Meta.Error.ErrorCode
			}
		}
		return nil, apiErr
	}
	return b, nil
}
