// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package qualtrics

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"survey-dict/internal/cache"
	"survey-dict/internal/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, srv *httptest.Server, c cache.Cache) *Client {
	t.Helper()
	client, err := NewClient(Options{
		BaseURL:      srv.URL,
		Token:        "secret",
		PollInterval: time.Millisecond,
		Retry: resilience.RetryConfig{
			MaxRetries:      2,
			InitialInterval: time.Millisecond,
			Multiplier:      2.0,
		},
		Cache: c,
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresToken(t *testing.T) {
	_, err := NewClient(Options{DataCenter: "ca1"})
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = NewClient(Options{Token: "x"})
	assert.Error(t, err, "no base URL and no data center")

	c, err := NewClient(Options{Token: "x", DataCenter: "ca1"})
	require.NoError(t, err)
	assert.Equal(t, "https://ca1.qualtrics.com/API/v3", c.baseURL)
}

func TestFetchSurvey_DecodesDefinition(t *testing.T) {
	fixture, err := os.ReadFile("testdata/definition.json")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-API-TOKEN"))
		assert.Equal(t, "/survey-definitions/SV_abc123", r.URL.Path)
		w.Write(fixture)
	}))
	defer srv.Close()

	s, err := newTestClient(t, srv, nil).FetchSurvey(context.Background(), "SV_abc123")
	require.NoError(t, err)

	assert.Equal(t, "Wellbeing wave 1", s.Name)
	require.Len(t, s.Blocks, 2, "trash block is dropped")
	assert.Equal(t, "Intro", s.Blocks[0].Description)
	assert.Equal(t, "Mood", s.Blocks[1].Description)

	q1 := s.Questions["QID1"]
	require.Len(t, q1.Choices, 3)
	assert.Equal(t, "2", q1.Choices[1].Recode)
	assert.True(t, q1.Choices[2].TextEntry)

	q2 := s.Questions["QID2"]
	require.Len(t, q2.Answers, 2)
	assert.Equal(t, "2", q2.Answers[0].ID, "answers follow AnswerOrder")
	assert.Equal(t, "1", q2.Answers[0].Level())
	assert.Empty(t, q2.Choices[0].Recode, "matrix recodes apply to answers only")

	assert.Equal(t, "ValidNumber", s.Questions["QID3"].ContentType)
	assert.Empty(t, s.Questions["QID3"].Choices)

	var order []string
	for _, ref := range s.QuestionsInOrder() {
		order = append(order, ref.Question.ID)
	}
	assert.Equal(t, []string{"QID4", "QID1", "QID2", "QID3"}, order)
}

func TestFetchSurvey_UsesCache(t *testing.T) {
	fixture, err := os.ReadFile("testdata/definition.json")
	require.NoError(t, err)

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write(fixture)
	}))
	defer srv.Close()

	client := newTestClient(t, srv, cache.NewMemoryCache())
	for i := 0; i < 3; i++ {
		_, err := client.FetchSurvey(context.Background(), "SV_abc123")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestFetchSurvey_NotFoundIsNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"meta":{"httpStatus":"404 - Not Found","error":{"errorMessage":"Survey not found","errorCode":"QVAL_1"}}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, nil).FetchSurvey(context.Background(), "SV_missing")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Survey not found", apiErr.Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestFetchSurvey_RetriesServerErrors(t *testing.T) {
	fixture, err := os.ReadFile("testdata/definition.json")
	require.NoError(t, err)

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write(fixture)
	}))
	defer srv.Close()

	_, err = newTestClient(t, srv, nil).FetchSurvey(context.Background(), "SV_abc123")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func zipped(t *testing.T, name, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExportResponses_PollsAndDecodes(t *testing.T) {
	file := zipped(t, "Wellbeing wave 1.json", `{"responses":[
		{"responseId":"R_1","values":{"QID1":2,"QID2_1":1,"QID3_TEXT":"fine","QID5":[1,3]}},
		{"responseId":"R_2","values":{"QID1":1}}
	]}`)

	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/surveys/SV_abc123/export-responses":
			w.Write([]byte(`{"result":{"progressId":"ES_1"},"meta":{"httpStatus":"200 - OK"}}`))
		case r.URL.Path == "/surveys/SV_abc123/export-responses/ES_1":
			if atomic.AddInt32(&polls, 1) < 2 {
				w.Write([]byte(`{"result":{"status":"inProgress","percentComplete":50}}`))
				return
			}
			w.Write([]byte(`{"result":{"status":"complete","percentComplete":100,"fileId":"F_1"}}`))
		case r.URL.Path == "/surveys/SV_abc123/export-responses/F_1/file":
			w.Write(file)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	got, err := newTestClient(t, srv, nil).ExportResponses(context.Background(), "SV_abc123", []string{"QID1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "R_1", got[0].ID)
	assert.Equal(t, 2.0, got[0].Values["QID1"])
	assert.Equal(t, "fine", got[0].Values["QID3_TEXT"])
	assert.Equal(t, []interface{}{1.0, 3.0}, got[0].Values["QID5"])
	_, present := got[1].Values["QID2_1"]
	assert.False(t, present)
}

func TestExportResponses_Failed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Write([]byte(`{"result":{"progressId":"ES_1"}}`))
			return
		}
		w.Write([]byte(`{"result":{"status":"failed"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, nil).ExportResponses(context.Background(), "SV_abc123", nil)
	assert.ErrorIs(t, err, ErrExportFailed)
}

func TestDecodeExportFile_PlainJSON(t *testing.T) {
	got, err := decodeExportFile([]byte(`{"responses":[{"responseId":"R_9","values":{"QID1":"4"}}]}`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "4", got[0].Values["QID1"])
}

func TestDecodeExportFile_ArchiveWithoutJSON(t *testing.T) {
	_, err := decodeExportFile(zipped(t, "readme.txt", "nothing"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "no JSON file"))
}

func TestFetchSurvey_WaitsForRetryAfter(t *testing.T) {
	fixture, err := os.ReadFile("testdata/definition.json")
	require.NoError(t, err)

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("User-Agent"), "survey-dict/"))
		if atomic.AddInt32(&hits, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write(fixture)
	}))
	defer srv.Close()

	start := time.Now()
	_, err = newTestClient(t, srv, nil).FetchSurvey(context.Background(), "SV_abc123")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.GreaterOrEqual(t, time.Since(start), time.Second)
}
