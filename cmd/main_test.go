// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"survey-dict/internal/config"
	"survey-dict/internal/overrides"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFlags(t *testing.T, args ...string) *commandFlags {
	t.Helper()
	f := newCommandFlags("generate")
	require.NoError(t, f.fs.Parse(args))
	return f
}

func TestResolveConfiguration_FlagsWinOverProfile(t *testing.T) {
	cfg := config.Defaults()
	f := parseFlags(t, "--profile", "easyname", "--name-style", "as_is", "--max-distance", "2", "--unanswer-recode", "-99")

	require.NoError(t, resolveConfiguration(cfg, f))
	assert.Equal(t, "easyname", cfg.Dictionary.VarName, "from profile")
	assert.Equal(t, "as_is", cfg.Dictionary.NameStyle, "flag beats profile")
	assert.Equal(t, 2, cfg.Compare.MaxDistance)
	require.NotNil(t, cfg.Responses.UnanswerRecode)
	assert.Equal(t, -99.0, *cfg.Responses.UnanswerRecode)
	assert.Nil(t, cfg.Responses.UnanswerRecodeMulti)
}

func TestResolveConfiguration_UnsetFlagsKeepConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Compare.MaxDistance = 7
	cfg.Dictionary.BlockSep = "__"

	require.NoError(t, resolveConfiguration(cfg, parseFlags(t)))
	assert.Equal(t, 7, cfg.Compare.MaxDistance)
	assert.Equal(t, "__", cfg.Dictionary.BlockSep)
	assert.Equal(t, "text", cfg.Defaults.Format)
}

func TestResolveConfiguration_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown profile", []string{"--profile", "nope"}},
		{"unknown format", []string{"--format", "sarif"}},
		{"bad var name", []string{"--var-name", "short"}},
		{"negative distance", []string{"--max-distance", "-1"}},
		{"non numeric recode", []string{"--unanswer-recode-multi", "zero"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, resolveConfiguration(config.Defaults(), parseFlags(t, tt.args...)))
		})
	}
}

func TestRun_Commands(t *testing.T) {
	t.Setenv("SURVEYDICT_CONFIG_DIR", t.TempDir())

	assert.Equal(t, exitOK, run([]string{"version"}))
	assert.Equal(t, exitOK, run([]string{"types"}))
	assert.Equal(t, exitOK, run([]string{"help", "fetch"}))
	assert.Equal(t, exitUsage, run([]string{"help", "scan"}))
	assert.Equal(t, exitUsage, run([]string{"scan"}))
	assert.Equal(t, exitUsage, run(nil))
	assert.Equal(t, exitUsage, run([]string{"generate", "--no-such-flag"}))
	assert.Equal(t, exitFailure, run([]string{"generate"}), "survey id is required")
}

func TestRun_ValidateDictionaryFile(t *testing.T) {
	t.Setenv("SURVEYDICT_CONFIG_DIR", t.TempDir())
	dir := t.TempDir()

	dict := filepath.Join(dir, "dict.csv")
	require.NoError(t, os.WriteFile(dict, []byte(
		"qid,question_id,name,block,question,item,type,selector,sub_selector,content_type,level,label,column\n"+
			"QID1,QID1,age,Intro,How old are you?,,TE,SL,,,,,1\n"+
			"QID2,QID2,age,Intro,Age again?,,TE,SL,,,,,2\n"), 0600))

	out := filepath.Join(dir, "report.json")
	assert.Equal(t, exitValidation, run([]string{"validate", "--dict", dict, "--format", "json", "--output", out}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "age")
}

func TestRun_PipelineSetupFailure(t *testing.T) {
	t.Setenv("SURVEYDICT_CONFIG_DIR", t.TempDir())
	dir := t.TempDir()

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"cache:\n  backend: redis\n  redis:\n    address: 127.0.0.1:1\n"), 0600))

	assert.Equal(t, exitFailure, run([]string{"generate", "--config", cfgPath, "--survey", "SV_abc123"}))
}

func TestRun_FetchLeavesOutSharedNames(t *testing.T) {
	t.Setenv("SURVEYDICT_CONFIG_DIR", t.TempDir())
	t.Setenv("QUALTRICS_API_KEY", "secret")
	dir := t.TempDir()

	fixture, err := os.ReadFile("../internal/qualtrics/testdata/definition.json")
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/survey-definitions/SV_abc123":
			w.Write(fixture)
		case "/surveys/SV_abc123/export-responses":
			w.Write([]byte(`{"result":{"progressId":"ES_1"}}`))
		case "/surveys/SV_abc123/export-responses/ES_1":
			w.Write([]byte(`{"result":{"status":"complete","percentComplete":100,"fileId":"F_1"}}`))
		case "/surveys/SV_abc123/export-responses/F_1/file":
			w.Write([]byte(`{"responses":[{"responseId":"R_1","values":{"QID1":2,"QID3_TEXT":"fine"}}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"api:\n  base_url: "+srv.URL+"\n  poll_interval: 1ms\n  max_retries: 0\n"), 0600))

	overridesPath := filepath.Join(dir, "overrides.yaml")
	manager, err := overrides.NewManager(overridesPath)
	require.NoError(t, err)
	require.NoError(t, manager.Set("QID3_TEXT", "Q1", ""))

	out := filepath.Join(dir, "responses.csv")
	assert.Equal(t, exitValidation, run([]string{"fetch", "--config", cfgPath, "--survey", "SV_abc123",
		"--overrides", overridesPath, "--output", out}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Q2_1")
	assert.NotContains(t, string(data), "fine")
}
