// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartTiming_DebugWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	obs := New(true, &buf)

	done := obs.StartTiming("dictionary", "build", "SV_123")
	done(true, map[string]interface{}{"variables": 4})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)

	var data StandardObservabilityData
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &data))
	assert.Equal(t, "dictionary", data.Component)
	assert.Equal(t, "build", data.Operation)
	assert.Equal(t, "SV_123", data.SurveyID)
	assert.True(t, data.Success)
	assert.NotEmpty(t, data.RequestID)
}

func TestStartTiming_MetricsLevelIsSilent(t *testing.T) {
	var buf bytes.Buffer
	obs := New(false, &buf)

	obs.StartTiming("dictionary", "build", "SV_123")(true, nil)
	assert.Empty(t, buf.String())
	assert.Nil(t, obs.Debug())
}

func TestDebugObserver_StepIndentation(t *testing.T) {
	var buf bytes.Buffer
	d := NewDebugObserver(&buf)

	outer := d.StartStep("core", "generate", "SV_1")
	inner := d.StartStep("qualtrics", "fetch", "SV_1")
	d.LogDetail("qualtrics", "12 questions")
	inner(true, "")
	outer(false, "boom")

	out := buf.String()
	assert.Contains(t, out, "  🔄 qualtrics: fetch (SV_1)")
	assert.Contains(t, out, "     → qualtrics: 12 questions")
	assert.Contains(t, out, "❌ core: generate failed")
}

func TestNilDebugObserverIsSafe(t *testing.T) {
	var d *DebugObserver
	d.StartStep("a", "b", "c")(true, "")
	d.LogDetail("a", "b")
	d.LogMetric("a", "b", 1)
}
