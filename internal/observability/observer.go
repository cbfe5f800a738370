// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"
)

// StandardObserver records timing and outcome of pipeline operations
type StandardObserver struct {
	level         ObservabilityLevel
	writer        io.Writer
	DebugObserver *DebugObserver // Reference to debug observer when in debug mode
}

type ObservabilityLevel int

const (
	ObservabilityOff     ObservabilityLevel = 0
	ObservabilityMetrics ObservabilityLevel = 1
	ObservabilityDebug   ObservabilityLevel = 2
)

// NewStandardObserver creates observability component
func NewStandardObserver(level ObservabilityLevel, writer io.Writer) *StandardObserver {
	return &StandardObserver{
		level:  level,
		writer: writer,
	}
}

// New returns the observer matching the debug setting: a DebugObserver-backed
// observer when debug is on, a metrics-only one otherwise.
func New(debug bool, writer io.Writer) *StandardObserver {
	if debug {
		d := NewDebugObserver(writer)
		d.StandardObserver.DebugObserver = d
		return d.StandardObserver
	}
	return NewStandardObserver(ObservabilityMetrics, writer)
}

// Nop returns an observer that records nothing.
func Nop() *StandardObserver {
	return NewStandardObserver(ObservabilityOff, io.Discard)
}

// StartTiming returns a function to complete timing
func (o *StandardObserver) StartTiming(component, operation, surveyID string) func(success bool, metadata map[string]interface{}) {
	start := time.Now()

	return func(success bool, metadata map[string]interface{}) {
		o.LogOperation(StandardObservabilityData{
			Component:  component,
			Operation:  operation,
			SurveyID:   surveyID,
			DurationMs: time.Since(start).Milliseconds(),
			Success:    success,
			Metadata:   metadata,
		})
	}
}

// LogOperation logs operation data
func (o *StandardObserver) LogOperation(data StandardObservabilityData) {
	if o == nil || o.level == ObservabilityOff {
		return
	}

	data.RequestID = uuid.NewString()

	// Only log JSON in debug mode
	if o.level == ObservabilityDebug {
		json.NewEncoder(o.writer).Encode(data)
	}
}

// Debug returns the attached debug observer, or nil outside debug mode.
func (o *StandardObserver) Debug() *DebugObserver {
	if o == nil {
		return nil
	}
	return o.DebugObserver
}

// StandardObservabilityData for all components
type StandardObservabilityData struct {
	Component     string                 `json:"component"`
	Operation     string                 `json:"operation"`
	RequestID     string                 `json:"request_id"`
	SurveyID      string                 `json:"survey_id,omitempty"`
	DurationMs    int64                  `json:"duration_ms,omitempty"`
	Success       bool                   `json:"success"`
	Error         string                 `json:"error,omitempty"`
	VariableCount int                    `json:"variable_count,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}
