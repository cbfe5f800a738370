// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package qualtrics

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"
)

// Response is one respondent's exported record. Values are keyed by export
// key (QID3, QID3_2, QID5_TEXT, ...); numbers are float64, multi-answer
// selections are []interface{} and unanswered questions are absent.
type Response struct {
	ID     string
	Values map[string]interface{}
}

// ExportStatus is the progress of a response export job.
type ExportStatus struct {
	Status          string  `json:"status"`
	PercentComplete float64 `json:"percentComplete"`
	FileID          string  `json:"fileId"`
}

// ErrExportFailed is returned when the platform reports a failed export.
var ErrExportFailed = errors.New("qualtrics: response export failed")

// ExportResponses runs a JSON response export for the given questions (all
// questions when empty), waits for it to complete and returns the records.
func (c *Client) ExportResponses(ctx context.Context, surveyID string, questionIDs []string) ([]Response, error) {
	done := c.observer.StartTiming("qualtrics", "export_responses", surveyID)
	responses, err := c.exportResponses(ctx, surveyID, questionIDs)
	if err != nil {
		done(false, map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	done(true, map[string]interface{}{"responses": len(responses)})
	return responses, nil
}

func (c *Client) exportResponses(ctx context.Context, surveyID string, questionIDs []string) ([]Response, error) {
	if strings.TrimSpace(surveyID) == "" {
		return nil, errors.New("qualtrics: survey id is empty")
	}
	base := "/surveys/" + url.PathEscape(surveyID) + "/export-responses"

	body := map[string]interface{}{
		"format":   "json",
		"compress": true,
	}
	if len(questionIDs) > 0 {
		body["questionIds"] = questionIDs
	}

	raw, err := c.doJSON(ctx, "POST", base, body)
	if err != nil {
		return nil, fmt.Errorf("starting response export for %s: %w", surveyID, err)
	}
	var started struct {
		ProgressID string `json:"progressId"`
	}
	if err := json.Unmarshal(raw, &started); err != nil || started.ProgressID == "" {
		return nil, fmt.Errorf("starting response export for %s: no progress id in response", surveyID)
	}

	fileID, err := c.waitForExport(ctx, base, started.ProgressID)
	if err != nil {
		return nil, err
	}

	file, err := c.getRaw(ctx, base+"/"+url.PathEscape(fileID)+"/file")
	if err != nil {
		return nil, fmt.Errorf("downloading export file %s: %w", fileID, err)
	}
	return decodeExportFile(file)
}

func (c *Client) waitForExport(ctx context.Context, base, progressID string) (string, error) {
	debug := c.observer.Debug()
	for {
		raw, err := c.getResult(ctx, base+"/"+url.PathEscape(progressID))
		if err != nil {
			return "", fmt.Errorf("checking export progress %s: %w", progressID, err)
		}
		var st ExportStatus
		if err := json.Unmarshal(raw, &st); err != nil {
			return "", fmt.Errorf("decoding export progress: %w", err)
		}
		debug.LogMetric("qualtrics", "export_percent_complete", st.PercentComplete)

		switch strings.ToLower(st.Status) {
		case "complete":
			if st.FileID == "" {
				return "", fmt.Errorf("export %s complete without a file id", progressID)
			}
			return st.FileID, nil
		case "failed":
			return "", fmt.Errorf("%w: progress id %s", ErrExportFailed, progressID)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// decodeExportFile reads the JSON export, either raw or inside a zip archive.
func decodeExportFile(file []byte) ([]Response, error) {
	data := file
	if bytes.HasPrefix(file, []byte("PK")) {
		zr, err := zip.NewReader(bytes.NewReader(file), int64(len(file)))
		if err != nil {
			return nil, fmt.Errorf("opening export archive: %w", err)
		}
		data = nil
		for _, f := range zr.File {
			if !strings.EqualFold(path.Ext(f.Name), ".json") {
				continue
			}
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("opening %s in export archive: %w", f.Name, err)
			}
			data, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, fmt.Errorf("reading %s in export archive: %w", f.Name, err)
			}
			break
		}
		if data == nil {
			return nil, errors.New("export archive contains no JSON file")
		}
	}

	var payload struct {
		Responses []struct {
			ResponseID string                 `json:"responseId"`
			Values     map[string]interface{} `json:"values"`
		} `json:"responses"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding export file: %w", err)
	}

	out := make([]Response, 0, len(payload.Responses))
	for _, r := range payload.Responses {
		values := make(map[string]interface{}, len(r.Values))
		for k, v := range r.Values {
			values[k] = normalizeValue(v)
		}
		id := r.ResponseID
		if id == "" {
			if s, ok := values["_recordId"].(string); ok {
				id = s
			}
		}
		out = append(out, Response{ID: id, Values: values})
	}
	return out, nil
}

func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	default:
		return v
	}
}
