// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package help

import (
	"bytes"
	"strings"
	"testing"
)

func TestShowGeneralHelp_ListsCommands(t *testing.T) {
	var buf bytes.Buffer
	NewSystem(&buf, true).ShowGeneralHelp()
	out := buf.String()
	for _, c := range Commands {
		if !strings.Contains(out, c.Name) {
			t.Errorf("general help does not mention %q", c.Name)
		}
	}
}

func TestShowCommandHelp(t *testing.T) {
	var buf bytes.Buffer
	h := NewSystem(&buf, true)
	if !h.ShowCommandHelp("compare") {
		t.Fatal("expected compare to be known")
	}
	if !strings.Contains(buf.String(), "--max-distance") {
		t.Error("compare help should document --max-distance")
	}
	if h.ShowCommandHelp("scan") {
		t.Error("unknown command reported as known")
	}
}

func TestShowTypesHelp(t *testing.T) {
	var buf bytes.Buffer
	NewSystem(&buf, true).ShowTypesHelp()
	out := buf.String()
	for _, want := range []string{"Matrix", "MultipleAnswer", "question+item+label", "SBSMatrix"} {
		if !strings.Contains(out, want) {
			t.Errorf("types help missing %q", want)
		}
	}
}
