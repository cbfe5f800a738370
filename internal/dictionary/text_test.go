// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package dictionary

import "testing"

func TestCleanText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Plain   text\n here", "Plain text here"},
		{"<p>How <b>happy</b> are you?</p>", "How happy are you?"},
		{"Line one<br>Line two", "Line one Line two"},
		{"Fish &amp; chips&nbsp;today", "Fish & chips today"},
		{`<div>Text<script>alert("x")</script></div><style>p{}</style>`, "Text"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanText(tt.in); got != tt.want {
			t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
