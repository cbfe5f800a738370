// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package dictionary

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifyingFields(t *testing.T) {
	tests := []struct {
		name        string
		qtype       string
		selector    string
		subSelector string
		hasItem     bool
		want        FieldSet
	}{
		{"mc single", "MC", "SAVR", "TX", false, question},
		{"mc dropdown", "MC", "DL", "", false, question},
		{"mc multi", "MC", "MAVR", "TX", true, questionItem},
		{"mc multi without item", "MC", "MACOL", "TX", false, question},
		{"mc text entry", "MC", "SAVR", TextEntrySubSelector, true, questionItem},
		{"matrix single", "Matrix", "Likert", "SingleAnswer", true, questionItem},
		{"matrix dropdown", "Matrix", "Likert", "DL", true, questionItem},
		{"matrix multi", "Matrix", "Likert", "MultipleAnswer", true, questionItemLabel},
		{"matrix bipolar", "Matrix", "Bipolar", "", true, questionItem},
		{"matrix text", "Matrix", "TE", "Long", true, questionItemLabel},
		{"matrix text no sub", "Matrix", "TE", "", true, questionItemLabel},
		{"slider", "Slider", "HSLIDER", "", true, questionItem},
		{"text single line", "TE", "SL", "", false, question},
		{"text form", "TE", "FORM", "", true, questionItem},
		{"side by side", "SBS", "SBSMatrix", "", true, questionItem},
		{"constant sum", "CS", "VRTL", "", true, questionItem},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IdentifyingFields(tt.qtype, tt.selector, tt.subSelector, tt.hasItem)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "got %s", got)
		})
	}
}

func TestIdentifyingFields_Unsupported(t *testing.T) {
	tests := []struct{ qtype, selector, sub string }{
		{"HeatMap", "HeatMap", ""},
		{"MC", "XYZ", ""},
		{"Matrix", "Likert", "Carousel"},
		{"Matrix", "TE", "Huge"},
	}
	for _, tt := range tests {
		_, err := IdentifyingFields(tt.qtype, tt.selector, tt.sub, true)
		require.Error(t, err, "%v", tt)
		assert.True(t, errors.Is(err, ErrUnsupportedVariant))
		var uv *UnsupportedVariantError
		require.True(t, errors.As(err, &uv))
		assert.Equal(t, tt.qtype, uv.Type)
		assert.Equal(t, tt.sub, uv.SubSelector)
	}
}

func TestSupportedVariants_NeverEmpty(t *testing.T) {
	variants := SupportedVariants()
	require.NotEmpty(t, variants)
	for _, v := range variants {
		sub := v.SubSelector
		if sub == anySub {
			sub = "anything"
		}
		for _, hasItem := range []bool{true, false} {
			fields, err := IdentifyingFields(v.Type, v.Selector, sub, hasItem)
			require.NoError(t, err, "%+v", v)
			assert.False(t, fields.Empty(), "%+v", v)
			assert.True(t, fields.Has(FieldQuestion), "%+v", v)
		}
	}
}

func TestSupportedVariants_Deterministic(t *testing.T) {
	assert.Equal(t, SupportedVariants(), SupportedVariants())
}

func TestFieldSet_String(t *testing.T) {
	assert.Equal(t, "question", question.String())
	assert.Equal(t, "question+item+label", questionItemLabel.String())
	assert.Equal(t, "none", FieldSet(0).String())
}

func TestIdentifyingText(t *testing.T) {
	v := Variable{Type: "Matrix", Selector: "Likert", SubSelector: "MultipleAnswer",
		Question: "Which apply", Item: "Monday", Labels: []string{"Morning"}}
	text, err := IdentifyingText(v)
	require.NoError(t, err)
	assert.Equal(t, "Which apply - Monday - Morning", text)

	v = Variable{Type: "MC", Selector: "SAVR", Question: "Gender", Item: "ignored", Labels: []string{"Female"}}
	text, err = IdentifyingText(v)
	require.NoError(t, err)
	assert.Equal(t, "Gender", text)
}
