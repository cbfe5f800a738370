// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockPrefix(t *testing.T) {
	cases := []struct {
		expression string
		block      string
		want       string
	}{
		{`block.split(" ")[0].lowerAscii()`, "PHQ9 Depression", "phq9"},
		{`block == "Intro" ? "" : block.substring(0, 3)`, "Demographics", "Dem"},
		{`block == "Intro" ? "" : block.substring(0, 3)`, "Intro", ""},
	}
	for _, tc := range cases {
		t.Run(tc.expression+"/"+tc.block, func(t *testing.T) {
			bp, err := NewBlockPrefix(tc.expression)
			require.NoError(t, err)
			got, err := bp.Prefix(tc.block)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBlockPrefix_RejectsNonString(t *testing.T) {
	_, err := NewBlockPrefix(`size(block)`)
	assert.Error(t, err)

	_, err = NewBlockPrefix(`block.`)
	assert.Error(t, err)

	_, err = NewBlockPrefix("")
	assert.Error(t, err)
}

func TestRowFilter(t *testing.T) {
	f, err := NewRowFilter(`type == "Matrix" && block.startsWith("Mood")`)
	require.NoError(t, err)

	ok, err := f.Match(map[string]string{"type": "Matrix", "block": "Mood items"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.Match(map[string]string{"type": "MC", "block": "Mood items"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.Match(nil)
	require.NoError(t, err)
	assert.False(t, ok, "missing variables are empty strings")
}

func TestRowFilter_RejectsNonBool(t *testing.T) {
	_, err := NewRowFilter(`name`)
	assert.Error(t, err)

	_, err = NewRowFilter(`unknown_var == "x"`)
	assert.Error(t, err)
}
