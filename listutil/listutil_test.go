// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package listutil

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrToList_Strings(t *testing.T) {
	tests := []struct {
		s    string
		sep  string
		want []string
	}{
		{s: "a_b_c_d_e", sep: "_", want: []string{"a", "b", "c", "d", "e"}},
		{s: "a 13_b 14", sep: "_", want: []string{"a 13", "b 14"}},
		{s: "x,,y, ", sep: ",", want: []string{"x", "y"}},
		{s: "", sep: ",", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.s, func(t *testing.T) {
			got, err := StrToList(tt.s, tt.sep, ParseString)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStrToList_Numbers(t *testing.T) {
	ints, err := StrToList("12 3 119 2", " ", ParseInt)
	require.NoError(t, err)
	assert.Equal(t, []int{12, 3, 119, 2}, ints)

	floats, err := StrToList("0.5;1e3; -2", ";", ParseFloat)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1000, -2}, floats)

	_, err = StrToList("1 two 3", " ", ParseInt)
	require.Error(t, err)
	assert.ErrorIs(t, err, strconv.ErrSyntax)
	assert.Contains(t, err.Error(), `field 1 "two"`)
}

func TestChunk(t *testing.T) {
	xs := []int{1, 2, 3, 4, 5, 6, 7}
	tests := []struct {
		name string
		n    int
		want [][]int
	}{
		{name: "three", n: 3, want: [][]int{{1, 2, 3}, {4, 5}, {6, 7}}},
		{name: "one", n: 1, want: [][]int{xs}},
		{name: "zero clamps", n: 0, want: [][]int{xs}},
		{name: "too many", n: 10, want: [][]int{{1}, {2}, {3}, {4}, {5}, {6}, {7}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Chunk(xs, tt.n))
		})
	}

	assert.Nil(t, Chunk([]int{}, 2))
}
