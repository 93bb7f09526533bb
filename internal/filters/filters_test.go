// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/staranto/toolman/internal/attrs"
)

// Rows as inspect and ls emit them.
const artifactRows = `[
	{"path": "frames/rgb.png", "format": "png", "dtype": "uint8", "shape": [8, 8, 3], "channels": 3, "bytes": 412, "size": "412 B"},
	{"path": "frames/depth.tif", "format": "tiff", "dtype": "uint16", "shape": [480, 640], "channels": 1, "bytes": 2457600, "size": "2.5 MB"},
	{"path": "scores.npy", "format": "npy", "dtype": "float32", "shape": [1000], "bytes": 4128, "size": "4.1 kB"},
	{"path": "labels.npy", "format": "npy", "dtype": "int64", "shape": [8, 8], "bytes": 640, "size": "640 B"},
	{"path": "masks.pkl", "format": "pkl", "dtype": "uint8", "shape": [4, 8, 8, 1], "channels": 1, "bytes": 900, "size": "900 B"},
	{"path": "run.yaml", "format": "yaml", "bytes": 88, "size": "88 B"},
	{"path": "notes.csv", "format": "-", "bytes": 12, "size": "12 B"}
]`

func artifactAttrs(t *testing.T) attrs.AttrList {
	t.Helper()
	var al attrs.AttrList
	require.NoError(t, al.Set("path,format,dtype,shape,channels,bytes,size,shape.0:height"))
	return al
}

func matchedPaths(t *testing.T, spec string) []string {
	t.Helper()
	rows, err := FilterDataset(gjson.Parse(artifactRows), artifactAttrs(t), spec)
	require.NoError(t, err)
	paths := []string{}
	for _, r := range rows {
		paths = append(paths, r["path"].(string))
	}
	return paths
}

func TestParse(t *testing.T) {
	tests := []struct {
		spec string
		want []Filter
	}{
		{spec: "", want: nil},
		{spec: "shape=8x8x3", want: []Filter{{Key: "shape", Op: '=', Target: "8x8x3"}}},
		{spec: "dtype!~int", want: []Filter{{Key: "dtype", Negate: true, Op: '~', Target: "int"}}},
		{spec: "bytes>1MB,format~image", want: []Filter{
			{Key: "bytes", Op: '>', Target: "1MB"},
			{Key: "format", Op: '~', Target: "image"},
		}},
		{spec: "path/^frames/.*\\.png$", want: []Filter{{Key: "path", Op: '/', Target: "^frames/.*\\.png$"}}},
		{spec: " path@=x", want: []Filter{{Key: "path", Op: '@', Target: "=x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := Parse(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, spec := range []string{"shape", "=png", "format=png,,", "path/[a-"} {
		t.Run(spec, func(t *testing.T) {
			_, err := Parse(spec)
			assert.ErrorIs(t, err, ErrExpression)
		})
	}
}

func TestParse_Delimiter(t *testing.T) {
	t.Setenv("TOOLMAN_FILTER_DELIM", ";")
	got, err := Parse("path@a,b;format=npy")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a,b", got[0].Target)
	assert.Equal(t, "format=npy", got[1].String())
}

func TestFilterDataset_Shape(t *testing.T) {
	tests := []struct {
		spec string
		want []string
	}{
		{spec: "shape=8x8x3", want: []string{"frames/rgb.png"}},
		{spec: "shape=8X8", want: []string{"labels.npy"}},
		{spec: "shape!=8x8x3", want: []string{"frames/depth.tif", "scores.npy", "labels.npy", "masks.pkl"}},
		{spec: "shape^8x8", want: []string{"frames/rgb.png", "labels.npy"}},
		{spec: "shape@1", want: []string{"masks.pkl"}},
		{spec: "shape@8x8", want: []string{"frames/rgb.png", "labels.npy", "masks.pkl"}},
		{spec: "shape>1000", want: []string{"frames/depth.tif"}},
		{spec: "shape<8x8x3", want: []string{"labels.npy"}},
		{spec: "shape/^8x", want: []string{"frames/rgb.png", "labels.npy"}},
		{spec: "height=480", want: []string{"frames/depth.tif"}},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			assert.Equal(t, tt.want, matchedPaths(t, tt.spec))
		})
	}
}

func TestFilterDataset_Families(t *testing.T) {
	tests := []struct {
		spec string
		want []string
	}{
		{spec: "dtype~int", want: []string{"frames/rgb.png", "frames/depth.tif", "labels.npy", "masks.pkl"}},
		{spec: "dtype~uint", want: []string{"frames/rgb.png", "frames/depth.tif", "masks.pkl"}},
		{spec: "dtype~sint", want: []string{"labels.npy"}},
		{spec: "dtype~FLOAT", want: []string{"scores.npy"}},
		{spec: "dtype!~wide", want: []string{"frames/rgb.png", "masks.pkl"}},
		{spec: "format~image", want: []string{"frames/rgb.png", "frames/depth.tif"}},
		{spec: "format~array,dtype~uint", want: []string{"masks.pkl"}},
		{spec: "format~config", want: []string{"run.yaml"}},
		{spec: "format~PNG", want: []string{"frames/rgb.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			assert.Equal(t, tt.want, matchedPaths(t, tt.spec))
		})
	}
}

func TestFilterDataset_Sizes(t *testing.T) {
	tests := []struct {
		spec string
		want []string
	}{
		{spec: "bytes>1MB", want: []string{"frames/depth.tif"}},
		{spec: "bytes<100", want: []string{"run.yaml", "notes.csv"}},
		{spec: "bytes>500,bytes<1KiB", want: []string{"labels.npy", "masks.pkl"}},
		{spec: "bytes=412", want: []string{"frames/rgb.png"}},
		{spec: "channels=1", want: []string{"frames/depth.tif", "masks.pkl"}},
		{spec: "channels!=3", want: []string{"frames/depth.tif", "masks.pkl"}},
		{spec: "size@kB", want: []string{"scores.npy"}},
		{spec: "bytes>lots", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			assert.Equal(t, tt.want, matchedPaths(t, tt.spec))
		})
	}
}

func TestFilterDataset_Text(t *testing.T) {
	tests := []struct {
		spec string
		want []string
	}{
		{spec: "path^frames/", want: []string{"frames/rgb.png", "frames/depth.tif"}},
		{spec: "path/\\.npy$", want: []string{"scores.npy", "labels.npy"}},
		{spec: "path!/\\.npy$,format!=-", want: []string{"frames/rgb.png", "frames/depth.tif", "masks.pkl", "run.yaml"}},
		{spec: "format=-", want: []string{"notes.csv"}},
		{spec: "path<m", want: []string{"frames/rgb.png", "frames/depth.tif", "labels.npy"}},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			assert.Equal(t, tt.want, matchedPaths(t, tt.spec))
		})
	}
}

func TestFilterDataset_MissingValues(t *testing.T) {
	// Rows without a dtype never match, negated or not.
	assert.Equal(t, []string{"scores.npy"}, matchedPaths(t, "dtype=float32"))
	assert.Equal(t, []string{"frames/rgb.png", "frames/depth.tif", "labels.npy", "masks.pkl"},
		matchedPaths(t, "dtype!=float32"))
}

func TestFilterDataset_Projection(t *testing.T) {
	var al attrs.AttrList
	require.NoError(t, al.Set("path,!bytes,shape.1:width"))

	rows, err := FilterDataset(gjson.Parse(artifactRows), al, "bytes>1MB")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]interface{}{
		"path":  "frames/depth.tif",
		"bytes": 2457600.0,
		"width": 640.0,
	}, rows[0])
}

func TestFilterDataset_Errors(t *testing.T) {
	_, err := FilterDataset(gjson.Parse(artifactRows), artifactAttrs(t), "digest^ab")
	assert.ErrorIs(t, err, ErrUnknownKey)

	_, err = FilterDataset(gjson.Parse(artifactRows), artifactAttrs(t), "shape")
	assert.ErrorIs(t, err, ErrExpression)
}

func TestFilter_ListValues(t *testing.T) {
	tags := gjson.Parse(`["seg", "unet"]`)

	assert.True(t, Filter{Op: '@', Target: "unet"}.Match(tags))
	assert.False(t, Filter{Op: '@', Target: "un"}.Match(tags))
	assert.True(t, Filter{Op: '=', Target: "seg,unet"}.Match(tags))

	obj := gjson.Parse(`{"epoch": 2}`)
	assert.True(t, Filter{Op: '@', Target: "epoch"}.Match(obj))
	assert.True(t, Filter{Op: '@', Negate: true, Target: "loss"}.Match(obj))
}
