// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package visutil

import (
	"image/color"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/toolman/ndarray"
)

func TestColorList(t *testing.T) {
	got := ColorList()
	require.Len(t, got, 10)
	assert.Equal(t, RGB{0x1f, 0x77, 0xb4}, got[0])
	assert.Equal(t, RGB{0xff, 0x7f, 0x0e}, got[1])
	assert.Equal(t, RGB{0x17, 0xbe, 0xcf}, got[9])

	lc := LabelColors(12)
	assert.Equal(t, White, lc[0])
	assert.Equal(t, got[1], lc[1])
	assert.Equal(t, got[1], lc[11])
}

func TestDecodeLabelMap(t *testing.T) {
	for _, shape := range [][]int{{1, 16, 16, 1}, {1, 16, 16}} {
		for _, n := range []int{3, 8} {
			label := ndarray.New[int64](shape...)
			for i := range label.Data {
				label.Data[i] = int64(rand.IntN(n))
			}

			got, err := DecodeLabelMap(label, n, nil)
			require.NoError(t, err)
			assert.Equal(t, []int{1, 16, 16, 3}, got.Shape)

			colors := LabelColors(n)
			for i, v := range label.Data {
				c := colors[v]
				assert.Equal(t, c[:], got.Data[3*i:3*i+3], "pixel %d", i)
			}
		}
	}
}

func TestDecodeLabelMap_Errors(t *testing.T) {
	label, _ := ndarray.FromSlice([]uint8{0, 1, 5, 1}, 1, 2, 2)
	_, err := DecodeLabelMap(label, 2, nil)
	assert.ErrorIs(t, err, ErrLabel)

	frac, _ := ndarray.FromSlice([]float32{0, 0.5}, 1, 1, 2)
	_, err = DecodeLabelMap(frac, 2, nil)
	assert.ErrorIs(t, err, ErrLabel)

	_, err = DecodeLabelMap(ndarray.New[uint8](4, 4), 2, nil)
	assert.ErrorIs(t, err, ndarray.ErrRank)

	_, err = DecodeLabelMap(ndarray.New[uint8](1, 4, 4, 3), 2, nil)
	assert.ErrorIs(t, err, ErrChannels)

	custom := []RGB{{1, 2, 3}, {4, 5, 6}}
	got, err := DecodeLabelMap(ndarray.New[uint8](1, 1, 1), 2, custom)
	require.NoError(t, err)
	assert.Equal(t, []uint8{1, 2, 3}, got.Data)
}

func TestInvNormalize(t *testing.T) {
	mean := []float64{0.485, 0.456, 0.406}
	std := []float64{0.229, 0.224, 0.225}

	orig := ndarray.New[float64](2, 4, 4, 3)
	for i := range orig.Data {
		orig.Data[i] = rand.Float64()
	}
	norm := orig.Clone()
	for i, v := range norm.Data {
		norm.Data[i] = (v - mean[i%3]) / std[i%3]
	}

	got, err := InvNormalize(norm, mean, std)
	require.NoError(t, err)
	require.Equal(t, orig.Shape, got.Shape)
	assert.InDeltaSlice(t, orig.Data, got.Data, 1e-9)
	assert.NotEqual(t, norm.Data, got.Data, "input must not be modified")

	_, err = InvNormalize(ndarray.New[float64](4, 4), mean, std)
	assert.ErrorIs(t, err, ndarray.ErrRank)
	_, err = InvNormalize(ndarray.New[float64](4, 4, 2), mean, std)
	assert.ErrorIs(t, err, ErrChannels)
}

func TestMakeCmpMask(t *testing.T) {
	lbl, _ := ndarray.FromSlice([]uint8{255, 255, 0, 0}, 2, 2)
	pred, _ := ndarray.FromSlice([]uint8{1, 0, 1, 0}, 2, 2)

	got, err := MakeCmpMask(lbl, pred, DefaultCmpColors)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 3}, got.Shape)
	assert.Equal(t, []uint8{
		0, 255, 0, // tp
		0, 0, 255, // fn
		255, 0, 0, // fp
		255, 255, 255, // tn
	}, got.Data)

	_, err = MakeCmpMask(lbl, ndarray.New[uint8](2, 3), DefaultCmpColors)
	assert.ErrorIs(t, err, ndarray.ErrShape)

	blank, err := MakeCmpMask(ndarray.New[uint8](1, 2), ndarray.New[uint8](1, 2), DefaultCmpColors)
	require.NoError(t, err)
	assert.Equal(t, []uint8{255, 255, 255, 255, 255, 255}, blank.Data)
}

func TestMakeBanner(t *testing.T) {
	const n, h, w = 2, 3, 4

	img := ndarray.New[float64](n, 3, h, w)
	scores := ndarray.New[float64](n, 2, h, w)
	label := ndarray.New[float64](n, 1, h, w)
	for i := range scores.Data {
		scores.Data[i] = rand.Float64()
	}
	label.Data[0] = 1

	panels := []Panel{
		{Kind: PanelImage, Data: img},
		{Kind: PanelLabel, Data: label},
		{Kind: PanelScores, Data: scores},
	}
	cfg := BannerConfig{Classes: 2, Mean: []float64{0.5, 0.5, 0.5}, Std: []float64{0.5, 0.5, 0.5}}

	got, err := MakeBanner(panels, cfg)
	require.NoError(t, err)
	assert.Equal(t, []int{n, h, 3 * w, 3}, got.Shape)
	// Zero-normalised pixels come back as mean * 255.
	assert.Equal(t, uint8(127), got.At(0, 0, 0, 0))
	// Label 1 at the origin of the label panel.
	lc := LabelColors(2)
	assert.Equal(t, lc[1][2], got.At(0, 0, w, 2))
	assert.Equal(t, White[2], got.At(0, 0, w+1, 2))

	cfg.ChannelFirst = true
	first, err := MakeBanner(panels, cfg)
	require.NoError(t, err)
	assert.Equal(t, []int{n, 3, h, 3 * w}, first.Shape)

	_, err = MakeBanner([]Panel{{Kind: PanelScores, Data: ndarray.New[float64](2, 2)}}, cfg)
	assert.ErrorIs(t, err, ndarray.ErrRank)
}

func TestDrawBoxes(t *testing.T) {
	img := ndarray.New[uint8](6, 8, 3)
	red := []uint8{255, 0, 0}

	got, err := DrawBoxes(img, []Box{{1, 2, 4, 6}}, red, 1)
	require.NoError(t, err)

	// Rows 1..4, columns 2..6 outlined.
	assert.Equal(t, uint8(255), got.At(1, 2, 0))
	assert.Equal(t, uint8(255), got.At(4, 6, 0))
	assert.Equal(t, uint8(255), got.At(2, 2, 0))
	assert.Equal(t, uint8(255), got.At(1, 4, 0))
	assert.Equal(t, uint8(0), got.At(2, 4, 0), "interior stays clear")
	assert.Equal(t, uint8(0), got.At(0, 2, 0))
	assert.Equal(t, uint8(0), img.At(1, 2, 0), "input must not be modified")

	clipped, err := DrawBoxes(ndarray.New[uint8](4, 4), []Box{{-2, -2, 10, 10}}, []uint8{9}, 1)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), clipped.At(0, 0))

	_, err = DrawBoxes(img, nil, []uint8{1}, 1)
	assert.ErrorIs(t, err, ErrChannels)
}

func TestDrawPolygons(t *testing.T) {
	img := ndarray.New[uint8](10, 10, 3)
	square := [][]Point{{{2, 2}, {6, 2}, {6, 6}, {2, 6}}}

	filled, err := DrawPolygons(img, square, PolyStyle{Fill: color.RGBA{0, 0, 255, 255}})
	require.NoError(t, err)
	assert.Equal(t, []int{10, 10, 3}, filled.Shape)
	assert.Equal(t, uint8(255), filled.At(4, 4, 2))
	assert.Equal(t, uint8(0), filled.At(8, 8, 2))

	outlined, err := DrawPolygons(img, square, PolyStyle{Edge: color.RGBA{255, 0, 0, 255}, Width: 2})
	require.NoError(t, err)
	assert.Equal(t, uint8(255), outlined.At(2, 4, 0), "top edge")
	assert.Equal(t, uint8(255), outlined.At(4, 2, 0), "left edge")
	assert.Equal(t, uint8(0), outlined.At(4, 4, 0), "interior")

	gray, err := DrawPolygons(ndarray.New[uint8](10, 10), square, PolyStyle{Fill: color.White})
	require.NoError(t, err)
	assert.Equal(t, []int{10, 10}, gray.Shape)
	assert.Equal(t, uint8(255), gray.At(4, 4))
}
