// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package raster

import (
	"bytes"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/toolman/ndarray"
)

func randomPixels(shape ...int) *ndarray.Array[uint8] {
	a := ndarray.New[uint8](shape...)
	for i := range a.Data {
		a.Data[i] = uint8(rand.IntN(256))
	}
	return a
}

func roundTrip(t *testing.T, k Kind, in ndarray.Tensor) ndarray.Tensor {
	t.Helper()
	img, err := FromArray(in, k)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, k, img, 0))

	out, err := Decode(bytes.NewReader(buf.Bytes()), k)
	require.NoError(t, err)
	return ToArray(out)
}

func TestRoundTrip_Lossless(t *testing.T) {
	tests := []struct {
		name  string
		kind  Kind
		shape []int
	}{
		{name: "png gray", kind: PNG, shape: []int{16, 12}},
		{name: "png rgb", kind: PNG, shape: []int{16, 12, 3}},
		{name: "tiff gray", kind: TIFF, shape: []int{9, 7}},
		{name: "tiff rgb", kind: TIFF, shape: []int{9, 7, 3}},
		{name: "bmp rgb", kind: BMP, shape: []int{5, 11, 3}},
		{name: "gif gray", kind: GIF, shape: []int{8, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := randomPixels(tt.shape...)
			got := roundTrip(t, tt.kind, in)
			assert.Equal(t, in.Dims(), got.Dims())
			assert.Equal(t, in.Data, got.Raw())
		})
	}
}

func TestRoundTrip_PNGAlpha(t *testing.T) {
	in := randomPixels(6, 6, 4)
	// Keep alpha non-zero so un-premultiplication is exact and at least one
	// pixel translucent so the encoder keeps the alpha channel.
	for p := 0; p < 36; p++ {
		in.Data[4*p+3] = 0xff
	}
	in.Data[3] = 0x80

	got := roundTrip(t, PNG, in)
	assert.Equal(t, []int{6, 6, 4}, got.Dims())
	assert.Equal(t, in.Data, got.Raw())
}

func TestRoundTrip_PNG16(t *testing.T) {
	in := ndarray.New[uint16](4, 5)
	for i := range in.Data {
		in.Data[i] = uint16(i * 1000)
	}

	got := roundTrip(t, PNG, in)
	assert.Equal(t, ndarray.Uint16, got.DType())
	assert.Equal(t, in.Data, got.Raw())
}

func TestRoundTrip_JPEGNear(t *testing.T) {
	// A smooth gradient survives JPEG within a small tolerance.
	in := ndarray.New[uint8](32, 32, 3)
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			in.Set(uint8(y*4), y, x, 0)
			in.Set(uint8(x*4), y, x, 1)
			in.Set(128, y, x, 2)
		}
	}

	got := roundTrip(t, JPEG, in)
	require.Equal(t, in.Dims(), got.Dims())
	for i := range in.Data {
		assert.InDelta(t, float64(in.Data[i]), got.Float(i), 16, "sample %d", i)
	}
}

func TestFromArray_Clamps(t *testing.T) {
	in, _ := ndarray.FromSlice([]int64{-10, 0, 300, 255}, 2, 2)
	img, err := FromArray(in, PNG)
	require.NoError(t, err)

	got := ToArray(img)
	assert.Equal(t, ndarray.Uint16, got.DType(), "int64 maps to a 16-bit image")
	assert.Equal(t, []uint16{0, 0, 300, 255}, got.Raw())

	small, _ := ndarray.FromSlice([]int8{-1, 127}, 1, 2)
	img, err = FromArray(small, PNG)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 127}, ToArray(img).Raw())
}

func TestFromArray_DepthPerKind(t *testing.T) {
	in, _ := ndarray.FromSlice([]int64{3, 200, 300, 70000}, 2, 2)

	wide := []uint16{3, 200, 300, 65535}
	narrow := []uint8{3, 200, 255, 255}

	tests := []struct {
		kind  Kind
		dtype ndarray.DType
		want  any
	}{
		{kind: PNG, dtype: ndarray.Uint16, want: wide},
		{kind: TIFF, dtype: ndarray.Uint16, want: wide},
		{kind: JPEG, dtype: ndarray.Uint8, want: narrow},
		{kind: BMP, dtype: ndarray.Uint8, want: narrow},
		{kind: GIF, dtype: ndarray.Uint8, want: narrow},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.dtype == ndarray.Uint16, tt.kind.Holds16())
			img, err := FromArray(in, tt.kind)
			require.NoError(t, err)
			got := ToArray(img)
			assert.Equal(t, tt.dtype, got.DType())
			assert.Equal(t, tt.want, got.Raw())
		})
	}
}

func TestFromArray_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   ndarray.Tensor
		want error
	}{
		{name: "two channels", in: ndarray.New[uint8](4, 4, 2), want: ErrChannels},
		{name: "five channels", in: ndarray.New[uint8](4, 4, 5), want: ErrChannels},
		{name: "rank 1", in: ndarray.New[uint8](16), want: ErrRank},
		{name: "rank 4", in: ndarray.New[uint8](2, 4, 4, 3), want: ErrRank},
		{name: "float", in: ndarray.New[float32](4, 4), want: ErrDType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromArray(tt.in, PNG)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name  string
		kind  Kind
		shape []int
		want  []int
	}{
		{name: "png gray", kind: PNG, shape: []int{10, 20}, want: []int{10, 20}},
		{name: "png rgb", kind: PNG, shape: []int{10, 20, 3}, want: []int{10, 20, 3}},
		{name: "jpeg rgb", kind: JPEG, shape: []int{8, 8, 3}, want: []int{8, 8, 3}},
		{name: "jpeg gray", kind: JPEG, shape: []int{8, 8}, want: []int{8, 8}},
		{name: "tiff gray", kind: TIFF, shape: []int{3, 4}, want: []int{3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := FromArray(randomPixels(tt.shape...), tt.kind)
			require.NoError(t, err)
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, tt.kind, img, 90))

			got, err := Probe(&buf, tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnknownKind(t *testing.T) {
	_, err := Decode(bytes.NewReader(nil), Kind("webp"))
	assert.ErrorIs(t, err, ErrKind)
	assert.ErrorIs(t, Encode(&bytes.Buffer{}, Kind("webp"), nil, 0), ErrKind)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, clamp(-1, math.MaxUint8))
	assert.Equal(t, 255.0, clamp(1000, math.MaxUint8))
	assert.Equal(t, 7.0, clamp(7, math.MaxUint8))
}
