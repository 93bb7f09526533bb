// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package raster

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/staranto/toolman/ndarray"
)

// FromArray builds an image for kind k from a rank 2 (H, W) or rank 3
// (H, W, C) integer array. C must be 1, 3 or 4. Arrays whose dtype is wider
// than a byte produce 16-bit images when k can store them (see Kind.Holds16);
// otherwise an 8-bit image is built. Samples are clamped to the target depth.
func FromArray(t ndarray.Tensor, k Kind) (image.Image, error) {
	if !t.DType().IsInteger() {
		return nil, fmt.Errorf("%w: got %s", ErrDType, t.DType())
	}

	dims := t.Dims()
	var h, w, c int
	switch len(dims) {
	case 2:
		h, w, c = dims[0], dims[1], 1
	case 3:
		h, w, c = dims[0], dims[1], dims[2]
	default:
		return nil, fmt.Errorf("%w: got shape %v", ErrRank, dims)
	}
	if c != 1 && c != 3 && c != 4 {
		return nil, fmt.Errorf("%w: %d", ErrChannels, c)
	}

	wide := t.DType().ItemSize() > 1 && k.Holds16()
	rect := image.Rect(0, 0, w, h)

	if !wide {
		sample := func(i int) uint8 { return uint8(clamp(t.Float(i), math.MaxUint8)) }
		switch c {
		case 1:
			img := image.NewGray(rect)
			for i := range img.Pix {
				img.Pix[i] = sample(i)
			}
			return img, nil
		case 3:
			img := image.NewRGBA(rect)
			for p := 0; p < h*w; p++ {
				img.Pix[4*p] = sample(3 * p)
				img.Pix[4*p+1] = sample(3*p + 1)
				img.Pix[4*p+2] = sample(3*p + 2)
				img.Pix[4*p+3] = 0xff
			}
			return img, nil
		default:
			img := image.NewNRGBA(rect)
			for i := range img.Pix {
				img.Pix[i] = sample(i)
			}
			return img, nil
		}
	}

	sample := func(i int) uint16 { return uint16(clamp(t.Float(i), math.MaxUint16)) }
	switch c {
	case 1:
		img := image.NewGray16(rect)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.SetGray16(x, y, color.Gray16{Y: sample(y*w + x)})
			}
		}
		return img, nil
	case 3:
		img := image.NewRGBA64(rect)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				p := 3 * (y*w + x)
				img.SetRGBA64(x, y, color.RGBA64{R: sample(p), G: sample(p + 1), B: sample(p + 2), A: 0xffff})
			}
		}
		return img, nil
	default:
		img := image.NewNRGBA64(rect)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				p := 4 * (y*w + x)
				img.SetNRGBA64(x, y, color.NRGBA64{R: sample(p), G: sample(p + 1), B: sample(p + 2), A: sample(p + 3)})
			}
		}
		return img, nil
	}
}

// ToArray converts img into an (H, W) or (H, W, C) array. 16-bit images give
// uint16 arrays, everything else uint8. Images with a colour model that
// carries alpha, or premultiplied images that are not opaque, load with four
// channels.
func ToArray(img image.Image) ndarray.Tensor {
	b := img.Bounds()
	h, w := b.Dy(), b.Dx()
	c, wide := ModelChannels(img.ColorModel())
	if c == 3 {
		if o, ok := img.(interface{ Opaque() bool }); ok && !o.Opaque() {
			c = 4
		}
	}

	shape := []int{h, w, c}
	if c == 1 {
		shape = []int{h, w}
	}

	if wide {
		out := ndarray.New[uint16](shape...)
		i := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				i += put16(out.Data[i:], img.At(x, y), c)
			}
		}
		return out
	}

	// Fast paths for the layouts our own encoders produce.
	switch src := img.(type) {
	case *image.Gray:
		if c == 1 {
			out := ndarray.New[uint8](shape...)
			for y := 0; y < h; y++ {
				copy(out.Data[y*w:(y+1)*w], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):])
			}
			return out
		}
	case *image.NRGBA:
		if c == 4 {
			out := ndarray.New[uint8](shape...)
			for y := 0; y < h; y++ {
				copy(out.Data[y*w*4:(y+1)*w*4], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):])
			}
			return out
		}
	}

	out := ndarray.New[uint8](shape...)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i += put8(out.Data[i:], img.At(x, y), c)
		}
	}
	return out
}

func put8(dst []uint8, px color.Color, c int) int {
	switch c {
	case 1:
		dst[0] = color.GrayModel.Convert(px).(color.Gray).Y
	case 3:
		n := color.NRGBAModel.Convert(px).(color.NRGBA)
		dst[0], dst[1], dst[2] = n.R, n.G, n.B
	default:
		n := color.NRGBAModel.Convert(px).(color.NRGBA)
		dst[0], dst[1], dst[2], dst[3] = n.R, n.G, n.B, n.A
	}
	return c
}

func put16(dst []uint16, px color.Color, c int) int {
	switch c {
	case 1:
		dst[0] = color.Gray16Model.Convert(px).(color.Gray16).Y
	case 3:
		n := color.NRGBA64Model.Convert(px).(color.NRGBA64)
		dst[0], dst[1], dst[2] = n.R, n.G, n.B
	default:
		n := color.NRGBA64Model.Convert(px).(color.NRGBA64)
		dst[0], dst[1], dst[2], dst[3] = n.R, n.G, n.B, n.A
	}
	return c
}

func clamp(v, hi float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > hi:
		return hi
	}
	return v
}

// NativeArray converts img the way its own sample layout reads: paletted
// images give their (H, W) index plane, everything else goes through ToArray.
func NativeArray(img image.Image) ndarray.Tensor {
	p, ok := img.(*image.Paletted)
	if !ok {
		return ToArray(img)
	}
	b := p.Bounds()
	h, w := b.Dy(), b.Dx()
	out := ndarray.New[uint8](h, w)
	for y := 0; y < h; y++ {
		copy(out.Data[y*w:(y+1)*w], p.Pix[p.PixOffset(b.Min.X, b.Min.Y+y):])
	}
	return out
}
