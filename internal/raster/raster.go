// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package raster bridges ndarray pixel arrays and image.Image values, and
// wraps the per-format image codecs.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/staranto/toolman/ndarray"
)

// Kind selects an image codec.
type Kind string

const (
	PNG  Kind = "png"
	JPEG Kind = "jpeg"
	TIFF Kind = "tiff"
	BMP  Kind = "bmp"
	GIF  Kind = "gif"
)

// Holds16 reports whether the codec for k keeps 16 bits per sample.
func (k Kind) Holds16() bool {
	return k == PNG || k == TIFF
}

// DefaultJPEGQuality is used when Encode is given a quality outside 1..100.
const DefaultJPEGQuality = 95

var (
	// ErrKind is returned for a Kind with no codec.
	ErrKind = errors.New("raster: unknown image kind")

	// ErrChannels is returned when an array's trailing axis is not 1, 3 or 4.
	ErrChannels = errors.New("raster: unsupported channel count")

	// ErrDType is returned for non-integer pixel arrays.
	ErrDType = errors.New("raster: pixel arrays must hold integers")

	// ErrRank is returned for pixel arrays that are not rank 2 or 3.
	ErrRank = errors.New("raster: pixel arrays must have rank 2 or 3")
)

// Encode writes img using the codec for k.
func Encode(w io.Writer, k Kind, img image.Image, quality int) error {
	switch k {
	case PNG:
		return png.Encode(w, img)
	case JPEG:
		if quality < 1 || quality > 100 {
			quality = DefaultJPEGQuality
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case BMP:
		return bmp.Encode(w, img)
	case GIF:
		if g, ok := img.(*image.Gray); ok {
			img = grayToPaletted(g)
		}
		return gif.Encode(w, img, nil)
	}
	return fmt.Errorf("%w: %q", ErrKind, k)
}

// Decode reads a full image using the codec for k.
func Decode(r io.Reader, k Kind) (image.Image, error) {
	switch k {
	case PNG:
		return png.Decode(r)
	case JPEG:
		return jpeg.Decode(r)
	case TIFF:
		return tiff.Decode(r)
	case BMP:
		return bmp.Decode(r)
	case GIF:
		return gif.Decode(r)
	}
	return nil, fmt.Errorf("%w: %q", ErrKind, k)
}

// DecodeConfig reads only the header for k.
func DecodeConfig(r io.Reader, k Kind) (image.Config, error) {
	switch k {
	case PNG:
		return png.DecodeConfig(r)
	case JPEG:
		return jpeg.DecodeConfig(r)
	case TIFF:
		return tiff.DecodeConfig(r)
	case BMP:
		return bmp.DecodeConfig(r)
	case GIF:
		return gif.DecodeConfig(r)
	}
	return image.Config{}, fmt.Errorf("%w: %q", ErrKind, k)
}

// Probe returns the array shape an image would load as, reading only the
// header: (H, W) for single-channel images, (H, W, C) otherwise.
func Probe(r io.Reader, k Kind) ([]int, error) {
	shape, _, err := ProbeHeader(r, k)
	return shape, err
}

// ProbeHeader is Probe plus the sample dtype the image would load as.
func ProbeHeader(r io.Reader, k Kind) ([]int, ndarray.DType, error) {
	cfg, err := DecodeConfig(r, k)
	if err != nil {
		return nil, "", err
	}
	c, wide := ModelChannels(cfg.ColorModel)
	dt := ndarray.Uint8
	if wide {
		dt = ndarray.Uint16
	}
	if c == 1 {
		return []int{cfg.Height, cfg.Width}, dt, nil
	}
	return []int{cfg.Height, cfg.Width, c}, dt, nil
}

// ModelChannels reports the channel count an image with model m loads as, and
// whether its samples are 16-bit.
func ModelChannels(m color.Model) (channels int, wide bool) {
	switch m {
	case color.GrayModel:
		return 1, false
	case color.Gray16Model:
		return 1, true
	case color.NRGBAModel:
		return 4, false
	case color.NRGBA64Model:
		return 4, true
	case color.RGBA64Model:
		return 3, true
	case color.RGBAModel, color.YCbCrModel, color.NYCbCrAModel, color.CMYKModel:
		return 3, false
	}
	if p, ok := m.(color.Palette); ok {
		return paletteChannels(p), false
	}
	return 3, false
}

func paletteChannels(p color.Palette) int {
	gray := true
	for _, c := range p {
		r, g, b, a := c.RGBA()
		if a != 0xffff {
			return 4
		}
		if r != g || g != b {
			gray = false
		}
	}
	if gray {
		return 1
	}
	return 3
}

func grayToPaletted(g *image.Gray) *image.Paletted {
	pal := make(color.Palette, 256)
	for i := range pal {
		pal[i] = color.Gray{Y: uint8(i)}
	}
	p := image.NewPaletted(g.Bounds(), pal)
	for y := g.Rect.Min.Y; y < g.Rect.Max.Y; y++ {
		for x := g.Rect.Min.X; x < g.Rect.Max.X; x++ {
			p.SetColorIndex(x, y, g.GrayAt(x, y).Y)
		}
	}
	return p
}
