// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package visutil

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"github.com/staranto/toolman/internal/raster"
	"github.com/staranto/toolman/ndarray"
)

// Box is [xmin, ymin, xmax, ymax] with x indexing rows and y columns. Both
// bounds are inclusive.
type Box [4]int

// DrawBoxes returns a copy of img, an (H, W) or (H, W, C) array, with each
// box outlined width pixels thick. c holds one sample per channel. Boxes are
// clipped to the image.
func DrawBoxes(img *ndarray.Array[uint8], boxes []Box, c []uint8, width int) (*ndarray.Array[uint8], error) {
	var h, w, ch int
	switch img.Rank() {
	case 2:
		h, w, ch = img.Shape[0], img.Shape[1], 1
	case 3:
		h, w, ch = img.Shape[0], img.Shape[1], img.Shape[2]
	default:
		return nil, fmt.Errorf("%w: need rank 2 or 3, got %v", ndarray.ErrRank, img.Shape)
	}
	if len(c) != ch {
		return nil, fmt.Errorf("%w: %d channels, colour has %d", ErrChannels, ch, len(c))
	}
	width = max(width, 1)

	out := img.Clone()
	for _, b := range boxes {
		x0, y0, x1, y1 := b[0], b[1], b[2], b[3]
		for row := max(x0, 0); row <= min(x1, h-1); row++ {
			for col := max(y0, 0); col <= min(y1, w-1); col++ {
				edge := row < x0+width || row > x1-width || col < y0+width || col > y1-width
				if edge {
					copy(out.Data[(row*w+col)*ch:], c)
				}
			}
		}
	}
	return out, nil
}

// Point is an (x, y) vertex with x indexing columns and y rows.
type Point [2]float32

// PolyStyle selects how polygons are painted. A nil colour skips that part.
type PolyStyle struct {
	Edge  color.Color
	Fill  color.Color
	Width float32
}

// DrawPolygons returns a copy of img with each polygon filled and outlined
// per style. img is an (H, W) array or an (H, W, 3|4) array.
func DrawPolygons(img *ndarray.Array[uint8], polys [][]Point, style PolyStyle) (*ndarray.Array[uint8], error) {
	src, err := raster.FromArray(img, raster.PNG)
	if err != nil {
		return nil, err
	}
	dst, ok := src.(draw.Image)
	if !ok {
		return nil, fmt.Errorf("%w: cannot draw on %T", ErrChannels, src)
	}

	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	half := max(style.Width, 1) / 2

	for _, poly := range polys {
		if len(poly) < 3 { //nolint:mnd
			continue
		}
		if style.Fill != nil {
			z.Reset(b.Dx(), b.Dy())
			z.MoveTo(poly[0][0], poly[0][1])
			for _, p := range poly[1:] {
				z.LineTo(p[0], p[1])
			}
			z.ClosePath()
			z.Draw(dst, b, image.NewUniform(style.Fill), image.Point{})
		}
		if style.Edge != nil {
			for i := range poly {
				a, e := poly[i], poly[(i+1)%len(poly)]
				stroke(z, b, a, e, half)
				z.Draw(dst, b, image.NewUniform(style.Edge), image.Point{})
			}
		}
	}

	out, ok := raster.ToArray(dst).(*ndarray.Array[uint8])
	if !ok {
		return nil, fmt.Errorf("%w: unexpected pixel depth", ErrChannels)
	}
	return out, nil
}

// stroke loads z with the quad covering segment a-e at half-width half.
func stroke(z *vector.Rasterizer, b image.Rectangle, a, e Point, half float32) {
	z.Reset(b.Dx(), b.Dy())
	dx, dy := e[0]-a[0], e[1]-a[1]
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l == 0 {
		return
	}
	nx, ny := -dy/l*half, dx/l*half
	z.MoveTo(a[0]+nx, a[1]+ny)
	z.LineTo(e[0]+nx, e[1]+ny)
	z.LineTo(e[0]-nx, e[1]-ny)
	z.LineTo(a[0]-nx, a[1]-ny)
	z.ClosePath()
}
