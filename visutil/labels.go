// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package visutil builds arrays for visual inspection: colourised label maps,
// comparison masks, image banners and box or polygon overlays.
package visutil

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/staranto/toolman/ndarray"
)

var (
	// ErrLabel is returned for a label value with no colour.
	ErrLabel = errors.New("label outside colour table")

	// ErrChannels is returned when mean/std or a colour does not match the
	// channel axis.
	ErrChannels = errors.New("channel count mismatch")
)

// defaultCycle is matplotlib's default property cycle.
var defaultCycle = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// RGB is an 8-bit colour.
type RGB [3]uint8

// White is the background colour for label 0 and comparison masks.
var White = RGB{255, 255, 255}

// ColorList returns the default colour cycle as RGB triples.
func ColorList() []RGB {
	out := make([]RGB, 0, len(defaultCycle))
	for _, h := range defaultCycle {
		c, err := colorful.Hex(h)
		if err != nil {
			panic(fmt.Sprintf("visutil: bad colour %q: %v", h, err))
		}
		r, g, b := c.RGB255()
		out = append(out, RGB{r, g, b})
	}
	return out
}

// LabelColors returns n colours drawn from ColorList, cycling when n exceeds
// it, with label 0 painted white.
func LabelColors(n int) []RGB {
	cycle := ColorList()
	out := make([]RGB, n)
	for i := range out {
		out[i] = cycle[i%len(cycle)]
	}
	if n > 0 {
		out[0] = White
	}
	return out
}

// DecodeLabelMap paints an (N, H, W) or (N, H, W, 1) label map as an
// (N, H, W, 3) uint8 array. colors defaults to LabelColors(n).
func DecodeLabelMap[T ndarray.Number](label *ndarray.Array[T], n int, colors []RGB) (*ndarray.Array[uint8], error) {
	var nb, h, w int
	switch label.Rank() {
	case 3:
		nb, h, w = label.Shape[0], label.Shape[1], label.Shape[2]
	case 4:
		if label.Shape[3] != 1 {
			return nil, fmt.Errorf("%w: label map must have one channel, got %d", ErrChannels, label.Shape[3])
		}
		nb, h, w = label.Shape[0], label.Shape[1], label.Shape[2]
	default:
		return nil, fmt.Errorf("%w: label map needs rank 3 or 4, got %v", ndarray.ErrRank, label.Shape)
	}
	if len(colors) == 0 {
		colors = LabelColors(n)
	}

	out := ndarray.New[uint8](nb, h, w, 3)
	for i, v := range label.Data {
		k := int(v)
		if float64(k) != float64(v) || k < 0 || k >= len(colors) {
			return nil, fmt.Errorf("%w: %v with %d colours", ErrLabel, v, len(colors))
		}
		c := colors[k]
		copy(out.Data[3*i:3*i+3], c[:])
	}
	return out, nil
}

// InvNormalize undoes per-channel (x - mean) / std normalisation on a channel
// last (H, W, C) or (N, H, W, C) array. The result is a new array.
func InvNormalize(img *ndarray.Array[float64], mean, std []float64) (*ndarray.Array[float64], error) {
	if r := img.Rank(); r != 3 && r != 4 {
		return nil, fmt.Errorf("%w: need rank 3 or 4, got %v", ndarray.ErrRank, img.Shape)
	}
	c := img.Shape[img.Rank()-1]
	if len(mean) != c || len(std) != c {
		return nil, fmt.Errorf("%w: %d channels, %d means, %d stds", ErrChannels, c, len(mean), len(std))
	}

	out := img.Clone()
	for i, v := range out.Data {
		ch := i % c
		out.Data[i] = v*std[ch] + mean[ch]
	}
	return out, nil
}

// CmpColors are the colours MakeCmpMask paints.
type CmpColors struct {
	TP, FP, FN RGB
}

// DefaultCmpColors paints true positives green, false positives red and
// false negatives blue.
var DefaultCmpColors = CmpColors{
	TP: RGB{0, 255, 0},
	FP: RGB{255, 0, 0},
	FN: RGB{0, 0, 255},
}

// MakeCmpMask compares binary (H, W) label and prediction maps and returns an
// (H, W, 3) uint8 mask on a white background. Maps whose maximum is not 1 are
// scaled by their maximum first.
func MakeCmpMask[T ndarray.Number](lbl, pred *ndarray.Array[T], colors CmpColors) (*ndarray.Array[uint8], error) {
	if lbl.Rank() != 2 {
		return nil, fmt.Errorf("%w: need rank 2, got %v", ndarray.ErrRank, lbl.Shape)
	}
	if !slices.Equal(lbl.Shape, pred.Shape) {
		return nil, fmt.Errorf("%w: label %v, prediction %v", ndarray.ErrShape, lbl.Shape, pred.Shape)
	}

	l, p := binarize(lbl), binarize(pred)
	out := ndarray.New[uint8](lbl.Shape[0], lbl.Shape[1], 3)
	for i := range l {
		c := White
		switch {
		case l[i] && p[i]:
			c = colors.TP
		case p[i] && !l[i]:
			c = colors.FP
		case l[i] && !p[i]:
			c = colors.FN
		}
		copy(out.Data[3*i:3*i+3], c[:])
	}
	return out, nil
}

// binarize marks the elements equal to 1 after scaling by the maximum.
func binarize[T ndarray.Number](a *ndarray.Array[T]) []bool {
	hi := float64(a.Max())
	out := make([]bool, len(a.Data))
	if hi == 0 {
		return out
	}
	for i, v := range a.Data {
		x := float64(v)
		if hi != 1 {
			x /= hi
		}
		out[i] = x == 1
	}
	return out
}

// PanelKind says how MakeBanner renders one panel.
type PanelKind int

const (
	// PanelImage is a normalised (N, C, H, W) image.
	PanelImage PanelKind = iota
	// PanelLabel is an (N, H, W) or (N, 1, H, W) label map.
	PanelLabel
	// PanelScores is an (N, K, H, W) per-class score map, shown as its argmax.
	PanelScores
)

// Panel is one banner column.
type Panel struct {
	Kind PanelKind
	Data *ndarray.Array[float64]
}

// BannerConfig describes how panels are decoded.
type BannerConfig struct {
	Classes int
	Mean    []float64
	Std     []float64
	// ChannelFirst returns an (N, 3, H, W) banner instead of (N, H, W, 3).
	ChannelFirst bool
}

// MakeBanner renders every panel as RGB and places them side by side.
func MakeBanner(panels []Panel, cfg BannerConfig) (*ndarray.Array[uint8], error) {
	parts := make([]*ndarray.Array[uint8], 0, len(panels))
	for i, p := range panels {
		rgb, err := renderPanel(p, cfg)
		if err != nil {
			return nil, fmt.Errorf("panel %d: %w", i, err)
		}
		parts = append(parts, rgb)
	}

	banner, err := ndarray.Concat(2, parts...)
	if err != nil {
		return nil, err
	}
	if cfg.ChannelFirst {
		return banner.ChangeChannelOrder(false)
	}
	return banner, nil
}

func renderPanel(p Panel, cfg BannerConfig) (*ndarray.Array[uint8], error) {
	switch p.Kind {
	case PanelScores:
		if p.Data.Rank() != 4 {
			return nil, fmt.Errorf("%w: scores need rank 4, got %v", ndarray.ErrRank, p.Data.Shape)
		}
		idx, err := p.Data.ArgMax(1)
		if err != nil {
			return nil, err
		}
		return DecodeLabelMap(idx, cfg.Classes, nil)

	case PanelLabel:
		lbl := p.Data
		if lbl.Rank() == 4 && lbl.Shape[1] == 1 {
			var err error
			if lbl, err = lbl.Reshape(lbl.Shape[0], lbl.Shape[2], lbl.Shape[3]); err != nil {
				return nil, err
			}
		}
		return DecodeLabelMap(lbl, cfg.Classes, nil)
	}

	last, err := p.Data.ChangeChannelOrder(true)
	if err != nil {
		return nil, err
	}
	img, err := InvNormalize(last, cfg.Mean, cfg.Std)
	if err != nil {
		return nil, err
	}
	out := ndarray.New[uint8](img.Shape...)
	for i, v := range img.Data {
		out.Data[i] = uint8(math.Max(0, math.Min(255, v*255)))
	}
	return out, nil
}
