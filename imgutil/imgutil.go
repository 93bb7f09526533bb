// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package imgutil answers shape questions about stored images and converts
// between channel-first and channel-last layouts.
package imgutil

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/apex/log"

	"github.com/staranto/toolman/fileio"
	"github.com/staranto/toolman/internal/npy"
	"github.com/staranto/toolman/internal/raster"
	"github.com/staranto/toolman/ndarray"
)

// ErrInvalidDimension is matched by every *InvalidDimensionError.
var ErrInvalidDimension = errors.New("invalid image dimension")

// InvalidDimensionError reports an array whose rank is neither 2 nor 3.
type InvalidDimensionError struct {
	Rank int
}

func (e *InvalidDimensionError) Error() string {
	return "Image can only have 2 or 3 dimensions"
}

func (e *InvalidDimensionError) Is(target error) bool {
	return target == ErrInvalidDimension
}

// ChannelCountOf applies the channel rule to a shape: rank 2 images count as
// three channels, rank 3 images report their trailing axis.
func ChannelCountOf(shape []int) (int, error) {
	switch len(shape) {
	case 2:
		return 3, nil
	case 3:
		return shape[2], nil
	}
	return 0, &InvalidDimensionError{Rank: len(shape)}
}

// ChannelCount reports the channel count of the array stored at path. npy and
// raster files are probed from their headers; other formats are loaded in
// full and must hold an array.
func ChannelCount(path string) (int, error) {
	shape, err := Shape(path)
	if err != nil {
		return 0, err
	}
	return ChannelCountOf(shape)
}

// Header describes the array stored in a file without its data.
type Header struct {
	Shape []int
	DType ndarray.DType
}

// Shape returns the array shape stored at path, reading as little of the file
// as its format allows.
func Shape(path string) ([]int, error) {
	h, err := Probe(path)
	if err != nil {
		return nil, err
	}
	return h.Shape, nil
}

// Probe returns the shape and dtype stored at path. npy and raster files are
// read from their headers; other formats are loaded in full and must hold an
// array.
func Probe(path string) (Header, error) {
	tag, err := fileio.TagOf(path)
	if err != nil {
		return Header{}, err
	}

	switch {
	case tag == fileio.NPY:
		f, err := os.Open(path)
		if err != nil {
			return Header{}, err
		}
		defer f.Close()
		h, err := npy.ReadHeader(bufio.NewReader(f))
		if err != nil {
			return Header{}, err
		}
		log.Debugf("imgutil: %s header shape %v", path, h.Shape)
		return Header{Shape: h.Shape, DType: h.DType}, nil

	case tag.IsImage():
		f, err := os.Open(path)
		if err != nil {
			return Header{}, err
		}
		defer f.Close()
		shape, dt, err := raster.ProbeHeader(bufio.NewReader(f), raster.Kind(tag))
		if err != nil {
			return Header{}, err
		}
		log.Debugf("imgutil: %s probed shape %v", path, shape)
		return Header{Shape: shape, DType: dt}, nil
	}

	v, err := fileio.Load(path)
	if err != nil {
		return Header{}, err
	}
	t, ok := v.(ndarray.Tensor)
	if !ok {
		return Header{}, fmt.Errorf("%w: %s holds %T, not an array", fileio.ErrWrongType, path, v)
	}
	return Header{Shape: t.Dims(), DType: t.DType()}, nil
}

// ChangeChannelOrder moves the channel axis of a rank 3 or rank 4 array to the
// end (toLast) or back to the front of the per-sample axes.
func ChangeChannelOrder[T ndarray.Number](a *ndarray.Array[T], toLast bool) (*ndarray.Array[T], error) {
	return a.ChangeChannelOrder(toLast)
}
