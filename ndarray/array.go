// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package ndarray

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	// ErrShape is returned when data length and shape disagree, or when an
	// index falls outside the array.
	ErrShape = errors.New("shape mismatch")

	// ErrRank is returned when an operation does not support the array's rank.
	ErrRank = errors.New("unsupported rank")
)

// Tensor is the element-type agnostic view of an *Array[T]. Codecs that have
// to handle every instantiation work against this interface.
type Tensor interface {
	Dims() []int
	DType() DType
	Len() int
	// Float returns the element at flat index i converted to float64.
	Float(i int) float64
	// Raw returns the backing slice (e.g. []uint8) as an interface value.
	Raw() any
	// Permute is Transpose for callers that only hold a Tensor.
	Permute(perm ...int) (Tensor, error)
}

// Array is a dense, row-major N-dimensional array.
type Array[T Number] struct {
	Shape []int
	Data  []T
}

// New returns a zero-filled array with the given shape.
func New[T Number](shape ...int) *Array[T] {
	return &Array[T]{
		Shape: cloneShape(shape),
		Data:  make([]T, prod(shape)),
	}
}

// FromSlice wraps data in an array of the given shape. data is not copied.
func FromSlice[T Number](data []T, shape ...int) (*Array[T], error) {
	if len(data) != prod(shape) {
		return nil, fmt.Errorf("%w: %d elements for shape %v", ErrShape, len(data), shape)
	}
	return &Array[T]{Shape: cloneShape(shape), Data: data}, nil
}

// Dims returns a copy of the shape.
func (a *Array[T]) Dims() []int { return cloneShape(a.Shape) }

// Rank returns the number of dimensions.
func (a *Array[T]) Rank() int { return len(a.Shape) }

// Len returns the number of elements.
func (a *Array[T]) Len() int { return len(a.Data) }

// DType returns the element kind.
func (a *Array[T]) DType() DType { return dtypeOf[T]() }

func (a *Array[T]) Float(i int) float64 { return float64(a.Data[i]) }

func (a *Array[T]) Raw() any { return a.Data }

func (a *Array[T]) Permute(perm ...int) (Tensor, error) {
	b, err := a.Transpose(perm...)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// At returns the element at the given multi-dimensional index.
func (a *Array[T]) At(idx ...int) T {
	return a.Data[a.offset(idx)]
}

// Set stores v at the given multi-dimensional index.
func (a *Array[T]) Set(v T, idx ...int) {
	a.Data[a.offset(idx)] = v
}

// Clone returns a deep copy.
func (a *Array[T]) Clone() *Array[T] {
	return &Array[T]{Shape: cloneShape(a.Shape), Data: slices.Clone(a.Data)}
}

// Equal reports whether a and b have the same shape and elements.
func (a *Array[T]) Equal(b *Array[T]) bool {
	if a == nil || b == nil {
		return a == b
	}
	return slices.Equal(a.Shape, b.Shape) && slices.Equal(a.Data, b.Data)
}

// Reshape returns a view of a with a new shape. Data is shared.
func (a *Array[T]) Reshape(shape ...int) (*Array[T], error) {
	return FromSlice(a.Data, shape...)
}

func (a *Array[T]) String() string {
	return fmt.Sprintf("Array[%s]%v", a.DType(), a.Shape)
}

// Transpose returns a new array whose axis i is axis perm[i] of a.
func (a *Array[T]) Transpose(perm ...int) (*Array[T], error) {
	if len(perm) != a.Rank() {
		return nil, fmt.Errorf("%w: permutation %v for rank %d", ErrShape, perm, a.Rank())
	}
	seen := make([]bool, len(perm))
	for _, p := range perm {
		if p < 0 || p >= len(perm) || seen[p] {
			return nil, fmt.Errorf("%w: invalid permutation %v", ErrShape, perm)
		}
		seen[p] = true
	}

	srcStrides := strides(a.Shape)
	shape := make([]int, len(perm))
	walk := make([]int, len(perm))
	for i, p := range perm {
		shape[i] = a.Shape[p]
		walk[i] = srcStrides[p]
	}

	out := New[T](shape...)
	if len(out.Data) == 0 {
		return out, nil
	}

	// Odometer over the destination index, tracking the source offset.
	idx := make([]int, len(shape))
	src := 0
	for dst := range out.Data {
		out.Data[dst] = a.Data[src]
		for ax := len(shape) - 1; ax >= 0; ax-- {
			idx[ax]++
			src += walk[ax]
			if idx[ax] < shape[ax] {
				break
			}
			src -= walk[ax] * shape[ax]
			idx[ax] = 0
		}
	}
	return out, nil
}

// MoveAxis moves axis src to position dst, keeping the order of the others.
// Negative axes count from the end.
func (a *Array[T]) MoveAxis(src, dst int) (*Array[T], error) {
	n := a.Rank()
	if src < 0 {
		src += n
	}
	if dst < 0 {
		dst += n
	}
	if src < 0 || src >= n || dst < 0 || dst >= n {
		return nil, fmt.Errorf("%w: axis %d -> %d for rank %d", ErrShape, src, dst, n)
	}

	perm := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if i != src {
			perm = append(perm, i)
		}
	}
	perm = slices.Insert(perm, dst, src)
	return a.Transpose(perm...)
}

// ChangeChannelOrder converts between channel-first and channel-last layouts.
// Rank 3 arrays (C,H,W)/(H,W,C) swap axis 0 with the last axis position; rank 4
// arrays (N,C,H,W)/(N,H,W,C) do the same with axis 1. Calling it with toLast
// and then !toLast returns the original array.
func (a *Array[T]) ChangeChannelOrder(toLast bool) (*Array[T], error) {
	var first int
	switch a.Rank() {
	case 3:
		first = 0
	case 4:
		first = 1
	default:
		return nil, fmt.Errorf("%w: channel order needs rank 3 or 4, got %d", ErrRank, a.Rank())
	}
	if toLast {
		return a.MoveAxis(first, -1)
	}
	return a.MoveAxis(-1, first)
}

// Cast converts every element of a to U.
func Cast[U, T Number](a *Array[T]) *Array[U] {
	out := &Array[U]{Shape: cloneShape(a.Shape), Data: make([]U, len(a.Data))}
	for i, v := range a.Data {
		out.Data[i] = U(v)
	}
	return out
}

// As converts any Tensor to an *Array[T]. A t that already is one is returned
// as is.
func As[T Number](t Tensor) *Array[T] {
	if a, ok := t.(*Array[T]); ok {
		return a
	}
	out := &Array[T]{Shape: t.Dims(), Data: make([]T, t.Len())}
	switch src := t.Raw().(type) {
	case []uint8:
		convert(out.Data, src)
	case []int8:
		convert(out.Data, src)
	case []uint16:
		convert(out.Data, src)
	case []int16:
		convert(out.Data, src)
	case []uint32:
		convert(out.Data, src)
	case []int32:
		convert(out.Data, src)
	case []uint64:
		convert(out.Data, src)
	case []int64:
		convert(out.Data, src)
	case []float32:
		convert(out.Data, src)
	case []float64:
		convert(out.Data, src)
	default:
		for i := range out.Data {
			out.Data[i] = T(t.Float(i))
		}
	}
	return out
}

func convert[U, T Number](dst []U, src []T) {
	for i, v := range src {
		dst[i] = U(v)
	}
}

func (a *Array[T]) offset(idx []int) int {
	if len(idx) != len(a.Shape) {
		panic(fmt.Sprintf("ndarray: %d indices for rank %d", len(idx), len(a.Shape)))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= a.Shape[i] {
			panic(fmt.Sprintf("ndarray: index %v out of range for shape %v", idx, a.Shape))
		}
		off = off*a.Shape[i] + v
	}
	return off
}

// cloneShape never returns nil so scalars compare equal after a round trip.
func cloneShape(s []int) []int {
	return append(make([]int, 0, len(s)), s...)
}

func strides(shape []int) []int {
	s := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= shape[i]
	}
	return s
}

func validShape(shape []int) bool {
	n := 1
	for _, d := range shape {
		if d < 0 || (d != 0 && n > math.MaxInt/d) {
			return false
		}
		n *= d
	}
	return true
}

func prod(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
