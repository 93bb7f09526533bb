// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package ndarray

import (
	"fmt"
	"slices"
)

// Concat joins arrays along axis. Every other axis must match.
func Concat[T Number](axis int, arrays ...*Array[T]) (*Array[T], error) {
	if len(arrays) == 0 {
		return nil, fmt.Errorf("%w: nothing to concatenate", ErrShape)
	}
	first := arrays[0]
	n := first.Rank()
	if axis < 0 {
		axis += n
	}
	if axis < 0 || axis >= n {
		return nil, fmt.Errorf("%w: axis %d for rank %d", ErrShape, axis, n)
	}

	shape := first.Dims()
	shape[axis] = 0
	for _, a := range arrays {
		if a.Rank() != n {
			return nil, fmt.Errorf("%w: cannot concatenate %v with %v", ErrShape, first.Shape, a.Shape)
		}
		for i := range n {
			if i != axis && a.Shape[i] != first.Shape[i] {
				return nil, fmt.Errorf("%w: cannot concatenate %v with %v", ErrShape, first.Shape, a.Shape)
			}
		}
		shape[axis] += a.Shape[axis]
	}

	// Each array contributes a contiguous run of prod(shape[axis:]) elements per
	// outer index.
	outer := prod(shape[:axis])
	out := New[T](shape...)
	pos := 0
	for o := range outer {
		for _, a := range arrays {
			run := prod(a.Shape[axis:])
			pos += copy(out.Data[pos:], a.Data[o*run:(o+1)*run])
		}
	}
	return out, nil
}

// ArgMax returns the index of the largest element along axis, removing that
// axis from the shape. Ties resolve to the lowest index.
func (a *Array[T]) ArgMax(axis int) (*Array[int64], error) {
	n := a.Rank()
	if axis < 0 {
		axis += n
	}
	if axis < 0 || axis >= n {
		return nil, fmt.Errorf("%w: axis %d for rank %d", ErrShape, axis, n)
	}

	dim := a.Shape[axis]
	inner := prod(a.Shape[axis+1:])
	outer := prod(a.Shape[:axis])
	out := New[int64](slices.Delete(a.Dims(), axis, axis+1)...)
	if dim == 0 {
		return out, nil
	}

	for o := range outer {
		for i := range inner {
			base := o*dim*inner + i
			best, bestAt := a.Data[base], 0
			for k := 1; k < dim; k++ {
				if v := a.Data[base+k*inner]; v > best {
					best, bestAt = v, k
				}
			}
			out.Data[o*inner+i] = int64(bestAt)
		}
	}
	return out, nil
}

// Max returns the largest element, or the zero value for an empty array.
func (a *Array[T]) Max() T {
	if len(a.Data) == 0 {
		var zero T
		return zero
	}
	return slices.Max(a.Data)
}
