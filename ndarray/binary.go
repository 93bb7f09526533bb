// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package ndarray

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Make allocates a zero-filled array of the given kind and shape. Negative
// dimensions and element counts that overflow int fail with ErrShape.
func Make(dt DType, shape ...int) (Tensor, error) {
	if !validShape(shape) {
		return nil, fmt.Errorf("%w: invalid shape %v", ErrShape, shape)
	}
	switch dt {
	case Uint8:
		return New[uint8](shape...), nil
	case Int8:
		return New[int8](shape...), nil
	case Uint16:
		return New[uint16](shape...), nil
	case Int16:
		return New[int16](shape...), nil
	case Uint32:
		return New[uint32](shape...), nil
	case Int32:
		return New[int32](shape...), nil
	case Uint64:
		return New[uint64](shape...), nil
	case Int64:
		return New[int64](shape...), nil
	case Float32:
		return New[float32](shape...), nil
	case Float64:
		return New[float64](shape...), nil
	}
	return nil, fmt.Errorf("unknown dtype %q", dt)
}

// ReadTensor reads a packed element buffer of the given kind and shape.
func ReadTensor(r io.Reader, order binary.ByteOrder, dt DType, shape ...int) (Tensor, error) {
	t, err := Make(dt, shape...)
	if err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		return t, nil
	}
	if err := binary.Read(r, order, t.Raw()); err != nil {
		return nil, err
	}
	return t, nil
}

// WriteTensor writes the packed element buffer of t.
func WriteTensor(w io.Writer, order binary.ByteOrder, t Tensor) error {
	if t.Len() == 0 {
		return nil
	}
	return binary.Write(w, order, t.Raw())
}
