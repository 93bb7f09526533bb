// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package ndarray

import "fmt"

// Number is the set of element types an Array may hold.
type Number interface {
	uint8 | int8 | uint16 | int16 | uint32 | int32 | uint64 | int64 | float32 | float64
}

// DType names an element kind using the NumPy kind+size shorthand, e.g. "u1"
// for uint8 or "f8" for float64.
type DType string

const (
	Uint8   DType = "u1"
	Int8    DType = "i1"
	Uint16  DType = "u2"
	Int16   DType = "i2"
	Uint32  DType = "u4"
	Int32   DType = "i4"
	Uint64  DType = "u8"
	Int64   DType = "i8"
	Float32 DType = "f4"
	Float64 DType = "f8"
)

// ItemSize returns the size in bytes of a single element.
func (d DType) ItemSize() int {
	switch d {
	case Uint8, Int8:
		return 1
	case Uint16, Int16:
		return 2
	case Uint32, Int32, Float32:
		return 4
	case Uint64, Int64, Float64:
		return 8
	}
	return 0
}

// IsInteger reports whether d is a signed or unsigned integer kind.
func (d DType) IsInteger() bool {
	return len(d) == 2 && (d[0] == 'u' || d[0] == 'i')
}

// Valid reports whether d is one of the known kinds.
func (d DType) Valid() bool {
	return d.ItemSize() != 0
}

func (d DType) String() string {
	return string(d)
}

// Name returns the Go element type name, e.g. "uint8" for u1, or the raw
// code for unknown kinds.
func (d DType) Name() string {
	switch d {
	case Uint8:
		return "uint8"
	case Int8:
		return "int8"
	case Uint16:
		return "uint16"
	case Int16:
		return "int16"
	case Uint32:
		return "uint32"
	case Int32:
		return "int32"
	case Uint64:
		return "uint64"
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	}
	return string(d)
}

// dtypeOf maps a type parameter onto its DType.
func dtypeOf[T Number]() DType {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return Uint8
	case int8:
		return Int8
	case uint16:
		return Uint16
	case int16:
		return Int16
	case uint32:
		return Uint32
	case int32:
		return Int32
	case uint64:
		return Uint64
	case int64:
		return Int64
	case float32:
		return Float32
	case float64:
		return Float64
	}
	panic(fmt.Sprintf("ndarray: unhandled element type %T", zero))
}
