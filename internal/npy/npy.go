// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package npy reads and writes the NumPy .npy array file format (versions 1.0,
// 2.0 and 3.0). Only the numeric kinds supported by ndarray are handled.
package npy

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/staranto/toolman/ndarray"
)

const (
	magic = "\x93NUMPY"
	// Header blocks are padded so the payload starts on this boundary.
	align = 64
	// MaxPayload is the largest payload in bytes a header may declare.
	MaxPayload = 1 << 36
)

var (
	ErrMagic  = errors.New("npy: not an npy file")
	ErrHeader = errors.New("npy: malformed header")
	ErrDType  = errors.New("npy: unsupported dtype")
)

var (
	descrRe   = regexp.MustCompile(`'descr'\s*:\s*'([^']*)'`)
	fortranRe = regexp.MustCompile(`'fortran_order'\s*:\s*(True|False)`)
	shapeRe   = regexp.MustCompile(`'shape'\s*:\s*\(([^)]*)\)`)
)

// Header is the decoded array description preceding the payload.
type Header struct {
	DType   ndarray.DType
	Order   binary.ByteOrder
	Fortran bool
	Shape   []int
}

// ReadHeader consumes the magic string and header dictionary from r, leaving r
// positioned at the first payload byte.
func ReadHeader(r io.Reader) (Header, error) {
	pre := make([]byte, len(magic)+2)
	if _, err := io.ReadFull(r, pre); err != nil {
		return Header{}, err
	}
	if string(pre[:len(magic)]) != magic {
		return Header{}, ErrMagic
	}

	var n int
	switch major := pre[len(magic)]; major {
	case 1:
		var l uint16
		if err := binary.Read(r, binary.LittleEndian, &l); err != nil {
			return Header{}, err
		}
		n = int(l)
	case 2, 3:
		var l uint32
		if err := binary.Read(r, binary.LittleEndian, &l); err != nil {
			return Header{}, err
		}
		n = int(l)
	default:
		return Header{}, fmt.Errorf("%w: version %d", ErrHeader, major)
	}

	raw := make([]byte, n)
	if _, err := io.ReadFull(r, raw); err != nil {
		return Header{}, err
	}
	return parseHeader(string(raw))
}

func parseHeader(dict string) (Header, error) {
	var h Header

	m := descrRe.FindStringSubmatch(dict)
	if m == nil {
		return h, fmt.Errorf("%w: no descr in %q", ErrHeader, dict)
	}
	dt, order, err := parseDescr(m[1])
	if err != nil {
		return h, err
	}
	h.DType, h.Order = dt, order

	if m = fortranRe.FindStringSubmatch(dict); m == nil {
		return h, fmt.Errorf("%w: no fortran_order in %q", ErrHeader, dict)
	}
	h.Fortran = m[1] == "True"

	if m = shapeRe.FindStringSubmatch(dict); m == nil {
		return h, fmt.Errorf("%w: no shape in %q", ErrHeader, dict)
	}
	h.Shape = []int{}
	for _, f := range strings.Split(m[1], ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		// Older writers emit Python 2 longs such as "3L".
		d, err := strconv.Atoi(strings.TrimSuffix(f, "L"))
		if err != nil || d < 0 {
			return h, fmt.Errorf("%w: bad shape %q", ErrHeader, m[1])
		}
		h.Shape = append(h.Shape, d)
	}

	limit := MaxPayload / h.DType.ItemSize()
	n := 1
	for _, d := range h.Shape {
		if d != 0 && n > limit/d {
			return h, fmt.Errorf("%w: shape %v exceeds %d bytes", ErrHeader, h.Shape, MaxPayload)
		}
		n *= d
	}

	return h, nil
}

func parseDescr(s string) (ndarray.DType, binary.ByteOrder, error) {
	if len(s) < 3 {
		return "", nil, fmt.Errorf("%w: %q", ErrDType, s)
	}
	var order binary.ByteOrder
	switch s[0] {
	case '<', '|', '=':
		order = binary.LittleEndian
	case '>':
		order = binary.BigEndian
	default:
		return "", nil, fmt.Errorf("%w: %q", ErrDType, s)
	}
	dt := ndarray.DType(s[1:])
	if !dt.Valid() {
		return "", nil, fmt.Errorf("%w: %q", ErrDType, s)
	}
	return dt, order, nil
}

// Read decodes a complete .npy stream. Fortran-ordered files are returned in
// C order.
func Read(r io.Reader) (ndarray.Tensor, error) {
	br := bufio.NewReader(r)
	h, err := ReadHeader(br)
	if err != nil {
		return nil, err
	}

	if !h.Fortran || len(h.Shape) < 2 {
		return readPayload(br, h, h.Shape)
	}

	// Column-major data is row-major data of the reversed shape.
	rev := make([]int, len(h.Shape))
	perm := make([]int, len(h.Shape))
	for i := range h.Shape {
		rev[i] = h.Shape[len(h.Shape)-1-i]
		perm[i] = len(h.Shape) - 1 - i
	}
	t, err := readPayload(br, h, rev)
	if err != nil {
		return nil, err
	}
	return t.Permute(perm...)
}

func readPayload(r io.Reader, h Header, shape []int) (ndarray.Tensor, error) {
	t, err := ndarray.ReadTensor(r, h.Order, h.DType, shape...)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("%w: payload shorter than shape %v", ErrHeader, h.Shape)
	}
	return t, err
}

// Write encodes t as a version 1.0 .npy stream (2.0 when the header does not
// fit a 16-bit length), little-endian and C-ordered.
func Write(w io.Writer, t ndarray.Tensor) error {
	dt := t.DType()
	order := "<"
	if dt.ItemSize() == 1 {
		order = "|"
	}

	var shape string
	switch dims := t.Dims(); len(dims) {
	case 0:
		shape = "()"
	case 1:
		shape = fmt.Sprintf("(%d,)", dims[0])
	default:
		parts := make([]string, len(dims))
		for i, d := range dims {
			parts[i] = strconv.Itoa(d)
		}
		shape = "(" + strings.Join(parts, ", ") + ")"
	}

	dict := fmt.Sprintf("{'descr': '%s%s', 'fortran_order': False, 'shape': %s, }", order, dt, shape)

	var buf bytes.Buffer
	buf.WriteString(magic)
	lenSize := 2
	if len(dict)+len(magic)+2+2+1 > 0xffff {
		lenSize = 4
		buf.Write([]byte{2, 0})
	} else {
		buf.Write([]byte{1, 0})
	}

	pre := len(magic) + 2 + lenSize
	total := pre + len(dict) + 1
	pad := (align - total%align) % align
	hlen := len(dict) + pad + 1

	if lenSize == 2 {
		_ = binary.Write(&buf, binary.LittleEndian, uint16(hlen))
	} else {
		_ = binary.Write(&buf, binary.LittleEndian, uint32(hlen))
	}
	buf.WriteString(dict)
	buf.WriteString(strings.Repeat(" ", pad))
	buf.WriteByte('\n')

	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}
	return ndarray.WriteTensor(w, binary.LittleEndian, t)
}
