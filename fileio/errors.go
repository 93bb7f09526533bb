// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fileio

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is matched by every *UnsupportedFormatError.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrUnsupportedValue is returned when the codec selected by the path
	// cannot encode the value it was given. It also matches
	// ErrUnsupportedFormat.
	ErrUnsupportedValue = fmt.Errorf("%w for value", ErrUnsupportedFormat)

	// ErrWrongType is returned by the typed Load helpers when the decoded value
	// is not of the requested type.
	ErrWrongType = errors.New("loaded value has unexpected type")

	// ErrNoMatch is returned when a WithJSONPath query matches nothing.
	ErrNoMatch = errors.New("json path matched nothing")
)

// UnsupportedFormatError is returned by Save and Load when the path's
// extension does not map to a registered format.
type UnsupportedFormatError struct {
	Path string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Ext == "" {
		return fmt.Sprintf("%s: %s has no extension", ErrUnsupportedFormat, e.Path)
	}
	return fmt.Sprintf("%s %q: %s", ErrUnsupportedFormat, e.Ext, e.Path)
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

func unsupportedValue(tag FormatTag, v any) error {
	return fmt.Errorf("%w: %s cannot hold %T", ErrUnsupportedValue, tag, v)
}
