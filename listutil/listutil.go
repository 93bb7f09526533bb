// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package listutil splits delimited strings into typed lists.
package listutil

import (
	"fmt"
	"strconv"
	"strings"
)

// StrToList splits s on sep, trims each field and converts it with parse.
// Empty fields are dropped. The first conversion failure is returned along
// with the field's position.
func StrToList[T any](s, sep string, parse func(string) (T, error)) ([]T, error) {
	fields := strings.Split(s, sep)
	out := make([]T, 0, len(fields))
	for i, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := parse(f)
		if err != nil {
			return nil, fmt.Errorf("field %d %q: %w", i, f, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseInt parses a base 10 int.
func ParseInt(s string) (int, error) {
	return strconv.Atoi(s)
}

// ParseFloat parses a float64.
func ParseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// ParseString returns s unchanged.
func ParseString(s string) (string, error) {
	return s, nil
}

// Chunk splits xs into n contiguous parts whose lengths differ by at most one,
// longer parts first. n is clamped to 1..len(xs).
func Chunk[T any](xs []T, n int) [][]T {
	if len(xs) == 0 {
		return nil
	}
	n = max(1, min(n, len(xs)))

	size, extra := len(xs)/n, len(xs)%n
	out := make([][]T, 0, n)
	start := 0
	for i := range n {
		end := start + size
		if i < extra {
			end++
		}
		out = append(out, xs[start:end:end])
		start = end
	}
	return out
}
