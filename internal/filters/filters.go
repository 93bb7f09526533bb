// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package filters parses --filter expressions and matches them against rows.
//
// An expression is KEY OP TARGET, where KEY is an attr output key and OP is
// one of
//
//	=  equal             ~  case-insensitive equal, or member of a family
//	^  has prefix        @  contains
//	<  less than         >  greater than
//	/  matches regexp
//
// Any OP may be negated with a leading '!'. Expressions are separated by ','
// or by TOOLMAN_FILTER_DELIM.
//
// Targets take the type of the value they are compared with. Numbers accept
// byte sizes (bytes>1MB). Shapes are written as dimensions joined by 'x', so
// shape=8x8x3 matches an (8, 8, 3) array, shape^8x8 any array whose leading
// dims are 8 and 8, shape@3 any array with a dim of 3 and shape>1000 any
// array with more than 1000 elements. The families accepted by '~' are listed
// in Families.
package filters

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/tidwall/gjson"

	"github.com/staranto/toolman/internal/attrs"
)

var (
	// ErrExpression is returned for a filter that does not parse.
	ErrExpression = errors.New("invalid filter")

	// ErrUnknownKey is returned for a filter naming no attr.
	ErrUnknownKey = errors.New("filter key not found")
)

var exprRe = regexp.MustCompile(`^([^=^~<>@/!]+)(!?)([=^~<>@/])(.*)$`)

// Families groups string values under a name usable as a '~' target. dtype~int
// matches every integer dtype, format~image every raster format.
var Families = map[string][]string{
	"int":    {"int8", "int16", "int32", "int64", "uint8", "uint16", "uint32", "uint64"},
	"sint":   {"int8", "int16", "int32", "int64"},
	"uint":   {"uint8", "uint16", "uint32", "uint64"},
	"float":  {"float32", "float64"},
	"wide":   {"int16", "int32", "int64", "uint16", "uint32", "uint64", "float32", "float64"},
	"image":  {"png", "jpeg", "tiff", "bmp", "gif"},
	"array":  {"npy", "pkl"},
	"config": {"json", "yaml", "txt"},
}

// Filter is one parsed expression.
type Filter struct {
	Key    string
	Negate bool
	Op     byte
	Target string
}

func (f Filter) String() string {
	neg := ""
	if f.Negate {
		neg = "!"
	}
	return f.Key + neg + string(f.Op) + f.Target
}

// Parse splits spec into filters. An empty spec gives no filters.
func Parse(spec string) ([]Filter, error) {
	if spec == "" {
		return nil, nil
	}

	delim := ","
	if d, ok := os.LookupEnv("TOOLMAN_FILTER_DELIM"); ok && d != "" {
		delim = d
	}

	var out []Filter
	for _, expr := range strings.Split(spec, delim) {
		m := exprRe.FindStringSubmatch(strings.TrimSpace(expr))
		if m == nil {
			return nil, fmt.Errorf("%w: %q", ErrExpression, expr)
		}
		f := Filter{Key: strings.TrimSpace(m[1]), Negate: m[2] == "!", Op: m[3][0], Target: m[4]}
		if f.Op == '/' {
			if _, err := regexp.Compile(f.Target); err != nil {
				return nil, fmt.Errorf("%w: %q: %w", ErrExpression, expr, err)
			}
		}
		out = append(out, f)
	}
	return out, nil
}

// FilterDataset returns the rows of candidates matching every filter in spec,
// each reduced to the attrs in al keyed by output key. Values are left
// untransformed.
func FilterDataset(candidates gjson.Result, al attrs.AttrList, spec string) ([]map[string]interface{}, error) {
	fs, err := Parse(spec)
	if err != nil {
		return nil, err
	}

	paths := make([]string, len(fs))
	for i, f := range fs {
		idx := slices.IndexFunc(al, func(a attrs.Attr) bool { return a.OutputKey == f.Key })
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownKey, f.Key)
		}
		paths[i] = al[idx].Key
	}

	//nolint:prealloc
	var rows []map[string]interface{}
	for _, c := range candidates.Array() {
		keep := true
		for i, f := range fs {
			if !f.Match(c.Get(paths[i])) {
				keep = false
				break
			}
		}
		if !keep {
			continue
		}

		row := make(map[string]interface{}, len(al))
		for _, a := range al {
			row[a.OutputKey] = c.Get(a.Key).Value()
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Match reports whether v satisfies f. A missing value never matches, negated
// or not.
func (f Filter) Match(v gjson.Result) bool {
	var ok bool
	switch v.Type {
	case gjson.Null:
		return false
	case gjson.Number:
		ok = f.number(v.Float())
	case gjson.JSON:
		if !v.IsArray() {
			ok = f.Op == '@' && v.Get(gjson.Escape(f.Target)).Exists()
			break
		}
		dims, isShape := shapeOf(v)
		if !isShape {
			ok = f.list(v.Array())
			break
		}
		ok = f.shape(dims)
	default:
		ok = f.text(v.String())
	}
	return ok != f.Negate
}

func (f Filter) number(n float64) bool {
	t, err := numberTarget(f.Target)
	if err != nil {
		log.Debugf("filter %s: %v", f, err)
		return false
	}
	switch f.Op {
	case '=', '~':
		return n == t
	case '<':
		return n < t
	case '>':
		return n > t
	}
	return f.text(strconv.FormatFloat(n, 'f', -1, 64))
}

func numberTarget(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	b, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("not a number or size: %q", s)
	}
	return float64(b), nil
}

func (f Filter) text(s string) bool {
	switch f.Op {
	case '=':
		return s == f.Target
	case '~':
		if members, ok := Families[strings.ToLower(f.Target)]; ok {
			return slices.Contains(members, strings.ToLower(s))
		}
		return strings.EqualFold(s, f.Target)
	case '^':
		return strings.HasPrefix(s, f.Target)
	case '@':
		return strings.Contains(s, f.Target)
	case '<':
		return s < f.Target
	case '>':
		return s > f.Target
	case '/':
		return regexp.MustCompile(f.Target).MatchString(s)
	}
	return false
}

// shapeOf returns v's elements when v is a non-empty array of whole numbers.
func shapeOf(v gjson.Result) ([]int, bool) {
	items := v.Array()
	if len(items) == 0 {
		return nil, false
	}
	dims := make([]int, len(items))
	for i, it := range items {
		if it.Type != gjson.Number || it.Float() != float64(it.Int()) {
			return nil, false
		}
		dims[i] = int(it.Int())
	}
	return dims, true
}

// parseShape reads a target such as 8x8x3. A single number is a rank 1 shape.
func parseShape(s string) ([]int, bool) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	dims := make([]int, len(parts))
	for i, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || d < 0 {
			return nil, false
		}
		dims[i] = d
	}
	return dims, true
}

func (f Filter) shape(dims []int) bool {
	if f.Op == '/' {
		return f.text(formatShape(dims))
	}
	tgt, ok := parseShape(f.Target)
	if !ok {
		if f.Op == '<' || f.Op == '>' {
			if n, err := numberTarget(f.Target); err == nil {
				return f.compareCount(elements(dims), n)
			}
		}
		log.Debugf("filter %s: bad shape target", f)
		return false
	}

	switch f.Op {
	case '=', '~':
		return slices.Equal(dims, tgt)
	case '^':
		return len(tgt) <= len(dims) && slices.Equal(dims[:len(tgt)], tgt)
	case '@':
		if len(tgt) == 1 {
			return slices.Contains(dims, tgt[0])
		}
		return strings.Contains("x"+formatShape(dims)+"x", "x"+formatShape(tgt)+"x")
	case '<', '>':
		return f.compareCount(elements(dims), float64(elements(tgt)))
	}
	return false
}

func (f Filter) compareCount(n int, t float64) bool {
	if f.Op == '<' {
		return float64(n) < t
	}
	return float64(n) > t
}

func (f Filter) list(items []gjson.Result) bool {
	if f.Op != '@' {
		strs := make([]string, len(items))
		for i, it := range items {
			strs[i] = it.String()
		}
		return f.text(strings.Join(strs, ","))
	}
	return slices.ContainsFunc(items, func(it gjson.Result) bool { return it.String() == f.Target })
}

func formatShape(dims []int) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, "x")
}

func elements(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}
