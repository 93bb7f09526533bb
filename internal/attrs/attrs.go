// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: Apache-2.0

// Package attrs parses the --attrs column specification used by every
// command that emits rows.
package attrs

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
)

var lengthRe = regexp.MustCompile(`-?\d+`)

// Attr is one output column. Key is a gjson path into the row, so nested
// values such as shape.0 can be pulled out directly.
type Attr struct {
	// The gjson path to extract from the row.
	Key string `yaml:"key"`
	// Should this Attr be included in output or is it just
	// intended for filtering and sorting?
	Include bool `yaml:"include"`
	// The key to use in the output. This is also the column title when
	// output=text.
	OutputKey string `yaml:"outputKey"`
	// Transformation spec to apply to the output value.
	TransformSpec string `yaml:"transformSpec"`
}

// Transform applies the attr's transform spec to a value. Only string values
// are transformed; everything else passes through untouched.
//
//	t, T   convert an RFC3339 UTC time to TOOLMAN_TZ or TZ
//	l, L   lower case
//	u, U   upper case
//	N      truncate to N characters
//	-N     elide the middle down to N characters
func (a *Attr) Transform(value interface{}) interface{} {
	result, ok := value.(string)
	if !ok {
		return value
	}

	if strings.ContainsAny(a.TransformSpec, "tT") {
		tz := os.Getenv("TOOLMAN_TZ")
		if tz == "" {
			tz = os.Getenv("TZ")
		}

		// Only convert when we've been told which zone to use.
		if tz != "" {
			loc, err := time.LoadLocation(tz)
			if err == nil {
				t, err := time.Parse(time.RFC3339, result)
				if err == nil {
					result = t.In(loc).Format("2006-01-02T15:04:05MST")
				} else {
					log.Error("failed to parse time: " + result)
					a.TransformSpec = strings.ReplaceAll(a.TransformSpec, "t", "")
					a.TransformSpec = strings.ReplaceAll(a.TransformSpec, "T", "")
				}
			}
		}
	}

	// The last case transformation wins, so a per-attr spec overrides a
	// global one prepended ahead of it. --attrs '*::U,path::l' is lower case.
	lastL := strings.LastIndexAny(a.TransformSpec, "lL")
	lastU := strings.LastIndexAny(a.TransformSpec, "uU")

	if lastL > lastU {
		result = strings.ToLower(result)
	} else if lastU > lastL {
		result = strings.ToUpper(result)
	}

	if a.TransformSpec != "" {
		// Same override rule as case: the last length wins.
		match := lengthRe.FindAllString(a.TransformSpec, -1)
		if len(match) != 0 {
			l, _ := strconv.Atoi(match[len(match)-1])
			abs := int(math.Abs(float64(l)))
			if len(result) > abs {
				if l < 0 {
					lr := abs/2 - 1
					if lr < 1 {
						lr = 1
					}
					result = result[:lr] + ".." + result[len(result)-lr:]
				} else {
					result = result[:l]
				}
			}
		}
	}

	return result
}

type AttrList []Attr

// String renders the list in the same form the --attrs flag accepts.
func (a *AttrList) String() string {
	result := make([]string, 0, len(*a))
	for _, attr := range *a {
		result = append(result, fmt.Sprintf("%s:%s:%s", attr.Key, attr.OutputKey, attr.TransformSpec))
	}
	return strings.Join(result, ",")
}

// Set parses each comma separated spec and merges it into the list.
func (a *AttrList) Set(value string) error {
	if value == "" || value == "*" {
		return nil
	}

	const (
		keyIdx = iota
		outputIdx
		transformIdx
	)

	// Each spec is key[:output[:transform]]. The output key defaults to the
	// last segment of the dotted key.
	specs := strings.Split(value, ",")
specloop:
	for _, spec := range specs {
		attr := Attr{
			Include: true,
		}

		fields := strings.Split(spec, ":")

		// A leading ! keeps the attr for filtering and sorting only.
		attr.Key = strings.TrimPrefix(strings.TrimSpace(fields[keyIdx]), ".")
		if strings.HasPrefix(attr.Key, "!") {
			attr.Include = false
			attr.Key = strings.TrimPrefix(attr.Key[1:], ".")
		}
		if attr.Key == "" {
			return fmt.Errorf("empty attribute in spec %q", spec)
		}

		if attr.Key == "*" {
			attr.Include = false
		}

		if len(fields) == 1 {
			segments := strings.Split(attr.Key, ".")
			attr.OutputKey = segments[len(segments)-1]
		} else {
			if fields[outputIdx] != "" {
				attr.OutputKey = strings.TrimSpace(fields[outputIdx])
			} else {
				attr.OutputKey = attr.Key
			}
		}

		if len(fields) > transformIdx {
			attr.TransformSpec = strings.TrimSpace(fields[transformIdx])
		}

		// An attr that is already listed (a command default or a repeat) is
		// updated in place rather than appended.
		for i := range *a {
			if (*a)[i].Key == attr.Key || (*a)[i].OutputKey == attr.Key {
				(*a)[i].Include = attr.Include
				(*a)[i].OutputKey = attr.OutputKey
				(*a)[i].TransformSpec = attr.TransformSpec
				continue specloop
			}
		}

		*a = append(*a, attr)
	}

	return nil
}

// SetGlobalTransformSpec prepends the transform spec of a "*" attr to every
// attr in the list.
func (a *AttrList) SetGlobalTransformSpec() error {
	spec := ""

	// Only the first global spec is honoured.
	for i := range *a {
		if (*a)[i].Key == "*" {
			spec = (*a)[i].TransformSpec
			break
		}
	}

	if spec == "" {
		return nil
	}

	for i := range *a {
		(*a)[i].TransformSpec = spec + "," + (*a)[i].TransformSpec
	}

	return nil
}

// Included returns the attrs that produce output columns, in order.
func (a AttrList) Included() AttrList {
	var out AttrList
	for _, attr := range a {
		if attr.Include {
			out = append(out, attr)
		}
	}
	return out
}

func (a *AttrList) Type() string {
	return "list"
}
