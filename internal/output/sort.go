// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

type sortKey struct {
	key           string
	descending    bool
	caseSensitive bool
}

// parseSortSpec splits a --sort spec. Each comma separated key may carry a
// leading - (descending) and/or ! (case sensitive), in either order.
func parseSortSpec(spec string) []sortKey {
	var keys []sortKey
	for _, field := range strings.Split(spec, ",") {
		sk := sortKey{}
		field = strings.TrimSpace(field)
		for len(field) > 0 && (field[0] == '-' || field[0] == '!') {
			if field[0] == '-' {
				sk.descending = true
			} else {
				sk.caseSensitive = true
			}
			field = field[1:]
		}
		if field == "" {
			continue
		}
		sk.key = field
		keys = append(keys, sk)
	}
	return keys
}

// SortDataset sorts rows in place per spec. Numbers compare numerically,
// everything else by its string form. Missing values sort first. The sort is
// stable, so an empty spec leaves the order untouched.
func SortDataset(dataset []map[string]interface{}, spec string) {
	keys := parseSortSpec(spec)
	if len(keys) == 0 {
		return
	}

	slices.SortStableFunc(dataset, func(a, b map[string]interface{}) int {
		for _, k := range keys {
			c := compareValues(a[k.key], b[k.key], k.caseSensitive)
			if k.descending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
}

func compareValues(a, b interface{}, caseSensitive bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if fa, ok := toNumber(a); ok {
		if fb, ok := toNumber(b); ok {
			return cmp.Compare(fa, fb)
		}
	}

	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	if !caseSensitive {
		sa, sb = strings.ToLower(sa), strings.ToLower(sb)
	}
	return strings.Compare(sa, sb)
}

func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
