// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"slices"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
)

// Tag is a parsed `attr:"attr,name[,encoding]"` struct tag on a row type. It
// backs the --schema flag.
type Tag struct {
	Kind     string
	Name     string
	Encoding string
}

// NewTag parses a raw struct tag value. h is an optional holder prefix used
// to build dotted names for nested structs.
func NewTag(h string, s string) Tag {
	allowed := []string{"attr"}

	tag := Tag{}

	parts := strings.Split(s, ",")
	if !slices.Contains(allowed, parts[0]) {
		return tag
	}
	tag.Kind = parts[0]

	if len(parts) > 1 {
		if h != "" {
			parts[1] = fmt.Sprintf("%s.%s", h, parts[1])
		}
		tag.Name = parts[1]
	}

	if len(parts) > 2 {
		tag.Encoding = parts[2]
	}

	return tag
}

// Print renders the tag into its display form.
func (t Tag) Print() (out string) {
	if t.Name == "" {
		return ""
	}
	if t.Encoding != "" {
		return t.Name + " (" + t.Encoding + ")"
	}
	return t.Name
}

// DumpExamples renders a two column table of example command lines.
func DumpExamples(_ context.Context, w io.Writer, examples [][2]string) {
	if len(examples) == 0 {
		return
	}
	rows := make([][]string, 0, len(examples))
	for _, ex := range examples {
		rows = append(rows, []string{ex[0], ex[1]})
	}

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		Headers("Command", "Description").
		BorderHeader(false).
		Rows(rows...)

	fmt.Fprintln(w, t)
}

// DumpSchema writes the sorted attr names available on a row type.
func DumpSchema(w io.Writer, prefix string, typ reflect.Type) {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	tags := DumpSchemaWalker(prefix, typ, 0)
	if len(tags) == 0 {
		log.Debugf("no attr tags found for type: %s", typ.Name())
		return
	}

	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Kind == tags[j].Kind {
			return tags[i].Name < tags[j].Name
		}
		return tags[i].Kind < tags[j].Kind
	})

	fmt.Fprintln(w, "Schema for", typ.Name(), "--")
	for _, tag := range tags {
		fmt.Fprintln(w, tag.Print())
	}
	fmt.Fprintln(w, "")
	fmt.Fprintln(w,
		`Attributes available to the --attrs, --filter and --sort flags. Nested
values are addressed with dotted paths, e.g. shape.0.`)
}

const maxSchemaDepth = 1

// DumpSchemaWalker walks a struct type collecting attr tags, descending one
// level into struct and pointer-to-struct fields.
func DumpSchemaWalker(holder string, typ reflect.Type, depth int) []Tag {
	tags := make([]Tag, 0)

	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return tags
	}

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)

		tagValue, ok := field.Tag.Lookup("attr")
		if !ok {
			continue
		}

		tag := NewTag(holder, tagValue)
		if tag.Kind != "attr" {
			continue
		}

		tags = append(tags, tag)

		if depth >= maxSchemaDepth {
			continue
		}
		switch {
		case field.Type.Kind() == reflect.Struct:
			tags = append(tags, DumpSchemaWalker(tag.Name, field.Type, depth+1)...)
		case field.Type.Kind() == reflect.Ptr && field.Type.Elem().Kind() == reflect.Struct:
			tags = append(tags, DumpSchemaWalker(tag.Name, field.Type.Elem(), depth+1)...)
		default:
			log.Debugf("presumed primitive field type: %s for %v", field.Type.Kind(), tag)
		}
	}

	return tags
}
