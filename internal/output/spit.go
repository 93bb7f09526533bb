// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v2"

	"github.com/staranto/toolman/internal/attrs"
	"github.com/staranto/toolman/internal/config"
	"github.com/staranto/toolman/internal/filters"
)

// Options are the presentation flags shared by every row emitting command.
type Options struct {
	Output string
	Filter string
	Sort   string
	Titles bool
	Color  bool
}

// OptionsFromCommand reads the global flags off a command.
func OptionsFromCommand(cmd *cli.Command) Options {
	return Options{
		Output: cmd.String("output"),
		Filter: cmd.String("filter"),
		Sort:   cmd.String("sort"),
		Titles: cmd.Bool("titles"),
		Color:  cmd.Bool("color"),
	}
}

// PostProcessor is given the filtered and sorted rows before they are
// rendered.
type PostProcessor func(dataset []map[string]interface{}) error

// SliceDiceSpit filters, transforms, sorts and renders rows. rows is anything
// that marshals to a JSON array of objects, typically a slice of row structs.
func SliceDiceSpit(rows any,
	al attrs.AttrList,
	opts Options,
	w io.Writer,
	postProcess PostProcessor) error {

	if w == nil {
		w = os.Stdout
	}

	raw, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal rows: %w", err)
	}

	// If raw, just dump it and go home.
	if opts.Output == "raw" {
		_, err := fmt.Fprintln(w, string(raw))
		return err
	}

	// Filter first so the later passes work on a smaller dataset.
	dataset, err := filters.FilterDataset(gjson.ParseBytes(raw), al, opts.Filter)
	if err != nil {
		return err
	}

	for _, row := range dataset {
		for i := range al {
			if al[i].TransformSpec != "" {
				row[al[i].OutputKey] = al[i].Transform(row[al[i].OutputKey])
			}
		}
	}

	SortDataset(dataset, opts.Sort)

	if postProcess != nil {
		if err := postProcess(dataset); err != nil {
			return err
		}
	}

	// Hidden attrs served filtering and sorting; they don't get emitted.
	included := al.Included()
	for _, row := range dataset {
		for _, attr := range al {
			if !attr.Include {
				delete(row, attr.OutputKey)
			}
		}
	}

	switch opts.Output {
	case "json":
		if dataset == nil {
			dataset = []map[string]interface{}{}
		}
		jsonOutput, err := json.Marshal(dataset)
		if err != nil {
			return fmt.Errorf("failed to marshal json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(jsonOutput))
		return err
	case "yaml":
		yamlOutput, err := yaml.Marshal(dataset)
		if err != nil {
			return fmt.Errorf("failed to marshal yaml: %w", err)
		}
		_, err = w.Write(yamlOutput)
		return err
	default:
		TableWriter(dataset, included, opts, w)
	}
	return nil
}

// TableWriter renders the result set in a tabular form honoring color,
// titles and padding options.
func TableWriter(
	resultSet []map[string]interface{},
	al attrs.AttrList,
	opts Options,
	w io.Writer) {

	if len(resultSet) == 0 {
		return
	}

	var (
		headerStyle  = lipgloss.NewStyle().Align(lipgloss.Left)
		cellStyle    = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		evenRowStyle = cellStyle
		oddRowStyle  = cellStyle
	)

	if opts.Color {
		headerColor, evenColor, oddColor := getColors("colors")

		headerStyle = headerStyle.Foreground(lipgloss.Color(headerColor))
		evenRowStyle = evenRowStyle.Foreground(lipgloss.Color(evenColor))
		oddRowStyle = oddRowStyle.Foreground(lipgloss.Color(oddColor))
	}

	pad, _ := config.GetInt("padding", 0)
	log.Debugf("padding: %v", pad)

	rows := make([][]string, 0, len(resultSet))
	for _, result := range resultSet {
		row := make([]string, 0, len(al))
		for _, attr := range al {
			row = append(row, InterfaceToString(result[attr.OutputKey], "-"))
		}
		rows = append(rows, row)
	}

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			var style lipgloss.Style
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case row%2 == 0:
				style = evenRowStyle
			default:
				style = oddRowStyle
			}

			if col > 0 {
				style = style.PaddingLeft(pad)
			}

			return style
		}).
		Rows(rows...)

	if opts.Titles {
		headers := make([]string, 0, len(al))
		for _, attr := range al {
			headers = append(headers, attr.OutputKey)
		}

		// https://github.com/charmbracelet/lipgloss/issues/261
		t = t.Headers(headers...).BorderHeader(false)
	}
	fmt.Fprintln(w, t)
}

// getColors returns configured color values for table rendering.
func getColors(key string) (header string, even string, odd string) {
	header, _ = config.GetString(fmt.Sprintf("%s.title", key), "#f6be00")
	even, _ = config.GetString(fmt.Sprintf("%s.even", key), "#ffffff")
	odd, _ = config.GetString(fmt.Sprintf("%s.odd", key), "#00c8f0")
	return
}

// InterfaceToString converts supported primitive or composite values to a
// string. A custom empty value may be provided.
func InterfaceToString(value interface{}, emptyValue ...string) string {
	if len(emptyValue) == 0 {
		emptyValue = []string{""}
	}

	if value == nil || reflect.ValueOf(value).IsZero() {
		return emptyValue[0]
	}

	switch value := value.(type) {
	case string:
		return value
	case int:
		return strconv.Itoa(value)
	case float64:
		// Table cells show whole numbers.
		return fmt.Sprintf("%.0f", value)
	case bool:
		return strconv.FormatBool(value)
	default:
		jsonBytes, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(jsonBytes)
	}
}
