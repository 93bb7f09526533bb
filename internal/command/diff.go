// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"

	"github.com/staranto/toolman/internal/meta"
)

// ErrDifferent is returned by diff --exit-code when the documents differ.
var ErrDifferent = errors.New("documents differ")

var diffExamples = [][2]string{
	{"toolman diff run1.yaml run2.yaml", "structural diff of two configs"},
	{"toolman diff --format delta a.json b.json", "the delta in jsondiffpatch form"},
	{"toolman diff -o json a.json b.yaml", "the delta as json, across formats"},
	{"toolman diff --exit-code a.json b.json && echo same", "use in scripts"},
}

// DiffCommandAction compares two json or yaml artifacts.
func DiffCommandAction(ctx context.Context, cmd *cli.Command) error {
	if ShortCircuitTLDR(ctx, cmd, "diff", diffExamples) {
		return nil
	}
	if err := ArgCountValidator(cmd, 2, 2); err != nil {
		return err
	}

	m := GetMeta(cmd)
	leftPath := resolvePath(m, cmd.Args().Get(0))
	rightPath := resolvePath(m, cmd.Args().Get(1))

	left, err := decodeDocument(leftPath)
	if err != nil {
		return err
	}
	right, err := decodeDocument(rightPath)
	if err != nil {
		return err
	}

	left, d := compareDocuments(left, right)
	log.Debugf("diff: %s vs %s modified=%v", leftPath, rightPath, d.Modified())

	format := cmd.String("format")
	if cmd.String("output") == "json" {
		format = "delta"
	}

	var text string
	switch {
	case !d.Modified() && format == "delta":
		text = "{}"
	case !d.Modified():
		text = "no differences"
	case format == "delta":
		text, err = formatter.NewDeltaFormatter().Format(d)
	default:
		text, err = formatter.NewAsciiFormatter(left, formatter.AsciiFormatterConfig{
			ShowArrayIndex: true,
			Coloring:       cmd.Bool("color"),
		}).Format(d)
	}
	if err != nil {
		return fmt.Errorf("failed to format diff: %w", err)
	}
	fmt.Fprintln(stdout, text)

	if d.Modified() && cmd.Bool("exit-code") {
		return ErrDifferent
	}
	return nil
}

// decodeDocument loads a json or yaml artifact into generic json values.
func decodeDocument(path string) (any, error) {
	b, err := loadDocument(path)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// compareDocuments diffs two decoded documents. Objects and arrays are
// compared directly; any other pairing is wrapped in a single "value" key.
// The returned left side is the one the diff was computed against.
func compareDocuments(left, right any) (any, gojsondiff.Diff) {
	differ := gojsondiff.New()

	lm, lok := left.(map[string]any)
	rm, rok := right.(map[string]any)
	if lok && rok {
		return lm, differ.CompareObjects(lm, rm)
	}

	la, lok := left.([]any)
	ra, rok := right.([]any)
	if lok && rok {
		return la, differ.CompareArrays(la, ra)
	}

	lw := map[string]any{"value": left}
	return lw, differ.CompareObjects(lw, map[string]any{"value": right})
}

// pickFlags returns the named flags from a flag list, in list order.
func pickFlags(flags []cli.Flag, names ...string) []cli.Flag {
	var picked []cli.Flag
	for _, f := range flags {
		if slices.Contains(names, f.Names()[0]) {
			picked = append(picked, f)
		}
	}
	return picked
}

// DiffCommandBuilder constructs the cli.Command for "diff".
func DiffCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:  "exit-code",
			Usage: "exit non-zero when the documents differ",
		},
		NameSpacedValueChainFlagFromConfigFile("diff", cfg.Source, &cli.StringFlag{
			Name:  "format",
			Usage: "diff rendering (ascii, delta)",
			Value: "ascii",
			Validator: func(value string) error {
				if value != "ascii" && value != "delta" {
					return fmt.Errorf("%w: format must be ascii or delta", ErrUsage)
				}
				return nil
			},
		}),
		tldrFlag,
	}
	flags = append(flags, pickFlags(NewGlobalFlags("diff"), "color", "output")...)

	return &cli.Command{
		Name:      "diff",
		Usage:     "structural diff of two json or yaml artifacts",
		UsageText: "toolman diff A B [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags:  flags,
		Action: DiffCommandAction,
	}
}
