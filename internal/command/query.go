// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"
	yamlv2 "gopkg.in/yaml.v2"

	"github.com/staranto/toolman/fileio"
	"github.com/staranto/toolman/internal/meta"
	"github.com/staranto/toolman/internal/output"
)

var queryExamples = [][2]string{
	{"toolman query metrics.json epochs.#.loss", "every loss value"},
	{"toolman query run.yaml params", "a subtree rendered as text"},
	{"toolman query -o yaml metrics.json best", "a subtree rendered as yaml"},
	{"toolman query metrics.json epochs -s -loss -a epoch,loss", "tabulate an array of objects"},
	{"toolman query metrics.json 'epochs.#(loss<0.1)#' --titles", "rows matching a gjson condition"},
}

// QueryCommandAction selects part of a json or yaml artifact with a gjson
// path. Arrays of objects are emitted as rows; anything else is printed in
// the requested output format.
func QueryCommandAction(ctx context.Context, cmd *cli.Command) error {
	if ShortCircuitTLDR(ctx, cmd, "query", queryExamples) {
		return nil
	}
	if err := ArgCountValidator(cmd, 1, 2); err != nil {
		return err
	}

	m := GetMeta(cmd)
	file := resolvePath(m, cmd.Args().Get(0))
	path := cmd.Args().Get(1)
	if path == "" {
		path = "@this"
	}

	doc, err := loadDocument(file)
	if err != nil {
		return err
	}

	result := gjson.GetBytes(doc, path)
	if !result.Exists() {
		return fmt.Errorf("%w: %q in %s", fileio.ErrNoMatch, path, file)
	}
	log.Debugf("query: %s matched %s", path, result.Type)

	if keys, ok := objectKeys(result); ok {
		if cmd.Bool("schema") {
			for _, k := range keys {
				fmt.Fprintln(stdout, k)
			}
			return nil
		}
		al, err := BuildAttrs(cmd, strings.Join(keys, ","))
		if err != nil {
			return err
		}
		return output.SliceDiceSpit(json.RawMessage(result.Raw), al, output.OptionsFromCommand(cmd), stdout, nil)
	}

	return emitValue(result, cmd.String("output"))
}

// loadDocument returns a json or yaml artifact as json bytes.
func loadDocument(path string) ([]byte, error) {
	tag, err := fileio.TagOf(path)
	if err != nil {
		return nil, err
	}
	if tag != fileio.JSON && tag != fileio.YAML {
		return nil, fmt.Errorf("%w: %s is %s, not json or yaml", ErrUsage, path, tag)
	}

	v, err := fileio.Load(path)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize %s: %w", path, err)
	}
	return b, nil
}

// objectKeys returns the sorted union of keys when r is a non-empty array
// whose elements are all objects.
func objectKeys(r gjson.Result) ([]string, bool) {
	if !r.IsArray() {
		return nil, false
	}
	elems := r.Array()
	if len(elems) == 0 {
		return nil, false
	}

	var keys []string
	for _, e := range elems {
		if !e.IsObject() {
			return nil, false
		}
		e.ForEach(func(k, _ gjson.Result) bool {
			if !slices.Contains(keys, k.String()) {
				keys = append(keys, k.String())
			}
			return true
		})
	}
	slices.Sort(keys)
	return keys, len(keys) > 0
}

// emitValue prints a single query result.
func emitValue(r gjson.Result, format string) error {
	switch format {
	case "json", "raw":
		_, err := fmt.Fprintln(stdout, r.Raw)
		return err
	case "yaml":
		b, err := yamlv2.Marshal(r.Value())
		if err != nil {
			return fmt.Errorf("failed to marshal yaml: %w", err)
		}
		_, err = stdout.Write(b)
		return err
	}

	if r.IsArray() {
		for _, e := range r.Array() {
			fmt.Fprintln(stdout, e.String())
		}
		return nil
	}
	_, err := fmt.Fprintln(stdout, r.String())
	return err
}

// QueryCommandBuilder constructs the cli.Command for "query".
func QueryCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&RowCommandBuilder{
		Name:      "query",
		Usage:     "select part of a json or yaml artifact",
		UsageText: "toolman query FILE [PATH] [options]",
		Meta:      meta,
		Action:    QueryCommandAction,
	}).Build()
}
