// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/toolman/internal/attrs"
	"github.com/staranto/toolman/internal/meta"
	"github.com/staranto/toolman/internal/output"
)

// stdout is where commands write results. Tests swap it.
var stdout io.Writer = os.Stdout

// ShortCircuitTLDR checks the --tldr flag and, if set, runs `tldr toolman-<subcmd>`
// or falls back to printing the command's built-in examples. It returns true
// so the caller can exit early.
func ShortCircuitTLDR(ctx context.Context, cmd *cli.Command, subcmd string, examples [][2]string) bool {
	if !cmd.Bool("tldr") {
		return false
	}
	if pathHas("tldr") {
		c := exec.CommandContext(ctx, "tldr", "toolman-"+subcmd)
		c.Stdout = stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err == nil {
			return true
		}
	}
	output.DumpExamples(ctx, stdout, examples)
	return true
}

// DumpSchemaIfRequested prints the attrs of the provided row type when
// --schema is set, and returns true if it handled the request.
func DumpSchemaIfRequested(cmd *cli.Command, t reflect.Type) bool {
	if cmd.Bool("schema") {
		output.DumpSchema(stdout, "", t)
		return true
	}
	return false
}

// BuildAttrs constructs an AttrList with defaults and optional extras from
// --attrs, then applies the global transform spec.
func BuildAttrs(cmd *cli.Command, defaults ...string) (al attrs.AttrList, err error) {
	for _, d := range defaults {
		if err = al.Set(d); err != nil {
			return nil, err
		}
	}
	if extras := cmd.String("attrs"); extras != "" {
		if err = al.Set(extras); err != nil {
			return nil, err
		}
	}
	err = al.SetGlobalTransformSpec()
	return
}

// GetMeta returns the meta.Meta stored in the command's Metadata, looking up
// through parents for nested commands. If missing it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil {
		return meta.Meta{}
	}
	for _, c := range cmd.Lineage() {
		if c.Metadata == nil {
			continue
		}
		if m, ok := c.Metadata["meta"].(meta.Meta); ok {
			return m
		}
	}
	return meta.Meta{}
}

// resolvePath makes a positional path absolute against the starting dir.
func resolvePath(m meta.Meta, p string) string {
	if filepath.IsAbs(p) || m.StartingDir == "" {
		return p
	}
	return filepath.Join(m.StartingDir, p)
}

// RowCommandBuilder builds a command that emits rows through the common
// output flags.
type RowCommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	Flags     []cli.Flag
	Action    func(context.Context, *cli.Command) error
	Meta      meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (rcb *RowCommandBuilder) Build() *cli.Command {
	return &cli.Command{
		Name:      rcb.Name,
		Usage:     rcb.Usage,
		UsageText: rcb.UsageText,
		Metadata: map[string]any{
			"meta": rcb.Meta,
		},
		Flags: append(rcb.Flags, append([]cli.Flag{
			tldrFlag,
			schemaFlag,
		}, NewGlobalFlags(rcb.Name)...)...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: rcb.Action,
	}
}

// RowActionRunner[T] is the common action shape for row emitting commands:
// short circuits, attrs, fetch, then emit. FetchFn supplies the rows.
type RowActionRunner[T any] struct {
	CommandName  string
	DefaultAttrs []string
	Examples     [][2]string
	MinArgs      int
	MaxArgs      int
	FetchFn      func(context.Context, *cli.Command) ([]T, error)
	PostProcess  func(*cli.Command) output.PostProcessor
}

// Run executes the action with the provided context and command.
func (rar *RowActionRunner[T]) Run(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("executing action for %v", m.Args)

	if ShortCircuitTLDR(ctx, cmd, rar.CommandName, rar.Examples) {
		return nil
	}
	if DumpSchemaIfRequested(cmd, reflect.TypeFor[T]()) {
		return nil
	}

	if err := ArgCountValidator(cmd, rar.MinArgs, rar.MaxArgs); err != nil {
		return err
	}

	al, err := BuildAttrs(cmd, rar.DefaultAttrs...)
	if err != nil {
		return err
	}
	log.Debugf("attrs: %v", al.String())

	results, err := rar.FetchFn(ctx, cmd)
	if err != nil {
		return err
	}

	var post output.PostProcessor
	if rar.PostProcess != nil {
		post = rar.PostProcess(cmd)
	}
	return output.SliceDiceSpit(results, al, output.OptionsFromCommand(cmd), stdout, post)
}
