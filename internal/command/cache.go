// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/staranto/toolman/internal/cacheutil"
	"github.com/staranto/toolman/internal/config"
	"github.com/staranto/toolman/internal/meta"
)

// CacheRow is one file beneath the cache directory.
type CacheRow struct {
	Path     string `json:"path" attr:"attr,path"`
	Kind     string `json:"kind" attr:"attr,kind"`
	Bytes    int64  `json:"bytes" attr:"attr,bytes"`
	Size     string `json:"size" attr:"attr,size,human"`
	Modified string `json:"modified" attr:"attr,modified,rfc3339"`
	Age      string `json:"age" attr:"attr,age"`
}

var cacheLsExamples = [][2]string{
	{"toolman cache ls", "every cached artifact, oldest first"},
	{"toolman cache ls -f 'kind=blocks'", "only memoized blocks"},
	{"toolman cache ls -s -bytes -a bytes", "largest first"},
}

var cachePurgeExamples = [][2]string{
	{"toolman cache purge", "remove entries older than cache.clean hours"},
	{"toolman cache purge --hours 1", "remove entries older than an hour"},
}

// CacheLsCommandAction lists the cache contents.
func CacheLsCommandAction(ctx context.Context, cmd *cli.Command) error {
	runner := &RowActionRunner[CacheRow]{
		CommandName:  "cache-ls",
		DefaultAttrs: []string{"kind", "path", "size", "age", "!bytes", "!modified"},
		Examples:     cacheLsExamples,
		MinArgs:      0,
		MaxArgs:      0,
		FetchFn: func(ctx context.Context, cmd *cli.Command) ([]CacheRow, error) {
			if !cacheutil.Enabled() {
				log.Debug("cache disabled")
				return nil, nil
			}
			return listCache()
		},
	}
	return runner.Run(ctx, cmd)
}

// listCache converts cache entries to rows with paths relative to the base.
func listCache() ([]CacheRow, error) {
	base, ok := cacheutil.Dir()
	if !ok {
		return nil, nil
	}
	entries, err := cacheutil.List()
	if err != nil {
		return nil, err
	}

	rows := make([]CacheRow, 0, len(entries))
	for _, e := range entries {
		rel, err := filepath.Rel(base, e.Path)
		if err != nil {
			rel = e.Path
		}
		rel = filepath.ToSlash(rel)

		kind, _, found := strings.Cut(rel, "/")
		if !found {
			kind = "-"
		}

		rows = append(rows, CacheRow{
			Path:     rel,
			Kind:     kind,
			Bytes:    e.Size,
			Size:     humanize.Bytes(uint64(e.Size)),
			Modified: e.ModTime.UTC().Format(time.RFC3339),
			Age:      humanize.Time(e.ModTime),
		})
	}
	return rows, nil
}

// CachePurgeCommandAction removes stale cache entries.
func CachePurgeCommandAction(ctx context.Context, cmd *cli.Command) error {
	if ShortCircuitTLDR(ctx, cmd, "cache-purge", cachePurgeExamples) {
		return nil
	}
	if err := ArgCountValidator(cmd, 0, 0); err != nil {
		return err
	}

	if !cacheutil.Enabled() {
		fmt.Fprintln(stdout, "cache disabled")
		return nil
	}

	hours := int(cmd.Int("hours"))
	if !cmd.IsSet("hours") {
		hours, _ = config.GetInt("cache.clean", 24)
	}

	removed, err := cacheutil.Purge(hours)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "removed %d %s\n", removed, plural(removed, "entry", "entries"))
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// CacheCommandBuilder constructs the cli.Command for "cache".
func CacheCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "manage the toolman cache",
		Metadata: map[string]any{
			"meta": meta,
		},
		Commands: []*cli.Command{
			(&RowCommandBuilder{
				Name:      "ls",
				Usage:     "list cached artifacts",
				UsageText: "toolman cache ls [options]",
				Meta:      meta,
				Action:    CacheLsCommandAction,
			}).Build(),
			{
				Name:      "purge",
				Usage:     "remove cached artifacts older than --hours",
				UsageText: "toolman cache purge [--hours N]",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "hours",
						Usage: "age in hours past which entries are removed (default cache.clean or 24)",
					},
					tldrFlag,
				},
				Action: CachePurgeCommandAction,
			},
		},
	}
}
