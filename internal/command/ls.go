// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/toolman/fileio"
	"github.com/staranto/toolman/internal/meta"
	"github.com/staranto/toolman/internal/output"
)

var lsExamples = [][2]string{
	{"toolman ls", "artifacts in the current directory"},
	{"toolman ls -r runs --sort -bytes", "every artifact under runs, largest first"},
	{"toolman ls -r --deep -f 'channels>3' data", "arrays with more than three channels"},
	{"toolman ls -r --chop -a modified:mtime:t out", "shorten shared path prefixes, show local mtimes"},
}

// LsCommandAction lists the artifacts in a directory.
func LsCommandAction(ctx context.Context, cmd *cli.Command) error {
	runner := &RowActionRunner[ArtifactRow]{
		CommandName:  "ls",
		DefaultAttrs: []string{"path", "format", "size", "age", "!bytes", "!modified"},
		Examples:     lsExamples,
		MinArgs:      0,
		MaxArgs:      1,
		FetchFn: func(ctx context.Context, cmd *cli.Command) ([]ArtifactRow, error) {
			m := GetMeta(cmd)
			dir := "."
			if cmd.Args().Len() > 0 {
				dir = cmd.Args().First()
			}
			return listArtifacts(resolvePath(m, dir), lsOptions{
				recursive: cmd.Bool("recursive"),
				all:       cmd.Bool("all"),
				describe:  describeOpts{probe: cmd.Bool("deep"), digest: cmd.Bool("digest")},
			})
		},
		PostProcess: func(cmd *cli.Command) output.PostProcessor {
			if !cmd.Bool("chop") {
				return nil
			}
			return func(dataset []map[string]interface{}) error {
				chopPrefix(dataset, "path", "/")
				return nil
			}
		},
	}
	return runner.Run(ctx, cmd)
}

// LsCommandBuilder constructs the cli.Command for "ls".
func LsCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&RowCommandBuilder{
		Name:      "ls",
		Usage:     "list artifacts in a directory",
		UsageText: "toolman ls [DIR] [options]",
		Meta:      meta,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "all",
				Usage: "include files with unrecognized extensions",
			},
			&cli.BoolFlag{
				Name:  "chop",
				Usage: "chop common leading directories from paths",
				Sources: cli.NewValueSourceChain(
					yaml.YAML("ls.chop", altsrc.StringSourcer(meta.Config.Source)),
				),
			},
			&cli.BoolFlag{
				Name:  "deep",
				Usage: "probe dtype, shape and channels",
				Sources: cli.NewValueSourceChain(
					yaml.YAML("ls.deep", altsrc.StringSourcer(meta.Config.Source)),
				),
			},
			&cli.BoolFlag{
				Name:    "digest",
				Aliases: []string{"d"},
				Usage:   "compute a blake2b-256 content digest",
			},
			&cli.BoolFlag{
				Name:    "recursive",
				Aliases: []string{"r"},
				Usage:   "descend into subdirectories",
				Sources: cli.NewValueSourceChain(
					yaml.YAML("ls.recursive", altsrc.StringSourcer(meta.Config.Source)),
				),
			},
		},
		Action: LsCommandAction,
	}).Build()
}

type lsOptions struct {
	recursive bool
	all       bool
	describe  describeOpts
}

// listArtifacts returns a row per file under dir. Paths are relative to dir
// and slash separated. Hidden directories are skipped.
func listArtifacts(dir string, opts lsOptions) ([]ArtifactRow, error) {
	var rows []ArtifactRow
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == dir {
				return nil
			}
			if !opts.recursive || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if _, err := fileio.TagOf(path); err != nil && !opts.all {
			return nil
		}

		row, err := describeArtifact(path, opts.describe)
		if err != nil {
			if os.IsNotExist(err) {
				log.Debugf("ls: %s vanished", path)
				return nil
			}
			return err
		}
		if rel, err := filepath.Rel(dir, path); err == nil {
			row.Path = filepath.ToSlash(rel)
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// chopPrefix replaces the leading sep-delimited segments shared by at least
// half of the attribute values with "..". At least two segments must be
// shared before anything is chopped.
func chopPrefix(dataset []map[string]interface{}, attribute string, sep string) {
	if len(dataset) == 0 {
		return
	}

	// Collect all attribute values with their indices.
	type attributeEntry struct {
		idx   int
		value string
	}
	var attributeValues []attributeEntry
	for i, entry := range dataset {
		if val, ok := entry[attribute]; ok {
			if str, ok := val.(string); ok {
				attributeValues = append(attributeValues, attributeEntry{idx: i, value: str})
			}
		}
	}

	if len(attributeValues) == 0 {
		return
	}

	// Calculate the 50% threshold.
	threshold := (len(attributeValues) + 1) / 2

	// Split each value by sep and find common leading segments.
	type segmentedValue struct {
		idx      int
		value    string
		segments []string
	}
	var segmented []segmentedValue
	maxSegments := 0
	for _, av := range attributeValues {
		segs := strings.Split(av.value, sep)
		segmented = append(segmented, segmentedValue{idx: av.idx, value: av.value, segments: segs})
		if len(segs) > maxSegments {
			maxSegments = len(segs)
		}
	}

	// Find the longest common prefix of segments that appears in at least 50%.
	var commonSegments []string
	for segIdx := 0; segIdx < maxSegments; segIdx++ {
		// Count how many values have a segment at this position and what it is.
		segmentCounts := make(map[string]int)
		for _, sv := range segmented {
			if segIdx < len(sv.segments) {
				segmentCounts[sv.segments[segIdx]]++
			}
		}

		// Find the most common segment at this position. Ties go to the
		// lexically smaller segment so the result is stable.
		var bestSegment string
		var bestCount int
		for seg, count := range segmentCounts {
			if count > bestCount || (count == bestCount && seg < bestSegment) {
				bestSegment = seg
				bestCount = count
			}
		}

		// If this segment appears in at least 50% of values, add it to common.
		if bestCount >= threshold {
			commonSegments = append(commonSegments, bestSegment)
		} else {
			break // Stop if we can't maintain the 50% threshold.
		}
	}

	// If we have at least 2 common segments, strip them from matching entries.
	if len(commonSegments) >= 2 {
		prefixToRemove := strings.Join(commonSegments, sep) + sep
		for _, sv := range segmented {
			if strings.HasPrefix(sv.value, prefixToRemove) {
				dataset[sv.idx][attribute] = ".." + sv.value[len(prefixToRemove):]
			}
		}
	}
}
