// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"
	"golang.org/x/crypto/blake2b"

	"github.com/staranto/toolman/fileio"
	"github.com/staranto/toolman/imgutil"
	"github.com/staranto/toolman/internal/cacheutil"
	"github.com/staranto/toolman/internal/meta"
)

// ArtifactRow is the row emitted by inspect and ls.
type ArtifactRow struct {
	Path     string `json:"path" attr:"attr,path"`
	Format   string `json:"format" attr:"attr,format"`
	DType    string `json:"dtype,omitempty" attr:"attr,dtype"`
	Shape    []int  `json:"shape,omitempty" attr:"attr,shape"`
	Channels int    `json:"channels,omitempty" attr:"attr,channels"`
	Bytes    int64  `json:"bytes" attr:"attr,bytes"`
	Size     string `json:"size" attr:"attr,size,human"`
	Modified string `json:"modified" attr:"attr,modified,rfc3339"`
	Age      string `json:"age" attr:"attr,age"`
	Digest   string `json:"digest,omitempty" attr:"attr,digest,blake2b-256"`
	Error    string `json:"error,omitempty" attr:"attr,error"`
}

type describeOpts struct {
	probe  bool
	digest bool
}

var inspectExamples = [][2]string{
	{"toolman inspect scores.npy", "dtype, shape and channel count of an array"},
	{"toolman inspect --digest *.png", "include a content digest for each image"},
	{"toolman inspect -o json frame.tif", "emit the row as json"},
	{"toolman inspect -a '*::u,modified' a.npy", "upper case every column and add the mtime"},
}

// InspectCommandAction emits one row per path argument.
func InspectCommandAction(ctx context.Context, cmd *cli.Command) error {
	runner := &RowActionRunner[ArtifactRow]{
		CommandName:  "inspect",
		DefaultAttrs: []string{"path", "format", "dtype", "shape", "channels", "size", "!bytes", "digest", "error"},
		Examples:     inspectExamples,
		MinArgs:      1,
		MaxArgs:      -1,
		FetchFn: func(ctx context.Context, cmd *cli.Command) ([]ArtifactRow, error) {
			m := GetMeta(cmd)
			opts := describeOpts{probe: true, digest: cmd.Bool("digest")}

			rows := make([]ArtifactRow, 0, cmd.Args().Len())
			for _, arg := range cmd.Args().Slice() {
				row, err := describeArtifact(resolvePath(m, arg), opts)
				if err != nil {
					return nil, err
				}
				row.Path = arg
				rows = append(rows, row)
			}
			return rows, nil
		},
	}
	return runner.Run(ctx, cmd)
}

// InspectCommandBuilder constructs the cli.Command for "inspect".
func InspectCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&RowCommandBuilder{
		Name:      "inspect",
		Usage:     "describe stored artifacts",
		UsageText: "toolman inspect PATH... [options]",
		Meta:      meta,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "digest",
				Aliases: []string{"d"},
				Usage:   "compute a blake2b-256 content digest",
				Sources: cli.NewValueSourceChain(
					yaml.YAML("inspect.digest", altsrc.StringSourcer(meta.Config.Source)),
				),
			},
		},
		Action: InspectCommandAction,
	}).Build()
}

// describeArtifact builds the row for a single file. A missing file is an
// error; a file that cannot be probed gets its Error column set instead.
func describeArtifact(path string, opts describeOpts) (ArtifactRow, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ArtifactRow{}, err
	}
	if info.IsDir() {
		return ArtifactRow{}, fmt.Errorf("%s is a directory", path)
	}

	row := ArtifactRow{
		Path:     path,
		Bytes:    info.Size(),
		Size:     humanize.Bytes(uint64(info.Size())),
		Modified: info.ModTime().UTC().Format(time.RFC3339),
		Age:      humanize.Time(info.ModTime()),
	}

	tag, err := fileio.TagOf(path)
	if err != nil {
		row.Format = "-"
		return row, nil
	}
	row.Format = tag.String()

	if opts.probe && (tag == fileio.NPY || tag == fileio.PKL || tag.IsImage()) {
		h, err := imgutil.Probe(path)
		switch {
		case err == nil:
			row.DType = h.DType.Name()
			row.Shape = h.Shape
			if n, err := imgutil.ChannelCountOf(h.Shape); err == nil {
				row.Channels = n
			}
		case errors.Is(err, fileio.ErrWrongType):
			log.Debugf("inspect: %s holds no array", path)
		default:
			row.Error = err.Error()
		}
	}

	if opts.digest {
		d, err := fileDigest(path, info)
		if err != nil {
			return row, err
		}
		row.Digest = d
	}

	return row, nil
}

// fileDigest returns the hex blake2b-256 of a file. Results are cached by
// absolute path, size and mtime so unchanged files are not re-read.
func fileDigest(path string, info os.FileInfo) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s|%d|%d", abs, info.Size(), info.ModTime().UnixNano())
	subdirs := []string{cacheutil.DigestsDir}

	if e, ok := cacheutil.Read(subdirs, key); ok && len(e.Data) > 0 {
		log.Debugf("inspect: digest cache hit for %s", path)
		return string(e.Data), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to digest %s: %w", path, err)
	}
	sum := hex.EncodeToString(h.Sum(nil))

	if err := cacheutil.Write(subdirs, key, []byte(sum)); err != nil {
		log.WithError(err).Warn("failed to cache digest")
	}
	return sum, nil
}
