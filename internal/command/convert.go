// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/toolman/fileio"
	"github.com/staranto/toolman/internal/config"
	"github.com/staranto/toolman/internal/meta"
	"github.com/staranto/toolman/ndarray"
)

var convertExamples = [][2]string{
	{"toolman convert mask.npy mask.png", "write an integer array as an image"},
	{"toolman convert frame.tif frame.npy", "store an image's pixels as an array"},
	{"toolman convert --quality 80 a.png a.jpg", "re-encode with a lower jpeg quality"},
	{"toolman convert --chw frame.png frame.npy", "store pixels channel-first"},
	{"toolman convert --path runs.0 log.json first.yaml", "keep only part of a json document"},
}

// ConvertCommandAction loads SRC and saves it to DST, letting both extensions
// pick their codecs.
func ConvertCommandAction(ctx context.Context, cmd *cli.Command) error {
	if ShortCircuitTLDR(ctx, cmd, "convert", convertExamples) {
		return nil
	}
	if err := ArgCountValidator(cmd, 2, 2); err != nil {
		return err
	}

	m := GetMeta(cmd)
	src := resolvePath(m, cmd.Args().Get(0))
	dst := resolvePath(m, cmd.Args().Get(1))

	var loadOpts []fileio.Option
	if p := cmd.String("path"); p != "" {
		loadOpts = append(loadOpts, fileio.WithJSONPath(p))
	}
	if cmd.Bool("indices") {
		loadOpts = append(loadOpts, fileio.WithImageMode(fileio.ImageNativeArray))
	}

	v, err := fileio.Load(src, loadOpts...)
	if err != nil {
		return err
	}

	if cmd.Bool("chw") || cmd.Bool("hwc") {
		if v, err = reorderChannels(v, cmd.Bool("hwc")); err != nil {
			return err
		}
	}

	quality := int(cmd.Int("quality"))
	if quality == 0 {
		quality, _ = config.GetInt("image.jpeg.quality", 95)
	}
	saveOpts := []fileio.Option{fileio.WithJPEGQuality(quality)}
	if indent := int(cmd.Int("indent")); indent > 0 {
		saveOpts = append(saveOpts, fileio.WithIndent("", strings.Repeat(" ", indent)))
	}

	if err := fileio.Save(dst, v, saveOpts...); err != nil {
		return fmt.Errorf("failed to convert %s: %w", src, err)
	}
	log.Infof("converted %s -> %s", src, dst)
	return nil
}

// reorderChannels moves the channel axis of a loaded array.
func reorderChannels(v any, toLast bool) (any, error) {
	switch a := v.(type) {
	case *ndarray.Array[uint8]:
		return a.ChangeChannelOrder(toLast)
	case *ndarray.Array[uint16]:
		return a.ChangeChannelOrder(toLast)
	case *ndarray.Array[int32]:
		return a.ChangeChannelOrder(toLast)
	case *ndarray.Array[int64]:
		return a.ChangeChannelOrder(toLast)
	case *ndarray.Array[float32]:
		return a.ChangeChannelOrder(toLast)
	case *ndarray.Array[float64]:
		return a.ChangeChannelOrder(toLast)
	}
	return nil, fmt.Errorf("%w: cannot reorder channels of %T", fileio.ErrWrongType, v)
}

// ConvertCommandBuilder constructs the cli.Command for "convert".
func ConvertCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "convert an artifact between formats",
		UsageText: "toolman convert SRC DST [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "chw",
				Usage: "move the channel axis first before saving",
			},
			&cli.BoolFlag{
				Name:  "hwc",
				Usage: "move the channel axis last before saving",
			},
			&cli.IntFlag{
				Name:  "indent",
				Usage: "indent json output by this many spaces",
			},
			&cli.BoolFlag{
				Name:  "indices",
				Usage: "load paletted images as their index plane",
			},
			&cli.StringFlag{
				Name:  "path",
				Usage: "gjson path selecting part of a json source",
			},
			&cli.IntFlag{
				Name:    "quality",
				Aliases: []string{"q"},
				Usage:   "jpeg quality (1-100)",
				Validator: func(q int) error {
					if q < 0 || q > 100 {
						return fmt.Errorf("quality must be between 1 and 100")
					}
					return nil
				},
			},
			tldrFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("chw") && cmd.Bool("hwc") {
				return fmt.Errorf("%w: --chw and --hwc are mutually exclusive", ErrUsage)
			}
			return ConvertCommandAction(ctx, cmd)
		},
	}
}
