// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/toolman/internal/config"
	"github.com/staranto/toolman/internal/meta"
)

// InitApp builds the root command for the given argv.
func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	sd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	// args[1] is the subcommand and also the namespace used for config
	// lookups. It could be -h/--help, so ignore it if it looks like a flag.
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}
	config.Config.Namespace = ns

	cfg, _ := config.Load()
	m := meta.Meta{
		Args:        args,
		Config:      cfg,
		Context:     ctx,
		StartingDir: sd,
	}

	app := &cli.Command{
		Name:  "toolman",
		Usage: "inspect, convert and query research artifacts",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "toolman version info",
				HideDefault: true,
			},
		},
	}

	app.Commands = append(app.Commands,
		CacheCommandBuilder(app, m),
		CompletionCommandBuilder(app, m),
		ConvertCommandBuilder(app, m),
		DiffCommandBuilder(app, m),
		InspectCommandBuilder(app, m),
		LsCommandBuilder(app, m),
		QueryCommandBuilder(app, m),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sortFlags(cmd)
	}

	return app, nil
}

func sortFlags(cmd *cli.Command) {
	sort.Slice(cmd.Flags, func(i, j int) bool {
		return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
	})
	for _, sub := range cmd.Commands {
		sortFlags(sub)
	}
}
