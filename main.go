// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/toolman/internal/cacheutil"
	"github.com/staranto/toolman/internal/command"
	"github.com/staranto/toolman/internal/config"
	mylog "github.com/staranto/toolman/internal/log"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var ctx = context.Background()

func main() {
	os.Exit(realMain())
}

func realMain() int {
	mylog.InitLogger()

	args := os.Args

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	} else {
		args = mangleArguments(args)
	}

	// Short-circuit --version/-v.
	for _, a := range args {
		if a == "--version" || a == "-v" {
			fmt.Println(version)
			return 0
		}
	}

	// Best-effort: pre-create cache directory when caching is enabled.
	if _, ok, err := cacheutil.EnsureBaseDir(); err != nil && ok {
		// Non-fatal: print to stderr and continue.
		fmt.Fprintln(os.Stderr, err)
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	return 0
}

// mangleArguments expands an argument set from the config file into the
// command line. "toolman ls @big data" inserts the entries of ls.big where
// @big was; without an @set, ls.defaults is inserted after the command.
func mangleArguments(args []string) []string {
	// Short-circuit for --help/-h. If help is requested, just keep the
	// executable and command and add --help flag.
	for _, a := range args {
		if a == "--help" || a == "-h" {
			return append(append([]string{}, args[:2]...), "--help")
		}
	}

	// Flags ahead of the command (e.g. --version) get no set.
	if strings.HasPrefix(args[1], "-") {
		return args
	}

	args = append([]string{}, args...)
	idx := 2
	set := "defaults"

	// See if there is a @set specified. If so, that becomes our insertion point
	// and the @set entry is removed from args.
	for i, a := range args[idx:] {
		if strings.HasPrefix(a, "@") && len(a) > 1 {
			set = a[1:]
			idx += i
			args = append(args[:idx], args[idx+1:]...)
			break
		}
	}

	setArgs, _ := config.GetStringSlice(args[1] + "." + set)
	for _, arg := range setArgs {
		parts := strings.Fields(arg)
		args = append(args[:idx], append(parts, args[idx:]...)...)
		idx += len(parts)
	}

	log.Debugf("idx=%d, set=%s, args=%v", idx, set, args)
	return args
}
