// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// toolman is the command line front end for the toolman artifact library. It
// wires the CLI, delegates to the library and internal packages, and serves
// as the entry point.
package main
