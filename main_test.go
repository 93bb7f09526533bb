// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/toolman/internal/config"
)

func TestMangleArguments(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "toolman.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`ls:
  defaults:
    - -r
  big:
    - --sort -bytes
    - -f bytes>1MB
`), 0o600))
	t.Setenv("TOOLMAN_CFG", cfgPath)
	config.Config = config.Type{}
	t.Cleanup(func() { config.Config = config.Type{} })

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "defaults inserted",
			args: []string{"toolman", "ls", "data"},
			want: []string{"toolman", "ls", "-r", "data"},
		},
		{
			name: "named set replaces defaults",
			args: []string{"toolman", "ls", "@big", "data"},
			want: []string{"toolman", "ls", "--sort", "-bytes", "-f", "bytes>1MB", "data"},
		},
		{
			name: "set position is kept",
			args: []string{"toolman", "ls", "data", "@big"},
			want: []string{"toolman", "ls", "data", "--sort", "-bytes", "-f", "bytes>1MB"},
		},
		{
			name: "no sets for command",
			args: []string{"toolman", "inspect", "a.npy"},
			want: []string{"toolman", "inspect", "a.npy"},
		},
		{
			name: "unknown set",
			args: []string{"toolman", "ls", "@nope"},
			want: []string{"toolman", "ls"},
		},
		{
			name: "help",
			args: []string{"toolman", "ls", "data", "-h"},
			want: []string{"toolman", "ls", "--help"},
		},
		{
			name: "root flag",
			args: []string{"toolman", "--version"},
			want: []string{"toolman", "--version"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mangleArguments(tt.args))
		})
	}
}
