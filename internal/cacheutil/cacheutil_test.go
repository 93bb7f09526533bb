// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package cacheutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDir(t *testing.T) {
	t.Setenv("TOOLMAN_CACHE_DIR", "/tmp/toolman-test")
	dir, ok := Dir()
	assert.True(t, ok)
	assert.Equal(t, "/tmp/toolman-test", dir)
}

func TestEnabled(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{value: "", want: true},
		{value: "1", want: true},
		{value: "true", want: true},
		{value: "0", want: false},
		{value: "false", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("TOOLMAN_CACHE", tt.value)
			assert.Equal(t, tt.want, Enabled())
		})
	}
}

func TestEnsureBaseDir(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "cache")
	t.Setenv("TOOLMAN_CACHE_DIR", base)

	got, ok, err := EnsureBaseDir()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, base, got)
	assert.DirExists(t, base)

	t.Setenv("TOOLMAN_CACHE", "0")
	_, ok, err = EnsureBaseDir()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadWrite(t *testing.T) {
	t.Setenv("TOOLMAN_CACHE_DIR", t.TempDir())

	_, ok := Read([]string{DigestsDir}, "k1")
	assert.False(t, ok)

	require.NoError(t, Write([]string{DigestsDir}, "k1", []byte("abc\n")))

	e, ok := Read([]string{DigestsDir}, "k1")
	require.True(t, ok)
	assert.Equal(t, "k1", e.Key)
	assert.Equal(t, []byte("abc"), e.Data)
	assert.Equal(t, encodeKey("k1"), filepath.Base(e.Path))

	p, exists := EntryPath([]string{DigestsDir}, "k1")
	assert.True(t, exists)
	assert.Equal(t, e.Path, p)

	t.Setenv("TOOLMAN_CACHE", "false")
	_, ok = Read([]string{DigestsDir}, "k1")
	assert.False(t, ok)
}

func TestListAndPurge(t *testing.T) {
	base := t.TempDir()
	t.Setenv("TOOLMAN_CACHE_DIR", base)

	old := filepath.Join(base, BlocksDir, "old.npy")
	fresh := filepath.Join(base, BlocksDir, "fresh.npy")
	require.NoError(t, os.MkdirAll(filepath.Dir(old), 0o755))
	require.NoError(t, os.WriteFile(old, []byte("o"), 0o600))
	require.NoError(t, os.WriteFile(fresh, []byte("ff"), 0o600))
	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, stale, stale))

	entries, err := List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, old, entries[0].Path)
	assert.Equal(t, int64(2), entries[1].Size)

	n, err := Purge(0)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = Purge(24)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
}

func TestListMissingBase(t *testing.T) {
	t.Setenv("TOOLMAN_CACHE_DIR", filepath.Join(t.TempDir(), "absent"))
	entries, err := List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}
