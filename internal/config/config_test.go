// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestConfig sets TOOLMAN_CFG to point to a test config file.
// Returns cleanup function that should be deferred.
func setupTestConfig(t *testing.T, testdataFile string) (cleanup func()) {
	t.Helper()

	configPath := filepath.Join("testdata", testdataFile)
	absPath, err := filepath.Abs(configPath)
	assert.NoError(t, err, "failed to get absolute path for test config")

	t.Setenv("TOOLMAN_CFG", absPath)

	// Reset the global Config to force reload
	Config = Type{}

	return func() {
		Config = Type{}
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		testFile  string
		wantErr   bool
		checkFunc func(*testing.T, Type)
	}{
		{
			name:     "simple string values",
			testFile: "simple.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.NotEmpty(t, cfg.Source)
				assert.Equal(t, "json", cfg.Data["output"])
				assert.Equal(t, "/var/tmp/toolman", cfg.Data["cache_dir"])
			},
		},
		{
			name:     "nested structure",
			testFile: "nested.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				image, ok := cfg.Data["image"].(map[string]interface{})
				require.True(t, ok, "image should be a map")
				jpeg, ok := image["jpeg"].(map[string]interface{})
				require.True(t, ok, "jpeg should be a map")
				assert.Equal(t, 90, jpeg["quality"])
			},
		},
		{
			name:     "mixed types",
			testFile: "mixed-types.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.Equal(t, "experiment-7", cfg.Data["name"])
				assert.Equal(t, 1, cfg.Data["version"])
				assert.Equal(t, true, cfg.Data["titles"])
				assert.Equal(t, 30.5, cfg.Data["threshold"])
				tags, ok := cfg.Data["tags"].([]interface{})
				assert.True(t, ok)
				assert.Len(t, tags, 2)
			},
		},
		{
			name:     "empty file",
			testFile: "empty.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.NotEmpty(t, cfg.Source, "should have a source path")
				assert.Empty(t, cfg.Data)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupTestConfig(t, tt.testFile)
			defer cleanup()

			cfg, err := Load()

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			if tt.checkFunc != nil {
				tt.checkFunc(t, cfg)
			}
		})
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	t.Setenv("TOOLMAN_CFG", "")
	Config = Type{}

	cfg, err := Load(filepath.Join("testdata", "simple.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Data["output"])
}

func TestLoad_Malformed(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "toolman.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("a: [1, 2\n"), 0o600))
	t.Setenv("TOOLMAN_CFG", bad)
	Config = Type{}

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestLoad_NoConfigFile(t *testing.T) {
	t.Setenv("TOOLMAN_CFG", "/nonexistent/path/toolman.yaml")
	Config = Type{}

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
	assert.Empty(t, Path())
}

func TestLoad_TOOLMAN_CFG_IsDirectory(t *testing.T) {
	t.Setenv("TOOLMAN_CFG", "testdata")
	Config = Type{}

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "points to a directory")
}

func TestLoad_StandardLocations(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, FileName), []byte("output: raw\n"), 0o600))

	t.Setenv("TOOLMAN_CFG", "")
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("APPDATA", "")
	t.Setenv("HOME", home)
	Config = Type{}

	assert.Equal(t, filepath.Join(home, FileName), Path())
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "raw", cfg.Data["output"])
}

func TestGetString(t *testing.T) {
	tests := []struct {
		name         string
		testFile     string
		key          string
		defaultValue []string
		want         string
		wantErr      bool
	}{
		{
			name:     "simple string value",
			testFile: "simple.yaml",
			key:      "output",
			want:     "json",
		},
		{
			name:     "nested string value",
			testFile: "nested.yaml",
			key:      "image.png.format",
			want:     "png",
		},
		{
			name:         "missing key with default",
			testFile:     "simple.yaml",
			key:          "missing",
			defaultValue: []string{"default-value"},
			want:         "default-value",
		},
		{
			name:     "missing key without default",
			testFile: "simple.yaml",
			key:      "missing",
			wantErr:  true,
		},
		{
			name:     "non-string value",
			testFile: "mixed-types.yaml",
			key:      "version",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupTestConfig(t, tt.testFile)
			defer cleanup()

			_, _ = Load()

			got, err := GetString(tt.key, tt.defaultValue...)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetInt(t *testing.T) {
	tests := []struct {
		name         string
		testFile     string
		key          string
		defaultValue []int
		want         int
		wantErr      bool
	}{
		{
			name:     "int value",
			testFile: "mixed-types.yaml",
			key:      "version",
			want:     1,
		},
		{
			name:     "float value converted to int",
			testFile: "mixed-types.yaml",
			key:      "threshold",
			want:     30,
		},
		{
			name:     "nested int value",
			testFile: "nested.yaml",
			key:      "cache.clean",
			want:     24,
		},
		{
			name:         "missing key with default",
			testFile:     "simple.yaml",
			key:          "missing",
			defaultValue: []int{60},
			want:         60,
		},
		{
			name:     "missing key without default",
			testFile: "simple.yaml",
			key:      "missing",
			wantErr:  true,
		},
		{
			name:     "non-int value",
			testFile: "simple.yaml",
			key:      "output",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupTestConfig(t, tt.testFile)
			defer cleanup()

			_, _ = Load()

			got, err := GetInt(tt.key, tt.defaultValue...)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetBool(t *testing.T) {
	cleanup := setupTestConfig(t, "mixed-types.yaml")
	defer cleanup()

	got, err := GetBool("titles")
	require.NoError(t, err)
	assert.True(t, got)

	got, err = GetBool("missing", true)
	require.NoError(t, err)
	assert.True(t, got)

	_, err = GetBool("name")
	assert.Error(t, err)

	_, err = GetBool("missing")
	assert.Error(t, err)
}

func TestConfig_GetWithNamespace(t *testing.T) {
	cleanup := setupTestConfig(t, "nested.yaml")
	defer cleanup()

	_, err := Load()
	assert.NoError(t, err)

	Config.Namespace = "image.jpeg"
	val, err := Config.get("quality")
	assert.NoError(t, err)
	assert.Equal(t, 90, val)

	Config.Namespace = "image.png"
	val, err = Config.get("quality")
	assert.NoError(t, err)
	assert.Equal(t, 100, val)

	// Falls back to the bare key outside the namespace.
	val, err = Config.get("cache.clean")
	assert.NoError(t, err)
	assert.Equal(t, 24, val)
}

func TestConfig_GetNestedPath(t *testing.T) {
	cleanup := setupTestConfig(t, "deep-nested.yaml")
	defer cleanup()

	_, err := Load()
	assert.NoError(t, err)

	val, err := Config.get("level1.level2.level3.value")
	assert.NoError(t, err)
	assert.Equal(t, "deep-value", val)
}

func TestConfig_LazyLoad(t *testing.T) {
	cleanup := setupTestConfig(t, "simple.yaml")
	defer cleanup()

	// GetString loads on first use.
	val, err := GetString("output")
	assert.NoError(t, err)
	assert.Equal(t, "json", val)
	assert.NotEmpty(t, Config.Source, "Config should be loaded")
}

func TestGetString_NamespaceFallback(t *testing.T) {
	cleanup := setupTestConfig(t, "namespace.yaml")
	defer cleanup()

	_, err := Load()
	assert.NoError(t, err)

	Config.Namespace = "inspect"
	val, err := GetString("output")
	assert.NoError(t, err)
	assert.Equal(t, "yaml", val)

	Config.Namespace = "ls"
	val, err = GetString("output")
	assert.NoError(t, err)
	assert.Equal(t, "text", val)

	val, err = GetString("sort")
	assert.NoError(t, err)
	assert.Equal(t, "-size", val)

	_, err = GetString("nonexistent")
	assert.Error(t, err)
}

func TestGetStringSlice(t *testing.T) {
	cleanup := setupTestConfig(t, "mixed-types.yaml")
	defer cleanup()

	got, err := GetStringSlice("tags")
	require.NoError(t, err)
	assert.Equal(t, []string{"seg", "unet"}, got)

	got, err = GetStringSlice("name")
	require.NoError(t, err)
	assert.Equal(t, []string{"experiment-7"}, got)

	got, err = GetStringSlice("missing", []string{"-r"})
	require.NoError(t, err)
	assert.Equal(t, []string{"-r"}, got)

	_, err = GetStringSlice("version")
	assert.Error(t, err)

	_, err = GetStringSlice("missing")
	assert.Error(t, err)
}
