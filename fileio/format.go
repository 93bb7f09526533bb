// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fileio

import (
	"path/filepath"
	"sort"
	"strings"
)

// FormatTag identifies the codec that handles a path.
type FormatTag string

const (
	NPY  FormatTag = "npy"
	PKL  FormatTag = "pkl"
	TXT  FormatTag = "txt"
	JSON FormatTag = "json"
	YAML FormatTag = "yaml"
	PNG  FormatTag = "png"
	JPEG FormatTag = "jpeg"
	TIFF FormatTag = "tiff"
	BMP  FormatTag = "bmp"
	GIF  FormatTag = "gif"
)

// extensions maps a lower-cased suffix onto its format tag.
var extensions = map[string]FormatTag{
	".npy":    NPY,
	".pkl":    PKL,
	".pickle": PKL,
	".gob":    PKL,
	".txt":    TXT,
	".json":   JSON,
	".yaml":   YAML,
	".yml":    YAML,
	".png":    PNG,
	".jpg":    JPEG,
	".jpeg":   JPEG,
	".tif":    TIFF,
	".tiff":   TIFF,
	".bmp":    BMP,
	".gif":    GIF,
}

// IsImage reports whether t is a raster image format.
func (t FormatTag) IsImage() bool {
	switch t {
	case PNG, JPEG, TIFF, BMP, GIF:
		return true
	}
	return false
}

func (t FormatTag) String() string {
	return string(t)
}

// TagOf infers the format tag from the path's extension, ignoring case.
func TagOf(path string) (FormatTag, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if tag, ok := extensions[ext]; ok {
		return tag, nil
	}
	return "", &UnsupportedFormatError{Path: path, Ext: ext}
}

// Extensions returns the recognised suffixes in sorted order.
func Extensions() []string {
	exts := make([]string, 0, len(extensions))
	for e := range extensions {
		exts = append(exts, e)
	}
	sort.Strings(exts)
	return exts
}
