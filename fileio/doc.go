// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

/*
Package fileio saves and loads values by file extension.

The extension (case-insensitive) selects a codec:

	.npy                  ndarray arrays, NumPy format
	.pkl .pickle .gob     any gob-encodable value
	.txt                  string or []string; loads []string
	.json                 any JSON value
	.yaml .yml            any YAML value
	.png .jpg .jpeg .tif .tiff .bmp .gif
	                      integer pixel arrays or image.Image

Any other extension fails with an error matching ErrUnsupportedFormat, on
both Save and Load. Save never creates the parent directory; use
MakeDirIfNotExist first.

Raster loads return a pixel array unless WithImageMode says otherwise.
Integer arrays wider than a byte save as 16-bit png and tiff images. The
8-bit formats (jpeg, bmp, gif) clamp samples to 255.

An untyped json Load decodes numbers as float64, so a saved map[string]int
comes back as map[string]any holding float64 values. Use LoadInto with a
typed destination to get the original types back, or WithJSONNumbers to
keep numbers as json.Number.
*/
package fileio
