// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fileio

// ImageMode selects which representation a raster Load returns.
type ImageMode int

const (
	// ImagePixels returns an *ndarray.Array[uint8] (uint16 for 16-bit sources).
	ImagePixels ImageMode = iota
	// ImageNative returns the decoded image.Image.
	ImageNative
	// ImageNativeArray decodes to image.Image and converts that object to an
	// array.
	ImageNativeArray
)

func (m ImageMode) String() string {
	switch m {
	case ImageNative:
		return "native"
	case ImageNativeArray:
		return "native-array"
	}
	return "pixels"
}

// Options carries per-call codec settings. Codecs ignore fields that do not
// apply to them.
type Options struct {
	ImageMode   ImageMode
	JPEGQuality int
	JSONPrefix  string
	JSONIndent  string
	// JSONPath, when set, loads only the matching subtree of a json document.
	JSONPath string
	// JSONNumbers makes an untyped json load return json.Number instead of
	// float64.
	JSONNumbers bool
}

// Option customizes a Save or Load call.
type Option func(*Options)

// WithImageMode selects the raster load representation.
func WithImageMode(m ImageMode) Option {
	return func(o *Options) { o.ImageMode = m }
}

// WithJPEGQuality sets the JPEG encoder quality (1..100).
func WithJPEGQuality(q int) Option {
	return func(o *Options) { o.JPEGQuality = q }
}

// WithIndent makes the json codec write indented output.
func WithIndent(prefix, indent string) Option {
	return func(o *Options) {
		o.JSONPrefix = prefix
		o.JSONIndent = indent
	}
}

// WithJSONPath limits a json load to the subtree at the given gjson path.
func WithJSONPath(path string) Option {
	return func(o *Options) { o.JSONPath = path }
}

// WithJSONNumbers makes json loads keep numbers as json.Number.
func WithJSONNumbers() Option {
	return func(o *Options) { o.JSONNumbers = true }
}

func (o Options) with(opts []Option) *Options {
	for _, opt := range opts {
		opt(&o)
	}
	return &o
}
