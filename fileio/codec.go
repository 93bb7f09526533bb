// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fileio

import (
	"fmt"
	"io"
	"sync"
)

// Codec encodes and decodes one format. Encode returns an error wrapping
// ErrUnsupportedValue for values the format cannot represent. Decode errors
// are returned to the caller unchanged.
type Codec interface {
	Encode(w io.Writer, v any, o *Options) error
	Decode(r io.Reader, o *Options) (any, error)
}

// intoDecoder is implemented by codecs that can decode straight into a
// caller-supplied pointer.
type intoDecoder interface {
	DecodeInto(r io.Reader, ptr any, o *Options) error
}

var (
	registryMu sync.RWMutex
	registry   = map[FormatTag]Codec{}
)

// Register installs c as the codec for tag, replacing any existing one.
func Register(tag FormatTag, c Codec) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[tag] = c
}

func codecFor(tag FormatTag) (Codec, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := registry[tag]
	if !ok {
		return nil, fmt.Errorf("%w: no codec registered for %s", ErrUnsupportedFormat, tag)
	}
	return c, nil
}

func init() {
	Register(NPY, npyCodec{})
	Register(PKL, gobCodec{})
	Register(TXT, textCodec{})
	Register(JSON, jsonCodec{})
	Register(YAML, yamlCodec{})
	for _, tag := range []FormatTag{PNG, JPEG, TIFF, BMP, GIF} {
		Register(tag, imageCodec{tag: tag})
	}
}
