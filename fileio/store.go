// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fileio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/apex/log"

	"github.com/staranto/toolman/ndarray"
)

// Store saves and loads values, choosing the codec from the file extension.
// Its defaults apply to every call and may be overridden per call.
type Store struct {
	defaults Options
}

// NewStore returns a Store whose calls start from the given options.
func NewStore(opts ...Option) *Store {
	s := &Store{defaults: Options{JPEGQuality: 95}}
	for _, opt := range opts {
		opt(&s.defaults)
	}
	return s
}

var defaultStore = NewStore()

// Save writes v to path using the codec selected by the extension. The
// parent directory must already exist. The value is fully encoded before the
// file is created, so a value the codec rejects leaves nothing on disk.
func (s *Store) Save(path string, v any, opts ...Option) error {
	tag, err := TagOf(path)
	if err != nil {
		return err
	}
	codec, err := codecFor(tag)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := codec.Encode(&buf, v, s.defaults.with(opts)); err != nil {
		return err
	}

	log.Debugf("fileio: save %s (%s, %d bytes)", path, tag, buf.Len())
	return os.WriteFile(path, buf.Bytes(), 0o644) //nolint:mnd
}

// Load reads path using the codec selected by the extension.
func (s *Store) Load(path string, opts ...Option) (any, error) {
	tag, err := TagOf(path)
	if err != nil {
		return nil, err
	}
	codec, err := codecFor(tag)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	log.Debugf("fileio: load %s (%s)", path, tag)
	return codec.Decode(bufio.NewReader(f), s.defaults.with(opts))
}

// DecodesInto reports whether the format selected by path supports LoadInto.
func DecodesInto(path string) bool {
	tag, err := TagOf(path)
	if err != nil {
		return false
	}
	codec, err := codecFor(tag)
	if err != nil {
		return false
	}
	_, ok := codec.(intoDecoder)
	return ok
}

// LoadInto decodes path into ptr. Only json, yaml and pkl support it.
func (s *Store) LoadInto(path string, ptr any, opts ...Option) error {
	tag, err := TagOf(path)
	if err != nil {
		return err
	}
	codec, err := codecFor(tag)
	if err != nil {
		return err
	}
	into, ok := codec.(intoDecoder)
	if !ok {
		return fmt.Errorf("%w: %s cannot decode into %T", ErrWrongType, tag, ptr)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	log.Debugf("fileio: load %s into %T", path, ptr)
	return into.DecodeInto(bufio.NewReader(f), ptr, s.defaults.with(opts))
}

// Save writes v to path with the package default store.
func Save(path string, v any, opts ...Option) error {
	return defaultStore.Save(path, v, opts...)
}

// Load reads path with the package default store.
func Load(path string, opts ...Option) (any, error) {
	return defaultStore.Load(path, opts...)
}

// LoadInto decodes path into ptr with the package default store.
func LoadInto(path string, ptr any, opts ...Option) error {
	return defaultStore.LoadInto(path, ptr, opts...)
}

// LoadArray loads path and asserts the result is an *ndarray.Array[T].
func LoadArray[T ndarray.Number](path string, opts ...Option) (*ndarray.Array[T], error) {
	v, err := Load(path, opts...)
	if err != nil {
		return nil, err
	}
	a, ok := v.(*ndarray.Array[T])
	if !ok {
		return nil, fmt.Errorf("%w: %s holds %s", ErrWrongType, path, describe(v))
	}
	return a, nil
}

// LoadImage loads a raster file as an image.Image.
func LoadImage(path string) (image.Image, error) {
	v, err := Load(path, WithImageMode(ImageNative))
	if err != nil {
		return nil, err
	}
	img, ok := v.(image.Image)
	if !ok {
		return nil, fmt.Errorf("%w: %s holds %s", ErrWrongType, path, describe(v))
	}
	return img, nil
}

// LoadLines loads a text file as its lines.
func LoadLines(path string) ([]string, error) {
	v, err := Load(path)
	if err != nil {
		return nil, err
	}
	lines, ok := v.([]string)
	if !ok {
		return nil, fmt.Errorf("%w: %s holds %s", ErrWrongType, path, describe(v))
	}
	return lines, nil
}

// MakeDirIfNotExist creates dir and any missing parents. An existing directory
// is not an error.
func MakeDirIfNotExist(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		return nil
	case err == nil:
		return fmt.Errorf("%s exists and is not a directory", dir)
	case !errors.Is(err, os.ErrNotExist):
		return err
	}
	return os.MkdirAll(dir, 0o755) //nolint:mnd
}

func describe(v any) string {
	if t, ok := v.(ndarray.Tensor); ok {
		return fmt.Sprintf("%s array %v", t.DType(), t.Dims())
	}
	return fmt.Sprintf("%T", v)
}
