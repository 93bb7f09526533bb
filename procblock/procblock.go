// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package procblock memoizes a computation to a file on disk.
//
// A Block runs its producer once and saves the result at its artifact path;
// every later Run loads that file instead, whatever arguments it is given.
// The artifact's existence is the only validity check, so callers that change
// the producer or its inputs must Invalidate the block or pick a new path.
//
// Blocks do no locking. Two processes computing the same artifact at once
// both run the producer and the last writer wins.
package procblock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"

	"github.com/apex/log"

	"github.com/staranto/toolman/fileio"
	"github.com/staranto/toolman/internal/cacheutil"
	"github.com/staranto/toolman/ndarray"
)

var (
	// ErrTypeMismatch is returned when a stored artifact does not decode to the
	// block's value type.
	ErrTypeMismatch = errors.New("cached artifact has unexpected type")

	// ErrNoCacheDir is returned by InCache when caching is disabled or no cache
	// directory can be resolved.
	ErrNoCacheDir = errors.New("no cache directory available")
)

// Producer computes a value from its arguments.
type Producer[A, V any] func(args A) (V, error)

// Stats counts how a block's runs were served.
type Stats struct {
	Hits   int64
	Misses int64
}

// Block pairs a producer with the path its result is stored at.
type Block[A, V any] struct {
	fn    Producer[A, V]
	path  string
	store *fileio.Store
	opts  []fileio.Option

	hits   atomic.Int64
	misses atomic.Int64
}

// Option configures a Block.
type Option func(*config)

type config struct {
	store *fileio.Store
	opts  []fileio.Option
}

// WithStore makes the block save and load through s.
func WithStore(s *fileio.Store) Option {
	return func(c *config) { c.store = s }
}

// WithFileOptions forwards per-call options to every save and load.
func WithFileOptions(opts ...fileio.Option) Option {
	return func(c *config) { c.opts = append(c.opts, opts...) }
}

// New returns a block storing fn's result at path. The extension of path
// selects the format. The parent directory is not created.
func New[A, V any](fn Producer[A, V], path string, opts ...Option) *Block[A, V] {
	c := config{store: fileio.NewStore()}
	for _, opt := range opts {
		opt(&c)
	}
	return &Block[A, V]{fn: fn, path: path, store: c.store, opts: c.opts}
}

// InCache returns a block whose artifact lives at name beneath the toolman
// cache directory. Missing directories are created.
func InCache[A, V any](name string, fn Producer[A, V], opts ...Option) (*Block[A, V], error) {
	base, ok, err := cacheutil.EnsureBaseDir()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoCacheDir
	}

	path := filepath.Join(base, cacheutil.BlocksDir, filepath.FromSlash(name))
	if err := fileio.MakeDirIfNotExist(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("failed to create block directory: %w", err)
	}
	return New(fn, path, opts...), nil
}

// Path returns the artifact path.
func (b *Block[A, V]) Path() string {
	return b.path
}

// Exists reports whether the artifact is present.
func (b *Block[A, V]) Exists() bool {
	_, err := os.Stat(b.path)
	return err == nil
}

// Invalidate removes the artifact so the next Run computes afresh. A missing
// artifact is not an error.
func (b *Block[A, V]) Invalidate() error {
	if err := os.Remove(b.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	log.Debugf("procblock: invalidated %s", b.path)
	return nil
}

// Stats returns the hit and miss counts so far.
func (b *Block[A, V]) Stats() Stats {
	return Stats{Hits: b.hits.Load(), Misses: b.misses.Load()}
}

// load reads the artifact as a V. Formats that decode into a typed value do
// so directly; arrays are converted to V's element type when V is an
// *ndarray.Array.
func (b *Block[A, V]) load() (V, error) {
	var zero V
	if fileio.DecodesInto(b.path) {
		var v V
		err := b.store.LoadInto(b.path, &v, b.opts...)
		switch {
		case errors.Is(err, fileio.ErrWrongType):
			return zero, fmt.Errorf("%w: %s: %w", ErrTypeMismatch, b.path, err)
		case err != nil:
			return zero, err
		}
		return v, nil
	}

	raw, err := b.store.Load(b.path, b.opts...)
	if err != nil {
		return zero, err
	}
	if v, ok := raw.(V); ok {
		return v, nil
	}
	if t, ok := raw.(ndarray.Tensor); ok {
		if v, ok := asTensor[V](t); ok {
			return v, nil
		}
	}
	return zero, fmt.Errorf("%w: %s holds %T, want %v", ErrTypeMismatch, b.path, raw, reflect.TypeFor[V]())
}

// asTensor converts t when V is a concrete *ndarray.Array type.
func asTensor[V any](t ndarray.Tensor) (V, bool) {
	var v V
	switch p := any(&v).(type) {
	case **ndarray.Array[uint8]:
		*p = ndarray.As[uint8](t)
	case **ndarray.Array[int8]:
		*p = ndarray.As[int8](t)
	case **ndarray.Array[uint16]:
		*p = ndarray.As[uint16](t)
	case **ndarray.Array[int16]:
		*p = ndarray.As[int16](t)
	case **ndarray.Array[uint32]:
		*p = ndarray.As[uint32](t)
	case **ndarray.Array[int32]:
		*p = ndarray.As[int32](t)
	case **ndarray.Array[uint64]:
		*p = ndarray.As[uint64](t)
	case **ndarray.Array[int64]:
		*p = ndarray.As[int64](t)
	case **ndarray.Array[float32]:
		*p = ndarray.As[float32](t)
	case **ndarray.Array[float64]:
		*p = ndarray.As[float64](t)
	default:
		return v, false
	}
	return v, true
}

// Run returns the stored artifact when it exists, ignoring args. Otherwise it
// calls the producer, saves the result and returns it. A producer error is
// returned as is and nothing is written.
func (b *Block[A, V]) Run(args A) (V, error) {
	if b.Exists() {
		b.hits.Add(1)
		log.Debugf("procblock: cache hit %s", b.path)
		return b.load()
	}

	b.misses.Add(1)
	log.Debugf("procblock: cache miss %s", b.path)
	v, err := b.fn(args)
	if err != nil {
		var zero V
		return zero, err
	}
	if err := b.store.Save(b.path, v, b.opts...); err != nil {
		var zero V
		return zero, err
	}
	return v, nil
}
