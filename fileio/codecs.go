// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fileio

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"reflect"
	"strings"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/staranto/toolman/internal/npy"
	"github.com/staranto/toolman/internal/raster"
	"github.com/staranto/toolman/ndarray"
)

// npyCodec handles .npy arrays.
type npyCodec struct{}

func (npyCodec) Encode(w io.Writer, v any, _ *Options) error {
	t, ok := v.(ndarray.Tensor)
	if !ok {
		return unsupportedValue(NPY, v)
	}
	return npy.Write(w, t)
}

func (npyCodec) Decode(r io.Reader, _ *Options) (any, error) {
	return npy.Read(r)
}

// gobCodec handles .pkl/.pickle/.gob. Values travel inside an envelope so any
// registered concrete type round-trips through an interface.
type gobCodec struct{}

type envelope struct {
	Value any
}

func init() {
	gob.Register(&ndarray.Array[uint8]{})
	gob.Register(&ndarray.Array[int8]{})
	gob.Register(&ndarray.Array[uint16]{})
	gob.Register(&ndarray.Array[int16]{})
	gob.Register(&ndarray.Array[uint32]{})
	gob.Register(&ndarray.Array[int32]{})
	gob.Register(&ndarray.Array[uint64]{})
	gob.Register(&ndarray.Array[int64]{})
	gob.Register(&ndarray.Array[float32]{})
	gob.Register(&ndarray.Array[float64]{})
	gob.Register(map[string]any{})
	gob.Register([]any{})
}

// register makes v's concrete type known to gob. A conflicting registration
// is logged and left to surface as an encode error.
func register(v any) {
	if v == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Debugf("gob register %T: %v", v, r)
		}
	}()
	gob.Register(v)
}

func (gobCodec) Encode(w io.Writer, v any, _ *Options) error {
	register(v)
	if err := gob.NewEncoder(w).Encode(envelope{Value: v}); err != nil {
		return fmt.Errorf("%w %s: %w", ErrUnsupportedValue, PKL, err)
	}
	return nil
}

func (gobCodec) Decode(r io.Reader, _ *Options) (any, error) {
	var env envelope
	if err := gob.NewDecoder(r).Decode(&env); err != nil {
		return nil, err
	}
	return env.Value, nil
}

func (c gobCodec) DecodeInto(r io.Reader, ptr any, o *Options) error {
	v, err := c.Decode(r, o)
	if err != nil {
		return err
	}
	dst := reflect.ValueOf(ptr)
	if dst.Kind() != reflect.Pointer || dst.IsNil() {
		return fmt.Errorf("%w: need a non-nil pointer, got %T", ErrWrongType, ptr)
	}
	if v == nil {
		dst.Elem().SetZero()
		return nil
	}
	src := reflect.ValueOf(v)
	switch {
	case src.Type().AssignableTo(dst.Elem().Type()):
		dst.Elem().Set(src)
	case src.Kind() == reflect.Pointer && src.Elem().Type().AssignableTo(dst.Elem().Type()):
		dst.Elem().Set(src.Elem())
	default:
		return fmt.Errorf("%w: %T into %T", ErrWrongType, v, ptr)
	}
	return nil
}

// textCodec handles .txt as a sequence of lines.
type textCodec struct{}

func (textCodec) Encode(w io.Writer, v any, _ *Options) error {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case []string:
		var sb strings.Builder
		for _, line := range t {
			sb.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteByte('\n')
			}
		}
		s = sb.String()
	case fmt.Stringer:
		s = t.String()
	default:
		return unsupportedValue(TXT, v)
	}
	_, err := io.WriteString(w, s)
	return err
}

// Decode returns the file's lines without their terminators. A file that
// ends in a newline does not produce a trailing empty line.
func (textCodec) Decode(r io.Reader, _ *Options) (any, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return splitLines(string(b)), nil
}

func splitLines(s string) []string {
	if s == "" {
		return []string{}
	}
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// jsonCodec handles .json.
type jsonCodec struct{}

func (jsonCodec) Encode(w io.Writer, v any, o *Options) error {
	var (
		b   []byte
		err error
	)
	if o.JSONIndent != "" || o.JSONPrefix != "" {
		b, err = json.MarshalIndent(v, o.JSONPrefix, o.JSONIndent)
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrUnsupportedValue, JSON, err)
	}
	_, err = w.Write(b)
	return err
}

func (c jsonCodec) Decode(r io.Reader, o *Options) (any, error) {
	var v any
	if err := c.DecodeInto(r, &v, o); err != nil {
		return nil, err
	}
	return v, nil
}

func (jsonCodec) DecodeInto(r io.Reader, ptr any, o *Options) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if o.JSONPath == "" {
		return unmarshalJSON(b, ptr, o)
	}

	// gjson does not report syntax errors, so let encoding/json describe them.
	if !gjson.ValidBytes(b) {
		var discard any
		return json.Unmarshal(b, &discard)
	}
	res := gjson.GetBytes(b, o.JSONPath)
	if !res.Exists() {
		return fmt.Errorf("%w: %s", ErrNoMatch, o.JSONPath)
	}
	return unmarshalJSON([]byte(res.Raw), ptr, o)
}

func unmarshalJSON(b []byte, ptr any, o *Options) error {
	if !o.JSONNumbers {
		return json.Unmarshal(b, ptr)
	}
	d := json.NewDecoder(bytes.NewReader(b))
	d.UseNumber()
	return d.Decode(ptr)
}

// yamlCodec handles .yaml/.yml.
type yamlCodec struct{}

func (yamlCodec) Encode(w io.Writer, v any, _ *Options) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2) //nolint:mnd
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("%w %s: %w", ErrUnsupportedValue, YAML, err)
	}
	return enc.Close()
}

func (c yamlCodec) Decode(r io.Reader, o *Options) (any, error) {
	var v any
	if err := c.DecodeInto(r, &v, o); err != nil {
		return nil, err
	}
	return v, nil
}

func (yamlCodec) DecodeInto(r io.Reader, ptr any, _ *Options) error {
	err := yaml.NewDecoder(r).Decode(ptr)
	if errors.Is(err, io.EOF) {
		// Empty document.
		return nil
	}
	return err
}

// imageCodec handles one raster format.
type imageCodec struct {
	tag FormatTag
}

func (c imageCodec) Encode(w io.Writer, v any, o *Options) error {
	var img image.Image
	switch t := v.(type) {
	case image.Image:
		img = t
	case ndarray.Tensor:
		var err error
		if img, err = raster.FromArray(t, raster.Kind(c.tag)); err != nil {
			return err
		}
	default:
		return unsupportedValue(c.tag, v)
	}
	return raster.Encode(w, raster.Kind(c.tag), img, o.JPEGQuality)
}

func (c imageCodec) Decode(r io.Reader, o *Options) (any, error) {
	img, err := raster.Decode(r, raster.Kind(c.tag))
	if err != nil {
		return nil, err
	}
	switch o.ImageMode {
	case ImageNative:
		return img, nil
	case ImageNativeArray:
		return raster.NativeArray(img), nil
	}
	return raster.ToArray(img), nil
}
