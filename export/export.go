// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package export

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
)

// ErrUnknownFormat is returned by Save for extensions other than .png and
// .webp.
var ErrUnknownFormat = errors.New("export: unknown image format")

// Format is an output encoding.
type Format int

const (
	PNG Format = iota
	WebP
)

// String implements fmt.Stringer.
func (f Format) String() string {
	switch f {
	case PNG:
		return "png"
	case WebP:
		return "webp"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNG, nil
	case ".webp":
		return WebP, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("export: png encode: %w", err)
	}
	return nil
}

// WriteWebP encodes img as lossless WebP.
func WriteWebP(w io.Writer, img image.Image) error {
	if err := nativewebp.Encode(w, img, nil); err != nil {
		return fmt.Errorf("export: webp encode: %w", err)
	}
	return nil
}

// Write encodes img in format f.
func Write(w io.Writer, img image.Image, f Format) error {
	switch f {
	case PNG:
		return WritePNG(w, img)
	case WebP:
		return WriteWebP(w, img)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, f)
	}
}

// Save writes img to path, creating parent directories. The format follows
// the file extension.
func Save(path string, img image.Image) (err error) {
	f, err := FormatFor(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("export: %w", cerr)
		}
	}()
	return Write(out, img, f)
}
