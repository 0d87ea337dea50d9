// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/webp"

	"github.com/gogpu/isomap"
)

func decode(t *testing.T, path string, dec func(*os.File) (image.Image, error)) image.Image {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	img, err := dec(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return img
}

func TestRunWritesImages(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "isomap.toml")
	cfg := isomap.DefaultConfig()
	cfg.ViewWidth, cfg.ViewHeight = 96, 64
	cfg.AlphaLighting = true
	if err := isomap.WriteConfig(cfgPath, cfg); err != nil {
		t.Fatal(err)
	}

	o := options{
		configPath:  cfgPath,
		writeConfig: filepath.Join(dir, "effective.toml"),
		cols:        8,
		rows:        6,
		seed:        7,
		frames:      3,
		panStep:     8,
		out:         filepath.Join(dir, "view.png"),
		fullMap:     filepath.Join(dir, "map.webp"),
		minimap:     filepath.Join(dir, "mini.png"),
		minimapSize: 32,
	}
	if err := run(context.Background(), o, slog.New(slog.DiscardHandler)); err != nil {
		t.Fatalf("run() = %v", err)
	}

	view := decode(t, o.out, func(f *os.File) (image.Image, error) { return png.Decode(f) })
	if got, want := view.Bounds().Size(), image.Pt(96, 64); got != want {
		t.Errorf("viewport size = %v, want %v", got, want)
	}

	// 8+6 cells across the diagonal, 32x16 per cell, plus headroom.
	full := decode(t, o.fullMap, func(f *os.File) (image.Image, error) { return webp.Decode(f) })
	if got, want := full.Bounds().Size(), image.Pt(14*tileW/2, 14*tileH/2+headroom); got != want {
		t.Errorf("full map size = %v, want %v", got, want)
	}

	mini := decode(t, o.minimap, func(f *os.File) (image.Image, error) { return png.Decode(f) })
	if s := mini.Bounds().Size(); s.X != 32 || s.Y > 32 {
		t.Errorf("minimap size = %v, want 32 wide and at most 32 tall", s)
	}

	written, err := isomap.LoadConfig(o.writeConfig)
	if err != nil {
		t.Fatalf("LoadConfig(effective) = %v", err)
	}
	if !written.FullMap || !written.AlphaLighting {
		t.Errorf("effective config = %+v, want full_map and alpha_lighting set", written)
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		o    options
	}{
		{"empty map", options{cols: 0, rows: 4, out: filepath.Join(dir, "a.png")}},
		{"missing config", options{cols: 4, rows: 4, configPath: filepath.Join(dir, "nope.toml"), out: filepath.Join(dir, "b.png")}},
		{"unknown backend", options{cols: 4, rows: 4, backend: "metal-direct", out: filepath.Join(dir, "c.png")}},
		{"unknown format", options{cols: 4, rows: 4, frames: 1, out: filepath.Join(dir, "d.bmp")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(context.Background(), tt.o, slog.New(slog.DiscardHandler)); err == nil {
				t.Error("run() = nil, want error")
			}
		})
	}
}
