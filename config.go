// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package isomap

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/isomap/atlas"
	"github.com/gogpu/isomap/batch"
)

// Filter names accepted by Config.Filter.
const (
	FilterNearest = "nearest"
	FilterLinear  = "linear"
)

// Config holds the settings of a RenderContext and the compositors it
// creates. The zero value is not valid; start from DefaultConfig.
type Config struct {
	// Backend names a registered backend. Empty selects the best
	// available one.
	Backend string `toml:"backend"`

	// MaxPageSize bounds atlas pages. It is further capped by the
	// device's MaxTextureDimension.
	MaxPageSize int `toml:"max_page_size"`

	// MaxVertices is the batch vertex ceiling, a multiple of 4.
	MaxVertices int `toml:"max_vertices"`

	// Padding is the number of cells drawn beyond the camera.
	Padding int `toml:"padding"`

	Zoom          float64  `toml:"zoom"`
	AlphaLighting bool     `toml:"alpha_lighting"`
	Shadows       bool     `toml:"shadows"`
	Ambient       HexColor `toml:"ambient"`

	// FullMap keeps the whole map drawn, for minimap and export
	// consumers.
	FullMap bool `toml:"full_map"`

	// Filter is FilterNearest or FilterLinear.
	Filter string `toml:"filter"`

	ViewWidth  int `toml:"view_width"`
	ViewHeight int `toml:"view_height"`

	// LabelSize is the label font size in pixels.
	LabelSize float64 `toml:"label_size"`
}

// DefaultConfig returns the settings used when no file is loaded.
func DefaultConfig() Config {
	return Config{
		MaxPageSize: atlas.DefaultMaxPageSize,
		MaxVertices: batch.DefaultVertexCeiling,
		Padding:     2,
		Zoom:        1,
		Shadows:     true,
		Ambient:     HexColor{R: 255, G: 255, B: 255, A: 255},
		Filter:      FilterNearest,
		ViewWidth:   1280,
		ViewHeight:  720,
		LabelSize:   12,
	}
}

// Validate reports the first invalid field as a *ConfigError.
func (c *Config) Validate() error {
	switch {
	case c.MaxPageSize <= 0:
		return &ConfigError{Field: "max_page_size", Reason: fmt.Sprintf("%d is not positive", c.MaxPageSize)}
	case c.MaxVertices < 4 || c.MaxVertices%4 != 0:
		return &ConfigError{Field: "max_vertices", Reason: fmt.Sprintf("%d is not a positive multiple of 4", c.MaxVertices)}
	case c.MaxVertices > 1<<16:
		return &ConfigError{Field: "max_vertices", Reason: fmt.Sprintf("%d exceeds 16-bit indices", c.MaxVertices)}
	case c.Padding < 0:
		return &ConfigError{Field: "padding", Reason: "negative"}
	case c.Zoom <= 0:
		return &ConfigError{Field: "zoom", Reason: fmt.Sprintf("%g is not positive", c.Zoom)}
	case c.Filter != FilterNearest && c.Filter != FilterLinear:
		return &ConfigError{Field: "filter", Reason: fmt.Sprintf("%q is neither %q nor %q", c.Filter, FilterNearest, FilterLinear)}
	case c.ViewWidth <= 0 || c.ViewHeight <= 0:
		return &ConfigError{Field: "view_width", Reason: fmt.Sprintf("view %dx%d is empty", c.ViewWidth, c.ViewHeight)}
	case c.LabelSize <= 0:
		return &ConfigError{Field: "label_size", Reason: "not positive"}
	}
	return nil
}

// FilterMode returns Filter as a sampler filter.
func (c *Config) FilterMode() gputypes.FilterMode {
	if c.Filter == FilterLinear {
		return gputypes.FilterModeLinear
	}
	return gputypes.FilterModeNearest
}

// DecodeConfig reads TOML from r over DefaultConfig and validates the
// result. Unknown keys are rejected.
func DecodeConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("isomap: decode config: %w", err)
	}
	return finishDecode(cfg, md)
}

// LoadConfig reads a TOML file over DefaultConfig and validates it.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("isomap: load config: %w", err)
	}
	return finishDecode(cfg, md)
}

func finishDecode(cfg Config, md toml.MetaData) (Config, error) {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, &ConfigError{Field: undecoded[0].String(), Reason: "unknown key"}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// EncodeConfig writes cfg to w as TOML.
func EncodeConfig(w io.Writer, cfg Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("isomap: encode config: %w", err)
	}
	return nil
}

// WriteConfig writes cfg to path, creating parent directories.
func WriteConfig(path string, cfg Config) error {
	var buf bytes.Buffer
	if err := EncodeConfig(&buf, cfg); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("isomap: write config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("isomap: write config: %w", err)
	}
	return nil
}

// HexColor is a color written as "#rrggbb" or "#rrggbbaa" in TOML.
type HexColor color.NRGBA

// NRGBA returns c as a color.NRGBA.
func (c HexColor) NRGBA() color.NRGBA { return color.NRGBA(c) }

// MarshalText implements encoding.TextMarshaler.
func (c HexColor) MarshalText() ([]byte, error) {
	if c.A == 255 {
		return fmt.Appendf(nil, "#%02x%02x%02x", c.R, c.G, c.B), nil
	}
	return fmt.Appendf(nil, "#%02x%02x%02x%02x", c.R, c.G, c.B, c.A), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *HexColor) UnmarshalText(text []byte) error {
	s, ok := strings.CutPrefix(string(text), "#")
	if !ok || (len(s) != 6 && len(s) != 8) {
		return fmt.Errorf("isomap: color %q: want #rrggbb or #rrggbbaa", text)
	}
	var v [4]uint8
	v[3] = 255
	for i := 0; i < len(s)/2; i++ {
		n, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
		if err != nil {
			return fmt.Errorf("isomap: color %q: %w", text, err)
		}
		v[i] = uint8(n)
	}
	*c = HexColor{R: v[0], G: v[1], B: v[2], A: v[3]}
	return nil
}
