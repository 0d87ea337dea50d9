// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command isodemo renders a generated isometric map and writes the
// viewport, the full map and a minimap as PNG or WebP.
//
// Usage:
//
//	isodemo [-config isomap.toml] [-cols 48] [-rows 48] [-frames 4] \
//	    [-out view.png] [-fullmap map.webp] [-minimap mini.png]
//
// The output format follows the file extension.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gogpu/isomap"
	"github.com/gogpu/isomap/export"
	_ "github.com/gogpu/isomap/gpu/halgpu"
)

type options struct {
	configPath  string
	writeConfig string
	backend     string
	cols, rows  int
	seed        uint64
	frames      int
	panStep     int
	out         string
	fullMap     string
	minimap     string
	minimapSize int
	verbose     bool
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "TOML config file")
	flag.StringVar(&o.writeConfig, "write-config", "", "write the effective config to this file")
	flag.StringVar(&o.backend, "backend", "", "backend name, overrides the config (registered: software, hal)")
	flag.IntVar(&o.cols, "cols", 48, "map width in cells")
	flag.IntVar(&o.rows, "rows", 48, "map height in cells")
	flag.Uint64Var(&o.seed, "seed", 1, "map generation seed")
	flag.IntVar(&o.frames, "frames", 4, "frames to render while panning")
	flag.IntVar(&o.panStep, "pan", 24, "camera pan per frame in pixels")
	flag.StringVar(&o.out, "out", "isodemo.png", "viewport image")
	flag.StringVar(&o.fullMap, "fullmap", "", "full map image (optional)")
	flag.StringVar(&o.minimap, "minimap", "", "minimap image (optional)")
	flag.IntVar(&o.minimapSize, "minimap-size", 256, "minimap bounding box in pixels")
	flag.BoolVar(&o.verbose, "v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, o, logger); err != nil {
		logger.Error("isodemo failed", "err", err)
		os.Exit(1)
	}
}

func loadConfig(o options) (isomap.Config, error) {
	cfg := isomap.DefaultConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = isomap.LoadConfig(o.configPath); err != nil {
			return cfg, err
		}
	}
	if o.backend != "" {
		cfg.Backend = o.backend
	}
	if o.fullMap != "" || o.minimap != "" {
		cfg.FullMap = true
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, o options, logger *slog.Logger) (err error) {
	if o.cols <= 0 || o.rows <= 0 {
		return fmt.Errorf("map size %dx%d", o.cols, o.rows)
	}
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}
	if o.writeConfig != "" {
		if err := isomap.WriteConfig(o.writeConfig, cfg); err != nil {
			return err
		}
		logger.Info("config written", "path", o.writeConfig)
	}

	rc, err := isomap.NewRenderContext(isomap.WithConfig(cfg), isomap.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() {
		if terr := rc.TeardownAll(); terr != nil && err == nil {
			err = terr
		}
	}()

	a := newAssets()
	if err := rc.Init(ctx, a.loaders()...); err != nil {
		return err
	}
	dev, err := rc.Device()
	if err != nil {
		return err
	}
	palette, err := rc.Palettes().Add("demo", demoPalette())
	if err != nil {
		return err
	}

	world := newWorld(o.cols, o.rows, o.seed, a, palette)
	if cfg.AlphaLighting {
		light, err := lightTexture(dev, lightSize)
		if err != nil {
			return err
		}
		defer dev.DestroyTexture(light)
		world.setLight(light)
	}

	c, err := rc.NewCompositor(world)
	if err != nil {
		return err
	}
	mapW, mapH := world.PixelSize()
	c.SetCamera(image.Pt(max(mapW/2-cfg.ViewWidth/2, 0), max(mapH/2-cfg.ViewHeight/2, 0)), cfg.Zoom)

	for i := range max(o.frames, 1) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i > 0 {
			c.Pan(o.panStep, o.panStep/2)
		}
		if _, err := c.Frame(); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		s := c.Stats()
		logger.Info("frame", "n", i, "cells", s.CellsDrawn, "objects", s.ObjectsDrawn,
			"drawCalls", s.DrawCalls, "cached", s.Cached, "epoch", s.Epoch)
	}

	frame, err := c.Frame()
	if err != nil {
		return err
	}
	view, err := dev.ReadPixels(frame)
	if err != nil {
		return err
	}
	if err := export.Save(o.out, view); err != nil {
		return err
	}
	logger.Info("viewport written", "path", o.out, "size", view.Bounds().Size())

	if o.fullMap == "" && o.minimap == "" {
		return nil
	}
	full, err := c.FullMapImage()
	if err != nil {
		return err
	}
	if o.fullMap != "" {
		if err := export.Save(o.fullMap, full); err != nil {
			return err
		}
		logger.Info("full map written", "path", o.fullMap, "size", full.Bounds().Size())
	}
	if o.minimap != "" {
		mini := export.Minimap(full, o.minimapSize, o.minimapSize)
		if err := export.Save(o.minimap, mini); err != nil {
			return err
		}
		logger.Info("minimap written", "path", o.minimap, "size", mini.Bounds().Size())
	}
	return nil
}
