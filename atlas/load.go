// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package atlas

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Loader fills the builder of one asset category.
type Loader struct {
	Name string
	Load func(ctx context.Context, b *Builder) error
}

// Load runs every loader on its own goroutine with a private Builder and
// registers each builder with reg when its loader succeeds. It returns
// once all loaders have finished. The first failure cancels ctx for the
// others and is returned.
func Load(ctx context.Context, reg *Registry, loaders ...Loader) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, l := range loaders {
		g.Go(func() error {
			b := NewBuilder(l.Name, WithMaxPageSize(reg.maxDim))
			if err := l.Load(ctx, b); err != nil {
				return fmt.Errorf("atlas: load %s: %w", l.Name, err)
			}
			return reg.Register(b)
		})
	}
	return g.Wait()
}
