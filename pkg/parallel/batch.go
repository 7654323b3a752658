// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package parallel

import (
	"context"

	"github.com/go-arcade/guildsync/pkg/safe"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize is the number of items processed concurrently per batch.
const DefaultBatchSize = 10

// Batch runs fn for every item. Items are split into consecutive batches of
// size; the items of one batch run concurrently and the next batch starts only
// after the previous one has fully finished. Results keep the input order.
//
// fn reports failures through its result, one item never aborts the others.
// A panic inside fn is recovered and turned into the zero result.
func Batch[T, R any](ctx context.Context, items []T, size int, fn func(ctx context.Context, item T) R) []R {
	if size <= 0 {
		size = DefaultBatchSize
	}
	results := make([]R, len(items))

	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				safe.Do("parallel.batch", func() {
					results[i] = fn(ctx, items[i])
				})
				return nil
			})
		}
		_ = g.Wait()

		if ctx.Err() != nil {
			break
		}
	}
	return results
}

// Group runs functions concurrently with an optional limit; the first error
// cancels the shared context and is returned by Wait.
type Group struct {
	g   *errgroup.Group
	ctx context.Context
}

// GoGroup creates a Group bound to ctx. limit <= 0 means unbounded.
func GoGroup(ctx context.Context, limit int) *Group {
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	return &Group{g: g, ctx: gctx}
}

// Go calls fn in a new goroutine.
func (g *Group) Go(fn func(ctx context.Context) error) {
	g.g.Go(func() error {
		return fn(g.ctx)
	})
}

// Wait blocks until all functions have returned.
func (g *Group) Wait() error {
	return g.g.Wait()
}
