// Package batch runs work over a list in fixed-size chunks with a pause between chunks.
package batch

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bimakw/wallet-proxy/internal/infrastructure/clock"
)

// Options configures chunked execution
type Options struct {
	// Size is the number of items processed concurrently per chunk
	Size int
	// Delay is the pause between the end of one chunk and the start of the next
	Delay time.Duration
}

// Result is the outcome for a single item
type Result[R any] struct {
	Value R
	Err   error
}

// Range represents a half-open range of item indices [From, To)
type Range struct {
	From int
	To   int
}

// Chunks splits n items into consecutive ranges of at most size items
func Chunks(n, size int) []Range {
	if n <= 0 {
		return nil
	}
	if size <= 0 {
		size = n
	}

	var ranges []Range
	for current := 0; current < n; current += size {
		end := current + size
		if end > n {
			end = n
		}
		ranges = append(ranges, Range{From: current, To: end})
	}

	return ranges
}

// Run applies fn to every item and returns results in input order.
// Items within a chunk run concurrently, chunks run one after another with opts.Delay between them.
// A failing item does not stop its siblings. Items not started before ctx is done get ctx.Err().
func Run[T, R any](ctx context.Context, items []T, fn func(ctx context.Context, item T) (R, error), opts Options, clk clock.Clock) []Result[R] {
	results := make([]Result[R], len(items))
	ranges := Chunks(len(items), opts.Size)

	for i, r := range ranges {
		if i > 0 && opts.Delay > 0 {
			if err := clk.Sleep(ctx, opts.Delay); err != nil {
				failFrom(results, r.From, err)
				return results
			}
		}
		if err := ctx.Err(); err != nil {
			failFrom(results, r.From, err)
			return results
		}

		var g errgroup.Group
		g.SetLimit(r.To - r.From)

		for idx := r.From; idx < r.To; idx++ {
			idx := idx // capture
			g.Go(func() error {
				value, err := fn(ctx, items[idx])
				results[idx] = Result[R]{Value: value, Err: err}
				return nil
			})
		}

		_ = g.Wait()
	}

	return results
}

func failFrom[R any](results []Result[R], from int, err error) {
	for i := from; i < len(results); i++ {
		results[i].Err = err
	}
}
