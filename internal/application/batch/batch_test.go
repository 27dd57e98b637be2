package batch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bimakw/wallet-proxy/internal/testutil"
)

func TestChunks(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		size     int
		expected []Range
	}{
		{
			name:     "exact multiple",
			n:        10,
			size:     5,
			expected: []Range{{0, 5}, {5, 10}},
		},
		{
			name:     "remainder",
			n:        12,
			size:     5,
			expected: []Range{{0, 5}, {5, 10}, {10, 12}},
		},
		{
			name:     "smaller than size",
			n:        3,
			size:     5,
			expected: []Range{{0, 3}},
		},
		{
			name:     "empty",
			n:        0,
			size:     5,
			expected: nil,
		},
		{
			name:     "zero size means one chunk",
			n:        4,
			size:     0,
			expected: []Range{{0, 4}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Chunks(tt.n, tt.size)
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %d ranges, got %d", len(tt.expected), len(got))
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("range %d: expected %+v, got %+v", i, tt.expected[i], got[i])
				}
			}
		})
	}
}

func TestRun_PreservesOrder(t *testing.T) {
	clk := testutil.NewFakeClock()
	items := make([]int, 12)
	for i := range items {
		items[i] = i
	}

	results := Run(context.Background(), items, func(ctx context.Context, item int) (string, error) {
		time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
		return fmt.Sprintf("item-%d", item), nil
	}, Options{Size: 5, Delay: time.Second}, clk)

	if len(results) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(results))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Errorf("item %d: unexpected error %v", i, r.Err)
		}
		if r.Value != fmt.Sprintf("item-%d", i) {
			t.Errorf("item %d: got %s", i, r.Value)
		}
	}
}

func TestRun_BoundsConcurrency(t *testing.T) {
	clk := testutil.NewFakeClock()
	items := make([]int, 13)

	var inFlight, maxInFlight atomic.Int32
	Run(context.Background(), items, func(ctx context.Context, item int) (int, error) {
		current := inFlight.Add(1)
		for {
			prev := maxInFlight.Load()
			if current <= prev || maxInFlight.CompareAndSwap(prev, current) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return item, nil
	}, Options{Size: 4}, clk)

	if maxInFlight.Load() > 4 {
		t.Errorf("expected at most 4 in flight, got %d", maxInFlight.Load())
	}
}

func TestRun_DelaysBetweenChunksOnly(t *testing.T) {
	tests := []struct {
		name       string
		items      int
		wantSleeps int
	}{
		{"single chunk", 5, 0},
		{"two chunks", 6, 1},
		{"three chunks", 12, 2},
		{"empty", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := testutil.NewFakeClock()
			Run(context.Background(), make([]int, tt.items), func(ctx context.Context, item int) (int, error) {
				return item, nil
			}, Options{Size: 5, Delay: time.Second}, clk)

			sleeps := clk.Sleeps()
			if len(sleeps) != tt.wantSleeps {
				t.Fatalf("expected %d sleeps, got %d", tt.wantSleeps, len(sleeps))
			}
			for _, d := range sleeps {
				if d != time.Second {
					t.Errorf("expected 1s delay, got %s", d)
				}
			}
		})
	}
}

func TestRun_ErrorDoesNotCancelSiblings(t *testing.T) {
	clk := testutil.NewFakeClock()
	boom := errors.New("boom")

	var mu sync.Mutex
	seen := make(map[int]bool)

	results := Run(context.Background(), []int{0, 1, 2, 3, 4, 5, 6}, func(ctx context.Context, item int) (int, error) {
		mu.Lock()
		seen[item] = true
		mu.Unlock()
		if item == 1 {
			return 0, boom
		}
		return item * 10, nil
	}, Options{Size: 3}, clk)

	if len(seen) != 7 {
		t.Errorf("expected all 7 items to run, got %d", len(seen))
	}
	if !errors.Is(results[1].Err, boom) {
		t.Errorf("expected item 1 to fail, got %v", results[1].Err)
	}
	for i, r := range results {
		if i == 1 {
			continue
		}
		if r.Err != nil || r.Value != i*10 {
			t.Errorf("item %d: got %d (%v)", i, r.Value, r.Err)
		}
	}
}

func TestRun_Cancelled(t *testing.T) {
	clk := testutil.NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())

	var started atomic.Int32
	results := Run(ctx, make([]int, 10), func(ctx context.Context, item int) (int, error) {
		started.Add(1)
		cancel()
		return 1, nil
	}, Options{Size: 5, Delay: time.Second}, clk)

	if started.Load() != 5 {
		t.Errorf("expected only the first chunk to start, got %d", started.Load())
	}
	for i := 5; i < 10; i++ {
		if !errors.Is(results[i].Err, context.Canceled) {
			t.Errorf("item %d: expected context.Canceled, got %v", i, results[i].Err)
		}
	}
	for i := 0; i < 5; i++ {
		if results[i].Err != nil {
			t.Errorf("item %d: unexpected error %v", i, results[i].Err)
		}
	}
}
