package clock

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestReal_Sleep(t *testing.T) {
	t.Run("waits for duration", func(t *testing.T) {
		c := New()
		start := time.Now()
		if err := c.Sleep(context.Background(), 10*time.Millisecond); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if time.Since(start) < 10*time.Millisecond {
			t.Error("expected sleep to last at least 10ms")
		}
	})

	t.Run("returns early on cancelled context", func(t *testing.T) {
		c := New()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := c.Sleep(ctx, time.Hour)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("zero duration returns immediately", func(t *testing.T) {
		if err := New().Sleep(context.Background(), 0); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
