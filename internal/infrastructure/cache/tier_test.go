package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bimakw/wallet-proxy/internal/config"
	"github.com/bimakw/wallet-proxy/internal/domain/entities"
	"github.com/bimakw/wallet-proxy/internal/testutil"
)

type failingStore struct{}

func (failingStore) Get(ctx context.Context, key string, dest interface{}) error {
	return errors.New("connection refused")
}

func (failingStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return errors.New("connection refused")
}

func (failingStore) HealthCheck(ctx context.Context) error {
	return errors.New("connection refused")
}

func newTestTier(t *testing.T, clk *testutil.FakeClock, ttl time.Duration) *Tier[entities.TokenMetadata] {
	t.Helper()
	store, err := NewMemoryStore(100, clk)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return NewTier[entities.TokenMetadata]("metadata", store, ttl, zap.NewNop())
}

func TestTier_PutGet(t *testing.T) {
	clk := testutil.NewFakeClock()
	tier := newTestTier(t, clk, time.Hour)
	ctx := context.Background()

	if _, ok := tier.Get(ctx, "1:0xabc"); ok {
		t.Fatal("expected miss on empty tier")
	}

	tier.Put(ctx, "1:0xabc", testutil.CreateTestToken())

	got, ok := tier.Get(ctx, "1:0xabc")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Symbol != "USDT" || got.Decimals != 6 {
		t.Errorf("unexpected token: %+v", got)
	}

	stats := tier.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Entries != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestTier_Expiry(t *testing.T) {
	clk := testutil.NewFakeClock()
	tier := newTestTier(t, clk, 30*time.Second)
	ctx := context.Background()

	tier.Put(ctx, "k", testutil.CreateTestToken())
	clk.Advance(30 * time.Second)

	if _, ok := tier.Get(ctx, "k"); ok {
		t.Error("expected entry to expire at its TTL")
	}
}

func TestTier_GetOrLoad(t *testing.T) {
	clk := testutil.NewFakeClock()
	tier := newTestTier(t, clk, time.Hour)
	ctx := context.Background()

	calls := 0
	load := func(ctx context.Context) (entities.TokenMetadata, error) {
		calls++
		return testutil.CreateTestToken(), nil
	}

	for i := 0; i < 3; i++ {
		got, err := tier.GetOrLoad(ctx, "k", load)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Symbol != "USDT" {
			t.Errorf("expected USDT, got %s", got.Symbol)
		}
	}

	if calls != 1 {
		t.Errorf("expected 1 load, got %d", calls)
	}
}

func TestTier_GetOrLoad_ErrorNotCached(t *testing.T) {
	clk := testutil.NewFakeClock()
	tier := newTestTier(t, clk, time.Hour)
	ctx := context.Background()

	loadErr := errors.New("upstream down")
	calls := 0
	load := func(ctx context.Context) (entities.TokenMetadata, error) {
		calls++
		return entities.TokenMetadata{}, loadErr
	}

	if _, err := tier.GetOrLoad(ctx, "k", load); !errors.Is(err, loadErr) {
		t.Errorf("expected load error, got %v", err)
	}
	if _, err := tier.GetOrLoad(ctx, "k", load); !errors.Is(err, loadErr) {
		t.Errorf("expected load error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected failed load to be retried, got %d calls", calls)
	}
}

func TestTier_GetOrLoad_Coalesces(t *testing.T) {
	clk := testutil.NewFakeClock()
	tier := newTestTier(t, clk, time.Hour)
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})
	load := func(ctx context.Context) (entities.TokenMetadata, error) {
		calls.Add(1)
		<-release
		return testutil.CreateTestToken(), nil
	}

	const callers = 10
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tier.GetOrLoad(ctx, "k", load)
			errs <- err
		}()
	}

	// Give the callers time to block on the shared load
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 load, got %d", calls.Load())
	}
}

func TestTier_Load_CallerCancellationIsolated(t *testing.T) {
	clk := testutil.NewFakeClock()
	tier := newTestTier(t, clk, time.Hour)

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	load := func(ctx context.Context) (entities.TokenMetadata, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		select {
		case <-release:
			return testutil.CreateTestToken(), nil
		case <-ctx.Done():
			return entities.TokenMetadata{}, ctx.Err()
		}
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := tier.GetOrLoad(ctxA, "k", load)
		errA <- err
	}()
	<-started

	type result struct {
		token entities.TokenMetadata
		err   error
	}
	resB := make(chan result, 1)
	go func() {
		token, err := tier.GetOrLoad(context.Background(), "k", load)
		resB <- result{token, err}
	}()

	// Let B join the in-flight load before A goes away
	time.Sleep(50 * time.Millisecond)
	cancelA()

	select {
	case err := <-errA:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected cancelled caller to get context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(release)

	select {
	case res := <-resB:
		if res.err != nil {
			t.Fatalf("expected second caller to succeed, got %v", res.err)
		}
		if res.token.Symbol != "USDT" {
			t.Errorf("expected USDT, got %s", res.token.Symbol)
		}
	case <-time.After(time.Second):
		t.Fatal("second caller did not return")
	}

	if calls.Load() != 1 {
		t.Errorf("expected 1 load, got %d", calls.Load())
	}
	if _, ok := tier.Get(context.Background(), "k"); !ok {
		t.Error("expected the shared load to be cached")
	}
}

func TestTier_Load_DetachedLoadIsBounded(t *testing.T) {
	clk := testutil.NewFakeClock()
	tier := newTestTier(t, clk, time.Hour).WithLoadTimeout(20 * time.Millisecond)

	_, err := tier.GetOrLoad(context.Background(), "k", func(ctx context.Context) (entities.TokenMetadata, error) {
		<-ctx.Done()
		return entities.TokenMetadata{}, ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected load timeout, got %v", err)
	}
}

func TestTier_StoreFailureIsMiss(t *testing.T) {
	tier := NewTier[entities.TokenMetadata]("metadata", failingStore{}, time.Hour, zap.NewNop())
	ctx := context.Background()

	if _, ok := tier.Get(ctx, "k"); ok {
		t.Error("expected store failure to be treated as a miss")
	}

	// Load still succeeds when the write fails
	got, err := tier.GetOrLoad(ctx, "k", func(ctx context.Context) (entities.TokenMetadata, error) {
		return testutil.CreateTestToken(), nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Symbol != "USDT" {
		t.Errorf("expected USDT, got %s", got.Symbol)
	}
	if tier.Stats().Entries != -1 {
		t.Errorf("expected unknown entry count for store without Len")
	}
}

func TestTieredCache_IndependentTiers(t *testing.T) {
	clk := testutil.NewFakeClock()
	cfg := config.CacheConfig{
		BalanceTTL:  2 * time.Minute,
		PriceTTL:    30 * time.Second,
		MetadataTTL: time.Hour,
		MaxEntries:  100,
	}
	tc, err := NewTieredCache(cfg, nil, clk, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	key := TokenKey(testutil.ChainID, testutil.USDTAddress)
	tc.Prices.Put(ctx, key, entities.PriceQuote{Price: testutil.PointerTo(1.0)})
	tc.Metadata.Put(ctx, key, testutil.CreateTestToken())
	tc.Balances.Put(ctx, BalanceKey(testutil.ChainID, testutil.AliceAddress), entities.RawBalanceMap{testutil.USDTAddress: "1"})

	clk.Advance(31 * time.Second)

	if _, ok := tc.Prices.Get(ctx, key); ok {
		t.Error("expected price to expire after 30s")
	}
	if _, ok := tc.Metadata.Get(ctx, key); !ok {
		t.Error("expected metadata to survive price expiry")
	}
	if _, ok := tc.Balances.Get(ctx, BalanceKey(testutil.ChainID, testutil.AliceAddress)); !ok {
		t.Error("expected balances to survive price expiry")
	}

	if err := tc.HealthCheck(ctx); err != nil {
		t.Errorf("expected healthy memory backend, got %v", err)
	}
	if len(tc.Stats()) != 3 {
		t.Errorf("expected stats for 3 tiers, got %d", len(tc.Stats()))
	}
}

func TestCacheKeys(t *testing.T) {
	if got := BalanceKey("1", "0xABCdef"); got != "1:0xabcdef" {
		t.Errorf("unexpected balance key %s", got)
	}
	if got := TokenKey("137", "0xDEAD"); got != "137:0xdead" {
		t.Errorf("unexpected token key %s", got)
	}
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	cfg := config.RedisConfig{Host: "127.0.0.1", Port: 1}
	if _, err := NewRedisStore(cfg, zap.NewNop()); err == nil {
		t.Error("expected error connecting to unreachable Redis")
	}
}
