package services

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bimakw/wallet-proxy/internal/config"
	"github.com/bimakw/wallet-proxy/internal/infrastructure/cache"
	"github.com/bimakw/wallet-proxy/internal/infrastructure/stats"
	"github.com/bimakw/wallet-proxy/internal/testutil"
)

func testAggregationConfig() config.AggregationConfig {
	return config.AggregationConfig{
		DetailBatchSize:  5,
		DetailBatchDelay: time.Second,
		PriceBatchSize:   5,
		PriceBatchDelay:  time.Second,
		RequestTimeout:   10 * time.Second,
		SupportedChains:  []string{"1", "137"},
	}
}

func newTestCache(t *testing.T, clk *testutil.FakeClock) *cache.TieredCache {
	t.Helper()
	tiered, err := cache.NewTieredCache(config.CacheConfig{
		BalanceTTL:  2 * time.Minute,
		PriceTTL:    30 * time.Second,
		MetadataTTL: time.Hour,
		MaxEntries:  1000,
		LoadTimeout: time.Second,
	}, nil, clk, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	return tiered
}

type walletTestEnv struct {
	service  *WalletService
	balances *testutil.MockBalanceRepository
	tokens   *testutil.MockTokenRepository
	prices   *testutil.MockPriceRepository
	clock    *testutil.FakeClock
	cache    *cache.TieredCache
	tracker  *stats.CardinalityTracker
}

func setupWalletServiceTest(t *testing.T) *walletTestEnv {
	t.Helper()

	env := &walletTestEnv{
		balances: testutil.NewMockBalanceRepository(),
		tokens:   testutil.NewMockTokenRepository(),
		prices:   testutil.NewMockPriceRepository(),
		clock:    testutil.NewFakeClock(),
		tracker:  stats.NewCardinalityTracker(),
	}
	env.cache = newTestCache(t, env.clock)

	cfg := testAggregationConfig()
	logger := zap.NewNop()

	details := NewTokenDetailService(env.tokens, env.cache.Metadata, cfg, env.clock, logger)
	prices := NewPriceService(env.prices, env.cache.Prices, cfg, env.clock, logger)
	env.service = NewWalletService(env.balances, env.cache.Balances, details, prices, env.tracker, cfg, logger)

	return env
}

func (e *walletTestEnv) upstreamCalls() int {
	return e.balances.TotalCalls() + e.tokens.TotalCalls() + e.prices.TotalCalls()
}
