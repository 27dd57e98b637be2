package services

import (
	"context"
	"testing"
	"time"

	"github.com/bimakw/wallet-proxy/internal/domain/entities"
	"github.com/bimakw/wallet-proxy/internal/testutil"
)

func TestStatsService_GetCacheStats(t *testing.T) {
	env := setupWalletServiceTest(t)
	service := NewStatsService(env.cache, env.tracker, env.clock)
	ctx := context.Background()

	env.balances.SetBalances(testutil.ChainID, testutil.AliceAddress, entities.RawBalanceMap{testutil.USDTAddress: "1"})
	env.tokens.AddToken(testutil.ChainID, testutil.CreateTestToken())
	env.prices.SetPrice(testutil.ChainID, testutil.USDTAddress, 1)

	_, _ = env.service.GetWalletView(ctx, testutil.ChainID, testutil.AliceAddress)
	_, _ = env.service.GetWalletView(ctx, testutil.ChainID, testutil.AliceAddress)
	env.clock.Advance(time.Minute)

	response := service.GetCacheStats(ctx)

	if len(response.Data.Tiers) != 3 {
		t.Fatalf("expected 3 tiers, got %d", len(response.Data.Tiers))
	}

	balances := response.Data.Tiers[0]
	if balances.Name != "balances" || balances.TTLSeconds != 120 {
		t.Errorf("unexpected balances tier: %+v", balances)
	}
	if balances.Hits != 1 || balances.Misses != 1 || balances.HitRate != 0.5 {
		t.Errorf("expected 1 hit and 1 miss, got %+v", balances)
	}
	if balances.Entries == nil || *balances.Entries != 1 {
		t.Errorf("expected 1 entry, got %v", balances.Entries)
	}

	if response.Data.Cardinality.Wallets != 1 || response.Data.Cardinality.Tokens != 1 {
		t.Errorf("unexpected cardinality: %+v", response.Data.Cardinality)
	}
	if response.Data.UptimeSeconds != 60 {
		t.Errorf("expected 60s uptime, got %d", response.Data.UptimeSeconds)
	}
}
