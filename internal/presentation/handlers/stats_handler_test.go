package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/bimakw/wallet-proxy/internal/application/services"
	"github.com/bimakw/wallet-proxy/internal/domain/entities"
	"github.com/bimakw/wallet-proxy/internal/testutil"
)

func TestStatsHandler_GetCacheStats(t *testing.T) {
	env := setupHandlerTest(t)

	env.balances.SetBalances(testutil.ChainID, testutil.AliceAddress, entities.RawBalanceMap{})
	env.get("/api/tokens/1/" + testutil.AliceAddress)
	env.get("/api/tokens/1/" + testutil.AliceAddress)

	rec := env.get("/api/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var response services.CacheStatsResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(response.Data.Tiers) != 3 {
		t.Fatalf("expected 3 tiers, got %d", len(response.Data.Tiers))
	}
	if response.Data.Tiers[0].Hits != 1 || response.Data.Tiers[0].Misses != 1 {
		t.Errorf("unexpected balance tier counters: %+v", response.Data.Tiers[0])
	}
	if response.Data.Cardinality.Wallets != 1 {
		t.Errorf("expected 1 distinct wallet, got %d", response.Data.Cardinality.Wallets)
	}
}
