package cache

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/bimakw/wallet-proxy/internal/config"
	"github.com/bimakw/wallet-proxy/internal/domain/entities"
	"github.com/bimakw/wallet-proxy/internal/infrastructure/clock"
)

const (
	TierBalances = "balances"
	TierMetadata = "metadata"
	TierPrices   = "prices"
)

// TieredCache groups the three independently expiring tiers used by the wallet pipeline
type TieredCache struct {
	Balances *Tier[entities.RawBalanceMap]
	Metadata *Tier[entities.TokenMetadata]
	Prices   *Tier[entities.PriceQuote]

	backend Store
}

// NewTieredCache creates the tiers on top of stores.
// With a nil shared store every tier gets its own memory store.
func NewTieredCache(cfg config.CacheConfig, shared Store, clk clock.Clock, logger *zap.Logger) (*TieredCache, error) {
	storeFor := func() (Store, error) {
		if shared != nil {
			return shared, nil
		}
		return NewMemoryStore(cfg.MaxEntries, clk)
	}

	balances, err := storeFor()
	if err != nil {
		return nil, err
	}
	metadata, err := storeFor()
	if err != nil {
		return nil, err
	}
	prices, err := storeFor()
	if err != nil {
		return nil, err
	}

	backend := shared
	if backend == nil {
		backend = balances
	}

	return &TieredCache{
		Balances: NewTier[entities.RawBalanceMap](TierBalances, balances, cfg.BalanceTTL, logger).WithLoadTimeout(cfg.LoadTimeout),
		Metadata: NewTier[entities.TokenMetadata](TierMetadata, metadata, cfg.MetadataTTL, logger).WithLoadTimeout(cfg.LoadTimeout),
		Prices:   NewTier[entities.PriceQuote](TierPrices, prices, cfg.PriceTTL, logger).WithLoadTimeout(cfg.LoadTimeout),
		backend:  backend,
	}, nil
}

// Stats returns counters for every tier
func (c *TieredCache) Stats() []TierStats {
	return []TierStats{
		c.Balances.Stats(),
		c.Metadata.Stats(),
		c.Prices.Stats(),
	}
}

// HealthCheck checks the backing store
func (c *TieredCache) HealthCheck(ctx context.Context) error {
	return c.backend.HealthCheck(ctx)
}

// BalanceKey builds the balance tier key for a wallet
func BalanceKey(chainID, walletAddress string) string {
	return chainID + ":" + strings.ToLower(walletAddress)
}

// TokenKey builds the metadata and price tier key for a token
func TokenKey(chainID, tokenAddress string) string {
	return chainID + ":" + strings.ToLower(tokenAddress)
}
