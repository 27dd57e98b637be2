package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/bimakw/wallet-proxy/internal/application/batch"
	"github.com/bimakw/wallet-proxy/internal/config"
	"github.com/bimakw/wallet-proxy/internal/domain/entities"
	"github.com/bimakw/wallet-proxy/internal/domain/repositories"
	"github.com/bimakw/wallet-proxy/internal/infrastructure/cache"
	"github.com/bimakw/wallet-proxy/internal/infrastructure/clock"
)

// PriceService resolves the latest price of tokens through the price tier
type PriceService struct {
	priceRepo repositories.PriceRepository
	prices    *cache.Tier[entities.PriceQuote]
	batchOpts batch.Options
	clock     clock.Clock
	logger    *zap.Logger
}

// NewPriceService creates a new price service
func NewPriceService(
	priceRepo repositories.PriceRepository,
	prices *cache.Tier[entities.PriceQuote],
	cfg config.AggregationConfig,
	clk clock.Clock,
	logger *zap.Logger,
) *PriceService {
	return &PriceService{
		priceRepo: priceRepo,
		prices:    prices,
		batchOpts: batch.Options{Size: cfg.PriceBatchSize, Delay: cfg.PriceBatchDelay},
		clock:     clk,
		logger:    logger,
	}
}

// ResolvePrices returns quotes keyed by lowercase address.
// Failed lookups are absent; a quote without a price means upstream had no data.
func (s *PriceService) ResolvePrices(ctx context.Context, chainID string, addresses []string) map[string]entities.PriceQuote {
	result := make(map[string]entities.PriceQuote, len(addresses))

	var misses []string
	for _, address := range dedupeLower(addresses) {
		if quote, ok := s.prices.Get(ctx, cache.TokenKey(chainID, address)); ok {
			result[address] = quote
			continue
		}
		misses = append(misses, address)
	}

	if len(misses) == 0 {
		return result
	}

	results := batch.Run(ctx, misses, func(ctx context.Context, address string) (entities.PriceQuote, error) {
		return s.prices.Load(ctx, cache.TokenKey(chainID, address), func(ctx context.Context) (entities.PriceQuote, error) {
			quote, err := s.priceRepo.GetLatestPrice(ctx, chainID, address)
			if err != nil {
				return entities.PriceQuote{}, err
			}
			return *quote, nil
		})
	}, s.batchOpts, s.clock)

	for i, r := range results {
		if r.Err != nil {
			s.logger.Debug("Price lookup failed",
				zap.String("chain_id", chainID),
				zap.String("token", misses[i]),
				zap.Error(r.Err),
			)
			continue
		}
		result[misses[i]] = r.Value
	}

	return result
}
