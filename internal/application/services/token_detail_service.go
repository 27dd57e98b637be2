package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/bimakw/wallet-proxy/internal/application/batch"
	"github.com/bimakw/wallet-proxy/internal/config"
	"github.com/bimakw/wallet-proxy/internal/domain/entities"
	"github.com/bimakw/wallet-proxy/internal/domain/repositories"
	"github.com/bimakw/wallet-proxy/internal/infrastructure/cache"
	"github.com/bimakw/wallet-proxy/internal/infrastructure/clock"
	"github.com/bimakw/wallet-proxy/internal/infrastructure/ethereum"
)

// TokenDetailService resolves token metadata, preferring one bulk call over per-token calls
type TokenDetailService struct {
	tokenRepo repositories.TokenRepository
	metadata  *cache.Tier[entities.TokenMetadata]
	batchOpts batch.Options
	clock     clock.Clock
	logger    *zap.Logger
}

// NewTokenDetailService creates a new token detail service
func NewTokenDetailService(
	tokenRepo repositories.TokenRepository,
	metadata *cache.Tier[entities.TokenMetadata],
	cfg config.AggregationConfig,
	clk clock.Clock,
	logger *zap.Logger,
) *TokenDetailService {
	return &TokenDetailService{
		tokenRepo: tokenRepo,
		metadata:  metadata,
		batchOpts: batch.Options{Size: cfg.DetailBatchSize, Delay: cfg.DetailBatchDelay},
		clock:     clk,
		logger:    logger,
	}
}

// ResolveDetails returns metadata keyed by lowercase address.
// Addresses that could not be resolved are absent from the result.
func (s *TokenDetailService) ResolveDetails(ctx context.Context, chainID string, addresses []string) map[string]entities.TokenMetadata {
	result := make(map[string]entities.TokenMetadata, len(addresses))

	var misses []string
	for _, address := range dedupeLower(addresses) {
		if ethereum.IsNativeToken(address) {
			result[address] = entities.NativeTokenMetadata()
			continue
		}

		if token, ok := s.metadata.Get(ctx, cache.TokenKey(chainID, address)); ok {
			result[address] = token
			continue
		}
		misses = append(misses, address)
	}

	if len(misses) == 0 {
		return result
	}

	bulk, err := s.tokenRepo.GetTokensBulk(ctx, chainID, misses)
	if err == nil {
		for _, address := range misses {
			token := bulk[address]
			s.metadata.Put(ctx, cache.TokenKey(chainID, address), token)
			result[address] = token
		}
		return result
	}

	s.logger.Warn("Bulk token lookup failed, falling back to per-token lookups",
		zap.String("chain_id", chainID),
		zap.Int("token_count", len(misses)),
		zap.Error(err),
	)

	results := batch.Run(ctx, misses, func(ctx context.Context, address string) (entities.TokenMetadata, error) {
		return s.metadata.Load(ctx, cache.TokenKey(chainID, address), func(ctx context.Context) (entities.TokenMetadata, error) {
			token, err := s.tokenRepo.GetToken(ctx, chainID, address)
			if err != nil {
				return entities.TokenMetadata{}, err
			}
			return *token, nil
		})
	}, s.batchOpts, s.clock)

	failed := 0
	for i, r := range results {
		if r.Err != nil {
			failed++
			s.logger.Debug("Token lookup failed",
				zap.String("chain_id", chainID),
				zap.String("token", misses[i]),
				zap.Error(r.Err),
			)
			continue
		}
		result[misses[i]] = r.Value
	}

	if failed > 0 {
		s.logger.Warn("Some token details could not be resolved",
			zap.String("chain_id", chainID),
			zap.Int("failed", failed),
			zap.Int("total", len(misses)),
		)
	}

	return result
}

// dedupeLower lowercases addresses and drops duplicates, keeping first-seen order
func dedupeLower(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	out := make([]string, 0, len(addresses))
	for _, address := range addresses {
		address = strings.ToLower(address)
		if _, ok := seen[address]; ok {
			continue
		}
		seen[address] = struct{}{}
		out = append(out, address)
	}
	return out
}
