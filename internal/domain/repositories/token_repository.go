package repositories

import (
	"context"

	"github.com/bimakw/wallet-proxy/internal/domain/entities"
)

// TokenRepository defines the interface for token metadata lookups
type TokenRepository interface {
	// GetTokensBulk retrieves metadata for all addresses in one call.
	// A response that misses any requested address is an error.
	GetTokensBulk(ctx context.Context, chainID string, addresses []string) (map[string]entities.TokenMetadata, error)

	// GetToken retrieves metadata for a single address
	GetToken(ctx context.Context, chainID, address string) (*entities.TokenMetadata, error)
}
