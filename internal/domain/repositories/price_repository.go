package repositories

import (
	"context"

	"github.com/bimakw/wallet-proxy/internal/domain/entities"
)

// PriceRepository defines the interface for spot price lookups
type PriceRepository interface {
	// GetLatestPrice returns the close of the most recent price interval
	GetLatestPrice(ctx context.Context, chainID, address string) (*entities.PriceQuote, error)
}
