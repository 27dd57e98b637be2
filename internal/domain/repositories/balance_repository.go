package repositories

import (
	"context"

	"github.com/bimakw/wallet-proxy/internal/domain/entities"
)

// BalanceRepository defines the interface for wallet balance lookups
type BalanceRepository interface {
	// GetBalances returns every token balance upstream knows for the wallet, zero balances included
	GetBalances(ctx context.Context, chainID, walletAddress string) (entities.RawBalanceMap, error)
}
