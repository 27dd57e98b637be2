package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bimakw/wallet-proxy/internal/config"
	"github.com/bimakw/wallet-proxy/internal/domain/apperr"
	"github.com/bimakw/wallet-proxy/internal/domain/entities"
	"github.com/bimakw/wallet-proxy/internal/domain/repositories"
	"github.com/bimakw/wallet-proxy/internal/infrastructure/cache"
	"github.com/bimakw/wallet-proxy/internal/infrastructure/ethereum"
	"github.com/bimakw/wallet-proxy/internal/infrastructure/stats"
)

// Placeholder values for tokens whose metadata could not be resolved
const (
	UnknownSymbol = "UNKNOWN"
	UnknownName   = "Unknown Token"
)

// WalletService assembles the valued token view of a wallet
type WalletService struct {
	balanceRepo     repositories.BalanceRepository
	balances        *cache.Tier[entities.RawBalanceMap]
	details         *TokenDetailService
	prices          *PriceService
	tracker         *stats.CardinalityTracker
	cfg             config.AggregationConfig
	supportedChains map[string]struct{}
	logger          *zap.Logger
}

// NewWalletService creates a new wallet service
func NewWalletService(
	balanceRepo repositories.BalanceRepository,
	balances *cache.Tier[entities.RawBalanceMap],
	details *TokenDetailService,
	prices *PriceService,
	tracker *stats.CardinalityTracker,
	cfg config.AggregationConfig,
	logger *zap.Logger,
) *WalletService {
	supported := make(map[string]struct{}, len(cfg.SupportedChains))
	for _, chainID := range cfg.SupportedChains {
		if chainID = strings.TrimSpace(chainID); chainID != "" {
			supported[chainID] = struct{}{}
		}
	}

	return &WalletService{
		balanceRepo:     balanceRepo,
		balances:        balances,
		details:         details,
		prices:          prices,
		tracker:         tracker,
		cfg:             cfg,
		supportedChains: supported,
		logger:          logger,
	}
}

// WalletViewResponse is the API response for wallet token queries
type WalletViewResponse struct {
	Tokens map[string]entities.EnrichedToken `json:"tokens"`
}

// GetWalletView returns every token the wallet holds with metadata, price and value.
// Only a balance failure fails the call; metadata and price failures degrade individual tokens.
func (s *WalletService) GetWalletView(ctx context.Context, chainID, walletAddress string) (*WalletViewResponse, error) {
	chainID = strings.TrimSpace(chainID)
	walletAddress = strings.TrimSpace(walletAddress)

	if err := s.validate(chainID, walletAddress); err != nil {
		return nil, err
	}
	walletAddress = ethereum.NormalizeAddress(walletAddress)

	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	s.tracker.RecordWallet(chainID, walletAddress)

	balances, err := s.balances.GetOrLoad(ctx, cache.BalanceKey(chainID, walletAddress), func(ctx context.Context) (entities.RawBalanceMap, error) {
		return s.balanceRepo.GetBalances(ctx, chainID, walletAddress)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get balances: %w", err)
	}

	held := heldTokens(balances)
	response := &WalletViewResponse{
		Tokens: make(map[string]entities.EnrichedToken, len(held)),
	}
	if len(held) == 0 {
		return response, nil
	}

	s.tracker.RecordTokens(chainID, held)

	details := s.details.ResolveDetails(ctx, chainID, held)
	prices := s.prices.ResolvePrices(ctx, chainID, held)

	unknown := 0
	for _, address := range held {
		token := enrich(address, balances[address], details, prices)
		if token.Metadata == nil {
			unknown++
		}
		response.Tokens[address] = token
	}

	s.logger.Info("Wallet view assembled",
		zap.String("chain_id", chainID),
		zap.String("wallet", ethereum.ChecksumAddress(walletAddress)),
		zap.Int("token_count", len(held)),
		zap.Int("unknown_tokens", unknown),
		zap.Int("priced_tokens", len(prices)),
	)

	return response, nil
}

func (s *WalletService) validate(chainID, walletAddress string) error {
	if chainID == "" {
		return apperr.NewMissingParameterError("chain")
	}
	if walletAddress == "" {
		return apperr.NewMissingParameterError("address")
	}

	if _, err := strconv.ParseUint(chainID, 10, 64); err != nil {
		return apperr.NewValidationError("chain", "chain must be a numeric chain id, got %q", chainID)
	}
	if len(s.supportedChains) > 0 {
		if _, ok := s.supportedChains[chainID]; !ok {
			return apperr.NewValidationError("chain", "chain %s is not supported", chainID)
		}
	}

	if !ethereum.IsValidAddress(walletAddress) {
		return apperr.NewValidationError("address", "invalid wallet address: %s", walletAddress)
	}

	return nil
}

// heldTokens returns the addresses with a non-zero balance, sorted for stable fan-out order
func heldTokens(balances entities.RawBalanceMap) []string {
	held := make([]string, 0, len(balances))
	for address, raw := range balances {
		if isZeroBalance(raw) {
			continue
		}
		held = append(held, address)
	}
	sort.Strings(held)
	return held
}

// isZeroBalance reports whether a raw balance means "not held".
// Unparseable balances are kept so the token still shows up.
func isZeroBalance(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "0" {
		return true
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return false
	}
	return amount.IsZero()
}

// enrich combines a held balance with whatever metadata and price were resolved
func enrich(address, balance string, details map[string]entities.TokenMetadata, prices map[string]entities.PriceQuote) entities.EnrichedToken {
	key := strings.ToLower(address)

	token := entities.EnrichedToken{
		Address:  address,
		Symbol:   UnknownSymbol,
		Name:     UnknownName,
		Balance:  balance,
		Decimals: entities.DefaultDecimals,
	}

	if meta, ok := details[key]; ok {
		meta := meta
		if meta.Symbol != "" {
			token.Symbol = meta.Symbol
		}
		if meta.Name != "" {
			token.Name = meta.Name
		}
		token.Decimals = meta.Decimals
		token.LogoURI = meta.LogoURI
		token.Metadata = &meta
	}

	if quote, ok := prices[key]; ok && quote.Available() {
		token.Price = *quote.Price
		token.Value = tokenValue(balance, token.Decimals, token.Price)
	}

	return token
}

// tokenValue returns balance / 10^decimals * price
func tokenValue(balance string, decimals int, price float64) float64 {
	amount, err := decimal.NewFromString(strings.TrimSpace(balance))
	if err != nil {
		return 0
	}
	return amount.Shift(-int32(decimals)).Mul(decimal.NewFromFloat(price)).InexactFloat64()
}
