package testutil

import (
	"time"

	"github.com/bimakw/wallet-proxy/internal/domain/entities"
)

// Common test addresses
const (
	ChainID      = "1"
	USDTAddress  = "0xdac17f958d2ee523a2206206994597c13d831ec7"
	USDCAddress  = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	DAIAddress   = "0x6b175474e89094c44da98b954eedeac495271d0f"
	AliceAddress = "0x1111111111111111111111111111111111111111"
	BobAddress   = "0x2222222222222222222222222222222222222222"
)

// FixedTime is the start time of fake clocks and the timestamp of mock quotes
var FixedTime = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

// CreateTestToken creates test token metadata with default values
func CreateTestToken(opts ...TokenOption) entities.TokenMetadata {
	t := entities.TokenMetadata{
		Address:  USDTAddress,
		Symbol:   "USDT",
		Name:     "Tether USD",
		Decimals: 6,
		LogoURI:  "https://tokens.1inch.io/0xdac17f958d2ee523a2206206994597c13d831ec7.png",
	}

	for _, opt := range opts {
		opt(&t)
	}

	return t
}

type TokenOption func(*entities.TokenMetadata)

func TokenWithAddress(addr string) TokenOption {
	return func(t *entities.TokenMetadata) {
		t.Address = addr
	}
}

func TokenWithSymbol(symbol string) TokenOption {
	return func(t *entities.TokenMetadata) {
		t.Symbol = symbol
	}
}

func TokenWithName(name string) TokenOption {
	return func(t *entities.TokenMetadata) {
		t.Name = name
	}
}

func TokenWithDecimals(dec int) TokenOption {
	return func(t *entities.TokenMetadata) {
		t.Decimals = dec
	}
}

// PointerTo returns a pointer to the given value
func PointerTo[T any](v T) *T {
	return &v
}
