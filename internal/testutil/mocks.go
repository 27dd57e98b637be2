package testutil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bimakw/wallet-proxy/internal/domain/apperr"
	"github.com/bimakw/wallet-proxy/internal/domain/entities"
)

type MockCall struct {
	Method string
	Args   []interface{}
}

// callLog records calls made against a mock, safe for concurrent use
type callLog struct {
	mu    sync.Mutex
	Calls []MockCall
}

func (l *callLog) record(method string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Calls = append(l.Calls, MockCall{Method: method, Args: args})
}

// CallCount returns how many times method was called
func (l *callLog) CallCount(method string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	count := 0
	for _, c := range l.Calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// TotalCalls returns the number of recorded calls
func (l *callLog) TotalCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Calls)
}

// ResetCalls clears the call history
func (l *callLog) ResetCalls() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Calls = nil
}

func key(chainID, address string) string {
	return chainID + ":" + strings.ToLower(address)
}

// ErrNotFound is returned by the default mock lookups for unknown keys
var ErrNotFound = &apperr.UpstreamError{Tag: "mock", StatusCode: 404, Message: "not found", Attempts: 1}

// MockBalanceRepository is a mock implementation of BalanceRepository
type MockBalanceRepository struct {
	callLog

	mu       sync.RWMutex
	balances map[string]entities.RawBalanceMap

	// Function hooks for custom behavior
	GetBalancesFunc func(ctx context.Context, chainID, walletAddress string) (entities.RawBalanceMap, error)
}

func NewMockBalanceRepository() *MockBalanceRepository {
	return &MockBalanceRepository{
		balances: make(map[string]entities.RawBalanceMap),
	}
}

func (m *MockBalanceRepository) GetBalances(ctx context.Context, chainID, walletAddress string) (entities.RawBalanceMap, error) {
	m.record("GetBalances", chainID, walletAddress)

	if m.GetBalancesFunc != nil {
		return m.GetBalancesFunc(ctx, chainID, walletAddress)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	balances, ok := m.balances[key(chainID, walletAddress)]
	if !ok {
		return entities.RawBalanceMap{}, nil
	}

	result := make(entities.RawBalanceMap, len(balances))
	for addr, bal := range balances {
		result[addr] = bal
	}
	return result, nil
}

// SetBalances sets the balances returned for a wallet
func (m *MockBalanceRepository) SetBalances(chainID, walletAddress string, balances entities.RawBalanceMap) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[key(chainID, walletAddress)] = balances
}

// MockTokenRepository is a mock implementation of TokenRepository
type MockTokenRepository struct {
	callLog

	mu     sync.RWMutex
	tokens map[string]entities.TokenMetadata

	// Function hooks
	GetTokensBulkFunc func(ctx context.Context, chainID string, addresses []string) (map[string]entities.TokenMetadata, error)
	GetTokenFunc      func(ctx context.Context, chainID, address string) (*entities.TokenMetadata, error)
}

func NewMockTokenRepository() *MockTokenRepository {
	return &MockTokenRepository{
		tokens: make(map[string]entities.TokenMetadata),
	}
}

func (m *MockTokenRepository) GetTokensBulk(ctx context.Context, chainID string, addresses []string) (map[string]entities.TokenMetadata, error) {
	m.record("GetTokensBulk", chainID, addresses)

	if m.GetTokensBulkFunc != nil {
		return m.GetTokensBulkFunc(ctx, chainID, addresses)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]entities.TokenMetadata, len(addresses))
	for _, addr := range addresses {
		token, ok := m.tokens[key(chainID, addr)]
		if !ok {
			return nil, fmt.Errorf("bulk response missing %s", addr)
		}
		result[strings.ToLower(addr)] = token
	}
	return result, nil
}

func (m *MockTokenRepository) GetToken(ctx context.Context, chainID, address string) (*entities.TokenMetadata, error) {
	m.record("GetToken", chainID, address)

	if m.GetTokenFunc != nil {
		return m.GetTokenFunc(ctx, chainID, address)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	token, ok := m.tokens[key(chainID, address)]
	if !ok {
		return nil, ErrNotFound
	}
	return &token, nil
}

// AddToken adds a token to the mock store
func (m *MockTokenRepository) AddToken(chainID string, token entities.TokenMetadata) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[key(chainID, token.Address)] = token
}

// MockPriceRepository is a mock implementation of PriceRepository
type MockPriceRepository struct {
	callLog

	mu     sync.RWMutex
	prices map[string]float64

	// Function hooks
	GetLatestPriceFunc func(ctx context.Context, chainID, address string) (*entities.PriceQuote, error)
}

func NewMockPriceRepository() *MockPriceRepository {
	return &MockPriceRepository{
		prices: make(map[string]float64),
	}
}

func (m *MockPriceRepository) GetLatestPrice(ctx context.Context, chainID, address string) (*entities.PriceQuote, error) {
	m.record("GetLatestPrice", chainID, address)

	if m.GetLatestPriceFunc != nil {
		return m.GetLatestPriceFunc(ctx, chainID, address)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	price, ok := m.prices[key(chainID, address)]
	if !ok {
		return nil, ErrNotFound
	}
	return &entities.PriceQuote{Price: PointerTo(price), Timestamp: FixedTime}, nil
}

// SetPrice sets the price returned for a token
func (m *MockPriceRepository) SetPrice(chainID, address string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[key(chainID, address)] = price
}

// MockHealthChecker is a mock implementation of HealthChecker
type MockHealthChecker struct {
	callLog

	mu    sync.RWMutex
	Error error
}

func NewMockHealthChecker(healthy bool) *MockHealthChecker {
	m := &MockHealthChecker{}
	m.SetHealthy(healthy)
	return m
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	m.record("HealthCheck")

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Error
}

func (m *MockHealthChecker) SetHealthy(healthy bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if healthy {
		m.Error = nil
	} else {
		m.Error = errors.New("health check failed")
	}
}
