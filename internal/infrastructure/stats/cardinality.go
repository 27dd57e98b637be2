package stats

import (
	"strings"
	"sync"

	"github.com/axiomhq/hyperloglog"
)

// CardinalityTracker estimates how many distinct wallets and tokens the service has seen.
// The counts approximate the number of cache keys each tier can grow to.
type CardinalityTracker struct {
	mu      sync.Mutex
	wallets *hyperloglog.Sketch
	tokens  *hyperloglog.Sketch
}

// Cardinality is a snapshot of the distinct-key estimates
type Cardinality struct {
	Wallets uint64 `json:"distinctWallets"`
	Tokens  uint64 `json:"distinctTokens"`
}

func NewCardinalityTracker() *CardinalityTracker {
	return &CardinalityTracker{
		wallets: hyperloglog.New14(), // 1.63% error
		tokens:  hyperloglog.New16(), // 0.81% error, token keys feed two tiers
	}
}

// RecordWallet counts a chain-scoped wallet address
func (t *CardinalityTracker) RecordWallet(chainID, address string) {
	key := []byte(chainID + ":" + strings.ToLower(address))

	t.mu.Lock()
	t.wallets.Insert(key)
	t.mu.Unlock()
}

// RecordTokens counts chain-scoped token addresses
func (t *CardinalityTracker) RecordTokens(chainID string, addresses []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, address := range addresses {
		t.tokens.Insert([]byte(chainID + ":" + strings.ToLower(address)))
	}
}

// Estimate returns the current estimates
func (t *CardinalityTracker) Estimate() Cardinality {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Cardinality{
		Wallets: t.wallets.Estimate(),
		Tokens:  t.tokens.Estimate(),
	}
}
