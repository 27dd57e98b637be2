package entities

// NativeTokenAddress is the pseudo-address upstream uses for the chain's native asset
const NativeTokenAddress = "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"

// DefaultDecimals is assumed when a token does not report its decimals
const DefaultDecimals = 18

// TokenMetadata holds descriptive data for an ERC-20 token
type TokenMetadata struct {
	Address  string   `json:"address"`
	Symbol   string   `json:"symbol"`
	Name     string   `json:"name"`
	Decimals int      `json:"decimals"`
	LogoURI  string   `json:"logoURI"`
	Tags     []string `json:"tags,omitempty"`
}

// NativeTokenMetadata returns the hardcoded record for the native asset.
// The details endpoint does not reliably serve the pseudo-address.
func NativeTokenMetadata() TokenMetadata {
	return TokenMetadata{
		Address:  NativeTokenAddress,
		Symbol:   "ETH",
		Name:     "Ethereum",
		Decimals: DefaultDecimals,
	}
}

// EnrichedToken is a held token combined with its metadata and price
type EnrichedToken struct {
	Address  string         `json:"address"`
	Symbol   string         `json:"symbol"`
	Name     string         `json:"name"`
	Balance  string         `json:"balance"` // Raw integer amount
	Decimals int            `json:"decimals"`
	Price    float64        `json:"price"`
	Value    float64        `json:"value"`
	LogoURI  string         `json:"logoURI"`
	Metadata *TokenMetadata `json:"metadata"`
}
