package ethereum

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/wallet-proxy/internal/domain/entities"
)

// IsValidAddress reports whether s is a 20-byte hex address, with or without 0x prefix
func IsValidAddress(s string) bool {
	return common.IsHexAddress(s)
}

// NormalizeAddress returns the lowercase 0x-prefixed form used for cache keys and lookups
func NormalizeAddress(s string) string {
	if !common.IsHexAddress(s) {
		return strings.ToLower(s)
	}
	return strings.ToLower(common.HexToAddress(s).Hex())
}

// ChecksumAddress returns the EIP-55 mixed-case form
func ChecksumAddress(s string) string {
	return common.HexToAddress(s).Hex()
}

// IsNativeToken reports whether the address is the native asset pseudo-address
func IsNativeToken(s string) bool {
	return strings.EqualFold(s, entities.NativeTokenAddress)
}
