package entities

// RawBalanceMap maps token contract address to a raw decimal-string balance.
// A "0" balance means the token is not held.
type RawBalanceMap map[string]string
