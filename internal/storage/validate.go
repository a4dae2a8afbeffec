package storage

import (
	"fmt"
	"regexp"
	"strings"
)

// Ethereum address regex pattern (0x followed by 40 hexadecimal characters)
var ethereumAddressRegex = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// ValidateAddress validates an Ethereum address format
func ValidateAddress(address string) error {
	if !ethereumAddressRegex.MatchString(address) {
		return fmt.Errorf("invalid address format: %s (must be 0x followed by 40 hexadecimal characters)", address)
	}
	return nil
}

// NormalizeAddress lowercases an address for storage and comparison.
func NormalizeAddress(address string) string {
	return strings.ToLower(address)
}
