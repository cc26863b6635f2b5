package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// strictAddress is 0x followed by exactly 40 hex digits.
	strictAddress = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	// hexLike matches input that was probably meant to be an address.
	hexLike = regexp.MustCompile(`^(0[xX])?[0-9a-fA-F]{30,}$`)
)

// ValidateAddress validates an Ethereum address format (0x + 40 hex characters).
// Checksums are not enforced: addresses are case-insensitive.
func ValidateAddress(addr string) error {
	if addr == "" {
		return fmt.Errorf("address cannot be empty")
	}
	if !strings.HasPrefix(addr, "0x") {
		return fmt.Errorf("address must start with 0x")
	}
	if len(addr) != 2+2*common.AddressLength {
		return fmt.Errorf("invalid address length: expected 40 characters (without 0x), got %d", len(addr)-2)
	}
	if !strictAddress.MatchString(addr) || !common.IsHexAddress(addr) {
		return fmt.Errorf("invalid hex address: %s", addr)
	}
	return nil
}

// IsValidAddress reports whether addr passes ValidateAddress.
func IsValidAddress(addr string) bool {
	return ValidateAddress(addr) == nil
}

// LooksLikeAddress reports whether the input resembles an address attempt:
// a 0x prefix or a long run of hex digits.
func LooksLikeAddress(s string) bool {
	return strings.HasPrefix(strings.ToLower(s), "0x") || hexLike.MatchString(s)
}

// NormalizeAddress converts an address to its lowercase 0x form.
func NormalizeAddress(addr string) string {
	return strings.ToLower(common.HexToAddress(addr).Hex())
}

// ValidateAndNormalizeAddress validates an address and returns its normalized form
func ValidateAndNormalizeAddress(addr string) (string, error) {
	if err := ValidateAddress(addr); err != nil {
		return "", err
	}
	return NormalizeAddress(addr), nil
}
