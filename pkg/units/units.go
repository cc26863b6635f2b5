// Package units converts between wei and human readable ether amounts.
package units

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/params"
)

const (
	etherDecimals = 18
	gweiDecimals  = 9
)

var weiPerEther = big.NewInt(params.Ether)

// FormatEther renders a wei amount as ether with exactly decimals fractional
// digits, rounding half away from zero. A nil amount renders as zero.
func FormatEther(wei *big.Int, decimals int) string {
	return formatUnits(wei, etherDecimals, decimals)
}

// FormatGwei renders a wei amount as gwei, used for gas prices.
func FormatGwei(wei *big.Int, decimals int) string {
	return formatUnits(wei, gweiDecimals, decimals)
}

// formatUnits renders wei/10^unit with exactly decimals fractional digits.
func formatUnits(wei *big.Int, unit, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	if decimals > unit {
		decimals = unit
	}
	if wei == nil {
		wei = new(big.Int)
	}

	abs := new(big.Int).Abs(wei)
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(unit-decimals)), nil)

	// round to the requested precision
	half := new(big.Int).Rsh(scale, 1)
	if scale.Cmp(big.NewInt(1)) > 0 {
		abs.Add(abs, half)
	}
	abs.Quo(abs, scale)

	precision := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(abs, precision, new(big.Int))

	sign := ""
	if wei.Sign() < 0 && abs.Sign() != 0 {
		sign = "-"
	}
	if decimals == 0 {
		return sign + whole.String()
	}
	return fmt.Sprintf("%s%s.%0*d", sign, whole.String(), decimals, frac.Int64())
}

// ParseWei parses a base-10 wei amount as returned by indexers.
func ParseWei(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid wei amount: %q", s)
	}
	return v, nil
}

// Ether returns n/10^decimals ether expressed in wei. Ether(12345, 4) is 1.2345 ETH.
func Ether(n int64, decimals int) *big.Int {
	wei := new(big.Int).Mul(big.NewInt(n), weiPerEther)
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return wei.Quo(wei, scale)
}
