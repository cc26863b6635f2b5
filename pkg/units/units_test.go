package units

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatEther(t *testing.T) {
	tests := []struct {
		name     string
		wei      *big.Int
		decimals int
		want     string
	}{
		{name: "nil", wei: nil, decimals: 4, want: "0.0000"},
		{name: "one ether", wei: Ether(1, 0), decimals: 4, want: "1.0000"},
		{name: "exact fraction", wei: Ether(12345, 4), decimals: 4, want: "1.2345"},
		{name: "rounds up", wei: big.NewInt(123456000000000000), decimals: 4, want: "0.1235"},
		{name: "rounds down", wei: big.NewInt(123449999999999999), decimals: 4, want: "0.1234"},
		{name: "negative", wei: Ether(-25, 1), decimals: 4, want: "-2.5000"},
		{name: "negative rounding to zero", wei: big.NewInt(-1), decimals: 4, want: "0.0000"},
		{name: "one wei full precision", wei: big.NewInt(1), decimals: 18, want: "0.000000000000000001"},
		{name: "no decimals", wei: Ether(15, 1), decimals: 0, want: "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatEther(tt.wei, tt.decimals))
		})
	}
}

func TestParseWei(t *testing.T) {
	v, err := ParseWei("1000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, Ether(1, 0), v)

	v, err = ParseWei("")
	require.NoError(t, err)
	assert.Equal(t, 0, v.Sign())

	_, err = ParseWei("1.5")
	assert.Error(t, err)
}

func TestFormatGwei(t *testing.T) {
	assert.Equal(t, "20.00", FormatGwei(big.NewInt(20_000_000_000), 2))
	assert.Equal(t, "1.5", FormatGwei(big.NewInt(1_450_000_000), 1))
	assert.Equal(t, "0.00", FormatGwei(nil, 2))
}
