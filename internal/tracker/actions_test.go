package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionRoundTrip(t *testing.T) {
	for _, kind := range []ActionKind{ActionBalance, ActionTransactions, ActionAnalytics, ActionUntrack} {
		token := EncodeAction(kind, walletF)
		assert.LessOrEqual(t, len(token), 64)

		gotKind, gotAddress, err := ParseAction(token)
		require.NoError(t, err)
		assert.Equal(t, kind, gotKind)
		assert.Equal(t, walletF, gotAddress)
	}
}

func TestParseActionNormalizes(t *testing.T) {
	_, address, err := ParseAction("bal:0xFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF")
	require.NoError(t, err)
	assert.Equal(t, walletF, address)
}

func TestParseActionErrors(t *testing.T) {
	for _, token := range []string{
		"",
		"bal",
		"bal:0x123",
		"refresh_tx_" + walletF,
		"zap:" + walletF,
	} {
		_, _, err := ParseAction(token)
		assert.Error(t, err, token)
	}
}

func TestParseActionAsk(t *testing.T) {
	kind, address, err := ParseAction("ask:")
	require.NoError(t, err)
	assert.Equal(t, ActionAsk, kind)
	assert.Empty(t, address)
}
