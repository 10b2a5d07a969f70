package sdkerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindPredicates(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		validation bool
		contract   bool
		network    bool
		wallet     bool
		code       string
	}{
		{"validation", Validation("Latitude must be between -90 and 90", "latitude"), true, false, false, false, CodeValidation},
		{"contract", Contract("Failed to get event", errors.New("execution reverted")), false, true, false, false, CodeContract},
		{"network", Network("rpc unreachable", 1, errors.New("dial tcp")), false, false, true, false, CodeNetwork},
		{"wallet", ErrWalletNotConnected, false, false, false, true, CodeWallet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.True(t, IsAssembleError(wrapped))
			assert.Equal(t, tt.validation, IsValidation(wrapped))
			assert.Equal(t, tt.contract, IsContract(wrapped))
			assert.Equal(t, tt.network, IsNetwork(wrapped))
			assert.Equal(t, tt.wallet, IsWallet(wrapped))

			var sdkErr *Error
			require.True(t, errors.As(wrapped, &sdkErr))
			assert.Equal(t, tt.code, sdkErr.Code)
		})
	}

	assert.False(t, IsAssembleError(errors.New("plain")))
	assert.False(t, IsAssembleError(nil))
}

func TestValidationCarriesField(t *testing.T) {
	err := Validation("Longitude must be between -180 and 180", "longitude")
	assert.Equal(t, "Longitude must be between -180 and 180", err.Error())
	assert.Equal(t, "longitude", FieldOf(fmt.Errorf("pack: %w", err)))
}

func TestWrapKeepsClassifiedErrors(t *testing.T) {
	v := Validation("bad", "quantity")
	assert.Same(t, v, Wrap("Failed to purchase tickets", v))

	w := Wrap("Failed to purchase tickets", ErrWalletNotConnected)
	assert.True(t, IsWallet(w))

	c := Wrap("Failed to purchase tickets", errors.New("boom"))
	assert.True(t, IsContract(c))
	assert.Contains(t, c.Error(), "boom")

	assert.NoError(t, Wrap("x", nil))
}

func TestRevertNamePropagates(t *testing.T) {
	inner := Revert("call purchaseTickets", "BadQty", errors.New("execution reverted"))
	outer := Contract("Failed to purchase tickets", inner)

	assert.Equal(t, "BadQty", outer.RevertName)
	assert.Equal(t, "BadQty", RevertNameOf(outer))
	assert.Equal(t, "Failed to purchase tickets: reverted with BadQty", outer.Error())
}

func TestSentinelComparison(t *testing.T) {
	err := fmt.Errorf("create event: %w", Wallet("Wallet not connected"))
	assert.True(t, errors.Is(err, ErrWalletNotConnected))
	assert.False(t, errors.Is(err, Wallet("other")))
}
