package utils

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/assemble-go/pkg/sdkerrors"
)

func TestFormatEther(t *testing.T) {
	tests := []struct {
		wei  *big.Int
		want string
	}{
		{nil, "0.0000"},
		{big.NewInt(1), "0.0000"},
		{MustParseEther("1.5"), "1.5000"},
		{MustParseEther("0.12349"), "0.1234"},
		{MustParseEther("-2"), "-2.0000"},
		{new(big.Int).Mul(big.NewInt(123456), WeiPerEther()), "123456.0000"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatEther(tt.wei))
		})
	}
}

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "1.50", FormatUnits(big.NewInt(1_500_000), 6, 2))
	assert.Equal(t, "0.000001000", FormatUnits(big.NewInt(1), 6, 9))
	assert.Equal(t, "7", FormatUnits(big.NewInt(7), 0, 0))
}

func TestParseEther(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"1", "1000000000000000000", false},
		{"0.05", "50000000000000000", false},
		{".5", "500000000000000000", false},
		{"1.", "1000000000000000000", false},
		{" 2.000000000000000001 ", "2000000000000000001", false},
		{"-0.1", "-100000000000000000", false},
		{"", "", true},
		{".", "", true},
		{"1.0000000000000000001", "", true},
		{"1e18", "", true},
		{"abc", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEther(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, sdkerrors.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}
