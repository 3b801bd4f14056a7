package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradeSideFromString(t *testing.T) {
	cases := []struct {
		in      string
		want    TradeSide
		wantErr bool
	}{
		{"BUY", SideBuy, false},
		{"buy", SideBuy, false},
		{" Sell ", SideSell, false},
		{"SELL", SideSell, false},
		{"hold", "", true},
		{"", "", true},
	}

	for _, tc := range cases {
		got, err := TradeSideFromString(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestHoldingCostBasis(t *testing.T) {
	h := Holding{
		Quantity:     decimal.RequireFromString("2.5"),
		AveragePrice: decimal.RequireFromString("100.40"),
	}
	assert.True(t, h.CostBasis().Equal(decimal.RequireFromString("251")))
}
