package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCents(t *testing.T) {
	tests := []struct {
		amount float64
		want   int64
	}{
		{0, 0},
		{0.01, 1},
		{350.1, 35010},
		{350.2, 35020},
		{700.3, 70030},
		{19.99, 1999},
		{1000, 100000},
		{999999999.99, 99999999999},
	}

	for _, tt := range tests {
		got, err := ToCents(tt.amount)
		require.NoError(t, err, tt.amount)
		assert.Equal(t, tt.want, got, tt.amount)
	}
}

func TestToCents_Rejects(t *testing.T) {
	for _, amount := range []float64{0.005, 100.001, 350.105, -1, MaxAmount * 10, math.NaN(), math.Inf(1)} {
		_, err := ToCents(amount)
		assert.ErrorIs(t, err, ErrInvalidAmount, amount)
	}
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "350.20", FormatCents(35020))
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "-12.30", FormatCents(-1230))
	assert.Equal(t, 350.2, FromCents(35020))
}
