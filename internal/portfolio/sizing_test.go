package portfolio

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSizeLong(t *testing.T) {
	shares := sizeLong(decimal.NewFromInt(1000), decimal.NewFromInt(100), decimal.NewFromFloat(0.01))
	assert.EqualValues(t, 9, shares)
}

func TestSizeShort(t *testing.T) {
	shares := sizeShort(decimal.NewFromInt(8000), decimal.NewFromInt(150), decimal.NewFromFloat(0.01))
	assert.EqualValues(t, 35, shares)
}

func TestSizeByRisk(t *testing.T) {
	shares := sizeByRisk(decimal.NewFromInt(5000), decimal.NewFromInt(25))
	assert.EqualValues(t, 200, shares)
}

func TestFloorShares_ZeroOnNonPositiveInputs(t *testing.T) {
	assert.EqualValues(t, 0, floorShares(decimal.Zero, decimal.NewFromInt(10)))
	assert.EqualValues(t, 0, floorShares(decimal.NewFromInt(-5), decimal.NewFromInt(10)))
	assert.EqualValues(t, 0, floorShares(decimal.NewFromInt(100), decimal.Zero))
}

func TestSizeLong_ExactThreshold(t *testing.T) {
	// 9 shares at (100+0.01) costs exactly 900.09; allocation of exactly
	// that amount must still floor to 9, not drop to 8.
	shares := sizeLong(decimal.NewFromFloat(900.09), decimal.NewFromInt(100), decimal.NewFromFloat(0.01))
	assert.EqualValues(t, 9, shares)
}
