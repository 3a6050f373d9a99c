package entities

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFloorBatches(t *testing.T) {
	testCases := []struct {
		name      string
		available string
		perBatch  string
		expected  int64
	}{
		{"exact fit", "30", "30", 1},
		{"partial batch dropped", "59.999", "30", 1},
		{"fractional requirement", "1", "0.3", 3},
		{"less than one batch", "10", "30", 0},
		{"largest representable count", "9223372036854775807", "1", math.MaxInt64},
		{"saturates beyond int64", "10000000000000", "0.000001", math.MaxInt64},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := FloorBatches(decimal.RequireFromString(tc.available), decimal.RequireFromString(tc.perBatch))
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestTargetBatches(t *testing.T) {
	assert.Equal(t, int64(1), TargetBatches(decimal.NewFromInt(40)))
	assert.Equal(t, int64(1), TargetBatches(decimal.NewFromInt(10)))
	assert.Equal(t, int64(2), TargetBatches(decimal.NewFromInt(50)))
	assert.Equal(t, int64(4), TargetBatches(decimal.NewFromInt(124)))
}

func TestClampDecimalPlaces(t *testing.T) {
	assert.Equal(t, 0, ClampDecimalPlaces(-2))
	assert.Equal(t, 3, ClampDecimalPlaces(3))
	assert.Equal(t, 6, ClampDecimalPlaces(9))
}

func TestFormatLabels(t *testing.T) {
	assert.Equal(t, "1,250.0 Kg", FormatKg(decimal.NewFromInt(1250)))
	assert.Equal(t, "0.0 Kg", FormatKg(decimal.Zero))
	assert.Equal(t, "25.0 Kg", FormatKg(BatchesToKg(1)))
	assert.Equal(t, "1,000.5000 Kg", FormatQuantityKg(decimal.RequireFromString("1000.5")))
	assert.Equal(t, "12.346", FormatFixed(decimal.RequireFromString("12.3456"), 3))
	assert.Equal(t, "0.0000", FormatFixed(decimal.Zero, 4))
	assert.Equal(t, "12,345", FormatCount(12345))
}
