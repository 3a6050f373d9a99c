package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCode(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected Code
	}{
		{"numeric left pad", "7", "00000007"},
		{"alphanumeric right pad", "AB1", "AB100000"},
		{"truncate long code", "ABCDEFGHI", "ABCDEFGH"},
		{"exact width kept", "RM000123", "RM000123"},
		{"numeric exact width", "12345678", "12345678"},
		{"long numeric passes through", "1234567890", "1234567890"},
		{"surrounding whitespace trimmed", "  42 ", "00000042"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"nan lower", "nan", ""},
		{"nan mixed case", "NaN", ""},
		{"decimal point is not numeric", "1.5", "1.500000"},
		{"negative sign is not numeric", "-7", "-7000000"},
		{"multibyte runes counted once", "ÄB", "ÄB000000"},
		{"cut ending in whitespace is renormalized", "1234567 X", "01234567"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeCode(tc.raw))
		})
	}
}

func TestNormalizeCode_Idempotent(t *testing.T) {
	inputs := []string{"7", "AB1", "ABCDEFGHI", "", " x ", "nan", "00000007", "1.5", "ÄÖÜ", "123456789012", "ABCDEFG   X", "1234567 X"}
	for _, in := range inputs {
		once := NormalizeCode(in)
		twice := NormalizeCode(string(once))
		assert.Equal(t, once, twice, "normalize should be idempotent for %q", in)
		if !once.IsEmpty() {
			assert.GreaterOrEqual(t, len([]rune(once.String())), CodeWidth)
		}
	}
}

func TestNormalizeCodes_DropsEmpty(t *testing.T) {
	codes := NormalizeCodes([]string{"1", "", "nan", "FG1"})
	assert.Equal(t, []Code{"00000001", "FG100000"}, codes)
}
