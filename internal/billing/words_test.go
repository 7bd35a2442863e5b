package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndianSpeller(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{1, "one"},
		{19, "nineteen"},
		{40, "forty"},
		{170, "one hundred and seventy"},
		{1000, "one thousand"},
		{1005, "one thousand and five"},
		{25350, "twenty five thousand three hundred and fifty"},
		{100000, "one lakh"},
		{913183, "nine lakh thirteen thousand one hundred and eighty three"},
		{10000000, "one crore"},
		{1234567890, "one hundred and twenty three crore forty five lakh sixty seven thousand eight hundred and ninety"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IndianSpeller{}.Spell(tt.n), "n=%d", tt.n)
	}
}

func TestAmountInWords_ZeroPhrase(t *testing.T) {
	speller := &countingSpeller{}
	w := Words{Speller: speller, Unit: "rupees only", Zero: "zero rupees only"}

	assert.Equal(t, "zero rupees only", w.AmountInWords(decimal.Zero))
	assert.Equal(t, "zero rupees only", w.AmountInWords(decimal.NewFromInt(-5)))
	assert.Equal(t, "zero rupees only", w.AmountInWords(decimal.RequireFromString("0.40")))
	assert.Zero(t, speller.calls)
}

func TestAmountInWords_RoundsHalfUp(t *testing.T) {
	w := DefaultWords()

	assert.Equal(t, "one hundred and seventy one rupees only", w.AmountInWords(decimal.RequireFromString("170.50")))
	assert.Equal(t, "one hundred and seventy rupees only", w.AmountInWords(decimal.RequireFromString("170.49")))
}

func TestNewWords_CustomUnit(t *testing.T) {
	w := NewWords("dollars only")

	assert.Equal(t, "zero dollars only", w.Zero)
	assert.Equal(t, "twelve dollars only", w.AmountInWords(decimal.NewFromInt(12)))
}

func TestAmountInWords_LargestValidTotal(t *testing.T) {
	calc := DefaultCalculator()

	got, err := calc.Compute([]LineItem{item("Plot", "1", "9999999999999.49")})
	require.NoError(t, err)
	assert.Equal(t,
		"nine lakh ninety nine thousand nine hundred and ninety nine crore ninety nine lakh ninety nine thousand nine hundred and ninety nine rupees only",
		got.AmountInWords)
}

func TestAmountInWords_BeyondInt64(t *testing.T) {
	w := DefaultWords()

	assert.Equal(t, "two lakh crore crore rupees only",
		w.AmountInWords(decimal.RequireFromString("20000000000000000000")))
	assert.Equal(t, "ten lakh crore crore one hundred and five rupees only",
		w.AmountInWords(decimal.RequireFromString("100000000000000000105")))
}
