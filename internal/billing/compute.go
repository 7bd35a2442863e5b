package billing

import (
	"github.com/shopspring/decimal"
)

// Computation is the derived money side of an invoice.
type Computation struct {
	PerLineAmounts []decimal.Decimal
	TotalAmount    decimal.Decimal
	AmountInWords  string
}

// Calculator computes invoice totals and their word form.
type Calculator struct {
	words Words
}

// NewCalculator returns a calculator that spells totals with w.
func NewCalculator(w Words) *Calculator {
	return &Calculator{words: w}
}

// DefaultCalculator spells totals in Indian English rupees.
func DefaultCalculator() *Calculator {
	return NewCalculator(DefaultWords())
}

// Compute validates items and derives per-line amounts, the grand total
// and the amount in words. Invalid input never reaches the speller.
func (c *Calculator) Compute(items []LineItem) (*Computation, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}
	return c.Summarize(items), nil
}

// Summarize does the arithmetic of Compute without validation. It is
// used for persisted bills whose items were validated on creation.
func (c *Calculator) Summarize(items []LineItem) *Computation {
	amounts := make([]decimal.Decimal, len(items))
	total := decimal.Zero
	for i, item := range items {
		amounts[i] = item.Amount()
		total = total.Add(amounts[i])
	}

	return &Computation{
		PerLineAmounts: amounts,
		TotalAmount:    total,
		AmountInWords:  c.words.AmountInWords(total),
	}
}

// Words returns the word configuration of the calculator.
func (c *Calculator) Words() Words {
	return c.words
}

// Total is the sum of the rounded line amounts.
func Total(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount())
	}
	return total
}
