package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Speller turns a positive whole amount into words.
type Speller interface {
	Spell(n int64) string
}

// Words renders totals as "<words> <unit>".
type Words struct {
	Speller Speller
	// Unit is appended after the spelled number, e.g. "rupees only".
	Unit string
	// Zero is returned for totals that are zero or negative.
	Zero string
}

// DefaultWords spells in Indian English and appends "rupees only".
func DefaultWords() Words {
	return NewWords("rupees only")
}

// NewWords returns an Indian English configuration for the given unit phrase.
func NewWords(unit string) Words {
	unit = strings.TrimSpace(unit)
	return Words{
		Speller: IndianSpeller{},
		Unit:    unit,
		Zero:    strings.TrimSpace("zero " + unit),
	}
}

// AmountInWords spells total rounded half-up to whole units. Zero,
// negative and sub-unit totals return the fixed zero phrase and never
// reach the speller.
func (w Words) AmountInWords(total decimal.Decimal) string {
	if !total.IsPositive() || w.Speller == nil {
		return w.Zero
	}
	n := total.Round(0)
	if !n.IsPositive() {
		return w.Zero
	}
	return strings.TrimSpace(w.spell(n) + " " + w.Unit)
}

var crore = decimal.New(1, 7)

// spell hands n to the speller in crore sized chunks once it no longer
// fits an int64. Stored bills are not bounded by MaxAmount.
func (w Words) spell(n decimal.Decimal) string {
	if n.BigInt().IsInt64() {
		return w.Speller.Spell(n.IntPart())
	}
	q, r := n.QuoRem(crore, 0)
	out := w.spell(q) + " crore"
	if r.IsPositive() {
		out += " " + w.Speller.Spell(r.IntPart())
	}
	return out
}

// IndianSpeller spells numbers in English words using the Indian grouping
// of thousand, lakh and crore.
type IndianSpeller struct{}

// Spell returns the lowercase words for n, which must be positive.
func (s IndianSpeller) Spell(n int64) string {
	var parts []string

	if n >= 10000000 {
		parts = append(parts, s.Spell(n/10000000)+" crore")
		n %= 10000000
	}
	if n >= 100000 {
		parts = append(parts, under100(n/100000)+" lakh")
		n %= 100000
	}
	if n >= 1000 {
		parts = append(parts, under100(n/1000)+" thousand")
		n %= 1000
	}
	if n >= 100 {
		parts = append(parts, ones[n/100]+" hundred")
		n %= 100
	}
	if n > 0 {
		if len(parts) > 0 {
			parts = append(parts, "and "+under100(n))
		} else {
			parts = append(parts, under100(n))
		}
	}

	return strings.Join(parts, " ")
}

func under100(n int64) string {
	if n < 20 {
		return ones[n]
	}
	out := tens[n/10]
	if n%10 != 0 {
		out += " " + ones[n%10]
	}
	return out
}

var ones = []string{
	"", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
	"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen",
	"seventeen", "eighteen", "nineteen",
}

var tens = []string{
	"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety",
}
