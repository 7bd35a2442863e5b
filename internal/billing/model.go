// Package billing holds the invoice arithmetic of the e-Billing client:
// draft validation, per-line amounts, grand total and the amount in words.
//
// Everything in this package is pure. Money is carried as decimal.Decimal
// and rounded to two places per line, so totals do not drift when many
// lines are added up.
package billing

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultUnit is printed next to quantities when an item has no unit.
const DefaultUnit = "Pcs."

// LineItem is one product/quantity/price tuple on an invoice.
type LineItem struct {
	Name     string
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Unit     string
}

// Amount returns quantity times price rounded to two decimal places.
func (li LineItem) Amount() decimal.Decimal {
	return li.Quantity.Mul(li.Price).Round(2)
}

// Biller identifies who the bill is made out to.
type Biller struct {
	Name    string
	Contact string
	Address string
	City    string
}

// Draft is a validated, not yet persisted invoice.
type Draft struct {
	Biller Biller
	Date   time.Time
	Items  []LineItem
}

// ItemInput is one line item exactly as typed into the form.
type ItemInput struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Price    string `json:"price"`
	Unit     string `json:"unit,omitempty"`
}

// DraftInput is the raw form state. It is what gets preserved when a
// submission fails.
type DraftInput struct {
	BillerName    string      `json:"billerName"`
	BillerContact string      `json:"billerNumber"`
	BillerAddress string      `json:"billToAddress,omitempty"`
	BillerCity    string      `json:"billToCity,omitempty"`
	Items         []ItemInput `json:"products"`
}

// Clone returns a deep copy of the input.
func (in DraftInput) Clone() DraftInput {
	out := in
	out.Items = append([]ItemInput(nil), in.Items...)
	return out
}

// Rules tunes draft validation.
type Rules struct {
	// ContactPattern, when set, must match the trimmed biller contact.
	ContactPattern *regexp.Regexp
}

// DefaultContactPattern accepts a ten digit phone number.
var DefaultContactPattern = regexp.MustCompile(`^\d{10}$`)

// DefaultRules returns the validation rules used by the form.
func DefaultRules() Rules {
	return Rules{ContactPattern: DefaultContactPattern}
}
