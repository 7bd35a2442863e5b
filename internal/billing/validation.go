package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmount bounds quantities, prices, line amounts and the grand total.
// Values below it survive the JSON number encoding used by the billing API
// and are always spelled exactly.
var MaxAmount = decimal.New(1, 13)

const totalTooLargeMessage = "The bill total is too large"

// ParseDraft validates raw form input and converts it into a Draft.
// The first violated rule is returned as a *ValidationError; rules are
// checked in the order the form shows them. The returned draft has no date.
func ParseDraft(in DraftInput, rules Rules) (Draft, error) {
	name := strings.TrimSpace(in.BillerName)
	if name == "" {
		return Draft{}, NewValidationError("billerName", in.BillerName, ErrMissingBillerName,
			"Please enter the biller name")
	}

	contact := strings.TrimSpace(in.BillerContact)
	if contact == "" {
		return Draft{}, NewValidationError("billerNumber", in.BillerContact, ErrMissingBillerContact,
			"Please enter the biller contact number")
	}
	if rules.ContactPattern != nil && !rules.ContactPattern.MatchString(contact) {
		return Draft{}, NewValidationError("billerNumber", in.BillerContact, ErrInvalidBillerContact,
			"Please enter a valid 10 digit contact number")
	}

	if len(in.Items) == 0 {
		return Draft{}, NewValidationError("products", 0, ErrNoLineItems,
			"Please add at least one product")
	}

	items := make([]LineItem, 0, len(in.Items))
	for _, raw := range in.Items {
		item, err := parseItem(raw)
		if err != nil {
			return Draft{}, err
		}
		items = append(items, item)
	}
	if err := checkTotal(items); err != nil {
		return Draft{}, err
	}

	return Draft{
		Biller: Biller{
			Name:    name,
			Contact: contact,
			Address: strings.TrimSpace(in.BillerAddress),
			City:    strings.TrimSpace(in.BillerCity),
		},
		Items: items,
	}, nil
}

func parseItem(raw ItemInput) (LineItem, error) {
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return LineItem{}, NewValidationError("products.name", raw.Name, ErrMissingItemName,
			"Please enter all product names")
	}

	qty, ok := parsePositive(raw.Quantity)
	if !ok {
		return LineItem{}, NewValidationError("products.quantity", raw.Quantity, ErrInvalidQuantity,
			"Please enter valid quantities for all products")
	}

	price, ok := parsePositive(raw.Price)
	if !ok {
		return LineItem{}, NewValidationError("products.price", raw.Price, ErrInvalidPrice,
			"Please enter valid prices for all products")
	}

	return LineItem{
		Name:     name,
		Quantity: qty,
		Price:    price,
		Unit:     strings.TrimSpace(raw.Unit),
	}, nil
}

func parsePositive(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !inRange(d) {
		return decimal.Zero, false
	}
	return d, true
}

// inRange reports whether d is positive, below MaxAmount and unchanged by
// a round trip through float64.
func inRange(d decimal.Decimal) bool {
	if !d.IsPositive() || !d.LessThan(MaxAmount) {
		return false
	}
	return decimal.NewFromFloat(d.InexactFloat64()).Equal(d)
}

func checkTotal(items []LineItem) error {
	total := decimal.Zero
	for _, item := range items {
		amount := item.Amount()
		total = total.Add(amount)
		if !amount.LessThan(MaxAmount) || !total.LessThan(MaxAmount) {
			return NewValidationError("products", total.String(), ErrTotalTooLarge, totalTooLargeMessage)
		}
	}
	return nil
}

// validateItems applies the line item rules to already parsed items.
func validateItems(items []LineItem) error {
	if len(items) == 0 {
		return NewValidationError("products", 0, ErrNoLineItems, "Please add at least one product")
	}
	for _, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			return NewValidationError("products.name", item.Name, ErrMissingItemName,
				"Please enter all product names")
		}
		if !inRange(item.Quantity) {
			return NewValidationError("products.quantity", item.Quantity.String(), ErrInvalidQuantity,
				"Please enter valid quantities for all products")
		}
		if !inRange(item.Price) {
			return NewValidationError("products.price", item.Price.String(), ErrInvalidPrice,
				"Please enter valid prices for all products")
		}
	}
	return checkTotal(items)
}
