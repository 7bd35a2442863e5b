package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() DraftInput {
	return DraftInput{
		BillerName:    "Mirzewala Telecom",
		BillerContact: "9876543210",
		Items: []ItemInput{
			{Name: "Pen", Quantity: "2", Price: "10"},
			{Name: "Book", Quantity: "1", Price: "150.00"},
		},
	}
}

func TestParseDraft_Valid(t *testing.T) {
	draft, err := ParseDraft(validInput(), DefaultRules())
	require.NoError(t, err)

	assert.Equal(t, "Mirzewala Telecom", draft.Biller.Name)
	assert.Equal(t, "9876543210", draft.Biller.Contact)
	require.Len(t, draft.Items, 2)
	assert.Equal(t, "20.00", draft.Items[0].Amount().StringFixed(2))
	assert.True(t, draft.Date.IsZero())
}

func TestParseDraft_Rules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *DraftInput)
		rule    error
		field   string
		message string
	}{
		{
			name:    "blank biller name",
			mutate:  func(in *DraftInput) { in.BillerName = "   " },
			rule:    ErrMissingBillerName,
			field:   "billerName",
			message: "Please enter the biller name",
		},
		{
			name:    "blank contact",
			mutate:  func(in *DraftInput) { in.BillerContact = "" },
			rule:    ErrMissingBillerContact,
			field:   "billerNumber",
			message: "Please enter the biller contact number",
		},
		{
			name:    "short contact",
			mutate:  func(in *DraftInput) { in.BillerContact = "12345" },
			rule:    ErrInvalidBillerContact,
			field:   "billerNumber",
			message: "Please enter a valid 10 digit contact number",
		},
		{
			name:    "no items",
			mutate:  func(in *DraftInput) { in.Items = nil },
			rule:    ErrNoLineItems,
			field:   "products",
			message: "Please add at least one product",
		},
		{
			name:    "blank item name",
			mutate:  func(in *DraftInput) { in.Items[1].Name = "" },
			rule:    ErrMissingItemName,
			field:   "products.name",
			message: "Please enter all product names",
		},
		{
			name:    "non numeric quantity",
			mutate:  func(in *DraftInput) { in.Items[0].Quantity = "two" },
			rule:    ErrInvalidQuantity,
			field:   "products.quantity",
			message: "Please enter valid quantities for all products",
		},
		{
			name:    "missing price",
			mutate:  func(in *DraftInput) { in.Items[0].Price = " " },
			rule:    ErrInvalidPrice,
			field:   "products.price",
			message: "Please enter valid prices for all products",
		},
		{
			name:    "price beyond float precision",
			mutate:  func(in *DraftInput) { in.Items[0].Price = "10000000000000000000" },
			rule:    ErrInvalidPrice,
			field:   "products.price",
			message: "Please enter valid prices for all products",
		},
		{
			name:    "quantity at the bound",
			mutate:  func(in *DraftInput) { in.Items[0].Quantity = "10000000000000" },
			rule:    ErrInvalidQuantity,
			field:   "products.quantity",
			message: "Please enter valid quantities for all products",
		},
		{
			name: "line amount at the bound",
			mutate: func(in *DraftInput) {
				in.Items[0].Quantity = "1000"
				in.Items[0].Price = "10000000000"
			},
			rule:    ErrTotalTooLarge,
			field:   "products",
			message: "The bill total is too large",
		},
		{
			name: "total at the bound",
			mutate: func(in *DraftInput) {
				in.Items[0].Quantity = "1"
				in.Items[0].Price = "5000000000000"
				in.Items[1].Quantity = "1"
				in.Items[1].Price = "5000000000000"
			},
			rule:    ErrTotalTooLarge,
			field:   "products",
			message: "The bill total is too large",
		},
		{
			name:    "zero price",
			mutate:  func(in *DraftInput) { in.Items[1].Price = "0" },
			rule:    ErrInvalidPrice,
			field:   "products.price",
			message: "Please enter valid prices for all products",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			_, err := ParseDraft(in, DefaultRules())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.rule)

			verr, ok := IsValidationError(err)
			require.True(t, ok)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.message, verr.Message)
		})
	}
}

func TestParseDraft_PatternDisabled(t *testing.T) {
	in := validInput()
	in.BillerContact = "+91 98765"

	_, err := ParseDraft(in, Rules{})
	assert.NoError(t, err)
}

func TestDraftInput_CloneDoesNotShareItems(t *testing.T) {
	in := validInput()
	out := in.Clone()
	out.Items[0].Name = "Pencil"

	assert.Equal(t, "Pen", in.Items[0].Name)
}
