package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of the list filter and of bill dates
// that carry no time component.
const DateLayout = "2006-01-02"

// FlexString decodes a JSON string, number or null into a string.
// The backend returns serial numbers either way.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = FlexString(num.String())
	return nil
}

// String returns the decoded value.
func (s FlexString) String() string {
	return string(s)
}

// BillProduct is a persisted line item.
type BillProduct struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Unit     string          `json:"unit,omitempty"`
}

// ProductInput is a line item in a create request.
type ProductInput struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

// CreateBillRequest is the body of POST /api/bills.
type CreateBillRequest struct {
	BillerName    string         `json:"billerName"`
	BillerNumber  string         `json:"billerNumber"`
	BillToAddress string         `json:"billToAddress,omitempty"`
	BillToCity    string         `json:"billToCity,omitempty"`
	Date          time.Time      `json:"date"`
	Products      []ProductInput `json:"products"`
	TotalAmount   float64        `json:"totalAmount"`
}

// CreateBillResponse is the part of the create response the client relies on.
type CreateBillResponse struct {
	InvoiceNo FlexString `json:"invoiceNo"`
	ID        string     `json:"_id,omitempty"`
}

// BillSummary is one row of GET /api/bills.
type BillSummary struct {
	ID          string          `json:"_id"`
	Serial      FlexString      `json:"serial"`
	BillerName  string          `json:"billerName"`
	Date        string          `json:"date"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// ParsedDate returns the bill date, or the zero time when it cannot be parsed.
func (b BillSummary) ParsedDate() time.Time {
	return parseDate(b.Date)
}

// Bill is the detail returned by GET /api/bills/:id.
type Bill struct {
	ID             string              `json:"_id"`
	Serial         FlexString          `json:"serial"`
	BillerName     string              `json:"billerName"`
	BillerNumber   string              `json:"billerNumber"`
	BillTo         string              `json:"billTo,omitempty"`
	BillToAddress  string              `json:"billToAddress,omitempty"`
	BillToCity     string              `json:"billToCity,omitempty"`
	Address        string              `json:"address,omitempty"`
	Date           string              `json:"date"`
	Products       []BillProduct       `json:"products"`
	TotalAmount    decimal.Decimal     `json:"totalAmount"`
	Received       decimal.NullDecimal `json:"received"`
	Balance        decimal.NullDecimal `json:"balance"`
	CurrentBalance decimal.NullDecimal `json:"currentBalance"`
	CreatedAt      string              `json:"createdAt,omitempty"`
}

// ParsedDate returns the bill date, or the zero time when it cannot be parsed.
func (b *Bill) ParsedDate() time.Time {
	return parseDate(b.Date)
}

// BillFilter narrows the list to an inclusive date range. Nil bounds are open.
type BillFilter struct {
	From *time.Time
	To   *time.Time
}

// Empty reports whether the filter has no bounds.
func (f BillFilter) Empty() bool {
	return f.From == nil && f.To == nil
}

// ParseFilter builds a filter from YYYY-MM-DD strings; blank values stay open.
func ParseFilter(from, to string) (BillFilter, error) {
	var f BillFilter
	if from = strings.TrimSpace(from); from != "" {
		t, err := time.Parse(DateLayout, from)
		if err != nil {
			return BillFilter{}, err
		}
		f.From = &t
	}
	if to = strings.TrimSpace(to); to != "" {
		t, err := time.Parse(DateLayout, to)
		if err != nil {
			return BillFilter{}, err
		}
		f.To = &t
	}
	return f, nil
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
