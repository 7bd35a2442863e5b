package services

import (
	"context"
	"io"

	"ebilling/pkg/models"
)

// BillCreator persists new bills
type BillCreator interface {
	// CreateBill stores the bill and returns its invoice number
	CreateBill(ctx context.Context, req *models.CreateBillRequest) (*models.CreateBillResponse, error)
}

// BillReader reads stored bills
type BillReader interface {
	// ListBills returns bill summaries inside the filter range
	ListBills(ctx context.Context, filter models.BillFilter) ([]models.BillSummary, error)

	// GetBill returns one stored bill
	GetBill(ctx context.Context, id string) (*models.Bill, error)

	// ExcelURL is the link to the spreadsheet of all bills
	ExcelURL() string

	// DownloadExcel streams the spreadsheet of all bills into w
	DownloadExcel(ctx context.Context, w io.Writer) (int64, error)
}

// BillService is the full backend surface
type BillService interface {
	BillCreator
	BillReader
}
