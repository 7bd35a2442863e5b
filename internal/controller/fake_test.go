package controller

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ebilling/internal/backend"
	"ebilling/internal/preview"
	"ebilling/pkg/models"
)

// fakeBackend is an in-memory services.BillService.
type fakeBackend struct {
	mu sync.Mutex

	createCalls int
	createReq   *models.CreateBillRequest
	createResp  *models.CreateBillResponse
	createErr   error
	createHook  func(ctx context.Context) error

	listCalls int
	bills     []models.BillSummary
	listErr   error

	billsByID map[string]*models.Bill
	getHook   func(ctx context.Context, id string) (*models.Bill, error)

	excel []byte
}

func (f *fakeBackend) CreateBill(ctx context.Context, req *models.CreateBillRequest) (*models.CreateBillResponse, error) {
	f.mu.Lock()
	f.createCalls++
	f.createReq = req
	hook := f.createHook
	f.mu.Unlock()

	if hook != nil {
		if err := hook(ctx); err != nil {
			return nil, err
		}
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createResp, nil
}

func (f *fakeBackend) ListBills(ctx context.Context, filter models.BillFilter) ([]models.BillSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.bills, f.listErr
}

func (f *fakeBackend) GetBill(ctx context.Context, id string) (*models.Bill, error) {
	if f.getHook != nil {
		return f.getHook(ctx, id)
	}
	if bill, ok := f.billsByID[id]; ok {
		return bill, nil
	}
	return nil, backend.NewRequestError("GetBill", backend.ErrNotFound, id)
}

func (f *fakeBackend) ExcelURL() string {
	return "http://backend.test/api/bills/excel"
}

func (f *fakeBackend) DownloadExcel(ctx context.Context, w io.Writer) (int64, error) {
	n, err := w.Write(f.excel)
	return int64(n), err
}

func testBuilder(t *testing.T) *preview.Builder {
	t.Helper()
	cfg := preview.DefaultConfig()
	cfg.Location = time.UTC
	b, err := preview.NewBuilder(cfg, nil)
	require.NoError(t, err)
	return b
}
