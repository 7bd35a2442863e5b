package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"ebilling/internal/logger"
	"ebilling/internal/preview"
	"ebilling/pkg/models"
	"ebilling/pkg/services"
)

// EmptyMessage is shown when there are no bills to list.
const EmptyMessage = "No bills yet."

// ErrStale is returned when a newer request replaced this one before it finished.
var ErrStale = errors.New("superseded by a newer request")

// ListView is what the bill list shows.
type ListView struct {
	Filter  models.BillFilter
	Bills   []models.BillSummary
	Empty   bool
	Message string
}

// Selection is the bill opened from the list.
type Selection struct {
	ID    string
	Model preview.Model
	// ScrollToTop asks the surface to show the preview from its first line.
	ScrollToTop bool
}

// ListController fetches bill summaries and opens single bills. Only the
// most recent request may change what is shown: starting a new one cancels
// the one in flight and late results are dropped.
type ListController struct {
	reader  services.BillReader
	builder *preview.Builder
	logger  zerolog.Logger

	mu       sync.Mutex
	seq      uint64
	cancel   context.CancelFunc
	view     ListView
	selected *Selection
}

// NewListController returns a controller with an empty view.
func NewListController(reader services.BillReader, builder *preview.Builder) *ListController {
	return &ListController{
		reader:  reader,
		builder: builder,
		logger:  logger.WithComponent("list"),
		view:    emptyView(models.BillFilter{}),
	}
}

func emptyView(filter models.BillFilter) ListView {
	return ListView{
		Filter:  filter,
		Bills:   []models.BillSummary{},
		Empty:   true,
		Message: EmptyMessage,
	}
}

// Refresh fetches the bills inside filter. Backend failures are logged and
// shown as the empty state; the only error returned is ErrStale.
func (c *ListController) Refresh(ctx context.Context, filter models.BillFilter) (ListView, error) {
	ctx, seq, cancel := c.begin(ctx)
	defer cancel()

	bills, err := c.reader.ListBills(ctx, filter)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		c.logger.Debug().Uint64("seq", seq).Msg("Dropping stale bill list")
		return ListView{}, ErrStale
	}

	c.selected = nil
	if err != nil {
		c.logger.Warn().Err(err).Msg("Could not load bills, showing empty list")
		c.view = emptyView(filter)
		return c.view, nil
	}
	if len(bills) == 0 {
		c.view = emptyView(filter)
		return c.view, nil
	}

	c.view = ListView{Filter: filter, Bills: bills}
	c.logger.Debug().Int("bills", len(bills)).Msg("Bill list refreshed")
	return c.view, nil
}

// Select opens one bill. Its total is recomputed from its products.
func (c *ListController) Select(ctx context.Context, id string) (Selection, error) {
	const op = "Select"

	ctx, seq, cancel := c.begin(ctx)
	defer cancel()

	bill, err := c.reader.GetBill(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	log := logger.WithBill("list", id)
	if seq != c.seq {
		log.Debug().Uint64("seq", seq).Msg("Dropping stale bill")
		return Selection{}, ErrStale
	}
	if err != nil {
		log.Error().Err(err).Msg("Could not load bill")
		return Selection{}, fmt.Errorf("%s: %w", op, err)
	}

	sel := Selection{
		ID:          id,
		Model:       c.builder.FromBill(bill),
		ScrollToTop: true,
	}
	c.selected = &sel
	return sel, nil
}

// View returns the last list shown.
func (c *ListController) View() ListView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Selected returns the open bill, if any.
func (c *ListController) Selected() (Selection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return Selection{}, false
	}
	return *c.selected, true
}

// Back closes the open bill and returns to the list.
func (c *ListController) Back() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = nil
}

// Cancel aborts the request in flight; its result will be dropped.
func (c *ListController) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// ExportURL is the link that downloads every bill as a spreadsheet.
func (c *ListController) ExportURL() string {
	return c.reader.ExcelURL()
}

// ExportAll writes the backend spreadsheet of every bill into w.
func (c *ListController) ExportAll(ctx context.Context, w io.Writer) (int64, error) {
	return c.reader.DownloadExcel(ctx, w)
}

func (c *ListController) begin(parent context.Context) (context.Context, uint64, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	c.cancel = cancel
	return ctx, c.seq, cancel
}
