// Package controller drives the bill form and the bill list. Both are
// surface independent: the CLI and the web server call the same methods.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ebilling/internal/backend"
	"ebilling/internal/billing"
	"ebilling/internal/logger"
	"ebilling/internal/preview"
	"ebilling/pkg/models"
	"ebilling/pkg/services"
)

// State is the phase of the bill form.
type State int

const (
	// Editing is the initial state; the draft can be changed.
	Editing State = iota
	// Submitting means a create request is in flight.
	Submitting
	// Previewing shows the created bill.
	Previewing
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	case Previewing:
		return "previewing"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	// ErrBusy is returned for any change while a submission is in flight.
	ErrBusy = errors.New("a submission is in progress")

	// ErrNotEditing is returned for draft changes outside the Editing state.
	ErrNotEditing = errors.New("the form is not being edited")

	// ErrNotPreviewing is returned by Back when there is nothing to go back from.
	ErrNotPreviewing = errors.New("no bill is being previewed")

	// ErrLastItem is returned when removing the only line item.
	ErrLastItem = errors.New("a bill needs at least one item")

	// ErrItemIndex is returned for a line item position that does not exist.
	ErrItemIndex = errors.New("no line item at that position")
)

// FormController is the Editing → Submitting → Previewing state machine
// of the bill form. It is safe for concurrent use.
type FormController struct {
	creator services.BillCreator
	builder *preview.Builder
	calc    *billing.Calculator
	rules   billing.Rules
	now     func() time.Time
	logger  zerolog.Logger

	mu      sync.Mutex
	state   State
	input   billing.DraftInput
	message string
	model   *preview.Model
}

// NewFormController returns a controller in the Editing state with one blank item.
func NewFormController(creator services.BillCreator, builder *preview.Builder, calc *billing.Calculator, rules billing.Rules) *FormController {
	if calc == nil {
		calc = billing.DefaultCalculator()
	}
	return &FormController{
		creator: creator,
		builder: builder,
		calc:    calc,
		rules:   rules,
		now:     time.Now,
		logger:  logger.WithComponent("form"),
		input:   blankInput(),
	}
}

func blankInput() billing.DraftInput {
	return billing.DraftInput{Items: []billing.ItemInput{{}}}
}

// State returns the current state.
func (f *FormController) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Input returns a copy of the form values.
func (f *FormController) Input() billing.DraftInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.input.Clone()
}

// Message is the last validation or submission failure shown to the user.
func (f *FormController) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

// Preview returns the created bill while Previewing.
func (f *FormController) Preview() (preview.Model, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Previewing || f.model == nil {
		return preview.Model{}, false
	}
	return *f.model, true
}

// Load replaces every form value. An input without items gets one blank item.
func (f *FormController) Load(in billing.DraftInput) error {
	return f.edit(func() error {
		f.input = in.Clone()
		if len(f.input.Items) == 0 {
			f.input.Items = []billing.ItemInput{{}}
		}
		return nil
	})
}

// SetBiller updates the biller fields.
func (f *FormController) SetBiller(name, contact, address, city string) error {
	return f.edit(func() error {
		f.input.BillerName = name
		f.input.BillerContact = contact
		f.input.BillerAddress = address
		f.input.BillerCity = city
		return nil
	})
}

// SetItem replaces the line item at position i.
func (f *FormController) SetItem(i int, item billing.ItemInput) error {
	return f.edit(func() error {
		if i < 0 || i >= len(f.input.Items) {
			return fmt.Errorf("%w: %d", ErrItemIndex, i)
		}
		f.input.Items[i] = item
		return nil
	})
}

// AddItem appends a blank line item.
func (f *FormController) AddItem() error {
	return f.edit(func() error {
		f.input.Items = append(f.input.Items, billing.ItemInput{})
		return nil
	})
}

// RemoveItem deletes the line item at position i. The sole item cannot be removed.
func (f *FormController) RemoveItem(i int) error {
	return f.edit(func() error {
		if i < 0 || i >= len(f.input.Items) {
			return fmt.Errorf("%w: %d", ErrItemIndex, i)
		}
		if len(f.input.Items) == 1 {
			return ErrLastItem
		}
		items := make([]billing.ItemInput, 0, len(f.input.Items)-1)
		items = append(items, f.input.Items[:i]...)
		f.input.Items = append(items, f.input.Items[i+1:]...)
		return nil
	})
}

// Reset clears the form and returns to Editing. It is the "new bill" action.
func (f *FormController) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == Submitting {
		return ErrBusy
	}
	f.state = Editing
	f.input = blankInput()
	f.message = ""
	f.model = nil
	return nil
}

// Back leaves the preview. The submitted values stay in the form.
func (f *FormController) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case Submitting:
		return ErrBusy
	case Editing:
		return ErrNotPreviewing
	}
	f.state = Editing
	f.model = nil
	return nil
}

// Submit validates the draft and creates the bill. A validation failure
// stays in Editing without calling the backend. A backend failure returns
// to Editing with the form values untouched. On success the form moves to
// Previewing and the returned model carries the assigned invoice number.
func (f *FormController) Submit(ctx context.Context) (preview.Model, error) {
	const op = "Submit"

	f.mu.Lock()
	if err := f.editableLocked(); err != nil {
		f.mu.Unlock()
		return preview.Model{}, err
	}

	draft, err := billing.ParseDraft(f.input, f.rules)
	if err != nil {
		f.failLocked(err)
		f.mu.Unlock()
		return preview.Model{}, err
	}
	comp, err := f.calc.Compute(draft.Items)
	if err != nil {
		f.failLocked(err)
		f.mu.Unlock()
		return preview.Model{}, err
	}

	draft.Date = f.now()
	f.state = Submitting
	f.message = ""
	f.mu.Unlock()

	f.logger.Info().
		Int("items", len(draft.Items)).
		Str("total", comp.TotalAmount.StringFixed(2)).
		Msg("Submitting bill")

	resp, err := f.creator.CreateBill(ctx, createRequest(draft, comp))

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		f.state = Editing
		f.failLocked(err)
		return preview.Model{}, fmt.Errorf("%s: %w", op, err)
	}

	model := f.builder.FromDraft(draft, comp, resp.InvoiceNo.String())
	f.model = &model
	f.state = Previewing

	log := logger.WithBill("form", resp.ID)
	log.Info().
		Str("invoice_no", model.InvoiceNo).
		Msg("Bill created, showing preview")

	return model, nil
}

func (f *FormController) edit(fn func() error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.editableLocked(); err != nil {
		return err
	}
	return fn()
}

func (f *FormController) editableLocked() error {
	switch f.state {
	case Submitting:
		return ErrBusy
	case Previewing:
		return ErrNotEditing
	}
	return nil
}

func (f *FormController) failLocked(err error) {
	if verr, ok := billing.IsValidationError(err); ok {
		f.message = verr.Message
		f.logger.Debug().Str("field", verr.Field).Msg("Draft rejected")
		return
	}
	f.message = backend.UserMessage(err)
	f.logger.Error().Err(err).Msg("Bill creation failed")
}

func createRequest(d billing.Draft, c *billing.Computation) *models.CreateBillRequest {
	products := make([]models.ProductInput, 0, len(d.Items))
	for _, item := range d.Items {
		products = append(products, models.ProductInput{
			Name:     item.Name,
			Quantity: item.Quantity.InexactFloat64(),
			Price:    item.Price.InexactFloat64(),
		})
	}
	return &models.CreateBillRequest{
		BillerName:    d.Biller.Name,
		BillerNumber:  d.Biller.Contact,
		BillToAddress: d.Biller.Address,
		BillToCity:    d.Biller.City,
		Date:          d.Date.UTC(),
		Products:      products,
		TotalAmount:   c.TotalAmount.InexactFloat64(),
	}
}
