package web

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"ebilling/internal/backend"
	"ebilling/internal/billing"
	"ebilling/internal/controller"
	"ebilling/internal/logger"
	"ebilling/internal/preview"
	"ebilling/pkg/models"
)

// PDFRenderer produces the download for one stored bill.
type PDFRenderer interface {
	Render(ctx context.Context, id string) (string, []byte, error)
}

// ListFactory returns a fresh list controller.
type ListFactory func() *controller.ListController

// Handler serves the bill pages. The form is shared: the server is meant
// for one operator at a time. Every page load gets its own list controller,
// so only requests of the same page compete.
type Handler struct {
	form     *controller.FormController
	lists    ListFactory
	pdf      PDFRenderer
	renderer *preview.Renderer
	dates    preview.Config
	log      zerolog.Logger
}

// NewHandler wires the page handlers.
func NewHandler(form *controller.FormController, lists ListFactory, pdf PDFRenderer, renderer *preview.Renderer, cfg preview.Config) *Handler {
	return &Handler{
		form:     form,
		lists:    lists,
		pdf:      pdf,
		renderer: renderer,
		dates:    cfg,
		log:      logger.WithComponent("web"),
	}
}

// Register adds every route to r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/", h.Home)
	r.GET("/health", h.Health)

	bills := r.Group("/bills")
	bills.GET("", h.ListBills)
	bills.GET("/new", h.ShowForm)
	bills.POST("/new", h.UpdateForm)
	bills.GET("/new/back", h.BackToForm)
	bills.GET("/:id", h.ShowBill)
	bills.GET("/:id/pdf", h.DownloadPDF)

	r.GET("/export", h.Export)
}

// Home shows the links to the bill form and the bill list.
func (h *Handler) Home(c *gin.Context) {
	h.page(c, http.StatusOK, "home", nil)
}

// Health reports that the server is up. It does not call the billing API.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ShowForm shows the draft, or the created bill once submitted.
func (h *Handler) ShowForm(c *gin.Context) {
	if m, ok := h.form.Preview(); ok {
		h.preview(c, m, preview.Options{BackURL: "/bills/new/back"})
		return
	}
	h.formPage(c, http.StatusOK, "")
}

// UpdateForm stores the posted values and applies the chosen action: add,
// remove-<n>, reset or submit.
func (h *Handler) UpdateForm(c *gin.Context) {
	action := c.PostForm("action")

	if action == "reset" {
		if err := h.form.Reset(); err != nil {
			h.formPage(c, http.StatusConflict, "Please wait for the bill to be created")
			return
		}
		c.Redirect(http.StatusSeeOther, "/bills/new")
		return
	}

	switch err := h.form.Load(formInput(c)); {
	case errors.Is(err, controller.ErrBusy):
		h.formPage(c, http.StatusConflict, "Please wait for the bill to be created")
		return
	case errors.Is(err, controller.ErrNotEditing):
		c.Redirect(http.StatusSeeOther, "/bills/new")
		return
	case err != nil:
		c.Error(err)
		h.formPage(c, http.StatusBadRequest, err.Error())
		return
	}

	switch {
	case action == "add":
		if err := h.form.AddItem(); err != nil {
			c.Error(err)
		}
		c.Redirect(http.StatusSeeOther, "/bills/new")

	case strings.HasPrefix(action, "remove-"):
		i, convErr := strconv.Atoi(strings.TrimPrefix(action, "remove-"))
		if convErr != nil {
			h.formPage(c, http.StatusBadRequest, controller.ErrItemIndex.Error())
			return
		}
		if err := h.form.RemoveItem(i); err != nil {
			msg := err.Error()
			if errors.Is(err, controller.ErrLastItem) {
				msg = "A bill needs at least one product"
			}
			h.formPage(c, http.StatusBadRequest, msg)
			return
		}
		c.Redirect(http.StatusSeeOther, "/bills/new")

	case action == "submit":
		if _, err := h.form.Submit(c.Request.Context()); err != nil {
			c.Error(err)
			h.formPage(c, submitStatus(err), "")
			return
		}
		c.Redirect(http.StatusSeeOther, "/bills/new")

	default:
		c.Redirect(http.StatusSeeOther, "/bills/new")
	}
}

// BackToForm leaves the preview of a created bill.
func (h *Handler) BackToForm(c *gin.Context) {
	if err := h.form.Back(); err != nil && !errors.Is(err, controller.ErrNotPreviewing) {
		h.formPage(c, http.StatusConflict, "Please wait for the bill to be created")
		return
	}
	c.Redirect(http.StatusSeeOther, "/bills/new")
}

// ListBills shows the bills inside the optional from/to dates (YYYY-MM-DD).
func (h *Handler) ListBills(c *gin.Context) {
	from, to := c.Query("from"), c.Query("to")

	filter, err := models.ParseFilter(from, to)
	if err != nil {
		h.page(c, http.StatusBadRequest, "list", listPage{
			From:      from,
			To:        to,
			Empty:     true,
			EmptyText: controller.EmptyMessage,
			Notice:    "Dates must look like 2024-01-31",
		})
		return
	}

	view, err := h.lists().Refresh(c.Request.Context(), filter)
	if err != nil {
		h.billError(c, err)
		return
	}

	data := listPage{From: from, To: to, Empty: view.Empty, EmptyText: view.Message}
	for _, b := range view.Bills {
		data.Rows = append(data.Rows, listRow{
			Serial: b.Serial.String(),
			ID:     b.ID,
			Biller: b.BillerName,
			Date:   h.formatDate(b),
		})
	}
	h.page(c, http.StatusOK, "list", data)
}

// ShowBill previews one stored bill with its total recomputed.
func (h *Handler) ShowBill(c *gin.Context) {
	id := c.Param("id")

	sel, err := h.lists().Select(c.Request.Context(), id)
	if err != nil {
		h.billError(c, err)
		return
	}

	h.preview(c, sel.Model, preview.Options{
		BackURL:     "/bills",
		PDFURL:      "/bills/" + url.PathEscape(id) + "/pdf",
		ScrollToTop: sel.ScrollToTop,
	})
}

// DownloadPDF sends one stored bill as a PDF attachment.
func (h *Handler) DownloadPDF(c *gin.Context) {
	name, data, err := h.pdf.Render(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.billError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

// Export sends the browser to the backend spreadsheet download.
func (h *Handler) Export(c *gin.Context) {
	c.Redirect(http.StatusFound, h.lists().ExportURL())
}

func (h *Handler) preview(c *gin.Context, m preview.Model, opts preview.Options) {
	if c.Query("print") != "" {
		opts.Media = preview.MediaPrint
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := h.renderer.Render(c.Writer, m, opts); err != nil {
		h.log.Error().Err(err).Str("invoice_no", m.InvoiceNo).Msg("Failed to render preview")
		c.Error(err)
	}
}

func (h *Handler) formPage(c *gin.Context, status int, message string) {
	if message == "" {
		message = h.form.Message()
	}
	h.page(c, status, "form", formPage{Input: h.form.Input(), Message: message})
}

func (h *Handler) billError(c *gin.Context, err error) {
	c.Error(err)
	if errors.Is(err, controller.ErrStale) {
		h.page(c, http.StatusConflict, "message", messagePage{
			Title:   "Bill unavailable",
			Message: "A newer request replaced this one. Please reload the page.",
			BackURL: "/bills",
		})
		return
	}
	h.page(c, errorStatus(err), "message", messagePage{
		Title:   "Bill unavailable",
		Message: backend.UserMessage(err),
		BackURL: "/bills",
	})
}

func (h *Handler) page(c *gin.Context, status int, name string, data any) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := renderPage(c.Writer, name, data); err != nil {
		h.log.Error().Err(err).Str("page", name).Msg("Failed to render page")
		c.Error(err)
	}
}

func (h *Handler) formatDate(b models.BillSummary) string {
	t := b.ParsedDate()
	if t.IsZero() {
		return b.Date
	}
	if h.dates.Location != nil {
		t = t.In(h.dates.Location)
	}
	return t.Format(h.dates.DateLayout)
}

func formInput(c *gin.Context) billing.DraftInput {
	in := billing.DraftInput{
		BillerName:    c.PostForm("billerName"),
		BillerContact: c.PostForm("billerNumber"),
		BillerAddress: c.PostForm("billToAddress"),
		BillerCity:    c.PostForm("billToCity"),
	}

	names := c.PostFormArray("itemName")
	quantities := c.PostFormArray("itemQuantity")
	prices := c.PostFormArray("itemPrice")
	units := c.PostFormArray("itemUnit")
	for i := range names {
		in.Items = append(in.Items, billing.ItemInput{
			Name:     names[i],
			Quantity: at(quantities, i),
			Price:    at(prices, i),
			Unit:     at(units, i),
		})
	}
	if len(in.Items) == 0 {
		in.Items = []billing.ItemInput{{}}
	}
	return in
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

func submitStatus(err error) int {
	if _, ok := billing.IsValidationError(err); ok {
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, controller.ErrBusy) {
		return http.StatusConflict
	}
	return errorStatus(err)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, backend.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, backend.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
