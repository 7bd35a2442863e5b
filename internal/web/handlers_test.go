package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ebilling/internal/backend"
	"ebilling/internal/billing"
	"ebilling/internal/controller"
	"ebilling/internal/pdf"
	"ebilling/internal/preview"
	"ebilling/pkg/models"
)

const billJSON = `{
  "_id": "b7",
  "serial": "INV-7",
  "billerName": "Ravi",
  "billerNumber": "9876543210",
  "date": "2024-01-05",
  "products": [
    {"name": "Pen", "quantity": 2, "price": 10},
    {"name": "Book", "quantity": 1, "price": 150}
  ],
  "totalAmount": 1
}`

// fakeAPI is a stand-in for the billing API.
type fakeAPI struct {
	mu          sync.Mutex
	creates     []models.CreateBillRequest
	createFail  bool
	listQueries []string
	listBody    string

	// slowStarted is closed when /api/bills/slow arrives; the answer waits for release.
	slowStarted chan struct{}
	release     chan struct{}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/bills/slow" {
		close(f.slowStarted)
		<-f.release
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(billJSON))
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/bills":
		if f.createFail {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"message":"database down"}`))
			return
		}
		var req models.CreateBillRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.creates = append(f.creates, req)
		w.Write([]byte(`{"invoiceNo": 42, "_id": "b42"}`))
	case r.URL.Path == "/api/bills":
		f.listQueries = append(f.listQueries, r.URL.RawQuery)
		body := f.listBody
		if body == "" {
			body = "[]"
		}
		w.Write([]byte(body))
	case r.URL.Path == "/api/bills/b7":
		w.Write([]byte(billJSON))
	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Bill not found"}`))
	}
}

func (f *fakeAPI) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creates)
}

type testApp struct {
	api     *fakeAPI
	apiURL  string
	router  *gin.Engine
	form    *controller.FormController
	builder *preview.Builder
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	client, err := backend.NewClient(backend.Config{BaseURL: srv.URL, Timeout: 2 * time.Second, MaxRetries: 0})
	require.NoError(t, err)

	cfg := preview.DefaultConfig()
	cfg.Location = time.UTC
	cfg.Issuer = preview.Issuer{Name: "Rajasthan Mobile Shop"}
	builder, err := preview.NewBuilder(cfg, nil)
	require.NoError(t, err)

	form := controller.NewFormController(client, builder, nil, billing.DefaultRules())
	lists := func() *controller.ListController { return controller.NewListController(client, builder) }
	exporter := pdf.NewExporter(client, builder, pdf.NewRenderer(""))
	h := NewHandler(form, lists, exporter, preview.NewRenderer("₹"), cfg)

	return &testApp{
		api:     api,
		apiURL:  srv.URL,
		router:  NewServer(":0", h).Router(),
		form:    form,
		builder: builder,
	}
}

func (a *testApp) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func (a *testApp) post(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func validForm(action string) url.Values {
	return url.Values{
		"billerName":   {"Ravi"},
		"billerNumber": {"9876543210"},
		"itemName":     {"Pen", "Book"},
		"itemQuantity": {"2", "1"},
		"itemPrice":    {"10", "150"},
		"itemUnit":     {"", ""},
		"action":       {action},
	}
}

func TestHomeAndHealth(t *testing.T) {
	app := newTestApp(t)

	w := app.get(t, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `id="newBill"`)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = app.get(t, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestForm_SubmitShowsPreview(t *testing.T) {
	app := newTestApp(t)

	w := app.get(t, "/bills/new")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="billerName"`)

	w = app.post(t, "/bills/new", validForm("submit"))
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/bills/new", w.Header().Get("Location"))
	require.Equal(t, 1, app.api.createCount())
	assert.Equal(t, 170.0, app.api.creates[0].TotalAmount)

	w = app.get(t, "/bills/new")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "42")
	assert.Contains(t, body, "₹ 170.00")
	assert.Contains(t, body, `href="/bills/new/back"`)

	w = app.get(t, "/bills/new/back")
	require.Equal(t, http.StatusSeeOther, w.Code)
	w = app.get(t, "/bills/new")
	assert.Contains(t, w.Body.String(), `value="Ravi"`)
	assert.Equal(t, controller.Editing, app.form.State())
}

func TestForm_ValidationErrorKeepsValues(t *testing.T) {
	app := newTestApp(t)

	values := validForm("submit")
	values.Set("billerName", " ")
	w := app.post(t, "/bills/new", values)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Please enter the biller name")
	assert.Contains(t, w.Body.String(), `value="Book"`)
	assert.Zero(t, app.api.createCount())
}

func TestForm_BackendFailure(t *testing.T) {
	app := newTestApp(t)
	app.api.createFail = true

	w := app.post(t, "/bills/new", validForm("submit"))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "The billing server rejected the request: database down")
	assert.Contains(t, w.Body.String(), `value="Pen"`)
	assert.Equal(t, controller.Editing, app.form.State())
}

func TestForm_AddAndRemoveItems(t *testing.T) {
	app := newTestApp(t)

	w := app.post(t, "/bills/new", validForm("add"))
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Len(t, app.form.Input().Items, 3)
	assert.Contains(t, app.get(t, "/bills/new").Body.String(), `value="remove-2"`)

	w = app.post(t, "/bills/new", url.Values{
		"itemName":     {"Pen", "Book"},
		"itemQuantity": {"2", "1"},
		"itemPrice":    {"10", "150"},
		"action":       {"remove-0"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	items := app.form.Input().Items
	require.Len(t, items, 1)
	assert.Equal(t, "Book", items[0].Name)
	assert.NotContains(t, app.get(t, "/bills/new").Body.String(), `value="remove-0"`)

	w = app.post(t, "/bills/new", url.Values{"itemName": {"Book"}, "action": {"remove-0"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "A bill needs at least one product")
}

func TestForm_Reset(t *testing.T) {
	app := newTestApp(t)
	app.post(t, "/bills/new", validForm("add"))

	w := app.post(t, "/bills/new", url.Values{"action": {"reset"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, billing.DraftInput{Items: []billing.ItemInput{{}}}, app.form.Input())
}

func TestListBills(t *testing.T) {
	app := newTestApp(t)
	app.api.listBody = `[{"_id":"b7","serial":7,"billerName":"Ravi","date":"2024-01-05T10:00:00.000Z","totalAmount":170}]`

	w := app.get(t, "/bills?from=2024-01-01&to=2024-01-31")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `<td>7</td>`)
	assert.Contains(t, body, `<td>05/01/2024</td>`)
	assert.Contains(t, body, `href="/bills/b7/pdf"`)
	assert.Equal(t, []string{"from=2024-01-01&to=2024-01-31"}, app.api.listQueries)
}

func TestListBills_EmptyAndBadFilter(t *testing.T) {
	app := newTestApp(t)

	w := app.get(t, "/bills")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), controller.EmptyMessage)

	w = app.get(t, "/bills?from=05-01-2024")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Dates must look like 2024-01-31")
	assert.Len(t, app.api.listQueries, 1)
}

func TestShowBill(t *testing.T) {
	app := newTestApp(t)

	w := app.get(t, "/bills/b7")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "INV-7")
	assert.Contains(t, body, "₹ 170.00", "total is recomputed from products")
	assert.Contains(t, body, `id="downloadPdf" href="/bills/b7/pdf"`)

	w = app.get(t, "/bills/b7?print=1")
	assert.NotContains(t, w.Body.String(), `id="goBack"`)
}

func TestShowBill_OverlappingLoads(t *testing.T) {
	app := newTestApp(t)
	app.api.slowStarted = make(chan struct{})
	app.api.release = make(chan struct{})

	slow := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		w := httptest.NewRecorder()
		app.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bills/slow", nil))
		slow <- w
	}()
	<-app.api.slowStarted

	fast := app.get(t, "/bills/b7")
	close(app.api.release)

	assert.Equal(t, http.StatusOK, fast.Code)
	assert.Contains(t, fast.Body.String(), "INV-7")

	w := <-slow
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "₹ 170.00")
}

func TestShowBill_NotFound(t *testing.T) {
	app := newTestApp(t)

	w := app.get(t, "/bills/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "The bill could not be found")
}

func TestDownloadPDF(t *testing.T) {
	app := newTestApp(t)

	w := app.get(t, "/bills/b7/pdf")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="bill_INV-7.pdf"`, w.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = app.get(t, "/bills/nope/pdf")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportRedirectsToBackend(t *testing.T) {
	app := newTestApp(t)

	w := app.get(t, "/export")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, app.apiURL+"/api/bills/excel", w.Header().Get("Location"))
}

func TestBillError_StaleShowsMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h := &Handler{log: zerolog.Nop()}
	h.billError(c, fmt.Errorf("Select: %w", controller.ErrStale))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `id="errorMessage"`)
	assert.Contains(t, w.Body.String(), "Please reload the page")
}
