// Package backend is the HTTP client for the remote billing API.
//
// The API exposes four endpoints:
//   - POST /api/bills          create a bill, returns its invoice number
//   - GET  /api/bills?from&to  list bill summaries in a date range
//   - GET  /api/bills/:id      one bill with its products
//   - GET  /api/bills/excel    spreadsheet of every bill
//
// Every call runs under its own timeout. Reads that fail with a network
// error or a timeout are retried with exponential backoff; creates are
// never retried and carry an Idempotency-Key header instead.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ebilling/internal/logger"
	"ebilling/pkg/models"
)

const (
	billsPath = "/api/bills"
	excelPath = "/api/bills/excel"

	// IdempotencyHeader carries a fresh key on every create request.
	IdempotencyHeader = "Idempotency-Key"

	maxErrorBody = 4 << 10
)

// Config holds the backend connection settings.
type Config struct {
	// BaseURL is the scheme and host of the API, e.g. http://localhost:5000.
	BaseURL string

	// Timeout bounds every single request attempt. Default: 15 seconds.
	Timeout time.Duration

	// MaxRetries is how many times a failed read is attempted again.
	MaxRetries int

	// RetryInitialInterval is the first backoff delay. Default: 200ms.
	RetryInitialInterval time.Duration
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		BaseURL:              "http://localhost:5000",
		Timeout:              15 * time.Second,
		MaxRetries:           2,
		RetryInitialInterval: 200 * time.Millisecond,
	}
}

// Client talks to the billing API. It is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	cfg        Config
	newKey     func() string
	logger     zerolog.Logger
}

// NewClient creates a client with its own http.Client.
func NewClient(cfg Config) (*Client, error) {
	return NewClientWithHTTP(cfg, &http.Client{})
}

// NewClientWithHTTP creates a client that sends requests through httpClient.
func NewClientWithHTTP(cfg Config, httpClient *http.Client) (*Client, error) {
	const op = "NewClient"

	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, NewRequestError(op, ErrInvalidConfiguration, fmt.Sprintf("base URL %q", cfg.BaseURL))
	}

	defaults := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryInitialInterval <= 0 {
		cfg.RetryInitialInterval = defaults.RetryInitialInterval
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		cfg:        cfg,
		newKey:     uuid.NewString,
		logger:     logger.WithComponent("backend"),
	}, nil
}

// CreateBill posts a new bill. It is attempted exactly once.
func (c *Client) CreateBill(ctx context.Context, req *models.CreateBillRequest) (*models.CreateBillResponse, error) {
	const op = "CreateBill"

	body, err := json.Marshal(req)
	if err != nil {
		return nil, NewRequestError(op, err, "failed to encode request")
	}

	key := c.newKey()
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set(IdempotencyHeader, key)

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	c.logger.Debug().
		Str("idempotency_key", key).
		Int("products", len(req.Products)).
		Msg("Creating bill")

	resp, err := c.send(reqCtx, http.MethodPost, billsPath, nil, body, header)
	if err != nil {
		return nil, c.transportError(ctx, op, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(op, resp); err != nil {
		return nil, err
	}

	var out models.CreateBillResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, c.decodeError(ctx, reqCtx, op, err)
	}
	if strings.TrimSpace(out.InvoiceNo.String()) == "" {
		return nil, NewRequestError(op, ErrMalformedResponse, "response has no invoiceNo")
	}

	c.logger.Info().
		Str("invoice_no", out.InvoiceNo.String()).
		Str("bill_id", out.ID).
		Msg("Bill created")

	return &out, nil
}

// ListBills returns the bills dated inside filter. An empty result is not an error.
func (c *Client) ListBills(ctx context.Context, filter models.BillFilter) ([]models.BillSummary, error) {
	const op = "ListBills"

	query := url.Values{}
	if filter.From != nil {
		query.Set("from", filter.From.Format(models.DateLayout))
	}
	if filter.To != nil {
		query.Set("to", filter.To.Format(models.DateLayout))
	}

	bills, err := getJSON[[]models.BillSummary](ctx, c, op, billsPath, query)
	if err != nil {
		return nil, err
	}
	if bills == nil {
		bills = []models.BillSummary{}
	}

	c.logger.Debug().Int("bills", len(bills)).Msg("Listed bills")
	return bills, nil
}

// GetBill returns one stored bill.
func (c *Client) GetBill(ctx context.Context, id string) (*models.Bill, error) {
	const op = "GetBill"

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, NewRequestError(op, ErrNotFound, "empty bill id")
	}

	bill, err := getJSON[models.Bill](ctx, c, op, billsPath+"/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

// ExcelURL is the absolute link to the spreadsheet of every bill.
func (c *Client) ExcelURL() string {
	return c.resolve(excelPath, nil)
}

// DownloadExcel streams the spreadsheet of every bill into w and returns
// the number of bytes written.
func (c *Client) DownloadExcel(ctx context.Context, w io.Writer) (int64, error) {
	const op = "DownloadExcel"

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := backoff.Retry(reqCtx, func() (*http.Response, error) {
		resp, err := c.send(reqCtx, http.MethodGet, excelPath, nil, nil, nil)
		if err != nil {
			return nil, c.retryable(c.transportError(ctx, op, err))
		}
		if err := checkStatus(op, resp); err != nil {
			resp.Body.Close()
			return nil, backoff.Permanent(err)
		}
		return resp, nil
	}, c.retryOptions(op)...)
	if err != nil {
		return 0, c.finalError(ctx, op, err)
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, c.transportError(ctx, op, err)
	}

	c.logger.Info().Int64("bytes", n).Msg("Downloaded bills spreadsheet")
	return n, nil
}

func getJSON[T any](ctx context.Context, c *Client, op, path string, query url.Values) (T, error) {
	out, err := backoff.Retry(ctx, func() (T, error) {
		var out T

		reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		resp, err := c.send(reqCtx, http.MethodGet, path, query, nil, nil)
		if err != nil {
			return out, c.retryable(c.transportError(ctx, op, err))
		}
		defer resp.Body.Close()

		if err := checkStatus(op, resp); err != nil {
			return out, backoff.Permanent(err)
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return out, c.retryable(c.decodeError(ctx, reqCtx, op, err))
		}
		return out, nil
	}, c.retryOptions(op)...)
	if err != nil {
		var zero T
		return zero, c.finalError(ctx, op, err)
	}
	return out, nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body []byte, header http.Header) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path, query), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, values := range header {
		for _, v := range values {
			req.Header.Set(k, v)
		}
	}

	return c.httpClient.Do(req)
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	} else {
		u.RawQuery = ""
	}
	return u.String()
}

func (c *Client) retryOptions(op string) []backoff.RetryOption {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.RetryInitialInterval
	b.MaxInterval = c.cfg.Timeout

	return []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(c.cfg.MaxRetries + 1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Warn().
				Err(err).
				Str("op", op).
				Dur("retry_in", next).
				Msg("Backend read failed, retrying")
		}),
	}
}

// retryable marks everything except network failures and timeouts as permanent.
func (c *Client) retryable(err error) error {
	if Retryable(err) {
		return err
	}
	return backoff.Permanent(err)
}

// finalError normalises what backoff.Retry hands back once it gives up.
func (c *Client) finalError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		var reqErr *RequestError
		if !errors.As(err, &reqErr) {
			return NewRequestError(op, ctxErr, "")
		}
	}
	return WrapRequestError(op, err, "")
}

// transportError classifies a failure that happened before a status line
// or while reading a body. ctx is the caller's context, not the per-attempt one.
func (c *Client) transportError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return NewRequestError(op, ErrTimeout, err.Error())
		}
		return NewRequestError(op, ctxErr, "")
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return NewRequestError(op, ErrTimeout, err.Error())
	}
	return NewRequestError(op, ErrNetwork, err.Error())
}

func (c *Client) decodeError(ctx, reqCtx context.Context, op string, err error) error {
	if reqCtx.Err() != nil {
		return c.transportError(ctx, op, reqCtx.Err())
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return NewRequestError(op, ErrNetwork, err.Error())
	}
	return NewRequestError(op, ErrMalformedResponse, err.Error())
}

func checkStatus(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return statusError(op, resp.StatusCode, errorDetails(raw))
}

// errorDetails pulls a message out of an error body, falling back to the raw text.
func errorDetails(raw []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(raw))
}
