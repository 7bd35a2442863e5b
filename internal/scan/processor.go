// Package scan reads paper bills through Google Document AI and turns them
// into form drafts that can be reviewed and submitted like a typed bill.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ebilling/internal/billing"
	"ebilling/internal/logger"
)

// MaxDocumentSizeBytes is the largest PDF sent for online processing (20MB).
const MaxDocumentSizeBytes = 20 * 1024 * 1024

// Config holds Document AI settings.
type Config struct {
	ProjectID        string
	Location         string
	ProcessorID      string
	ProcessorVersion string
	Timeout          time.Duration
}

// DefaultConfig returns a Config with the "us" location and a one minute timeout.
func DefaultConfig() Config {
	return Config{
		Location: "us",
		Timeout:  60 * time.Second,
	}
}

// ProcessorName is the fully qualified resource name requests are sent to.
func (c Config) ProcessorName() string {
	name := fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.ProjectID, c.Location, c.ProcessorID)
	if c.ProcessorVersion != "" {
		name += "/processorVersions/" + c.ProcessorVersion
	}
	return name
}

// Result is a scanned bill.
type Result struct {
	Draft billing.DraftInput

	// Confidence maps entity types (line item properties are suffixed with
	// their index) to Document AI confidence scores.
	Confidence map[string]float32
}

// Scanner extracts a draft from a scanned bill.
type Scanner interface {
	Scan(ctx context.Context, pdf io.Reader) (*Result, error)
	Close() error
}

// Processor implements Scanner with a Document AI invoice processor.
type Processor struct {
	client *documentai.DocumentProcessorClient
	cfg    Config
	log    zerolog.Logger
}

var _ Scanner = (*Processor)(nil)

// NewProcessor creates a processor. Credentials come from GOOGLE_CREDENTIALS
// (JSON) or GOOGLE_APPLICATION_CREDENTIALS (file path).
func NewProcessor(ctx context.Context, cfg Config) (*Processor, error) {
	const op = "NewProcessor"

	if cfg.ProjectID == "" {
		return nil, WrapScanError(op, ErrInvalidConfiguration, "GOOGLE_PROJECT_ID is required")
	}
	if cfg.ProcessorID == "" {
		return nil, WrapScanError(op, ErrInvalidConfiguration, "GOOGLE_PROCESSOR_ID is required")
	}
	if cfg.Location == "" {
		cfg.Location = "us"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	var opts []option.ClientOption
	if cfg.Location != "us" {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)))
	}
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		opts = append(opts, option.WithCredentialsFile(credFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		if len(opts) == 0 {
			return nil, WrapScanError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapScanError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", cfg.Location))
	}

	return &Processor{
		client: client,
		cfg:    cfg,
		log:    logger.WithComponent("scan"),
	}, nil
}

// Scan sends the PDF to Document AI and converts the response into a draft.
func (p *Processor) Scan(ctx context.Context, pdf io.Reader) (*Result, error) {
	const op = "Scan"

	data, err := io.ReadAll(io.LimitReader(pdf, MaxDocumentSizeBytes+1))
	if err != nil {
		return nil, WrapScanError(op, err, "failed to read PDF data")
	}
	if len(data) > MaxDocumentSizeBytes {
		return nil, WrapScanError(op, ErrDocumentTooLarge, fmt.Sprintf("limit: %d bytes", MaxDocumentSizeBytes))
	}
	if !strings.HasPrefix(string(data[:min(len(data), 4)]), "%PDF") {
		return nil, WrapScanError(op, ErrInvalidPDF, "missing PDF header")
	}

	processCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	started := time.Now()
	resp, err := p.client.ProcessDocument(processCtx, &documentaipb.ProcessRequest{
		Name: p.cfg.ProcessorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  data,
				MimeType: "application/pdf",
			},
		},
	})
	if err != nil {
		return nil, p.processingError(op, err)
	}
	if resp.GetDocument() == nil {
		return nil, WrapScanError(op, ErrProcessingFailed, "no document in response")
	}

	result, err := ExtractDraft(resp.GetDocument())
	if err != nil {
		return nil, WrapScanError(op, err, "")
	}

	p.log.Info().
		Str("biller", result.Draft.BillerName).
		Int("items", len(result.Draft.Items)).
		Dur("took", time.Since(started)).
		Msg("Scanned bill")

	return result, nil
}

// processingError maps Document AI RPC failures onto scan errors.
func (p *Processor) processingError(op string, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return WrapScanError(op, context.Canceled, "processing was canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return WrapScanError(op, context.DeadlineExceeded, "processing timeout")
	}

	var scanErr *ScanError
	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated:
		scanErr = NewScanError(op, ErrInvalidCredentials, "insufficient permissions for Document AI")
	case codes.ResourceExhausted:
		scanErr = NewScanError(op, ErrQuotaExceeded, "")
	case codes.NotFound:
		scanErr = NewScanError(op, ErrProcessorNotFound, "")
	case codes.InvalidArgument:
		scanErr = NewScanError(op, ErrInvalidPDF, "document format not supported or corrupted")
	case codes.DeadlineExceeded:
		scanErr = NewScanError(op, context.DeadlineExceeded, "processing timeout")
	default:
		scanErr = NewScanError(op, ErrProcessingFailed, fmt.Sprintf("Document AI error: %v", err))
	}
	scanErr.ProcessorID = p.cfg.ProcessorID
	return scanErr
}

// Close closes the underlying Document AI client.
func (p *Processor) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

// ExtractDraft converts invoice parser entities into a draft. At least one
// line item with a description is required.
func ExtractDraft(doc *documentaipb.Document) (*Result, error) {
	const op = "ExtractDraft"

	log := logger.WithComponent("scan")
	res := &Result{Confidence: make(map[string]float32)}
	draft := &res.Draft

	for _, entity := range doc.GetEntities() {
		value := cleanText(entity.GetMentionText())

		log.Debug().
			Str("entity_type", entity.GetType()).
			Str("value", value).
			Float32("confidence", entity.GetConfidence()).
			Msg("Processing Document AI entity")

		switch entity.GetType() {
		case "receiver_name", "buyer_name", "customer_name", "ship_to_name":
			if draft.BillerName == "" {
				draft.BillerName = value
				res.Confidence[entity.GetType()] = entity.GetConfidence()
			}
		case "receiver_phone", "customer_phone":
			if draft.BillerContact == "" {
				draft.BillerContact = phoneDigits(value)
				res.Confidence[entity.GetType()] = entity.GetConfidence()
			}
		case "receiver_address", "ship_to_address":
			if draft.BillerAddress == "" {
				draft.BillerAddress = value
				res.Confidence[entity.GetType()] = entity.GetConfidence()
			}
		case "line_item":
			item, ok := lineItem(entity)
			if !ok {
				log.Warn().Str("text", value).Msg("Skipping line item without description")
				continue
			}
			idx := len(draft.Items)
			draft.Items = append(draft.Items, item)
			res.Confidence[fmt.Sprintf("line_item[%d]", idx)] = entity.GetConfidence()
			for _, prop := range entity.GetProperties() {
				res.Confidence[fmt.Sprintf("%s[%d]", prop.GetType(), idx)] = prop.GetConfidence()
			}
		}
	}

	if len(draft.Items) == 0 {
		return nil, NewScanError(op, ErrNoLineItems, "")
	}
	return res, nil
}

// lineItem reads description, quantity, unit price and unit from a
// line_item entity. A missing unit price is derived from the line amount.
func lineItem(entity *documentaipb.Document_Entity) (billing.ItemInput, bool) {
	var (
		item   billing.ItemInput
		qty    decimal.Decimal
		price  decimal.Decimal
		amount decimal.Decimal
	)

	for _, prop := range entity.GetProperties() {
		switch prop.GetType() {
		case "line_item/description", "line_item/product_code":
			if item.Name == "" {
				item.Name = cleanText(prop.GetMentionText())
			}
		case "line_item/quantity":
			qty, _ = entityNumber(prop)
		case "line_item/unit_price":
			price, _ = entityNumber(prop)
		case "line_item/amount":
			amount, _ = entityNumber(prop)
		case "line_item/unit":
			item.Unit = cleanText(prop.GetMentionText())
		}
	}

	if item.Name == "" {
		return billing.ItemInput{}, false
	}
	if !qty.IsPositive() {
		qty = decimal.NewFromInt(1)
	}
	if !price.IsPositive() && amount.IsPositive() {
		price = amount.Div(qty).Round(2)
	}

	item.Quantity = qty.String()
	if price.IsPositive() {
		item.Price = price.String()
	}
	return item, true
}

// entityNumber prefers the normalized money value and falls back to the
// mention text.
func entityNumber(entity *documentaipb.Document_Entity) (decimal.Decimal, error) {
	if nv := entity.GetNormalizedValue(); nv != nil {
		if m := nv.GetMoneyValue(); m != nil {
			return decimal.New(m.GetUnits(), 0).Add(decimal.New(int64(m.GetNanos()), -9)), nil
		}
		if nv.GetText() != "" {
			if d, err := parseAmount(nv.GetText()); err == nil {
				return d, nil
			}
		}
	}
	return parseAmount(entity.GetMentionText())
}

var amountNoise = regexp.MustCompile(`(?i)(₹|rs\.?|inr|/-|\s|,)`)

// parseAmount parses amounts as printed on Indian bills, e.g. "Rs. 1,50,000.00".
func parseAmount(s string) (decimal.Decimal, error) {
	cleaned := amountNoise.ReplaceAllString(strings.TrimSpace(s), "")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount value")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to parse amount: %s", s)
	}
	return d, nil
}

var nonDigits = regexp.MustCompile(`\D+`)

// phoneDigits keeps the last ten digits so "+91 98765-43210" becomes "9876543210".
func phoneDigits(s string) string {
	digits := nonDigits.ReplaceAllString(s, "")
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return digits
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
