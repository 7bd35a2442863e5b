package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ebilling/internal/config"
	"ebilling/internal/logger"
	"ebilling/internal/scan"
)

var importCmd = &cobra.Command{
	Use:   "import <scan.pdf>",
	Short: "Read a scanned paper bill into a draft using Google Document AI",
	Long: `Send a scanned bill to a Google Document AI invoice processor and turn the
buyer and line items it finds into a bill draft. The draft is printed as JSON
(or saved with -o) so it can be reviewed and then created with
'ebilling create --draft'. With --submit the draft is created right away.

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_CLOUD_PROJECT - Your Google Cloud project ID
  GOOGLE_CLOUD_LOCATION - Processing location (us, eu, etc.)
  DOCUMENT_AI_PROCESSOR_ID - Your Document AI invoice processor ID`,
	Example: `  # Print the draft
  ebilling import scan.pdf

  # Review first, then create
  ebilling import scan.pdf -o draft.json
  ebilling create --draft draft.json

  # Create immediately, showing confidence scores
  ebilling import scan.pdf --submit --confidence`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

// ImportOutput is the JSON written by the import command.
type ImportOutput struct {
	Draft      any                `json:"draft"`
	Confidence map[string]float32 `json:"confidence,omitempty"`
	Metadata   ImportMetadata     `json:"metadata"`
}

// ImportMetadata describes the processed file.
type ImportMetadata struct {
	FileName           string        `json:"file_name"`
	FileSize           int64         `json:"file_size_bytes"`
	ProcessedAt        time.Time     `json:"processed_at"`
	ProcessingDuration time.Duration `json:"processing_duration"`
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringP("output", "o", "", "Write the draft JSON to this file (default: stdout)")
	importCmd.Flags().Bool("confidence", false, "Print confidence scores with the result")
	importCmd.Flags().Bool("submit", false, "Create the bill from the draft")
	importCmd.Flags().Int("timeout", 120, "Processing timeout in seconds")
}

func runImport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("import")

	outputPath, _ := cmd.Flags().GetString("output")
	withConfidence, _ := cmd.Flags().GetBool("confidence")
	submit, _ := cmd.Flags().GetBool("submit")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	pdfPath := args[0]
	info, err := validateScan(pdfPath, log)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration. Please check your .env file: %w", err)
	}

	ctx, cancel := commandContext(time.Duration(timeoutSecs)*time.Second, log)
	defer cancel()

	processor, err := scan.NewProcessor(ctx, cfg.ScanConfig())
	if err != nil {
		return handleScanError(err, log)
	}
	defer processor.Close()

	f, err := os.Open(pdfPath)
	if err != nil {
		return fmt.Errorf("failed to open scan: %w", err)
	}
	defer f.Close()

	started := time.Now()
	result, err := processor.Scan(ctx, f)
	if err != nil {
		return handleScanError(err, log)
	}

	out := ImportOutput{
		Draft: result.Draft,
		Metadata: ImportMetadata{
			FileName:           filepath.Base(info.Name()),
			FileSize:           info.Size(),
			ProcessedAt:        time.Now(),
			ProcessingDuration: time.Since(started),
		},
	}
	if withConfidence {
		out.Confidence = result.Confidence
	}

	if submit {
		return submitScanned(ctx, result, log)
	}

	if outputPath != "" {
		// A saved draft is read back by 'create --draft', which expects the bare draft.
		data, err := json.MarshalIndent(result.Draft, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode draft: %w", err)
		}
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return fmt.Errorf("failed to write draft: %w", err)
		}
		log.Info().Str("file", outputPath).Int("items", len(result.Draft.Items)).Msg("Draft saved")
		if !withConfidence {
			return nil
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func submitScanned(ctx context.Context, result *scan.Result, log zerolog.Logger) error {
	a, err := newApp(log)
	if err != nil {
		return err
	}

	form := a.form()
	if err := form.Load(result.Draft); err != nil {
		return err
	}
	model, err := form.Submit(ctx)
	if err != nil {
		return handleBillError(err, log)
	}

	printModel(model, a.cfg.PDFCurrencyLabel)
	return nil
}

// validateScan checks the file before it is uploaded.
func validateScan(path string, log zerolog.Logger) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("scan not found: %s", path)
		}
		return nil, fmt.Errorf("error accessing scan: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("path is not a regular file: %s", path)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("scan is empty: %s", path)
	}
	if info.Size() > scan.MaxDocumentSizeBytes {
		log.Error().
			Str("file", path).
			Int64("size", info.Size()).
			Msg("Scan exceeds maximum size limit")
		return nil, fmt.Errorf("scan too large (%d bytes). Maximum size is 20MB", info.Size())
	}
	return info, nil
}

// handleScanError provides user-friendly messages for Document AI failures.
func handleScanError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Scan failed")

	switch {
	case errors.Is(err, scan.ErrMissingCredentials):
		return fmt.Errorf("missing Google Cloud credentials. Please set one of:\n" +
			"  GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n" +
			"  GOOGLE_CREDENTIALS='<json-credentials>'")
	case errors.Is(err, scan.ErrInvalidConfiguration):
		return fmt.Errorf("invalid Document AI configuration. Please check GOOGLE_CLOUD_PROJECT and DOCUMENT_AI_PROCESSOR_ID: %w", err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("scan processing timed out. Try increasing --timeout")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("scan processing was canceled")
	case errors.Is(err, scan.ErrInvalidPDF):
		return fmt.Errorf("invalid or corrupted PDF file. Please check the file integrity")
	case errors.Is(err, scan.ErrDocumentTooLarge):
		return fmt.Errorf("PDF file is too large (maximum 20MB)")
	case errors.Is(err, scan.ErrProcessorNotFound):
		return fmt.Errorf("Document AI processor not found. Please check DOCUMENT_AI_PROCESSOR_ID")
	case errors.Is(err, scan.ErrInvalidCredentials):
		return fmt.Errorf("permission denied. Please ensure your service account has the 'Document AI API User' role")
	case errors.Is(err, scan.ErrQuotaExceeded):
		return fmt.Errorf("Document AI API quota exceeded. Check your project quotas in Google Cloud Console")
	case errors.Is(err, scan.ErrNoLineItems):
		return fmt.Errorf("no line items could be read from the scan. Please enter the bill by hand")
	default:
		return fmt.Errorf("scan failed: %w", err)
	}
}
