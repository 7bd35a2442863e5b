package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ebilling/internal/backend"
	"ebilling/internal/billing"
	"ebilling/internal/logger"
	"ebilling/internal/preview"
	"ebilling/internal/scan"
)

type Config struct {
	// Backend
	BackendBaseURL       string
	RequestTimeout       time.Duration
	RequestMaxRetries    int
	RequestRetryInterval time.Duration

	// Invoice layout
	IssuerName          string
	IssuerAddress       []string
	IssuerTerms         []string
	CurrencySymbol      string
	PDFCurrencyLabel    string
	AmountWordsUnit     string
	PreviewLineItemCap  int
	PreviewRows         int
	PreviewDateLayout   string
	PreviewTimezone     string
	PreviewShowBalances bool

	// Validation
	BillerContactPattern string

	// Web server
	Port string

	// Google Sheets Configuration
	GoogleSheetURL       string
	GoogleSheetWorksheet string

	// Document AI Configuration
	GoogleCloudProject         string
	GoogleCloudLocation        string
	DocumentAIProcessorID      string
	DocumentAIProcessorVersion string
	DocumentAITimeout          time.Duration

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string

	location       *time.Location
	contactPattern *regexp.Regexp
}

func Load() (*Config, error) {
	config := &Config{
		BackendBaseURL:             getEnv("BACKEND_BASE_URL", "http://localhost:5000"),
		RequestTimeout:             getEnvDuration("REQUEST_TIMEOUT", 15*time.Second),
		RequestMaxRetries:          getEnvInt("REQUEST_MAX_RETRIES", 2),
		RequestRetryInterval:       getEnvDuration("REQUEST_RETRY_INTERVAL", 200*time.Millisecond),
		IssuerName:                 getEnv("ISSUER_NAME", ""),
		IssuerAddress:              splitList(getEnv("ISSUER_ADDRESS", "")),
		IssuerTerms:                splitList(getEnv("ISSUER_TERMS", "")),
		CurrencySymbol:             getEnv("CURRENCY_SYMBOL", "₹"),
		PDFCurrencyLabel:           getEnv("PDF_CURRENCY_LABEL", "Rs."),
		AmountWordsUnit:            getEnv("AMOUNT_WORDS_UNIT", "rupees only"),
		PreviewLineItemCap:         getEnvInt("PREVIEW_LINE_ITEM_CAP", 6),
		PreviewRows:                getEnvInt("PREVIEW_ROWS", 8),
		PreviewDateLayout:          getEnv("PREVIEW_DATE_LAYOUT", "02/01/2006"),
		PreviewTimezone:            getEnv("PREVIEW_TIMEZONE", "Local"),
		PreviewShowBalances:        getEnvBool("PREVIEW_SHOW_BALANCES", false),
		BillerContactPattern:       getEnv("BILLER_CONTACT_PATTERN", billing.DefaultContactPattern.String()),
		Port:                       getEnv("PORT", "8080"),
		GoogleSheetURL:             getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet:       getEnv("GOOGLE_SHEET_WORKSHEET", "Bills"),
		GoogleCloudProject:         getEnv("GOOGLE_CLOUD_PROJECT", getEnv("GOOGLE_PROJECT_ID", "")),
		GoogleCloudLocation:        getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID:      getEnv("DOCUMENT_AI_PROCESSOR_ID", getEnv("GOOGLE_PROCESSOR_ID", "")),
		DocumentAIProcessorVersion: getEnv("DOCUMENT_AI_PROCESSOR_VERSION", ""),
		DocumentAITimeout:          getEnvDuration("DOCUMENT_AI_TIMEOUT", 60*time.Second),
		LogLevel:                   getEnv("LOG_LEVEL", "info"),
		LogFormat:                  getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:              getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:                  getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.BackendBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BACKEND_BASE_URL must be an absolute URL, got %q", c.BackendBaseURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.RequestMaxRetries < 0 {
		return fmt.Errorf("REQUEST_MAX_RETRIES must not be negative")
	}
	if c.PreviewLineItemCap <= 0 {
		return fmt.Errorf("PREVIEW_LINE_ITEM_CAP must be positive")
	}
	if c.PreviewRows < c.PreviewLineItemCap {
		return fmt.Errorf("PREVIEW_ROWS (%d) must be at least PREVIEW_LINE_ITEM_CAP (%d)", c.PreviewRows, c.PreviewLineItemCap)
	}

	c.location, err = time.LoadLocation(c.PreviewTimezone)
	if err != nil {
		return fmt.Errorf("PREVIEW_TIMEZONE: %w", err)
	}

	if c.BillerContactPattern != "" && c.BillerContactPattern != "none" {
		c.contactPattern, err = regexp.Compile(c.BillerContactPattern)
		if err != nil {
			return fmt.Errorf("BILLER_CONTACT_PATTERN: %w", err)
		}
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// BackendConfig returns the HTTP client settings.
func (c *Config) BackendConfig() backend.Config {
	return backend.Config{
		BaseURL:              c.BackendBaseURL,
		Timeout:              c.RequestTimeout,
		MaxRetries:           c.RequestMaxRetries,
		RetryInitialInterval: c.RequestRetryInterval,
	}
}

// PreviewConfig returns the invoice layout settings.
func (c *Config) PreviewConfig() preview.Config {
	cfg := preview.DefaultConfig()
	cfg.Issuer = preview.Issuer{
		Name:         c.IssuerName,
		AddressLines: c.IssuerAddress,
		Terms:        c.IssuerTerms,
	}
	cfg.LineItemCap = c.PreviewLineItemCap
	cfg.Rows = c.PreviewRows
	cfg.DateLayout = c.PreviewDateLayout
	if c.location != nil {
		cfg.Location = c.location
	}
	cfg.ShowBalances = c.PreviewShowBalances
	return cfg
}

// Rules returns the draft validation rules. BILLER_CONTACT_PATTERN=none
// disables the contact format check.
func (c *Config) Rules() billing.Rules {
	return billing.Rules{ContactPattern: c.contactPattern}
}

// Calculator returns the invoice calculator spelling totals in AMOUNT_WORDS_UNIT.
func (c *Config) Calculator() *billing.Calculator {
	return billing.NewCalculator(billing.NewWords(c.AmountWordsUnit))
}

// ScanConfig returns the Document AI settings.
func (c *Config) ScanConfig() scan.Config {
	return scan.Config{
		ProjectID:        c.GoogleCloudProject,
		Location:         c.GoogleCloudLocation,
		ProcessorID:      c.DocumentAIProcessorID,
		ProcessorVersion: c.DocumentAIProcessorVersion,
		Timeout:          c.DocumentAITimeout,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return defaultValue
}

// splitList splits a "|" separated value and drops blank entries.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
