package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "")
	t.Setenv("PREVIEW_TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)

	b := cfg.BackendConfig()
	assert.Equal(t, "http://localhost:5000", b.BaseURL)
	assert.Equal(t, 15*time.Second, b.Timeout)
	assert.Equal(t, 2, b.MaxRetries)

	p := cfg.PreviewConfig()
	assert.Equal(t, 6, p.LineItemCap)
	assert.Equal(t, 8, p.Rows)
	assert.Equal(t, "02/01/2006", p.DateLayout)
	assert.Equal(t, time.UTC, p.Location)
	assert.False(t, p.ShowBalances)

	require.NotNil(t, cfg.Rules().ContactPattern)
	assert.True(t, cfg.Rules().ContactPattern.MatchString("9876543210"))
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "https://bills.example.com/")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("REQUEST_MAX_RETRIES", "0")
	t.Setenv("ISSUER_NAME", "Rajasthan Mobile Shop")
	t.Setenv("ISSUER_ADDRESS", "Main Market | Mirzewala||")
	t.Setenv("ISSUER_TERMS", "No returns|Subject to local jurisdiction")
	t.Setenv("PREVIEW_LINE_ITEM_CAP", "10")
	t.Setenv("PREVIEW_ROWS", "12")
	t.Setenv("PREVIEW_TIMEZONE", "Asia/Kolkata")
	t.Setenv("PREVIEW_SHOW_BALANCES", "true")
	t.Setenv("BILLER_CONTACT_PATTERN", "none")
	t.Setenv("AMOUNT_WORDS_UNIT", "dollars only")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.BackendConfig().Timeout)
	assert.Equal(t, 0, cfg.BackendConfig().MaxRetries)

	p := cfg.PreviewConfig()
	assert.Equal(t, "Rajasthan Mobile Shop", p.Issuer.Name)
	assert.Equal(t, []string{"Main Market", "Mirzewala"}, p.Issuer.AddressLines)
	assert.Equal(t, []string{"No returns", "Subject to local jurisdiction"}, p.Issuer.Terms)
	assert.Equal(t, 10, p.LineItemCap)
	assert.Equal(t, "Asia/Kolkata", p.Location.String())
	assert.True(t, p.ShowBalances)

	assert.Nil(t, cfg.Rules().ContactPattern)
	assert.Equal(t, "three dollars only", cfg.Calculator().Words().AmountInWords(decimal.NewFromInt(3)))
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"relative base url", map[string]string{"BACKEND_BASE_URL": "localhost:5000/api"}, "BACKEND_BASE_URL"},
		{"rows below cap", map[string]string{"PREVIEW_LINE_ITEM_CAP": "6", "PREVIEW_ROWS": "4"}, "PREVIEW_ROWS"},
		{"zero cap", map[string]string{"PREVIEW_LINE_ITEM_CAP": "0"}, "PREVIEW_LINE_ITEM_CAP"},
		{"bad zone", map[string]string{"PREVIEW_TIMEZONE": "Mars/Olympus"}, "PREVIEW_TIMEZONE"},
		{"bad pattern", map[string]string{"BILLER_CONTACT_PATTERN": "("}, "BILLER_CONTACT_PATTERN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PREVIEW_TIMEZONE", "UTC")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("X_INT", "nope")
	t.Setenv("X_BOOL", "1")
	t.Setenv("X_DUR", "250ms")

	assert.Equal(t, 7, getEnvInt("X_INT", 7))
	assert.True(t, getEnvBool("X_BOOL", false))
	assert.Equal(t, 250*time.Millisecond, getEnvDuration("X_DUR", time.Second))
	assert.Equal(t, "fallback", getEnv("X_UNSET_FOR_TEST", "fallback"))
}
