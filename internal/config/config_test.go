package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twiindan/facturai/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GOOGLE_API_KEY", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "Data", cfg.Input.Dir)
	assert.Equal(t, "invoices_all.csv", cfg.Output.AllFile)
	assert.Equal(t, "invoices_unique.csv", cfg.Output.UniqueFile)
	assert.Equal(t, "invoices_duplicates.csv", cfg.Output.DuplicatesFile)
	assert.Equal(t, "gemini", cfg.Extractor.Provider)
	assert.Equal(t, 30000, cfg.Extractor.MaxContextChars)
	assert.Equal(t, 120, cfg.Extractor.TimeoutSecs)
	assert.Equal(t, "text", cfg.Extractor.InputMode)
	assert.Equal(t, 1, cfg.Batch.Concurrency)
	assert.True(t, cfg.Dedup.IncludeSourceFilename)
	assert.False(t, cfg.S3.Enabled())
	assert.False(t, cfg.DB.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FACTURAI_INPUT_DIR", "/srv/invoices")
	t.Setenv("FACTURAI_EXTRACTOR_PROVIDER", "claude")
	t.Setenv("FACTURAI_EXTRACTOR_INPUT_MODE", "document")
	t.Setenv("FACTURAI_BATCH_CONCURRENCY", "4")
	t.Setenv("FACTURAI_DEDUP_INCLUDE_SOURCE_FILENAME", "false")
	t.Setenv("FACTURAI_S3_BUCKET", "invoices-out")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/invoices", cfg.Input.Dir)
	assert.Equal(t, "claude", cfg.Extractor.Provider)
	assert.Equal(t, "document", cfg.Extractor.InputMode)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
	assert.False(t, cfg.Dedup.IncludeSourceFilename)
	assert.True(t, cfg.S3.Enabled())
}

func TestLoad_GoogleAPIKeyFallback(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FACTURAI_EXTRACTOR_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "g-key")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "g-key", cfg.Extractor.APIKey)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FACTURAI_OUTPUT_DIR=/tmp/out-from-dotenv\n"), 0o600))
	t.Chdir(dir)
	// godotenv does not override variables that are already set, so clear it
	// through Setenv to get automatic restoration and then unset.
	t.Setenv("FACTURAI_OUTPUT_DIR", "")
	require.NoError(t, os.Unsetenv("FACTURAI_OUTPUT_DIR"))

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out-from-dotenv", cfg.Output.Dir)
}

func TestLoad_InvalidInputMode(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FACTURAI_EXTRACTOR_INPUT_MODE", "ocr")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input_mode")
}

func TestDBConfig_DSN(t *testing.T) {
	db := config.DBConfig{User: "u", Password: "p", Host: "h", Port: 5433, Name: "n", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5433/n?sslmode=disable", db.DSN())
}

func TestExtractorConfig_Fallback(t *testing.T) {
	cfg := config.ExtractorConfig{
		Provider:         "gemini",
		APIKey:           "g-key",
		Model:            "gemini-2.5-flash",
		TimeoutSecs:      30,
		MaxContextChars:  1000,
		FallbackProvider: "claude",
		FallbackAPIKey:   "c-key",
	}

	fb, ok := cfg.Fallback()
	require.True(t, ok)
	assert.Equal(t, "claude", fb.Provider)
	assert.Equal(t, "c-key", fb.APIKey)
	assert.Empty(t, fb.Model)
	assert.Empty(t, fb.FallbackProvider)
	assert.Equal(t, 30, fb.TimeoutSecs)

	_, ok = (&config.ExtractorConfig{Provider: "gemini"}).Fallback()
	assert.False(t, ok)
}

func TestLoad_FallbackSameAsPrimary(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FACTURAI_EXTRACTOR_PROVIDER", "gemini")
	t.Setenv("FACTURAI_EXTRACTOR_FALLBACK_PROVIDER", "gemini")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fallback_provider")
}
