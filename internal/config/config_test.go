package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/finextract/internal/model"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, int64(2000), cfg.Anthropic.MaxTokens)
	assert.InDelta(t, 0.1, cfg.Anthropic.Temperature, 0.001)
	assert.Equal(t, 8000, cfg.Anthropic.MaxTextChars)
	assert.Equal(t, "auto", cfg.OCR.Provider)
	assert.Equal(t, 100, cfg.OCR.MinTextChars)
	assert.Equal(t, 0, cfg.Batch.Concurrency)
	assert.Equal(t, 300, cfg.Batch.DocumentTimeoutSecs)
	assert.Equal(t, 3, cfg.Batch.Retry.MaxAttempts)
	assert.Equal(t, 5, cfg.Batch.Circuit.FailureThreshold)
	assert.InDelta(t, 0.25, cfg.Scoring.Weights.TextClarity, 0.001)
	assert.InDelta(t, 0.30, cfg.Scoring.Weights.ExactMatch, 0.001)
	assert.InDelta(t, 0.25, cfg.Scoring.Weights.ContextMatch, 0.001)
	assert.InDelta(t, 0.20, cfg.Scoring.Weights.FormatValidity, 0.001)
	assert.InDelta(t, 0.5, cfg.Scoring.MinSignalScore, 0.001)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, 24, cfg.Storage.PresignTTLHours)
	assert.Equal(t, 30, cfg.Storage.RetentionDays)
	assert.Empty(t, cfg.Monitoring.WebhookURL)
	assert.InDelta(t, 0.25, cfg.Monitoring.FailureRateThreshold, 0.001)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
log:
  level: debug
  format: console
batch:
  concurrency: 4
  retry:
    max_attempts: 5
scoring:
  weights:
    exact_match: 0.4
storage:
  driver: s3
  bucket: statements
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
	assert.Equal(t, 5, cfg.Batch.Retry.MaxAttempts)
	assert.InDelta(t, 0.4, cfg.Scoring.Weights.ExactMatch, 0.001)
	// Defaults still apply for unset values
	assert.InDelta(t, 0.25, cfg.Scoring.Weights.TextClarity, 0.001)
	assert.Equal(t, 500, cfg.Batch.Retry.InitialBackoffMs)
	assert.Equal(t, "statements", cfg.Storage.Bucket)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("FINEXTRACT_STORE_DRIVER", "postgres")
	t.Setenv("FINEXTRACT_LOG_LEVEL", "warn")
	t.Setenv("FINEXTRACT_BATCH_DOCUMENT_TIMEOUT_SECS", "60")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 60, cfg.Batch.DocumentTimeoutSecs)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Anthropic.Key = "sk-ant-key"
	cfg.OCR.Provider = "auto"
	cfg.Batch.DocumentTimeoutSecs = 300
	cfg.Scoring.MinSignalScore = 0.5
	cfg.Scoring.SynonymCredit = 0.8
	cfg.Scoring.RelatedSectionCredit = 0.6
	cfg.Scoring.AnomalyPenalty = 0.15
	cfg.Storage.Driver = "local"
	cfg.Storage.InputPrefix = "inputfolder/"
	cfg.Storage.OutputPrefix = "outputfolder/"
	cfg.Storage.PresignTTLHours = 24
	return cfg
}

func TestValidateRun_AllPresent(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("run"))
}

func TestValidateRun_MissingKey(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = ""

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.True(t, model.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "anthropic.key is required")
}

func TestValidateConsolidate_NoKeyNeeded(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = ""

	assert.NoError(t, cfg.Validate("consolidate"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Batch.Concurrency = -1
	err := cfg.Validate("run")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "batch.concurrency must be between 0 and 64")

	cfg.Batch.Concurrency = 65
	assert.Error(t, cfg.Validate("run"))

	cfg.Batch.Concurrency = 0
	assert.NoError(t, cfg.Validate("run"))

	cfg.Batch.DocumentTimeoutSecs = 0
	err = cfg.Validate("run")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "document_timeout_secs")
}

func TestValidateScoringBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Scoring.MinSignalScore = 1.5

	err := cfg.Validate("run")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "scoring.min_signal_score must be between 0 and 1")
}

func TestValidateOCRProvider(t *testing.T) {
	cfg := validDefaults()

	cfg.OCR.Provider = "mistral"
	err := cfg.Validate("run")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ocr.mistral_key")

	cfg.OCR.MistralKey = "key"
	assert.NoError(t, cfg.Validate("run"))

	cfg.OCR.Provider = "tesseract"
	assert.Error(t, cfg.Validate("run"))
}

func TestValidateStorage(t *testing.T) {
	cfg := validDefaults()
	cfg.Storage.Driver = "s3"

	err := cfg.Validate("outputs")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "required for s3")

	cfg.Storage.Bucket = "statements"
	assert.NoError(t, cfg.Validate("outputs"))

	cfg.Storage.OutputPrefix = cfg.Storage.InputPrefix
	err = cfg.Validate("outputs")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must differ")

	cfg.Storage.Driver = "gcs"
	cfg.Storage.OutputPrefix = "outputfolder/"
	assert.Error(t, cfg.Validate("outputs"))
}

func TestStorageResolve(t *testing.T) {
	s := StorageConfig{Bucket: "shared", InputPrefix: "inputfolder/", OutputPrefix: "outputfolder/"}
	in, out := s.Resolve()
	assert.Equal(t, Location{Bucket: "shared", Prefix: "inputfolder/"}, in)
	assert.Equal(t, Location{Bucket: "shared", Prefix: "outputfolder/"}, out)

	s.InputBucket = "raw-statements"
	s.OutputBucket = "reports"
	in, out = s.Resolve()
	assert.Equal(t, "raw-statements", in.Bucket)
	assert.Equal(t, "reports", out.Bucket)
}
