// Package config loads finextract settings from config.yaml and FINEXTRACT_*
// environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/finextract/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	OCR        OCRConfig        `yaml:"ocr" mapstructure:"ocr"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Scoring    ScoringConfig    `yaml:"scoring" mapstructure:"scoring"`
	Catalog    CatalogConfig    `yaml:"catalog" mapstructure:"catalog"`
	Storage    StorageConfig    `yaml:"storage" mapstructure:"storage"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// AnthropicConfig holds the extraction model settings.
type AnthropicConfig struct {
	Key          string  `yaml:"key" mapstructure:"key"`
	Model        string  `yaml:"model" mapstructure:"model"`
	MaxTokens    int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature  float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTextChars int     `yaml:"max_text_chars" mapstructure:"max_text_chars"`
}

// OCRConfig configures PDF text extraction.
type OCRConfig struct {
	// Provider is native, local (pdftotext), mistral or auto (try each in turn).
	Provider      string `yaml:"provider" mapstructure:"provider"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	MistralKey    string `yaml:"mistral_key" mapstructure:"mistral_key"`
	MistralModel  string `yaml:"mistral_model" mapstructure:"mistral_model"`
	MinTextChars  int    `yaml:"min_text_chars" mapstructure:"min_text_chars"`
	MaxFileMB     int    `yaml:"max_file_mb" mapstructure:"max_file_mb"`
}

// BatchConfig configures the batch orchestrator.
type BatchConfig struct {
	// Concurrency caps in-flight documents; 0 means twice the CPU count.
	Concurrency         int           `yaml:"concurrency" mapstructure:"concurrency"`
	DocumentTimeoutSecs int           `yaml:"document_timeout_secs" mapstructure:"document_timeout_secs"`
	RequestsPerSecond   float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Retry               RetryConfig   `yaml:"retry" mapstructure:"retry"`
	Circuit             CircuitConfig `yaml:"circuit" mapstructure:"circuit"`
}

// RetryConfig configures model call retries.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// CircuitConfig configures the per-service circuit breakers.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// ScoringConfig configures the signal evaluators and the confidence scorer.
type ScoringConfig struct {
	Weights              WeightsConfig `yaml:"weights" mapstructure:"weights"`
	MinSignalScore       float64       `yaml:"min_signal_score" mapstructure:"min_signal_score"`
	SynonymCredit        float64       `yaml:"synonym_credit" mapstructure:"synonym_credit"`
	RelatedSectionCredit float64       `yaml:"related_section_credit" mapstructure:"related_section_credit"`
	AnomalyPenalty       float64       `yaml:"anomaly_penalty" mapstructure:"anomaly_penalty"`
}

// WeightsConfig holds the signal weights. They must sum to 1.
type WeightsConfig struct {
	TextClarity    float64 `yaml:"text_clarity" mapstructure:"text_clarity"`
	ExactMatch     float64 `yaml:"exact_match" mapstructure:"exact_match"`
	ContextMatch   float64 `yaml:"context_match" mapstructure:"context_match"`
	FormatValidity float64 `yaml:"format_validity" mapstructure:"format_validity"`
}

// CatalogConfig points at the attribute catalog. An empty path uses the
// built-in catalog.
type CatalogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// StorageConfig configures where input documents are read and outputs written.
type StorageConfig struct {
	Driver          string `yaml:"driver" mapstructure:"driver"`
	LocalDir        string `yaml:"local_dir" mapstructure:"local_dir"`
	Region          string `yaml:"region" mapstructure:"region"`
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	InputPrefix     string `yaml:"input_prefix" mapstructure:"input_prefix"`
	OutputPrefix    string `yaml:"output_prefix" mapstructure:"output_prefix"`
	InputBucket     string `yaml:"input_bucket" mapstructure:"input_bucket"`
	OutputBucket    string `yaml:"output_bucket" mapstructure:"output_bucket"`
	Endpoint        string `yaml:"endpoint" mapstructure:"endpoint"`
	AccessKey       string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey       string `yaml:"secret_key" mapstructure:"secret_key"`
	PresignTTLHours int    `yaml:"presign_ttl_hours" mapstructure:"presign_ttl_hours"`
	RetentionDays   int    `yaml:"retention_days" mapstructure:"retention_days"`
}

// Location is one resolved bucket and key prefix.
type Location struct {
	Bucket string
	Prefix string
}

// Resolve returns the input and output locations. A single bucket is split
// by prefix; dedicated input and output buckets win when set.
func (s StorageConfig) Resolve() (in, out Location) {
	in = Location{Bucket: s.Bucket, Prefix: s.InputPrefix}
	out = Location{Bucket: s.Bucket, Prefix: s.OutputPrefix}
	if s.InputBucket != "" {
		in.Bucket = s.InputBucket
	}
	if s.OutputBucket != "" {
		out.Bucket = s.OutputBucket
	}
	return in, out
}

// StoreConfig configures the run history database.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// MonitoringConfig configures post-run alerts. An empty webhook disables
// delivery.
type MonitoringConfig struct {
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	MinConfidence        float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
	CostThresholdUSD     float64 `yaml:"cost_threshold_usd" mapstructure:"cost_threshold_usd"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FINEXTRACT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 2000)
	v.SetDefault("anthropic.temperature", 0.1)
	v.SetDefault("anthropic.max_text_chars", 8000)
	v.SetDefault("ocr.provider", "auto")
	v.SetDefault("ocr.pdftotext_path", "pdftotext")
	v.SetDefault("ocr.mistral_model", "pixtral-large-latest")
	v.SetDefault("ocr.min_text_chars", 100)
	v.SetDefault("ocr.max_file_mb", 100)
	v.SetDefault("batch.concurrency", 0)
	v.SetDefault("batch.document_timeout_secs", 300)
	v.SetDefault("batch.requests_per_second", 2)
	v.SetDefault("batch.retry.max_attempts", 3)
	v.SetDefault("batch.retry.initial_backoff_ms", 500)
	v.SetDefault("batch.retry.max_backoff_ms", 30000)
	v.SetDefault("batch.retry.multiplier", 2.0)
	v.SetDefault("batch.retry.jitter_fraction", 0.25)
	v.SetDefault("batch.circuit.failure_threshold", 5)
	v.SetDefault("batch.circuit.reset_timeout_secs", 30)
	v.SetDefault("scoring.weights.text_clarity", 0.25)
	v.SetDefault("scoring.weights.exact_match", 0.30)
	v.SetDefault("scoring.weights.context_match", 0.25)
	v.SetDefault("scoring.weights.format_validity", 0.20)
	v.SetDefault("scoring.min_signal_score", 0.5)
	v.SetDefault("scoring.synonym_credit", 0.8)
	v.SetDefault("scoring.related_section_credit", 0.6)
	v.SetDefault("scoring.anomaly_penalty", 0.15)
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local_dir", ".")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.input_prefix", "inputfolder/")
	v.SetDefault("storage.output_prefix", "outputfolder/")
	v.SetDefault("storage.presign_ttl_hours", 24)
	v.SetDefault("storage.retention_days", 30)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "finextract.db")
	v.SetDefault("monitoring.failure_rate_threshold", 0.25)
	v.SetDefault("monitoring.min_confidence", 0.5)
	v.SetDefault("monitoring.cost_threshold_usd", 0)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. Mode is run, consolidate,
// ask or outputs. Problems come back as a single ConfigurationError.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "run":
		if c.Anthropic.Key == "" {
			errs = append(errs, "anthropic.key is required")
		}
		errs = append(errs, c.validateBatch()...)
		errs = append(errs, c.validateScoring()...)
		errs = append(errs, c.validateOCR()...)
		errs = append(errs, c.validateStorage()...)
	case "ask":
		if c.Anthropic.Key == "" {
			errs = append(errs, "anthropic.key is required")
		}
	case "consolidate", "outputs":
		errs = append(errs, c.validateStorage()...)
	default:
		errs = append(errs, fmt.Sprintf("unknown mode %q", mode))
	}

	if len(errs) > 0 {
		return &model.ConfigurationError{Problems: errs}
	}
	return nil
}

func (c *Config) validateBatch() []string {
	var errs []string
	if c.Batch.Concurrency < 0 || c.Batch.Concurrency > 64 {
		errs = append(errs, "batch.concurrency must be between 0 and 64")
	}
	if c.Batch.DocumentTimeoutSecs <= 0 {
		errs = append(errs, "batch.document_timeout_secs must be > 0")
	}
	if c.Batch.RequestsPerSecond < 0 {
		errs = append(errs, "batch.requests_per_second must be >= 0")
	}
	return errs
}

func (c *Config) validateScoring() []string {
	var errs []string
	for name, v := range map[string]float64{
		"scoring.min_signal_score":       c.Scoring.MinSignalScore,
		"scoring.synonym_credit":         c.Scoring.SynonymCredit,
		"scoring.related_section_credit": c.Scoring.RelatedSectionCredit,
		"scoring.anomaly_penalty":        c.Scoring.AnomalyPenalty,
	} {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Sprintf("%s must be between 0 and 1", name))
		}
	}
	return errs
}

func (c *Config) validateOCR() []string {
	switch c.OCR.Provider {
	case "", "auto", "native", "local":
		return nil
	case "mistral":
		if c.OCR.MistralKey == "" {
			return []string{"ocr.mistral_key is required for the mistral provider"}
		}
		return nil
	default:
		return []string{fmt.Sprintf("ocr.provider %q is not one of native, local, mistral, auto", c.OCR.Provider)}
	}
}

func (c *Config) validateStorage() []string {
	in, out := c.Storage.Resolve()
	if in == out {
		return []string{"storage input and output locations must differ"}
	}
	switch c.Storage.Driver {
	case "", "local":
		return nil
	case "s3":
		var errs []string
		if in.Bucket == "" || out.Bucket == "" {
			errs = append(errs, "storage.bucket or storage.input_bucket and storage.output_bucket are required for s3")
		}
		if c.Storage.PresignTTLHours <= 0 || c.Storage.PresignTTLHours > 7*24 {
			errs = append(errs, "storage.presign_ttl_hours must be between 1 and 168")
		}
		return errs
	default:
		return []string{fmt.Sprintf("storage.driver %q is not one of local, s3", c.Storage.Driver)}
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
