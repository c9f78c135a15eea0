package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	pkgRetry "github.com/futig/report-grounder/internal/pkg/retry"
	"github.com/joho/godotenv"
)

// Job store backends
const (
	JobStoreMemory   = "memory"
	JobStoreBolt     = "bolt"
	JobStorePostgres = "postgres"
)

// Embedding backends
const (
	EmbedBackendHashing = "hashing"
	EmbedBackendOpenAI  = "openai"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr      string        `env:"SERVER_ADDR" envDefault:":8000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Pipeline configuration
	PipelineCfg PipelineConfig

	// Job state configuration
	JobStoreCfg JobStoreConfig `envPrefix:"JOB_"`

	// Database configuration, used by the postgres job store
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"1"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// External service configurations
	EmbeddingConnectorCfg EmbeddingConnectorConfig `envPrefix:"EMBEDDING_"`
	LLMConnectorCfg       LLMConnectorConfig       `envPrefix:"LLM_"`
	OuterAPIConnectorCfg  OuterAPIConnectorConfig  `envPrefix:"OUTER_API_"`

	// File upload configuration
	FileUploadCfg FileUploadConfig `envPrefix:"FILE_UPLOAD_"`

	// Telegram notification configuration (optional)
	TelegramCfg TelegramConfig `envPrefix:"TELEGRAM_"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Environment (set from flag, not from env var)
	Environment string
}

// PipelineConfig locates the workspace and tunes retrieval.
type PipelineConfig struct {
	WorkspaceRoot   string `env:"WORKSPACE_ROOT" envDefault:"./data"`
	UploadDir       string `env:"UPLOAD_DIR" envDefault:"./uploads"`
	QuestionsFile   string `env:"QUESTIONS_FILE" envDefault:"./soru_yordam.json"`
	TopK            int    `env:"TOPK" envDefault:"10"`
	EmbedBackend    string `env:"EMBED_BACKEND" envDefault:"hashing"`
	EmbedDimensions int    `env:"EMBED_DIMENSIONS" envDefault:"512"`
	PDFTool         string `env:"PDF_TOOL" envDefault:"pdftotext"`
	ExportFont      string `env:"EXPORT_FONT" envDefault:"ttf/DejaVuSans.ttf"`
}

type JobStoreConfig struct {
	Backend string        `env:"STORE" envDefault:"memory"`
	TTL     time.Duration `env:"TTL" envDefault:"24h"`
	Path    string        `env:"STORE_PATH" envDefault:"./data/jobs.db"`
}

// EmbeddingConnectorConfig configures an OpenAI-compatible /embeddings endpoint.
type EmbeddingConnectorConfig struct {
	HTTPClientConfig
	Endpoint  string               `env:"ENDPOINT" envDefault:"/v1/embeddings"`
	Model     string               `env:"MODEL" envDefault:"text-embedding-3-small"`
	BatchSize int                  `env:"BATCH_SIZE" envDefault:"64"`
	Retry     pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

// LLMConnectorConfig configures an OpenAI-compatible chat completion endpoint.
type LLMConnectorConfig struct {
	HTTPClientConfig
	Endpoint    string               `env:"ENDPOINT" envDefault:"/v1/chat/completions"`
	Model       string               `env:"MODEL" envDefault:"gpt-4o-mini"`
	Temperature float64              `env:"TEMPERATURE" envDefault:"0"`
	Delay       time.Duration        `env:"DELAY" envDefault:"300ms"`
	Retry       pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

// OuterAPIConnectorConfig configures delivery of answers to an external API.
// An empty service URL disables delivery.
type OuterAPIConnectorConfig struct {
	HTTPClientConfig
	Endpoint string `env:"ENDPOINT"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"60s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"60s"`
	Token                 string            `env:"TOKEN"`
	Url                   string            `env:"SERVICE_URL"`
	Headers               map[string]string `env:"HEADERS"`
}

// FileUploadConfig holds file upload limits
type FileUploadConfig struct {
	MaxFileSize   int64 `env:"MAX_FILE_SIZE" envDefault:"52428800"`   // 50 MiB
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"54525952"` // 52 MiB
}

// TelegramConfig holds Telegram notification settings. Notifications are off
// when the token is empty.
type TelegramConfig struct {
	BotToken string `env:"BOT_TOKEN"`
	ChatID   int64  `env:"CHAT_ID"`

	// Command bot settings
	UpdateTimeout      int           `env:"UPDATE_TIMEOUT" envDefault:"60"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`
	RateLimitBurst     int           `env:"RATE_LIMIT_BURST" envDefault:"5"`
}

func (c TelegramConfig) Enabled() bool {
	return c.BotToken != "" && c.ChatID != 0
}

// LoadConfig reads the -env flag, loads the matching env file and parses
// the environment.
func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	return Load(*envFlag)
}

// Load parses the configuration for environment without touching flags.
func Load(environment string) (*Config, error) {
	envFile := getEnvFile(environment)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil {
			fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// OPENAI_API_KEY is the conventional name; it fills both connectors unless
	// a dedicated token is set.
	if key, err := env.ParseAs[openAIKey](); err == nil && key.Value != "" {
		if cfg.EmbeddingConnectorCfg.Token == "" {
			cfg.EmbeddingConnectorCfg.Token = key.Value
		}
		if cfg.LLMConnectorCfg.Token == "" {
			cfg.LLMConnectorCfg.Token = key.Value
		}
	}

	cfg.Environment = environment

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

type openAIKey struct {
	Value string `env:"OPENAI_API_KEY"`
}

func validateConfig(cfg *Config) error {
	var errs []string

	if cfg.PipelineCfg.TopK < 1 || cfg.PipelineCfg.TopK > 100 {
		errs = append(errs, fmt.Sprintf("TOPK must be between 1 and 100, got %d", cfg.PipelineCfg.TopK))
	}

	switch cfg.PipelineCfg.EmbedBackend {
	case EmbedBackendHashing:
		if cfg.PipelineCfg.EmbedDimensions < 8 {
			errs = append(errs, fmt.Sprintf("EMBED_DIMENSIONS must be at least 8, got %d", cfg.PipelineCfg.EmbedDimensions))
		}
	case EmbedBackendOpenAI:
		if cfg.EmbeddingConnectorCfg.Url == "" && !cfg.EnableMocks {
			errs = append(errs, "EMBEDDING_SERVICE_URL is required for the openai embedding backend")
		}
		if cfg.EmbeddingConnectorCfg.BatchSize < 1 {
			errs = append(errs, fmt.Sprintf("EMBEDDING_BATCH_SIZE must be positive, got %d", cfg.EmbeddingConnectorCfg.BatchSize))
		}
	default:
		errs = append(errs, fmt.Sprintf("EMBED_BACKEND must be %q or %q, got %q", EmbedBackendHashing, EmbedBackendOpenAI, cfg.PipelineCfg.EmbedBackend))
	}

	if cfg.LLMConnectorCfg.Url == "" && !cfg.EnableMocks {
		errs = append(errs, "LLM_SERVICE_URL is required unless ENABLE_MOCKS is set")
	}

	if cfg.LLMConnectorCfg.Delay < 0 {
		errs = append(errs, fmt.Sprintf("LLM_DELAY must not be negative, got %s", cfg.LLMConnectorCfg.Delay))
	}

	switch cfg.JobStoreCfg.Backend {
	case JobStoreMemory, JobStoreBolt:
	case JobStorePostgres:
		if cfg.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required for the postgres job store")
		}
		if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
			errs = append(errs, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
		}
		if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
			errs = append(errs, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
		}
	default:
		errs = append(errs, fmt.Sprintf("JOB_STORE must be one of memory, bolt, postgres, got %q", cfg.JobStoreCfg.Backend))
	}

	if cfg.FileUploadCfg.MaxFileSize <= 0 || cfg.FileUploadCfg.MaxUploadSize < cfg.FileUploadCfg.MaxFileSize {
		errs = append(errs, "FILE_UPLOAD_MAX_UPLOAD_SIZE must be at least FILE_UPLOAD_MAX_FILE_SIZE, and both positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
