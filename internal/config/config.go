package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kirillkom/upload-probe/internal/core/domain"
)

type Config struct {
	LogLevel string

	GeminiAPIKey string
	GeminiModel  string
	OracleQPS    float64

	DocsDir             string
	ConfidenceThreshold float64

	CollectionPath   string
	CollectionFormat string
	PostmanEnvPath   string
	BaseURLOverride  string

	OutputDir string
	CachePath string
	VocabPath string

	RequestTimeoutSeconds int
	RandomFilePerAPI      bool

	MetricsPort string

	PostgresDSN string

	NATSURL     string
	NATSSubject string
}

func Load() Config {
	return Config{
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		GeminiAPIKey: mustEnv("GEMINI_API_KEY", ""),
		GeminiModel:  mustEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		OracleQPS:    mustEnvFloat("ORACLE_CALLS_PER_SECOND", 1),

		DocsDir:             mustEnv("DOCS_DIR", "./docs"),
		ConfidenceThreshold: mustEnvFloat("CONFIDENCE_THRESHOLD", 0.6),

		CollectionPath:   mustEnv("COLLECTION_PATH", "./collection.json"),
		CollectionFormat: mustEnv("COLLECTION_FORMAT", "postman"),
		PostmanEnvPath:   mustEnv("POSTMAN_ENV_PATH", ""),
		BaseURLOverride:  mustEnv("BASE_URL_OVERRIDE", ""),

		OutputDir: mustEnv("OUTPUT_DIR", "./outputs"),
		CachePath: mustEnv("CACHE_PATH", ""),
		VocabPath: mustEnv("VOCAB_PATH", ""),

		RequestTimeoutSeconds: mustEnvInt("REQUEST_TIMEOUT_SECONDS", 30),
		RandomFilePerAPI:      mustEnvBool("RANDOM_FILE_PER_API", true),

		MetricsPort: mustEnv("METRICS_PORT", ""),

		PostgresDSN: mustEnv("POSTGRES_DSN", ""),

		NATSURL:     mustEnv("NATS_URL", ""),
		NATSSubject: mustEnv("NATS_SUBJECT", "uploadprobe.attempts"),
	}
}

// Validate checks the settings a run cannot start without.
func (c Config) Validate() error {
	var problems []error
	if c.GeminiAPIKey == "" {
		problems = append(problems, errors.New("GEMINI_API_KEY is required"))
	}
	if c.DocsDir == "" {
		problems = append(problems, errors.New("DOCS_DIR is required"))
	}
	if c.CollectionPath == "" {
		problems = append(problems, errors.New("COLLECTION_PATH is required"))
	}
	switch c.CollectionFormat {
	case "postman", "openapi":
	default:
		problems = append(problems, fmt.Errorf("COLLECTION_FORMAT must be postman or openapi, got %q", c.CollectionFormat))
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		problems = append(problems, fmt.Errorf("CONFIDENCE_THRESHOLD must be within [0,1], got %v", c.ConfidenceThreshold))
	}
	if c.RequestTimeoutSeconds <= 0 {
		problems = append(problems, fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive, got %d", c.RequestTimeoutSeconds))
	}
	if len(problems) > 0 {
		return domain.WrapError(domain.ErrConfiguration, "validate config", errors.Join(problems...))
	}
	return nil
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// EffectiveCachePath defaults the cache next to the report artifacts.
func (c Config) EffectiveCachePath() string {
	if c.CachePath != "" {
		return c.CachePath
	}
	return filepath.Join(c.OutputDir, "classifications.json")
}

func (c Config) ReportPath() string {
	return filepath.Join(c.OutputDir, "report.json")
}

func (c Config) WorkbookPath() string {
	return filepath.Join(c.OutputDir, "report.xlsx")
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
