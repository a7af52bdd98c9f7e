package config

import (
	"testing"

	"github.com/kirillkom/upload-probe/internal/core/domain"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("CONFIDENCE_THRESHOLD", "")
	t.Setenv("COLLECTION_FORMAT", "")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "")
	t.Setenv("RANDOM_FILE_PER_API", "")

	cfg := Load()
	if cfg.GeminiModel != "gemini-2.0-flash" {
		t.Fatalf("expected default model, got %q", cfg.GeminiModel)
	}
	if cfg.ConfidenceThreshold != 0.6 {
		t.Fatalf("expected default threshold 0.6, got %v", cfg.ConfidenceThreshold)
	}
	if cfg.CollectionFormat != "postman" {
		t.Fatalf("expected default format postman, got %q", cfg.CollectionFormat)
	}
	if cfg.RequestTimeoutSeconds != 30 {
		t.Fatalf("expected default timeout 30, got %d", cfg.RequestTimeoutSeconds)
	}
	if !cfg.RandomFilePerAPI {
		t.Fatalf("expected random selection by default")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("GEMINI_MODEL", "gemini-2.5-pro")
	t.Setenv("CONFIDENCE_THRESHOLD", "0.8")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "10")
	t.Setenv("RANDOM_FILE_PER_API", "false")
	t.Setenv("ORACLE_CALLS_PER_SECOND", "2.5")

	cfg := Load()
	if cfg.GeminiModel != "gemini-2.5-pro" {
		t.Fatalf("expected model override, got %q", cfg.GeminiModel)
	}
	if cfg.ConfidenceThreshold != 0.8 {
		t.Fatalf("expected threshold 0.8, got %v", cfg.ConfidenceThreshold)
	}
	if cfg.RequestTimeoutSeconds != 10 {
		t.Fatalf("expected timeout 10, got %d", cfg.RequestTimeoutSeconds)
	}
	if cfg.RandomFilePerAPI {
		t.Fatalf("expected random selection disabled")
	}
	if cfg.OracleQPS != 2.5 {
		t.Fatalf("expected oracle qps 2.5, got %v", cfg.OracleQPS)
	}
}

func TestValidateRejectsMissingRequiredSettings(t *testing.T) {
	cfg := Config{
		CollectionFormat:      "postman",
		ConfidenceThreshold:   0.6,
		RequestTimeoutSeconds: 30,
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error kind, got %v", err)
	}
}

func TestValidateRejectsUnknownCollectionFormat(t *testing.T) {
	cfg := Config{
		GeminiAPIKey:          "key",
		DocsDir:               "./docs",
		CollectionPath:        "./collection.json",
		CollectionFormat:      "har",
		ConfidenceThreshold:   0.6,
		RequestTimeoutSeconds: 30,
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown collection format")
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	cfg := Config{
		GeminiAPIKey:          "key",
		DocsDir:               "./docs",
		CollectionPath:        "./collection.json",
		CollectionFormat:      "openapi",
		ConfidenceThreshold:   0.6,
		RequestTimeoutSeconds: 30,
		OutputDir:             "./outputs",
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.EffectiveCachePath() != "outputs/classifications.json" {
		t.Fatalf("unexpected cache path %q", cfg.EffectiveCachePath())
	}
}
