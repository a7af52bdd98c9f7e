package openapi

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kirillkom/upload-probe/internal/core/domain"
)

const sampleSpec = `openapi: 3.0.3
info:
  title: KYC APIs
  version: "1.0"
servers:
  - url: https://api.example.com
paths:
  /api/v1/documents/upload:
    post:
      summary: Upload identity document
      requestBody:
        content:
          multipart/form-data:
            schema:
              type: object
              properties:
                file:
                  type: string
                  format: binary
                doc_category:
                  type: string
                  default: identity
      responses:
        "201":
          description: created
  /api/v1/raw:
    put:
      operationId: rawUpload
      requestBody:
        content:
          application/octet-stream:
            schema:
              type: string
              format: binary
      responses:
        "200":
          description: ok
  /health:
    get:
      summary: Health check
      responses:
        "200":
          description: ok
`

func writeSpec(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "openapi.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write spec file: %v", err)
	}
	return path
}

func TestLoadDetectsMultipartUpload(t *testing.T) {
	loader := NewLoader(writeSpec(t, sampleSpec), "")
	endpoints, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(endpoints) != 3 {
		t.Fatalf("expected 3 endpoints, got %d", len(endpoints))
	}

	var upload domain.Endpoint
	for _, ep := range endpoints {
		if ep.Name == "Upload identity document" {
			upload = ep
		}
	}
	if upload.Name == "" {
		t.Fatalf("upload endpoint not found")
	}
	if !upload.IsUpload || upload.BodyMode != domain.BodyModeFormData {
		t.Fatalf("multipart endpoint not detected as upload: %+v", upload)
	}
	if upload.FileFieldName != "file" {
		t.Fatalf("unexpected file field %q", upload.FileFieldName)
	}
	if upload.Method != "POST" || upload.URL != "https://api.example.com/api/v1/documents/upload" {
		t.Fatalf("unexpected method/url: %s %s", upload.Method, upload.URL)
	}
	if upload.FormFields["doc_category"] != "identity" {
		t.Fatalf("default form value must be carried: %+v", upload.FormFields)
	}
}

func TestLoadDetectsRawBinaryUpload(t *testing.T) {
	loader := NewLoader(writeSpec(t, sampleSpec), "")
	endpoints, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	for _, ep := range endpoints {
		switch ep.Name {
		case "rawUpload":
			if !ep.IsUpload || ep.BodyMode != domain.BodyModeFile {
				t.Fatalf("octet-stream endpoint not detected as upload: %+v", ep)
			}
		case "Health check":
			if ep.IsUpload {
				t.Fatalf("GET without body must not be an upload endpoint")
			}
		}
	}
}

func TestLoadBaseURLOverride(t *testing.T) {
	loader := NewLoader(writeSpec(t, sampleSpec), "http://localhost:8080/")
	endpoints, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for _, ep := range endpoints {
		if ep.Name == "Health check" && ep.URL != "http://localhost:8080/health" {
			t.Fatalf("base url override not applied: %q", ep.URL)
		}
	}
}

func TestLoadRejectsInvalidDocument(t *testing.T) {
	loader := NewLoader(writeSpec(t, "openapi: 3.0.3\ninfo: {}\n"), "")
	if _, err := loader.Load(context.Background()); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := NewLoader(filepath.Join(t.TempDir(), "missing.yaml"), "").Load(context.Background()); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
