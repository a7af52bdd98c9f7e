package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirillkom/upload-probe/internal/core/domain"
)

func sampleEntries() []domain.ReportEntry {
	return []domain.ReportEntry{
		{
			APIName: "Upload passport",
			Path:    "/api/v1/documents/upload",
			AcceptedDocuments: []domain.AcceptedDocument{
				{FileName: "passport.jpg", DocType: "passport"},
			},
			RejectedDocuments: []domain.RejectedDocument{
				{FileName: "invoice.pdf", DocType: "invoice", ErrorMessage: `{"error":"wrong type"}`},
			},
			SkippedDocuments: []domain.SkippedDocument{},
		},
	}
}

func TestWriteProducesValidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outputs", "report.json")
	writer := NewWriter(path)

	if err := writer.Write(context.Background(), sampleEntries()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var decoded []domain.ReportEntry
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if len(decoded) != 1 || decoded[0].APIName != "Upload passport" {
		t.Fatalf("unexpected report content: %+v", decoded)
	}
	if !strings.Contains(string(raw), "\n  ") {
		t.Fatalf("report must be indented")
	}
}

func TestWriteEmptyBucketsAsArrays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	writer := NewWriter(path)

	if err := writer.Write(context.Background(), sampleEntries()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(raw), `"skipped_documents": []`) {
		t.Fatalf("empty bucket must marshal as [], got:\n%s", raw)
	}
}

func TestWriteNilEntriesAsEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	writer := NewWriter(path)

	if err := writer.Write(context.Background(), nil); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if strings.TrimSpace(string(raw)) != "[]" {
		t.Fatalf("nil entries must write an empty array, got %q", raw)
	}
}

func TestWriteReplacesPreviousReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
		t.Fatalf("seed stale report: %v", err)
	}

	writer := NewWriter(path)
	if err := writer.Write(context.Background(), sampleEntries()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if strings.Contains(string(raw), "stale") {
		t.Fatalf("previous report must be replaced")
	}
}
