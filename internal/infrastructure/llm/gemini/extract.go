package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kirillkom/upload-probe/internal/core/domain"
)

// extractJSONObject pulls the outermost JSON object out of a model reply
// that may still be wrapped in prose or code fences.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

func parseClassification(raw string) (domain.Classification, error) {
	var payload struct {
		DocumentType string   `json:"document_type"`
		Confidence   *float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return domain.Classification{}, fmt.Errorf("parse classification json: %w", err)
	}

	docType := strings.ToLower(strings.TrimSpace(payload.DocumentType))
	if docType == "" {
		return domain.Classification{}, fmt.Errorf("classification missing document_type")
	}
	if payload.Confidence == nil {
		return domain.Classification{}, fmt.Errorf("classification missing confidence")
	}
	confidence := *payload.Confidence
	if confidence < 0 || confidence > 1 {
		return domain.Classification{}, fmt.Errorf("classification confidence %v out of range", confidence)
	}

	return domain.Classification{
		DocumentType: docType,
		Confidence:   confidence,
	}, nil
}

func parseInterpretation(raw string) (domain.Interpretation, error) {
	var payload struct {
		RequiredExtensionType *string `json:"required_extension_type"`
		RequiredDocumentType  *string `json:"required_document_type"`
		Description           string  `json:"description"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return domain.Interpretation{}, fmt.Errorf("parse interpretation json: %w", err)
	}

	interp := domain.Interpretation{Description: strings.TrimSpace(payload.Description)}
	if payload.RequiredExtensionType != nil {
		interp.RequiredExtension = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(*payload.RequiredExtensionType)), ".")
	}
	if payload.RequiredDocumentType != nil {
		interp.RequiredDocumentType = strings.ToLower(strings.TrimSpace(*payload.RequiredDocumentType))
	}
	return interp, nil
}
