package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/kirillkom/upload-probe/internal/core/domain"
)

// SnippetExtractor supplies a plain-text excerpt for formats the vision
// model handles poorly as raw bytes. Optional.
type SnippetExtractor interface {
	Snippet(ctx context.Context, path string) (string, error)
}

// Classifier implements ports.DocumentClassifier against Gemini vision.
type Classifier struct {
	client   *Client
	snippets SnippetExtractor
}

func NewClassifier(client *Client, snippets SnippetExtractor) *Classifier {
	return &Classifier{client: client, snippets: snippets}
}

func (c *Classifier) Classify(ctx context.Context, doc *domain.Document, payload []byte) (domain.Classification, error) {
	parts := []*genai.Part{genai.NewPartFromText(classificationInstruction)}

	if c.snippets != nil && strings.EqualFold(doc.Extension, "pdf") {
		if snippet, err := c.snippets.Snippet(ctx, doc.Path); err == nil && snippet != "" {
			parts = append(parts, genai.NewPartFromText("Extracted text from the document:\n"+snippet))
		}
	}

	mimeType := doc.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	parts = append(parts, genai.NewPartFromBytes(payload, mimeType))

	raw, err := c.client.generateJSON(ctx, "gemini.classify", parts)
	if err != nil {
		return domain.Classification{}, wrapTemporaryIfNeeded("gemini.classify", err)
	}

	cls, err := parseClassification(raw)
	if err != nil {
		return domain.Classification{}, fmt.Errorf("classify %s: %w", doc.Filename, err)
	}
	return cls, nil
}
