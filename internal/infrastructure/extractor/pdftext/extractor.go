package pdftext

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

const defaultSnippetLimit = 4000

// Extractor pulls plain text out of PDF documents so the classifier can
// hand the vision model a readable excerpt alongside the raw bytes.
// Scanned PDFs without a text layer yield an empty snippet, which callers
// treat as "no excerpt".
type Extractor struct {
	limit int
}

func New() *Extractor {
	return &Extractor{limit: defaultSnippetLimit}
}

func (e *Extractor) Snippet(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer file.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text %s: %w", path, err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, io.LimitReader(plain, int64(e.limit))); err != nil {
		return "", fmt.Errorf("read pdf text %s: %w", path, err)
	}
	return strings.TrimSpace(sb.String()), nil
}
