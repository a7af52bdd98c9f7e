package localfs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kirillkom/upload-probe/internal/core/domain"
)

// Source discovers candidate documents under a directory tree. Hidden
// files and markdown notes are skipped, matching what the classifier
// corpus expects.
type Source struct {
	root string
}

func New(root string) (*Source, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, domain.WrapError(domain.ErrConfiguration, "documents directory", err)
	}
	if !info.IsDir() {
		return nil, domain.WrapError(domain.ErrConfiguration, "documents directory", fmt.Errorf("%s is not a directory", root))
	}
	return &Source{root: root}, nil
}

func (s *Source) List(ctx context.Context) ([]*domain.Document, error) {
	var docs []*domain.Document

	err := filepath.WalkDir(s.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		name := entry.Name()
		if entry.IsDir() {
			if strings.HasPrefix(name, ".") && path != s.root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || strings.HasSuffix(strings.ToLower(name), ".md") {
			return nil
		}

		doc, buildErr := s.describe(path, name)
		if buildErr != nil {
			return buildErr
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk documents dir: %w", err)
	}

	// Walk order is already lexical per directory; sorting the full set
	// keeps identity stable across nested layouts.
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

func (s *Source) describe(path, name string) (*domain.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	sum := sha256.Sum256(raw)

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	return &domain.Document{
		ID:        hex.EncodeToString(sum[:]),
		Path:      path,
		Filename:  name,
		Extension: ext,
		MimeType:  mimeTypeFor(ext),
		SizeBytes: int64(len(raw)),
	}, nil
}

func (s *Source) Read(_ context.Context, doc *domain.Document) ([]byte, error) {
	raw, err := os.ReadFile(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", doc.Filename, err)
	}
	return raw, nil
}

func mimeTypeFor(ext string) string {
	if ext == "" {
		return "application/octet-stream"
	}
	if byExt := mime.TypeByExtension("." + ext); byExt != "" {
		// TypeByExtension may append charset parameters; the upload field
		// wants the bare type.
		if idx := strings.Index(byExt, ";"); idx > 0 {
			return byExt[:idx]
		}
		return byExt
	}
	switch ext {
	case "pdf":
		return "application/pdf"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
