package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/upload-probe/internal/core/domain"
	"github.com/kirillkom/upload-probe/internal/core/ports"
)

// ClassifyDocumentsUseCase labels every discovered document, cache first.
// A failed or low-confidence classification marks only that document
// unusable; it never aborts the run.
type ClassifyDocumentsUseCase struct {
	source     ports.DocumentSource
	cache      ports.ClassificationCache
	classifier ports.DocumentClassifier
	threshold  float64
}

func NewClassifyDocumentsUseCase(
	source ports.DocumentSource,
	cache ports.ClassificationCache,
	classifier ports.DocumentClassifier,
	threshold float64,
) *ClassifyDocumentsUseCase {
	return &ClassifyDocumentsUseCase{
		source:     source,
		cache:      cache,
		classifier: classifier,
		threshold:  threshold,
	}
}

func (uc *ClassifyDocumentsUseCase) ClassifyAll(ctx context.Context) ([]*domain.Document, []*domain.Document, error) {
	docs, err := uc.source.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list documents: %w", err)
	}

	var usable, unusable []*domain.Document
	for _, doc := range docs {
		if err := uc.classifyOne(ctx, doc); err != nil {
			unusable = append(unusable, doc)
			continue
		}
		usable = append(usable, doc)
	}
	return usable, unusable, nil
}

func (uc *ClassifyDocumentsUseCase) classifyOne(ctx context.Context, doc *domain.Document) error {
	cls, err := uc.cache.GetOrCompute(ctx, doc.ID, func(computeCtx context.Context) (domain.Classification, error) {
		payload, readErr := uc.source.Read(computeCtx, doc)
		if readErr != nil {
			return domain.Classification{}, domain.WrapError(domain.ErrClassification, "read document", readErr)
		}
		result, clsErr := uc.classifier.Classify(computeCtx, doc, payload)
		if clsErr != nil {
			return domain.Classification{}, domain.WrapError(domain.ErrClassification, "classify document", clsErr)
		}
		return result, nil
	})
	if err != nil {
		return err
	}

	// The cache stores raw oracle output; the threshold is applied on the
	// way out so a config change does not require re-classification.
	if cls.DocumentType == "" || cls.Confidence < uc.threshold {
		return domain.WrapError(domain.ErrClassification, "apply confidence threshold",
			fmt.Errorf("type %q confidence %.2f below %.2f", cls.DocumentType, cls.Confidence, uc.threshold))
	}

	doc.Classification = &cls
	return nil
}
