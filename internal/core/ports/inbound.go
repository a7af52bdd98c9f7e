package ports

import (
	"context"

	"github.com/kirillkom/upload-probe/internal/core/domain"
)

// DocumentClassificationService is the inbound contract for the
// classification phase of a run.
type DocumentClassificationService interface {
	ClassifyAll(ctx context.Context) (usable []*domain.Document, unusable []*domain.Document, err error)
}

// FailureInterpreter is the inbound contract for the tiered error
// interpretation policy.
type FailureInterpreter interface {
	Interpret(ctx context.Context, result domain.CallResult) (domain.Interpretation, error)
}

// EndpointProber drives the per-endpoint test loop and returns the full
// attempt log of the run.
type EndpointProber interface {
	Probe(ctx context.Context, endpoints []domain.Endpoint, documents []*domain.Document) ([]domain.Attempt, error)
}
