package ports

import (
	"context"

	"github.com/kirillkom/upload-probe/internal/core/domain"
)

// DocumentSource enumerates candidate documents and reads their content.
type DocumentSource interface {
	List(ctx context.Context) ([]*domain.Document, error)
	Read(ctx context.Context, doc *domain.Document) ([]byte, error)
}

// ClassificationCache persists classifications keyed by document identity.
// GetOrCompute must invoke compute at most once per key, also when callers
// overlap; this is the only place a duplicate billable oracle call could
// otherwise happen.
type ClassificationCache interface {
	GetOrCompute(ctx context.Context, key string, compute func(context.Context) (domain.Classification, error)) (domain.Classification, error)
	Flush(ctx context.Context) error
}

// DocumentClassifier asks the oracle what kind of document this is.
type DocumentClassifier interface {
	Classify(ctx context.Context, doc *domain.Document, payload []byte) (domain.Classification, error)
}

// FailureOracle asks the oracle to normalize an endpoint failure response.
type FailureOracle interface {
	Interpret(ctx context.Context, result domain.CallResult) (domain.Interpretation, error)
}

// CollectionLoader parses an API collection into normalized endpoints.
type CollectionLoader interface {
	Load(ctx context.Context) ([]domain.Endpoint, error)
}

// EndpointCaller submits one document to one endpoint. Transport errors are
// folded into the CallResult, never returned: a failed call still drives
// the interpreter.
type EndpointCaller interface {
	Submit(ctx context.Context, endpoint domain.Endpoint, doc *domain.Document, payload []byte) domain.CallResult
}

// AttemptStore persists the attempt log outside the process. Optional.
type AttemptStore interface {
	SaveAttempt(ctx context.Context, attempt domain.Attempt) error
}

// AttemptPublisher emits attempt-recorded events. Optional.
type AttemptPublisher interface {
	PublishAttemptRecorded(ctx context.Context, attempt domain.Attempt) error
}

// ReportWriter materializes the final report artifact.
type ReportWriter interface {
	Write(ctx context.Context, entries []domain.ReportEntry) error
}
