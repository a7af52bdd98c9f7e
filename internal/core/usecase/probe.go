package usecase

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/upload-probe/internal/core/domain"
	"github.com/kirillkom/upload-probe/internal/core/ports"
)

// ProbeEndpointsUseCase drives the per-endpoint test loop. Each endpoint
// gets at most two submissions: one exploratory, and one informed by the
// failure interpretation. The bound caps both endpoint traffic and oracle
// spend.
type ProbeEndpointsUseCase struct {
	caller      ports.EndpointCaller
	source      ports.DocumentSource
	interpreter ports.FailureInterpreter
	store       ports.AttemptStore     // optional
	publisher   ports.AttemptPublisher // optional

	randomPerAPI bool
	rng          *rand.Rand
	now          func() time.Time
}

type ProbeOption func(*ProbeEndpointsUseCase)

// WithRandomSeed fixes document selection for reproducible runs.
func WithRandomSeed(seed int64) ProbeOption {
	return func(uc *ProbeEndpointsUseCase) {
		uc.rng = rand.New(rand.NewSource(seed))
	}
}

// WithAttemptStore persists every attempt outside the process.
func WithAttemptStore(store ports.AttemptStore) ProbeOption {
	return func(uc *ProbeEndpointsUseCase) { uc.store = store }
}

// WithAttemptPublisher emits an event per recorded attempt.
func WithAttemptPublisher(publisher ports.AttemptPublisher) ProbeOption {
	return func(uc *ProbeEndpointsUseCase) { uc.publisher = publisher }
}

// WithBestGuessSelection disables random-file-per-api mode: the first
// attempt picks a document whose classified type overlaps the endpoint
// name instead of a random one.
func WithBestGuessSelection() ProbeOption {
	return func(uc *ProbeEndpointsUseCase) { uc.randomPerAPI = false }
}

func NewProbeEndpointsUseCase(
	caller ports.EndpointCaller,
	source ports.DocumentSource,
	interpreter ports.FailureInterpreter,
	opts ...ProbeOption,
) *ProbeEndpointsUseCase {
	uc := &ProbeEndpointsUseCase{
		caller:       caller,
		source:       source,
		interpreter:  interpreter,
		randomPerAPI: true,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Probe tests every upload endpoint sequentially and returns the full
// attempt log. Per-endpoint failures are captured as attempts, never
// returned as errors; only context cancellation stops the loop early.
func (uc *ProbeEndpointsUseCase) Probe(ctx context.Context, endpoints []domain.Endpoint, documents []*domain.Document) ([]domain.Attempt, error) {
	runID := uuid.NewString()
	state := &probeState{
		runID:     runID,
		documents: documents,
		used:      make(map[string]struct{}),
	}

	for _, endpoint := range endpoints {
		if !endpoint.IsUpload {
			continue
		}
		if err := ctx.Err(); err != nil {
			return state.log, err
		}
		uc.probeEndpoint(ctx, endpoint, state)
	}
	return state.log, nil
}

type probeState struct {
	runID     string
	documents []*domain.Document
	used      map[string]struct{}
	log       []domain.Attempt
}

func (uc *ProbeEndpointsUseCase) probeEndpoint(ctx context.Context, endpoint domain.Endpoint, state *probeState) {
	doc, payload := uc.selectFirst(ctx, endpoint, state)
	if doc == nil {
		uc.record(ctx, state, uc.skippedWithoutSubmission(endpoint, state.runID, "no usable documents"))
		return
	}

	result := uc.caller.Submit(ctx, endpoint, doc, payload)
	first := uc.newAttempt(endpoint, state.runID, doc, 1, result)

	if result.Succeeded() {
		first.Outcome = domain.OutcomeAccepted
		state.used[doc.ID] = struct{}{}
		uc.record(ctx, state, first)
		return
	}

	interp, err := uc.interpreter.Interpret(ctx, result)
	if err != nil {
		first.Outcome = domain.OutcomeSkipped
		first.SkipReason = "could not determine requirement"
		uc.record(ctx, state, first)
		return
	}
	first.Interpretation = &interp

	match, matchPayload := uc.selectMatch(ctx, interp, doc, state)
	if match == nil {
		first.Outcome = domain.OutcomeSkipped
		first.SkipReason = "no matching document"
		uc.record(ctx, state, first)
		return
	}

	first.Outcome = domain.OutcomeRejected
	uc.record(ctx, state, first)

	retryResult := uc.caller.Submit(ctx, endpoint, match, matchPayload)
	second := uc.newAttempt(endpoint, state.runID, match, 2, retryResult)
	if retryResult.Succeeded() {
		second.Outcome = domain.OutcomeAccepted
		state.used[match.ID] = struct{}{}
	} else {
		second.Outcome = domain.OutcomeRejected
	}
	uc.record(ctx, state, second)
}

func (uc *ProbeEndpointsUseCase) selectFirst(ctx context.Context, endpoint domain.Endpoint, state *probeState) (*domain.Document, []byte) {
	available := make([]*domain.Document, 0, len(state.documents))
	for _, doc := range state.documents {
		if _, taken := state.used[doc.ID]; !taken {
			available = append(available, doc)
		}
	}

	for len(available) > 0 {
		idx := uc.pickIndex(endpoint, available)
		doc := available[idx]
		payload, err := uc.source.Read(ctx, doc)
		if err != nil {
			// Unreadable file: drop it for this endpoint and try another.
			slog.Warn("document unreadable, trying another", "file", doc.Filename, "error", err)
			available = append(available[:idx], available[idx+1:]...)
			continue
		}
		return doc, payload
	}
	return nil, nil
}

func (uc *ProbeEndpointsUseCase) pickIndex(endpoint domain.Endpoint, available []*domain.Document) int {
	if uc.randomPerAPI {
		return uc.rng.Intn(len(available))
	}
	name := strings.ToLower(endpoint.Name)
	for idx, doc := range available {
		docType := strings.ToLower(doc.DocumentType())
		if docType != "" && strings.Contains(name, docType) {
			return idx
		}
	}
	return uc.rng.Intn(len(available))
}

// selectMatch finds a classified document satisfying the interpreted
// requirement: exact (bidirectional substring) document-type match first,
// extension match as fallback. The document that just failed is excluded.
func (uc *ProbeEndpointsUseCase) selectMatch(ctx context.Context, interp domain.Interpretation, failed *domain.Document, state *probeState) (*domain.Document, []byte) {
	var byType, byExtension []*domain.Document
	for _, doc := range state.documents {
		if doc.ID == failed.ID {
			continue
		}
		if interp.RequiredDocumentType != "" && typeMatches(doc.DocumentType(), interp.RequiredDocumentType) {
			byType = append(byType, doc)
		}
		if interp.RequiredExtension != "" && strings.EqualFold(doc.Extension, interp.RequiredExtension) {
			byExtension = append(byExtension, doc)
		}
	}

	for _, candidates := range [][]*domain.Document{byType, byExtension} {
		for _, doc := range candidates {
			payload, err := uc.source.Read(ctx, doc)
			if err != nil {
				slog.Warn("matched document unreadable", "file", doc.Filename, "error", err)
				continue
			}
			return doc, payload
		}
	}
	return nil, nil
}

func typeMatches(classified, required string) bool {
	classified = strings.ToLower(strings.TrimSpace(classified))
	required = strings.ToLower(strings.TrimSpace(required))
	if classified == "" || required == "" {
		return false
	}
	return strings.Contains(classified, required) || strings.Contains(required, classified)
}

func (uc *ProbeEndpointsUseCase) newAttempt(endpoint domain.Endpoint, runID string, doc *domain.Document, sequence int, result domain.CallResult) domain.Attempt {
	failureKind := domain.FailureNone
	if !result.Succeeded() {
		failureKind = domain.FailureApplication
		if result.Transport {
			failureKind = domain.FailureTransport
		}
	}
	return domain.Attempt{
		ID:           uuid.NewString(),
		RunID:        runID,
		EndpointName: endpoint.Name,
		EndpointURL:  endpoint.URL,
		Method:       endpoint.Method,
		DocumentID:   doc.ID,
		FileName:     doc.Filename,
		DocumentType: doc.DocumentType(),
		Sequence:     sequence,
		StatusCode:   result.StatusCode,
		ResponseBody: snippet(result.Body, 2000),
		FailureKind:  failureKind,
		CreatedAt:    uc.now().UTC(),
	}
}

func (uc *ProbeEndpointsUseCase) skippedWithoutSubmission(endpoint domain.Endpoint, runID, reason string) domain.Attempt {
	return domain.Attempt{
		ID:           uuid.NewString(),
		RunID:        runID,
		EndpointName: endpoint.Name,
		EndpointURL:  endpoint.URL,
		Method:       endpoint.Method,
		Outcome:      domain.OutcomeSkipped,
		SkipReason:   reason,
		CreatedAt:    uc.now().UTC(),
	}
}

func (uc *ProbeEndpointsUseCase) record(ctx context.Context, state *probeState, attempt domain.Attempt) {
	state.log = append(state.log, attempt)
	if uc.store != nil {
		if err := uc.store.SaveAttempt(ctx, attempt); err != nil {
			slog.Warn("attempt store save failed", "attempt", attempt.ID, "error", err)
		}
	}
	if uc.publisher != nil {
		if err := uc.publisher.PublishAttemptRecorded(ctx, attempt); err != nil {
			slog.Warn("attempt publish failed", "attempt", attempt.ID, "error", err)
		}
	}
}
