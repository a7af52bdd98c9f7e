package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/upload-probe/internal/core/domain"
)

type submission struct {
	endpoint string
	document string
}

type callerFake struct {
	submissions []submission
	// results is consumed in submission order; the last entry repeats.
	results []domain.CallResult
}

func (f *callerFake) Submit(_ context.Context, endpoint domain.Endpoint, doc *domain.Document, _ []byte) domain.CallResult {
	f.submissions = append(f.submissions, submission{endpoint: endpoint.Name, document: doc.Filename})
	idx := len(f.submissions) - 1
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	return f.results[idx]
}

type probeSourceFake struct {
	unreadable map[string]struct{}
}

func (f *probeSourceFake) List(context.Context) ([]*domain.Document, error) { return nil, nil }

func (f *probeSourceFake) Read(_ context.Context, doc *domain.Document) ([]byte, error) {
	if _, bad := f.unreadable[doc.ID]; bad {
		return nil, errors.New("read error")
	}
	return []byte(doc.Filename), nil
}

type interpreterFake struct {
	calls  int
	result domain.Interpretation
	err    error
}

func (f *interpreterFake) Interpret(context.Context, domain.CallResult) (domain.Interpretation, error) {
	f.calls++
	if f.err != nil {
		return domain.Interpretation{}, f.err
	}
	return f.result, nil
}

func classifiedDoc(id, filename, ext, docType string) *domain.Document {
	return &domain.Document{
		ID:        id,
		Filename:  filename,
		Extension: ext,
		Classification: &domain.Classification{
			DocumentType: docType,
			Confidence:   0.95,
		},
	}
}

func uploadEndpoint(name string) domain.Endpoint {
	return domain.Endpoint{
		Name:          name,
		Method:        "POST",
		URL:           "http://localhost:8000/upload",
		IsUpload:      true,
		BodyMode:      domain.BodyModeFormData,
		FileFieldName: "file",
	}
}

func rejected(body string) domain.CallResult {
	return domain.CallResult{StatusCode: 400, Body: body}
}

func accepted() domain.CallResult {
	return domain.CallResult{StatusCode: 200, Body: `{"ok":true}`}
}

func TestProbeAcceptsOnFirstSuccess(t *testing.T) {
	caller := &callerFake{results: []domain.CallResult{accepted()}}
	interpreter := &interpreterFake{}
	uc := NewProbeEndpointsUseCase(caller, &probeSourceFake{}, interpreter, WithRandomSeed(1))

	docs := []*domain.Document{classifiedDoc("d1", "passport.jpg", "jpg", "passport")}
	attempts, err := uc.Probe(context.Background(), []domain.Endpoint{uploadEndpoint("Upload KYC")}, docs)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(attempts))
	}
	if attempts[0].Outcome != domain.OutcomeAccepted {
		t.Fatalf("expected accepted, got %s", attempts[0].Outcome)
	}
	if interpreter.calls != 0 {
		t.Fatalf("success must not invoke the interpreter, got %d calls", interpreter.calls)
	}
}

func TestProbeNeverExceedsTwoSubmissionsPerEndpoint(t *testing.T) {
	caller := &callerFake{results: []domain.CallResult{rejected("nope")}}
	interpreter := &interpreterFake{result: domain.Interpretation{RequiredDocumentType: "invoice", Tier: 3}}
	uc := NewProbeEndpointsUseCase(caller, &probeSourceFake{}, interpreter, WithRandomSeed(1))

	docs := []*domain.Document{
		classifiedDoc("d1", "passport.jpg", "jpg", "passport"),
		classifiedDoc("d2", "invoice_a.pdf", "pdf", "invoice"),
		classifiedDoc("d3", "invoice_b.pdf", "pdf", "invoice"),
	}
	endpoints := []domain.Endpoint{uploadEndpoint("EP-1"), uploadEndpoint("EP-2")}

	attempts, err := uc.Probe(context.Background(), endpoints, docs)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	perEndpoint := map[string]int{}
	for _, s := range caller.submissions {
		perEndpoint[s.endpoint]++
	}
	for name, count := range perEndpoint {
		if count > 2 {
			t.Fatalf("endpoint %s got %d submissions, limit is 2", name, count)
		}
	}
	for _, attempt := range attempts {
		if attempt.Sequence > 2 {
			t.Fatalf("attempt sequence %d exceeds bound", attempt.Sequence)
		}
	}
}

func TestProbeRetrySucceedsAfterInterpretation(t *testing.T) {
	caller := &callerFake{results: []domain.CallResult{rejected(`{"error":"invoice required"}`), accepted()}}
	interpreter := &interpreterFake{result: domain.Interpretation{RequiredDocumentType: "invoice", Tier: 2}}
	// Best-guess mode pins the first pick to the passport, keeping the
	// submission order deterministic.
	uc := NewProbeEndpointsUseCase(caller, &probeSourceFake{}, interpreter, WithRandomSeed(3), WithBestGuessSelection())

	docs := []*domain.Document{
		classifiedDoc("d1", "passport.jpg", "jpg", "passport"),
		classifiedDoc("d2", "invoice.pdf", "pdf", "invoice"),
	}
	attempts, err := uc.Probe(context.Background(), []domain.Endpoint{uploadEndpoint("Upload passport")}, docs)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(attempts))
	}
	if attempts[0].Outcome != domain.OutcomeRejected {
		t.Fatalf("first attempt should be rejected, got %s", attempts[0].Outcome)
	}
	if attempts[0].Interpretation == nil || attempts[0].Interpretation.RequiredDocumentType != "invoice" {
		t.Fatalf("first attempt must carry the interpretation, got %+v", attempts[0].Interpretation)
	}
	if attempts[1].Outcome != domain.OutcomeAccepted {
		t.Fatalf("second attempt should be accepted, got %s", attempts[1].Outcome)
	}
	if attempts[1].FileName != "invoice.pdf" {
		t.Fatalf("retry must use the matched document, got %s", attempts[1].FileName)
	}
}

func TestProbeSkipsWhenNoMatchingDocument(t *testing.T) {
	caller := &callerFake{results: []domain.CallResult{rejected(`{"error":"file must be PDF"}`)}}
	interpreter := &interpreterFake{result: domain.Interpretation{RequiredExtension: "pdf", Tier: 2}}
	uc := NewProbeEndpointsUseCase(caller, &probeSourceFake{}, interpreter, WithRandomSeed(1))

	docs := []*domain.Document{classifiedDoc("d1", "passport.jpg", "jpg", "passport")}
	attempts, err := uc.Probe(context.Background(), []domain.Endpoint{uploadEndpoint("Upload")}, docs)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(attempts))
	}
	if attempts[0].Outcome != domain.OutcomeSkipped || attempts[0].SkipReason != "no matching document" {
		t.Fatalf("expected skip with no-matching-document, got %s %q", attempts[0].Outcome, attempts[0].SkipReason)
	}
	if len(caller.submissions) != 1 {
		t.Fatalf("no retry without a matching document, got %d submissions", len(caller.submissions))
	}
}

func TestProbeSkipsWhenUninterpretable(t *testing.T) {
	caller := &callerFake{results: []domain.CallResult{rejected("???")}}
	interpreter := &interpreterFake{err: domain.WrapError(domain.ErrInterpretationMiss, "oracle interpretation", errors.New("garbage"))}
	uc := NewProbeEndpointsUseCase(caller, &probeSourceFake{}, interpreter, WithRandomSeed(1))

	docs := []*domain.Document{classifiedDoc("d1", "passport.jpg", "jpg", "passport")}
	attempts, err := uc.Probe(context.Background(), []domain.Endpoint{uploadEndpoint("Upload")}, docs)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if attempts[0].Outcome != domain.OutcomeSkipped || attempts[0].SkipReason != "could not determine requirement" {
		t.Fatalf("expected skip with could-not-determine, got %s %q", attempts[0].Outcome, attempts[0].SkipReason)
	}
}

func TestProbeEveryEndpointReachesOneTerminalState(t *testing.T) {
	caller := &callerFake{results: []domain.CallResult{rejected("no"), rejected("no"), rejected("no")}}
	interpreter := &interpreterFake{err: errors.New("miss")}
	uc := NewProbeEndpointsUseCase(caller, &probeSourceFake{}, interpreter, WithRandomSeed(1))

	docs := []*domain.Document{classifiedDoc("d1", "passport.jpg", "jpg", "passport")}
	endpoints := []domain.Endpoint{
		uploadEndpoint("A"),
		uploadEndpoint("B"),
		{Name: "not-upload", Method: "GET", URL: "http://localhost/x", IsUpload: false},
	}

	attempts, err := uc.Probe(context.Background(), endpoints, docs)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	terminal := map[string]domain.Outcome{}
	for _, attempt := range attempts {
		terminal[attempt.EndpointName] = attempt.Outcome
	}
	if _, probed := terminal["not-upload"]; probed {
		t.Fatalf("non-upload endpoint must not be probed")
	}
	for _, name := range []string{"A", "B"} {
		outcome, ok := terminal[name]
		if !ok {
			t.Fatalf("endpoint %s has no terminal state", name)
		}
		switch outcome {
		case domain.OutcomeAccepted, domain.OutcomeRejected, domain.OutcomeSkipped:
		default:
			t.Fatalf("endpoint %s has invalid terminal state %q", name, outcome)
		}
	}
}

func TestProbeSkipsEndpointWithoutUsableDocuments(t *testing.T) {
	caller := &callerFake{results: []domain.CallResult{accepted()}}
	uc := NewProbeEndpointsUseCase(caller, &probeSourceFake{unreadable: map[string]struct{}{"d1": {}}}, &interpreterFake{}, WithRandomSeed(1))

	docs := []*domain.Document{classifiedDoc("d1", "broken.pdf", "pdf", "invoice")}
	attempts, err := uc.Probe(context.Background(), []domain.Endpoint{uploadEndpoint("Upload")}, docs)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if len(attempts) != 1 || attempts[0].Outcome != domain.OutcomeSkipped {
		t.Fatalf("expected skipped placeholder attempt, got %+v", attempts)
	}
	if len(caller.submissions) != 0 {
		t.Fatalf("unreadable documents must not be submitted")
	}
}

func TestProbeTransportFailureIsTaggedDistinctly(t *testing.T) {
	caller := &callerFake{results: []domain.CallResult{{StatusCode: 0, Body: "dial tcp: connection refused", Transport: true}}}
	interpreter := &interpreterFake{err: errors.New("miss")}
	uc := NewProbeEndpointsUseCase(caller, &probeSourceFake{}, interpreter, WithRandomSeed(1))

	docs := []*domain.Document{classifiedDoc("d1", "passport.jpg", "jpg", "passport")}
	attempts, err := uc.Probe(context.Background(), []domain.Endpoint{uploadEndpoint("Upload")}, docs)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if attempts[0].FailureKind != domain.FailureTransport {
		t.Fatalf("expected transport failure kind, got %q", attempts[0].FailureKind)
	}
	if interpreter.calls != 1 {
		t.Fatalf("transport failures still drive interpretation, got %d calls", interpreter.calls)
	}
}

// End-to-end shape of the retry flow: a PDF-only endpoint rejects a jpg,
// the tier-2 keyword match extracts "pdf", and the classified PDF document
// is accepted on the retry. Uses the real interpreter over a fake oracle.
func TestProbeEndToEndPDFRequirement(t *testing.T) {
	oracle := &oracleFake{err: errors.New("must not be called")}
	interpreter := NewInterpretFailureUseCase(oracle, DefaultVocabulary())

	caller := &callerFake{results: []domain.CallResult{rejected(`{"error":"file must be PDF"}`), accepted()}}
	uc := NewProbeEndpointsUseCase(caller, &probeSourceFake{}, interpreter, WithRandomSeed(3), WithBestGuessSelection())

	docs := []*domain.Document{
		classifiedDoc("d1", "passport.jpg", "jpg", "passport"),
		classifiedDoc("d2", "utility_bill.pdf", "pdf", "bill"),
	}
	attempts, err := uc.Probe(context.Background(), []domain.Endpoint{uploadEndpoint("Upload passport scan")}, docs)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if oracle.calls != 0 {
		t.Fatalf("tier 2 must keep the oracle idle, got %d calls", oracle.calls)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d: %+v", len(attempts), attempts)
	}
	if attempts[0].FileName != "passport.jpg" || attempts[0].Outcome != domain.OutcomeRejected {
		t.Fatalf("unexpected first attempt: %+v", attempts[0])
	}
	if attempts[1].FileName != "utility_bill.pdf" || attempts[1].Outcome != domain.OutcomeAccepted {
		t.Fatalf("unexpected second attempt: %+v", attempts[1])
	}
}
