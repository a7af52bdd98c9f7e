package usecase

import (
	"net/url"

	"github.com/kirillkom/upload-probe/internal/core/domain"
)

// BuildReport aggregates the attempt log into one entry per tested
// endpoint. It is a pure function of its inputs: the same endpoints and
// attempts always produce the same entries, in collection order, so the
// written artifact is idempotent.
func BuildReport(endpoints []domain.Endpoint, attempts []domain.Attempt) []domain.ReportEntry {
	byEndpoint := make(map[string][]domain.Attempt, len(endpoints))
	for _, attempt := range attempts {
		key := attempt.EndpointName + "\x00" + attempt.EndpointURL
		byEndpoint[key] = append(byEndpoint[key], attempt)
	}

	entries := make([]domain.ReportEntry, 0, len(endpoints))
	for _, endpoint := range endpoints {
		if !endpoint.IsUpload {
			continue
		}
		key := endpoint.Name + "\x00" + endpoint.URL
		endpointAttempts, probed := byEndpoint[key]
		if !probed {
			continue
		}
		entries = append(entries, buildEntry(endpoint, endpointAttempts))
		delete(byEndpoint, key)
	}
	return entries
}

func buildEntry(endpoint domain.Endpoint, attempts []domain.Attempt) domain.ReportEntry {
	entry := domain.ReportEntry{
		APIName:           endpoint.Name,
		Path:              endpointPath(endpoint.URL),
		AcceptedDocuments: []domain.AcceptedDocument{},
		RejectedDocuments: []domain.RejectedDocument{},
		SkippedDocuments:  []domain.SkippedDocument{},
	}

	for _, attempt := range attempts {
		switch attempt.Outcome {
		case domain.OutcomeAccepted:
			entry.AcceptedDocuments = append(entry.AcceptedDocuments, domain.AcceptedDocument{
				FileName: attempt.FileName,
				DocType:  attempt.DocumentType,
			})
		case domain.OutcomeRejected:
			entry.RejectedDocuments = append(entry.RejectedDocuments, domain.RejectedDocument{
				FileName:     attempt.FileName,
				DocType:      attempt.DocumentType,
				ErrorMessage: rejectionMessage(attempt),
			})
		case domain.OutcomeSkipped:
			entry.SkippedDocuments = append(entry.SkippedDocuments, domain.SkippedDocument{
				FileName: attempt.FileName,
				Reason:   attempt.SkipReason,
			})
		}
	}
	return entry
}

func rejectionMessage(attempt domain.Attempt) string {
	message := snippet(attempt.ResponseBody, 200)
	if attempt.FailureKind == domain.FailureTransport {
		return "transport: " + message
	}
	return message
}

func endpointPath(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Path == "" {
		return raw
	}
	return parsed.Path
}

// Summarize derives the operator-facing run totals. An endpoint counts as
// accepted when any of its attempts was accepted, rejected when it ended
// with a rejection and no acceptance, skipped otherwise.
func Summarize(runID string, entries []domain.ReportEntry, classified, unusable int, reportPath string) domain.RunSummary {
	summary := domain.RunSummary{
		RunID:               runID,
		DocumentsClassified: classified,
		DocumentsUnusable:   unusable,
		EndpointsTested:     len(entries),
		ReportPath:          reportPath,
	}
	for _, entry := range entries {
		switch {
		case len(entry.AcceptedDocuments) > 0:
			summary.Accepted++
		case len(entry.RejectedDocuments) > 0:
			summary.Rejected++
		default:
			summary.Skipped++
		}
	}
	return summary
}
