package domain

// AcceptedDocument is one document an endpoint accepted.
type AcceptedDocument struct {
	FileName string `json:"fileName"`
	DocType  string `json:"docType"`
}

// RejectedDocument is one document an endpoint rejected, with the final
// error message observed.
type RejectedDocument struct {
	FileName     string `json:"fileName"`
	DocType      string `json:"docType"`
	ErrorMessage string `json:"errorMessage"`
}

// SkippedDocument is a document (or a placeholder when none was usable)
// the tester could not act on, with the reason.
type SkippedDocument struct {
	FileName string `json:"fileName"`
	Reason   string `json:"reason"`
}

// ReportEntry aggregates every attempt against one endpoint.
type ReportEntry struct {
	APIName           string             `json:"api_name"`
	Path              string             `json:"path"`
	AcceptedDocuments []AcceptedDocument `json:"accepted_documents"`
	RejectedDocuments []RejectedDocument `json:"rejected_documents"`
	SkippedDocuments  []SkippedDocument  `json:"skipped_documents"`
}

// RunSummary is the operator-facing tail of a run.
type RunSummary struct {
	RunID               string `json:"run_id"`
	DocumentsClassified int    `json:"documents_classified"`
	DocumentsUnusable   int    `json:"documents_unusable"`
	EndpointsTested     int    `json:"endpoints_tested"`
	Accepted            int    `json:"accepted"`
	Rejected            int    `json:"rejected"`
	Skipped             int    `json:"skipped"`
	ReportPath          string `json:"report_path"`
}
