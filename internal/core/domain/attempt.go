package domain

import "time"

// Outcome is the terminal state of an endpoint probe.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
	OutcomeSkipped  Outcome = "skipped"
)

// FailureKind separates infrastructure failures from business rejections.
type FailureKind string

const (
	FailureNone        FailureKind = ""
	FailureApplication FailureKind = "application"
	FailureTransport   FailureKind = "transport"
)

// Interpretation is the normalized requirement extracted from a failure
// response. Tier records which interpreter stage produced it.
type Interpretation struct {
	RequiredExtension    string `json:"required_extension_type,omitempty"`
	RequiredDocumentType string `json:"required_document_type,omitempty"`
	Description          string `json:"description,omitempty"`
	Tier                 int    `json:"tier"`
}

// Usable reports whether the interpretation names any requirement the
// tester can act on.
func (i Interpretation) Usable() bool {
	return i.RequiredExtension != "" || i.RequiredDocumentType != ""
}

// Attempt is one submission of a document to an endpoint.
type Attempt struct {
	ID           string      `json:"id"`
	RunID        string      `json:"run_id"`
	EndpointName string      `json:"endpoint_name"`
	EndpointURL  string      `json:"endpoint_url"`
	Method       string      `json:"method"`
	DocumentID   string      `json:"document_id"`
	FileName     string      `json:"file_name"`
	DocumentType string      `json:"document_type"`
	Sequence     int         `json:"sequence"`
	StatusCode   int         `json:"status_code"`
	ResponseBody string      `json:"response_body,omitempty"`
	FailureKind  FailureKind `json:"failure_kind,omitempty"`

	Interpretation *Interpretation `json:"interpretation,omitempty"`

	Outcome    Outcome   `json:"outcome"`
	SkipReason string    `json:"skip_reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
