package domain

// Document is a candidate file discovered in the documents directory.
// ID is the sha256 of the content, so the classification cache survives
// renames and re-runs over moved trees.
type Document struct {
	ID        string `json:"id"`
	Path      string `json:"path"`
	Filename  string `json:"filename"`
	Extension string `json:"extension"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`

	Classification *Classification `json:"classification,omitempty"`
}

// Classification is the oracle's verdict for one document.
type Classification struct {
	DocumentType string  `json:"document_type"`
	Confidence   float64 `json:"confidence"`
}

// Classified reports whether the document carries a usable classification.
func (d *Document) Classified() bool {
	return d.Classification != nil && d.Classification.DocumentType != ""
}

func (d *Document) DocumentType() string {
	if d.Classification == nil {
		return ""
	}
	return d.Classification.DocumentType
}
