package domain

// BodyMode mirrors how the collection declares the upload payload.
type BodyMode string

const (
	BodyModeFormData BodyMode = "formdata"
	BodyModeFile     BodyMode = "file"
)

// Endpoint is one upload-capable API operation extracted from a collection.
type Endpoint struct {
	Name          string            `json:"name"`
	Method        string            `json:"method"`
	URL           string            `json:"url"`
	IsUpload      bool              `json:"is_upload"`
	BodyMode      BodyMode          `json:"body_mode"`
	FileFieldName string            `json:"file_field_name"`
	Headers       map[string]string `json:"headers,omitempty"`
	// FormFields are the non-file formdata fields submitted alongside the file.
	FormFields map[string]string `json:"form_fields,omitempty"`
}

// CallResult is the observed outcome of one HTTP submission.
// Transport submissions that never produced an HTTP response carry
// StatusCode 0 and the error text in Body.
type CallResult struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       string            `json:"body"`
	Transport  bool              `json:"transport"`
}

// Succeeded applies the success predicate used by the original agent.
func (r CallResult) Succeeded() bool {
	switch r.StatusCode {
	case 200, 201, 204:
		return true
	default:
		return false
	}
}
