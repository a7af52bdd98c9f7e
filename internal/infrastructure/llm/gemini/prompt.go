package gemini

import (
	"encoding/json"

	"github.com/kirillkom/upload-probe/internal/core/domain"
)

const classificationInstruction = `You are a document classifier.
Look at the attached file and decide what kind of document it is.
Return a strict JSON object with exactly these keys:
document_type (short lowercase label, e.g. "passport", "invoice", "utility bill"),
confidence (number from 0 to 1).
No markdown, no extra keys, no explanations.`

const interpretationInstruction = `You analyze failed file-upload API responses.
Given the HTTP status, headers and body below, determine what the API actually requires.
Return a strict JSON object with exactly these keys:
required_extension_type (lowercase file extension without dot, or null),
required_document_type (short lowercase document label, or null),
description (one sentence explaining the failure).
If the response does not indicate a document or extension requirement, use null for both.
No markdown, no extra keys.`

type interpretationRequest struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

func buildInterpretationPayload(result domain.CallResult) string {
	const maxBody = 2000
	body := result.Body
	if len(body) > maxBody {
		body = body[:maxBody]
	}
	headers := result.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	raw, err := json.Marshal(interpretationRequest{
		Status:  result.StatusCode,
		Headers: headers,
		Body:    body,
	})
	if err != nil {
		// Only unmarshalable values can fail here and the struct has none.
		return `{"status":0,"headers":{},"body":""}`
	}
	return string(raw)
}
