package httpcaller

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/kirillkom/upload-probe/internal/core/domain"
)

const maxResponseBody = 64 * 1024

// Caller submits documents to upload endpoints over HTTP. Transport
// failures never surface as errors: they come back as a CallResult with
// StatusCode 0 so the interpreter sees them like any other failure.
type Caller struct {
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

type Options struct {
	// Timeout bounds one submission including body upload and response read.
	Timeout time.Duration
	Client  *http.Client
	Logger  *slog.Logger
}

func New(opts Options) *Caller {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Caller{client: opts.Client, timeout: opts.Timeout, logger: opts.Logger}
}

func (c *Caller) Submit(ctx context.Context, endpoint domain.Endpoint, doc *domain.Document, payload []byte) domain.CallResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(ctx, endpoint, doc, payload)
	if err != nil {
		return transportResult(err)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("submission_transport_failure",
			slog.String("endpoint", endpoint.Name),
			slog.String("url", endpoint.URL),
			slog.String("error", err.Error()))
		return transportResult(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return transportResult(fmt.Errorf("read response body: %w", err))
	}

	c.logger.Debug("submission_complete",
		slog.String("endpoint", endpoint.Name),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	return domain.CallResult{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       string(body),
	}
}

func (c *Caller) buildRequest(ctx context.Context, endpoint domain.Endpoint, doc *domain.Document, payload []byte) (*http.Request, error) {
	var (
		body        io.Reader
		contentType string
		err         error
	)
	switch endpoint.BodyMode {
	case domain.BodyModeFile:
		body = bytes.NewReader(payload)
		contentType = doc.MimeType
	default:
		body, contentType, err = multipartBody(endpoint, doc, payload)
		if err != nil {
			return nil, err
		}
	}

	method := endpoint.Method
	if method == "" {
		method = http.MethodPost
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", endpoint.Name, err)
	}

	for key, value := range endpoint.Headers {
		// The collection's recorded boundary would not match ours.
		if strings.EqualFold(key, "Content-Type") || strings.EqualFold(key, "Content-Length") {
			continue
		}
		req.Header.Set(key, value)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func multipartBody(endpoint domain.Endpoint, doc *domain.Document, payload []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fieldName := endpoint.FileFieldName
	if fieldName == "" {
		fieldName = "file"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldName, doc.Filename))
	if doc.MimeType != "" {
		header.Set("Content-Type", doc.MimeType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return nil, "", fmt.Errorf("write file part: %w", err)
	}

	for key, value := range endpoint.FormFields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize multipart body: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

func flattenHeaders(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for key, values := range h {
		if len(values) > 0 {
			out[key] = values[0]
		}
	}
	return out
}

func transportResult(err error) domain.CallResult {
	return domain.CallResult{
		StatusCode: 0,
		Body:       err.Error(),
		Transport:  true,
	}
}
