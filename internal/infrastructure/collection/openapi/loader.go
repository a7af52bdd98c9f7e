package openapi

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/kirillkom/upload-probe/internal/core/domain"
)

// Loader reads an OpenAPI 3 document and maps its operations to
// endpoints. An operation is an upload endpoint when its request body
// declares a multipart/form-data schema with a binary property, or a
// raw binary body (application/octet-stream or similar).
type Loader struct {
	specPath string
	baseURL  string
}

// NewLoader builds a loader for the document at specPath. baseURL
// overrides the document's servers entry; leave it empty to use the
// first declared server.
func NewLoader(specPath, baseURL string) *Loader {
	return &Loader{specPath: specPath, baseURL: baseURL}
}

func (l *Loader) Load(ctx context.Context) ([]domain.Endpoint, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromFile(l.specPath)
	if err != nil {
		return nil, domain.WrapError(domain.ErrConfiguration, "openapi document", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, domain.WrapError(domain.ErrConfiguration, "openapi document", fmt.Errorf("validate %s: %w", l.specPath, err))
	}

	base := l.baseURL
	if base == "" && len(doc.Servers) > 0 {
		base = doc.Servers[0].URL
	}
	base = strings.TrimSuffix(base, "/")

	paths := doc.Paths.Map()
	keys := make([]string, 0, len(paths))
	for path := range paths {
		keys = append(keys, path)
	}
	sort.Strings(keys)

	var endpoints []domain.Endpoint
	for _, path := range keys {
		item := paths[path]
		for method, op := range item.Operations() {
			endpoints = append(endpoints, buildEndpoint(base, path, method, op))
		}
	}
	if len(endpoints) == 0 {
		return nil, domain.WrapError(domain.ErrConfiguration, "openapi document", fmt.Errorf("%s declares no operations", l.specPath))
	}

	sort.SliceStable(endpoints, func(i, j int) bool {
		if endpoints[i].URL != endpoints[j].URL {
			return endpoints[i].URL < endpoints[j].URL
		}
		return endpoints[i].Method < endpoints[j].Method
	})
	return endpoints, nil
}

func buildEndpoint(base, path, method string, op *openapi3.Operation) domain.Endpoint {
	endpoint := domain.Endpoint{
		Name:   operationName(op, method, path),
		Method: strings.ToUpper(method),
		URL:    base + path,
	}

	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return endpoint
	}
	for mediaType, media := range op.RequestBody.Value.Content {
		switch {
		case strings.HasPrefix(mediaType, "multipart/"):
			applyMultipart(&endpoint, media)
		case isBinaryMediaType(mediaType, media):
			endpoint.IsUpload = true
			endpoint.BodyMode = domain.BodyModeFile
		}
	}
	return endpoint
}

func applyMultipart(endpoint *domain.Endpoint, media *openapi3.MediaType) {
	if media.Schema == nil || media.Schema.Value == nil {
		return
	}
	props := media.Schema.Value.Properties
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop := props[name]
		if prop.Value == nil {
			continue
		}
		if isBinarySchema(prop.Value) {
			endpoint.IsUpload = true
			endpoint.BodyMode = domain.BodyModeFormData
			if endpoint.FileFieldName == "" {
				endpoint.FileFieldName = name
			}
			continue
		}
		if endpoint.FormFields == nil {
			endpoint.FormFields = make(map[string]string)
		}
		endpoint.FormFields[name] = defaultFieldValue(prop.Value)
	}
}

func isBinarySchema(schema *openapi3.Schema) bool {
	if schema.Format == "binary" || schema.Format == "byte" {
		return true
	}
	if schema.Type != nil && schema.Type.Is(openapi3.TypeArray) && schema.Items != nil && schema.Items.Value != nil {
		return isBinarySchema(schema.Items.Value)
	}
	return false
}

func isBinaryMediaType(mediaType string, media *openapi3.MediaType) bool {
	if mediaType == "application/octet-stream" {
		return true
	}
	if media.Schema != nil && media.Schema.Value != nil {
		return isBinarySchema(media.Schema.Value)
	}
	return false
}

// defaultFieldValue picks a submittable value for a non-file multipart
// field so required companions do not fail validation outright.
func defaultFieldValue(schema *openapi3.Schema) string {
	if schema.Default != nil {
		return fmt.Sprintf("%v", schema.Default)
	}
	if len(schema.Enum) > 0 {
		return fmt.Sprintf("%v", schema.Enum[0])
	}
	if schema.Example != nil {
		return fmt.Sprintf("%v", schema.Example)
	}
	return ""
}

func operationName(op *openapi3.Operation, method, path string) string {
	if op.Summary != "" {
		return op.Summary
	}
	if op.OperationID != "" {
		return op.OperationID
	}
	return strings.ToUpper(method) + " " + path
}
