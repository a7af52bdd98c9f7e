package postman

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/kirillkom/upload-probe/internal/core/domain"
)

// Loader reads a Postman v2.x collection and flattens its request tree
// into endpoints. An optional Postman environment file resolves
// {{variable}} placeholders in URLs, headers and form values.
type Loader struct {
	collectionPath string
	envPath        string
}

func NewLoader(collectionPath, envPath string) *Loader {
	return &Loader{collectionPath: collectionPath, envPath: envPath}
}

type collection struct {
	Info struct {
		Name string `json:"name"`
	} `json:"info"`
	Items []item `json:"item"`
}

type item struct {
	Name    string   `json:"name"`
	Items   []item   `json:"item"`
	Request *request `json:"request"`
}

type request struct {
	Method string          `json:"method"`
	Header []keyValue      `json:"header"`
	URL    json.RawMessage `json:"url"`
	Body   *body           `json:"body"`
}

type keyValue struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Type     string `json:"type"`
	Disabled bool   `json:"disabled"`
}

type body struct {
	Mode     string     `json:"mode"`
	FormData []keyValue `json:"formdata"`
	File     *struct {
		Src string `json:"src"`
	} `json:"file"`
}

type environment struct {
	Values []struct {
		Key     string `json:"key"`
		Value   string `json:"value"`
		Enabled *bool  `json:"enabled"`
	} `json:"values"`
}

func (l *Loader) Load(ctx context.Context) ([]domain.Endpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(l.collectionPath)
	if err != nil {
		return nil, domain.WrapError(domain.ErrConfiguration, "postman collection", err)
	}
	var col collection
	if err := json.Unmarshal(raw, &col); err != nil {
		return nil, domain.WrapError(domain.ErrConfiguration, "postman collection", fmt.Errorf("parse %s: %w", l.collectionPath, err))
	}

	vars, err := l.loadEnvironment()
	if err != nil {
		return nil, err
	}

	var endpoints []domain.Endpoint
	walkItems(col.Items, vars, &endpoints)
	if len(endpoints) == 0 {
		return nil, domain.WrapError(domain.ErrConfiguration, "postman collection", fmt.Errorf("%s contains no requests", l.collectionPath))
	}
	return endpoints, nil
}

func (l *Loader) loadEnvironment() (map[string]string, error) {
	if l.envPath == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(l.envPath)
	if err != nil {
		return nil, domain.WrapError(domain.ErrConfiguration, "postman environment", err)
	}
	var env environment
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, domain.WrapError(domain.ErrConfiguration, "postman environment", fmt.Errorf("parse %s: %w", l.envPath, err))
	}

	vars := make(map[string]string, len(env.Values))
	for _, v := range env.Values {
		if v.Enabled != nil && !*v.Enabled {
			continue
		}
		vars[v.Key] = v.Value
	}
	return vars, nil
}

func walkItems(items []item, vars map[string]string, out *[]domain.Endpoint) {
	for _, it := range items {
		if len(it.Items) > 0 {
			walkItems(it.Items, vars, out)
			continue
		}
		if it.Request == nil {
			continue
		}
		*out = append(*out, buildEndpoint(it, vars))
	}
}

func buildEndpoint(it item, vars map[string]string) domain.Endpoint {
	req := it.Request
	endpoint := domain.Endpoint{
		Name:   it.Name,
		Method: strings.ToUpper(req.Method),
		URL:    substitute(parseURL(req.URL), vars),
	}
	if endpoint.Method == "" {
		endpoint.Method = "GET"
	}

	for _, h := range req.Header {
		if h.Disabled || h.Key == "" {
			continue
		}
		if endpoint.Headers == nil {
			endpoint.Headers = make(map[string]string)
		}
		endpoint.Headers[h.Key] = substitute(h.Value, vars)
	}

	if req.Body == nil {
		return endpoint
	}
	switch req.Body.Mode {
	case "formdata":
		for _, field := range req.Body.FormData {
			if field.Disabled {
				continue
			}
			if field.Type == "file" {
				endpoint.IsUpload = true
				endpoint.BodyMode = domain.BodyModeFormData
				if endpoint.FileFieldName == "" {
					endpoint.FileFieldName = field.Key
				}
				continue
			}
			if endpoint.FormFields == nil {
				endpoint.FormFields = make(map[string]string)
			}
			endpoint.FormFields[field.Key] = substitute(field.Value, vars)
		}
	case "file":
		endpoint.IsUpload = true
		endpoint.BodyMode = domain.BodyModeFile
	}
	return endpoint
}

// parseURL accepts both Postman URL shapes: a plain string and the
// structured object with a "raw" field.
func parseURL(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}
	var structured struct {
		Raw string `json:"raw"`
	}
	if err := json.Unmarshal(raw, &structured); err == nil {
		return structured.Raw
	}
	return ""
}

var placeholderPattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// substitute resolves {{variable}} placeholders. Unknown variables stay
// as written so a misconfigured environment is visible in the report.
func substitute(s string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(s, "{{") {
		return s
	}
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		key := strings.TrimSpace(match[2 : len(match)-2])
		if value, ok := vars[key]; ok {
			return value
		}
		return match
	})
}
