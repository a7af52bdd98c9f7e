package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/kirillkom/upload-probe/internal/core/domain"
	"github.com/kirillkom/upload-probe/internal/core/ports"
)

// InterpretFailureUseCase converts an endpoint failure response into a
// normalized requirement. Three tiers, attempted in order, first success
// wins:
//
//  1. structured field lookup in a JSON body — deterministic, free;
//  2. vocabulary keyword scan — deterministic, free, ambiguity falls through;
//  3. oracle call — non-deterministic, billable, last resort.
//
// The ordering is part of the contract: tiers 1-2 keep the common case off
// the oracle's bill, and only they are deterministic enough to assert on.
type InterpretFailureUseCase struct {
	oracle  ports.FailureOracle
	matcher *vocabularyMatcher
}

func NewInterpretFailureUseCase(oracle ports.FailureOracle, vocab Vocabulary) *InterpretFailureUseCase {
	return &InterpretFailureUseCase{
		oracle:  oracle,
		matcher: newVocabularyMatcher(vocab),
	}
}

func (uc *InterpretFailureUseCase) Interpret(ctx context.Context, result domain.CallResult) (domain.Interpretation, error) {
	if interp, ok := uc.structuredLookup(result.Body); ok {
		return interp, nil
	}
	if interp, ok := uc.keywordScan(result.Body); ok {
		return interp, nil
	}
	return uc.askOracle(ctx, result)
}

// Field names a structured error schema may use to state its requirement.
// Keys are compared after lowercasing and stripping '_' and '-'.
var (
	structuredTypeKeys = map[string]struct{}{
		"requireddocumenttype": {},
		"requireddoctype":      {},
		"expecteddocumenttype": {},
		"documenttyperequired": {},
	}
	structuredExtensionKeys = map[string]struct{}{
		"requiredextension":     {},
		"requiredextensiontype": {},
		"expectedextension":     {},
		"extensionrequired":     {},
		"allowedextension":      {},
		"allowedextensions":     {},
	}
	structuredDescriptionKeys = map[string]struct{}{
		"message": {},
		"error":   {},
		"detail":  {},
	}
)

func (uc *InterpretFailureUseCase) structuredLookup(body string) (domain.Interpretation, bool) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return domain.Interpretation{}, false
	}

	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return domain.Interpretation{}, false
	}

	interp := domain.Interpretation{Tier: 1}
	walkStructured(decoded, &interp)
	if !interp.Usable() {
		return domain.Interpretation{}, false
	}
	interp.RequiredDocumentType = normalizeRequirement(interp.RequiredDocumentType)
	interp.RequiredExtension = normalizeExtension(interp.RequiredExtension)
	return interp, true
}

func walkStructured(node any, interp *domain.Interpretation) {
	switch v := node.(type) {
	case map[string]any:
		for key, value := range v {
			canonical := canonicalKey(key)
			switch {
			case isStructuredKey(structuredTypeKeys, canonical):
				if s := singleStringValue(value); s != "" && interp.RequiredDocumentType == "" {
					interp.RequiredDocumentType = s
				}
			case isStructuredKey(structuredExtensionKeys, canonical):
				if s := singleStringValue(value); s != "" && interp.RequiredExtension == "" {
					interp.RequiredExtension = s
				}
			case isStructuredKey(structuredDescriptionKeys, canonical):
				if s, ok := value.(string); ok && interp.Description == "" {
					interp.Description = s
				}
			}
			walkStructured(value, interp)
		}
	case []any:
		for _, item := range v {
			walkStructured(item, interp)
		}
	}
}

func isStructuredKey(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}

func canonicalKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", "")
	key = strings.ReplaceAll(key, "-", "")
	return key
}

// singleStringValue accepts either a string or a single-element string
// array; a list of alternatives is not a usable requirement.
func singleStringValue(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		if len(v) != 1 {
			return ""
		}
		if s, ok := v[0].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func (uc *InterpretFailureUseCase) keywordScan(body string) (domain.Interpretation, bool) {
	types := uc.matcher.matchTypes(body)
	extensions := uc.matcher.matchExtensions(body)

	// Two distinct candidates in either category means the text is
	// ambiguous; guessing here would poison the retry, so fall through.
	if len(types) > 1 || len(extensions) > 1 {
		return domain.Interpretation{}, false
	}
	if len(types) == 0 && len(extensions) == 0 {
		return domain.Interpretation{}, false
	}

	interp := domain.Interpretation{
		Tier:        2,
		Description: snippet(body, 200),
	}
	if len(types) == 1 {
		interp.RequiredDocumentType = types[0]
	}
	if len(extensions) == 1 {
		interp.RequiredExtension = extensions[0]
	}
	return interp, true
}

func (uc *InterpretFailureUseCase) askOracle(ctx context.Context, result domain.CallResult) (domain.Interpretation, error) {
	interp, err := uc.oracle.Interpret(ctx, result)
	if err != nil {
		return domain.Interpretation{}, domain.WrapError(domain.ErrInterpretationMiss, "oracle interpretation", err)
	}
	interp.Tier = 3
	interp.RequiredDocumentType = normalizeRequirement(interp.RequiredDocumentType)
	interp.RequiredExtension = normalizeExtension(interp.RequiredExtension)
	if !interp.Usable() {
		return domain.Interpretation{}, domain.WrapError(domain.ErrInterpretationMiss, "oracle interpretation", errors.New("oracle named no requirement"))
	}
	return interp, nil
}

func normalizeRequirement(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeExtension(s string) string {
	s = normalizeRequirement(s)
	return strings.TrimPrefix(s, ".")
}

func snippet(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max]
}
