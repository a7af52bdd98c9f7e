package usecase

import (
	"regexp"
	"sort"
	"strings"
)

// Vocabulary is the fixed keyword set the tier-2 matcher scans failure text
// for. Keys are canonical values returned in interpretations; each entry
// lists the spellings that count as that candidate. Aliases of the same
// canonical value never make a match ambiguous.
type Vocabulary struct {
	DocumentTypes map[string][]string `yaml:"document_types"`
	Extensions    map[string][]string `yaml:"extensions"`
}

// DefaultVocabulary covers the document types and extensions the original
// test corpus used. Override with a YAML file when probing other domains.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		DocumentTypes: map[string][]string{
			"passport":        {"passport"},
			"aadhaar":         {"aadhaar", "aadhar"},
			"pan card":        {"pan card", "pancard"},
			"driving license": {"driving license", "driving licence", "drivers license"},
			"voter id":        {"voter id", "voter card"},
			"invoice":         {"invoice"},
			"receipt":         {"receipt"},
			"bank statement":  {"bank statement"},
			"utility bill":    {"utility bill", "electricity bill"},
			"salary slip":     {"salary slip", "payslip", "pay slip"},
			"resume":          {"resume", "cv"},
			"photograph":      {"photograph", "selfie"},
		},
		Extensions: map[string][]string{
			"pdf":  {"pdf"},
			"jpg":  {"jpg", "jpeg", "jpe"},
			"png":  {"png"},
			"tiff": {"tiff", "tif"},
			"docx": {"docx", "doc"},
			"csv":  {"csv"},
			"xlsx": {"xlsx", "xls"},
		},
	}
}

type vocabularyMatcher struct {
	types      []vocabularyPattern
	extensions []vocabularyPattern
}

type vocabularyPattern struct {
	canonical string
	re        *regexp.Regexp
}

func newVocabularyMatcher(vocab Vocabulary) *vocabularyMatcher {
	return &vocabularyMatcher{
		types:      compilePatterns(vocab.DocumentTypes),
		extensions: compilePatterns(vocab.Extensions),
	}
}

func compilePatterns(entries map[string][]string) []vocabularyPattern {
	canonicals := make([]string, 0, len(entries))
	for canonical := range entries {
		canonicals = append(canonicals, canonical)
	}
	// Stable order keeps matching deterministic across runs.
	sort.Strings(canonicals)

	patterns := make([]vocabularyPattern, 0, len(canonicals))
	for _, canonical := range canonicals {
		aliases := entries[canonical]
		quoted := make([]string, 0, len(aliases))
		for _, alias := range aliases {
			alias = strings.TrimSpace(strings.ToLower(alias))
			if alias == "" {
				continue
			}
			quoted = append(quoted, regexp.QuoteMeta(alias))
		}
		if len(quoted) == 0 {
			continue
		}
		re := regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
		patterns = append(patterns, vocabularyPattern{canonical: canonical, re: re})
	}
	return patterns
}

// matchTypes returns the distinct canonical document types present in text.
func (m *vocabularyMatcher) matchTypes(text string) []string {
	return matchCanonicals(m.types, text)
}

// matchExtensions returns the distinct canonical extensions present in text.
func (m *vocabularyMatcher) matchExtensions(text string) []string {
	return matchCanonicals(m.extensions, text)
}

func matchCanonicals(patterns []vocabularyPattern, text string) []string {
	var found []string
	for _, p := range patterns {
		if p.re.MatchString(text) {
			found = append(found, p.canonical)
		}
	}
	return found
}
