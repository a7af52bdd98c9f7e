package vocab

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/upload-probe/internal/core/domain"
	"github.com/kirillkom/upload-probe/internal/core/usecase"
)

// Load reads a YAML vocabulary override and merges it over the built-in
// set. Canonical keys present in the file replace the default aliases
// for that key; keys absent from the file keep their defaults. An empty
// path returns the defaults unchanged.
func Load(path string) (usecase.Vocabulary, error) {
	vocab := usecase.DefaultVocabulary()
	if path == "" {
		return vocab, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return usecase.Vocabulary{}, domain.WrapError(domain.ErrConfiguration, "vocabulary file", err)
	}

	var override usecase.Vocabulary
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return usecase.Vocabulary{}, domain.WrapError(domain.ErrConfiguration, "vocabulary file", fmt.Errorf("parse %s: %w", path, err))
	}

	for canonical, aliases := range override.DocumentTypes {
		if len(aliases) == 0 {
			delete(vocab.DocumentTypes, canonical)
			continue
		}
		vocab.DocumentTypes[canonical] = aliases
	}
	for canonical, aliases := range override.Extensions {
		if len(aliases) == 0 {
			delete(vocab.Extensions, canonical)
			continue
		}
		vocab.Extensions[canonical] = aliases
	}
	return vocab, nil
}
