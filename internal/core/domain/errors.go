package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is fatal: the run aborts before any attempt is made.
	ErrConfiguration = errors.New("configuration error")
	// ErrClassification marks a single document unusable for this run.
	ErrClassification = errors.New("classification failed")
	// ErrInterpretationMiss means all interpreter tiers yielded nothing.
	ErrInterpretationMiss = errors.New("interpretation miss")
	ErrTemporary          = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
