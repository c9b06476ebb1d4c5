// Package ai wraps the language-model completion backends behind a
// request/response interface.
package ai

import (
	"context"
	"fmt"
)

// Provider represents a text-completion backend
type Provider interface {
	// Complete sends a prompt and returns the raw completion text
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// GetName returns provider name
	GetName() string

	// IsEnabled returns whether provider is enabled
	IsEnabled() bool
}

// BackendError reports that the backend could not serve the request
// (unreachable, quota exhausted, server error). It is distinct from a
// reply that arrived but doesn't parse.
type BackendError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *BackendError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s backend error (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s backend error: %v", e.Provider, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
