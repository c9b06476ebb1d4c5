package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a single source fetch failed
type ErrorKind string

const (
	ErrKindNotFound    ErrorKind = "not_found"
	ErrKindRateLimited ErrorKind = "rate_limited"
	ErrKindParseError  ErrorKind = "parse_error"
	ErrKindTimeout     ErrorKind = "timeout"
	ErrKindUnreachable ErrorKind = "unreachable"
)

var (
	// ErrInvalidTicker rejects malformed symbols before any fetch
	ErrInvalidTicker = errors.New("invalid ticker symbol")

	// ErrAllSourcesFailed is terminal for a ticker: no partial record exists
	ErrAllSourcesFailed = errors.New("all data sources failed")

	// ErrCancelled reports caller cancellation of an in-flight operation
	ErrCancelled = errors.New("operation cancelled")
)

// SourceError is the typed failure every adapter returns. Adapters
// never panic and never return raw transport errors.
type SourceError struct {
	Source SourceName
	Kind   ErrorKind
	Err    error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s source failed (%s): %v", e.Source, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s source failed (%s)", e.Source, e.Kind)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewSourceError creates classified source failure
func NewSourceError(source SourceName, kind ErrorKind, err error) *SourceError {
	return &SourceError{Source: source, Kind: kind, Err: err}
}

// SynthesisErrorKind distinguishes retriable backend failures from
// unsynthesizable responses
type SynthesisErrorKind string

const (
	SynthesisMalformedResponse  SynthesisErrorKind = "malformed_response"
	SynthesisBackendUnavailable SynthesisErrorKind = "backend_unavailable"
)

// SynthesisError is returned when sentiment synthesis fails. It always
// propagates to the caller: a fabricated sentiment has no safe value.
type SynthesisError struct {
	Kind SynthesisErrorKind
	Err  error
}

func (e *SynthesisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("synthesis failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("synthesis failed (%s)", e.Kind)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}
