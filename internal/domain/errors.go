package domain

import (
	"fmt"
	"unicode/utf8"
)

// MaxBodySnippet bounds how much of a provider response body is kept in errors.
const MaxBodySnippet = 1000

// TransportError is a network or HTTP level failure talking to a provider.
type TransportError struct {
	Provider Provider
	Status   int
	Body     string
	Err      error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("%s transport error (http %d)", e.Provider, e.Status)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *TransportError) Unwrap() error { return e.Err }

// ResponseShapeError means the provider answered but the payload was unusable.
type ResponseShapeError struct {
	Provider Provider
	Reason   string
}

func (e *ResponseShapeError) Error() string {
	return fmt.Sprintf("%s response shape error: %s", e.Provider, e.Reason)
}

// ConfigError reports a missing or invalid setting.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid setting %s: %s", e.Field, e.Reason)
}

// LinkingError is a non-fatal failure of the multilingual host.
type LinkingError struct {
	RecordID int64
	SourceID int64
	Lang     string
	Err      error
}

func (e *LinkingError) Error() string {
	return fmt.Sprintf("link %d to %d (%s): %v", e.RecordID, e.SourceID, e.Lang, e.Err)
}

func (e *LinkingError) Unwrap() error { return e.Err }

// Truncate cuts s to at most max bytes, marking the cut. The cut never
// splits a UTF-8 sequence.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
