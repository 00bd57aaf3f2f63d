// Package errs defines the error kinds shared across the indexing pipeline.
//
// Every layer wraps the underlying cause with fmt.Errorf("...: %w", err) so
// that errors.As/errors.Is keep working all the way up to the worker pool
// and the CLI bootstrap, the same convention used throughout db/rdf4j.go in
// the teacher codebase.
package errs

import (
	"errors"
	"fmt"
)

// ConfigError marks a fatal configuration problem. Startup aborts on this.
type ConfigError struct {
	Detail string
	Cause  error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("config error: %s: %v", e.Detail, e.Cause)
	}
	return fmt.Sprintf("config error: %s", e.Detail)
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// NewConfigError builds a ConfigError.
func NewConfigError(detail string, cause error) error {
	return &ConfigError{Detail: detail, Cause: cause}
}

// TransportError marks a network/protocol failure talking to the
// triplestore or search engine. The Update Handler logs it and skips the
// affected index for that job; it is not retried, and the index status is
// not changed.
type TransportError struct {
	Op    string
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// NewTransportError builds a TransportError.
func NewTransportError(op string, cause error) error {
	return &TransportError{Op: op, Cause: cause}
}

// QueryError marks a server-side rejection of a query (malformed SPARQL,
// 4xx/5xx from the triplestore that isn't an auth failure). Callers log
// and skip the job; the index is not marked invalid.
type QueryError struct {
	Query string
	Cause error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query error: %v", e.Cause)
}

func (e *QueryError) Unwrap() error { return e.Cause }

// NewQueryError builds a QueryError.
func NewQueryError(query string, cause error) error {
	return &QueryError{Query: query, Cause: cause}
}

// AuthError marks a missing or invalid authorization-group scope.
type AuthError struct {
	Detail string
}

func (e *AuthError) Error() string { return fmt.Sprintf("auth error: %s", e.Detail) }

// NewAuthError builds an AuthError.
func NewAuthError(detail string) error {
	return &AuthError{Detail: detail}
}

// NotFound marks a Search Engine "document/index not found" condition.
// Callers treat this as a no-op on delete, never fatal.
type NotFound struct {
	What string
}

func (e *NotFound) Error() string { return fmt.Sprintf("not found: %s", e.What) }

// NewNotFound builds a NotFound error.
func NewNotFound(what string) error {
	return &NotFound{What: what}
}

// IsNotFound reports whether err (or anything it wraps) is a NotFound.
func IsNotFound(err error) bool {
	var nf *NotFound
	return errors.As(err, &nf)
}

// MergeConflict marks an irreconcilable smart-merge of two document trees.
type MergeConflict struct {
	Key string
}

func (e *MergeConflict) Error() string {
	return fmt.Sprintf("merge conflict on key %q", e.Key)
}

// NewMergeConflict builds a MergeConflict error.
func NewMergeConflict(key string) error {
	return &MergeConflict{Key: key}
}

// ExtractorError marks a text-extraction failure. Callers log and emit a
// null content field; it never aborts a rebuild.
type ExtractorError struct {
	Path  string
	Cause error
}

func (e *ExtractorError) Error() string {
	return fmt.Sprintf("extractor error for %s: %v", e.Path, e.Cause)
}

func (e *ExtractorError) Unwrap() error { return e.Cause }

// NewExtractorError builds an ExtractorError.
func NewExtractorError(path string, cause error) error {
	return &ExtractorError{Path: path, Cause: cause}
}
