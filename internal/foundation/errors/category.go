package errors

import "maps"

// ErrorCategory groups errors by the subsystem that raised them.
type ErrorCategory string

const (
	// User input.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"

	// Content pipeline.
	CategoryContent  ErrorCategory = "content"
	CategoryMarkdown ErrorCategory = "markdown"
	CategoryTheme    ErrorCategory = "theme"
	CategoryPlugin   ErrorCategory = "plugin"
	CategoryBuild    ErrorCategory = "build"

	// External systems.
	CategoryEmbed      ErrorCategory = "embed"
	CategoryNetwork    ErrorCategory = "network"
	CategoryFileSystem ErrorCategory = "filesystem"

	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how far an error should propagate.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // abort the build
	SeverityError   ErrorSeverity = "error"   // abort the current item
	SeverityWarning ErrorSeverity = "warning" // log and fall back
	SeverityInfo    ErrorSeverity = "info"
)

// RetryStrategy is a hint for callers that may repeat the failed operation.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"
	RetryImmediate  RetryStrategy = "immediate"
	RetryBackoff    RetryStrategy = "backoff"
	RetryUserAction RetryStrategy = "user"
)

// ErrorContext holds structured key/value detail attached to an error.
type ErrorContext map[string]any

// Set stores value under key, allocating the map when needed.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = ErrorContext{}
	}
	c[key] = value
	return c
}

// Get returns the value stored under key.
func (c ErrorContext) Get(key string) (any, bool) {
	v, ok := c[key]
	return v, ok
}

// GetString returns the value under key when it is a string.
func (c ErrorContext) GetString(key string) (string, bool) {
	v, ok := c[key].(string)
	return v, ok
}

// Merge returns a new context holding both maps; other wins on conflicts.
func (c ErrorContext) Merge(other ErrorContext) ErrorContext {
	out := make(ErrorContext, len(c)+len(other))
	maps.Copy(out, c)
	maps.Copy(out, other)
	return out
}
