package errors

// ErrorBuilder assembles a ClassifiedError.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts a builder with error severity and no retry.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: SeverityError,
		retry:    RetryNever,
		message:  message,
	}}
}

// WrapError starts a builder around cause.
func WrapError(cause error, category ErrorCategory, message string) *ErrorBuilder {
	b := NewError(category, message)
	b.err.cause = cause
	return b
}

func (b *ErrorBuilder) WithSeverity(s ErrorSeverity) *ErrorBuilder {
	b.err.severity = s
	return b
}

func (b *ErrorBuilder) WithRetry(r RetryStrategy) *ErrorBuilder {
	b.err.retry = r
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.Set(key, value)
	return b
}

func (b *ErrorBuilder) Fatal() *ErrorBuilder      { return b.WithSeverity(SeverityFatal) }
func (b *ErrorBuilder) Warning() *ErrorBuilder    { return b.WithSeverity(SeverityWarning) }
func (b *ErrorBuilder) Retryable() *ErrorBuilder  { return b.WithRetry(RetryBackoff) }
func (b *ErrorBuilder) UserAction() *ErrorBuilder { return b.WithRetry(RetryUserAction) }

// Build returns the error. The builder may keep being used afterwards.
func (b *ErrorBuilder) Build() *ClassifiedError {
	out := b.err
	if b.err.context != nil {
		out.context = b.err.context.Merge(nil)
	}
	return &out
}

// ConfigError is a fatal configuration error the user has to fix.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal().UserAction()
}

// ContentError reports a problem with an input document.
func ContentError(message string) *ErrorBuilder {
	return NewError(CategoryContent, message)
}

// MarkdownError reports a failure while converting a document.
func MarkdownError(message string) *ErrorBuilder {
	return NewError(CategoryMarkdown, message)
}

// ThemeError reports template lookup or execution failures.
func ThemeError(message string) *ErrorBuilder {
	return NewError(CategoryTheme, message)
}

// EmbedError reports a failed embed lookup; these are recoverable.
func EmbedError(message string) *ErrorBuilder {
	return NewError(CategoryEmbed, message).Warning()
}

// NetworkError reports a transport failure; these are retryable.
func NetworkError(message string) *ErrorBuilder {
	return NewError(CategoryNetwork, message).Retryable()
}

// FileSystemError reports an I/O failure on the input or output tree.
func FileSystemError(message string) *ErrorBuilder {
	return NewError(CategoryFileSystem, message)
}

// PluginError reports a failing plugin or event handler.
func PluginError(message string) *ErrorBuilder {
	return NewError(CategoryPlugin, message)
}

// BuildError reports an orchestration failure.
func BuildError(message string) *ErrorBuilder {
	return NewError(CategoryBuild, message).Fatal()
}

// InternalError reports a bug.
func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}
