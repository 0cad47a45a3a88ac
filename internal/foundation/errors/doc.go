// Package errors provides the classified error type used across bang.
//
// A ClassifiedError carries a category (config, content, markdown, embed, ...),
// a severity and a retry hint next to the message and the wrapped cause. The
// CLI maps categories to process exit codes through CLIErrorAdapter.
//
//	err := errors.NewError(errors.CategoryMarkdown, "unbalanced magic references").
//		WithContext("document", path).
//		WithContext("queue", "footnote").
//		Fatal().
//		Build()
package errors
