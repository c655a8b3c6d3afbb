// Package errors provides error handling for roomq.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints
//
// and defines the sentinel failures of the resolution cascade. Every
// component converts collaborator failures into one of these sentinels at its
// boundary so callers can branch with errors.Is:
//
//	rows, err := executor.Execute(ctx, q)
//	if errors.Is(err, errors.ErrQueryExecution) {
//	    // treat as empty, move on to the next stage
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint      = crdb.WithHint
	WithHintf     = crdb.WithHintf
	WithDetail    = crdb.WithDetail
	WithDetailf   = crdb.WithDetailf
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
	FlattenHints  = crdb.FlattenHints
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll

	GetReportableStackTrace = crdb.GetReportableStackTrace
)

// General sentinels.
var (
	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates the request was malformed or invalid
	ErrInvalidRequest = New("invalid request")

	// ErrServiceUnavailable indicates a required collaborator is not configured
	ErrServiceUnavailable = New("service unavailable")

	// ErrTimeout indicates an external call did not answer in time
	ErrTimeout = New("operation timed out")
)

// Cascade sentinels.
var (
	// ErrClassification indicates the classifier output could not be parsed.
	// The question degrades to the fallback intent.
	ErrClassification = New("classification failure")

	// ErrQueryExecution indicates the knowledge store rejected or failed a query
	ErrQueryExecution = New("query execution error")

	// ErrReadOnlyViolation indicates a generated query was not a read-only statement
	ErrReadOnlyViolation = New("query is not read-only")

	// ErrCannotTranslate is returned when the translator answers with its
	// "cannot answer" sentinel instead of a query
	ErrCannotTranslate = New("question cannot be expressed as a query")

	// ErrRetrieval indicates the vector search or its answer synthesis failed
	ErrRetrieval = New("retrieval error")

	// ErrDataLoad indicates the time-series source could not be read
	ErrDataLoad = New("data load error")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsTimeoutError checks if an error is or wraps ErrTimeout
func IsTimeoutError(err error) bool {
	return err != nil && Is(err, ErrTimeout)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// WrapAs marks err with the sentinel kind and adds context, keeping the
// underlying message (store error text, HTTP body, ...) in the chain.
func WrapAs(kind error, err error, context string) error {
	if err == nil {
		return nil
	}
	return Wrap(Mark(err, kind), context)
}

// kinds lists the sentinels StageError reports, most specific first
var kinds = []error{
	ErrTimeout,
	ErrReadOnlyViolation,
	ErrCannotTranslate,
	ErrQueryExecution,
	ErrRetrieval,
	ErrClassification,
	ErrDataLoad,
	ErrServiceUnavailable,
	ErrNotFound,
	ErrInvalidRequest,
}

// KindOf returns the message of the first sentinel err is marked with,
// or "error" when it carries none
func KindOf(err error) string {
	for _, k := range kinds {
		if Is(err, k) {
			return k.Error()
		}
	}
	return "error"
}

// StageError renders a stage failure as a single log-friendly line:
// "<stage> [<kind>]: <message>"
func StageError(stage string, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%s [%s]: %v", stage, KindOf(err), err)
}
