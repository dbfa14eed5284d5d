package failure

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the category of a pipeline failure.
type Kind string

const (
	KindInput      Kind = "InputError"
	KindNetwork    Kind = "NetworkError"
	KindExtraction Kind = "ExtractionError"
	KindRate       Kind = "RateError"
	KindData       Kind = "DataError"
	KindModel      Kind = "ModelError"
)

// Reason is the specific failure cause within a Kind.
type Reason string

const (
	NoURLFound            Reason = "NoUrlFound"
	MalformedURL          Reason = "MalformedUrl"
	FetchFailed           Reason = "FetchFailed"
	EmbeddedDataNotFound  Reason = "EmbeddedDataNotFound"
	EmbeddedDataMalformed Reason = "EmbeddedDataMalformed"
	RateUnavailable       Reason = "RateUnavailable"
	EmptyHistory          Reason = "EmptyHistory"
	MalformedHistory      Reason = "MalformedHistory"
	InsufficientHistory   Reason = "InsufficientHistory"
	ModelFitError         Reason = "ModelFitError"
	ModelPredictError     Reason = "ModelPredictError"
)

// Kind maps a reason to its category.
func (r Reason) Kind() Kind {
	switch r {
	case NoURLFound, MalformedURL:
		return KindInput
	case FetchFailed:
		return KindNetwork
	case EmbeddedDataNotFound, EmbeddedDataMalformed:
		return KindExtraction
	case RateUnavailable:
		return KindRate
	case EmptyHistory, MalformedHistory, InsufficientHistory:
		return KindData
	case ModelFitError, ModelPredictError:
		return KindModel
	default:
		return ""
	}
}

// Error is a tagged pipeline failure. Stages holds the stage names from the
// outermost caller down to the stage that produced the failure.
type Error struct {
	Reason     Reason
	Stages     []string
	Detail     string
	StatusCode int  // FetchFailed only
	Timeout    bool // FetchFailed only
	Cause      error
}

// Error renders the stage-prefixed trace, e.g. "get_market_item - get_item - status 429".
func (e *Error) Error() string {
	parts := append(append([]string{}, e.Stages...), e.Detail)
	return strings.Join(parts, " - ")
}

func (e *Error) Unwrap() error { return e.Cause }

// Kind returns the failure category.
func (e *Error) Kind() Kind { return e.Reason.Kind() }

// Origin returns the innermost stage name.
func (e *Error) Origin() string {
	if len(e.Stages) == 0 {
		return ""
	}
	return e.Stages[len(e.Stages)-1]
}

// New creates a failure raised by stage.
func New(stage string, reason Reason, format string, args ...any) *Error {
	return &Error{
		Reason: reason,
		Stages: []string{stage},
		Detail: fmt.Sprintf(format, args...),
	}
}

// Newf is New with an underlying cause attached.
func Newf(stage string, reason Reason, cause error, format string, args ...any) *Error {
	e := New(stage, reason, format, args...)
	e.Cause = cause
	return e
}

// NewFetchStatus creates a FetchFailed failure for a non-200 response.
func NewFetchStatus(stage string, statusCode int) *Error {
	e := New(stage, FetchFailed, "status %d", statusCode)
	e.StatusCode = statusCode
	return e
}

// NewFetchTimeout creates a FetchFailed failure for a request that timed out.
func NewFetchTimeout(stage string, cause error) *Error {
	e := Newf(stage, FetchFailed, cause, "timeout")
	e.Timeout = true
	return e
}

// Wrap prepends an outer stage name to a failure. Errors that are not
// failures are tagged with fallback so nothing leaves the pipeline untagged.
func Wrap(stage string, err error, fallback Reason) *Error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		out := *fe
		out.Stages = append([]string{stage}, fe.Stages...)
		return &out
	}
	return &Error{
		Reason: fallback,
		Stages: []string{stage},
		Detail: err.Error(),
		Cause:  err,
	}
}

// ReasonOf extracts the failure reason from err.
func ReasonOf(err error) (Reason, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Reason, true
	}
	return "", false
}

// Is reports whether err is a failure with the given reason.
func Is(err error, reason Reason) bool {
	r, ok := ReasonOf(err)
	return ok && r == reason
}
