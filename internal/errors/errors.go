// Package errors defines the pipeline's error taxonomy. Parsing-stage
// errors are local and recoverable: the offending document, row, or
// token run is skipped and the batch continues. Only configuration and
// connectivity failures at the warehouse boundary are fatal.
package errors

import (
	"errors"
	"fmt"
)

// Code classifies a pipeline error.
type Code string

const (
	// CodeDocumentUnreadable - the document cannot be opened or decoded.
	CodeDocumentUnreadable Code = "DOCUMENT_UNREADABLE"
	// CodeLayoutUnresolved - required header fields were not found; the
	// document proceeds with degraded field resolution.
	CodeLayoutUnresolved Code = "LAYOUT_UNRESOLVED"
	// CodeRecordMalformed - a row or token run failed to yield valid
	// numeric fields and was dropped.
	CodeRecordMalformed Code = "RECORD_MALFORMED"
	// CodeDateUnresolvable - a record's date cannot be parsed, so it
	// cannot be placed in the time series.
	CodeDateUnresolvable Code = "DATE_UNRESOLVABLE"
	// CodeWarehouseWriteFailure - the warehouse rejected rows or the
	// whole write.
	CodeWarehouseWriteFailure Code = "WAREHOUSE_WRITE_FAILURE"
	// CodeConfiguration - missing credentials, bad paths, invalid flags.
	CodeConfiguration Code = "CONFIGURATION"
)

// PipelineError carries the classification plus enough source context
// (document, row) for a human audit of every exclusion.
type PipelineError struct {
	Code     Code
	Document string
	Row      int
	Message  string
	Err      error
	// Transient marks warehouse failures worth retrying (timeouts,
	// connection resets). Structural failures are never retried.
	Transient bool
}

func (e *PipelineError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Document != "" {
		msg += fmt.Sprintf(" (document=%s", e.Document)
		if e.Row >= 0 {
			msg += fmt.Sprintf(" row=%d", e.Row)
		}
		msg += ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Is matches on the code so callers can compare against sentinel
// constructors with errors.Is.
func (e *PipelineError) Is(target error) bool {
	var pe *PipelineError
	if !errors.As(target, &pe) {
		return false
	}
	return e.Code == pe.Code
}

// NewDocumentUnreadable reports a document that could not be opened or
// decoded. The caller skips the document and continues the batch.
func NewDocumentUnreadable(document string, err error) *PipelineError {
	return &PipelineError{
		Code:     CodeDocumentUnreadable,
		Document: document,
		Row:      -1,
		Message:  "document cannot be opened or decoded",
		Err:      err,
	}
}

// NewLayoutUnresolved reports missing header fields for a document.
func NewLayoutUnresolved(document, message string) *PipelineError {
	return &PipelineError{
		Code:     CodeLayoutUnresolved,
		Document: document,
		Row:      -1,
		Message:  message,
	}
}

// NewRecordMalformed reports a dropped row or token run.
func NewRecordMalformed(document string, row int, message string) *PipelineError {
	return &PipelineError{
		Code:     CodeRecordMalformed,
		Document: document,
		Row:      row,
		Message:  message,
	}
}

// NewDateUnresolvable reports a record whose date text could not be
// resolved to a calendar date.
func NewDateUnresolvable(document string, row int, raw string, err error) *PipelineError {
	return &PipelineError{
		Code:     CodeDateUnresolvable,
		Document: document,
		Row:      row,
		Message:  fmt.Sprintf("cannot resolve date %q", raw),
		Err:      err,
	}
}

// NewWarehouseWriteFailure wraps a warehouse error. Transient failures
// (timeouts, resets) may be retried with backoff; structural failures
// are reported immediately.
func NewWarehouseWriteFailure(message string, err error, transient bool) *PipelineError {
	return &PipelineError{
		Code:      CodeWarehouseWriteFailure,
		Row:       -1,
		Message:   message,
		Err:       err,
		Transient: transient,
	}
}

// NewConfiguration reports a fatal misconfiguration that aborts the run.
func NewConfiguration(message string, err error) *PipelineError {
	return &PipelineError{
		Code:    CodeConfiguration,
		Row:     -1,
		Message: message,
		Err:     err,
	}
}

// IsCode reports whether err (or anything it wraps) is a PipelineError
// with the given code.
func IsCode(err error, code Code) bool {
	var pe *PipelineError
	if !errors.As(err, &pe) {
		return false
	}
	return pe.Code == code
}

// IsTransient reports whether err is a retryable warehouse failure.
func IsTransient(err error) bool {
	var pe *PipelineError
	if !errors.As(err, &pe) {
		return false
	}
	return pe.Transient
}
