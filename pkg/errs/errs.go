package errs

import (
	"errors"
	"fmt"
)

// ErrConnection is returned when no store location is configured or the
// store cannot be reached.
var ErrConnection = errors.New("store connection unavailable")

// ValidationError marks missing or malformed request input. Handlers map
// it to a 400 response.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func Validation(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFoundError marks a referenced entity that does not exist (or is not
// owned by the session user). Handlers map it to a 404 response.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

func NotFound(entity string) error {
	return &NotFoundError{Entity: entity}
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ConflictError surfaces a unique-constraint violation, such as a
// duplicate account email. Handlers map it to a 409 response.
type ConflictError struct {
	Constraint string
}

func (e *ConflictError) Error() string {
	return "conflict on " + e.Constraint
}

func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// QueryError carries the store's error for diagnostics. Handlers map it
// to a 500 response.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

func Query(op string, err error) error {
	return &QueryError{Op: op, Err: err}
}

// AnalysisError marks a failed external completion call, a malformed
// response, or a schema-validation failure. Handlers map it to a 500.
type AnalysisError struct {
	Stage string
	Err   error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis %s: %v", e.Stage, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

func Analysis(stage string, err error) error {
	return &AnalysisError{Stage: stage, Err: err}
}

func IsAnalysis(err error) bool {
	var ae *AnalysisError
	return errors.As(err, &ae)
}
