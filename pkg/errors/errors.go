// Package errors provides the structured error taxonomy used across bikedemand.
//
// Every constructor attaches a cockroachdb/errors stack trace so that
// pkg/log can emit it alongside the message. All error types implement
// zerolog.LogObjectMarshaler for structured logging.
package errors

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Warnings
//
// ===========================================================================

var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("bikedemand-warning: %v\n", w)
	}
	zerologWarnFunc func(warning error)
)

// SetZerologWarnFunc installs the structured warning sink. pkg/log calls this
// during setup; keeping it as a hook avoids an import cycle.
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn emits a warning through the structured sink when installed, otherwise
// through the fallback handler.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}
	if warningHandler != nil {
		warningHandler(w)
	}
}

// UndefinedMetricWarning is raised when a metric is reported with a sentinel
// value instead of failing, e.g. R² on a constant target inside a bundle.
type UndefinedMetricWarning struct {
	Metric    string
	Condition string
	Result    float64
}

func (w *UndefinedMetricWarning) Error() string {
	return fmt.Sprintf("'%s' is ill-defined and being set to %f due to %s", w.Metric, w.Result, w.Condition)
}

// MarshalZerologObject adds the warning fields to a zerolog event.
func (w *UndefinedMetricWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("metric", w.Metric).
		Str("condition", w.Condition).
		Float64("result", w.Result).
		Str("type", "UndefinedMetricWarning")
}

// NewUndefinedMetricWarning creates an UndefinedMetricWarning.
func NewUndefinedMetricWarning(metric, condition string, result float64) *UndefinedMetricWarning {
	return &UndefinedMetricWarning{Metric: metric, Condition: condition, Result: result}
}

// ===========================================================================
//
//	Structured errors
//
// ===========================================================================

// NotFittedError is returned when an operation that needs a prior fit or a
// completed training run is invoked out of order.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("bikedemand: %s: not fitted yet; fit before calling %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace.
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// MissingColumnError is returned when a requested column is absent from a table.
type MissingColumnError struct {
	Op        string
	Column    string
	Available []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("bikedemand: %s: column %q not found (available: %s)",
		e.Op, e.Column, strings.Join(e.Available, ", "))
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *MissingColumnError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("column", e.Column).
		Strs("available", e.Available).
		Str("type", "MissingColumnError")
}

// NewMissingColumnError creates a MissingColumnError with a stack trace.
func NewMissingColumnError(op, column string, available []string) error {
	cols := make([]string, len(available))
	copy(cols, available)
	return errors.WithStack(&MissingColumnError{Op: op, Column: column, Available: cols})
}

// SchemaMismatchError is returned when a feature matrix does not carry the
// schema (column names and order) recorded at fit time.
type SchemaMismatchError struct {
	Op       string
	Expected []string
	Got      []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("bikedemand: %s: schema mismatch: expected [%s], got [%s]",
		e.Op, strings.Join(e.Expected, ", "), strings.Join(e.Got, ", "))
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *SchemaMismatchError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Strs("expected", e.Expected).
		Strs("got", e.Got).
		Str("type", "SchemaMismatchError")
}

// NewSchemaMismatchError creates a SchemaMismatchError with a stack trace.
func NewSchemaMismatchError(op string, expected, got []string) error {
	return errors.WithStack(&SchemaMismatchError{
		Op:       op,
		Expected: append([]string(nil), expected...),
		Got:      append([]string(nil), got...),
	})
}

// InvalidParameterError is returned for out-of-range parameters and
// inconsistent inputs such as mismatched row counts.
type InvalidParameterError struct {
	Op        string
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("bikedemand: %s: invalid parameter '%s': %s (got: %v)", e.Op, e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *InvalidParameterError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "InvalidParameterError")
}

// NewInvalidParameterError creates an InvalidParameterError with a stack trace.
func NewInvalidParameterError(op, param, reason string, value interface{}) error {
	return errors.WithStack(&InvalidParameterError{Op: op, ParamName: param, Reason: reason, Value: value})
}

// UndefinedMetricError is returned when a metric has no defined value for
// the given input, e.g. R² on a constant target.
type UndefinedMetricError struct {
	Metric    string
	Condition string
}

func (e *UndefinedMetricError) Error() string {
	return fmt.Sprintf("bikedemand: %s is undefined: %s", e.Metric, e.Condition)
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *UndefinedMetricError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("metric", e.Metric).
		Str("condition", e.Condition).
		Str("type", "UndefinedMetricError")
}

// NewUndefinedMetricError creates an UndefinedMetricError with a stack trace.
func NewUndefinedMetricError(metric, condition string) error {
	return errors.WithStack(&UndefinedMetricError{Metric: metric, Condition: condition})
}

// DimensionError is returned when input dimensions differ from expectations.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("bikedemand: %s: dimension mismatch on axis %d (%s). Expected %d, got %d",
		e.Op, e.Axis, e.axisName(), e.Expected, e.Got)
}

func (e *DimensionError) axisName() string {
	if e.Axis == 0 {
		return "rows"
	}
	return "features"
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", e.axisName()).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValidationError is returned when a configuration value fails validation.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("bikedemand: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError creates a ValidationError with a stack trace.
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ValueError is returned when an argument has an unsuitable value.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("bikedemand: %s: %s", e.Op, e.Message)
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *ValueError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("message", e.Message).
		Str("type", "ValueError")
}

// NewValueError creates a ValueError with a stack trace.
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ModelError is a general model failure wrapping a cause.
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bikedemand: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("bikedemand: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError creates a ModelError with a stack trace.
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap annotates err with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf annotates err with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates an error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// ===========================================================================
//
//	Sentinels
//
// ===========================================================================

var (
	// ErrEmptyData is returned when an input has no rows or columns.
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix is returned when a matrix factorisation fails.
	ErrSingularMatrix = New("singular matrix")

	// ErrAllCandidatesFailed is returned when no candidate model trained.
	ErrAllCandidatesFailed = New("all candidate models failed")
)
