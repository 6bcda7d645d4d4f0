// Package errors provides the error types used throughout stratx.
//
// Errors are built on github.com/cockroachdb/errors so that every error
// carries a stack trace when printed with %+v, while remaining compatible
// with the standard errors.Is / errors.As machinery.
//
// The taxonomy follows the failure modes of a partial dependence
// computation:
//
//   - ConfigurationError: an invalid parameter combination, detected before
//     any forest is trained.
//   - InsufficientDataError: a column/threshold combination that leaves no
//     usable curve points.
//   - ValueError, DimensionError, NotFittedError, ModelError: the general
//     estimator errors shared by trees, forests and metrics.
//
// Leaves without variation in the column of interest are not errors; they
// are reported as data through the ignored counters.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Sentinel errors. Use Is to test for them through any wrapping.
var (
	// ErrEmptyData is returned when an input has no rows or no columns.
	ErrEmptyData = errors.New("empty data")

	// ErrNotFitted is returned when a model is used before Fit.
	ErrNotFitted = errors.New("model not fitted")

	// ErrConfiguration marks every ConfigurationError.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrInsufficientData marks every InsufficientDataError.
	ErrInsufficientData = errors.New("insufficient data")
)

// Wrap annotates err with msg. It returns nil if err is nil.
func Wrap(err error, msg string) error { return errors.Wrap(err, msg) }

// Wrapf annotates err with a formatted message. It returns nil if err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool { return errors.As(err, target) }

// ConfigurationError reports an invalid parameter or parameter combination.
type ConfigurationError struct {
	Op      string
	Param   string
	Message string
}

// NewConfigurationError creates a ConfigurationError with a stack trace.
func NewConfigurationError(op, param, message string) error {
	return errors.WithStack(&ConfigurationError{Op: op, Param: param, Message: message})
}

func (e *ConfigurationError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("stratx: %s: invalid configuration: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("stratx: %s: invalid configuration for %s: %s", e.Op, e.Param, e.Message)
}

// Is makes every ConfigurationError match ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// InsufficientDataError reports that filtering left no curve points.
type InsufficientDataError struct {
	Op         string
	Column     string
	Retained   int
	MinSupport int
}

// NewInsufficientDataError creates an InsufficientDataError with a stack trace.
func NewInsufficientDataError(op, column string, retained, minSupport int) error {
	return errors.WithStack(&InsufficientDataError{
		Op:         op,
		Column:     column,
		Retained:   retained,
		MinSupport: minSupport,
	})
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("stratx: %s: column %q retained %d x positions with minimum support %d",
		e.Op, e.Column, e.Retained, e.MinSupport)
}

// Is makes every InsufficientDataError match ErrInsufficientData.
func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// ValueError reports an invalid argument value.
type ValueError struct {
	Op      string
	Message string
}

// NewValueError creates a ValueError with a stack trace.
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("stratx: %s: %s", e.Op, e.Message)
}

// DimensionError reports mismatched input shapes.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

// NewDimensionError creates a DimensionError with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("stratx: %s: dimension mismatch on axis %d: expected %d, got %d",
		e.Op, e.Axis, e.Expected, e.Got)
}

// NotFittedError reports use of a model before Fit.
type NotFittedError struct {
	ModelName string
	Method    string
}

// NewNotFittedError creates a NotFittedError with a stack trace.
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("stratx: %s: model is not fitted, call Fit before %s", e.ModelName, e.Method)
}

// Is makes every NotFittedError match ErrNotFitted.
func (e *NotFittedError) Is(target error) bool { return target == ErrNotFitted }

// ModelError wraps a lower level failure with the operation that hit it.
type ModelError struct {
	Op      string
	Message string
	Err     error
}

// NewModelError creates a ModelError with a stack trace.
func NewModelError(op, message string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Message: message, Err: err})
}

func (e *ModelError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("stratx: %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("stratx: %s: %s: %v", e.Op, e.Message, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// Recover converts a panic raised below a public entry point into a
// ModelError assigned to *errp. Use it as the first deferred call:
//
//	defer errors.Recover(&err, "DecisionTreeRegressor.Fit")
func Recover(errp *error, op string) {
	r := recover()
	if r == nil {
		return
	}
	var cause error
	switch v := r.(type) {
	case error:
		cause = v
	default:
		cause = errors.Newf("%v", v)
	}
	*errp = NewModelError(op, "panic recovered", cause)
}
