// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrContractNotFound    = errors.New("contract not found")
	ErrSelectionAmbiguous  = errors.New("contract selection is ambiguous")
	ErrInvalidContractKind = errors.New("contract is not an option")
	ErrPositionNotFound    = errors.New("position not found")
	ErrDuplicateContract   = errors.New("multiple positions share a contract id")
	ErrUntrackedPosition   = errors.New("untracked position added, cannot be merged on future trades")
	ErrInvalidLeg          = errors.New("invalid option leg")
	ErrInvalidRange        = errors.New("invalid price range")
	ErrEmptyPortfolio      = errors.New("portfolio has no positions")
	ErrStrategyNotFound    = errors.New("strategy not found")
	ErrConfigInvalid       = errors.New("invalid configuration")
	ErrDatabaseError       = errors.New("database error")
)

// ContractError represents a failure resolving a contract against reference data.
type ContractError struct {
	ContractID int64
	Reason     string
	Err        error
}

func (e *ContractError) Error() string {
	if e.ContractID == 0 {
		return fmt.Sprintf("contract error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("contract error [%d]: %s: %v", e.ContractID, e.Reason, e.Err)
}

func (e *ContractError) Unwrap() error {
	return e.Err
}

// NewContractError creates a new ContractError.
func NewContractError(contractID int64, reason string, err error) *ContractError {
	return &ContractError{
		ContractID: contractID,
		Reason:     reason,
		Err:        err,
	}
}

// ValidationError represents a validation error on option leg parameters.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// Unwrap lets callers match any ValidationError with ErrInvalidLeg.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidLeg
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// Warning is a non-fatal condition reported alongside a successful operation.
type Warning struct {
	Subject string
	Err     error
}

func (w *Warning) Error() string {
	return fmt.Sprintf("warning [%s]: %v", w.Subject, w.Err)
}

func (w *Warning) Unwrap() error {
	return w.Err
}

// NewWarning creates a new Warning.
func NewWarning(subject string, err error) *Warning {
	return &Warning{
		Subject: subject,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
