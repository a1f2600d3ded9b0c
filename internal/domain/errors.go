package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the domain layer.
var (
	ErrInvalidInput      = fmt.Errorf("invalid input")
	ErrConfigLoad        = fmt.Errorf("failed to load configuration")
	ErrDecryption        = fmt.Errorf("decryption failed")
	ErrEncryption        = fmt.Errorf("encryption operation failed")
	ErrFileUnreadable    = fmt.Errorf("file not readable")
	ErrDeclaredFailure   = fmt.Errorf("server reported failure")
	ErrMalformedResponse = fmt.Errorf("malformed server response")
	ErrNetwork           = fmt.Errorf("network error")
	ErrCircuitOpen       = fmt.Errorf("server circuit open")
)

// DomainError wraps a sentinel error with context.
type DomainError struct {
	Op     string // operation name (e.g., "Collab.Upload")
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a new DomainError.
func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// WrapOp adds operation context to an error using fmt.Errorf wrapping.
// Returns nil if err is nil, enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ErrorCode is a machine-parseable error category for logs and span attributes.
type ErrorCode string

const (
	CodeUnknown           ErrorCode = "UNKNOWN"
	CodeInvalidInput      ErrorCode = "INVALID_INPUT"
	CodeConfigLoad        ErrorCode = "CONFIG_LOAD"
	CodeDecryption        ErrorCode = "DECRYPTION"
	CodeEncryption        ErrorCode = "ENCRYPTION"
	CodeFileUnreadable    ErrorCode = "FILE_UNREADABLE"
	CodeDeclaredFailure   ErrorCode = "DECLARED_FAILURE"
	CodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
	CodeNetwork           ErrorCode = "NETWORK"
	CodeCircuitOpen       ErrorCode = "CIRCUIT_OPEN"
)

// errorCodes maps sentinel errors to their machine-parseable codes.
// ErrCircuitOpen is listed before ErrNetwork on purpose: an open circuit
// is reported to the user as a network error but logged with its own code.
var errorCodes = []struct {
	sentinel error
	code     ErrorCode
}{
	{ErrCircuitOpen, CodeCircuitOpen},
	{ErrInvalidInput, CodeInvalidInput},
	{ErrConfigLoad, CodeConfigLoad},
	{ErrDecryption, CodeDecryption},
	{ErrEncryption, CodeEncryption},
	{ErrFileUnreadable, CodeFileUnreadable},
	{ErrDeclaredFailure, CodeDeclaredFailure},
	{ErrMalformedResponse, CodeMalformedResponse},
	{ErrNetwork, CodeNetwork},
}

// ErrorCodeOf returns the machine-parseable error code for the given error.
// It walks the error chain with errors.Is; the first matching sentinel wins.
// Returns CodeUnknown if no matching sentinel is found.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.sentinel) {
			return ec.code
		}
	}
	return CodeUnknown
}

// Code returns the ErrorCode for this DomainError's underlying sentinel.
func (e *DomainError) Code() ErrorCode {
	return ErrorCodeOf(e.Err)
}
