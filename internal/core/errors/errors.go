package errors

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	// CodeGrammarUnavailable means no tree-sitter grammar is registered or
	// enabled for the requested language. Recoverable: callers switch to the
	// regex fallback path.
	CodeGrammarUnavailable ErrorCode = "GRAMMAR_UNAVAILABLE"
	// CodeParseFailure means the grammar failed outright on this input.
	// Syntactically invalid source still produces a tree; this code is
	// reserved for catastrophic parser results.
	CodeParseFailure ErrorCode = "PARSE_FAILURE"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeNotSupported ErrorCode = "NOT_SUPPORTED"
	CodeValidation   ErrorCode = "VALIDATION_ERROR"
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
)

type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]interface{}
}

const (
	CtxPath      = "path"
	CtxOperation = "operation"
	CtxLanguage  = "language"
	CtxSymbol    = "symbol"
	CtxKind      = "kind"
)

func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) > 0 {
		msg += fmt.Sprintf(" %v", e.Context)
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

func AddContext(err error, key string, value interface{}) error {
	var de *DomainError
	if errors.As(err, &de) {
		de.WithContext(key, value)
		return de
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]interface{}{key: value},
	}
}

func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the domain code of err, or CodeInternal for foreign errors.
func CodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Recoverable reports whether the error should redirect the operation to the
// regex fallback path instead of surfacing to the caller.
func Recoverable(err error) bool {
	switch CodeOf(err) {
	case CodeGrammarUnavailable, CodeParseFailure:
		return true
	}
	return false
}
