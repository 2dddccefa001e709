package errs

import (
	"errors"
	"fmt"
)

// Code — стабильный машинный код ошибки домена (для HTTP-маппинга и клиентов).
type Code string

const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeNotFound          Code = "NOT_FOUND"
	CodeForbidden         Code = "FORBIDDEN"
	CodeInvalidState      Code = "INVALID_STATE"
	CodeConflict          Code = "CONFLICT"
	CodeStaleState        Code = "STALE_STATE"
	CodeDependencyFailure Code = "DEPENDENCY_FAILURE"
)

// Error — доменная ошибка с кодом и человекочитаемой причиной.
type Error struct {
	Code   Code
	Reason string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Reason
}

// New создаёт доменную ошибку с форматируемой причиной.
func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// CodeOf извлекает код из цепочки ошибок; пустая строка если ошибка не доменная.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Известные ошибки домена.
var (
	ErrIssueNotFound     = &Error{Code: CodeNotFound, Reason: "issue not found"}
	ErrOrderItemNotFound = &Error{Code: CodeNotFound, Reason: "order item not found"}
	ErrOrderNotFound     = &Error{Code: CodeNotFound, Reason: "order not found"}
	ErrNotOrderOwner     = &Error{Code: CodeForbidden, Reason: "caller does not own the order"}
	ErrOrderNotFulfilled = &Error{Code: CodeInvalidState, Reason: "cannot report issue before fulfillment"}
	ErrIssuePending      = &Error{Code: CodeConflict, Reason: "a report is already pending for this order item"}
	ErrIssueConcluded    = &Error{Code: CodeInvalidState, Reason: "issue is concluded"}
	ErrNotReviewable     = &Error{Code: CodeInvalidState, Reason: "issue is not reviewable in its current status"}
	ErrAlreadyConcluded  = &Error{Code: CodeInvalidState, Reason: "issue is already concluded"}
	ErrNotConcluded      = &Error{Code: CodeInvalidState, Reason: "issue is not concluded"}
	ErrStaleState        = &Error{Code: CodeStaleState, Reason: "issue changed concurrently, refresh and retry"}
)
