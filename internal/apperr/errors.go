// Package apperr defines the stable error taxonomy shared by every component.
package apperr

import "fmt"

// Error carries a machine-readable code plus a human-readable message.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// Is lets errors.Is match any error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates an error with the given code and message.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap keeps the code of base but replaces the message.
func Wrap(base *Error, format string, args ...any) *Error {
	return &Error{Code: base.Code, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrNotFound          = New("NOT_FOUND", "resource not found")
	ErrForbidden         = New("FORBIDDEN", "caller is not allowed to perform this action")
	ErrDuplicatePurchase = New("DUPLICATE_PURCHASE", "an active purchase for this listing already exists")
	ErrInvalidState      = New("INVALID_STATE", "operation not allowed in current state")
	ErrLookup            = New("LOOKUP_ERROR", "shard directory unreachable")
	ErrStorage           = New("STORAGE_ERROR", "object storage operation failed")
	ErrInvalidInput      = New("INVALID_INPUT", "invalid input provided")
)
