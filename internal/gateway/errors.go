package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the closed error taxonomy shared by both backends. Parity demands
// that the mock and idp paths never invent codes outside this set.
type Code string

const (
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeInvalidToken       Code = "INVALID_TOKEN"
	CodeInvalidUser        Code = "INVALID_USER"
	CodeRefreshExpired     Code = "REFRESH_TOKEN_EXPIRED"
	CodeNotImplemented     Code = "NOT_IMPLEMENTED"
)

// Error is the structured failure value every gateway operation returns.
type Error struct {
	Status  int    `json:"status"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

var (
	ErrInvalidCredentials = &Error{Status: http.StatusUnauthorized, Code: CodeInvalidCredentials, Message: "invalid email or password"}
	ErrInvalidToken       = &Error{Status: http.StatusUnauthorized, Code: CodeInvalidToken, Message: "missing or invalid access token"}
	ErrInvalidUser        = &Error{Status: http.StatusUnauthorized, Code: CodeInvalidUser, Message: "no profile exists for this identity"}
	ErrRefreshExpired     = &Error{Status: http.StatusUnauthorized, Code: CodeRefreshExpired, Message: "refresh token expired or revoked"}
	ErrNotImplemented     = &Error{Status: http.StatusNotImplemented, Code: CodeNotImplemented, Message: "operation not available on this backend"}
	ErrDuplicateUser      = &Error{Status: http.StatusConflict, Code: CodeInvalidUser, Message: "email already provisioned"}
)

// AsError unwraps a structured gateway error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// ErrorCode returns the code of a structured error, or "" for plain errors.
func ErrorCode(err error) Code {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}
