package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error code to an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrBadRequest:
		return http.StatusBadRequest
	case ErrUnavailable:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnavailable
	ErrInternal
)

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// Kind classifies a failed call to the remote clinic API.
type Kind int

const (
	// KindTransport covers dial, read and circuit-breaker failures.
	KindTransport Kind = iota + 1
	// KindStatus is a non-2xx response.
	KindStatus
	// KindDecode is a response body that could not be decoded.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	}
	return "unknown"
}

// APIError is returned by every remote API call that does not succeed.
type APIError struct {
	Kind       Kind
	Method     string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
	case KindDecode:
		return fmt.Sprintf("invalid response from %s %s: %v", e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func Transport(method, url string, err error) *APIError {
	return &APIError{Kind: KindTransport, Method: method, URL: url, Err: err}
}

func Status(method, url string, code int, body string) *APIError {
	return &APIError{Kind: KindStatus, Method: method, URL: url, StatusCode: code, Body: body}
}

func Decode(method, url string, err error) *APIError {
	return &APIError{Kind: KindDecode, Method: method, URL: url, Err: err}
}

// KindOf returns the Kind of an APIError anywhere in err's chain, or 0.
func KindOf(err error) Kind {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

// IsNotFound reports whether err is a remote 404 or a local not-found AppError.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Kind == KindStatus && apiErr.StatusCode == http.StatusNotFound
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == ErrNotFound
	}
	return false
}
