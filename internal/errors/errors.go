package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrUploadNotFound is returned when an upload is not found.
	ErrUploadNotFound = errors.New("upload not found")
	// ErrForbidden is returned when the caller is not the owner or an admin.
	ErrForbidden = errors.New("access denied")
	// ErrNoFile is returned when the multipart request carries no file.
	ErrNoFile = errors.New("no file provided")
	// ErrInvalidFileType is returned when the file is not a PNG.
	ErrInvalidFileType = errors.New("only PNG files are allowed")
	// ErrFileTooLarge is returned when the file exceeds the configured maximum.
	ErrFileTooLarge = errors.New("file size cannot exceed the configured maximum")
	// ErrEmailTaken is returned when registering with an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUserInactive is returned when a deactivated user authenticates.
	ErrUserInactive = errors.New("user account is deactivated")
	// ErrInvalidDateRange is returned when a report date bound fails to parse.
	ErrInvalidDateRange = errors.New("invalid date range")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Downstream failures
// (store or database unreachable) fall through to a generic 500; the cause
// is logged by the handler, never returned to the caller.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrUploadNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "UPLOAD_NOT_FOUND")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, err.Error(), "ACCESS_DENIED")
	case errors.Is(err, ErrNoFile):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "NO_FILE")
	case errors.Is(err, ErrInvalidFileType):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_FILE_TYPE")
	case errors.Is(err, ErrFileTooLarge):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "FILE_TOO_LARGE")
	case errors.Is(err, ErrEmailTaken):
		return NewHTTPError(http.StatusConflict, err.Error(), "EMAIL_TAKEN")
	case errors.Is(err, ErrUserInactive):
		return NewHTTPError(http.StatusForbidden, err.Error(), "USER_INACTIVE")
	case errors.Is(err, ErrInvalidDateRange):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_DATE_RANGE")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
