package errors

import "fmt"

// Application error types organized by category for better error handling

type ErrorType string

// Domain/Business Logic Errors - errors related to request validation and
// aggregation outcomes
const (
	ValidationError ErrorType = "VALIDATION_ERROR"
	NoDataError     ErrorType = "NO_DATA_ERROR"
)

// Infrastructure Errors - errors related to external systems and services
const (
	ProviderError  ErrorType = "PROVIDER_ERROR"
	CacheError     ErrorType = "CACHE_ERROR"
	RateLimitError ErrorType = "RATE_LIMIT_ERROR"
)

// System/Configuration Errors - errors related to system setup and configuration
const (
	ConfigurationError ErrorType = "CONFIGURATION_ERROR"
)

type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(errorType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
	}
}

func Wrap(errorType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// Domain/Business Logic Error Constructors
func NewValidationError(message string) *AppError {
	return New(ValidationError, message)
}

// NewNoDataError marks the one fatal aggregation path: zero providers
// returned data for a coordinate.
func NewNoDataError(message string) *AppError {
	return New(NoDataError, message)
}

// Infrastructure Error Constructors
func NewProviderError(message string, cause error) *AppError {
	return Wrap(ProviderError, message, cause)
}

func NewCacheError(message string, cause error) *AppError {
	return Wrap(CacheError, message, cause)
}

func NewRateLimitError(message string) *AppError {
	return New(RateLimitError, message)
}

// System/Configuration Error Constructors
func NewConfigurationError(message string, cause error) *AppError {
	return Wrap(ConfigurationError, message, cause)
}

// IsType reports whether err is an *AppError of the given type
func IsType(err error, errorType ErrorType) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == errorType
}
