package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeInternal     ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}

	// SecurityEvent marks failures that indicate possible credential abuse
	// (for example refresh-token replay). They surface to the client exactly
	// like their plain counterparts but are logged and counted separately.
	SecurityEvent bool
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// newSecurityError creates a domain error flagged as a security-relevant event
func newSecurityError(errType ErrorType, message string) *DomainError {
	e := NewDomainError(errType, message, nil)
	e.SecurityEvent = true
	return e
}

// Domain error variables

var (
	// Not Found Errors. Cross-tenant references resolve to these: existence
	// in another tenant must not be observable via status-code difference.
	ErrTenantNotFound  = NewDomainError(ErrorTypeNotFound, "tenant not found", nil)
	ErrUserNotFound    = NewDomainError(ErrorTypeNotFound, "user not found", nil)
	ErrListingNotFound = NewDomainError(ErrorTypeNotFound, "listing not found", nil)

	// Validation Errors
	ErrInvalidInput    = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrAmbiguousTenant = NewDomainError(ErrorTypeValidation, "no tenant determinable for request", nil)

	// Authorization Errors. All of these surface as a generic 401; the
	// distinct values exist for internal logging and metrics only.
	ErrInvalidCredentials   = NewDomainError(ErrorTypeUnauthorized, "invalid credentials", nil)
	ErrInvalidToken         = NewDomainError(ErrorTypeUnauthorized, "invalid authentication token", nil)
	ErrTokenExpired         = NewDomainError(ErrorTypeUnauthorized, "authentication token expired", nil)
	ErrMalformedClaims      = NewDomainError(ErrorTypeUnauthorized, "malformed token claims", nil)
	ErrInvalidRefreshToken  = NewDomainError(ErrorTypeUnauthorized, "invalid refresh token", nil)
	ErrRefreshTokenExpired  = NewDomainError(ErrorTypeUnauthorized, "refresh token expired", nil)
	ErrRefreshTokenRevoked  = newSecurityError(ErrorTypeUnauthorized, "refresh token revoked")

	// Permission Errors
	ErrNotListingOwner         = NewDomainError(ErrorTypeForbidden, "only the listing owner may modify it", nil)
	ErrInsufficientPermissions = NewDomainError(ErrorTypeForbidden, "insufficient permissions", nil)

	// Conflict Errors
	// Email uniqueness is global, not per tenant: login resolves accounts
	// by email alone, so one address can only ever belong to one account.
	ErrDuplicateEmail = NewDomainError(ErrorTypeConflict, "email already registered", nil)
	ErrDuplicateSlug  = NewDomainError(ErrorTypeConflict, "slug already exists", nil)

	// Internal Errors
	ErrInternal          = NewDomainError(ErrorTypeInternal, "internal server error", nil)
	ErrDatabaseError     = NewDomainError(ErrorTypeInternal, "database error", nil)
	ErrTransactionFailed = NewDomainError(ErrorTypeInternal, "transaction failed", nil)
)

// Error type checking helper functions

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeNotFound
	}
	return false
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeValidation
	}
	return false
}

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeUnauthorized
	}
	return false
}

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeForbidden
	}
	return false
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeConflict
	}
	return false
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeInternal
	}
	return false
}

// IsSecurityEvent checks if an error is flagged as a security-relevant event
func IsSecurityEvent(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.SecurityEvent
	}
	return false
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}
