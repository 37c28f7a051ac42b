package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeNotFound, "resource not found", baseErr)

	assert.Equal(t, ErrorTypeNotFound, domainErr.Type)
	assert.Equal(t, "resource not found", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
	assert.NotNil(t, domainErr.Details)
}

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name: "error with wrapped error",
			err: &DomainError{
				Type:    ErrorTypeNotFound,
				Message: "listing not found",
				Err:     errors.New("db error"),
			},
			wantMsg: "not_found: listing not found (db error)",
		},
		{
			name: "error without wrapped error",
			err: &DomainError{
				Type:    ErrorTypeValidation,
				Message: "invalid input",
				Err:     nil,
			},
			wantMsg: "validation: invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeInternal, "internal error", baseErr)

	unwrapped := errors.Unwrap(domainErr)
	assert.Equal(t, baseErr, unwrapped)
}

func TestDomainError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{
			name:   "matching sentinel",
			err:    fmt.Errorf("wrapped: %w", ErrListingNotFound),
			target: ErrListingNotFound,
			want:   true,
		},
		{
			name:   "same type, different sentinel",
			err:    ErrRefreshTokenExpired,
			target: ErrRefreshTokenRevoked,
			want:   false,
		},
		{
			name:   "different type",
			err:    ErrInvalidInput,
			target: ErrListingNotFound,
			want:   false,
		},
		{
			name:   "non-domain error",
			err:    errors.New("plain error"),
			target: ErrListingNotFound,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestDomainError_WithDetail(t *testing.T) {
	err := NewDomainError(ErrorTypeValidation, "invalid input", nil).
		WithDetail("field", "price_cents").
		WithDetail("reason", "must be positive")

	details := GetErrorDetails(err)
	require.NotNil(t, details)
	assert.Equal(t, "price_cents", details["field"])
	assert.Equal(t, "must be positive", details["reason"])
}

func TestErrorTypeCheckers(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		checker func(error) bool
		want    bool
	}{
		{"not found", ErrListingNotFound, IsNotFoundError, true},
		{"wrapped not found", fmt.Errorf("ctx: %w", ErrTenantNotFound), IsNotFoundError, true},
		{"validation", ErrAmbiguousTenant, IsValidationError, true},
		{"unauthorized", ErrInvalidCredentials, IsUnauthorizedError, true},
		{"forbidden", ErrNotListingOwner, IsForbiddenError, true},
		{"conflict", ErrDuplicateEmail, IsConflictError, true},
		{"internal", WrapInternal("boom", errors.New("db down")), IsInternalError, true},
		{"mismatched checker", ErrListingNotFound, IsForbiddenError, false},
		{"plain error", errors.New("plain"), IsNotFoundError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.checker(tt.err))
		})
	}
}

func TestIsSecurityEvent(t *testing.T) {
	assert.True(t, IsSecurityEvent(ErrRefreshTokenRevoked))
	assert.False(t, IsSecurityEvent(ErrRefreshTokenExpired))
	assert.False(t, IsSecurityEvent(errors.New("plain")))
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, ErrorTypeNotFound, GetErrorType(ErrListingNotFound))
	assert.Equal(t, ErrorTypeUnauthorized, GetErrorType(ErrInvalidRefreshToken))
	assert.Equal(t, ErrorType(""), GetErrorType(errors.New("plain")))
}
