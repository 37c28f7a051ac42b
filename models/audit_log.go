package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of security-relevant action being audited
type AuditAction string

const (
	AuditActionLoginSucceeded        AuditAction = "login_succeeded"
	AuditActionLoginFailed           AuditAction = "login_failed"
	AuditActionUserRegistered        AuditAction = "user_registered"
	AuditActionTokenRefreshed        AuditAction = "token_refreshed"
	AuditActionRefreshReplayDetected AuditAction = "refresh_replay_detected"
	AuditActionLogout                AuditAction = "logout"
	AuditActionDevHeaderResolution   AuditAction = "dev_header_resolution"
)

// AuditLog represents a security audit trail entry. TenantID and UserID are
// nullable because failed logins may not resolve to either.
type AuditLog struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	TenantID     *int64          `json:"tenant_id,omitempty" db:"tenant_id"`
	UserID       *int64          `json:"user_id,omitempty" db:"user_id"`
	Action       AuditAction     `json:"action" db:"action"`
	ResourceType string          `json:"resource_type" db:"resource_type"`
	ResourceID   *uuid.UUID      `json:"resource_id,omitempty" db:"resource_id"`
	Details      json.RawMessage `json:"details,omitempty" db:"details"`
	IPAddress    string          `json:"ip_address" db:"ip_address"`
	UserAgent    string          `json:"user_agent" db:"user_agent"`
	RequestID    string          `json:"request_id" db:"request_id"`
	Timestamp    time.Time       `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}

// NewAuditLog creates a new AuditLog instance
func NewAuditLog(action AuditAction, resourceType string) *AuditLog {
	return &AuditLog{
		ID:           uuid.New(),
		Action:       action,
		ResourceType: resourceType,
		Timestamp:    time.Now(),
	}
}

// WithTenant sets the tenant ID
func (a *AuditLog) WithTenant(tenantID int64) *AuditLog {
	a.TenantID = &tenantID
	return a
}

// WithUser sets the user ID
func (a *AuditLog) WithUser(userID int64) *AuditLog {
	a.UserID = &userID
	return a
}

// WithResource sets the resource ID
func (a *AuditLog) WithResource(resourceID uuid.UUID) *AuditLog {
	a.ResourceID = &resourceID
	return a
}

// WithDetails sets the details
func (a *AuditLog) WithDetails(details interface{}) *AuditLog {
	if data, err := json.Marshal(details); err == nil {
		a.Details = data
	}
	return a
}

// WithRequest sets request metadata
func (a *AuditLog) WithRequest(requestID, ipAddress, userAgent string) *AuditLog {
	a.RequestID = requestID
	a.IPAddress = ipAddress
	a.UserAgent = userAgent
	return a
}
