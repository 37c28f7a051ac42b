package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is a long-lived, server-side-tracked credential used to renew
// access tokens. Only the SHA-256 hash of the raw value is ever stored; the
// raw value is returned to the client exactly once.
//
// Rows are never deleted. Rotation sets RevokedAt and ReplacedByID on the old
// row, so reuse of an already-rotated token is detectable as replay.
type RefreshToken struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	SubjectID    int64      `json:"subject_id" db:"subject_id"`
	TenantID     int64      `json:"tenant_id" db:"tenant_id"`
	TokenHash    string     `json:"-" db:"token_hash"`
	IssuedAt     time.Time  `json:"issued_at" db:"issued_at"`
	ExpiresAt    time.Time  `json:"expires_at" db:"expires_at"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
	ReplacedByID *uuid.UUID `json:"replaced_by_id,omitempty" db:"replaced_by_id"`
}

// TableName returns the table name for the RefreshToken model
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// NewRefreshToken creates a new RefreshToken row for the given user.
func NewRefreshToken(subjectID, tenantID int64, tokenHash string, ttl time.Duration) *RefreshToken {
	now := time.Now()
	return &RefreshToken{
		ID:        uuid.New(),
		SubjectID: subjectID,
		TenantID:  tenantID,
		TokenHash: tokenHash,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired reports whether the token is past its expiry at the given time.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// IsConsumed reports whether the token has been revoked or already rotated.
// A consumed token can never again mint an access token.
func (t *RefreshToken) IsConsumed() bool {
	return t.RevokedAt != nil || t.ReplacedByID != nil
}
