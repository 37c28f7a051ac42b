// Package token issues and verifies the credentials shared with the
// companion system: HMAC-SHA256 signed access tokens and opaque, server-side
// tracked refresh tokens. Verification is a pure computation with no storage
// dependency.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/localloop/backend/models"
)

// MinSecretLength is the minimum accepted signing secret size in bytes.
// Anything shorter is rejected at startup, never silently accepted.
const MinSecretLength = 32

// clockSkewLeeway tolerates small clock drift between the two systems that
// share the signing secret.
const clockSkewLeeway = 60 * time.Second

var (
	// ErrWeakSecret indicates a missing or too-short signing secret.
	ErrWeakSecret = errors.New("token: signing secret must be at least 32 bytes")

	// ErrInvalidToken indicates a bad signature or an otherwise unverifiable token.
	ErrInvalidToken = errors.New("token: invalid token")

	// ErrExpiredToken indicates the token is past its expiry.
	ErrExpiredToken = errors.New("token: token expired")

	// ErrMalformedClaims indicates the token decoded but its claims are
	// missing or ill-typed (for example a non-integer tenant_id).
	ErrMalformedClaims = errors.New("token: malformed claims")
)

// Claims is the wire-level claim schema. Both deployed systems decode this
// exact shape: sub carries the subject id as a string, tenant_id is an
// integer custom claim. A string tenant_id fails verification.
type Claims struct {
	TenantID int64  `json:"tenant_id"`
	Role     string `json:"role"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// Codec signs and verifies access tokens with a single shared secret.
// It is safe for concurrent use.
type Codec struct {
	secret []byte
}

// NewCodec creates a Codec from the configured secret. The secret length
// check here is the last line of defense; config validation rejects weak
// secrets before this is reached.
func NewCodec(secret string) (*Codec, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	return &Codec{secret: []byte(secret)}, nil
}

// IssueAccessToken signs a short-lived access token for the given user.
func (c *Codec) IssueAccessToken(user *models.User, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		TenantID: user.TenantID,
		Role:     string(user.Role),
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken checks signature, expiry and claim shape, and returns the
// typed Principal. Callers distinguish the returned sentinels for logging and
// metrics but surface all of them as a generic 401.
func (c *Codec) VerifyAccessToken(raw string) (*models.Principal, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{},
		func(t *jwt.Token) (interface{}, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(clockSkewLeeway),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenMalformed):
			// ErrTokenMalformed covers both garbage input and tokens that
			// decode into ill-typed claims, such as a string tenant_id. Only
			// the latter counts as malformed claims; garbage is just invalid.
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				return nil, ErrMalformedClaims
			}
			return nil, ErrInvalidToken
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return principalFromClaims(claims)
}

// principalFromClaims validates required claims and builds the immutable
// Principal. Parsing failures collapse into ErrMalformedClaims instead of
// leaking ad hoc type errors downstream.
func principalFromClaims(claims *Claims) (*models.Principal, error) {
	subjectID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || subjectID <= 0 {
		return nil, ErrMalformedClaims
	}
	if claims.TenantID <= 0 {
		return nil, ErrMalformedClaims
	}
	role := models.UserRole(claims.Role)
	if !role.Valid() {
		return nil, ErrMalformedClaims
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, ErrMalformedClaims
	}

	return &models.Principal{
		SubjectID: subjectID,
		TenantID:  claims.TenantID,
		Role:      role,
		Email:     claims.Email,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// NewRefreshToken generates a cryptographically random opaque refresh token.
// It returns the raw value handed to the client exactly once, and the SHA-256
// hex digest that is persisted. The raw value never encodes claims; revocation
// always requires the server-side lookup.
func NewRefreshToken() (raw, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generate refresh token: %w", err)
	}
	raw = hex.EncodeToString(b)
	return raw, HashRefreshToken(raw), nil
}

// HashRefreshToken returns the storage digest for a raw refresh token value.
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
