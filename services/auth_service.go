package services

import (
	"context"
	"errors"
	"time"

	"github.com/localloop/backend/models"
	"github.com/localloop/backend/obs"
	"github.com/localloop/backend/repositories"
	"github.com/localloop/backend/token"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer signs access tokens. Implemented by token.Codec.
type TokenIssuer interface {
	IssueAccessToken(user *models.User, ttl time.Duration) (string, error)
}

// SecurityAuditor records security-relevant events. Implemented by
// audit.AuditService. Recording failures are logged and swallowed: a full
// audit buffer must never fail a login.
type SecurityAuditor interface {
	LogLoginSucceeded(user *models.User, meta models.RequestMeta) error
	LogLoginFailed(email string, user *models.User, meta models.RequestMeta) error
	LogUserRegistered(user *models.User, meta models.RequestMeta) error
	LogTokenRefreshed(rotated *models.RefreshToken, meta models.RequestMeta) error
	LogRefreshReplayDetected(replayed *models.RefreshToken, meta models.RequestMeta) error
	LogLogout(subjectID, tenantID int64, meta models.RequestMeta) error
}

// TokenPair is the result of a successful login or refresh
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// RegisterInput carries a registration request into the service layer
type RegisterInput struct {
	TenantSlug string
	Email      string
	Password   string
}

// AuthService implements registration, login, refresh rotation and logout
type AuthService struct {
	tenants       repositories.TenantRepository
	users         repositories.UserRepository
	refreshTokens repositories.RefreshTokenRepository
	txMgr         repositories.TransactionManager
	issuer        TokenIssuer
	auditor       SecurityAuditor
	logger        *zap.Logger
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewAuthService creates a new AuthService
func NewAuthService(
	tenants repositories.TenantRepository,
	users repositories.UserRepository,
	refreshTokens repositories.RefreshTokenRepository,
	txMgr repositories.TransactionManager,
	issuer TokenIssuer,
	auditor SecurityAuditor,
	logger *zap.Logger,
	accessTTL, refreshTTL time.Duration,
) *AuthService {
	return &AuthService{
		tenants:       tenants,
		users:         users,
		refreshTokens: refreshTokens,
		txMgr:         txMgr,
		issuer:        issuer,
		auditor:       auditor,
		logger:        logger,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// Register creates a new member account within an existing tenant
func (s *AuthService) Register(ctx context.Context, input RegisterInput, meta models.RequestMeta) (*models.User, error) {
	tenant, err := s.tenants.GetBySlug(ctx, input.TenantSlug)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, WrapInternal("failed to look up tenant", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, WrapInternal("failed to hash password", err)
	}

	user := models.NewUser(tenant.ID, input.Email, string(hash), models.RoleMember)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrDuplicateEmail
		}
		return nil, WrapInternal("failed to create user", err)
	}

	s.audit(func() error { return s.auditor.LogUserRegistered(user, meta) })

	s.logger.Info("user registered",
		zap.Int64("user_id", user.ID),
		zap.Int64("tenant_id", user.TenantID))

	return user, nil
}

// Login verifies credentials and issues a token pair. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string, meta models.RequestMeta) (*TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.audit(func() error { return s.auditor.LogLoginFailed(email, nil, meta) })
			return nil, ErrInvalidCredentials
		}
		return nil, WrapInternal("failed to look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.audit(func() error { return s.auditor.LogLoginFailed(email, user, meta) })
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	s.audit(func() error { return s.auditor.LogLoginSucceeded(user, meta) })

	s.logger.Info("login succeeded",
		zap.Int64("user_id", user.ID),
		zap.Int64("tenant_id", user.TenantID))

	return pair, nil
}

// Refresh rotates a refresh token and issues a new token pair.
//
// Presenting an already-consumed token is rejected and recorded as a replay.
// The rejection touches nothing else: the client that legitimately rotated
// this token first keeps its working chain. Of two concurrent rotations of
// the same token exactly one wins; the loser's transaction rolls back,
// leaving no orphaned rows.
func (s *AuthService) Refresh(ctx context.Context, rawToken string, meta models.RequestMeta) (*TokenPair, error) {
	stored, err := s.refreshTokens.GetByTokenHash(ctx, token.HashRefreshToken(rawToken))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, WrapInternal("failed to look up refresh token", err)
	}

	now := time.Now()

	if stored.IsConsumed() {
		s.logger.Warn("refresh token replay detected",
			zap.String("token_id", stored.ID.String()),
			zap.Int64("subject_id", stored.SubjectID))

		obs.RecordRefreshReplay()
		s.audit(func() error { return s.auditor.LogRefreshReplayDetected(stored, meta) })

		return nil, ErrRefreshTokenRevoked
	}

	if stored.IsExpired(now) {
		return nil, ErrRefreshTokenExpired
	}

	user, err := s.users.GetByID(ctx, stored.SubjectID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, WrapInternal("failed to look up user", err)
	}

	newRaw, newHash, err := token.NewRefreshToken()
	if err != nil {
		return nil, WrapInternal("failed to generate refresh token", err)
	}
	rotated := models.NewRefreshToken(user.ID, user.TenantID, newHash, s.refreshTTL)

	err = WithTransaction(ctx, s.txMgr, func(txCtx context.Context, _ repositories.Transaction) error {
		if err := s.refreshTokens.Create(txCtx, rotated); err != nil {
			return WrapInternal("failed to store rotated token", err)
		}

		consumed, err := s.refreshTokens.Consume(txCtx, stored.ID, rotated.ID, now)
		if err != nil {
			return WrapInternal("failed to consume refresh token", err)
		}
		if !consumed {
			// Lost the race to a concurrent rotation. Rolling back
			// removes the row inserted above.
			return ErrRefreshTokenRevoked
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	access, err := s.issuer.IssueAccessToken(user, s.accessTTL)
	if err != nil {
		return nil, WrapInternal("failed to issue access token", err)
	}

	obs.RecordRefreshRotation()
	s.audit(func() error { return s.auditor.LogTokenRefreshed(rotated, meta) })

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: newRaw,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

// Logout revokes every outstanding refresh token for the principal. The
// access token stays valid until it expires; only the refresh chain ends.
func (s *AuthService) Logout(ctx context.Context, principal *models.Principal, meta models.RequestMeta) error {
	if err := s.refreshTokens.RevokeAllForUser(ctx, principal.SubjectID, time.Now()); err != nil {
		return WrapInternal("failed to revoke refresh tokens", err)
	}

	s.audit(func() error { return s.auditor.LogLogout(principal.SubjectID, principal.TenantID, meta) })

	s.logger.Info("logout",
		zap.Int64("user_id", principal.SubjectID),
		zap.Int64("tenant_id", principal.TenantID))

	return nil
}

// issuePair issues an access token and a fresh refresh token for the user
func (s *AuthService) issuePair(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, err := s.issuer.IssueAccessToken(user, s.accessTTL)
	if err != nil {
		return nil, WrapInternal("failed to issue access token", err)
	}

	raw, hash, err := token.NewRefreshToken()
	if err != nil {
		return nil, WrapInternal("failed to generate refresh token", err)
	}

	refresh := models.NewRefreshToken(user.ID, user.TenantID, hash, s.refreshTTL)
	if err := s.refreshTokens.Create(ctx, refresh); err != nil {
		return nil, WrapInternal("failed to store refresh token", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: raw,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

// audit runs an audit callback and logs failures without propagating them
func (s *AuthService) audit(fn func() error) {
	if s.auditor == nil {
		return
	}
	if err := fn(); err != nil {
		s.logger.Warn("failed to record audit event", zap.Error(err))
	}
}
