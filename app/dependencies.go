package app

import (
	"context"
	"fmt"

	"github.com/localloop/backend/config"
	"github.com/localloop/backend/handlers"
	"github.com/localloop/backend/middleware"
	"github.com/localloop/backend/repositories"
	"github.com/localloop/backend/repositories/postgres"
	"github.com/localloop/backend/services"
	"github.com/localloop/backend/services/audit"
	"github.com/localloop/backend/token"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Tenants       repositories.TenantRepository
	Users         repositories.UserRepository
	RefreshTokens repositories.RefreshTokenRepository
	AuditLogs     repositories.AuditRepository
	TxManager     repositories.TransactionManager

	// Services
	Codec          *token.Codec
	AuditService   *audit.AuditService
	AuthService    *services.AuthService
	TenantService  *services.TenantService
	ListingService *services.ListingService

	// HTTP layer
	TenantMiddleware *middleware.TenantMiddleware
	AuthHandler      *handlers.AuthHandler
	TenantHandler    *handlers.TenantHandler
	ListingHandler   *handlers.ListingHandler
	AuditHandler     *handlers.AuditHandler
	HealthHandler    *handlers.HealthHandler
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initRepositories()

	if err := deps.initServices(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	deps.initHTTP(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the PostgreSQL connection, factory and schema
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()

	if err := d.DB.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if err := d.DB.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.Logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))

	return nil
}

// initRepositories initializes the unscoped repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Tenants = repos.Tenants
	d.Users = repos.Users
	d.RefreshTokens = repos.RefreshTokens
	d.AuditLogs = repos.AuditLogs
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

// initServices initializes the token codec and the service layer
func (d *Dependencies) initServices(cfg *config.Config) error {
	codec, err := token.NewCodec(cfg.Auth.JWTSecret)
	if err != nil {
		return fmt.Errorf("failed to create token codec: %w", err)
	}
	d.Codec = codec

	d.AuditService = audit.NewAuditService(d.AuditLogs, d.Logger, audit.DefaultConfig())
	if err := d.AuditService.Start(); err != nil {
		return fmt.Errorf("failed to start audit service: %w", err)
	}

	d.AuthService = services.NewAuthService(
		d.Tenants,
		d.Users,
		d.RefreshTokens,
		d.TxManager,
		d.Codec,
		d.AuditService,
		d.Logger,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	d.TenantService = services.NewTenantService(d.Tenants, d.Logger)
	d.ListingService = services.NewListingService(d.Logger)

	d.Logger.Info("services initialized")
	return nil
}

// initHTTP initializes middleware and handlers
func (d *Dependencies) initHTTP(cfg *config.Config) {
	d.TenantMiddleware = middleware.NewTenantMiddleware(d.Codec, d.Logger, cfg.IsProduction())
	d.AuthHandler = handlers.NewAuthHandler(d.AuthService, d.Logger)
	d.TenantHandler = handlers.NewTenantHandler(d.TenantService, d.Logger)
	d.ListingHandler = handlers.NewListingHandler(d.RepoFactory, d.ListingService, d.Logger)
	d.AuditHandler = handlers.NewAuditHandler(d.AuditService, d.Logger)
	d.HealthHandler = handlers.NewHealthHandler(d.DB, d.Logger)
}

// Close releases all resources held by the dependencies
func (d *Dependencies) Close() error {
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	return nil
}
