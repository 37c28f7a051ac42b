package postgres

import (
	"fmt"

	"github.com/localloop/backend/config"
	"github.com/localloop/backend/models"
	"github.com/localloop/backend/repositories"
	"go.uber.org/zap"
)

// RepositoryFactory creates repository instances sharing one connection pool
type RepositoryFactory struct {
	db     *DB
	logger *zap.Logger
	txMgr  repositories.TransactionManager
}

// Repositories holds the unscoped repository instances
type Repositories struct {
	Tenants       repositories.TenantRepository
	Users         repositories.UserRepository
	RefreshTokens repositories.RefreshTokenRepository
	AuditLogs     repositories.AuditRepository
}

// NewRepositoryFactory creates a factory with a live database connection
func NewRepositoryFactory(cfg *config.Config, logger *zap.Logger) (*RepositoryFactory, error) {
	db, err := NewDB(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &RepositoryFactory{
		db:     db,
		logger: logger,
		txMgr:  NewTransactionManager(db, logger),
	}, nil
}

// NewRepositories creates the unscoped repository set
func (f *RepositoryFactory) NewRepositories() *Repositories {
	return &Repositories{
		Tenants:       NewTenantRepository(f.db, f.logger),
		Users:         NewUserRepository(f.db, f.logger),
		RefreshTokens: NewRefreshTokenRepository(f.db, f.logger),
		AuditLogs:     NewAuditRepository(f.db, f.logger),
	}
}

// Scoped implements repositories.ScopeFactory: the only way to obtain
// tenant-scoped repositories.
func (f *RepositoryFactory) Scoped(tc *models.TenantContext) repositories.Scoped {
	return NewScope(f.db, f.logger, tc)
}

// GetDB returns the underlying database handle
func (f *RepositoryFactory) GetDB() *DB {
	return f.db
}

// GetTransactionManager returns the transaction manager
func (f *RepositoryFactory) GetTransactionManager() repositories.TransactionManager {
	return f.txMgr
}

var _ repositories.ScopeFactory = (*RepositoryFactory)(nil)
