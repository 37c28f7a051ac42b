package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/localloop/backend/models"
	"github.com/localloop/backend/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUserRepository_Create(t *testing.T) {
	t.Run("assigns the generated id", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())

		user := models.NewUser(7, "member@example.com", "bcrypt-hash", models.RoleMember)

		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs(user.TenantID, user.Email, user.PasswordHash, user.Role, user.CreatedAt, user.UpdatedAt).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

		err := repo.Create(context.Background(), user)
		require.NoError(t, err)
		assert.Equal(t, int64(42), user.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation maps to ErrDuplicate across tenants", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())

		// Emails are globally unique; a second account with the same address
		// conflicts even under a different tenant.
		user := models.NewUser(8, "member@example.com", "bcrypt-hash", models.RoleMember)

		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs(user.TenantID, user.Email, user.PasswordHash, user.Role, user.CreatedAt, user.UpdatedAt).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

		err := repo.Create(context.Background(), user)
		assert.ErrorIs(t, err, repositories.ErrDuplicate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db, zap.NewNop())

	t.Run("found", func(t *testing.T) {
		now := time.Now()
		rows := sqlmock.NewRows([]string{
			"id", "tenant_id", "email", "password_hash", "role", "created_at", "updated_at",
		}).AddRow(int64(42), int64(7), "member@example.com", "bcrypt-hash", "member", now, now)

		mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
			WithArgs("member@example.com").
			WillReturnRows(rows)

		user, err := repo.GetByEmail(context.Background(), "member@example.com")
		require.NoError(t, err)
		assert.Equal(t, int64(42), user.ID)
		assert.Equal(t, int64(7), user.TenantID)
		assert.Equal(t, models.RoleMember, user.Role)
	})

	t.Run("unknown email maps to ErrNotFound", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
			WithArgs("ghost@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetByEmail(context.Background(), "ghost@example.com")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
