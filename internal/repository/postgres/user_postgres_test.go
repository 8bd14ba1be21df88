package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openshelf/internal/model"
	"openshelf/internal/repository"
)

var userCols = []string{"id", "name", "email", "password_hash", "created_at"}

func TestUserPostgres_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserPostgres(db)
	now := time.Now().UTC()
	u := &model.User{ID: "u1", Name: "Asha", Email: "asha@example.com", PasswordHash: "hash", CreatedAt: now}

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO users").
			WithArgs("u1", "Asha", "asha@example.com", "hash", now).
			WillReturnRows(sqlmock.NewRows(userCols).AddRow("u1", "Asha", "asha@example.com", "hash", now))

		out, err := repo.Create(context.Background(), u)
		require.NoError(t, err)
		assert.Equal(t, model.UserID("u1"), out.ID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO users").
			WithArgs("u1", "Asha", "asha@example.com", "hash", now).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		out, err := repo.Create(context.Background(), u)
		assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
		assert.Nil(t, out)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPostgres_Find(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email = ?").
		WithArgs("asha@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u1", "Asha", "asha@example.com", "hash", time.Now()))

	u, err := repo.FindByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", u.PasswordHash)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = ?").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	assert.NoError(t, mock.ExpectationsWereMet())
}
