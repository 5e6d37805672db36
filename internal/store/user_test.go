package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/rechargehub/apiserver/types"
	"github.com/stretchr/testify/require"
)

func userRows(user types.User) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "username", "email", "phone", "role", "password_hash", "created_at", "updated_at",
	}).AddRow(
		user.ID, user.Username, user.Email, user.Phone, user.Role, user.PasswordHash,
		user.CreatedAt, user.UpdatedAt,
	)
}

func TestUserRepositoryCreateMapsUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_username_key"})

	repo := NewUserRepository(db)
	_, err = repo.Create(context.Background(), types.User{
		Username:     "ravi",
		Email:        "ravi@example.com",
		Phone:        "9876543210",
		Role:         "user",
		PasswordHash: "digest",
	})
	require.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateReturnsID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("ravi", "ravi@example.com", "9876543210", "user", "digest",
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	repo := NewUserRepository(db)
	created, err := repo.Create(context.Background(), types.User{
		Username:     "ravi",
		Email:        "ravi@example.com",
		Phone:        "9876543210",
		Role:         "user",
		PasswordHash: "digest",
	})
	require.NoError(t, err)
	require.Equal(t, 7, created.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByIdentity(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	user := types.User{
		ID: 7, Username: "ravi", Email: "ravi@example.com", Phone: "9876543210",
		Role: "user", PasswordHash: "digest", CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectQuery(`SELECT (.+) FROM users`).
		WithArgs("", "ravi@example.com", "").
		WillReturnRows(userRows(user))

	repo := NewUserRepository(db)
	found, err := repo.FindByIdentity(context.Background(), "", "ravi@example.com", "")
	require.NoError(t, err)
	require.Equal(t, user.ID, found.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByIdentityNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM users`).
		WithArgs("ghost", "", "").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "email", "phone", "role", "password_hash", "created_at", "updated_at",
		}))

	repo := NewUserRepository(db)
	_, err = repo.FindByIdentity(context.Background(), "ghost", "", "")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM users`).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewUserRepository(db)
	require.NoError(t, repo.Delete(context.Background(), 7))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryDeleteNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM users`).
		WithArgs(404).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewUserRepository(db)
	require.ErrorIs(t, repo.Delete(context.Background(), 404), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
