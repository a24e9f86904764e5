package repository

import (
	"context"
	"database/sql"
	"testing"

	"anoa.com/reportdesk/internal/model"
	"anoa.com/reportdesk/pkg/apperror"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock, sqlDB
}

func seedVersionedUser(t *testing.T) *model.User {
	t.Helper()
	return &model.User{
		ID:      uuid.New(),
		Email:   "alice@example.com",
		Name:    "Alice",
		Version: 3,
	}
}

// Deleting a user must null the owner reference on every report they own
// and remove the user row inside one transaction, in that order.
func TestDeleteWithDetachNullsOwnersThenDeletes(t *testing.T) {
	db, mock, sqlDB := newMockDB(t)
	defer sqlDB.Close()
	repo := NewUserRepository(db)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "reports" SET "user_id"=`).
		WithArgs(nil, sqlmock.AnyArg(), userID.String()).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM "users" WHERE id =`).
		WithArgs(userID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteWithDetach(context.Background(), userID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteWithDetachMissingUserRollsBack(t *testing.T) {
	db, mock, sqlDB := newMockDB(t)
	defer sqlDB.Close()
	repo := NewUserRepository(db)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "reports" SET "user_id"=`).
		WithArgs(nil, sqlmock.AnyArg(), userID.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "users" WHERE id =`).
		WithArgs(userID.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.DeleteWithDetach(context.Background(), userID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A stale version must not write and must surface as Conflict.
func TestUpdateStaleVersionIsConflict(t *testing.T) {
	db, mock, sqlDB := newMockDB(t)
	defer sqlDB.Close()
	repo := NewUserRepository(db)

	user := seedVersionedUser(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET `).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), user)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, int64(3), user.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBumpsVersion(t *testing.T) {
	db, mock, sqlDB := newMockDB(t)
	defer sqlDB.Close()
	repo := NewUserRepository(db)

	user := seedVersionedUser(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET `).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Update(context.Background(), user))
	assert.Equal(t, int64(4), user.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}
