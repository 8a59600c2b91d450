package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cabinet/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockedRepo(t *testing.T) (*GormClientRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormClientRepository(db), mock
}

func TestGormClientRepositoryFindByID(t *testing.T) {
	t.Run("maps a row to the domain entity", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		id := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM "clients" WHERE id =`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name", "type"}).
				AddRow(id, "AB01", "Boulangerie Ngono", "organization"))

		c, err := repo.FindByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, id, c.ID)
		assert.Equal(t, "AB01", c.Code)
		assert.Equal(t, "Boulangerie Ngono", c.Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("translates a missing row to ErrNotFound", func(t *testing.T) {
		repo, mock := newMockedRepo(t)

		mock.ExpectQuery(`SELECT (.+) FROM "clients" WHERE id =`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.FindByID(context.Background(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormClientRepositoryExistsByCode(t *testing.T) {
	repo, mock := newMockedRepo(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "clients" WHERE code =`).
		WithArgs("AB01").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.ExistsByCode(context.Background(), "ab01")
	require.NoError(t, err)
	assert.True(t, exists, "lookup uppercases the code before querying")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormClientRepositoryDelete(t *testing.T) {
	t.Run("deletes an existing client", func(t *testing.T) {
		repo, mock := newMockedRepo(t)

		mock.ExpectExec(`DELETE FROM "clients"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(context.Background(), uuid.New()))
	})

	t.Run("reports ErrNotFound when nothing was deleted", func(t *testing.T) {
		repo, mock := newMockedRepo(t)

		mock.ExpectExec(`DELETE FROM "clients"`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(context.Background(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormClientRepositoryCount(t *testing.T) {
	repo, mock := newMockedRepo(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "clients" WHERE name ILIKE`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.Count(context.Background(), shared.Filter{Search: "ngono"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}
