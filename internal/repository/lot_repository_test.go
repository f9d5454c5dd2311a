package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lotRowColumns = []string{"id", "vaccine_id", "center_id", "lot_number", "expiry_date", "quantity_available", "vaccine_name", "manufacturer"}

func TestLotRepositoryListAvailable(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewLotRepository(db)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(lotRowColumns).
		AddRow("lot-a", "vac-1", "center-1", "A-01", now.AddDate(0, 1, 0), 3, "BCG", "Serum").
		AddRow("lot-b", "vac-1", "center-1", "B-01", now.AddDate(0, 2, 0), 10, "BCG", "Serum")

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY l.expiry_date ASC, l.id ASC")).
		WithArgs("vac-1", "center-1", now).
		WillReturnRows(rows)

	lots, err := repo.ListAvailable(context.Background(), "vac-1", "center-1", now)
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.Equal(t, "lot-a", lots[0].ID)
	assert.Equal(t, "BCG", lots[0].VaccineName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLotRepositoryLockByIDMissing(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewLotRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE OF l")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(lotRowColumns))

	lot, err := repo.LockByID(context.Background(), db, "missing")
	require.NoError(t, err)
	assert.Nil(t, lot)
}

func TestLotRepositoryDecrement(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewLotRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE vaccine_lots")).
		WithArgs("lot-a", 1).
		WillReturnRows(sqlmock.NewRows([]string{"quantity_available"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE vaccine_lots")).
		WithArgs("lot-a", 5).
		WillReturnRows(sqlmock.NewRows([]string{"quantity_available"}))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)

	remaining, ok, err := repo.Decrement(context.Background(), tx, "lot-a", 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, remaining)

	_, ok, err = repo.Decrement(context.Background(), tx, "lot-a", 5)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}
