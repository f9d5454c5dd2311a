package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vaccination-api/internal/models"
)

var childRowColumns = []string{"id", "first_names", "last_names", "gender", "birth_date", "residence_address", "center_id", "tutor_id", "activation_code", "activation_code_expires_at", "created_at", "updated_at"}

func TestChildRepositoryCreateAndFind(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewChildRepository(db)
	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	birth := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tutor := "tutor-1"

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO children")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM children WHERE activation_code = $1")).
		WithArgs("ABCD2345").
		WillReturnRows(sqlmock.NewRows(childRowColumns).
			AddRow("child-1", "Ana", "Perez", "F", birth, "", nil, tutor, "ABCD2345", now.AddDate(0, 1, 0), now, now))

	require.NoError(t, repo.Create(context.Background(), &models.Child{
		ID: "child-1", FirstNames: "Ana", LastNames: "Perez", Gender: "F", BirthDate: birth,
		TutorID: &tutor, ActivationCode: "ABCD2345", ActivationCodeExpiresAt: now.AddDate(0, 1, 0),
		CreatedAt: now, UpdatedAt: now,
	}))

	child, err := repo.FindByActivationCode(context.Background(), db, "ABCD2345")
	require.NoError(t, err)
	require.NotNil(t, child)
	assert.Equal(t, "Ana Perez", child.FullName())
	assert.True(t, child.LinkedTo("tutor-1"))
	assert.Nil(t, child.CenterID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChildRepositoryFindByIDMissing(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewChildRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM children WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(childRowColumns))

	child, err := repo.FindByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, child)
}

func TestChildRepositoryDeleteCascadesOpenWork(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewChildRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM link_requests WHERE child_id = $1 AND status = 'PENDING'")).WithArgs("child-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM appointments")).WithArgs("child-1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE medical_histories")).WithArgs("child-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM children")).WithArgs("child-1").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), db, "child-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChildRepositoryListByTutor(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewChildRepository(db)
	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	birth := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	center := "center-1"

	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN centers ce ON ce.id = c.center_id\nWHERE c.tutor_id = $1")).
		WithArgs("tutor-1").
		WillReturnRows(sqlmock.NewRows(append(append([]string{}, childRowColumns...), "center_name")).
			AddRow("child-1", "Ana", "Perez", "F", birth, "Calle 1", center, "tutor-1", "ABCD2345", now, now, now, "Centro Norte").
			AddRow("child-2", "Luis", "Perez", "M", birth, "Calle 1", nil, "tutor-1", "EFGH6789", now, now, now, nil))

	items, err := repo.ListByTutor(context.Background(), "tutor-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Ana Perez", items[0].FullName())
	require.NotNil(t, items[0].CenterName)
	assert.Equal(t, "Centro Norte", *items[0].CenterName)
	assert.Nil(t, items[1].CenterName)
	require.NoError(t, mock.ExpectationsWereMet())
}
