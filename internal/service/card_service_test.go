package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vaccination-api/internal/models"
	appErrors "github.com/noah-isme/vaccination-api/pkg/errors"
)

type historyReaderStub struct {
	byChild map[string][]models.VaccinationHistoryEntry
	byUser  map[string][]models.VaccinationHistoryEntry
}

func (s historyReaderStub) ListByChild(ctx context.Context, childID string) ([]models.VaccinationHistoryEntry, error) {
	return s.byChild[childID], nil
}

func (s historyReaderStub) ListByTutorUser(ctx context.Context, userID string) ([]models.VaccinationHistoryEntry, error) {
	return s.byUser[userID], nil
}

func cardFixture() (*models.Child, historyReaderStub) {
	child := &models.Child{ID: uuid.NewString(), FirstNames: "Tomas", LastNames: "Vera", BirthDate: day(2023, 5, 4)}
	entries := []models.VaccinationHistoryEntry{
		{
			VaccinationRecord: models.VaccinationRecord{
				DoseLabel:           "Dose 1",
				AgeAtAdministration: "0y 2m 0d",
				PersonnelName:       "Ana Nurse",
				AdministeredAt:      time.Date(2023, 7, 4, 10, 0, 0, 0, time.UTC),
			},
			VaccineName: "Polio",
			LotNumber:   "PX-01",
		},
	}
	return child, historyReaderStub{byChild: map[string][]models.VaccinationHistoryEntry{child.ID: entries}}
}

func TestCardServiceRendersCSV(t *testing.T) {
	child, history := cardFixture()
	svc := NewCardService(&childGateStub{child: child}, history, nil)

	doc, err := svc.Render(context.Background(), child.ID, "CSV", &models.Claims{UserID: uuid.NewString(), Role: models.RoleDoctor})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", doc.ContentType)
	assert.Equal(t, "vaccination-card-"+child.ID+".csv", doc.Filename)

	lines := strings.Split(strings.TrimSpace(string(doc.Payload)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Vaccine,Dose,Administered,Age,Lot,Personnel,Notes", lines[0])
	assert.Equal(t, "Polio,Dose 1,2023-07-04,0y 2m 0d,PX-01,Ana Nurse,", lines[1])
}

func TestCardServiceDefaultsToPDF(t *testing.T) {
	child, history := cardFixture()
	svc := NewCardService(&childGateStub{child: child}, history, nil)

	doc, err := svc.Render(context.Background(), child.ID, "", &models.Claims{UserID: uuid.NewString(), Role: models.RoleDoctor})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.True(t, strings.HasPrefix(string(doc.Payload), "%PDF"))
}

func TestCardServiceRejects(t *testing.T) {
	child, history := cardFixture()
	gate := &childGateStub{child: child}
	svc := NewCardService(gate, history, nil)

	_, err := svc.Render(context.Background(), child.ID, "docx", &models.Claims{UserID: uuid.NewString(), Role: models.RoleDoctor})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Zero(t, gate.calls)

	gate.err = appErrors.ErrForbidden
	_, err = svc.Render(context.Background(), child.ID, "xlsx", &models.Claims{UserID: uuid.NewString(), Role: models.RoleTutor})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
