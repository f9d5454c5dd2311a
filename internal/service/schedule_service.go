package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/vaccination-api/internal/models"
)

type administeredReader interface {
	AdministeredByChild(ctx context.Context, childID string) ([]models.AdministeredDose, error)
}

type catalogLister interface {
	List(ctx context.Context) ([]models.CatalogVaccine, error)
}

type childGate interface {
	Authorize(ctx context.Context, childID string, actor *models.Claims) (*models.Child, error)
}

// ScheduleService projects a child's vaccination schedule on demand.
type ScheduleService struct {
	children childGate
	catalog  catalogLister
	doses    administeredReader
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduleService builds the service.
func NewScheduleService(children childGate, catalog catalogLister, doses administeredReader, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{children: children, catalog: catalog, doses: doses, logger: logger, now: time.Now}
}

// ForChild loads fresh inputs and computes the schedule for today.
func (s *ScheduleService) ForChild(ctx context.Context, childID string, actor *models.Claims) ([]models.ScheduleEntry, error) {
	child, err := s.children.Authorize(ctx, childID, actor)
	if err != nil {
		return nil, err
	}
	catalog, err := s.catalog.List(ctx)
	if err != nil {
		return nil, internal(err, "failed to load vaccine catalog")
	}
	administered, err := s.doses.AdministeredByChild(ctx, child.ID)
	if err != nil {
		return nil, internal(err, "failed to load vaccination history")
	}
	return ComputeSchedule(child.BirthDate, catalog, administered, s.now()), nil
}

// ComputeSchedule returns one entry per catalog dose, with due dates counted
// in calendar days from birth. Dates are compared at UTC day granularity.
// Output is ordered by due date, vaccine name, then dose number.
func ComputeSchedule(birthDate time.Time, catalog []models.CatalogVaccine, administered []models.AdministeredDose, today time.Time) []models.ScheduleEntry {
	type doseKey struct {
		vaccineID string
		dose      int
	}
	given := make(map[doseKey]time.Time, len(administered))
	for _, d := range administered {
		key := doseKey{d.VaccineID, d.DoseNumber}
		if prev, ok := given[key]; !ok || d.AdministeredAt.Before(prev) {
			given[key] = d.AdministeredAt
		}
	}

	birth := dateOf(birthDate)
	day := dateOf(today)

	entries := make([]models.ScheduleEntry, 0)
	for _, vaccine := range catalog {
		for _, dose := range vaccine.Doses {
			due := birth.AddDate(0, 0, dose.OffsetDays)
			entry := models.ScheduleEntry{
				VaccineID:   vaccine.ID,
				VaccineName: vaccine.Name,
				DoseNumber:  dose.DoseNumber,
				DoseLabel:   doseLabel(dose),
				DueDate:     due,
			}
			if at, ok := given[doseKey{vaccine.ID, dose.DoseNumber}]; ok {
				at := at
				entry.Status = models.ScheduleCompleted
				entry.AdministeredAt = &at
			} else {
				switch {
				case due.Before(day):
					entry.Status = models.ScheduleOverdue
				case due.Equal(day):
					entry.Status = models.ScheduleDue
				default:
					entry.Status = models.ScheduleUpcoming
				}
			}
			entries = append(entries, entry)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		if a.VaccineName != b.VaccineName {
			return a.VaccineName < b.VaccineName
		}
		if a.DoseNumber != b.DoseNumber {
			return a.DoseNumber < b.DoseNumber
		}
		return a.VaccineID < b.VaccineID
	})
	return entries
}

func doseLabel(dose models.CatalogDose) string {
	if dose.Label != "" {
		return dose.Label
	}
	return fmt.Sprintf("Dose %d", dose.DoseNumber)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
