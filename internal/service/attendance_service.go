package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/vaccination-api/internal/dto"
	"github.com/noah-isme/vaccination-api/internal/models"
	appErrors "github.com/noah-isme/vaccination-api/pkg/errors"
)

const defaultAttendanceTimeout = 5 * time.Second

type attendanceAppointmentStore interface {
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Appointment, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, from, to models.AppointmentStatus, now time.Time) error
}

type attendanceChildReader interface {
	FindByIDTx(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Child, error)
}

type vaccinationWriter interface {
	Insert(ctx context.Context, exec sqlx.ExtContext, record *models.VaccinationRecord) error
}

type personnelReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type lotConsumer interface {
	ConsumeTx(ctx context.Context, exec sqlx.ExtContext, lotID string, quantity int, now time.Time) (*models.VaccineLot, error)
}

// AttendanceServiceParams groups the collaborators of AttendanceService.
type AttendanceServiceParams struct {
	Appointments attendanceAppointmentStore
	Children     attendanceChildReader
	Records      vaccinationWriter
	Personnel    personnelReader
	Lots         lotConsumer
	Tx           txRunner
	Metrics      *MetricsService
	Validator    *validator.Validate
	Logger       *zap.Logger
	TxTimeout    time.Duration
}

// AttendanceService records administered doses against confirmed appointments.
type AttendanceService struct {
	appointments attendanceAppointmentStore
	children     attendanceChildReader
	records      vaccinationWriter
	personnel    personnelReader
	lots         lotConsumer
	tx           txRunner
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
	txTimeout    time.Duration
	now          func() time.Time
}

// NewAttendanceService builds the service.
func NewAttendanceService(params AttendanceServiceParams) *AttendanceService {
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.TxTimeout <= 0 {
		params.TxTimeout = defaultAttendanceTimeout
	}
	return &AttendanceService{
		appointments: params.Appointments,
		children:     params.Children,
		records:      params.Records,
		personnel:    params.Personnel,
		lots:         params.Lots,
		tx:           params.Tx,
		metrics:      params.Metrics,
		validator:    params.Validator,
		logger:       params.Logger,
		txTimeout:    params.TxTimeout,
		now:          time.Now,
	}
}

// AttendAppointment consumes one dose from the lot, writes the vaccination
// record and marks the appointment attended. Either every step persists or none.
// The appointment row is always locked before the lot row.
func (s *AttendanceService) AttendAppointment(ctx context.Context, req dto.AttendAppointmentRequest, actor *models.Claims) (*models.VaccinationRecord, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !actor.Role.CanAdminister() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only medical personnel can record doses")
	}
	req.Notes = strings.TrimSpace(req.Notes)
	req.Allergies = strings.TrimSpace(req.Allergies)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid attendance payload")
	}

	personnel, err := s.personnel.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, internal(err, "failed to resolve personnel")
	}
	if personnel == nil {
		return nil, appErrors.ErrPersonnelNotFound
	}

	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var (
		record      *models.VaccinationRecord
		appointment *models.Appointment
	)
	err = s.tx.WithinTx(txCtx, "attend_appointment", func(exec sqlx.ExtContext) error {
		now := s.now().UTC()

		appt, err := s.appointments.LockByID(txCtx, exec, req.AppointmentID)
		if err != nil {
			return internal(err, "failed to load appointment")
		}
		if appt == nil {
			return appErrors.ErrAppointmentNotFound
		}
		if appt.Status != models.AppointmentConfirmed {
			return appErrors.Clone(appErrors.ErrAppointmentNotConfirmed,
				fmt.Sprintf("appointment is %s, expected %s", strings.ToLower(string(appt.Status)), strings.ToLower(string(models.AppointmentConfirmed))))
		}

		lot, err := s.lots.ConsumeTx(txCtx, exec, req.LotID, 1, now)
		if err != nil {
			return err
		}
		if lot.VaccineID != appt.VaccineID || lot.CenterID != appt.CenterID {
			return appErrors.ErrLotMismatch
		}

		child, err := s.children.FindByIDTx(txCtx, exec, appt.ChildID)
		if err != nil {
			return internal(err, "failed to load child")
		}
		if child == nil {
			return appErrors.ErrChildNotFound
		}

		record = &models.VaccinationRecord{
			ID:                  uuid.NewString(),
			AppointmentID:       appt.ID,
			ChildID:             appt.ChildID,
			VaccineID:           appt.VaccineID,
			LotID:               lot.ID,
			DoseNumber:          req.DoseNumber,
			PersonnelID:         personnel.ID,
			PersonnelName:       personnel.FullName,
			DoseLabel:           fmt.Sprintf("Dose %d", req.DoseNumber),
			AgeAtAdministration: FormatAge(child.BirthDate, now),
			Notes:               req.Notes,
			Allergies:           req.Allergies,
			AdministeredAt:      now,
		}

		if err := s.appointments.UpdateStatus(txCtx, exec, appt.ID, models.AppointmentConfirmed, models.AppointmentAttended, now); err != nil {
			return internal(err, "failed to update appointment")
		}
		if err := s.records.Insert(txCtx, exec, record); err != nil {
			return internal(err, "failed to save vaccination record")
		}
		appointment = appt
		return nil
	})
	if err != nil {
		return nil, internal(err, "failed to record attendance")
	}

	s.metrics.RecordDoseAdministered(appointment.CenterID)
	s.logger.Info("dose administered",
		zap.String("appointment_id", record.AppointmentID),
		zap.String("lot_id", record.LotID),
		zap.String("personnel_id", record.PersonnelID),
		zap.Int("dose_number", record.DoseNumber),
	)
	return record, nil
}

// FormatAge renders the calendar age between birth and at as "1y 2m 3d".
// Month steps landing past the end of a month clamp to its last day.
func FormatAge(birth, at time.Time) string {
	b := dateOf(birth)
	a := dateOf(at)
	if a.Before(b) {
		return "0y 0m 0d"
	}
	months := (a.Year()-b.Year())*12 + int(a.Month()) - int(b.Month())
	if a.Day() < b.Day() {
		months--
	}
	anchor := addMonthsClamped(b, months)
	if anchor.After(a) {
		months--
		anchor = addMonthsClamped(b, months)
	}
	days := int(a.Sub(anchor).Hours() / 24)
	return fmt.Sprintf("%dy %dm %dd", months/12, months%12, days)
}

func addMonthsClamped(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}
