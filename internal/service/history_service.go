package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/vaccination-api/internal/dto"
	"github.com/noah-isme/vaccination-api/internal/models"
	appErrors "github.com/noah-isme/vaccination-api/pkg/errors"
)

type medicalHistoryStore interface {
	Create(ctx context.Context, history *models.MedicalHistory) error
	Latest(ctx context.Context, userID, childID string) (*models.MedicalHistory, error)
}

// HistoryService assembles patient medical and vaccination history.
type HistoryService struct {
	repo      medicalHistoryStore
	records   historyReader
	children  childGate
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewHistoryService builds the service.
func NewHistoryService(repo medicalHistoryStore, records historyReader, children childGate, validate *validator.Validate, logger *zap.Logger) *HistoryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{repo: repo, records: records, children: children, validator: validate, logger: logger, now: time.Now}
}

// FullHistory returns the latest medical header and the vaccination
// history, for one child when ChildID is set or for every child linked to
// the user otherwise.
func (s *HistoryService) FullHistory(ctx context.Context, req dto.PatientHistoryRequest, actor *models.Claims) (*models.PatientFullHistory, error) {
	if err := s.authorize(req.UserID, actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid patient history request")
	}

	var (
		entries []models.VaccinationHistoryEntry
		err     error
	)
	if req.ChildID != "" {
		if _, err := s.children.Authorize(ctx, req.ChildID, actor); err != nil {
			return nil, err
		}
		entries, err = s.records.ListByChild(ctx, req.ChildID)
	} else {
		entries, err = s.records.ListByTutorUser(ctx, req.UserID)
	}
	if err != nil {
		return nil, internal(err, "failed to load vaccination history")
	}

	medical, err := s.repo.Latest(ctx, req.UserID, req.ChildID)
	if err != nil {
		return nil, internal(err, "failed to load medical history")
	}
	if entries == nil {
		entries = []models.VaccinationHistoryEntry{}
	}
	return &models.PatientFullHistory{MedicalHistory: medical, VaccinationHistory: entries}, nil
}

// Create opens a medical history header.
func (s *HistoryService) Create(ctx context.Context, req dto.CreatePatientHistoryRequest, actor *models.Claims) (*models.MedicalHistory, error) {
	if err := s.authorize(req.UserID, actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid patient history payload")
	}
	birthDate, err := time.Parse(dateLayout, req.BirthDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "birthDate must be YYYY-MM-DD")
	}

	history := &models.MedicalHistory{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		BirthDate: birthDate,
		Allergies: req.Allergies,
		Notes:     req.Notes,
		CreatedAt: s.now().UTC(),
	}
	if req.ChildID != "" {
		if _, err := s.children.Authorize(ctx, req.ChildID, actor); err != nil {
			return nil, err
		}
		childID := req.ChildID
		history.ChildID = &childID
	}

	if err := s.repo.Create(ctx, history); err != nil {
		return nil, internal(err, "failed to create medical history")
	}
	s.logger.Info("medical history created", zap.String("history_id", history.ID), zap.String("user_id", history.UserID))
	return history, nil
}

// authorize lets tutors act only on their own account.
func (s *HistoryService) authorize(userID string, actor *models.Claims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if userID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "userId is required")
	}
	if actor.Role == models.RoleTutor && actor.UserID != userID {
		return appErrors.Clone(appErrors.ErrForbidden, "tutors can only access their own history")
	}
	return nil
}
