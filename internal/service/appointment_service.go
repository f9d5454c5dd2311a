package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/vaccination-api/internal/dto"
	"github.com/noah-isme/vaccination-api/internal/models"
	"github.com/noah-isme/vaccination-api/internal/repository"
	appErrors "github.com/noah-isme/vaccination-api/pkg/errors"
)

type appointmentLister interface {
	List(ctx context.Context, filter repository.AppointmentFilter) ([]models.AppointmentDetail, error)
	ListByChild(ctx context.Context, childID string) ([]models.AppointmentDetail, error)
}

// AppointmentService exposes role-scoped appointment views.
type AppointmentService struct {
	repo      appointmentLister
	children  childGate
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAppointmentService builds the service.
func NewAppointmentService(repo appointmentLister, children childGate, validate *validator.Validate, logger *zap.Logger) *AppointmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppointmentService{repo: repo, children: children, validator: validate, logger: logger}
}

// ListConfirmed returns confirmed appointments in scheduled order. Doctors
// see their own appointments in the requested center; managers see every
// appointment of the center on their claim.
func (s *AppointmentService) ListConfirmed(ctx context.Context, query dto.AppointmentQuery, actor *models.Claims) ([]models.AppointmentDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	filter := repository.AppointmentFilter{Status: models.AppointmentConfirmed}
	switch actor.Role {
	case models.RoleDoctor:
		centerID := strings.TrimSpace(query.CenterID)
		if centerID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "id_centro is required for doctors")
		}
		if err := requireID(s.validator, centerID, "id_centro"); err != nil {
			return nil, err
		}
		filter.CenterID = centerID
		filter.DoctorID = actor.UserID
	case models.RoleManager:
		if actor.CenterID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "manager has no assigned center")
		}
		filter.CenterID = actor.CenterID
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only doctors and managers can list confirmed appointments")
	}

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, internal(err, "failed to list appointments")
	}
	if items == nil {
		items = []models.AppointmentDetail{}
	}
	return items, nil
}

// ForChild lists every appointment of a child visible to the actor.
func (s *AppointmentService) ForChild(ctx context.Context, childID string, actor *models.Claims) ([]models.AppointmentDetail, error) {
	child, err := s.children.Authorize(ctx, childID, actor)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListByChild(ctx, child.ID)
	if err != nil {
		return nil, internal(err, "failed to list child appointments")
	}
	if items == nil {
		items = []models.AppointmentDetail{}
	}
	return items, nil
}
