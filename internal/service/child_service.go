package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/vaccination-api/internal/dto"
	"github.com/noah-isme/vaccination-api/internal/models"
	"github.com/noah-isme/vaccination-api/pkg/database"
	appErrors "github.com/noah-isme/vaccination-api/pkg/errors"
)

const (
	activationAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	activationCodeRetries = 3
	dateLayout            = "2006-01-02"
)

type childStore interface {
	Create(ctx context.Context, child *models.Child) error
	FindByID(ctx context.Context, id string) (*models.Child, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Child, error)
	Delete(ctx context.Context, exec sqlx.ExtContext, childID string) error
	ListByTutor(ctx context.Context, tutorID string) ([]models.ChildDetail, error)
}

type childHistoryCounter interface {
	CountByChild(ctx context.Context, exec sqlx.ExtContext, childID string) (int, error)
}

// ChildServiceConfig controls activation code issuance.
type ChildServiceConfig struct {
	CodeTTL    time.Duration
	CodeLength int
}

// ChildService registers children and decides who may read them.
type ChildService struct {
	repo      childStore
	history   childHistoryCounter
	tutors    tutorReader
	tx        txRunner
	cfg       ChildServiceConfig
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewChildService builds the service.
func NewChildService(repo childStore, history childHistoryCounter, tutors tutorReader, tx txRunner, validate *validator.Validate, logger *zap.Logger, cfg ChildServiceConfig) *ChildService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = 30 * 24 * time.Hour
	}
	if cfg.CodeLength < 6 {
		cfg.CodeLength = 8
	}
	return &ChildService{
		repo:      repo,
		history:   history,
		tutors:    tutors,
		tx:        tx,
		cfg:       cfg,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Register creates a child and issues its activation code. A registering
// tutor becomes the child's tutor; an admin without a tutor profile leaves
// the child unlinked.
func (s *ChildService) Register(ctx context.Context, req dto.RegisterChildRequest, actor *models.Claims) (*models.RegisteredChild, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	req.FirstNames = strings.TrimSpace(req.FirstNames)
	req.LastNames = strings.TrimSpace(req.LastNames)
	req.Gender = strings.ToUpper(strings.TrimSpace(req.Gender))
	req.ResidenceAddress = strings.TrimSpace(req.ResidenceAddress)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid child payload")
	}
	birthDate, err := time.Parse(dateLayout, req.BirthDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "birthDate must be YYYY-MM-DD")
	}
	now := s.now().UTC()
	if birthDate.After(dateOf(now)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "birthDate cannot be in the future")
	}

	tutor, err := s.tutors.FindTutorByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, internal(err, "failed to resolve tutor")
	}
	if tutor == nil && actor.Role != models.RoleAdmin {
		return nil, appErrors.ErrTutorNotFound
	}

	child := &models.Child{
		ID:                      uuid.NewString(),
		FirstNames:              req.FirstNames,
		LastNames:               req.LastNames,
		Gender:                  req.Gender,
		BirthDate:               birthDate,
		ResidenceAddress:        req.ResidenceAddress,
		ActivationCodeExpiresAt: now.Add(s.cfg.CodeTTL),
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if tutor != nil {
		tutorID := tutor.ID
		child.TutorID = &tutorID
	}
	if req.CenterID != "" {
		centerID := req.CenterID
		child.CenterID = &centerID
	}

	for attempt := 1; ; attempt++ {
		code, err := GenerateActivationCode(s.cfg.CodeLength)
		if err != nil {
			return nil, internal(err, "failed to generate activation code")
		}
		child.ActivationCode = code
		err = s.repo.Create(ctx, child)
		if err == nil {
			break
		}
		if database.IsUniqueViolation(err, "") && attempt < activationCodeRetries {
			continue
		}
		return nil, internal(err, "failed to register child")
	}

	s.logger.Info("child registered", zap.String("child_id", child.ID), zap.String("registered_by", actor.UserID))
	return &models.RegisteredChild{
		Child:                   *child,
		ActivationCode:          child.ActivationCode,
		ActivationCodeExpiresAt: child.ActivationCodeExpiresAt,
	}, nil
}

// Authorize loads a child and checks the actor may read it. Tutors only see
// children they are linked to.
func (s *ChildService) Authorize(ctx context.Context, childID string, actor *models.Claims) (*models.Child, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := requireID(s.validator, childID, "child id"); err != nil {
		return nil, err
	}
	child, err := s.repo.FindByID(ctx, childID)
	if err != nil {
		return nil, internal(err, "failed to load child")
	}
	if child == nil {
		return nil, appErrors.ErrChildNotFound
	}
	if actor.Role.ReadsAnyChild() {
		return child, nil
	}

	tutor, err := s.tutors.FindTutorByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, internal(err, "failed to resolve tutor")
	}
	if tutor == nil || !child.LinkedTo(tutor.ID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "child is not linked to this tutor")
	}
	return child, nil
}

// ListForTutor lists the children linked to the tutor behind tutorUserID.
// Tutors may only list their own children.
func (s *ChildService) ListForTutor(ctx context.Context, tutorUserID string, actor *models.Claims) ([]models.ChildDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := requireID(s.validator, tutorUserID, "tutor id"); err != nil {
		return nil, err
	}
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleTutor:
		if actor.UserID != tutorUserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "tutors may only list their own children")
		}
	default:
		return nil, appErrors.ErrForbidden
	}

	tutor, err := s.tutors.FindTutorByUserID(ctx, tutorUserID)
	if err != nil {
		return nil, internal(err, "failed to resolve tutor")
	}
	if tutor == nil {
		return nil, appErrors.ErrTutorNotFound
	}
	items, err := s.repo.ListByTutor(ctx, tutor.ID)
	if err != nil {
		return nil, internal(err, "failed to list children")
	}
	if items == nil {
		items = []models.ChildDetail{}
	}
	return items, nil
}

// Delete removes a child that has no vaccination history.
func (s *ChildService) Delete(ctx context.Context, childID string, actor *models.Claims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return appErrors.ErrForbidden
	}
	if err := requireID(s.validator, childID, "child id"); err != nil {
		return err
	}

	err := s.tx.WithinTx(ctx, "child_delete", func(exec sqlx.ExtContext) error {
		child, err := s.repo.LockByID(ctx, exec, childID)
		if err != nil {
			return internal(err, "failed to load child")
		}
		if child == nil {
			return appErrors.ErrChildNotFound
		}
		count, err := s.history.CountByChild(ctx, exec, childID)
		if err != nil {
			return internal(err, "failed to check vaccination history")
		}
		if count > 0 {
			return appErrors.Clone(appErrors.ErrChildHasHistory, fmt.Sprintf("child has %d vaccination records and cannot be deleted", count))
		}
		if err := s.repo.Delete(ctx, exec, childID); err != nil {
			return internal(err, "failed to delete child")
		}
		return nil
	})
	if err != nil {
		return internal(err, "failed to delete child")
	}
	s.logger.Info("child deleted", zap.String("child_id", childID), zap.String("deleted_by", actor.UserID))
	return nil
}

// GenerateActivationCode returns a random code over an alphabet without
// look-alike characters.
func GenerateActivationCode(length int) (string, error) {
	max := big.NewInt(int64(len(activationAlphabet)))
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(activationAlphabet[n.Int64()])
	}
	return b.String(), nil
}
