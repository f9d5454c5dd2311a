package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/vaccination-api/internal/dto"
	"github.com/noah-isme/vaccination-api/internal/models"
	"github.com/noah-isme/vaccination-api/internal/repository"
	"github.com/noah-isme/vaccination-api/pkg/database"
	appErrors "github.com/noah-isme/vaccination-api/pkg/errors"
)

type linkStore interface {
	LockPair(ctx context.Context, exec sqlx.ExtContext, tutorID, childID string) error
	HasPending(ctx context.Context, exec sqlx.ExtContext, tutorID, childID string) (bool, error)
	Create(ctx context.Context, exec sqlx.ExtContext, req *models.LinkRequest) error
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.LinkRequest, error)
	Resolve(ctx context.Context, exec sqlx.ExtContext, id string, status models.LinkStatus, resolvedBy string, now time.Time) error
	ListPendingForTutor(ctx context.Context, tutorID string) ([]models.LinkRequestDetail, error)
	ListPending(ctx context.Context) ([]models.LinkRequestDetail, error)
}

type linkChildStore interface {
	FindByActivationCode(ctx context.Context, exec sqlx.ExtContext, code string) (*models.Child, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Child, error)
	SetTutor(ctx context.Context, exec sqlx.ExtContext, childID, tutorID string, now time.Time) error
}

type tutorReader interface {
	FindTutorByUserID(ctx context.Context, userID string) (*models.Tutor, error)
}

// LinkingService runs the tutor to child linking state machine:
// PENDING moves once to ACCEPTED or REJECTED.
type LinkingService struct {
	links     linkStore
	children  linkChildStore
	tutors    tutorReader
	tx        txRunner
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewLinkingService builds the service.
func NewLinkingService(links linkStore, children linkChildStore, tutors tutorReader, tx txRunner, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *LinkingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkingService{
		links:     links,
		children:  children,
		tutors:    tutors,
		tx:        tx,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// RequestLink creates a pending request for the child owning the activation code.
func (s *LinkingService) RequestLink(ctx context.Context, req dto.RequestLinkRequest, actor *models.Claims) (*models.LinkRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	req.ActivationCode = normalizeActivationCode(req.ActivationCode)
	req.Message = strings.TrimSpace(req.Message)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid link request payload")
	}

	tutor, err := s.resolveTutor(ctx, actor)
	if err != nil {
		return nil, err
	}

	var created *models.LinkRequest
	err = s.tx.WithinTx(ctx, "link_request", func(exec sqlx.ExtContext) error {
		now := s.now().UTC()

		child, err := s.children.FindByActivationCode(ctx, exec, req.ActivationCode)
		if err != nil {
			return internal(err, "failed to resolve activation code")
		}
		if child == nil || !child.ActivationCodeValid(now) {
			return appErrors.ErrInvalidCode
		}

		if err := s.links.LockPair(ctx, exec, tutor.ID, child.ID); err != nil {
			return internal(err, "failed to lock link request")
		}
		child, err = s.children.LockByID(ctx, exec, child.ID)
		if err != nil {
			return internal(err, "failed to load child")
		}
		if child == nil {
			return appErrors.ErrInvalidCode
		}
		if child.LinkedTo(tutor.ID) {
			return appErrors.ErrAlreadyLinked
		}
		pending, err := s.links.HasPending(ctx, exec, tutor.ID, child.ID)
		if err != nil {
			return internal(err, "failed to check pending requests")
		}
		if pending {
			return appErrors.ErrDuplicatePending
		}

		request := &models.LinkRequest{
			ID:             uuid.NewString(),
			TutorID:        tutor.ID,
			ChildID:        child.ID,
			ActivationCode: req.ActivationCode,
			Status:         models.LinkStatusPending,
			CreatedAt:      now,
		}
		if req.Message != "" {
			msg := req.Message
			request.Message = &msg
		}
		if err := s.links.Create(ctx, exec, request); err != nil {
			if database.IsUniqueViolation(err, repository.PendingLinkConstraint) {
				return appErrors.ErrDuplicatePending
			}
			return internal(err, "failed to create link request")
		}
		created = request
		return nil
	})
	if err != nil {
		return nil, internal(err, "failed to request link")
	}

	s.metrics.RecordLinkTransition(string(models.LinkStatusPending))
	s.logger.Info("link requested",
		zap.String("request_id", created.ID),
		zap.String("tutor_id", created.TutorID),
		zap.String("child_id", created.ChildID),
	)
	return created, nil
}

// RespondToLink resolves a pending request. Only an admin or the child's
// current tutor, when that tutor is not the requester, may respond.
func (s *LinkingService) RespondToLink(ctx context.Context, requestID, rawAction string, actor *models.Claims) (*models.LinkRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	action, ok := models.ParseLinkAction(rawAction)
	if !ok {
		return nil, appErrors.ErrInvalidAction
	}
	if err := requireID(s.validator, requestID, "request id"); err != nil {
		return nil, err
	}

	var responder *models.Tutor
	if actor.Role != models.RoleAdmin {
		tutor, err := s.tutors.FindTutorByUserID(ctx, actor.UserID)
		if err != nil {
			return nil, internal(err, "failed to resolve tutor")
		}
		if tutor == nil {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "not authorized to respond to this request")
		}
		responder = tutor
	}

	var resolved *models.LinkRequest
	err := s.tx.WithinTx(ctx, "link_respond", func(exec sqlx.ExtContext) error {
		now := s.now().UTC()

		request, err := s.links.LockByID(ctx, exec, requestID)
		if err != nil {
			return internal(err, "failed to load link request")
		}
		if request == nil {
			return appErrors.ErrRequestNotFound
		}
		// The accepting guardian no longer owns the child, so a resolved
		// request must short-circuit before the responder check.
		if request.Status.Terminal() {
			return appErrors.ErrAlreadyResolved
		}
		if err := s.links.LockPair(ctx, exec, request.TutorID, request.ChildID); err != nil {
			return internal(err, "failed to lock link request")
		}
		child, err := s.children.LockByID(ctx, exec, request.ChildID)
		if err != nil {
			return internal(err, "failed to load child")
		}
		if child == nil {
			return appErrors.ErrChildNotFound
		}

		if responder != nil && (!child.LinkedTo(responder.ID) || responder.ID == request.TutorID) {
			return appErrors.Clone(appErrors.ErrForbidden, "not authorized to respond to this request")
		}

		status := action.Outcome()
		if err := s.links.Resolve(ctx, exec, request.ID, status, actor.UserID, now); err != nil {
			return internal(err, "failed to resolve link request")
		}
		if action == models.LinkActionAccept {
			if err := s.children.SetTutor(ctx, exec, child.ID, request.TutorID, now); err != nil {
				return internal(err, "failed to link child")
			}
		}

		request.Status = status
		request.ResolvedAt = &now
		resolvedBy := actor.UserID
		request.ResolvedBy = &resolvedBy
		resolved = request
		return nil
	})
	if err != nil {
		return nil, internal(err, "failed to respond to link request")
	}

	s.metrics.RecordLinkTransition(string(resolved.Status))
	s.logger.Info("link request resolved",
		zap.String("request_id", resolved.ID),
		zap.String("status", string(resolved.Status)),
		zap.String("resolved_by", actor.UserID),
	)
	return resolved, nil
}

// ListPending returns the pending requests the actor may resolve.
func (s *LinkingService) ListPending(ctx context.Context, actor *models.Claims) ([]models.LinkRequestDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}

	var (
		items []models.LinkRequestDetail
		err   error
	)
	if actor.Role == models.RoleAdmin {
		items, err = s.links.ListPending(ctx)
	} else {
		tutor, terr := s.resolveTutor(ctx, actor)
		if terr != nil {
			return nil, terr
		}
		items, err = s.links.ListPendingForTutor(ctx, tutor.ID)
	}
	if err != nil {
		return nil, internal(err, "failed to list link requests")
	}
	if items == nil {
		items = []models.LinkRequestDetail{}
	}
	return items, nil
}

func (s *LinkingService) resolveTutor(ctx context.Context, actor *models.Claims) (*models.Tutor, error) {
	tutor, err := s.tutors.FindTutorByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, internal(err, "failed to resolve tutor")
	}
	if tutor == nil {
		return nil, appErrors.ErrTutorNotFound
	}
	return tutor, nil
}

func normalizeActivationCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
