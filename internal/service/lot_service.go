package service

import (
	"context"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/vaccination-api/internal/models"
	appErrors "github.com/noah-isme/vaccination-api/pkg/errors"
)

type lotStore interface {
	ListAvailable(ctx context.Context, vaccineID, centerID string, now time.Time) ([]models.VaccineLot, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, lotID string) (*models.VaccineLot, error)
	Decrement(ctx context.Context, exec sqlx.ExtContext, lotID string, quantity int) (int, bool, error)
}

// LotService allocates vaccine lots first-expire-first-out.
type LotService struct {
	repo      lotStore
	tx        txRunner
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewLotService builds a LotService.
func NewLotService(repo lotStore, tx txRunner, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *LotService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LotService{repo: repo, tx: tx, metrics: metrics, validator: validate, logger: logger, now: time.Now}
}

// ListAvailableLots returns lots with stock that have not expired, earliest
// expiry first and lot id as tie breaker.
func (s *LotService) ListAvailableLots(ctx context.Context, vaccineID, centerID string) ([]models.VaccineLot, error) {
	if err := requireID(s.validator, vaccineID, "vaccine id"); err != nil {
		return nil, err
	}
	if centerID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "center is required")
	}
	if err := requireID(s.validator, centerID, "center id"); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	lots, err := s.repo.ListAvailable(ctx, vaccineID, centerID, now)
	if err != nil {
		return nil, internal(err, "failed to list vaccine lots")
	}

	eligible := make([]models.VaccineLot, 0, len(lots))
	for _, lot := range lots {
		if lot.Eligible(now) {
			eligible = append(eligible, lot)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		if !a.ExpiryDate.Equal(b.ExpiryDate) {
			return a.ExpiryDate.Before(b.ExpiryDate)
		}
		return a.ID < b.ID
	})
	return eligible, nil
}

// ReserveAndConsume decrements a lot in its own transaction and returns the
// post-decrement snapshot.
func (s *LotService) ReserveAndConsume(ctx context.Context, lotID string, quantity int) (*models.VaccineLot, error) {
	var lot *models.VaccineLot
	err := s.tx.WithinTx(ctx, "lot_consume", func(exec sqlx.ExtContext) error {
		var err error
		lot, err = s.ConsumeTx(ctx, exec, lotID, quantity, s.now().UTC())
		return err
	})
	if err != nil {
		return nil, internal(err, "failed to consume vaccine lot")
	}
	return lot, nil
}

// ConsumeTx locks the lot row, re-checks expiry and stock at now, and
// decrements it inside the caller's transaction.
func (s *LotService) ConsumeTx(ctx context.Context, exec sqlx.ExtContext, lotID string, quantity int, now time.Time) (*models.VaccineLot, error) {
	if err := requireID(s.validator, lotID, "lot id"); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "quantity must be at least 1")
	}

	lot, err := s.repo.LockByID(ctx, exec, lotID)
	if err != nil {
		return nil, internal(err, "failed to load vaccine lot")
	}
	if lot == nil {
		return nil, s.reject(appErrors.ErrLotNotFound, lotID)
	}
	if lot.Expired(now) {
		return nil, s.reject(appErrors.ErrLotExpired, lotID)
	}
	if lot.QuantityAvailable < quantity {
		return nil, s.reject(appErrors.ErrLotDepleted, lotID)
	}

	remaining, ok, err := s.repo.Decrement(ctx, exec, lotID, quantity)
	if err != nil {
		return nil, internal(err, "failed to update vaccine lot")
	}
	if !ok {
		return nil, s.reject(appErrors.ErrLotDepleted, lotID)
	}

	lot.QuantityAvailable = remaining
	return lot, nil
}

func (s *LotService) reject(template *appErrors.Error, lotID string) error {
	s.metrics.RecordLotFailure(template.Code)
	s.logger.Info("lot consumption rejected", zap.String("lot_id", lotID), zap.String("reason", template.Code))
	return appErrors.Clone(template, "")
}
