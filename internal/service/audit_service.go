package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/vaccination-api/internal/models"
	"github.com/noah-isme/vaccination-api/pkg/jobs"
)

const auditJobType = "audit_log"

type auditStore interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

// AuditQueueConfig sizes the background audit writer. Workers <= 0 makes
// Record write synchronously.
type AuditQueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// AuditService persists audit trail entries off the request path.
type AuditService struct {
	repo   auditStore
	queue  *jobs.Queue
	logger *zap.Logger
	now    func() time.Time
}

// NewAuditService builds the service and its worker queue.
func NewAuditService(repo auditStore, cfg AuditQueueConfig, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AuditService{repo: repo, logger: logger, now: time.Now}
	if cfg.Workers > 0 {
		svc.queue = jobs.NewQueue("audit", svc.handle, jobs.QueueConfig{
			Workers:    cfg.Workers,
			BufferSize: cfg.BufferSize,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
			Logger:     logger,
		})
	}
	return svc
}

// Start launches the background writers.
func (s *AuditService) Start(ctx context.Context) {
	if s == nil || s.queue == nil {
		return
	}
	s.queue.Start(ctx)
}

// Stop drains pending entries.
func (s *AuditService) Stop() {
	if s == nil || s.queue == nil {
		return
	}
	s.queue.Stop()
}

// Record stamps and stores entry. When the queue is full the entry is
// written inline so nothing is dropped.
func (s *AuditService) Record(ctx context.Context, entry models.AuditLog) {
	if s == nil || s.repo == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}

	if s.queue != nil {
		err := s.queue.TryEnqueue(jobs.Job{ID: entry.ID, Type: auditJobType, Payload: entry})
		if err == nil {
			return
		}
		s.logger.Warn("audit queue unavailable, writing inline", zap.String("action", entry.Action), zap.Error(err))
	}
	if err := s.repo.Create(context.WithoutCancel(ctx), &entry); err != nil {
		s.logger.Error("failed to write audit log", zap.String("action", entry.Action), zap.Error(err))
	}
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(models.AuditLog)
	if !ok {
		s.logger.Error("unexpected audit payload", zap.String("job_id", job.ID))
		return nil
	}
	if err := s.repo.Create(ctx, &entry); err != nil {
		return fmt.Errorf("persist audit log %s: %w", entry.ID, err)
	}
	return nil
}
