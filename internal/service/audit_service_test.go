package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vaccination-api/internal/models"
)

type auditStoreStub struct {
	mu      sync.Mutex
	entries []models.AuditLog
	fails   int
}

func (s *auditStoreStub) Create(ctx context.Context, entry *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fails > 0 {
		s.fails--
		return errors.New("insert failed")
	}
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *auditStoreStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func TestAuditServiceWritesInlineWithoutWorkers(t *testing.T) {
	store := &auditStoreStub{}
	svc := NewAuditService(store, AuditQueueConfig{}, nil)

	svc.Record(context.Background(), models.AuditLog{Action: models.AuditActionChildRegister, Resource: "children"})
	require.Equal(t, 1, store.count())
	assert.NotEmpty(t, store.entries[0].ID)
	assert.False(t, store.entries[0].CreatedAt.IsZero())
}

func TestAuditServiceQueuesAndDrainsOnStop(t *testing.T) {
	store := &auditStoreStub{fails: 1}
	svc := NewAuditService(store, AuditQueueConfig{Workers: 2, BufferSize: 16, MaxRetries: 2, RetryDelay: 10 * time.Millisecond}, nil)
	svc.Start(context.Background())

	for i := 0; i < 5; i++ {
		svc.Record(context.Background(), models.AuditLog{Action: models.AuditActionAttend, Resource: "appointments"})
	}

	assert.Eventually(t, func() bool { return store.count() == 5 }, time.Second, 5*time.Millisecond)
	svc.Stop()
}

func TestAuditServiceFallsBackWhenStopped(t *testing.T) {
	store := &auditStoreStub{}
	svc := NewAuditService(store, AuditQueueConfig{Workers: 1}, nil)

	// queue never started
	svc.Record(context.Background(), models.AuditLog{Action: models.AuditActionLinkRequest})
	assert.Equal(t, 1, store.count())

	var nilSvc *AuditService
	nilSvc.Record(context.Background(), models.AuditLog{})
	nilSvc.Stop()
}
