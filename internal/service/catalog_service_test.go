package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vaccination-api/internal/models"
	"github.com/noah-isme/vaccination-api/internal/repository"
)

type catalogStoreStub struct {
	vaccines []models.CatalogVaccine
	err      error
	calls    int
}

func (s *catalogStoreStub) ListVaccines(ctx context.Context) ([]models.CatalogVaccine, error) {
	s.calls++
	return s.vaccines, s.err
}

func newRedisCache(t *testing.T, metrics *MetricsService) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheService(repository.NewCacheRepository(client, "vax:"), metrics, time.Minute, nil, true), srv
}

func TestCatalogServiceCachesVaccines(t *testing.T) {
	metrics := NewMetricsService()
	cache, srv := newRedisCache(t, metrics)
	store := &catalogStoreStub{vaccines: sampleCatalog()}
	svc := NewCatalogService(store, cache, 5*time.Minute, nil)

	first, err := svc.List(context.Background())
	require.NoError(t, err)
	second, err := svc.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, store.calls)
	assert.Equal(t, first, second)
	assert.True(t, srv.Exists("vax:"+catalogCacheKey))
	assert.Equal(t, 5*time.Minute, srv.TTL("vax:"+catalogCacheKey))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 0.5, testutil.ToFloat64(metrics.cacheHitRatio))

	svc.Refresh(context.Background())
	assert.False(t, srv.Exists("vax:"+catalogCacheKey))
	_, err = svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
}

func TestCatalogServiceWithoutCache(t *testing.T) {
	store := &catalogStoreStub{}
	svc := NewCatalogService(store, nil, time.Minute, nil)

	vaccines, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, vaccines)
	_, _ = svc.List(context.Background())
	assert.Equal(t, 2, store.calls)
	svc.Refresh(context.Background())
}

func TestCatalogServiceSurvivesRedisOutage(t *testing.T) {
	cache, srv := newRedisCache(t, nil)
	store := &catalogStoreStub{vaccines: sampleCatalog()}
	svc := NewCatalogService(store, cache, time.Minute, nil)
	srv.Close()

	vaccines, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, vaccines, 3)
}

func TestCatalogServiceStorageError(t *testing.T) {
	store := &catalogStoreStub{err: errors.New("timeout")}
	svc := NewCatalogService(store, nil, time.Minute, nil)

	_, err := svc.List(context.Background())
	assert.Error(t, err)
}
