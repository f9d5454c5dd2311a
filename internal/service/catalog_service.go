package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/vaccination-api/internal/models"
)

const catalogCacheKey = "catalog:vaccines"

type catalogStore interface {
	ListVaccines(ctx context.Context) ([]models.CatalogVaccine, error)
}

// CatalogService serves the read-only vaccine catalog, cached when enabled.
type CatalogService struct {
	repo   catalogStore
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewCatalogService builds the service. cache may be nil.
func NewCatalogService(repo catalogStore, cache *CacheService, ttl time.Duration, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// List returns every vaccine with its dose offsets.
func (s *CatalogService) List(ctx context.Context) ([]models.CatalogVaccine, error) {
	vaccines, _, err := s.Lookup(ctx)
	return vaccines, err
}

// Lookup is List that also reports whether the cache served the result.
func (s *CatalogService) Lookup(ctx context.Context) ([]models.CatalogVaccine, bool, error) {
	var cached []models.CatalogVaccine
	if s.cache.Get(ctx, catalogCacheKey, &cached) {
		return cached, true, nil
	}

	vaccines, err := s.repo.ListVaccines(ctx)
	if err != nil {
		return nil, false, internal(err, "failed to load vaccine catalog")
	}
	if vaccines == nil {
		vaccines = []models.CatalogVaccine{}
	}
	s.cache.Set(ctx, catalogCacheKey, vaccines, s.ttl)
	return vaccines, false, nil
}

// Refresh drops the cached catalog.
func (s *CatalogService) Refresh(ctx context.Context) {
	s.cache.Invalidate(ctx, catalogCacheKey)
}
