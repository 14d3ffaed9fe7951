package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/persistence"
	"github.com/spec-kit/auth-service/internal/repository"
)

const productCacheKey = "products:all"

// Cache is the key/value contract the product listing needs from Redis.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// ProductService serves the protected product listing with a best-effort
// read-through cache in front of Postgres.
type ProductService struct {
	products repository.ProductRepository
	cache    Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewProductService builds the service. cache may be nil to disable caching.
func NewProductService(products repository.ProductRepository, cache Cache, cacheTTL time.Duration, logger *zap.Logger) *ProductService {
	return &ProductService{products: products, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// List returns the product catalog. Cache failures fall through to the
// database; the cache is never load-bearing.
func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, productCacheKey); err == nil {
			var products []domain.Product
			if jsonErr := json.Unmarshal([]byte(cached), &products); jsonErr == nil {
				return products, nil
			}
			s.logger.Warn("discarding malformed product cache entry")
		} else if !errors.Is(err, persistence.ErrCacheMiss) {
			s.logger.Warn("product cache read failed", zap.Error(err))
		}
	}

	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(products); err == nil {
			if err := s.cache.Set(ctx, productCacheKey, string(encoded), s.cacheTTL); err != nil {
				s.logger.Warn("product cache write failed", zap.Error(err))
			}
		}
	}

	return products, nil
}
