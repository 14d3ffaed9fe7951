package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/persistence"
)

type fakeProductRepo struct {
	products []domain.Product
	err      error
	calls    int
}

func (f *fakeProductRepo) List(context.Context) ([]domain.Product, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

type fakeCache struct {
	entries map[string]string
	getErr  error
	setErr  error
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	val, ok := f.entries[key]
	if !ok {
		return "", persistence.ErrCacheMiss
	}
	return val, nil
}

func (f *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[key] = value
	return nil
}

var sampleProducts = []domain.Product{
	{ID: 1, Code: "PRD-1", Name: "Widget", Quantity: 3, UnitPrice: 9.99},
	{ID: 2, Code: "PRD-2", Name: "Gadget", Quantity: 5, UnitPrice: 24.50},
}

func TestProductService_List_CacheMissPopulatesCache(t *testing.T) {
	t.Parallel()

	repo := &fakeProductRepo{products: sampleProducts}
	cache := newFakeCache()
	svc := NewProductService(repo, cache, time.Minute, zap.NewNop())

	got, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleProducts, got)
	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, 1, cache.sets)

	var cached []domain.Product
	require.NoError(t, json.Unmarshal([]byte(cache.entries[productCacheKey]), &cached))
	assert.Equal(t, sampleProducts, cached)
}

func TestProductService_List_CacheHitSkipsRepository(t *testing.T) {
	t.Parallel()

	repo := &fakeProductRepo{products: sampleProducts}
	cache := newFakeCache()
	encoded, err := json.Marshal(sampleProducts)
	require.NoError(t, err)
	cache.entries[productCacheKey] = string(encoded)

	svc := NewProductService(repo, cache, time.Minute, zap.NewNop())

	got, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleProducts, got)
	assert.Zero(t, repo.calls)
}

func TestProductService_List_CacheFailureFallsThrough(t *testing.T) {
	t.Parallel()

	repo := &fakeProductRepo{products: sampleProducts}
	cache := newFakeCache()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")

	svc := NewProductService(repo, cache, time.Minute, zap.NewNop())

	got, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleProducts, got)
	assert.Equal(t, 1, repo.calls)
}

func TestProductService_List_MalformedCacheEntryIgnored(t *testing.T) {
	t.Parallel()

	repo := &fakeProductRepo{products: sampleProducts}
	cache := newFakeCache()
	cache.entries[productCacheKey] = "{not json"

	svc := NewProductService(repo, cache, time.Minute, zap.NewNop())

	got, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleProducts, got)
	assert.Equal(t, 1, repo.calls)
}

func TestProductService_List_NilCache(t *testing.T) {
	t.Parallel()

	repo := &fakeProductRepo{products: sampleProducts}
	svc := NewProductService(repo, nil, time.Minute, zap.NewNop())

	got, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleProducts, got)
}

func TestProductService_List_RepositoryError(t *testing.T) {
	t.Parallel()

	repo := &fakeProductRepo{err: errors.New("boom")}
	svc := NewProductService(repo, newFakeCache(), time.Minute, zap.NewNop())

	_, err := svc.List(context.Background())
	require.Error(t, err)
}
