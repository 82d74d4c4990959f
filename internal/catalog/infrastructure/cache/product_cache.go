// Package cache 提供带 Redis 读穿缓存的商品仓储装饰器
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wyfcoding/mandalamall/internal/catalog/domain"
	pkgcache "github.com/wyfcoding/mandalamall/pkg/cache"
	"github.com/wyfcoding/mandalamall/pkg/logger"
)

const (
	productKeyPrefix = "mall:product:"
	productTTL       = 5 * time.Minute
)

// CachedProductRepository 在 MySQL 仓储之上叠加 Redis 缓存
// 读走缓存，写操作直接落库并失效对应缓存键
type CachedProductRepository struct {
	inner domain.ProductRepository
	cache *pkgcache.RedisCache
}

// NewCachedProductRepository 创建带缓存的商品仓储
func NewCachedProductRepository(inner domain.ProductRepository, cache *pkgcache.RedisCache) *CachedProductRepository {
	return &CachedProductRepository{inner: inner, cache: cache}
}

func productKey(productID string) string {
	return fmt.Sprintf("%s%s", productKeyPrefix, productID)
}

// Get 优先读缓存，未命中时回源并回填
func (r *CachedProductRepository) Get(ctx context.Context, productID string) (*domain.Product, error) {
	var cached domain.Product
	err := r.cache.GetJSON(ctx, productKey(productID), &cached)
	if err == nil && cached.ProductID != "" {
		return &cached, nil
	}
	if err != nil && !errors.Is(err, pkgcache.ErrCacheMiss) {
		// 缓存故障时直接回源
		logger.Warn(ctx, "Product cache read failed, falling back to database", "product_id", productID, "error", err)
	}

	product, err := r.inner.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	if err := r.cache.SetJSON(ctx, productKey(productID), product, productTTL); err != nil {
		logger.Warn(ctx, "Product cache write failed", "product_id", productID, "error", err)
	}
	return product, nil
}

// List 列表查询不走缓存
func (r *CachedProductRepository) List(ctx context.Context, category string, limit, offset int) ([]*domain.Product, int64, error) {
	return r.inner.List(ctx, category, limit, offset)
}

// Save 落库并失效缓存
func (r *CachedProductRepository) Save(ctx context.Context, product *domain.Product) error {
	if err := r.inner.Save(ctx, product); err != nil {
		return err
	}
	r.invalidate(ctx, product.ProductID)
	return nil
}

// ReserveStock 扣减库存并失效缓存
func (r *CachedProductRepository) ReserveStock(ctx context.Context, productID string, quantity int) error {
	if err := r.inner.ReserveStock(ctx, productID, quantity); err != nil {
		return err
	}
	r.invalidate(ctx, productID)
	return nil
}

// ReleaseStock 回补库存并失效缓存
func (r *CachedProductRepository) ReleaseStock(ctx context.Context, productID string, quantity int) error {
	if err := r.inner.ReleaseStock(ctx, productID, quantity); err != nil {
		return err
	}
	r.invalidate(ctx, productID)
	return nil
}

func (r *CachedProductRepository) invalidate(ctx context.Context, productID string) {
	if err := r.cache.Delete(ctx, productKey(productID)); err != nil {
		logger.Warn(ctx, "Product cache invalidation failed", "product_id", productID, "error", err)
	}
}
