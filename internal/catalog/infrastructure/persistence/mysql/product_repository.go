// Package mysql 提供商品仓储接口的 MySQL GORM 实现
package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/wyfcoding/mandalamall/internal/catalog/domain"
	"github.com/wyfcoding/mandalamall/pkg/db"
	"gorm.io/gorm"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储实例
func NewProductRepository(database *gorm.DB) domain.ProductRepository {
	return &productRepository{db: database}
}

func (r *productRepository) getDB(ctx context.Context) *gorm.DB {
	return db.TxFromContext(ctx, r.db)
}

// Get 实现 domain.ProductRepository.Get
func (r *productRepository) Get(ctx context.Context, productID string) (*domain.Product, error) {
	var product domain.Product
	if err := r.getDB(ctx).WithContext(ctx).Where("product_id = ?", productID).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

// List 实现 domain.ProductRepository.List
func (r *productRepository) List(ctx context.Context, category string, limit, offset int) ([]*domain.Product, int64, error) {
	var products []*domain.Product
	var total int64

	query := r.getDB(ctx).WithContext(ctx).Model(&domain.Product{}).Where("is_active = ?", true)
	if category != "" {
		query = query.Where("category = ?", category)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}
	if err := query.Order("id DESC").Limit(limit).Offset(offset).Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	return products, total, nil
}

// Save 实现 domain.ProductRepository.Save
func (r *productRepository) Save(ctx context.Context, product *domain.Product) error {
	if err := r.getDB(ctx).WithContext(ctx).Save(product).Error; err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}

// ReserveStock 实现 domain.ProductRepository.ReserveStock
// 单条条件 UPDATE 保证并发下库存不会扣成负数
func (r *productRepository) ReserveStock(ctx context.Context, productID string, quantity int) error {
	result := r.getDB(ctx).WithContext(ctx).Model(&domain.Product{}).
		Where("product_id = ? AND stock >= ?", productID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return fmt.Errorf("failed to reserve stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// 区分商品不存在与库存不足
		var count int64
		if err := r.getDB(ctx).WithContext(ctx).Model(&domain.Product{}).
			Where("product_id = ?", productID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to reserve stock: %w", err)
		}
		if count == 0 {
			return domain.ErrProductNotFound
		}
		return domain.ErrInsufficientStock
	}
	return nil
}

// ReleaseStock 实现 domain.ProductRepository.ReleaseStock
func (r *productRepository) ReleaseStock(ctx context.Context, productID string, quantity int) error {
	result := r.getDB(ctx).WithContext(ctx).Model(&domain.Product{}).
		Where("product_id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
	if result.Error != nil {
		return fmt.Errorf("failed to release stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
