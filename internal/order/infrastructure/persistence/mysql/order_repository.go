package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/mandalamall/internal/order/domain"
	pkgdb "github.com/wyfcoding/mandalamall/pkg/db"
	"gorm.io/gorm"
)

type orderRepository struct{ db *gorm.DB }

// NewOrderRepository 创建订单 MySQL 仓储
func NewOrderRepository(db *gorm.DB) domain.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) getDB(ctx context.Context) *gorm.DB {
	return pkgdb.TxFromContext(ctx, r.db).WithContext(ctx)
}

// Create 写入订单及其快照行
// 调用方不在事务内时单独起一个，保证订单头与快照行原子落库
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	if tx := pkgdb.TxFromContext(ctx, nil); tx != nil {
		return tx.WithContext(ctx).Create(order).Error
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
}

func (r *orderRepository) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	err := r.getDB(ctx).Preload("Items").Where("order_id = ?", orderID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID string, status domain.OrderStatus, limit, offset int) ([]*domain.Order, int64, error) {
	db := r.getDB(ctx).Model(&domain.Order{}).Where("user_id = ?", userID)
	if status != "" {
		db = db.Where("status = ?", status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []*domain.Order
	err := db.Preload("Items").Order("created_at DESC").Limit(limit).Offset(offset).Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// UpdateStatus 条件状态更新
// 一条 UPDATE 同时充当状态机守卫与并发裁决：没有行被更新即为非法迁移
func (r *orderRepository) UpdateStatus(ctx context.Context, orderID string, from []domain.OrderStatus, to domain.OrderStatus) error {
	result := r.getDB(ctx).Model(&domain.Order{}).
		Where("order_id = ? AND status IN ?", orderID, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// 区分订单不存在与状态不符
		var count int64
		if err := r.getDB(ctx).Model(&domain.Order{}).Where("order_id = ?", orderID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrOrderNotFound
		}
		return domain.ErrIllegalTransition
	}
	return nil
}
