package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/mandalamall/internal/cart/domain"
	pkgdb "github.com/wyfcoding/mandalamall/pkg/db"
	"gorm.io/gorm"
)

type cartRepository struct{ db *gorm.DB }

// NewCartRepository 创建购物车 MySQL 仓储
func NewCartRepository(db *gorm.DB) domain.CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) getDB(ctx context.Context) *gorm.DB {
	return pkgdb.TxFromContext(ctx, r.db).WithContext(ctx)
}

func (r *cartRepository) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.getDB(ctx).Preload("Items").Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCartNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	return r.getDB(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(cart).Error
}

func (r *cartRepository) RemoveItems(ctx context.Context, userID string, itemIDs []uint) error {
	if len(itemIDs) == 0 {
		return nil
	}
	cart, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	return r.getDB(ctx).
		Where("cart_id = ? AND id IN ?", cart.ID, itemIDs).
		Delete(&domain.CartItem{}).Error
}

func (r *cartRepository) DeleteItem(ctx context.Context, userID string, itemID uint) error {
	cart, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	res := r.getDB(ctx).
		Where("cart_id = ? AND id = ?", cart.ID, itemID).
		Delete(&domain.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrCartItemNotFound
	}
	return nil
}

func (r *cartRepository) Delete(ctx context.Context, userID string) error {
	cart, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if err := r.getDB(ctx).Delete(&domain.CartItem{}, "cart_id = ?", cart.ID).Error; err != nil {
		return err
	}
	return r.getDB(ctx).Delete(cart).Error
}
