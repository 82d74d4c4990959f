package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/mandalamall/internal/address/domain"
	pkgdb "github.com/wyfcoding/mandalamall/pkg/db"
	"gorm.io/gorm"
)

type addressRepository struct{ db *gorm.DB }

// NewAddressRepository 创建地址 MySQL 仓储
func NewAddressRepository(db *gorm.DB) domain.AddressRepository {
	return &addressRepository{db: db}
}

func (r *addressRepository) getDB(ctx context.Context) *gorm.DB {
	return pkgdb.TxFromContext(ctx, r.db).WithContext(ctx)
}

func (r *addressRepository) Get(ctx context.Context, addressID string) (*domain.Address, error) {
	var address domain.Address
	err := r.getDB(ctx).Where("address_id = ?", addressID).First(&address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAddressNotFound
	}
	if err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *addressRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Address, error) {
	var addresses []*domain.Address
	err := r.getDB(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&addresses).Error
	if err != nil {
		return nil, err
	}
	return addresses, nil
}

func (r *addressRepository) Save(ctx context.Context, address *domain.Address) error {
	return r.getDB(ctx).Save(address).Error
}
