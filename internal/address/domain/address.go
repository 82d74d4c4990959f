// Package domain 收货地址领域模型
package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrAddressNotFound 地址不存在
var ErrAddressNotFound = errors.New("address not found")

// Address 收货地址
type Address struct {
	gorm.Model
	AddressID  string `gorm:"column:address_id;type:varchar(32);uniqueIndex;not null" json:"address_id"`
	UserID     string `gorm:"column:user_id;type:varchar(36);index;not null" json:"user_id"`
	Recipient  string `gorm:"column:recipient;type:varchar(100);not null" json:"recipient"`
	Phone      string `gorm:"column:phone;type:varchar(32);not null" json:"phone"`
	Line1      string `gorm:"column:line1;type:varchar(255);not null" json:"line1"`
	Line2      string `gorm:"column:line2;type:varchar(255)" json:"line2"`
	City       string `gorm:"column:city;type:varchar(100);not null" json:"city"`
	Province   string `gorm:"column:province;type:varchar(100)" json:"province"`
	PostalCode string `gorm:"column:postal_code;type:varchar(20)" json:"postal_code"`
}

func (Address) TableName() string { return "addresses" }

// AddressRepository 地址仓储接口
type AddressRepository interface {
	// Get 按地址 ID 获取；不存在时返回 ErrAddressNotFound
	Get(ctx context.Context, addressID string) (*Address, error)
	// ListByUser 获取用户全部地址
	ListByUser(ctx context.Context, userID string) ([]*Address, error)
	// Save 保存或更新地址
	Save(ctx context.Context, address *Address) error
}
