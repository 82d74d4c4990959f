// Package domain 购物车领域模型
package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrCartNotFound 购物车不存在
	ErrCartNotFound = errors.New("cart not found")
	// ErrCartItemNotFound 购物车条目不存在
	ErrCartItemNotFound = errors.New("cart item not found")
	// ErrInvalidQuantity 数量必须大于 0
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// Cart 购物车聚合根，每个用户一个
type Cart struct {
	gorm.Model
	UserID string     `gorm:"column:user_id;type:varchar(36);uniqueIndex;not null" json:"user_id"`
	Items  []CartItem `gorm:"foreignKey:CartID" json:"items"`
}

func (Cart) TableName() string { return "carts" }

// CartItem 购物车条目，只记录商品引用与数量
// 价格在展示与结账时按商品当前价实时解析
type CartItem struct {
	gorm.Model
	CartID    uint   `gorm:"column:cart_id;index;not null" json:"cart_id"`
	ProductID string `gorm:"column:product_id;type:varchar(36);not null" json:"product_id"`
	Quantity  int    `gorm:"column:quantity;not null" json:"quantity"`
}

func (CartItem) TableName() string { return "cart_items" }

// NewCart 创建空购物车
func NewCart(userID string) *Cart {
	return &Cart{UserID: userID, Items: []CartItem{}}
}

// AddItem 添加商品；已存在时合并数量
func (c *Cart) AddItem(productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			return nil
		}
	}
	c.Items = append(c.Items, CartItem{ProductID: productID, Quantity: quantity})
	return nil
}

// UpdateQuantity 按条目 ID 覆盖数量
func (c *Cart) UpdateQuantity(itemID uint, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items[i].Quantity = quantity
			return nil
		}
	}
	return ErrCartItemNotFound
}

// RemoveItem 按条目 ID 移除
func (c *Cart) RemoveItem(itemID uint) error {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return ErrCartItemNotFound
}

// FindItems 按条目 ID 集合筛选条目；任一 ID 不存在时返回 ErrCartItemNotFound
func (c *Cart) FindItems(itemIDs []uint) ([]CartItem, error) {
	byID := make(map[uint]CartItem, len(c.Items))
	for _, item := range c.Items {
		byID[item.ID] = item
	}
	selected := make([]CartItem, 0, len(itemIDs))
	for _, id := range itemIDs {
		item, ok := byID[id]
		if !ok {
			return nil, ErrCartItemNotFound
		}
		selected = append(selected, item)
	}
	return selected, nil
}

// CartRepository 购物车仓储接口
type CartRepository interface {
	// GetByUserID 获取用户购物车；不存在时返回 ErrCartNotFound
	GetByUserID(ctx context.Context, userID string) (*Cart, error)
	// Save 保存购物车及其条目
	Save(ctx context.Context, cart *Cart) error
	// RemoveItems 删除指定条目（结账消费后调用）
	RemoveItems(ctx context.Context, userID string, itemIDs []uint) error
	// DeleteItem 删除单个条目
	DeleteItem(ctx context.Context, userID string, itemID uint) error
	// Delete 删除整个购物车
	Delete(ctx context.Context, userID string) error
}
