// Package domain 包含商品目录的领域模型
package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrProductNotFound 商品不存在
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock 库存不足
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Product 商品实体
type Product struct {
	gorm.Model
	// 商品 ID (业务主键)，全局唯一
	ProductID string `gorm:"column:product_id;type:varchar(32);uniqueIndex;not null" json:"product_id"`
	// 商品名称
	Name string `gorm:"column:name;type:varchar(255);not null" json:"name"`
	// 商品描述
	Description string `gorm:"column:description;type:text" json:"description"`
	// 标价
	Price decimal.Decimal `gorm:"column:price;type:decimal(20,2);not null" json:"price"`
	// 促销价，为 0 表示无促销
	SalePrice decimal.Decimal `gorm:"column:sale_price;type:decimal(20,2);default:0;not null" json:"sale_price"`
	// 库存数量
	Stock int `gorm:"column:stock;not null;default:0" json:"stock"`
	// 主图地址
	Image string `gorm:"column:image;type:varchar(512)" json:"image"`
	// 分类
	Category string `gorm:"column:category;type:varchar(100);index" json:"category"`
	// 是否上架
	IsActive bool `gorm:"column:is_active;not null;default:true" json:"is_active"`
}

// TableName 指定表名
func (Product) TableName() string { return "products" }

// HasSale 是否存在有效促销价
func (p *Product) HasSale() bool {
	return p.SalePrice.IsPositive() && p.SalePrice.LessThan(p.Price)
}

// EffectivePrice 实际成交价：有效促销价优先，否则取标价
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.HasSale() {
		return p.SalePrice
	}
	return p.Price
}

// ProductRepository 商品仓储接口
type ProductRepository interface {
	// Get 根据商品 ID 获取商品
	Get(ctx context.Context, productID string) (*Product, error)
	// List 分页获取商品列表，category 为空时不过滤
	List(ctx context.Context, category string, limit, offset int) ([]*Product, int64, error)
	// Save 保存或更新商品
	Save(ctx context.Context, product *Product) error
	// ReserveStock 原子扣减库存；库存不足时返回 ErrInsufficientStock
	ReserveStock(ctx context.Context, productID string, quantity int) error
	// ReleaseStock 原子回补库存（结账补偿或取消订单时使用）
	ReleaseStock(ctx context.Context, productID string, quantity int) error
}
