// Package application 结账编排服务
package application

import (
	"context"

	"github.com/shopspring/decimal"
	orderdomain "github.com/wyfcoding/mandalamall/internal/order/domain"
)

// CartLine 结账视角的购物车条目
type CartLine struct {
	ItemID    uint
	ProductID string
	Quantity  int
}

// CartStore 购物车端口
type CartStore interface {
	// SelectedLines 解析用户勾选的条目；任一条目不存在时报错
	SelectedLines(ctx context.Context, userID string, itemIDs []uint) ([]CartLine, error)
	// RemoveLines 下单成功后移除已消费的条目
	RemoveLines(ctx context.Context, userID string, itemIDs []uint) error
}

// CatalogItem 结账视角的商品信息
type CatalogItem struct {
	ProductID      string
	Name           string
	Price          decimal.Decimal
	SalePrice      decimal.Decimal
	EffectivePrice decimal.Decimal
	Image          string
	IsActive       bool
}

// ProductCatalog 商品目录端口
// 适配器负责把目录上下文的错误转译成本包的哨兵错误
type ProductCatalog interface {
	// Get 查询商品；不存在时返回 nil
	Get(ctx context.Context, productID string) (*CatalogItem, error)
	// ReserveStock 原子扣减库存；不足时返回 ErrInsufficientStock
	ReserveStock(ctx context.Context, productID string, quantity int) error
	// ReleaseStock 回补库存（补偿路径）
	ReleaseStock(ctx context.Context, productID string, quantity int) error
}

// ShippingInfo 地址快照及其归属
type ShippingInfo struct {
	OwnerID string
	Address orderdomain.ShippingAddress
}

// AddressBook 地址端口
type AddressBook interface {
	Get(ctx context.Context, addressID string) (*ShippingInfo, error)
}

// WalletLedger 钱包端口
// 余额不足时 DebitForOrder 返回 ErrInsufficientBalance（由适配器转译）
type WalletLedger interface {
	DebitForOrder(ctx context.Context, userID, orderID string, amount decimal.Decimal) error
	CreditForOrder(ctx context.Context, userID, orderID string, amount decimal.Decimal) error
}

// OrderStore 订单端口
type OrderStore interface {
	Create(ctx context.Context, order *orderdomain.Order) error
}

// TxManager 事务边界
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
