// Package domain 包含订单聚合的领域模型
package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = errors.New("order not found")
	// ErrNotOwner 订单不属于当前用户
	ErrNotOwner = errors.New("order does not belong to user")
	// ErrIllegalTransition 非法状态迁移
	ErrIllegalTransition = errors.New("illegal order status transition")
)

// OrderStatus 订单状态
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus 支付状态
type PaymentStatus string

const (
	PaymentStatusPaid   PaymentStatus = "paid"
	PaymentStatusUnpaid PaymentStatus = "unpaid"
)

// PaymentMethod 支付方式
type PaymentMethod string

const (
	PaymentMethodWallet PaymentMethod = "wallet"
	PaymentMethodCOD    PaymentMethod = "cod"
)

// ValidPaymentMethod 校验支付方式
func ValidPaymentMethod(m PaymentMethod) bool {
	return m == PaymentMethodWallet || m == PaymentMethodCOD
}

// 正向流转只允许相邻推进；取消仅限未发货的订单
var forwardTransitions = map[OrderStatus]OrderStatus{
	OrderStatusPending:    OrderStatusProcessing,
	OrderStatusProcessing: OrderStatusShipped,
	OrderStatusShipped:    OrderStatusDelivered,
}

// ShippingAddress 下单时的地址快照，后续地址变更不影响已有订单
type ShippingAddress struct {
	Recipient  string `gorm:"column:recipient;type:varchar(100)" json:"recipient"`
	Phone      string `gorm:"column:phone;type:varchar(32)" json:"phone"`
	Line1      string `gorm:"column:line1;type:varchar(255)" json:"line1"`
	Line2      string `gorm:"column:line2;type:varchar(255)" json:"line2"`
	City       string `gorm:"column:city;type:varchar(100)" json:"city"`
	Province   string `gorm:"column:province;type:varchar(100)" json:"province"`
	PostalCode string `gorm:"column:postal_code;type:varchar(20)" json:"postal_code"`
}

// Order 订单聚合根
type Order struct {
	gorm.Model
	// 订单 ID (业务主键)
	OrderID string `gorm:"column:order_id;type:varchar(32);uniqueIndex;not null" json:"order_id"`
	// 用户 ID
	UserID string `gorm:"column:user_id;type:varchar(36);index;not null" json:"user_id"`
	// 订单状态
	Status OrderStatus `gorm:"column:status;type:varchar(20);index;not null" json:"status"`
	// 商品快照行
	Items []OrderItem `gorm:"foreignKey:OrderRef;references:OrderID" json:"items"`
	// 商品小计
	Subtotal decimal.Decimal `gorm:"column:subtotal;type:decimal(20,2);not null" json:"subtotal"`
	// 优惠金额
	Discount decimal.Decimal `gorm:"column:discount;type:decimal(20,2);not null;default:0" json:"discount"`
	// 税费
	Tax decimal.Decimal `gorm:"column:tax;type:decimal(20,2);not null;default:0" json:"tax"`
	// 运费
	Shipping decimal.Decimal `gorm:"column:shipping;type:decimal(20,2);not null;default:0" json:"shipping"`
	// 应付总额 = subtotal - discount + tax + shipping
	Total decimal.Decimal `gorm:"column:total;type:decimal(20,2);not null" json:"total"`
	// 支付方式
	PaymentMethod PaymentMethod `gorm:"column:payment_method;type:varchar(16);not null" json:"payment_method"`
	// 支付状态
	PaymentStatus PaymentStatus `gorm:"column:payment_status;type:varchar(16);not null" json:"payment_status"`
	// 收货地址快照
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`
}

func (Order) TableName() string { return "orders" }

// OrderItem 商品快照行，记录成交时的价格与数量
type OrderItem struct {
	gorm.Model
	OrderRef  string          `gorm:"column:order_ref;type:varchar(32);index;not null" json:"order_id"`
	ProductID string          `gorm:"column:product_id;type:varchar(36);not null" json:"product_id"`
	Name      string          `gorm:"column:name;type:varchar(255);not null" json:"name"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:decimal(20,2);not null" json:"unit_price"`
	SalePrice decimal.Decimal `gorm:"column:sale_price;type:decimal(20,2);not null;default:0" json:"sale_price"`
	Quantity  int             `gorm:"column:quantity;not null" json:"quantity"`
	Image     string          `gorm:"column:image;type:varchar(512)" json:"image"`
}

func (OrderItem) TableName() string { return "order_items" }

// LineTotal 行小计
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CanTransitionTo 判断能否迁移到目标状态
// 正向只允许相邻推进，取消只允许发货前
func (o *Order) CanTransitionTo(next OrderStatus) bool {
	if next == OrderStatusCancelled {
		return o.CanBeCancelled()
	}
	return forwardTransitions[o.Status] == next
}

// CanBeCancelled 是否可以取消
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusProcessing
}

// IsTerminal 是否终态
func (o *Order) IsTerminal() bool {
	switch o.Status {
	case OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// IsWalletPaid 是否已通过钱包支付
func (o *Order) IsWalletPaid() bool {
	return o.PaymentMethod == PaymentMethodWallet && o.PaymentStatus == PaymentStatusPaid
}

// OrderRepository 订单仓储接口
type OrderRepository interface {
	// Create 在一个事务内写入订单及其快照行
	Create(ctx context.Context, order *Order) error
	// Get 获取订单（含快照行）；不存在时返回 ErrOrderNotFound
	Get(ctx context.Context, orderID string) (*Order, error)
	// ListByUser 分页获取用户订单，status 为空时不过滤
	ListByUser(ctx context.Context, userID string, status OrderStatus, limit, offset int) ([]*Order, int64, error)
	// UpdateStatus 条件更新状态：当前状态必须在 from 集合内
	// 返回 ErrIllegalTransition 表示没有任何行被更新（并发竞争或状态不符）
	UpdateStatus(ctx context.Context, orderID string, from []OrderStatus, to OrderStatus) error
}
