package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// 事件类型
const (
	EventTypeOrderPlaced        = "order.placed"
	EventTypeOrderStatusChanged = "order.status_changed"
	EventTypeOrderCancelled     = "order.cancelled"
)

// OrderPlacedEvent 订单创建事件
type OrderPlacedEvent struct {
	OrderID       string          `json:"order_id"`
	UserID        string          `json:"user_id"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	ItemCount     int             `json:"item_count"`
	OccurredOn    time.Time       `json:"occurred_on"`
}

// OrderStatusChangedEvent 订单状态变更事件
type OrderStatusChangedEvent struct {
	OrderID    string      `json:"order_id"`
	UserID     string      `json:"user_id"`
	OldStatus  OrderStatus `json:"old_status"`
	NewStatus  OrderStatus `json:"new_status"`
	OccurredOn time.Time   `json:"occurred_on"`
}

// OrderCancelledEvent 订单取消事件
// 非钱包支付的退款由下游退款流程消费此事件异步处理
type OrderCancelledEvent struct {
	OrderID        string          `json:"order_id"`
	UserID         string          `json:"user_id"`
	Total          decimal.Decimal `json:"total"`
	PaymentMethod  PaymentMethod   `json:"payment_method"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	WalletRefunded bool            `json:"wallet_refunded"`
	OccurredOn     time.Time       `json:"occurred_on"`
}

// EventPublisher 事件发布者接口
// 实现方应保证事件与状态变更同事务落盘（Outbox 模式）
type EventPublisher interface {
	// PublishOrderPlaced 发布订单创建事件
	PublishOrderPlaced(ctx context.Context, event OrderPlacedEvent) error
	// PublishOrderStatusChanged 发布订单状态变更事件
	PublishOrderStatusChanged(ctx context.Context, event OrderStatusChangedEvent) error
	// PublishOrderCancelled 发布订单取消事件
	PublishOrderCancelled(ctx context.Context, event OrderCancelledEvent) error
}
