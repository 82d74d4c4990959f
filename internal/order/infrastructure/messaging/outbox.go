// Package messaging 订单事件的 Outbox 发布实现
// 事件与业务状态同事务写入 outbox 表，由中继异步投递到 Kafka
package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/wyfcoding/mandalamall/internal/order/domain"
	pkgdb "github.com/wyfcoding/mandalamall/pkg/db"
	"gorm.io/gorm"
)

// Outbox 消息状态
const (
	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
	OutboxStatusFailed  = "failed"
)

// OutboxMessage 待投递的领域事件
type OutboxMessage struct {
	gorm.Model
	EventType string     `gorm:"column:event_type;type:varchar(64);not null"`
	EventKey  string     `gorm:"column:event_key;type:varchar(64);index;not null"`
	Payload   string     `gorm:"column:payload;type:text;not null"`
	Status    string     `gorm:"column:status;type:varchar(16);index;not null;default:pending"`
	Attempts  int        `gorm:"column:attempts;not null;default:0"`
	SentAt    *time.Time `gorm:"column:sent_at"`
}

func (OutboxMessage) TableName() string { return "order_outbox_messages" }

// OutboxPublisher 把领域事件写进 outbox 表
// 调用方在事务内发布时，事件与状态变更一起提交或一起回滚
type OutboxPublisher struct {
	db *gorm.DB
}

// NewOutboxPublisher 创建 Outbox 发布者
func NewOutboxPublisher(db *gorm.DB) *OutboxPublisher {
	return &OutboxPublisher{db: db}
}

func (p *OutboxPublisher) publish(ctx context.Context, eventType, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := &OutboxMessage{
		EventType: eventType,
		EventKey:  key,
		Payload:   string(payload),
		Status:    OutboxStatusPending,
	}
	return pkgdb.TxFromContext(ctx, p.db).WithContext(ctx).Create(msg).Error
}

// PublishOrderPlaced 发布订单创建事件
func (p *OutboxPublisher) PublishOrderPlaced(ctx context.Context, event domain.OrderPlacedEvent) error {
	return p.publish(ctx, domain.EventTypeOrderPlaced, event.OrderID, event)
}

// PublishOrderStatusChanged 发布订单状态变更事件
func (p *OutboxPublisher) PublishOrderStatusChanged(ctx context.Context, event domain.OrderStatusChangedEvent) error {
	return p.publish(ctx, domain.EventTypeOrderStatusChanged, event.OrderID, event)
}

// PublishOrderCancelled 发布订单取消事件
func (p *OutboxPublisher) PublishOrderCancelled(ctx context.Context, event domain.OrderCancelledEvent) error {
	return p.publish(ctx, domain.EventTypeOrderCancelled, event.OrderID, event)
}
