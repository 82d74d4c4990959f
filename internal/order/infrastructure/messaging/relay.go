package messaging

import (
	"context"
	"time"

	"github.com/wyfcoding/mandalamall/pkg/logger"
	"github.com/wyfcoding/mandalamall/pkg/metrics"
	"github.com/wyfcoding/mandalamall/pkg/mq"
	"gorm.io/gorm"
)

// 单条消息的最大投递尝试次数，超过后标记 failed 等待人工处理
const maxDeliveryAttempts = 10

// OutboxRelay 轮询 outbox 表并把待投递事件发到 Kafka
type OutboxRelay struct {
	db           *gorm.DB
	producer     *mq.KafkaProducer
	topic        string
	pollInterval time.Duration
	batchSize    int
	metrics      *metrics.Metrics
}

// NewOutboxRelay 创建 Outbox 中继
func NewOutboxRelay(db *gorm.DB, producer *mq.KafkaProducer, topic string, pollInterval time.Duration, batchSize int, m *metrics.Metrics) *OutboxRelay {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxRelay{
		db:           db,
		producer:     producer,
		topic:        topic,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		metrics:      m,
	}
}

// Start 启动轮询循环，ctx 取消后返回
func (r *OutboxRelay) Start(ctx context.Context) {
	logger.Info(ctx, "Outbox relay started", "topic", r.topic, "poll_interval", r.pollInterval.String())
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Outbox relay stopped")
			return
		case <-ticker.C:
			if err := r.drain(ctx); err != nil {
				logger.Error(ctx, "Outbox drain failed", "error", err)
			}
		}
	}
}

// drain 取一批待投递消息逐条发送
func (r *OutboxRelay) drain(ctx context.Context) error {
	var messages []*OutboxMessage
	err := r.db.WithContext(ctx).
		Where("status = ?", OutboxStatusPending).
		Order("id ASC").
		Limit(r.batchSize).
		Find(&messages).Error
	if err != nil {
		return err
	}

	if r.metrics != nil {
		var pending int64
		if err := r.db.WithContext(ctx).Model(&OutboxMessage{}).
			Where("status = ?", OutboxStatusPending).Count(&pending).Error; err == nil {
			r.metrics.OutboxPendingMessages.Set(float64(pending))
		}
	}

	for _, msg := range messages {
		if err := r.deliver(ctx, msg); err != nil {
			logger.Warn(ctx, "Outbox message delivery failed",
				"message_id", msg.ID, "event_type", msg.EventType, "attempts", msg.Attempts+1, "error", err)
			r.markFailure(ctx, msg)
			continue
		}
		r.markSent(ctx, msg)
	}
	return nil
}

func (r *OutboxRelay) deliver(ctx context.Context, msg *OutboxMessage) error {
	return r.producer.SendRaw(ctx, r.topic, msg.EventKey, []byte(msg.Payload))
}

func (r *OutboxRelay) markSent(ctx context.Context, msg *OutboxMessage) {
	now := time.Now()
	err := r.db.WithContext(ctx).Model(msg).Updates(map[string]any{
		"status":   OutboxStatusSent,
		"attempts": msg.Attempts + 1,
		"sent_at":  &now,
	}).Error
	if err != nil {
		logger.Error(ctx, "Failed to mark outbox message sent", "message_id", msg.ID, "error", err)
	}
}

func (r *OutboxRelay) markFailure(ctx context.Context, msg *OutboxMessage) {
	updates := map[string]any{"attempts": msg.Attempts + 1}
	if msg.Attempts+1 >= maxDeliveryAttempts {
		updates["status"] = OutboxStatusFailed
	}
	if err := r.db.WithContext(ctx).Model(msg).Updates(updates).Error; err != nil {
		logger.Error(ctx, "Failed to record outbox delivery failure", "message_id", msg.ID, "error", err)
	}
}
