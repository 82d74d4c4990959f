// Package application 订单生命周期应用服务
package application

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/mandalamall/internal/order/domain"
	"github.com/wyfcoding/mandalamall/pkg/identity"
	"github.com/wyfcoding/mandalamall/pkg/logger"
)

// ErrPermissionDenied 调用者无权操作该订单
var ErrPermissionDenied = errors.New("permission denied")

// WalletLedger 钱包端口，取消订单时用于退款
type WalletLedger interface {
	CreditForOrder(ctx context.Context, userID, orderID string, amount decimal.Decimal) error
}

// StockReleaser 库存端口，取消订单时回补库存
type StockReleaser interface {
	ReleaseStock(ctx context.Context, productID string, quantity int) error
}

// TxManager 事务边界
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderListDTO 分页订单列表
type OrderListDTO struct {
	Items []*domain.Order `json:"items"`
	Total int64           `json:"total"`
}

// OrderLifecycleService 订单生命周期应用服务
// 状态推进与取消都以条件更新为准绳，天然拒绝并发重复操作
type OrderLifecycleService struct {
	orders domain.OrderRepository
	wallet WalletLedger
	stock  StockReleaser
	events domain.EventPublisher
	tx     TxManager
}

// NewOrderLifecycleService 创建订单生命周期服务
func NewOrderLifecycleService(orders domain.OrderRepository, wallet WalletLedger, stock StockReleaser, events domain.EventPublisher, tx TxManager) *OrderLifecycleService {
	return &OrderLifecycleService{
		orders: orders,
		wallet: wallet,
		stock:  stock,
		events: events,
		tx:     tx,
	}
}

// GetOrder 获取订单；非管理员只能看自己的
func (s *OrderLifecycleService) GetOrder(ctx context.Context, orderID string, actor identity.Actor) (*domain.Order, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && order.UserID != actor.UserID {
		return nil, domain.ErrNotOwner
	}
	return order, nil
}

// ListOrders 分页获取当前用户订单
func (s *OrderLifecycleService) ListOrders(ctx context.Context, actor identity.Actor, status domain.OrderStatus, limit, offset int) (*OrderListDTO, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	orders, total, err := s.orders.ListByUser(ctx, actor.UserID, status, limit, offset)
	if err != nil {
		return nil, err
	}
	return &OrderListDTO{Items: orders, Total: total}, nil
}

// Advance 管理员推进订单状态，只允许相邻正向迁移
func (s *OrderLifecycleService) Advance(ctx context.Context, orderID string, next domain.OrderStatus, actor identity.Actor) (*domain.Order, error) {
	if !actor.Admin {
		return nil, ErrPermissionDenied
	}
	if next == domain.OrderStatusCancelled {
		// 取消走 Cancel，带退款与库存回补
		return nil, domain.ErrIllegalTransition
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.CanTransitionTo(next) {
		return nil, domain.ErrIllegalTransition
	}
	oldStatus := order.Status

	err = s.tx.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.UpdateStatus(txCtx, orderID, []domain.OrderStatus{oldStatus}, next); err != nil {
			return err
		}
		return s.events.PublishOrderStatusChanged(txCtx, domain.OrderStatusChangedEvent{
			OrderID:    orderID,
			UserID:     order.UserID,
			OldStatus:  oldStatus,
			NewStatus:  next,
			OccurredOn: time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Order status advanced", "order_id", orderID, "from", oldStatus, "to", next)
	order.Status = next
	return order, nil
}

// Cancel 取消订单
// 条件状态翻转、钱包退款、库存回补与取消事件在同一个事务内完成；
// 并发或重复取消被条件更新拒绝，钱包退款不可能发生第二次
func (s *OrderLifecycleService) Cancel(ctx context.Context, orderID string, actor identity.Actor) (*domain.Order, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && order.UserID != actor.UserID {
		return nil, domain.ErrNotOwner
	}
	if !order.CanBeCancelled() {
		return nil, domain.ErrIllegalTransition
	}
	oldStatus := order.Status
	walletRefund := order.IsWalletPaid()

	err = s.tx.WithTx(ctx, func(txCtx context.Context) error {
		cancellable := []domain.OrderStatus{domain.OrderStatusPending, domain.OrderStatusProcessing}
		if err := s.orders.UpdateStatus(txCtx, orderID, cancellable, domain.OrderStatusCancelled); err != nil {
			return err
		}

		if walletRefund {
			if err := s.wallet.CreditForOrder(txCtx, order.UserID, orderID, order.Total); err != nil {
				return err
			}
		}

		for _, item := range order.Items {
			if err := s.stock.ReleaseStock(txCtx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		return s.events.PublishOrderCancelled(txCtx, domain.OrderCancelledEvent{
			OrderID:        orderID,
			UserID:         order.UserID,
			Total:          order.Total,
			PaymentMethod:  order.PaymentMethod,
			PaymentStatus:  order.PaymentStatus,
			WalletRefunded: walletRefund,
			OccurredOn:     time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Order cancelled",
		"order_id", orderID, "user_id", order.UserID, "from", oldStatus, "wallet_refunded", walletRefund)
	order.Status = domain.OrderStatusCancelled
	return order, nil
}
