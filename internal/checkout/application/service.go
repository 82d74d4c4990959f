package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	orderdomain "github.com/wyfcoding/mandalamall/internal/order/domain"
	"github.com/wyfcoding/mandalamall/pkg/idgen"
	"github.com/wyfcoding/mandalamall/pkg/logger"
)

var (
	// ErrEmptySelection 没有勾选任何条目
	ErrEmptySelection = errors.New("no cart items selected")
	// ErrItemUnavailable 商品不存在或已下架
	ErrItemUnavailable = errors.New("item unavailable")
	// ErrInsufficientStock 库存不足
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInsufficientBalance 钱包余额不足
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrAddressNotFound 地址不存在或不属于当前用户
	ErrAddressNotFound = errors.New("address not found")
	// ErrInvalidPaymentMethod 不支持的支付方式
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	// ErrInvalidCharge 优惠、税费、运费不得为负
	ErrInvalidCharge = errors.New("charge components must be non-negative")
	// ErrPersistence 订单落库失败（补偿已执行）
	ErrPersistence = errors.New("failed to persist order")
)

// PlaceOrderRequest 下单请求
type PlaceOrderRequest struct {
	UserID          string
	SelectedItemIDs []uint
	AddressID       string
	PaymentMethod   orderdomain.PaymentMethod
	Discount        decimal.Decimal
	Tax             decimal.Decimal
	Shipping        decimal.Decimal
}

// CheckoutService 结账编排服务
// 按固定顺序推进：校验 → 锁库存 → 扣款 → 落单 → 清购物车；
// 任何一步失败都把前面的副作用按相反顺序补偿掉
type CheckoutService struct {
	cart    CartStore
	catalog ProductCatalog
	address AddressBook
	wallet  WalletLedger
	orders  OrderStore
	events  orderdomain.EventPublisher
	tx      TxManager
}

// NewCheckoutService 创建结账服务
func NewCheckoutService(cart CartStore, catalog ProductCatalog, address AddressBook, wallet WalletLedger, orders OrderStore, events orderdomain.EventPublisher, tx TxManager) *CheckoutService {
	return &CheckoutService{
		cart:    cart,
		catalog: catalog,
		address: address,
		wallet:  wallet,
		orders:  orders,
		events:  events,
		tx:      tx,
	}
}

// 已扣减的库存，用于补偿回补
type reservation struct {
	productID string
	quantity  int
}

// PlaceOrder 执行结账
func (s *CheckoutService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*orderdomain.Order, error) {
	if len(req.SelectedItemIDs) == 0 {
		return nil, ErrEmptySelection
	}
	if !orderdomain.ValidPaymentMethod(req.PaymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}
	if req.Discount.IsNegative() || req.Tax.IsNegative() || req.Shipping.IsNegative() {
		return nil, ErrInvalidCharge
	}

	lines, err := s.cart.SelectedLines(ctx, req.UserID, req.SelectedItemIDs)
	if err != nil {
		return nil, err
	}

	shipping, err := s.address.Get(ctx, req.AddressID)
	if err != nil {
		return nil, err
	}
	// 不属于当前用户的地址按不存在处理
	if shipping == nil || shipping.OwnerID != req.UserID {
		return nil, ErrAddressNotFound
	}

	// 解析商品并定价；全部通过后才开始动库存
	items := make([]orderdomain.OrderItem, 0, len(lines))
	subtotal := decimal.Zero
	for _, line := range lines {
		product, perr := s.catalog.Get(ctx, line.ProductID)
		if perr != nil {
			return nil, perr
		}
		if product == nil || !product.IsActive {
			return nil, fmt.Errorf("%w: product %s", ErrItemUnavailable, line.ProductID)
		}
		item := orderdomain.OrderItem{
			ProductID: product.ProductID,
			Name:      product.Name,
			UnitPrice: product.EffectivePrice,
			SalePrice: product.SalePrice,
			Quantity:  line.Quantity,
			Image:     product.Image,
		}
		items = append(items, item)
		subtotal = subtotal.Add(item.LineTotal())
	}

	total := subtotal.Sub(req.Discount).Add(req.Tax).Add(req.Shipping)
	if total.IsNegative() {
		return nil, ErrInvalidCharge
	}

	// 逐个锁库存，失败时回补已锁的部分
	reserved := make([]reservation, 0, len(items))
	for _, item := range items {
		if rerr := s.catalog.ReserveStock(ctx, item.ProductID, item.Quantity); rerr != nil {
			s.releaseReservations(ctx, reserved)
			return nil, rerr
		}
		reserved = append(reserved, reservation{productID: item.ProductID, quantity: item.Quantity})
	}

	orderID := idgen.GenPrefixedID("ORD")
	paymentStatus := orderdomain.PaymentStatusUnpaid
	debited := false

	if req.PaymentMethod == orderdomain.PaymentMethodWallet {
		if derr := s.wallet.DebitForOrder(ctx, req.UserID, orderID, total); derr != nil {
			s.releaseReservations(ctx, reserved)
			return nil, derr
		}
		paymentStatus = orderdomain.PaymentStatusPaid
		debited = true
	}

	order := &orderdomain.Order{
		OrderID:         orderID,
		UserID:          req.UserID,
		Status:          orderdomain.OrderStatusPending,
		Items:           items,
		Subtotal:        subtotal,
		Discount:        req.Discount,
		Tax:             req.Tax,
		Shipping:        req.Shipping,
		Total:           total,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   paymentStatus,
		ShippingAddress: shipping.Address,
	}

	err = s.tx.WithTx(ctx, func(txCtx context.Context) error {
		if cerr := s.orders.Create(txCtx, order); cerr != nil {
			return cerr
		}
		return s.events.PublishOrderPlaced(txCtx, orderdomain.OrderPlacedEvent{
			OrderID:       orderID,
			UserID:        req.UserID,
			Total:         total,
			PaymentMethod: req.PaymentMethod,
			PaymentStatus: paymentStatus,
			ItemCount:     len(items),
			OccurredOn:    time.Now(),
		})
	})
	if err != nil {
		// 落单失败：先退款再回补库存，与正向顺序相反
		logger.Error(ctx, "Order persistence failed, compensating",
			"order_id", orderID, "user_id", req.UserID, "debited", debited, "error", err)
		if debited {
			if cerr := s.wallet.CreditForOrder(ctx, req.UserID, orderID, total); cerr != nil {
				logger.Error(ctx, "Compensating credit failed, wallet needs reconciliation",
					"order_id", orderID, "user_id", req.UserID, "amount", total.String(), "error", cerr)
			}
		}
		s.releaseReservations(ctx, reserved)
		return nil, fmt.Errorf("%w: %s", ErrPersistence, err)
	}

	// 订单已经存在，清不掉购物车只记日志
	if rerr := s.cart.RemoveLines(ctx, req.UserID, req.SelectedItemIDs); rerr != nil {
		logger.Warn(ctx, "Failed to remove consumed cart items",
			"order_id", orderID, "user_id", req.UserID, "error", rerr)
	}

	logger.Info(ctx, "Order placed",
		"order_id", orderID, "user_id", req.UserID, "total", total.String(),
		"payment_method", req.PaymentMethod, "payment_status", paymentStatus)
	return order, nil
}

func (s *CheckoutService) releaseReservations(ctx context.Context, reserved []reservation) {
	for i := len(reserved) - 1; i >= 0; i-- {
		r := reserved[i]
		if err := s.catalog.ReleaseStock(ctx, r.productID, r.quantity); err != nil {
			logger.Error(ctx, "Stock release failed, inventory needs reconciliation",
				"product_id", r.productID, "quantity", r.quantity, "error", err)
		}
	}
}
