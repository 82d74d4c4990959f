package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	cartdomain "github.com/wyfcoding/mandalamall/internal/cart/domain"
	"github.com/wyfcoding/mandalamall/internal/checkout/application"
	orderdomain "github.com/wyfcoding/mandalamall/internal/order/domain"
	"github.com/wyfcoding/mandalamall/pkg/identity"
	"github.com/wyfcoding/mandalamall/pkg/logger"
	"github.com/wyfcoding/mandalamall/pkg/metrics"
	"github.com/wyfcoding/mandalamall/pkg/response"
)

// HTTP 处理器
// 负责处理结账请求并把编排结果映射成统一错误码
type CheckoutHandler struct {
	app     *application.CheckoutService
	metrics *metrics.Metrics
}

// 创建 HTTP 处理器实例
func NewCheckoutHandler(app *application.CheckoutService, m *metrics.Metrics) *CheckoutHandler {
	return &CheckoutHandler{app: app, metrics: m}
}

// 注册路由
func (h *CheckoutHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/api/v1/checkout", h.Checkout)
}

// CheckoutRequest 结账请求
type CheckoutRequest struct {
	SelectedItemIDs []uint          `json:"selected_item_ids" binding:"required"`
	AddressID       string          `json:"address_id" binding:"required"`
	PaymentMethod   string          `json:"payment_method" binding:"required"`
	Discount        decimal.Decimal `json:"discount"`
	Tax             decimal.Decimal `json:"tax"`
	Shipping        decimal.Decimal `json:"shipping"`
}

// Checkout 执行结账下单
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	actor, ok := identity.FromRequest(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthenticated", "missing user identity")
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	order, err := h.app.PlaceOrder(c.Request.Context(), application.PlaceOrderRequest{
		UserID:          actor.UserID,
		SelectedItemIDs: req.SelectedItemIDs,
		AddressID:       req.AddressID,
		PaymentMethod:   orderdomain.PaymentMethod(req.PaymentMethod),
		Discount:        req.Discount,
		Tax:             req.Tax,
		Shipping:        req.Shipping,
	})
	if err != nil {
		h.writeCheckoutError(c, actor.UserID, err)
		return
	}

	if h.metrics != nil {
		h.metrics.CheckoutsTotal.Inc()
		h.metrics.OrdersTotal.Inc()
		if order.PaymentMethod == orderdomain.PaymentMethodWallet {
			h.metrics.WalletDebitsTotal.Inc()
		}
	}
	response.Created(c, order)
}

func (h *CheckoutHandler) writeCheckoutError(c *gin.Context, userID string, err error) {
	code, status, message := "persistence_failure", http.StatusInternalServerError, "checkout failed"
	switch {
	case errors.Is(err, application.ErrEmptySelection):
		code, status, message = "empty_selection", http.StatusBadRequest, "no cart items selected"
	case errors.Is(err, application.ErrInvalidPaymentMethod):
		code, status, message = "invalid_payment_method", http.StatusBadRequest, "unsupported payment method"
	case errors.Is(err, application.ErrInvalidCharge):
		code, status, message = "validation_failed", http.StatusBadRequest, "discount, tax and shipping must be non-negative"
	case errors.Is(err, cartdomain.ErrCartNotFound):
		code, status, message = "cart_not_found", http.StatusNotFound, "cart not found"
	case errors.Is(err, cartdomain.ErrCartItemNotFound):
		code, status, message = "cart_item_not_found", http.StatusNotFound, "selected cart item not found"
	case errors.Is(err, application.ErrAddressNotFound):
		code, status, message = "address_not_found", http.StatusNotFound, "address not found"
	case errors.Is(err, application.ErrItemUnavailable):
		code, status, message = "item_unavailable", http.StatusConflict, err.Error()
	case errors.Is(err, application.ErrInsufficientStock):
		code, status, message = "insufficient_stock", http.StatusConflict, err.Error()
	case errors.Is(err, application.ErrInsufficientBalance):
		code, status, message = "insufficient_balance", http.StatusPaymentRequired, "wallet balance insufficient"
	default:
		logger.Error(c.Request.Context(), "Checkout failed", "user_id", userID, "error", err)
	}

	if h.metrics != nil {
		h.metrics.CheckoutFailuresTotal.WithLabelValues(code).Inc()
	}
	response.Error(c, status, code, message)
}
