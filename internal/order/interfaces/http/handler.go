package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/mandalamall/internal/order/application"
	"github.com/wyfcoding/mandalamall/internal/order/domain"
	walletdomain "github.com/wyfcoding/mandalamall/internal/wallet/domain"
	"github.com/wyfcoding/mandalamall/pkg/identity"
	"github.com/wyfcoding/mandalamall/pkg/logger"
	"github.com/wyfcoding/mandalamall/pkg/metrics"
	"github.com/wyfcoding/mandalamall/pkg/response"
)

// HTTP 处理器
// 负责处理订单查询与生命周期操作的 HTTP 请求
type OrderHandler struct {
	app     *application.OrderLifecycleService
	metrics *metrics.Metrics
}

// 创建 HTTP 处理器实例
func NewOrderHandler(app *application.OrderLifecycleService, m *metrics.Metrics) *OrderHandler {
	return &OrderHandler{app: app, metrics: m}
}

// 注册路由
func (h *OrderHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/orders")
	{
		api.GET("", h.ListOrders)
		api.GET("/:id", h.GetOrder)
		api.POST("/:id/cancel", h.CancelOrder)
		api.POST("/:id/advance", h.AdvanceOrder)
	}
}

// AdvanceRequest 状态推进请求
type AdvanceRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListOrders 分页获取当前用户订单
func (h *OrderHandler) ListOrders(c *gin.Context) {
	actor, ok := identity.FromRequest(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthenticated", "missing user identity")
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "validation_failed", "invalid limit")
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "validation_failed", "invalid offset")
		return
	}
	status := domain.OrderStatus(c.Query("status"))

	list, err := h.app.ListOrders(c.Request.Context(), actor, status, limit, offset)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to list orders", "user_id", actor.UserID, "error", err)
		response.Error(c, http.StatusInternalServerError, "persistence_failure", "failed to list orders")
		return
	}
	response.Success(c, list)
}

// GetOrder 获取订单详情
func (h *OrderHandler) GetOrder(c *gin.Context) {
	actor, ok := identity.FromRequest(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthenticated", "missing user identity")
		return
	}

	order, err := h.app.GetOrder(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		h.writeOrderError(c, err)
		return
	}
	response.Success(c, order)
}

// CancelOrder 取消订单
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	actor, ok := identity.FromRequest(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthenticated", "missing user identity")
		return
	}

	order, err := h.app.Cancel(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		h.writeOrderError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.OrderCancellationsTotal.Inc()
		if order.IsWalletPaid() {
			h.metrics.WalletCreditsTotal.Inc()
		}
	}
	response.Success(c, order)
}

// AdvanceOrder 管理员推进订单状态
func (h *OrderHandler) AdvanceOrder(c *gin.Context) {
	actor, ok := identity.FromRequest(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthenticated", "missing user identity")
		return
	}

	var req AdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	order, err := h.app.Advance(c.Request.Context(), c.Param("id"), domain.OrderStatus(req.Status), actor)
	if err != nil {
		h.writeOrderError(c, err)
		return
	}
	response.Success(c, order)
}

func (h *OrderHandler) writeOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		response.Error(c, http.StatusNotFound, "order_not_found", "order not found")
	case errors.Is(err, domain.ErrNotOwner), errors.Is(err, application.ErrPermissionDenied):
		response.Error(c, http.StatusForbidden, "permission_denied", "not allowed to operate on this order")
	case errors.Is(err, domain.ErrIllegalTransition):
		response.Error(c, http.StatusConflict, "illegal_transition", "order status does not allow this operation")
	case errors.Is(err, walletdomain.ErrDuplicateTransaction):
		response.Error(c, http.StatusConflict, "duplicate_refund", "order already refunded")
	default:
		logger.Error(c.Request.Context(), "Order operation failed", "order_id", c.Param("id"), "error", err)
		response.Error(c, http.StatusInternalServerError, "persistence_failure", "order operation failed")
	}
}
