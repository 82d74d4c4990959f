package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/mandalamall/internal/wallet/application"
	"github.com/wyfcoding/mandalamall/internal/wallet/domain"
	"github.com/wyfcoding/mandalamall/pkg/identity"
	"github.com/wyfcoding/mandalamall/pkg/logger"
	"github.com/wyfcoding/mandalamall/pkg/response"
)

// HTTP 处理器
// 负责处理钱包相关的 HTTP 请求
type WalletHandler struct {
	app *application.WalletApplicationService
}

// 创建 HTTP 处理器实例
func NewWalletHandler(app *application.WalletApplicationService) *WalletHandler {
	return &WalletHandler{app: app}
}

// 注册路由
func (h *WalletHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/wallet")
	{
		api.GET("", h.GetBalance)
		api.POST("/deposit", h.Deposit)
		api.GET("/transactions", h.ListTransactions)
	}
}

// DepositRequest 充值请求
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// GetBalance 查询余额
func (h *WalletHandler) GetBalance(c *gin.Context) {
	actor, ok := identity.FromRequest(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthenticated", "missing user identity")
		return
	}

	wallet, err := h.app.GetBalance(c.Request.Context(), actor.UserID)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to get wallet balance", "user_id", actor.UserID, "error", err)
		response.Error(c, http.StatusInternalServerError, "persistence_failure", "failed to get wallet")
		return
	}
	response.Success(c, wallet)
}

// Deposit 充值
func (h *WalletHandler) Deposit(c *gin.Context) {
	actor, ok := identity.FromRequest(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthenticated", "missing user identity")
		return
	}

	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	wallet, err := h.app.Deposit(c.Request.Context(), actor.UserID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidAmount):
			response.Error(c, http.StatusBadRequest, "validation_failed", "amount must be positive")
		case errors.Is(err, application.ErrConcurrentModification):
			response.Error(c, http.StatusConflict, "wallet_busy", "wallet busy, please retry")
		default:
			logger.Error(c.Request.Context(), "Deposit failed", "user_id", actor.UserID, "error", err)
			response.Error(c, http.StatusInternalServerError, "persistence_failure", "deposit failed")
		}
		return
	}
	response.Success(c, wallet)
}

// ListTransactions 分页查询流水
func (h *WalletHandler) ListTransactions(c *gin.Context) {
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

	list, err := h.app.ListTransactions(c.Request.Context(), actor.UserID, limit, offset)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to list wallet transactions", "user_id", actor.UserID, "error", err)
		response.Error(c, http.StatusInternalServerError, "persistence_failure", "failed to list transactions")
		return
	}
	response.Success(c, list)
}
