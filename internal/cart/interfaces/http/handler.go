package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/mandalamall/internal/cart/application"
	"github.com/wyfcoding/mandalamall/internal/cart/domain"
	"github.com/wyfcoding/mandalamall/pkg/identity"
	"github.com/wyfcoding/mandalamall/pkg/logger"
	"github.com/wyfcoding/mandalamall/pkg/response"
)

// HTTP 处理器
// 负责处理购物车相关的 HTTP 请求
type CartHandler struct {
	app *application.CartApplicationService
}

// 创建 HTTP 处理器实例
func NewCartHandler(app *application.CartApplicationService) *CartHandler {
	return &CartHandler{app: app}
}

// 注册路由
func (h *CartHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/cart")
	{
		api.GET("", h.GetCart)
		api.POST("/items", h.AddItem)
		api.PUT("/items/:id", h.UpdateItem)
		api.DELETE("/items/:id", h.RemoveItem)
	}
}

// AddItemRequest 添加商品请求
type AddItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// UpdateItemRequest 修改数量请求
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

// GetCart 获取当前用户购物车
func (h *CartHandler) GetCart(c *gin.Context) {
	actor, ok := identity.FromRequest(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthenticated", "missing user identity")
		return
	}

	cart, err := h.app.GetCart(c.Request.Context(), actor.UserID)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to get cart", "user_id", actor.UserID, "error", err)
		response.Error(c, http.StatusInternalServerError, "persistence_failure", "failed to get cart")
		return
	}
	response.Success(c, cart)
}

// AddItem 添加商品到购物车
func (h *CartHandler) AddItem(c *gin.Context) {
	actor, ok := identity.FromRequest(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthenticated", "missing user identity")
		return
	}

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	err := h.app.AddItem(c.Request.Context(), actor.UserID, req.ProductID, req.Quantity)
	if err != nil {
		h.writeCartError(c, actor.UserID, err)
		return
	}
	response.Success(c, gin.H{"product_id": req.ProductID, "quantity": req.Quantity})
}

// UpdateItem 修改条目数量
func (h *CartHandler) UpdateItem(c *gin.Context) {
	actor, ok := identity.FromRequest(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthenticated", "missing user identity")
		return
	}

	itemID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "validation_failed", "invalid item id")
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	if err := h.app.UpdateItemQuantity(c.Request.Context(), actor.UserID, uint(itemID), req.Quantity); err != nil {
		h.writeCartError(c, actor.UserID, err)
		return
	}
	response.Success(c, gin.H{"item_id": itemID, "quantity": req.Quantity})
}

// RemoveItem 移除条目
func (h *CartHandler) RemoveItem(c *gin.Context) {
	actor, ok := identity.FromRequest(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthenticated", "missing user identity")
		return
	}

	itemID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "validation_failed", "invalid item id")
		return
	}

	if err := h.app.RemoveItem(c.Request.Context(), actor.UserID, uint(itemID)); err != nil {
		h.writeCartError(c, actor.UserID, err)
		return
	}
	response.Success(c, gin.H{"item_id": itemID})
}

func (h *CartHandler) writeCartError(c *gin.Context, userID string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		response.Error(c, http.StatusBadRequest, "validation_failed", "quantity must be positive")
	case errors.Is(err, domain.ErrCartNotFound):
		response.Error(c, http.StatusNotFound, "cart_not_found", "cart not found")
	case errors.Is(err, domain.ErrCartItemNotFound):
		response.Error(c, http.StatusNotFound, "cart_item_not_found", "cart item not found")
	case errors.Is(err, application.ErrProductUnavailable):
		response.Error(c, http.StatusConflict, "product_unavailable", "product is not available")
	case errors.Is(err, application.ErrInsufficientStock):
		response.Error(c, http.StatusConflict, "insufficient_stock", err.Error())
	default:
		logger.Error(c.Request.Context(), "Cart operation failed", "user_id", userID, "error", err)
		response.Error(c, http.StatusInternalServerError, "persistence_failure", "cart operation failed")
	}
}
