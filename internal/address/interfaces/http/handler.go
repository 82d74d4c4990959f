package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/mandalamall/internal/address/domain"
	"github.com/wyfcoding/mandalamall/pkg/idgen"
	"github.com/wyfcoding/mandalamall/pkg/identity"
	"github.com/wyfcoding/mandalamall/pkg/logger"
	"github.com/wyfcoding/mandalamall/pkg/response"
)

// HTTP 处理器
// 地址上下文足够薄，处理器直接依赖仓储
type AddressHandler struct {
	addresses domain.AddressRepository
}

// 创建 HTTP 处理器实例
func NewAddressHandler(addresses domain.AddressRepository) *AddressHandler {
	return &AddressHandler{addresses: addresses}
}

// 注册路由
func (h *AddressHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/addresses")
	{
		api.GET("", h.ListAddresses)
		api.POST("", h.CreateAddress)
	}
}

// CreateAddressRequest 创建地址请求
type CreateAddressRequest struct {
	Recipient  string `json:"recipient" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" binding:"required"`
	Province   string `json:"province"`
	PostalCode string `json:"postal_code"`
}

// ListAddresses 获取当前用户地址列表
func (h *AddressHandler) ListAddresses(c *gin.Context) {
	actor, ok := identity.FromRequest(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthenticated", "missing user identity")
		return
	}

	addresses, err := h.addresses.ListByUser(c.Request.Context(), actor.UserID)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to list addresses", "user_id", actor.UserID, "error", err)
		response.Error(c, http.StatusInternalServerError, "persistence_failure", "failed to list addresses")
		return
	}
	response.Success(c, addresses)
}

// CreateAddress 创建地址
func (h *AddressHandler) CreateAddress(c *gin.Context) {
	actor, ok := identity.FromRequest(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthenticated", "missing user identity")
		return
	}

	var req CreateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	address := &domain.Address{
		AddressID:  idgen.GenPrefixedID("ADR"),
		UserID:     actor.UserID,
		Recipient:  req.Recipient,
		Phone:      req.Phone,
		Line1:      req.Line1,
		Line2:      req.Line2,
		City:       req.City,
		Province:   req.Province,
		PostalCode: req.PostalCode,
	}
	if err := h.addresses.Save(c.Request.Context(), address); err != nil {
		logger.Error(c.Request.Context(), "Failed to create address", "user_id", actor.UserID, "error", err)
		response.Error(c, http.StatusInternalServerError, "persistence_failure", "failed to create address")
		return
	}
	response.Created(c, address)
}
