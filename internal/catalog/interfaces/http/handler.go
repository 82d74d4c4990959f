package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/mandalamall/internal/catalog/application"
	"github.com/wyfcoding/mandalamall/internal/catalog/domain"
	"github.com/wyfcoding/mandalamall/pkg/logger"
	"github.com/wyfcoding/mandalamall/pkg/response"
)

// HTTP 处理器
// 负责处理商品目录相关的 HTTP 请求
type CatalogHandler struct {
	app *application.CatalogApplicationService
}

// 创建 HTTP 处理器实例
func NewCatalogHandler(app *application.CatalogApplicationService) *CatalogHandler {
	return &CatalogHandler{app: app}
}

// 注册路由
func (h *CatalogHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/products")
	{
		api.GET("", h.ListProducts)
		api.GET("/:id", h.GetProduct)
	}
}

// GetProduct 获取商品详情
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.Error(c, http.StatusBadRequest, "validation_failed", "product id is required")
		return
	}

	product, err := h.app.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			response.Error(c, http.StatusNotFound, "product_not_found", "product not found")
			return
		}
		logger.Error(c.Request.Context(), "Failed to get product", "product_id", id, "error", err)
		response.Error(c, http.StatusInternalServerError, "persistence_failure", "failed to get product")
		return
	}

	response.Success(c, product)
}

// ListProducts 分页获取商品列表
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	category := c.Query("category")

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

	list, err := h.app.ListProducts(c.Request.Context(), category, limit, offset)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to list products", "error", err)
		response.Error(c, http.StatusInternalServerError, "persistence_failure", "failed to list products")
		return
	}

	response.Success(c, list)
}
