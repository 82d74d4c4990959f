// Package application 商品目录应用服务
package application

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/mandalamall/internal/catalog/domain"
)

// ProductDTO 商品数据传输对象
type ProductDTO struct {
	ProductID      string          `json:"product_id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	SalePrice      decimal.Decimal `json:"sale_price"`
	EffectivePrice decimal.Decimal `json:"effective_price"`
	Stock          int             `json:"stock"`
	Image          string          `json:"image"`
	Category       string          `json:"category"`
	IsActive       bool            `json:"is_active"`
}

// ProductListDTO 分页商品列表
type ProductListDTO struct {
	Items []*ProductDTO `json:"items"`
	Total int64         `json:"total"`
}

// CatalogApplicationService 商品目录应用服务
type CatalogApplicationService struct {
	products domain.ProductRepository
}

// NewCatalogApplicationService 创建商品目录应用服务
func NewCatalogApplicationService(products domain.ProductRepository) *CatalogApplicationService {
	return &CatalogApplicationService{products: products}
}

func toProductDTO(p *domain.Product) *ProductDTO {
	return &ProductDTO{
		ProductID:      p.ProductID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price,
		SalePrice:      p.SalePrice,
		EffectivePrice: p.EffectivePrice(),
		Stock:          p.Stock,
		Image:          p.Image,
		Category:       p.Category,
		IsActive:       p.IsActive,
	}
}

// GetProduct 获取单个商品
func (s *CatalogApplicationService) GetProduct(ctx context.Context, productID string) (*ProductDTO, error) {
	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	return toProductDTO(product), nil
}

// ListProducts 分页获取商品列表
func (s *CatalogApplicationService) ListProducts(ctx context.Context, category string, limit, offset int) (*ProductListDTO, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	products, total, err := s.products.List(ctx, category, limit, offset)
	if err != nil {
		return nil, err
	}

	items := make([]*ProductDTO, 0, len(products))
	for _, p := range products {
		items = append(items, toProductDTO(p))
	}
	return &ProductListDTO{Items: items, Total: total}, nil
}
