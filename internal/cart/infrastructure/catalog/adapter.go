// Package catalog 将商品目录上下文适配为购物车的商品端口
package catalog

import (
	"context"
	"errors"

	"github.com/wyfcoding/mandalamall/internal/cart/application"
	catalogdomain "github.com/wyfcoding/mandalamall/internal/catalog/domain"
)

// ProductCatalogAdapter 基于商品目录仓储的进程内适配器
type ProductCatalogAdapter struct {
	products catalogdomain.ProductRepository
}

// NewProductCatalogAdapter 创建商品目录适配器
func NewProductCatalogAdapter(products catalogdomain.ProductRepository) *ProductCatalogAdapter {
	return &ProductCatalogAdapter{products: products}
}

// GetProduct 查询商品；不存在时返回 nil 而非错误，由调用方判定可用性
func (a *ProductCatalogAdapter) GetProduct(ctx context.Context, productID string) (*application.CatalogProduct, error) {
	product, err := a.products.Get(ctx, productID)
	if errors.Is(err, catalogdomain.ErrProductNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &application.CatalogProduct{
		ProductID:      product.ProductID,
		Name:           product.Name,
		EffectivePrice: product.EffectivePrice(),
		Stock:          product.Stock,
		Image:          product.Image,
		IsActive:       product.IsActive,
	}, nil
}
