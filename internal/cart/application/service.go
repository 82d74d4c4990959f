// Package application 购物车应用服务
package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/mandalamall/internal/cart/domain"
	"github.com/wyfcoding/mandalamall/pkg/logger"
)

// ErrProductUnavailable 商品不存在或已下架
var ErrProductUnavailable = errors.New("product unavailable")

// ErrInsufficientStock 商品库存不足
var ErrInsufficientStock = errors.New("insufficient stock")

// CatalogProduct 购物车视角需要的商品信息
type CatalogProduct struct {
	ProductID      string
	Name           string
	EffectivePrice decimal.Decimal
	Stock          int
	Image          string
	IsActive       bool
}

// ProductCatalog 商品目录端口
type ProductCatalog interface {
	GetProduct(ctx context.Context, productID string) (*CatalogProduct, error)
}

// CartItemDTO 购物车条目视图，带实时商品信息
type CartItemDTO struct {
	ItemID    uint            `json:"item_id"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	Image     string          `json:"image"`
	Available bool            `json:"available"`
}

// CartDTO 购物车视图
type CartDTO struct {
	UserID string          `json:"user_id"`
	Items  []*CartItemDTO  `json:"items"`
	Total  decimal.Decimal `json:"total"`
}

// CartApplicationService 购物车应用服务
type CartApplicationService struct {
	carts   domain.CartRepository
	catalog ProductCatalog
}

// NewCartApplicationService 创建购物车应用服务
func NewCartApplicationService(carts domain.CartRepository, catalog ProductCatalog) *CartApplicationService {
	return &CartApplicationService{carts: carts, catalog: catalog}
}

// GetCart 获取购物车，按当前商品价重新计价
// 购物车尚不存在时返回空购物车视图
func (s *CartApplicationService) GetCart(ctx context.Context, userID string) (*CartDTO, error) {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if errors.Is(err, domain.ErrCartNotFound) {
		return &CartDTO{UserID: userID, Items: []*CartItemDTO{}, Total: decimal.Zero}, nil
	}
	if err != nil {
		return nil, err
	}

	dto := &CartDTO{UserID: userID, Items: make([]*CartItemDTO, 0, len(cart.Items)), Total: decimal.Zero}
	for _, item := range cart.Items {
		view := &CartItemDTO{
			ItemID:    item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
		product, perr := s.catalog.GetProduct(ctx, item.ProductID)
		if perr != nil || product == nil || !product.IsActive {
			// 商品已下架或不存在，条目保留但标记不可用
			logger.Warn(ctx, "Cart item refers to unavailable product", "user_id", userID, "product_id", item.ProductID)
			dto.Items = append(dto.Items, view)
			continue
		}
		view.Name = product.Name
		view.UnitPrice = product.EffectivePrice
		view.Image = product.Image
		view.Available = product.Stock >= item.Quantity
		view.LineTotal = product.EffectivePrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		dto.Total = dto.Total.Add(view.LineTotal)
		dto.Items = append(dto.Items, view)
	}
	return dto, nil
}

// AddItem 向购物车添加商品；校验商品上架且库存足够
func (s *CartApplicationService) AddItem(ctx context.Context, userID, productID string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil || !product.IsActive {
		return ErrProductUnavailable
	}

	cart, err := s.carts.GetByUserID(ctx, userID)
	if errors.Is(err, domain.ErrCartNotFound) {
		cart = domain.NewCart(userID)
	} else if err != nil {
		return err
	}

	// 校验合并后的总量不超过库存
	existing := 0
	for _, item := range cart.Items {
		if item.ProductID == productID {
			existing = item.Quantity
			break
		}
	}
	if existing+quantity > product.Stock {
		return fmt.Errorf("%w: product %s has %d in stock", ErrInsufficientStock, productID, product.Stock)
	}

	if err := cart.AddItem(productID, quantity); err != nil {
		return err
	}
	return s.carts.Save(ctx, cart)
}

// UpdateItemQuantity 覆盖条目数量
func (s *CartApplicationService) UpdateItemQuantity(ctx context.Context, userID string, itemID uint, quantity int) error {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if err := cart.UpdateQuantity(itemID, quantity); err != nil {
		return err
	}
	return s.carts.Save(ctx, cart)
}

// RemoveItem 移除条目
func (s *CartApplicationService) RemoveItem(ctx context.Context, userID string, itemID uint) error {
	return s.carts.DeleteItem(ctx, userID, itemID)
}

// ClearCart 清空购物车
func (s *CartApplicationService) ClearCart(ctx context.Context, userID string) error {
	err := s.carts.Delete(ctx, userID)
	if errors.Is(err, domain.ErrCartNotFound) {
		return nil
	}
	return err
}
