// Package adapters 把各上下文的仓储与服务适配成结账端口
package adapters

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/mandalamall/internal/address/domain"
	cartdomain "github.com/wyfcoding/mandalamall/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/mandalamall/internal/catalog/domain"
	"github.com/wyfcoding/mandalamall/internal/checkout/application"
	orderdomain "github.com/wyfcoding/mandalamall/internal/order/domain"
	walletapp "github.com/wyfcoding/mandalamall/internal/wallet/application"
	walletdomain "github.com/wyfcoding/mandalamall/internal/wallet/domain"
)

// CartAdapter 购物车端口适配器
type CartAdapter struct {
	carts cartdomain.CartRepository
}

// NewCartAdapter 创建购物车适配器
func NewCartAdapter(carts cartdomain.CartRepository) *CartAdapter {
	return &CartAdapter{carts: carts}
}

// SelectedLines 解析勾选条目
func (a *CartAdapter) SelectedLines(ctx context.Context, userID string, itemIDs []uint) ([]application.CartLine, error) {
	cart, err := a.carts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := cart.FindItems(itemIDs)
	if err != nil {
		return nil, err
	}
	lines := make([]application.CartLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, application.CartLine{
			ItemID:    item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return lines, nil
}

// RemoveLines 移除已消费条目
func (a *CartAdapter) RemoveLines(ctx context.Context, userID string, itemIDs []uint) error {
	return a.carts.RemoveItems(ctx, userID, itemIDs)
}

// CatalogAdapter 商品目录端口适配器
type CatalogAdapter struct {
	products catalogdomain.ProductRepository
}

// NewCatalogAdapter 创建商品目录适配器
func NewCatalogAdapter(products catalogdomain.ProductRepository) *CatalogAdapter {
	return &CatalogAdapter{products: products}
}

// Get 查询商品；不存在时返回 nil
func (a *CatalogAdapter) Get(ctx context.Context, productID string) (*application.CatalogItem, error) {
	product, err := a.products.Get(ctx, productID)
	if errors.Is(err, catalogdomain.ErrProductNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &application.CatalogItem{
		ProductID:      product.ProductID,
		Name:           product.Name,
		Price:          product.Price,
		SalePrice:      product.SalePrice,
		EffectivePrice: product.EffectivePrice(),
		Image:          product.Image,
		IsActive:       product.IsActive,
	}, nil
}

// ReserveStock 扣减库存并转译错误
func (a *CatalogAdapter) ReserveStock(ctx context.Context, productID string, quantity int) error {
	err := a.products.ReserveStock(ctx, productID, quantity)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, catalogdomain.ErrInsufficientStock):
		return fmt.Errorf("%w: product %s", application.ErrInsufficientStock, productID)
	case errors.Is(err, catalogdomain.ErrProductNotFound):
		return fmt.Errorf("%w: product %s", application.ErrItemUnavailable, productID)
	default:
		return err
	}
}

// ReleaseStock 回补库存
func (a *CatalogAdapter) ReleaseStock(ctx context.Context, productID string, quantity int) error {
	return a.products.ReleaseStock(ctx, productID, quantity)
}

// AddressAdapter 地址端口适配器
type AddressAdapter struct {
	addresses domain.AddressRepository
}

// NewAddressAdapter 创建地址适配器
func NewAddressAdapter(addresses domain.AddressRepository) *AddressAdapter {
	return &AddressAdapter{addresses: addresses}
}

// Get 查询地址快照
func (a *AddressAdapter) Get(ctx context.Context, addressID string) (*application.ShippingInfo, error) {
	address, err := a.addresses.Get(ctx, addressID)
	if errors.Is(err, domain.ErrAddressNotFound) {
		return nil, application.ErrAddressNotFound
	}
	if err != nil {
		return nil, err
	}
	return &application.ShippingInfo{
		OwnerID: address.UserID,
		Address: toShippingAddress(address),
	}, nil
}

func toShippingAddress(a *domain.Address) orderdomain.ShippingAddress {
	return orderdomain.ShippingAddress{
		Recipient:  a.Recipient,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		Province:   a.Province,
		PostalCode: a.PostalCode,
	}
}

// WalletAdapter 钱包端口适配器，转译余额不足错误
type WalletAdapter struct {
	wallet *walletapp.WalletApplicationService
}

// NewWalletAdapter 创建钱包适配器
func NewWalletAdapter(wallet *walletapp.WalletApplicationService) *WalletAdapter {
	return &WalletAdapter{wallet: wallet}
}

// DebitForOrder 扣款
func (a *WalletAdapter) DebitForOrder(ctx context.Context, userID, orderID string, amount decimal.Decimal) error {
	err := a.wallet.DebitForOrder(ctx, userID, orderID, amount)
	if errors.Is(err, walletdomain.ErrInsufficientBalance) {
		return fmt.Errorf("%w: order total %s", application.ErrInsufficientBalance, amount.String())
	}
	return err
}

// CreditForOrder 退款
func (a *WalletAdapter) CreditForOrder(ctx context.Context, userID, orderID string, amount decimal.Decimal) error {
	return a.wallet.CreditForOrder(ctx, userID, orderID, amount)
}
