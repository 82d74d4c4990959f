package application

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/mandalamall/internal/cart/domain"
)

type fakeCartRepository struct {
	carts  map[string]*domain.Cart
	nextID uint
}

func newFakeCartRepository() *fakeCartRepository {
	return &fakeCartRepository{carts: make(map[string]*domain.Cart), nextID: 1}
}

func (f *fakeCartRepository) GetByUserID(_ context.Context, userID string) (*domain.Cart, error) {
	cart, ok := f.carts[userID]
	if !ok {
		return nil, domain.ErrCartNotFound
	}
	return cart, nil
}

func (f *fakeCartRepository) Save(_ context.Context, cart *domain.Cart) error {
	for i := range cart.Items {
		if cart.Items[i].ID == 0 {
			cart.Items[i].ID = f.nextID
			f.nextID++
		}
	}
	f.carts[cart.UserID] = cart
	return nil
}

func (f *fakeCartRepository) RemoveItems(_ context.Context, userID string, itemIDs []uint) error {
	cart, ok := f.carts[userID]
	if !ok {
		return domain.ErrCartNotFound
	}
	drop := make(map[uint]bool, len(itemIDs))
	for _, id := range itemIDs {
		drop[id] = true
	}
	var kept []domain.CartItem
	for _, item := range cart.Items {
		if !drop[item.ID] {
			kept = append(kept, item)
		}
	}
	cart.Items = kept
	return nil
}

func (f *fakeCartRepository) DeleteItem(_ context.Context, userID string, itemID uint) error {
	return f.RemoveItems(context.Background(), userID, []uint{itemID})
}

func (f *fakeCartRepository) Delete(_ context.Context, userID string) error {
	if _, ok := f.carts[userID]; !ok {
		return domain.ErrCartNotFound
	}
	delete(f.carts, userID)
	return nil
}

type fakeCatalog struct {
	products map[string]*CatalogProduct
}

func (f *fakeCatalog) GetProduct(_ context.Context, productID string) (*CatalogProduct, error) {
	return f.products[productID], nil
}

func newCartService() (*CartApplicationService, *fakeCartRepository, *fakeCatalog) {
	repo := newFakeCartRepository()
	catalog := &fakeCatalog{products: map[string]*CatalogProduct{
		"PRD-1": {ProductID: "PRD-1", Name: "Handwoven Rug", EffectivePrice: decimal.NewFromInt(200000), Stock: 10, IsActive: true},
		"PRD-2": {ProductID: "PRD-2", Name: "Brass Bowl", EffectivePrice: decimal.NewFromInt(100000), Stock: 2, IsActive: true},
	}}
	return NewCartApplicationService(repo, catalog), repo, catalog
}

func TestAddItemCreatesCart(t *testing.T) {
	svc, repo, _ := newCartService()

	require.NoError(t, svc.AddItem(context.Background(), "u1", "PRD-1", 2))

	cart, err := repo.GetByUserID(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestAddItemMergesQuantity(t *testing.T) {
	svc, repo, _ := newCartService()

	require.NoError(t, svc.AddItem(context.Background(), "u1", "PRD-1", 2))
	require.NoError(t, svc.AddItem(context.Background(), "u1", "PRD-1", 3))

	cart, _ := repo.GetByUserID(context.Background(), "u1")
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
}

func TestAddItemRejectsBeyondStock(t *testing.T) {
	svc, _, _ := newCartService()

	require.NoError(t, svc.AddItem(context.Background(), "u1", "PRD-2", 2))
	err := svc.AddItem(context.Background(), "u1", "PRD-2", 1)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestAddItemRejectsUnknownOrInactiveProduct(t *testing.T) {
	svc, _, catalog := newCartService()

	err := svc.AddItem(context.Background(), "u1", "PRD-404", 1)
	assert.ErrorIs(t, err, ErrProductUnavailable)

	catalog.products["PRD-1"].IsActive = false
	err = svc.AddItem(context.Background(), "u1", "PRD-1", 1)
	assert.ErrorIs(t, err, ErrProductUnavailable)
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	svc, _, _ := newCartService()
	assert.ErrorIs(t, svc.AddItem(context.Background(), "u1", "PRD-1", 0), domain.ErrInvalidQuantity)
}

func TestGetCartPricesWithCurrentEffectivePrice(t *testing.T) {
	svc, _, _ := newCartService()

	require.NoError(t, svc.AddItem(context.Background(), "u1", "PRD-1", 2))
	require.NoError(t, svc.AddItem(context.Background(), "u1", "PRD-2", 1))

	cart, err := svc.GetCart(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.True(t, cart.Total.Equal(decimal.NewFromInt(500000)))
	assert.True(t, cart.Items[0].LineTotal.Equal(decimal.NewFromInt(400000)))
	assert.True(t, cart.Items[0].Available)
}

func TestGetCartMarksUnavailableProducts(t *testing.T) {
	svc, _, catalog := newCartService()

	require.NoError(t, svc.AddItem(context.Background(), "u1", "PRD-1", 2))
	delete(catalog.products, "PRD-1")

	cart, err := svc.GetCart(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.False(t, cart.Items[0].Available)
	assert.True(t, cart.Total.IsZero())
}

func TestGetCartEmptyForNewUser(t *testing.T) {
	svc, _, _ := newCartService()
	cart, err := svc.GetCart(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Total.IsZero())
}

func TestUpdateItemQuantity(t *testing.T) {
	svc, repo, _ := newCartService()

	require.NoError(t, svc.AddItem(context.Background(), "u1", "PRD-1", 2))
	cart, _ := repo.GetByUserID(context.Background(), "u1")
	itemID := cart.Items[0].ID

	require.NoError(t, svc.UpdateItemQuantity(context.Background(), "u1", itemID, 7))
	cart, _ = repo.GetByUserID(context.Background(), "u1")
	assert.Equal(t, 7, cart.Items[0].Quantity)

	assert.ErrorIs(t, svc.UpdateItemQuantity(context.Background(), "u1", itemID, 0), domain.ErrInvalidQuantity)
	assert.ErrorIs(t, svc.UpdateItemQuantity(context.Background(), "u1", 999, 1), domain.ErrCartItemNotFound)
}

func TestRemoveItemAndClearCart(t *testing.T) {
	svc, repo, _ := newCartService()

	require.NoError(t, svc.AddItem(context.Background(), "u1", "PRD-1", 1))
	cart, _ := repo.GetByUserID(context.Background(), "u1")
	itemID := cart.Items[0].ID

	require.NoError(t, svc.RemoveItem(context.Background(), "u1", itemID))
	cart, _ = repo.GetByUserID(context.Background(), "u1")
	assert.Empty(t, cart.Items)

	require.NoError(t, svc.ClearCart(context.Background(), "u1"))
	// 清空不存在的购物车不是错误
	require.NoError(t, svc.ClearCart(context.Background(), "nobody"))
}
