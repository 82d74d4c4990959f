package application

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cartdomain "github.com/wyfcoding/mandalamall/internal/cart/domain"
	orderdomain "github.com/wyfcoding/mandalamall/internal/order/domain"
)

// --- test fakes ---

type fakeCartStore struct {
	lines     map[uint]CartLine
	removed   []uint
	removeErr error
}

func (f *fakeCartStore) SelectedLines(_ context.Context, _ string, itemIDs []uint) ([]CartLine, error) {
	var result []CartLine
	for _, id := range itemIDs {
		line, ok := f.lines[id]
		if !ok {
			return nil, cartdomain.ErrCartItemNotFound
		}
		result = append(result, line)
	}
	return result, nil
}

func (f *fakeCartStore) RemoveLines(_ context.Context, _ string, itemIDs []uint) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, itemIDs...)
	return nil
}

type fakeCatalog struct {
	products map[string]*CatalogItem
	stock    map[string]int
	reserves []string
	releases []string
}

func (f *fakeCatalog) Get(_ context.Context, productID string) (*CatalogItem, error) {
	return f.products[productID], nil
}

func (f *fakeCatalog) ReserveStock(_ context.Context, productID string, quantity int) error {
	if f.stock[productID] < quantity {
		return ErrInsufficientStock
	}
	f.stock[productID] -= quantity
	f.reserves = append(f.reserves, productID)
	return nil
}

func (f *fakeCatalog) ReleaseStock(_ context.Context, productID string, quantity int) error {
	f.stock[productID] += quantity
	f.releases = append(f.releases, productID)
	return nil
}

type fakeAddressBook struct {
	infos map[string]*ShippingInfo
}

func (f *fakeAddressBook) Get(_ context.Context, addressID string) (*ShippingInfo, error) {
	info, ok := f.infos[addressID]
	if !ok {
		return nil, ErrAddressNotFound
	}
	return info, nil
}

type fakeWallet struct {
	balance decimal.Decimal
	debits  []decimal.Decimal
	credits []decimal.Decimal
}

func (f *fakeWallet) DebitForOrder(_ context.Context, _, _ string, amount decimal.Decimal) error {
	if f.balance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	f.balance = f.balance.Sub(amount)
	f.debits = append(f.debits, amount)
	return nil
}

func (f *fakeWallet) CreditForOrder(_ context.Context, _, _ string, amount decimal.Decimal) error {
	f.balance = f.balance.Add(amount)
	f.credits = append(f.credits, amount)
	return nil
}

type fakeOrderStore struct {
	created   []*orderdomain.Order
	createErr error
}

func (f *fakeOrderStore) Create(_ context.Context, order *orderdomain.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, order)
	return nil
}

type fakeEventPublisher struct {
	placed []orderdomain.OrderPlacedEvent
}

func (f *fakeEventPublisher) PublishOrderPlaced(_ context.Context, e orderdomain.OrderPlacedEvent) error {
	f.placed = append(f.placed, e)
	return nil
}

func (f *fakeEventPublisher) PublishOrderStatusChanged(_ context.Context, _ orderdomain.OrderStatusChangedEvent) error {
	return nil
}

func (f *fakeEventPublisher) PublishOrderCancelled(_ context.Context, _ orderdomain.OrderCancelledEvent) error {
	return nil
}

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- test fixture ---

type checkoutFixture struct {
	cart    *fakeCartStore
	catalog *fakeCatalog
	address *fakeAddressBook
	wallet  *fakeWallet
	orders  *fakeOrderStore
	events  *fakeEventPublisher
	svc     *CheckoutService
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		cart: &fakeCartStore{lines: map[uint]CartLine{
			1: {ItemID: 1, ProductID: "PRD-1", Quantity: 2},
			2: {ItemID: 2, ProductID: "PRD-2", Quantity: 1},
		}},
		catalog: &fakeCatalog{
			products: map[string]*CatalogItem{
				"PRD-1": {ProductID: "PRD-1", Name: "Handwoven Rug", Price: decimal.NewFromInt(250000), SalePrice: decimal.NewFromInt(200000), EffectivePrice: decimal.NewFromInt(200000), IsActive: true},
				"PRD-2": {ProductID: "PRD-2", Name: "Brass Bowl", Price: decimal.NewFromInt(100000), EffectivePrice: decimal.NewFromInt(100000), IsActive: true},
			},
			stock: map[string]int{"PRD-1": 10, "PRD-2": 5},
		},
		address: &fakeAddressBook{infos: map[string]*ShippingInfo{
			"ADR-1": {OwnerID: "u1", Address: orderdomain.ShippingAddress{Recipient: "Dewi", City: "Jakarta"}},
		}},
		wallet: &fakeWallet{balance: decimal.NewFromInt(5000000)},
		orders: &fakeOrderStore{},
		events: &fakeEventPublisher{},
	}
	f.svc = NewCheckoutService(f.cart, f.catalog, f.address, f.wallet, f.orders, f.events, passthroughTx{})
	return f
}

func walletRequest(itemIDs ...uint) PlaceOrderRequest {
	return PlaceOrderRequest{
		UserID:          "u1",
		SelectedItemIDs: itemIDs,
		AddressID:       "ADR-1",
		PaymentMethod:   orderdomain.PaymentMethodWallet,
	}
}

// --- tests ---

func TestPlaceOrderEmptySelection(t *testing.T) {
	f := newCheckoutFixture()
	_, err := f.svc.PlaceOrder(context.Background(), walletRequest())
	assert.ErrorIs(t, err, ErrEmptySelection)
	assert.Empty(t, f.orders.created)
}

func TestPlaceOrderInvalidPaymentMethod(t *testing.T) {
	f := newCheckoutFixture()
	req := walletRequest(1)
	req.PaymentMethod = "credit_card"
	_, err := f.svc.PlaceOrder(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
}

func TestPlaceOrderNegativeCharge(t *testing.T) {
	f := newCheckoutFixture()
	req := walletRequest(1)
	req.Discount = decimal.NewFromInt(-1)
	_, err := f.svc.PlaceOrder(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidCharge)
}

func TestPlaceOrderUnknownCartItem(t *testing.T) {
	f := newCheckoutFixture()
	_, err := f.svc.PlaceOrder(context.Background(), walletRequest(99))
	assert.ErrorIs(t, err, cartdomain.ErrCartItemNotFound)
	assert.Empty(t, f.catalog.reserves)
	assert.Empty(t, f.wallet.debits)
}

func TestPlaceOrderAddressNotOwned(t *testing.T) {
	f := newCheckoutFixture()
	f.address.infos["ADR-2"] = &ShippingInfo{OwnerID: "someone-else"}
	req := walletRequest(1)
	req.AddressID = "ADR-2"
	_, err := f.svc.PlaceOrder(context.Background(), req)
	assert.ErrorIs(t, err, ErrAddressNotFound)
}

func TestPlaceOrderInactiveProduct(t *testing.T) {
	f := newCheckoutFixture()
	f.catalog.products["PRD-1"].IsActive = false
	_, err := f.svc.PlaceOrder(context.Background(), walletRequest(1))
	assert.ErrorIs(t, err, ErrItemUnavailable)
	assert.Empty(t, f.catalog.reserves)
	assert.Empty(t, f.wallet.debits)
}

func TestPlaceOrderInsufficientStockReleasesPriorReservations(t *testing.T) {
	f := newCheckoutFixture()
	f.catalog.stock["PRD-2"] = 0

	_, err := f.svc.PlaceOrder(context.Background(), walletRequest(1, 2))
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// 第一个商品已锁的库存被回补
	assert.Equal(t, []string{"PRD-1"}, f.catalog.reserves)
	assert.Equal(t, []string{"PRD-1"}, f.catalog.releases)
	assert.Equal(t, 10, f.catalog.stock["PRD-1"])
	assert.Empty(t, f.wallet.debits)
	assert.Empty(t, f.orders.created)
}

func TestPlaceOrderInsufficientBalanceReleasesStock(t *testing.T) {
	f := newCheckoutFixture()
	f.wallet.balance = decimal.NewFromInt(100)

	_, err := f.svc.PlaceOrder(context.Background(), walletRequest(1, 2))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	assert.Equal(t, 10, f.catalog.stock["PRD-1"])
	assert.Equal(t, 5, f.catalog.stock["PRD-2"])
	assert.Empty(t, f.orders.created)
	assert.True(t, f.wallet.balance.Equal(decimal.NewFromInt(100)))
}

func TestPlaceOrderWalletSuccess(t *testing.T) {
	f := newCheckoutFixture()

	req := walletRequest(1, 2)
	req.Tax = decimal.NewFromInt(50000)
	req.Shipping = decimal.NewFromInt(20000)
	req.Discount = decimal.NewFromInt(70000)

	order, err := f.svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	// 2 x 200000 (促销价) + 1 x 100000 = 500000
	assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(500000)))
	// 500000 - 70000 + 50000 + 20000 = 500000
	assert.True(t, order.Total.Equal(decimal.NewFromInt(500000)))
	assert.Equal(t, orderdomain.OrderStatusPending, order.Status)
	assert.Equal(t, orderdomain.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, "Dewi", order.ShippingAddress.Recipient)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Handwoven Rug", order.Items[0].Name)
	assert.True(t, order.Items[0].UnitPrice.Equal(decimal.NewFromInt(200000)))

	// 钱包扣款一次，库存已扣减，购物车条目被消费
	require.Len(t, f.wallet.debits, 1)
	assert.True(t, f.wallet.debits[0].Equal(decimal.NewFromInt(500000)))
	assert.Equal(t, 8, f.catalog.stock["PRD-1"])
	assert.Equal(t, 4, f.catalog.stock["PRD-2"])
	assert.Equal(t, []uint{1, 2}, f.cart.removed)

	// 事件已发布
	require.Len(t, f.events.placed, 1)
	assert.Equal(t, order.OrderID, f.events.placed[0].OrderID)
}

func TestPlaceOrderSingleItemMath(t *testing.T) {
	f := newCheckoutFixture()

	order, err := f.svc.PlaceOrder(context.Background(), walletRequest(1))
	require.NoError(t, err)

	// 200000 x 2 = 400000
	assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(400000)))
	assert.True(t, order.Total.Equal(decimal.NewFromInt(400000)))
	assert.True(t, f.wallet.balance.Equal(decimal.NewFromInt(4600000)))
}

func TestPlaceOrderCODDoesNotTouchWallet(t *testing.T) {
	f := newCheckoutFixture()

	req := walletRequest(2)
	req.PaymentMethod = orderdomain.PaymentMethodCOD
	order, err := f.svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, orderdomain.PaymentStatusUnpaid, order.PaymentStatus)
	assert.Empty(t, f.wallet.debits)
	assert.True(t, f.wallet.balance.Equal(decimal.NewFromInt(5000000)))
}

func TestPlaceOrderPersistenceFailureCompensates(t *testing.T) {
	f := newCheckoutFixture()
	f.orders.createErr = errors.New("deadlock")

	_, err := f.svc.PlaceOrder(context.Background(), walletRequest(1, 2))
	assert.ErrorIs(t, err, ErrPersistence)

	// 扣款被同步退回，库存回补，购物车未动
	require.Len(t, f.wallet.debits, 1)
	require.Len(t, f.wallet.credits, 1)
	assert.True(t, f.wallet.balance.Equal(decimal.NewFromInt(5000000)))
	assert.Equal(t, 10, f.catalog.stock["PRD-1"])
	assert.Equal(t, 5, f.catalog.stock["PRD-2"])
	assert.Empty(t, f.cart.removed)
	assert.Empty(t, f.events.placed)
}

func TestPlaceOrderCartClearFailureDoesNotFailCheckout(t *testing.T) {
	f := newCheckoutFixture()
	f.cart.removeErr = errors.New("timeout")

	order, err := f.svc.PlaceOrder(context.Background(), walletRequest(1))
	require.NoError(t, err)
	assert.NotNil(t, order)
	require.Len(t, f.orders.created, 1)
}

func TestPlaceOrderTotalWouldGoNegative(t *testing.T) {
	f := newCheckoutFixture()

	req := walletRequest(2)
	req.Discount = decimal.NewFromInt(999999)
	_, err := f.svc.PlaceOrder(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidCharge)
	assert.Empty(t, f.catalog.reserves)
}
