package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/mandalamall/internal/wallet/domain"
)

// fakeWalletRepository 带真实 CAS 语义的内存仓储
type fakeWalletRepository struct {
	mu      sync.Mutex
	wallets map[string]*domain.Wallet
	txns    []*domain.WalletTransaction

	// 故障注入
	failSave            error
	failSaveTransaction error
}

func newFakeWalletRepository() *fakeWalletRepository {
	return &fakeWalletRepository{wallets: make(map[string]*domain.Wallet)}
}

func (f *fakeWalletRepository) GetByUserID(_ context.Context, userID string) (*domain.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[userID]
	if !ok {
		return nil, domain.ErrWalletNotFound
	}
	copied := *w
	return &copied, nil
}

func (f *fakeWalletRepository) Create(_ context.Context, wallet *domain.Wallet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.wallets[wallet.UserID]; ok {
		return errors.New("wallet already exists")
	}
	copied := *wallet
	f.wallets[wallet.UserID] = &copied
	return nil
}

func (f *fakeWalletRepository) Save(_ context.Context, wallet *domain.Wallet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave != nil {
		return f.failSave
	}
	stored, ok := f.wallets[wallet.UserID]
	if !ok || stored.Version != wallet.Version {
		return domain.ErrVersionConflict
	}
	stored.Balance = wallet.Balance
	stored.Version++
	wallet.Version = stored.Version
	return nil
}

func (f *fakeWalletRepository) SaveTransaction(_ context.Context, txn *domain.WalletTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSaveTransaction != nil {
		return f.failSaveTransaction
	}
	if txn.OrderID != nil {
		for _, existing := range f.txns {
			if existing.OrderID != nil && *existing.OrderID == *txn.OrderID && existing.Type == txn.Type {
				return domain.ErrDuplicateTransaction
			}
		}
	}
	f.txns = append(f.txns, txn)
	return nil
}

func (f *fakeWalletRepository) ListTransactions(_ context.Context, userID string, limit, offset int) ([]*domain.WalletTransaction, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*domain.WalletTransaction
	for _, txn := range f.txns {
		if txn.UserID == userID {
			result = append(result, txn)
		}
	}
	return result, int64(len(result)), nil
}

// passthroughTx 直接执行回调，无事务语义
type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// rollbackTx 以快照/恢复模拟数据库事务的回滚语义
type rollbackTx struct {
	mu   sync.Mutex
	repo *fakeWalletRepository
}

func (r *rollbackTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.repo.mu.Lock()
	snapWallets := make(map[string]*domain.Wallet, len(r.repo.wallets))
	for k, v := range r.repo.wallets {
		copied := *v
		snapWallets[k] = &copied
	}
	snapTxns := append([]*domain.WalletTransaction(nil), r.repo.txns...)
	r.repo.mu.Unlock()

	if err := fn(ctx); err != nil {
		r.repo.mu.Lock()
		r.repo.wallets = snapWallets
		r.repo.txns = snapTxns
		r.repo.mu.Unlock()
		return err
	}
	return nil
}

func newService(repo *fakeWalletRepository) *WalletApplicationService {
	return NewWalletApplicationService(repo, passthroughTx{})
}

func seedWallet(repo *fakeWalletRepository, userID string, balance int64) {
	repo.wallets[userID] = &domain.Wallet{
		WalletID: "WAL-" + userID,
		UserID:   userID,
		Balance:  decimal.NewFromInt(balance),
	}
}

func TestDepositCreatesWalletLazily(t *testing.T) {
	repo := newFakeWalletRepository()
	svc := newService(repo)

	dto, err := svc.Deposit(context.Background(), "u1", decimal.NewFromInt(5000000))
	require.NoError(t, err)
	assert.True(t, dto.Balance.Equal(decimal.NewFromInt(5000000)))

	balance, err := svc.GetBalance(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(5000000)))

	txns, err := svc.ListTransactions(context.Background(), "u1", 20, 0)
	require.NoError(t, err)
	require.Len(t, txns.Items, 1)
	assert.Equal(t, domain.TransactionTypeCredit, txns.Items[0].Type)
}

func TestDepositRejectsNonPositive(t *testing.T) {
	svc := newService(newFakeWalletRepository())
	_, err := svc.Deposit(context.Background(), "u1", decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestDebitForOrderRecordsJournal(t *testing.T) {
	repo := newFakeWalletRepository()
	seedWallet(repo, "u1", 5000000)
	svc := newService(repo)

	err := svc.DebitForOrder(context.Background(), "u1", "ORD-1", decimal.NewFromInt(400000))
	require.NoError(t, err)

	balance, err := svc.GetBalance(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(4600000)))

	require.Len(t, repo.txns, 1)
	assert.Equal(t, domain.TransactionTypeDebit, repo.txns[0].Type)
	assert.Equal(t, "ORD-1", *repo.txns[0].OrderID)
}

func TestDebitForOrderInsufficientBalance(t *testing.T) {
	repo := newFakeWalletRepository()
	seedWallet(repo, "u1", 100)
	svc := newService(repo)

	err := svc.DebitForOrder(context.Background(), "u1", "ORD-1", decimal.NewFromInt(400000))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	// 失败不产生流水，余额不变
	assert.Empty(t, repo.txns)
	balance, _ := svc.GetBalance(context.Background(), "u1")
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(100)))
}

func TestConcurrentDebitsOnlyOneWins(t *testing.T) {
	repo := newFakeWalletRepository()
	seedWallet(repo, "u1", 5000000)
	svc := newService(repo)

	// 两笔 3,000,000 并发扣款：余额只够一笔
	var wg sync.WaitGroup
	errs := make([]error, 2)
	orderIDs := []string{"ORD-A", "ORD-B"}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.DebitForOrder(context.Background(), "u1", orderIDs[i], decimal.NewFromInt(3000000))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
		}
	}
	assert.Equal(t, 1, succeeded)

	balance, err := svc.GetBalance(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(2000000)),
		"expected 2000000, got %s", balance.Balance)
}

func TestDebitForOrderJournalFailureRollsBackBalance(t *testing.T) {
	repo := newFakeWalletRepository()
	seedWallet(repo, "u1", 5000000)
	repo.failSaveTransaction = errors.New("journal write failed")
	svc := NewWalletApplicationService(repo, &rollbackTx{repo: repo})

	err := svc.DebitForOrder(context.Background(), "u1", "ORD-1", decimal.NewFromInt(400000))
	require.Error(t, err)

	// 流水写入失败时扣款必须随事务回滚，余额分毫不动
	balance, gerr := svc.GetBalance(context.Background(), "u1")
	require.NoError(t, gerr)
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(5000000)),
		"expected 5000000, got %s", balance.Balance)
	assert.Empty(t, repo.txns)
}

func TestCreditForOrderBalanceFailureLeavesNoJournal(t *testing.T) {
	repo := newFakeWalletRepository()
	seedWallet(repo, "u1", 0)
	repo.failSave = domain.ErrVersionConflict
	svc := NewWalletApplicationService(repo, &rollbackTx{repo: repo})

	err := svc.CreditForOrder(context.Background(), "u1", "ORD-1", decimal.NewFromInt(400000))
	assert.ErrorIs(t, err, ErrConcurrentModification)

	// 入账失败时流水随事务回滚，唯一索引不会挡住后续重试
	assert.Empty(t, repo.txns)

	repo.failSave = nil
	require.NoError(t, svc.CreditForOrder(context.Background(), "u1", "ORD-1", decimal.NewFromInt(400000)))

	balance, gerr := svc.GetBalance(context.Background(), "u1")
	require.NoError(t, gerr)
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(400000)))
	require.Len(t, repo.txns, 1)
}

func TestCreditForOrderIsIdempotentPerOrder(t *testing.T) {
	repo := newFakeWalletRepository()
	seedWallet(repo, "u1", 0)
	svc := newService(repo)

	require.NoError(t, svc.CreditForOrder(context.Background(), "u1", "ORD-1", decimal.NewFromInt(400000)))

	// 同一订单的第二次退款被唯一约束拦下，余额不再变动
	err := svc.CreditForOrder(context.Background(), "u1", "ORD-1", decimal.NewFromInt(400000))
	assert.ErrorIs(t, err, domain.ErrDuplicateTransaction)

	balance, _ := svc.GetBalance(context.Background(), "u1")
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(400000)))
}
