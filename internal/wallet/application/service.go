// Package application 钱包应用服务
// 余额变更走乐观锁，冲突时重读重试，保证同一用户的扣款与退款可线性化
package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/mandalamall/internal/wallet/domain"
	"github.com/wyfcoding/mandalamall/pkg/idgen"
	"github.com/wyfcoding/mandalamall/pkg/logger"
)

// CAS 冲突重试上限
const maxSaveRetries = 5

// ErrConcurrentModification 重试耗尽仍然冲突
var ErrConcurrentModification = errors.New("wallet busy, concurrent modification")

// TxManager 事务边界；余额变更与流水写入必须在同一事务中提交，
// 任何一步失败时整体回滚，余额不会在没有流水的情况下变动
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// WalletDTO 钱包视图
type WalletDTO struct {
	WalletID string          `json:"wallet_id"`
	UserID   string          `json:"user_id"`
	Balance  decimal.Decimal `json:"balance"`
}

// TransactionListDTO 分页流水
type TransactionListDTO struct {
	Items []*domain.WalletTransaction `json:"items"`
	Total int64                       `json:"total"`
}

// WalletApplicationService 钱包应用服务
type WalletApplicationService struct {
	wallets domain.WalletRepository
	tx      TxManager
}

// NewWalletApplicationService 创建钱包应用服务
func NewWalletApplicationService(wallets domain.WalletRepository, tx TxManager) *WalletApplicationService {
	return &WalletApplicationService{wallets: wallets, tx: tx}
}

// GetBalance 查询余额；钱包不存在时懒创建零余额钱包
func (s *WalletApplicationService) GetBalance(ctx context.Context, userID string) (*WalletDTO, error) {
	wallet, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &WalletDTO{WalletID: wallet.WalletID, UserID: wallet.UserID, Balance: wallet.Balance}, nil
}

// Deposit 充值
func (s *WalletApplicationService) Deposit(ctx context.Context, userID string, amount decimal.Decimal) (*WalletDTO, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	var result *domain.Wallet
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.mutate(ctx, userID, func(w *domain.Wallet) error {
			if err := w.Credit(amount); err != nil {
				return err
			}
			result = w
			return nil
		}); err != nil {
			return err
		}

		return s.wallets.SaveTransaction(ctx, &domain.WalletTransaction{
			TransactionID: idgen.GenPrefixedID("TXN"),
			WalletID:      result.WalletID,
			UserID:        userID,
			Type:          domain.TransactionTypeCredit,
			Amount:        amount,
			Remark:        "deposit",
		})
	})
	if err != nil {
		logger.Error(ctx, "Deposit failed", "user_id", userID, "error", err)
		return nil, err
	}

	logger.Info(ctx, "Wallet deposited", "user_id", userID, "amount", amount.String())
	return &WalletDTO{WalletID: result.WalletID, UserID: result.UserID, Balance: result.Balance}, nil
}

// DebitForOrder 为订单支付扣款并写 debit 流水
// 扣款与流水在同一事务中提交，流水写入失败时扣款随事务回滚
func (s *WalletApplicationService) DebitForOrder(ctx context.Context, userID, orderID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidAmount
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var walletID string
		if err := s.mutate(ctx, userID, func(w *domain.Wallet) error {
			if err := w.Debit(amount); err != nil {
				return err
			}
			walletID = w.WalletID
			return nil
		}); err != nil {
			return err
		}

		return s.wallets.SaveTransaction(ctx, &domain.WalletTransaction{
			TransactionID: idgen.GenPrefixedID("TXN"),
			WalletID:      walletID,
			UserID:        userID,
			Type:          domain.TransactionTypeDebit,
			Amount:        amount,
			OrderID:       &orderID,
			Remark:        fmt.Sprintf("payment for order %s", orderID),
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "Wallet debited for order", "user_id", userID, "order_id", orderID, "amount", amount.String())
	return nil
}

// CreditForOrder 订单取消或结账补偿时退款
// (order_id, type) 唯一索引保证同一订单最多退一次；流水与入账在同一
// 事务中提交，入账失败时流水随事务回滚，退款可以安全重试
func (s *WalletApplicationService) CreditForOrder(ctx context.Context, userID, orderID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidAmount
	}

	wallet, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		// 先占流水，重复退款在这里被唯一索引拦下，余额不会变动
		if err := s.wallets.SaveTransaction(ctx, &domain.WalletTransaction{
			TransactionID: idgen.GenPrefixedID("TXN"),
			WalletID:      wallet.WalletID,
			UserID:        userID,
			Type:          domain.TransactionTypeCredit,
			Amount:        amount,
			OrderID:       &orderID,
			Remark:        fmt.Sprintf("refund for order %s", orderID),
		}); err != nil {
			return err
		}

		return s.mutate(ctx, userID, func(w *domain.Wallet) error {
			return w.Credit(amount)
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "Wallet credited for order", "user_id", userID, "order_id", orderID, "amount", amount.String())
	return nil
}

// ListTransactions 分页查询流水
func (s *WalletApplicationService) ListTransactions(ctx context.Context, userID string, limit, offset int) (*TransactionListDTO, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	txns, total, err := s.wallets.ListTransactions(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return &TransactionListDTO{Items: txns, Total: total}, nil
}

func (s *WalletApplicationService) getOrCreate(ctx context.Context, userID string) (*domain.Wallet, error) {
	wallet, err := s.wallets.GetByUserID(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, domain.ErrWalletNotFound) {
		return nil, err
	}

	wallet = &domain.Wallet{
		WalletID: idgen.GenPrefixedID("WAL"),
		UserID:   userID,
		Balance:  decimal.Zero,
	}
	if cerr := s.wallets.Create(ctx, wallet); cerr != nil {
		// 并发创建输掉竞争时改走读取
		if existing, gerr := s.wallets.GetByUserID(ctx, userID); gerr == nil {
			return existing, nil
		}
		return nil, cerr
	}
	return wallet, nil
}

// mutate 读取-修改-CAS 保存，冲突时重读重试
func (s *WalletApplicationService) mutate(ctx context.Context, userID string, fn func(*domain.Wallet) error) error {
	for attempt := 0; attempt < maxSaveRetries; attempt++ {
		wallet, err := s.getOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		if err := fn(wallet); err != nil {
			return err
		}
		err = s.wallets.Save(ctx, wallet)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
		logger.Warn(ctx, "Wallet save conflict, retrying", "user_id", userID, "attempt", attempt+1)
	}
	return ErrConcurrentModification
}
