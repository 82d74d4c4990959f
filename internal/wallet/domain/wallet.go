// Package domain 钱包账本领域模型
package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrWalletNotFound 钱包不存在
	ErrWalletNotFound = errors.New("wallet not found")
	// ErrInsufficientBalance 余额不足
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInvalidAmount 金额必须大于 0
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrVersionConflict 乐观锁冲突，余额已被并发修改
	ErrVersionConflict = errors.New("wallet modified by another transaction")
	// ErrDuplicateTransaction 同一订单同一类型的流水已存在
	ErrDuplicateTransaction = errors.New("duplicate wallet transaction")
)

// 流水类型
const (
	TransactionTypeDebit  = "debit"
	TransactionTypeCredit = "credit"
)

// Wallet 用户钱包，每个用户一个
// Version 用于乐观锁，余额更新必须携带读取时的版本号
type Wallet struct {
	gorm.Model
	WalletID string          `gorm:"column:wallet_id;type:varchar(32);uniqueIndex;not null" json:"wallet_id"`
	UserID   string          `gorm:"column:user_id;type:varchar(36);uniqueIndex;not null" json:"user_id"`
	Balance  decimal.Decimal `gorm:"column:balance;type:decimal(20,2);not null;default:0" json:"balance"`
	Version  int64           `gorm:"column:version;not null;default:0" json:"-"`
}

func (Wallet) TableName() string { return "wallets" }

// Debit 扣减余额；余额不足时返回 ErrInsufficientBalance
func (w *Wallet) Debit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if w.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	w.Balance = w.Balance.Sub(amount)
	return nil
}

// Credit 增加余额
func (w *Wallet) Credit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	w.Balance = w.Balance.Add(amount)
	return nil
}

// WalletTransaction 钱包流水，余额每次变动都记一笔
// (order_id, type) 唯一索引兜底同一订单不会被重复退款
type WalletTransaction struct {
	gorm.Model
	TransactionID string          `gorm:"column:transaction_id;type:varchar(32);uniqueIndex;not null" json:"transaction_id"`
	WalletID      string          `gorm:"column:wallet_id;type:varchar(32);index;not null" json:"wallet_id"`
	UserID        string          `gorm:"column:user_id;type:varchar(36);index;not null" json:"user_id"`
	Type          string          `gorm:"column:type;type:varchar(16);not null;uniqueIndex:uk_order_type,priority:2" json:"type"`
	Amount        decimal.Decimal `gorm:"column:amount;type:decimal(20,2);not null" json:"amount"`
	// 关联订单 ID；充值流水无订单，置 NULL 以避开唯一索引
	OrderID *string `gorm:"column:order_id;type:varchar(32);uniqueIndex:uk_order_type,priority:1" json:"order_id,omitempty"`
	Remark  string  `gorm:"column:remark;type:varchar(255)" json:"remark"`
}

func (WalletTransaction) TableName() string { return "wallet_transactions" }

// WalletRepository 钱包仓储接口
type WalletRepository interface {
	// GetByUserID 获取用户钱包；不存在时返回 ErrWalletNotFound
	GetByUserID(ctx context.Context, userID string) (*Wallet, error)
	// Create 创建钱包
	Create(ctx context.Context, wallet *Wallet) error
	// Save 带乐观锁保存余额；版本不匹配时返回 ErrVersionConflict
	Save(ctx context.Context, wallet *Wallet) error
	// SaveTransaction 写入流水；违反 (order_id, type) 唯一约束时返回 ErrDuplicateTransaction
	SaveTransaction(ctx context.Context, txn *WalletTransaction) error
	// ListTransactions 分页查询用户流水，按时间倒序
	ListTransactions(ctx context.Context, userID string, limit, offset int) ([]*WalletTransaction, int64, error)
}
