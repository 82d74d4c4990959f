package mysql

import (
	"context"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/wyfcoding/mandalamall/internal/wallet/domain"
	pkgdb "github.com/wyfcoding/mandalamall/pkg/db"
	"gorm.io/gorm"
)

type walletRepository struct{ db *gorm.DB }

// NewWalletRepository 创建钱包 MySQL 仓储
func NewWalletRepository(db *gorm.DB) domain.WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) getDB(ctx context.Context) *gorm.DB {
	return pkgdb.TxFromContext(ctx, r.db).WithContext(ctx)
}

func (r *walletRepository) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	var wallet domain.Wallet
	err := r.getDB(ctx).Where("user_id = ?", userID).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *walletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	return r.getDB(ctx).Create(wallet).Error
}

// Save 带乐观锁保存余额
// 版本号不匹配说明余额已被并发修改，调用方应重读后重试
func (r *walletRepository) Save(ctx context.Context, wallet *domain.Wallet) error {
	currentVersion := wallet.Version
	result := r.getDB(ctx).Model(&domain.Wallet{}).
		Where("wallet_id = ? AND version = ?", wallet.WalletID, currentVersion).
		Updates(map[string]any{
			"balance": wallet.Balance,
			"version": currentVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrVersionConflict
	}
	wallet.Version = currentVersion + 1
	return nil
}

func (r *walletRepository) SaveTransaction(ctx context.Context, txn *domain.WalletTransaction) error {
	err := r.getDB(ctx).Create(txn).Error
	if err != nil && isDuplicateKey(err) {
		return domain.ErrDuplicateTransaction
	}
	return err
}

func (r *walletRepository) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]*domain.WalletTransaction, int64, error) {
	db := r.getDB(ctx).Model(&domain.WalletTransaction{}).Where("user_id = ?", userID)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txns []*domain.WalletTransaction
	err := db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&txns).Error
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return true
	}
	return strings.Contains(err.Error(), "Duplicate entry")
}
