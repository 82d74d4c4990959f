package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletDebit(t *testing.T) {
	w := &Wallet{Balance: decimal.NewFromInt(5000000)}

	require.NoError(t, w.Debit(decimal.NewFromInt(3000000)))
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(2000000)))

	// 余额不足，余额保持不变
	err := w.Debit(decimal.NewFromInt(3000000))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(2000000)))
}

func TestWalletDebitRejectsNonPositive(t *testing.T) {
	w := &Wallet{Balance: decimal.NewFromInt(100)}
	assert.ErrorIs(t, w.Debit(decimal.Zero), ErrInvalidAmount)
	assert.ErrorIs(t, w.Debit(decimal.NewFromInt(-10)), ErrInvalidAmount)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(100)))
}

func TestWalletCredit(t *testing.T) {
	w := &Wallet{Balance: decimal.Zero}
	require.NoError(t, w.Credit(decimal.NewFromInt(400000)))
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(400000)))

	assert.ErrorIs(t, w.Credit(decimal.Zero), ErrInvalidAmount)
	assert.ErrorIs(t, w.Credit(decimal.NewFromInt(-1)), ErrInvalidAmount)
}

func TestWalletExactBalanceDebit(t *testing.T) {
	w := &Wallet{Balance: decimal.NewFromInt(400000)}
	require.NoError(t, w.Debit(decimal.NewFromInt(400000)))
	assert.True(t, w.Balance.IsZero())
}
