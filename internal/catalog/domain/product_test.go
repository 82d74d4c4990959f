package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEffectivePrice(t *testing.T) {
	// 有效促销价优先
	p := &Product{Price: decimal.NewFromInt(250000), SalePrice: decimal.NewFromInt(200000)}
	assert.True(t, p.HasSale())
	assert.True(t, p.EffectivePrice().Equal(decimal.NewFromInt(200000)))

	// 无促销价取标价
	p = &Product{Price: decimal.NewFromInt(250000)}
	assert.False(t, p.HasSale())
	assert.True(t, p.EffectivePrice().Equal(decimal.NewFromInt(250000)))

	// 促销价不低于标价时视为无促销
	p = &Product{Price: decimal.NewFromInt(250000), SalePrice: decimal.NewFromInt(300000)}
	assert.False(t, p.HasSale())
	assert.True(t, p.EffectivePrice().Equal(decimal.NewFromInt(250000)))
}
