package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartAddItemMerges(t *testing.T) {
	cart := NewCart("u1")

	require.NoError(t, cart.AddItem("PRD-1", 2))
	require.NoError(t, cart.AddItem("PRD-1", 3))
	require.NoError(t, cart.AddItem("PRD-2", 1))

	require.Len(t, cart.Items, 2)
	assert.Equal(t, 5, cart.Items[0].Quantity)

	assert.ErrorIs(t, cart.AddItem("PRD-3", 0), ErrInvalidQuantity)
}

func TestCartFindItems(t *testing.T) {
	cart := NewCart("u1")
	cart.Items = []CartItem{
		{ProductID: "PRD-1", Quantity: 2},
		{ProductID: "PRD-2", Quantity: 1},
	}
	cart.Items[0].ID = 10
	cart.Items[1].ID = 11

	selected, err := cart.FindItems([]uint{11})
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.Equal(t, "PRD-2", selected[0].ProductID)

	_, err = cart.FindItems([]uint{10, 99})
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestCartUpdateAndRemove(t *testing.T) {
	cart := NewCart("u1")
	cart.Items = []CartItem{{ProductID: "PRD-1", Quantity: 2}}
	cart.Items[0].ID = 10

	require.NoError(t, cart.UpdateQuantity(10, 4))
	assert.Equal(t, 4, cart.Items[0].Quantity)
	assert.ErrorIs(t, cart.UpdateQuantity(10, -1), ErrInvalidQuantity)
	assert.ErrorIs(t, cart.UpdateQuantity(99, 1), ErrCartItemNotFound)

	require.NoError(t, cart.RemoveItem(10))
	assert.Empty(t, cart.Items)
	assert.ErrorIs(t, cart.RemoveItem(10), ErrCartItemNotFound)
}
