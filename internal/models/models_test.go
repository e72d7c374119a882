package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func TestOrderItemsSum(t *testing.T) {
	items := OrderItems{
		{Name: "Tee", Price: 20, Quantity: 2, Discount: ptr(10), Size: "M"},
		{Name: "Cap", Price: 5, Quantity: 3, Size: "S"},
	}
	assert.InDelta(t, 51.0, items.Sum(), 1e-9)
	assert.InDelta(t, 18.0, items[0].EffectivePrice(), 1e-9)
}

func TestOrderItemsScanFromJSONB(t *testing.T) {
	var items OrderItems
	require.NoError(t, items.Scan([]byte(`[{"id":"p1","name":"Tee","price":10,"quantity":2,"size":"M"}]`)))
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Nil(t, items[0].Discount)

	var addr ShippingAddress
	require.NoError(t, addr.Scan(`{"name":"Ann","address":"1 Main St","mobileNumber":"555"}`))
	assert.Equal(t, "555", addr.MobileNumber)

	assert.Error(t, addr.Scan(42))
}

func TestNilOrderItemsValue(t *testing.T) {
	v, err := OrderItems(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)
}

func TestProductHelpers(t *testing.T) {
	p := Product{Price: 40, Discount: ptr(25), Sizes: []string{"S", "M"}}
	assert.InDelta(t, 30.0, p.EffectivePrice(), 1e-9)
	assert.True(t, p.HasSize("M"))
	assert.False(t, p.HasSize("XL"))
}

func TestOrderItemsCloneIsDeep(t *testing.T) {
	items := OrderItems{{Name: "Tee", Price: 20, Quantity: 1, Discount: ptr(10)}}
	c := items.Clone()
	*items[0].Discount = 50
	items[0].Price = 1

	assert.Equal(t, 10.0, *c[0].Discount)
	assert.Equal(t, 20.0, c[0].Price)
	assert.Nil(t, OrderItems(nil).Clone())
}
