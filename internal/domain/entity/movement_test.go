package entity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMovementType_Direccion(t *testing.T) {
	in := []MovementType{MovementPurchase, MovementAdjustmentIn, MovementTransferIn, MovementReturnFromCustomer}
	out := []MovementType{MovementAdjustmentOut, MovementTransferOut, MovementDamaged, MovementSale, MovementReturnToSupplier}
	for _, mt := range in {
		assert.Equal(t, DirectionIn, mt.Direction(), mt)
		assert.Equal(t, int64(3), mt.Signed(3), mt)
	}
	for _, mt := range out {
		assert.Equal(t, DirectionOut, mt.Direction(), mt)
		assert.Equal(t, int64(-3), mt.Signed(3), mt)
	}
	_, ok := ParseMovementType("TRANSFER")
	assert.False(t, ok)
	assert.Zero(t, MovementType("OTRO").Sign())
}

func TestMovement_Consistent(t *testing.T) {
	ok := Movement{Type: MovementSale, Quantity: 4, QuantityBefore: 10, QuantityAfter: 6}
	assert.True(t, ok.Consistent())
	assert.Equal(t, int64(-4), ok.Delta())

	wrongSign := Movement{Type: MovementSale, Quantity: 4, QuantityBefore: 10, QuantityAfter: 14}
	assert.False(t, wrongSign.Consistent())

	zero := Movement{Type: MovementPurchase, Quantity: 0, QuantityBefore: 1, QuantityAfter: 1}
	assert.False(t, zero.Consistent())

	negative := Movement{Type: MovementSale, Quantity: 2, QuantityBefore: 1, QuantityAfter: -1}
	assert.False(t, negative.Consistent())
}

func TestInventoryRecord_Available(t *testing.T) {
	r := InventoryRecord{Quantity: 10, ReservedQuantity: 4}
	assert.Equal(t, int64(6), r.Available())
	assert.True(t, r.Valid())
	r.ReservedQuantity = 11
	assert.False(t, r.Valid())

	a := StockKey{ProductID: "a", LocationID: "z"}
	b := StockKey{ProductID: "b", LocationID: "a"}
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
}

func TestAddQuantity(t *testing.T) {
	sum, ok := AddQuantity(5, -3)
	assert.True(t, ok)
	assert.Equal(t, int64(2), sum)

	_, ok = AddQuantity(math.MaxInt64, 2)
	assert.False(t, ok)
	_, ok = AddQuantity(math.MinInt64, -1)
	assert.False(t, ok)
	sum, ok = AddQuantity(math.MaxInt64, -1)
	assert.True(t, ok)
	assert.Equal(t, int64(math.MaxInt64-1), sum)
}
