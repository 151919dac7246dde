package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction sentido de un movimiento respecto a la cantidad física.
type Direction int

const (
	DirectionIn  Direction = 1
	DirectionOut Direction = -1
)

// MovementType tipo cerrado de movimiento; cada valor tiene una dirección fija.
type MovementType string

const (
	MovementPurchase           MovementType = "PURCHASE"
	MovementAdjustmentIn       MovementType = "ADJUSTMENT_IN"
	MovementAdjustmentOut      MovementType = "ADJUSTMENT_OUT"
	MovementTransferOut        MovementType = "TRANSFER_OUT"
	MovementTransferIn         MovementType = "TRANSFER_IN"
	MovementDamaged            MovementType = "DAMAGED"
	MovementReturnFromCustomer MovementType = "RETURN_FROM_CUSTOMER"
	MovementSale               MovementType = "SALE"
	MovementReturnToSupplier   MovementType = "RETURN_TO_SUPPLIER"
)

var movementDirections = map[MovementType]Direction{
	MovementPurchase:           DirectionIn,
	MovementAdjustmentIn:       DirectionIn,
	MovementAdjustmentOut:      DirectionOut,
	MovementTransferOut:        DirectionOut,
	MovementTransferIn:         DirectionIn,
	MovementDamaged:            DirectionOut,
	MovementReturnFromCustomer: DirectionIn,
	MovementSale:               DirectionOut,
	MovementReturnToSupplier:   DirectionOut,
}

// ParseMovementType valida un string externo (HTTP, BD).
func ParseMovementType(s string) (MovementType, bool) {
	t := MovementType(s)
	_, ok := movementDirections[t]
	return t, ok
}

// IsValid reporta si el tipo pertenece al conjunto cerrado.
func (t MovementType) IsValid() bool {
	_, ok := movementDirections[t]
	return ok
}

// Direction dirección del tipo. Un tipo inválido no tiene dirección (0).
func (t MovementType) Direction() Direction {
	return movementDirections[t]
}

// Sign +1 para entradas, -1 para salidas.
func (t MovementType) Sign() int64 {
	return int64(t.Direction())
}

// Signed aplica el signo del tipo a una cantidad sin signo.
func (t MovementType) Signed(quantity int64) int64 {
	return t.Sign() * quantity
}

// ReferenceType documento que origina el movimiento.
type ReferenceType string

const (
	ReferenceStockRelease     ReferenceType = "STOCK_RELEASE"
	ReferenceManualAdjustment ReferenceType = "MANUAL_ADJUSTMENT"
	ReferenceDirectTransfer   ReferenceType = "DIRECT_TRANSFER"
	ReferencePurchaseOrder    ReferenceType = "PURCHASE_ORDER"
	ReferenceSale             ReferenceType = "SALE"
	ReferenceCustomerReturn   ReferenceType = "CUSTOMER_RETURN"
)

// Movement entrada inmutable del ledger. Quantity es siempre positiva; el signo lo da Type.
type Movement struct {
	ID             string
	Seq            int64
	CompanyID      string
	ProductID      string
	LocationID     string
	Type           MovementType
	Quantity       int64
	QuantityBefore int64
	QuantityAfter  int64
	UnitCost       decimal.Decimal
	ReferenceType  ReferenceType
	ReferenceID    string
	IsReversal     bool
	Notes          string
	CreatedBy      string
	CreatedAt      time.Time
}

// Delta cambio con signo que aporta el movimiento a la cantidad física.
func (m *Movement) Delta() int64 {
	return m.Type.Signed(m.Quantity)
}

// Consistent verifica quantityAfter = quantityBefore ± quantity según el tipo.
func (m *Movement) Consistent() bool {
	if !m.Type.IsValid() || m.Quantity <= 0 || m.QuantityBefore < 0 || m.QuantityAfter < 0 {
		return false
	}
	return m.QuantityAfter == m.QuantityBefore+m.Delta()
}
