package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU del catálogo. El ledger solo lo lee.
type Product struct {
	ID        string
	CompanyID string
	SKU       string // código único por empresa
	Name      string
	Price     decimal.Decimal // precio de venta
	Cost      decimal.Decimal // costo vigente; los despachos lo congelan al crearse
	CreatedAt time.Time
	UpdatedAt time.Time
}
