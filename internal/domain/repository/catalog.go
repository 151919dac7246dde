package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ProductCatalog búsqueda de solo lectura de productos (colaborador externo del ledger).
type ProductCatalog interface {
	Exists(ctx context.Context, companyID, productID string) (bool, error)
	// GetCost devuelve domain.ErrNotFound si el producto no existe para la empresa.
	GetCost(ctx context.Context, companyID, productID string) (decimal.Decimal, error)
}

// LocationDirectory búsqueda de solo lectura de bodegas válidas.
type LocationDirectory interface {
	Exists(ctx context.Context, companyID, locationID string) (bool, error)
}

// ReleaseNumberGenerator entrega números de despacho únicos <PREFIJO>-<AAAAMM>-<secuencia>.
type ReleaseNumberGenerator interface {
	Next(ctx context.Context, companyID string, at time.Time) (string, error)
}
