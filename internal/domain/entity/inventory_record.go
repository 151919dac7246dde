package entity

import (
	"math"
	"time"
)

// MaxQuantity tope de unidades por línea u operación.
const MaxQuantity int64 = 1_000_000_000

// InventoryRecord es la proyección materializada del ledger para un par (producto, bodega).
// La disponibilidad no se guarda: se deriva siempre de Quantity y ReservedQuantity.
type InventoryRecord struct {
	ProductID        string
	LocationID       string
	Quantity         int64
	ReservedQuantity int64
	Version          int64
	UpdatedAt        time.Time
}

// Available devuelve Quantity - ReservedQuantity.
func (r *InventoryRecord) Available() int64 {
	return r.Quantity - r.ReservedQuantity
}

// Valid reporta si el registro respeta los mínimos (nada negativo, reserva ≤ cantidad).
func (r *InventoryRecord) Valid() bool {
	return r.Quantity >= 0 && r.ReservedQuantity >= 0 && r.Available() >= 0
}

// Key clave compuesta usada para ordenar bloqueos y como índice en memoria.
func (r *InventoryRecord) Key() StockKey {
	return StockKey{ProductID: r.ProductID, LocationID: r.LocationID}
}

// StockKey identifica un InventoryRecord.
type StockKey struct {
	ProductID  string
	LocationID string
}

// Less orden total (producto, bodega) para adquirir bloqueos siempre en el mismo orden.
func (k StockKey) Less(o StockKey) bool {
	if k.ProductID != o.ProductID {
		return k.ProductID < o.ProductID
	}
	return k.LocationID < o.LocationID
}

// AddQuantity suma sin desbordar int64; ok=false si el resultado no cabe.
func AddQuantity(a, b int64) (sum int64, ok bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}
