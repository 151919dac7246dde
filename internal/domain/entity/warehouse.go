package entity

import "time"

// Warehouse representa una bodega o sucursal donde se almacena inventario (multi-bodega).
// Es la "ubicación" que referencian InventoryRecord, Movement y StockRelease.
type Warehouse struct {
	ID        string
	CompanyID string
	Name      string
	Address   string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
