package repository

import (
	"context"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// InventoryFilter filtros de listado de niveles de stock. Campos vacíos no filtran.
type InventoryFilter struct {
	ProductID  string
	LocationID string
	Limit      int
	Offset     int
}

// InventoryRepository define el puerto para consultar/actualizar stock por producto+bodega.
// GetForUpdate y Save solo tienen sentido dentro de una transacción.
type InventoryRepository interface {
	// Get devuelve nil, nil si el par aún no tiene registro.
	Get(ctx context.Context, productID, locationID string) (*entity.InventoryRecord, error)
	// GetOrCreate crea el registro en cero si no existe; no bloquea.
	GetOrCreate(ctx context.Context, productID, locationID string) (*entity.InventoryRecord, error)
	// GetForUpdate crea el registro si falta y bloquea la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, productID, locationID string) (*entity.InventoryRecord, error)
	// Save persiste cantidad y reserva; falla con domain.ErrConflict si Version no coincide.
	Save(ctx context.Context, record *entity.InventoryRecord) error
	List(ctx context.Context, filter InventoryFilter) ([]*entity.InventoryRecord, error)
}
