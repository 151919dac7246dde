package repository

import (
	"context"
	"time"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// ReleaseFilter filtros del listado de despachos.
// LocationID coincide con origen o destino. Search ya viene normalizado (textnorm.Fold).
type ReleaseFilter struct {
	CompanyID  string
	Status     entity.ReleaseStatus
	LocationID string
	From       *time.Time
	To         *time.Time
	Search     string
	Limit      int
	Offset     int
}

// StockReleaseRepository persistencia de despachos (cabecera + ítems en cascada).
type StockReleaseRepository interface {
	Create(ctx context.Context, release *entity.StockRelease) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.StockRelease, error)
	// GetForUpdate bloquea la fila del despacho; devuelve nil, nil si no existe.
	GetForUpdate(ctx context.Context, id string) (*entity.StockRelease, error)
	// Update persiste estado, auditoría y cantidades liberadas de los ítems.
	Update(ctx context.Context, release *entity.StockRelease) error
	Delete(ctx context.Context, id string) error
	// List devuelve la página y el total que cumple el filtro.
	List(ctx context.Context, filter ReleaseFilter) ([]*entity.StockRelease, int, error)
	// CountByStatus cuenta despachos por estado; locationID vacío = todas las bodegas.
	CountByStatus(ctx context.Context, companyID, locationID string) (map[entity.ReleaseStatus]int, error)
}
