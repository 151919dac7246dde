package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var _ repository.InventoryRepository = (*InventoryRepo)(nil)

// InventoryRepo implementación de InventoryRepository sobre PostgreSQL (usable con pool o tx).
type InventoryRepo struct {
	q Querier
}

// NewInventoryRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewInventoryRepository(q Querier) *InventoryRepo {
	return &InventoryRepo{q: q}
}

const inventoryColumns = `product_id, location_id, quantity, reserved_quantity, version, updated_at`

func scanInventory(row pgxScanner) (*entity.InventoryRecord, error) {
	var rec entity.InventoryRecord
	if err := row.Scan(&rec.ProductID, &rec.LocationID, &rec.Quantity, &rec.ReservedQuantity, &rec.Version, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Get obtiene el registro de un producto en una bodega; nil si nunca se tocó.
func (r *InventoryRepo) Get(ctx context.Context, productID, locationID string) (*entity.InventoryRecord, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory_records WHERE product_id = $1 AND location_id = $2`
	rec, err := scanInventory(r.q.QueryRow(ctx, query, productID, locationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory record: %w", err)
	}
	return rec, nil
}

// GetOrCreate inserta el par en cero si falta (ON CONFLICT DO NOTHING) y lo devuelve.
func (r *InventoryRepo) GetOrCreate(ctx context.Context, productID, locationID string) (*entity.InventoryRecord, error) {
	if err := r.ensure(ctx, productID, locationID); err != nil {
		return nil, err
	}
	rec, err := r.Get(ctx, productID, locationID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("inventory record %s/%s: %w", productID, locationID, domain.ErrNotFound)
	}
	return rec, nil
}

// GetForUpdate obtiene el registro y bloquea la fila (SELECT FOR UPDATE); lo crea si falta.
func (r *InventoryRepo) GetForUpdate(ctx context.Context, productID, locationID string) (*entity.InventoryRecord, error) {
	if err := r.ensure(ctx, productID, locationID); err != nil {
		return nil, err
	}
	query := `SELECT ` + inventoryColumns + ` FROM inventory_records
		WHERE product_id = $1 AND location_id = $2
		FOR UPDATE`
	rec, err := scanInventory(r.q.QueryRow(ctx, query, productID, locationID))
	if err != nil {
		return nil, fmt.Errorf("get inventory record for update: %w", err)
	}
	return rec, nil
}

func (r *InventoryRepo) ensure(ctx context.Context, productID, locationID string) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO inventory_records (product_id, location_id, quantity, reserved_quantity, version, updated_at)
		VALUES ($1, $2, 0, 0, 0, now())
		ON CONFLICT (product_id, location_id) DO NOTHING`, productID, locationID)
	if err != nil {
		return fmt.Errorf("ensure inventory record: %w", err)
	}
	return nil
}

// Save actualiza cantidad y reserva si la versión leída sigue vigente.
func (r *InventoryRepo) Save(ctx context.Context, rec *entity.InventoryRecord) error {
	query := `
		UPDATE inventory_records
		SET quantity = $3, reserved_quantity = $4, version = version + 1, updated_at = $6
		WHERE product_id = $1 AND location_id = $2 AND version = $5
		RETURNING version`
	var version int64
	err := r.q.QueryRow(ctx, query, rec.ProductID, rec.LocationID, rec.Quantity, rec.ReservedQuantity, rec.Version, rec.UpdatedAt).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrConflict
		}
		if isCheckViolation(err) {
			return domain.NewInvariantViolation("inventory_records %s/%s: %v", rec.ProductID, rec.LocationID, err)
		}
		return fmt.Errorf("save inventory record: %w", err)
	}
	rec.Version = version
	return nil
}

// List niveles por bodega/producto, ordenados por bodega y producto.
func (r *InventoryRepo) List(ctx context.Context, f repository.InventoryFilter) ([]*entity.InventoryRecord, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory_records
		WHERE ($1 = '' OR product_id::text = $1) AND ($2 = '' OR location_id::text = $2)
		ORDER BY location_id, product_id
		LIMIT NULLIF($3, 0) OFFSET $4`
	rows, err := r.q.Query(ctx, query, f.ProductID, f.LocationID, f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("list inventory records: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryRecord
	for rows.Next() {
		rec, err := scanInventory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory record: %w", err)
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}
