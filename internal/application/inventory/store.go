package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

// Snapshot estado de un registro antes y después de un ajuste.
type Snapshot struct {
	ProductID      string
	LocationID     string
	QuantityBefore int64
	QuantityAfter  int64
	ReservedBefore int64
	ReservedAfter  int64
}

// AvailableAfter disponibilidad resultante.
func (s Snapshot) AvailableAfter() int64 { return s.QuantityAfter - s.ReservedAfter }

// TransferSnapshot resultado de un traslado entre dos bodegas.
type TransferSnapshot struct {
	From Snapshot
	To   Snapshot
}

// Store mantiene los InventoryRecord (cantidad física y reservada por producto+bodega).
// Siempre opera sobre repositorios atados a una transacción.
type Store struct {
	repo repository.InventoryRepository
	now  func() time.Time
}

// NewStore construye el store sobre el repositorio de la tx.
func NewStore(repo repository.InventoryRepository, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{repo: repo, now: now}
}

// GetOrCreate devuelve el registro, creándolo en cero si no existe. No bloquea.
func (s *Store) GetOrCreate(ctx context.Context, productID, locationID string) (*entity.InventoryRecord, error) {
	if productID == "" || locationID == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.repo.GetOrCreate(ctx, productID, locationID)
}

// Lock bloquea los registros indicados en orden (producto, bodega) ascendente.
// Quien toque varias filas en una tx debe llamar Lock primero para no generar deadlocks.
func (s *Store) Lock(ctx context.Context, keys ...entity.StockKey) error {
	sorted := make([]entity.StockKey, len(keys))
	copy(sorted, keys)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })
	var prev *entity.StockKey
	for i := range sorted {
		if prev != nil && *prev == sorted[i] {
			continue
		}
		if _, err := s.repo.GetForUpdate(ctx, sorted[i].ProductID, sorted[i].LocationID); err != nil {
			return fmt.Errorf("bloqueo %s/%s: %w", sorted[i].ProductID, sorted[i].LocationID, err)
		}
		prev = &sorted[i]
	}
	return nil
}

// Adjust aplica delta a la cantidad física y reservedDelta a la reservada, bajo bloqueo de fila.
// Falla con InsufficientStockError si la cantidad o la disponibilidad quedarían negativas; en ese caso no hay cambios.
func (s *Store) Adjust(ctx context.Context, productID, locationID string, delta, reservedDelta int64) (Snapshot, error) {
	if productID == "" || locationID == "" {
		return Snapshot{}, domain.ErrInvalidInput
	}
	rec, err := s.repo.GetForUpdate(ctx, productID, locationID)
	if err != nil {
		return Snapshot{}, err
	}
	qtyAfter, okQty := entity.AddQuantity(rec.Quantity, delta)
	reservedAfter, okReserved := entity.AddQuantity(rec.ReservedQuantity, reservedDelta)
	if !okQty || !okReserved {
		return Snapshot{}, fmt.Errorf("%w: la cantidad de %s en %s excede el máximo representable",
			domain.ErrInvalidInput, productID, locationID)
	}
	snap := Snapshot{
		ProductID:      productID,
		LocationID:     locationID,
		QuantityBefore: rec.Quantity,
		ReservedBefore: rec.ReservedQuantity,
		QuantityAfter:  qtyAfter,
		ReservedAfter:  reservedAfter,
	}
	if snap.ReservedAfter < 0 {
		return Snapshot{}, fmt.Errorf("%w: se liberan %d unidades reservadas y solo hay %d",
			domain.ErrInvalidInput, -reservedDelta, rec.ReservedQuantity)
	}
	if snap.QuantityAfter < 0 || snap.AvailableAfter() < 0 {
		requested := reservedDelta - delta
		if requested <= 0 {
			requested = -delta
		}
		return Snapshot{}, domain.NewInsufficientStock(productID, locationID, rec.Available(), requested)
	}
	if delta == 0 && reservedDelta == 0 {
		return snap, nil
	}
	rec.Quantity = snap.QuantityAfter
	rec.ReservedQuantity = snap.ReservedAfter
	rec.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, rec); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Transfer mueve amount unidades de from a to. Ambas filas se bloquean en orden determinista.
func (s *Store) Transfer(ctx context.Context, productID, from, to string, amount int64) (TransferSnapshot, error) {
	if amount <= 0 || from == "" || to == "" || from == to {
		return TransferSnapshot{}, domain.ErrInvalidInput
	}
	if err := s.Lock(ctx,
		entity.StockKey{ProductID: productID, LocationID: from},
		entity.StockKey{ProductID: productID, LocationID: to},
	); err != nil {
		return TransferSnapshot{}, err
	}
	out, err := s.Adjust(ctx, productID, from, -amount, 0)
	if err != nil {
		return TransferSnapshot{}, err
	}
	in, err := s.Adjust(ctx, productID, to, amount, 0)
	if err != nil {
		return TransferSnapshot{}, err
	}
	return TransferSnapshot{From: out, To: in}, nil
}
