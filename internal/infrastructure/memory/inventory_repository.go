package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var _ repository.InventoryRepository = (*inventoryRepo)(nil)

type inventoryRepo struct {
	st *state
}

func (r *inventoryRepo) Get(_ context.Context, productID, locationID string) (*entity.InventoryRecord, error) {
	rec, ok := r.st.records[entity.StockKey{ProductID: productID, LocationID: locationID}]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *inventoryRepo) GetOrCreate(_ context.Context, productID, locationID string) (*entity.InventoryRecord, error) {
	key := entity.StockKey{ProductID: productID, LocationID: locationID}
	rec, ok := r.st.records[key]
	if !ok {
		rec = entity.InventoryRecord{ProductID: productID, LocationID: locationID}
		r.st.records[key] = rec
	}
	return &rec, nil
}

// GetForUpdate el mutex de la transacción ya da exclusividad.
func (r *inventoryRepo) GetForUpdate(ctx context.Context, productID, locationID string) (*entity.InventoryRecord, error) {
	return r.GetOrCreate(ctx, productID, locationID)
}

func (r *inventoryRepo) Save(_ context.Context, rec *entity.InventoryRecord) error {
	key := rec.Key()
	cur, ok := r.st.records[key]
	if !ok || cur.Version != rec.Version {
		return domain.ErrConflict
	}
	if !rec.Valid() {
		return domain.NewInvariantViolation("registro %s/%s inválido: q=%d r=%d",
			rec.ProductID, rec.LocationID, rec.Quantity, rec.ReservedQuantity)
	}
	saved := *rec
	saved.Version++
	r.st.records[key] = saved
	rec.Version = saved.Version
	return nil
}

func (r *inventoryRepo) List(_ context.Context, f repository.InventoryFilter) ([]*entity.InventoryRecord, error) {
	out := make([]*entity.InventoryRecord, 0)
	for _, rec := range r.st.records {
		if f.ProductID != "" && rec.ProductID != f.ProductID {
			continue
		}
		if f.LocationID != "" && rec.LocationID != f.LocationID {
			continue
		}
		cp := rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LocationID != out[j].LocationID {
			return out[i].LocationID < out[j].LocationID
		}
		return out[i].ProductID < out[j].ProductID
	})
	return page(out, f.Limit, f.Offset), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// InventoryRepository vista de lectura fuera de transacción.
func (s *Store) InventoryRepository() repository.InventoryRepository {
	return &lockedInventory{s: s}
}

type lockedInventory struct{ s *Store }

func (l *lockedInventory) Get(ctx context.Context, productID, locationID string) (rec *entity.InventoryRecord, err error) {
	l.s.read(func(st *state) { rec, err = (&inventoryRepo{st: st}).Get(ctx, productID, locationID) })
	return
}

func (l *lockedInventory) GetOrCreate(ctx context.Context, productID, locationID string) (rec *entity.InventoryRecord, err error) {
	l.s.read(func(st *state) { rec, err = (&inventoryRepo{st: st}).GetOrCreate(ctx, productID, locationID) })
	return
}

func (l *lockedInventory) GetForUpdate(ctx context.Context, productID, locationID string) (*entity.InventoryRecord, error) {
	return l.GetOrCreate(ctx, productID, locationID)
}

func (l *lockedInventory) Save(ctx context.Context, rec *entity.InventoryRecord) (err error) {
	l.s.read(func(st *state) { err = (&inventoryRepo{st: st}).Save(ctx, rec) })
	return
}

func (l *lockedInventory) List(ctx context.Context, f repository.InventoryFilter) (out []*entity.InventoryRecord, err error) {
	l.s.read(func(st *state) { out, err = (&inventoryRepo{st: st}).List(ctx, f) })
	return
}
