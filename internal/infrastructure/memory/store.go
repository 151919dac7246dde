// Package memory implementa todos los puertos de persistencia en memoria (modo desarrollo y tests).
// Las transacciones se serializan con un único mutex y el rollback restaura una copia del estado.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/backoffice-api/internal/application/inventory"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

var _ inventory.TxRunner = (*Store)(nil)

type state struct {
	records    map[entity.StockKey]entity.InventoryRecord
	movements  []entity.Movement
	seq        int64
	releases   map[string]*entity.StockRelease
	products   map[string]entity.Product
	warehouses map[string]entity.Warehouse
	sequences  map[string]int64
}

func newState() *state {
	return &state{
		records:    make(map[entity.StockKey]entity.InventoryRecord),
		releases:   make(map[string]*entity.StockRelease),
		products:   make(map[string]entity.Product),
		warehouses: make(map[string]entity.Warehouse),
		sequences:  make(map[string]int64),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.records {
		c.records[k] = v
	}
	c.movements = append(c.movements, s.movements...)
	c.seq = s.seq
	for k, v := range s.releases {
		c.releases[k] = copyRelease(v)
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.warehouses {
		c.warehouses[k] = v
	}
	for k, v := range s.sequences {
		c.sequences[k] = v
	}
	return c
}

// Store raíz del backend en memoria.
type Store struct {
	mu sync.Mutex
	st *state
}

// New crea un backend vacío.
func New() *Store {
	return &Store{st: newState()}
}

// Run ejecuta fn con acceso exclusivo; si fn falla el estado vuelve a la copia previa.
func (s *Store) Run(ctx context.Context, fn func(repos inventory.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	backup := s.st.clone()
	if err := fn(s.txRepos()); err != nil {
		*s.st = *backup
		return err
	}
	return nil
}

func (s *Store) txRepos() inventory.TxRepos {
	return inventory.TxRepos{
		Stock:     &inventoryRepo{st: s.st},
		Movements: &movementRepo{st: s.st},
		Releases:  &releaseRepo{st: s.st},
	}
}

func (s *Store) read(fn func(st *state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.st)
}

// AddProduct registra un producto en el catálogo.
func (s *Store) AddProduct(p entity.Product) {
	s.read(func(st *state) { st.products[p.ID] = p })
}

// AddWarehouse registra una bodega en el directorio.
func (s *Store) AddWarehouse(w entity.Warehouse) {
	s.read(func(st *state) { st.warehouses[w.ID] = w })
}

func copyRelease(r *entity.StockRelease) *entity.StockRelease {
	if r == nil {
		return nil
	}
	c := *r
	c.Items = make([]*entity.StockReleaseItem, len(r.Items))
	for i, it := range r.Items {
		cp := *it
		c.Items[i] = &cp
	}
	return &c
}
