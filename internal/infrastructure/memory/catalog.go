package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var (
	_ repository.ProductCatalog         = (*Catalog)(nil)
	_ repository.LocationDirectory      = locationDirectory{}
	_ repository.WarehouseRepository    = (*Catalog)(nil)
	_ repository.ReleaseNumberGenerator = (*Sequence)(nil)
)

// Catalog productos y bodegas cargados con AddProduct/AddWarehouse.
type Catalog struct{ s *Store }

// Catalog acceso de solo lectura a productos y bodegas.
func (s *Store) Catalog() *Catalog { return &Catalog{s: s} }

func (c *Catalog) Exists(_ context.Context, companyID, productID string) (ok bool, err error) {
	c.s.read(func(st *state) {
		p, found := st.products[productID]
		ok = found && p.CompanyID == companyID
	})
	return
}

func (c *Catalog) GetCost(_ context.Context, companyID, productID string) (cost decimal.Decimal, err error) {
	c.s.read(func(st *state) {
		p, found := st.products[productID]
		if !found || p.CompanyID != companyID {
			err = domain.ErrNotFound
			return
		}
		cost = p.Cost
	})
	return
}

// LocationExists bodega activa de la empresa.
func (c *Catalog) LocationExists(_ context.Context, companyID, locationID string) (ok bool, err error) {
	c.s.read(func(st *state) {
		w, found := st.warehouses[locationID]
		ok = found && w.Active && w.CompanyID == companyID
	})
	return
}

func (c *Catalog) GetByID(_ context.Context, id string) (wh *entity.Warehouse, err error) {
	c.s.read(func(st *state) {
		if w, found := st.warehouses[id]; found {
			wh = &w
		}
	})
	return
}

func (c *Catalog) ListByCompany(_ context.Context, companyID string, limit, offset int) (out []*entity.Warehouse, err error) {
	c.s.read(func(st *state) {
		for _, w := range st.warehouses {
			if w.CompanyID == companyID {
				cp := w
				out = append(out, &cp)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, limit, offset), nil
}

// Locations adapta Catalog al puerto LocationDirectory.
func (c *Catalog) Locations() repository.LocationDirectory { return locationDirectory{c} }

type locationDirectory struct{ c *Catalog }

func (d locationDirectory) Exists(ctx context.Context, companyID, locationID string) (bool, error) {
	return d.c.LocationExists(ctx, companyID, locationID)
}

// Sequence numeración de despachos por empresa y mes.
type Sequence struct {
	s      *Store
	prefix string
}

// Sequence generador con el prefijo indicado.
func (s *Store) Sequence(prefix string) *Sequence { return &Sequence{s: s, prefix: prefix} }

func (q *Sequence) Next(_ context.Context, companyID string, at time.Time) (number string, err error) {
	q.s.read(func(st *state) {
		key := companyID + "|" + entity.ReleasePeriod(at)
		st.sequences[key]++
		number = entity.FormatReleaseNumber(q.prefix, at, st.sequences[key])
	})
	return
}
