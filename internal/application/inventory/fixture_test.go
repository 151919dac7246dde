package inventory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/backoffice-api/internal/application/inventory"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/event"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/memory"
)

const (
	companyID = "c-1"
	otherCo   = "c-2"
	userID    = "u-1"
	prodA     = "p-a"
	prodB     = "p-b"
	prodOther = "p-x"
	whMain    = "w-main"
	whShop    = "w-shop"
)

type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) Publish(_ context.Context, evs ...event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evs...)
	return nil
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Name()
	}
	return out
}

type fixture struct {
	ctx    context.Context
	mem    *memory.Store
	uow    *inventory.UnitOfWork
	ledger *inventory.Ledger
	uc     *inventory.MovementUseCase
	events *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := memory.New()
	mem.AddProduct(entity.Product{ID: prodA, CompanyID: companyID, SKU: "A", Cost: decimal.NewFromInt(10)})
	mem.AddProduct(entity.Product{ID: prodB, CompanyID: companyID, SKU: "B", Cost: decimal.RequireFromString("2.5")})
	mem.AddProduct(entity.Product{ID: prodOther, CompanyID: otherCo, SKU: "X", Cost: decimal.NewFromInt(1)})
	mem.AddWarehouse(entity.Warehouse{ID: whMain, CompanyID: companyID, Name: "Principal", Active: true})
	mem.AddWarehouse(entity.Warehouse{ID: whShop, CompanyID: companyID, Name: "Taller", Active: true})

	rec := &recorder{}
	uow := inventory.NewUnitOfWork(mem, rec, zerolog.Nop())
	ledger := inventory.NewLedger(mem.MovementRepository(), zerolog.Nop(), nil)
	cat := mem.Catalog()
	return &fixture{
		ctx:    context.Background(),
		mem:    mem,
		uow:    uow,
		ledger: ledger,
		uc:     inventory.NewMovementUseCase(uow, cat, cat.Locations(), mem.InventoryRepository(), ledger),
		events: rec,
	}
}

func (f *fixture) purchase(t *testing.T, productID, locationID string, qty int64) {
	t.Helper()
	_, err := f.uc.Register(f.ctx, inventory.MovementRequest{
		CompanyID: companyID, UserID: userID, ProductID: productID, LocationID: locationID,
		Type: entity.MovementPurchase, Quantity: qty,
	})
	if err != nil {
		t.Fatalf("compra inicial: %v", err)
	}
}

func (f *fixture) level(t *testing.T, productID, locationID string) *entity.InventoryRecord {
	t.Helper()
	rec, err := f.uc.GetLevel(f.ctx, companyID, productID, locationID)
	if err != nil {
		t.Fatalf("nivel: %v", err)
	}
	return rec
}
