//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/backoffice-api/internal/application/inventory"
	"github.com/jhoicas/backoffice-api/internal/application/release"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/events"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/migration"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/postgres"
)

type pgEnv struct {
	ctx       context.Context
	pool      *pgxpool.Pool
	company   string
	main      string
	shop      string
	productA  string
	productB  string
	movements *inventory.MovementUseCase
	workflow  *release.WorkflowUseCase
}

func newPgEnv(t *testing.T) *pgEnv {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("backoffice_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migration.New(dsn, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	pool, err := postgres.Connect(ctx, dsn, postgres.PoolOptions{MaxConns: 10})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	env := &pgEnv{
		ctx:      ctx,
		pool:     pool,
		company:  uuid.NewString(),
		main:     uuid.NewString(),
		shop:     uuid.NewString(),
		productA: uuid.NewString(),
		productB: uuid.NewString(),
	}
	now := time.Now().UTC()
	warehouses := postgres.NewWarehouseRepository(pool)
	for _, w := range []struct{ id, name string }{{env.main, "Principal"}, {env.shop, "Taller"}} {
		require.NoError(t, warehouses.Create(ctx, &entity.Warehouse{
			ID: w.id, CompanyID: env.company, Name: w.name, Active: true, CreatedAt: now, UpdatedAt: now,
		}))
	}
	products := postgres.NewProductRepository(pool)
	for _, p := range []struct {
		id, sku string
		cost    decimal.Decimal
	}{{env.productA, "A-1", decimal.NewFromInt(10)}, {env.productB, "B-1", decimal.RequireFromString("2.5")}} {
		require.NoError(t, products.Create(ctx, &entity.Product{
			ID: p.id, CompanyID: env.company, SKU: p.sku, Name: p.sku, Cost: p.cost, CreatedAt: now, UpdatedAt: now,
		}))
	}

	log := zerolog.Nop()
	uow := inventory.NewUnitOfWork(postgres.NewTxRunner(pool), events.NewLogPublisher(log), log)
	ledger := inventory.NewLedger(postgres.NewMovementRepository(pool), log, nil)
	env.movements = inventory.NewMovementUseCase(uow, products, warehouses, postgres.NewInventoryRepository(pool), ledger)
	env.workflow = release.NewWorkflowUseCase(uow, postgres.NewStockReleaseRepository(pool), products, warehouses,
		postgres.NewReleaseSequence(pool, "DSP"), log)
	return env
}

func (e *pgEnv) stock(t *testing.T, productID, locationID string, qty int64) {
	t.Helper()
	_, err := e.movements.Register(e.ctx, inventory.MovementRequest{
		CompanyID: e.company, UserID: "u-1", ProductID: productID, LocationID: locationID,
		Type: entity.MovementPurchase, Quantity: qty,
	})
	require.NoError(t, err)
}

func TestPostgres_ReleaseWorkflow(t *testing.T) {
	env := newPgEnv(t)
	env.stock(t, env.productA, env.main, 50)
	env.stock(t, env.productB, env.main, 8)

	rel, err := env.workflow.Create(env.ctx, release.CreateInput{
		CompanyID: env.company, RequestedBy: "u-1", FromLocationID: env.main, ToLocationID: env.shop,
		Notes: "Reposición taller", Items: []release.ItemInput{{ProductID: env.productA, Quantity: 20}, {ProductID: env.productB, Quantity: 8}},
	})
	require.NoError(t, err)
	assert.Regexp(t, `^DSP-\d{6}-0001$`, rel.ReleaseNumber)

	_, err = env.workflow.Approve(env.ctx, env.company, rel.ID, "admin")
	require.NoError(t, err)
	_, err = env.workflow.Release(env.ctx, env.company, rel.ID, "bodega", nil)
	require.NoError(t, err)
	done, err := env.workflow.Receive(env.ctx, env.company, rel.ID, "taller")
	require.NoError(t, err)
	assert.Equal(t, entity.ReleaseCompleted, done.Status)

	src, err := env.movements.GetLevel(env.ctx, env.company, env.productA, env.main)
	require.NoError(t, err)
	dst, err := env.movements.GetLevel(env.ctx, env.company, env.productA, env.shop)
	require.NoError(t, err)
	assert.Equal(t, int64(30), src.Quantity)
	assert.Equal(t, int64(20), dst.Quantity)

	page, err := env.movements.Movements(env.ctx, env.company, repository.MovementFilter{ReferenceID: rel.ID})
	require.NoError(t, err)
	assert.Len(t, page.Items, 4)

	rec, err := env.movements.Reconcile(env.ctx, env.company, env.productA, env.main)
	require.NoError(t, err)
	assert.True(t, rec.Balanced)
	assert.Zero(t, rec.ChainBreaks)

	list, total, err := env.workflow.List(env.ctx, repository.ReleaseFilter{CompanyID: env.company, Search: "reposicion"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Items, 2)
}

func TestPostgres_ReleaseSearchIsLiteral(t *testing.T) {
	env := newPgEnv(t)
	env.stock(t, env.productA, env.main, 10)
	for _, notes := range []string{"descuento 10% taller", "pedido_urgente", "reposición normal"} {
		_, err := env.workflow.Create(env.ctx, release.CreateInput{
			CompanyID: env.company, RequestedBy: "u-1", FromLocationID: env.main, Notes: notes,
			Items: []release.ItemInput{{ProductID: env.productA, Quantity: 1}},
		})
		require.NoError(t, err)
	}

	count := func(search string) int {
		_, total, err := env.workflow.List(env.ctx, repository.ReleaseFilter{CompanyID: env.company, Search: search})
		require.NoError(t, err)
		return total
	}
	assert.Equal(t, 1, count("%"))
	assert.Equal(t, 1, count("10%"))
	assert.Equal(t, 1, count("_"))
	assert.Equal(t, 0, count("pedido%urgente"))
	assert.Equal(t, 3, count(""))
}

func TestPostgres_InsufficientStockRollsBack(t *testing.T) {
	env := newPgEnv(t)
	env.stock(t, env.productA, env.main, 5)

	rel, err := env.workflow.Create(env.ctx, release.CreateInput{
		CompanyID: env.company, RequestedBy: "u-1", FromLocationID: env.main,
		Items: []release.ItemInput{{ProductID: env.productA, Quantity: 5}},
	})
	require.NoError(t, err)
	_, err = env.workflow.Approve(env.ctx, env.company, rel.ID, "admin")
	require.NoError(t, err)

	_, err = env.movements.Register(env.ctx, inventory.MovementRequest{
		CompanyID: env.company, UserID: "u-1", ProductID: env.productA, LocationID: env.main,
		Type: entity.MovementDamaged, Quantity: 2,
	})
	require.NoError(t, err)

	_, err = env.workflow.Release(env.ctx, env.company, rel.ID, "bodega", nil)
	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, int64(3), ise.Available)

	got, err := env.workflow.Get(env.ctx, env.company, rel.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ReleaseApproved, got.Status)
	lvl, err := env.movements.GetLevel(env.ctx, env.company, env.productA, env.main)
	require.NoError(t, err)
	assert.Equal(t, int64(3), lvl.Quantity)
}

func TestPostgres_ConcurrentReleaseSerializes(t *testing.T) {
	env := newPgEnv(t)
	env.stock(t, env.productA, env.main, 10)

	ids := make([]string, 2)
	for i := range ids {
		rel, err := env.workflow.Create(env.ctx, release.CreateInput{
			CompanyID: env.company, RequestedBy: "u-1", FromLocationID: env.main,
			Items: []release.ItemInput{{ProductID: env.productA, Quantity: 7}},
		})
		require.NoError(t, err)
		_, err = env.workflow.Approve(env.ctx, env.company, rel.ID, "admin")
		require.NoError(t, err)
		ids[i] = rel.ID
	}

	var wg sync.WaitGroup
	errs := make([]error, len(ids))
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = env.workflow.Release(env.ctx, env.company, id, "bodega", nil)
		}()
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	}
	assert.Equal(t, 1, ok)
	lvl, err := env.movements.GetLevel(env.ctx, env.company, env.productA, env.main)
	require.NoError(t, err)
	assert.Equal(t, int64(3), lvl.Quantity)
}

func TestPostgres_LedgerIsAppendOnly(t *testing.T) {
	env := newPgEnv(t)
	env.stock(t, env.productA, env.main, 1)

	_, err := env.pool.Exec(env.ctx, `UPDATE inventory_movements SET quantity = 99`)
	assert.Error(t, err)
	_, err = env.pool.Exec(env.ctx, `DELETE FROM inventory_movements`)
	assert.Error(t, err)
}

func TestPostgres_LedgerUsesDatabaseClock(t *testing.T) {
	env := newPgEnv(t)
	stale := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)
	ledger := inventory.NewLedger(postgres.NewMovementRepository(env.pool), zerolog.Nop(), func() time.Time { return stale })

	before := time.Now().Add(-time.Hour)
	for i, q := range [][2]int64{{0, 4}, {4, 9}} {
		m, err := ledger.Record(env.ctx, inventory.MovementInput{
			CompanyID: env.company, ProductID: env.productB, LocationID: env.shop,
			Type: entity.MovementPurchase, Quantity: q[1] - q[0], QuantityBefore: q[0], QuantityAfter: q[1],
			ReferenceType: entity.ReferenceManualAdjustment, ReferenceID: fmt.Sprintf("clock-%d", i),
		})
		require.NoError(t, err)
		assert.True(t, m.CreatedAt.After(before), "created_at lo fija la BD")
	}

	res, err := ledger.Reconcile(env.ctx, &entity.InventoryRecord{Quantity: 9}, env.productB, env.shop)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Entries)
	assert.Zero(t, res.ChainBreaks)
	assert.True(t, res.Balanced)
}

func TestPostgres_ReleaseSequencePerCompanyAndMonth(t *testing.T) {
	env := newPgEnv(t)
	seq := postgres.NewReleaseSequence(env.pool, "DSP")
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	a, err := seq.Next(env.ctx, env.company, at)
	require.NoError(t, err)
	b, err := seq.Next(env.ctx, env.company, at)
	require.NoError(t, err)
	other, err := seq.Next(env.ctx, uuid.NewString(), at)
	require.NoError(t, err)
	next, err := seq.Next(env.ctx, env.company, at.AddDate(0, 1, 0))
	require.NoError(t, err)

	assert.Equal(t, "DSP-202603-0001", a)
	assert.Equal(t, "DSP-202603-0002", b)
	assert.Equal(t, "DSP-202603-0001", other)
	assert.Equal(t, "DSP-202604-0001", next)
}

func TestPostgres_CatalogLookups(t *testing.T) {
	env := newPgEnv(t)
	products := postgres.NewProductRepository(env.pool)
	warehouses := postgres.NewWarehouseRepository(env.pool)

	p, err := products.GetByID(env.ctx, env.productB)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "B-1", p.SKU)
	assert.True(t, decimal.RequireFromString("2.5").Equal(p.Cost))

	p, err = products.GetByID(env.ctx, "no-es-uuid")
	require.NoError(t, err)
	assert.Nil(t, p)

	err = products.Create(env.ctx, &entity.Product{
		ID: uuid.NewString(), CompanyID: env.company, SKU: "A-1", Name: "repetido",
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	list, err := warehouses.ListByCompany(env.ctx, env.company, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Principal", list[0].Name)

	rel, err := env.workflow.Get(env.ctx, env.company, "no-es-uuid")
	assert.Nil(t, rel)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
