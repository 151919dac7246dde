package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/backoffice-api/internal/application/inventory"
	"github.com/jhoicas/backoffice-api/internal/domain/event"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/catalogxml"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/events"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/memory"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/migration"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/postgres"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/redisx"
	"github.com/jhoicas/backoffice-api/pkg/config"
)

const seedUser = "seed"

// backend adaptadores de persistencia ya elegidos según STORAGE_DRIVER.
type backend struct {
	tx         inventory.TxRunner
	stock      repository.InventoryRepository
	movements  repository.MovementRepository
	releases   repository.StockReleaseRepository
	catalog    repository.ProductCatalog
	locations  repository.LocationDirectory
	warehouses repository.WarehouseRepository
	numbers    repository.ReleaseNumberGenerator
	redis      *redis.Client // nil si REDIS_ADDR está vacío
	opening    []inventory.MovementRequest
	closers    []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*backend, error) {
	b := &backend{}

	if cfg.Redis.Enabled() {
		client, err := redisx.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		b.redis = client
		b.closers = append(b.closers, func() { _ = client.Close() })
	}

	switch cfg.Storage.Driver {
	case config.StorageMemory:
		log.Warn().Msg("STORAGE_DRIVER=memory: los datos se pierden al reiniciar")
		mem := memory.New()
		if cfg.Storage.SeedFile != "" {
			seed, err := catalogxml.ParseFile(cfg.Storage.SeedFile)
			if err != nil {
				b.Close()
				return nil, err
			}
			now := time.Now().UTC()
			for _, w := range seed.Warehouses(now) {
				mem.AddWarehouse(w)
			}
			for _, p := range seed.Products(now) {
				mem.AddProduct(p)
			}
			b.opening = seed.OpeningStock(seedUser)
			log.Info().Str("file", cfg.Storage.SeedFile).Int("bodegas", len(seed.Bodegas)).
				Int("productos", len(seed.Productos)).Msg("catálogo en memoria cargado")
		} else {
			log.Warn().Msg("MEMORY_SEED_FILE vacío: catálogo sin productos ni bodegas")
		}
		cat := mem.Catalog()
		b.tx = mem
		b.stock = mem.InventoryRepository()
		b.movements = mem.MovementRepository()
		b.releases = mem.StockReleaseRepository()
		b.catalog = cat
		b.locations = cat.Locations()
		b.warehouses = cat
		b.numbers = mem.Sequence(cfg.Release.NumberPrefix)
	default:
		if cfg.Storage.AutoMigrate {
			if err := migrate(cfg, log); err != nil {
				b.Close()
				return nil, err
			}
		}
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		warehouses := postgres.NewWarehouseRepository(pool)
		b.tx = postgres.NewTxRunner(pool)
		b.stock = postgres.NewInventoryRepository(pool)
		b.movements = postgres.NewMovementRepository(pool)
		b.releases = postgres.NewStockReleaseRepository(pool)
		b.catalog = postgres.NewProductRepository(pool)
		b.locations = warehouses
		b.warehouses = warehouses
		b.numbers = postgres.NewReleaseSequence(pool, cfg.Release.NumberPrefix)
	}

	// Config.Validate ya exige REDIS_ADDR para los backends redis.
	if cfg.Release.SequenceBackend == config.BackendRedis {
		b.numbers = redisx.NewSequence(b.redis, cfg.Release.NumberPrefix)
	}
	return b, nil
}

// loadOpeningStock registra las existencias iniciales del catálogo en memoria por el ledger.
func (b *backend) loadOpeningStock(ctx context.Context, uc *inventory.MovementUseCase) error {
	for _, req := range b.opening {
		if _, err := uc.Register(ctx, req); err != nil {
			return fmt.Errorf("existencia inicial %s/%s: %w", req.ProductID, req.LocationID, err)
		}
	}
	return nil
}

func migrate(cfg *config.Config, log zerolog.Logger) error {
	m, err := migration.New(cfg.DB.ConnectionString(), log)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up()
}

// publisher arma la cadena de publicación: los extra (métricas) más log o Redis.
func (b *backend) publisher(cfg *config.Config, log zerolog.Logger, extra ...event.Publisher) event.Publisher {
	out := events.FanOut(extra)
	switch cfg.Events.Backend {
	case config.BackendRedis:
		out = append(out, redisx.NewPublisher(b.redis, cfg.Events.Channel))
	default:
		out = append(out, events.NewLogPublisher(log))
	}
	return out
}
