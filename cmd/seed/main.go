// seed carga bodegas, productos y existencias iniciales desde el XML del ERP anterior.
//
// Uso: go run ./cmd/seed [ruta/catalogo.xml]
// Por defecto busca catalogo.xml en el directorio actual. Los id de bodegas y productos son UUID.
// Los registros ya existentes se omiten; las existencias entran como ADJUSTMENT_IN para que el
// ledger cuadre desde el primer día.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/jhoicas/backoffice-api/internal/application/inventory"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/catalogxml"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/events"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/postgres"
	"github.com/jhoicas/backoffice-api/pkg/config"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

const seedUser = "seed"

func main() {
	xmlPath := "catalogo.xml"
	if len(os.Args) > 1 {
		xmlPath = os.Args[1]
	}
	cat, err := catalogxml.ParseFile(xmlPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Catálogo: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Component("seed")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := load(ctx, pool, cat, log); err != nil {
		log.Error().Err(err).Msg("seed incompleto")
		pool.Close()
		os.Exit(1)
	}
}

func load(ctx context.Context, pool *pgxpool.Pool, cat *catalogxml.Catalog, log zerolog.Logger) error {
	now := time.Now().UTC()
	warehouses := postgres.NewWarehouseRepository(pool)
	products := postgres.NewProductRepository(pool)

	var created, skipped int
	for _, w := range cat.Warehouses(now) {
		if err := countInsert(warehouses.Create(ctx, &w), &created, &skipped); err != nil {
			return fmt.Errorf("bodega %s: %w", w.ID, err)
		}
	}
	for _, p := range cat.Products(now) {
		if err := countInsert(products.Create(ctx, &p), &created, &skipped); err != nil {
			return fmt.Errorf("producto %s: %w", p.SKU, err)
		}
	}
	log.Info().Int("creados", created).Int("omitidos", skipped).Msg("catálogo cargado")

	uow := inventory.NewUnitOfWork(postgres.NewTxRunner(pool), events.NewLogPublisher(log), log)
	ledger := inventory.NewLedger(postgres.NewMovementRepository(pool), log, nil)
	uc := inventory.NewMovementUseCase(uow, products, warehouses, postgres.NewInventoryRepository(pool), ledger)
	stock := cat.OpeningStock(seedUser)
	for _, req := range stock {
		if _, err := uc.Register(ctx, req); err != nil {
			return fmt.Errorf("existencia %s/%s: %w", req.ProductID, req.LocationID, err)
		}
	}
	log.Info().Int("existencias", len(stock)).Msg("existencias iniciales registradas")
	return nil
}

func countInsert(err error, created, skipped *int) error {
	switch {
	case err == nil:
		*created++
	case errors.Is(err, domain.ErrDuplicate):
		*skipped++
	default:
		return err
	}
	return nil
}
