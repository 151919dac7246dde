// reconcile recorre los registros de stock y los compara con el ledger.
//
// Uso: go run ./cmd/reconcile [location_id]
// Sale con código 1 si algún registro no cuadra (apto para un cron de verificación).
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/backoffice-api/internal/application/inventory"
	"github.com/jhoicas/backoffice-api/internal/domain/event"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/events"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/postgres"
	"github.com/jhoicas/backoffice-api/pkg/config"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	locationID := ""
	if len(os.Args) > 1 {
		locationID = os.Args[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	var pub event.Publisher = events.NewLogPublisher(log.Component("events"))
	uow := inventory.NewUnitOfWork(postgres.NewTxRunner(pool), pub, log.Component("uow"))
	ledger := inventory.NewLedger(postgres.NewMovementRepository(pool), log.Component("ledger"), nil)
	warehouses := postgres.NewWarehouseRepository(pool)
	uc := inventory.NewMovementUseCase(uow, postgres.NewProductRepository(pool), warehouses, postgres.NewInventoryRepository(pool), ledger)

	checked, drift, err := uc.ReconcileAll(ctx, locationID)
	if err != nil {
		log.Fatal().Err(err).Int("checked", checked).Msg("reconciliación interrumpida")
	}
	for _, d := range drift {
		log.Warn().
			Str("product_id", d.ProductID).
			Str("location_id", d.LocationID).
			Int64("record_quantity", d.RecordQuantity).
			Int64("ledger_quantity", d.LedgerQuantity).
			Int("chain_breaks", d.ChainBreaks).
			Msg("registro descuadrado")
	}
	log.Info().Int("checked", checked).Int("drift", len(drift)).Msg("reconciliación terminada")
	if len(drift) > 0 {
		pool.Close()
		os.Exit(1)
	}
}
