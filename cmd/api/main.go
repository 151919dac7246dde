package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/backoffice-api/internal/application/inventory"
	"github.com/jhoicas/backoffice-api/internal/application/release"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/metrics"
	httpRouter "github.com/jhoicas/backoffice-api/internal/interfaces/http"
	"github.com/jhoicas/backoffice-api/pkg/config"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Str("events", cfg.Events.Backend).
		Msg("iniciando aplicación")
	if cfg.JWT.Secret == "" {
		log.Warn().Msg("JWT_SECRET vacío: todas las rutas protegidas responderán 401")
	}

	ctx := context.Background()
	be, err := openBackend(ctx, cfg, log.Component("storage"))
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar persistencia")
	}
	defer be.Close()

	m := metrics.New()
	uow := inventory.NewUnitOfWork(
		m.InstrumentTx(be.tx),
		be.publisher(cfg, log.Component("events"), m),
		log.Component("uow"),
	)
	ledger := inventory.NewLedger(be.movements, log.Component("ledger"), nil)
	movementUC := inventory.NewMovementUseCase(uow, be.catalog, be.locations, be.stock, ledger)
	if err := be.loadOpeningStock(ctx, movementUC); err != nil {
		log.Fatal().Err(err).Msg("existencias iniciales")
	}
	releaseUC := release.NewWorkflowUseCase(uow, be.releases, be.catalog, be.locations, be.numbers, log.Component("workflow"))

	app := httpRouter.NewApp(httpRouter.AppConfig{
		Name:      cfg.App.Name,
		BodyLimit: cfg.HTTP.BodyLimitMB * 1024 * 1024,
	}, httpRouter.RouterDeps{
		Movements:  movementUC,
		Releases:   releaseUC,
		Warehouses: be.warehouses,
		JWTSecret:  cfg.JWT.Secret,
		JWTIssuer:  cfg.JWT.Issuer,
		Metrics:    m,
		Log:        log.Component("http"),
	})

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Backoffice Inventory API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
