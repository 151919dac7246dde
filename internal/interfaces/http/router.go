package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/backoffice-api/internal/application/inventory"
	"github.com/jhoicas/backoffice-api/internal/application/release"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
	"github.com/jhoicas/backoffice-api/pkg/jwt"
)

// Metrics lo que el router necesita de la capa de métricas.
type Metrics interface {
	ErrorObserver
	Middleware() fiber.Handler
	Handler() fiber.Handler
}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Movements  *inventory.MovementUseCase
	Releases   *release.WorkflowUseCase
	Warehouses repository.WarehouseRepository
	JWTSecret  string
	JWTIssuer  string
	Metrics    Metrics // opcional
	Log        zerolog.Logger
}

// AppConfig parámetros del servidor Fiber.
type AppConfig struct {
	Name      string
	BodyLimit int // bytes; 0 = default de Fiber
}

// NewApp crea la app Fiber con manejo de errores, request id, recover y métricas, y registra las rutas.
func NewApp(cfg AppConfig, deps RouterDeps) *fiber.App {
	var observer ErrorObserver
	if deps.Metrics != nil {
		observer = deps.Metrics
	}
	app := fiber.New(fiber.Config{
		AppName:      cfg.Name,
		BodyLimit:    cfg.BodyLimit,
		ErrorHandler: NewErrorHandler(deps.Log, observer),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	if deps.Metrics != nil {
		app.Use(deps.Metrics.Middleware())
		app.Get("/metrics", deps.Metrics.Handler())
	}
	Router(app, deps)
	return app
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	anyRole := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero, jwt.RoleVendedor)
	warehouseStaff := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero)
	adminOnly := RequireRole(jwt.RoleAdmin)

	// Rutas protegidas (requieren Bearer Token)
	protected := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))

	// Warehouses (solo lectura)
	warehouses := protected.Group("/warehouses", anyRole)
	warehouseHandler := NewWarehouseHandler(deps.Warehouses, deps.Movements)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Get("/:id/stock", warehouseHandler.Stock)

	// Inventory: movimientos, reservas, niveles y ledger
	inv := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Movements)
	inv.Post("/movements", warehouseStaff, inventoryHandler.RegisterMovement)
	inv.Get("/movements", anyRole, inventoryHandler.ListMovements)
	inv.Post("/transfers", warehouseStaff, inventoryHandler.Transfer)
	inv.Post("/reservations", anyRole, inventoryHandler.Reserve)
	inv.Post("/reservations/release", anyRole, inventoryHandler.Unreserve)
	inv.Get("/levels/:product_id/:location_id", anyRole, inventoryHandler.GetLevel)
	inv.Get("/reconcile/:product_id/:location_id", adminOnly, inventoryHandler.Reconcile)

	// Stock releases (despachos)
	rel := protected.Group("/stock-releases")
	releaseHandler := NewReleaseHandler(deps.Releases)
	rel.Post("/", anyRole, releaseHandler.Create)
	rel.Get("/", anyRole, releaseHandler.List)
	rel.Get("/statistics", anyRole, releaseHandler.Statistics)
	rel.Get("/:id", anyRole, releaseHandler.Get)
	rel.Post("/:id/approve", adminOnly, releaseHandler.Approve)
	rel.Post("/:id/release", warehouseStaff, releaseHandler.Release)
	rel.Post("/:id/receive", warehouseStaff, releaseHandler.Receive)
	rel.Post("/:id/cancel", adminOnly, releaseHandler.Cancel)
	rel.Delete("/:id", adminOnly, releaseHandler.Delete)
}
