package http

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/application/inventory"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

// InventoryHandler movimientos manuales, reservas, niveles y ledger (protegido).
type InventoryHandler struct {
	uc *inventory.MovementUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *inventory.MovementUseCase) *InventoryHandler {
	return &InventoryHandler{uc: uc}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Description  Entrada o salida de un solo lado (compra, ajuste, daño, devolución). Los traslados van por /transfers.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "product_id, location_id, type, quantity, unit_cost opcional"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if err := bindBody(c, &in); err != nil {
		return err
	}
	mt, ok := entity.ParseMovementType(in.Type)
	if !ok {
		return fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, in.Type)
	}
	mov, err := h.uc.Register(c.UserContext(), inventory.MovementRequest{
		CompanyID:     GetCompanyID(c),
		UserID:        GetUserID(c),
		ProductID:     in.ProductID,
		LocationID:    in.LocationID,
		Type:          mt,
		Quantity:      in.Quantity,
		UnitCost:      in.UnitCost,
		ReferenceType: entity.ReferenceType(in.ReferenceType),
		ReferenceID:   in.ReferenceID,
		Notes:         in.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToMovement(mov))
}

// Transfer godoc
// @Summary      Traslado directo entre bodegas
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "product_id, from_location_id, to_location_id, quantity"
// @Success      201   {object}  dto.MovementListResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := bindBody(c, &in); err != nil {
		return err
	}
	movs, err := h.uc.Transfer(c.UserContext(), inventory.TransferRequest{
		CompanyID:      GetCompanyID(c),
		UserID:         GetUserID(c),
		ProductID:      in.ProductID,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Quantity:       in.Quantity,
		Notes:          in.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MovementListResponse{Items: dto.ToMovements(movs)})
}

// Reserve godoc
// @Summary      Reservar unidades
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReservationRequest  true  "product_id, location_id, quantity"
// @Success      200   {object}  dto.SnapshotResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/reservations [post]
func (h *InventoryHandler) Reserve(c *fiber.Ctx) error {
	return h.reservation(c, h.uc.Reserve)
}

// Unreserve godoc
// @Summary      Liberar una reserva
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReservationRequest  true  "product_id, location_id, quantity"
// @Success      200   {object}  dto.SnapshotResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory/reservations/release [post]
func (h *InventoryHandler) Unreserve(c *fiber.Ctx) error {
	return h.reservation(c, h.uc.Unreserve)
}

func (h *InventoryHandler) reservation(c *fiber.Ctx, op func(ctx context.Context, req inventory.ReservationRequest) (inventory.Snapshot, error)) error {
	var in dto.ReservationRequest
	if err := bindBody(c, &in); err != nil {
		return err
	}
	snap, err := op(c.UserContext(), inventory.ReservationRequest{
		CompanyID:  GetCompanyID(c),
		ProductID:  in.ProductID,
		LocationID: in.LocationID,
		Quantity:   in.Quantity,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.ToSnapshot(snap))
}

// GetLevel godoc
// @Summary      Nivel de stock de un producto en una bodega
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id   path  string  true  "Producto"
// @Param        location_id  path  string  true  "Bodega"
// @Success      200  {object}  dto.StockLevelResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/levels/{product_id}/{location_id} [get]
func (h *InventoryHandler) GetLevel(c *fiber.Ctx) error {
	rec, err := h.uc.GetLevel(c.UserContext(), GetCompanyID(c), c.Params("product_id"), c.Params("location_id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.ToStockLevel(rec))
}

// ListMovements godoc
// @Summary      Historial del ledger (paginado por cursor)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  false  "Producto"
// @Param        location_id   query  string  false  "Bodega"
// @Param        reference_id  query  string  false  "Documento origen"
// @Param        limit         query  int     false  "Máximo 1000"
// @Param        after_at      query  string  false  "Cursor: created_at RFC3339Nano"
// @Param        after_seq     query  int     false  "Cursor: seq"
// @Success      200  {object}  dto.MovementListResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	var q dto.MovementQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	filter := repository.MovementFilter{
		ProductID:   q.ProductID,
		LocationID:  q.LocationID,
		ReferenceID: q.ReferenceID,
		Limit:       q.Limit,
	}
	if q.AfterAt != "" {
		at, err := time.Parse(time.RFC3339Nano, q.AfterAt)
		if err != nil {
			return fmt.Errorf("%w: after_at debe ser RFC3339", domain.ErrInvalidInput)
		}
		filter.After = &repository.MovementCursor{CreatedAt: at, Seq: q.AfterSeq}
	}
	page, err := h.uc.Movements(c.UserContext(), GetCompanyID(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.ToMovementPage(page))
}

// Reconcile godoc
// @Summary      Reconciliar un registro contra el ledger
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id   path  string  true  "Producto"
// @Param        location_id  path  string  true  "Bodega"
// @Success      200  {object}  dto.ReconciliationResponse
// @Router       /api/inventory/reconcile/{product_id}/{location_id} [get]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	res, err := h.uc.Reconcile(c.UserContext(), GetCompanyID(c), c.Params("product_id"), c.Params("location_id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.ToReconciliation(res))
}
