package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/application/release"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

// ReleaseHandler ciclo de vida de despachos de stock (protegido).
type ReleaseHandler struct {
	uc *release.WorkflowUseCase
}

// NewReleaseHandler construye el handler.
func NewReleaseHandler(uc *release.WorkflowUseCase) *ReleaseHandler {
	return &ReleaseHandler{uc: uc}
}

// Create godoc
// @Summary      Crear despacho
// @Description  Traslado (con to_location_id) o consumo (sin destino). Queda PENDING; valida disponibilidad pero no reserva.
// @Tags         stock-releases
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateReleaseRequest  true  "from_location_id, to_location_id opcional, items"
// @Success      201   {object}  dto.ReleaseResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock-releases [post]
func (h *ReleaseHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateReleaseRequest
	if err := bindBody(c, &in); err != nil {
		return err
	}
	items := make([]release.ItemInput, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, release.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	rel, err := h.uc.Create(c.UserContext(), release.CreateInput{
		CompanyID:      GetCompanyID(c),
		RequestedBy:    GetUserID(c),
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Notes:          in.Notes,
		Items:          items,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToRelease(rel))
}

// List godoc
// @Summary      Listar despachos
// @Tags         stock-releases
// @Security     Bearer
// @Produce      json
// @Param        status       query  string  false  "PENDING, APPROVED, RELEASED, COMPLETED, CANCELLED"
// @Param        location_id  query  string  false  "Origen o destino"
// @Param        from         query  string  false  "Desde (RFC3339 o YYYY-MM-DD)"
// @Param        to           query  string  false  "Hasta (RFC3339 o YYYY-MM-DD, inclusive)"
// @Param        search       query  string  false  "Número o notas, sin distinguir tildes"
// @Param        limit        query  int     false  "Máximo 100"
// @Param        offset       query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.ReleaseListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock-releases [get]
func (h *ReleaseHandler) List(c *fiber.Ctx) error {
	var q dto.ReleaseQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}
	q.DefaultPage()
	from, err := parseDate(q.From, false)
	if err != nil {
		return err
	}
	to, err := parseDate(q.To, true)
	if err != nil {
		return err
	}
	list, total, err := h.uc.List(c.UserContext(), repository.ReleaseFilter{
		CompanyID:  GetCompanyID(c),
		Status:     entity.ReleaseStatus(q.Status),
		LocationID: q.LocationID,
		From:       from,
		To:         to,
		Search:     q.Search,
		Limit:      q.Limit,
		Offset:     q.Offset,
	})
	if err != nil {
		return err
	}
	items := make([]dto.ReleaseResponse, 0, len(list))
	for _, rel := range list {
		items = append(items, dto.ToRelease(rel))
	}
	return c.JSON(dto.ReleaseListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset, Total: total},
	})
}

// parseDate acepta RFC3339 o fecha simple; una fecha simple como límite superior cubre el día completo.
func parseDate(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("%w: fecha %q", domain.ErrInvalidInput, s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// Statistics godoc
// @Summary      Conteo de despachos por estado
// @Tags         stock-releases
// @Security     Bearer
// @Produce      json
// @Param        location_id  query  string  false  "Origen o destino"
// @Success      200  {object}  dto.ReleaseStatisticsResponse
// @Router       /api/stock-releases/statistics [get]
func (h *ReleaseHandler) Statistics(c *fiber.Ctx) error {
	st, err := h.uc.Statistics(c.UserContext(), GetCompanyID(c), c.Query("location_id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.ToStatistics(st))
}

// Get godoc
// @Summary      Obtener despacho
// @Tags         stock-releases
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Despacho"
// @Success      200  {object}  dto.ReleaseResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock-releases/{id} [get]
func (h *ReleaseHandler) Get(c *fiber.Ctx) error {
	rel, err := h.uc.Get(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.ToRelease(rel))
}

// Approve godoc
// @Summary      Aprobar despacho (PENDING → APPROVED)
// @Tags         stock-releases
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Despacho"
// @Success      200  {object}  dto.ReleaseResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock-releases/{id}/approve [post]
func (h *ReleaseHandler) Approve(c *fiber.Ctx) error {
	return h.respond(c)(h.uc.Approve(c.UserContext(), GetCompanyID(c), c.Params("id"), GetUserID(c)))
}

// Release godoc
// @Summary      Liberar stock (APPROVED → RELEASED, o COMPLETED si es consumo)
// @Description  Body opcional con cantidades por ítem; sin body se libera lo solicitado.
// @Tags         stock-releases
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true   "Despacho"
// @Param        body  body  dto.ReleaseStockRequest  false  "items: item_id, quantity"
// @Success      200  {object}  dto.ReleaseResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock-releases/{id}/release [post]
func (h *ReleaseHandler) Release(c *fiber.Ctx) error {
	var in dto.ReleaseStockRequest
	if len(c.Body()) > 0 {
		if err := bindBody(c, &in); err != nil {
			return err
		}
	}
	var overrides map[string]int64
	if len(in.Items) > 0 {
		overrides = make(map[string]int64, len(in.Items))
		for _, it := range in.Items {
			overrides[it.ItemID] = it.Quantity
		}
	}
	return h.respond(c)(h.uc.Release(c.UserContext(), GetCompanyID(c), c.Params("id"), GetUserID(c), overrides))
}

// Receive godoc
// @Summary      Recibir traslado (RELEASED → COMPLETED)
// @Tags         stock-releases
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Despacho"
// @Success      200  {object}  dto.ReleaseResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock-releases/{id}/receive [post]
func (h *ReleaseHandler) Receive(c *fiber.Ctx) error {
	return h.respond(c)(h.uc.Receive(c.UserContext(), GetCompanyID(c), c.Params("id"), GetUserID(c)))
}

// Cancel godoc
// @Summary      Cancelar despacho
// @Description  Si el stock ya salió del origen, se revierte con movimientos de reversa.
// @Tags         stock-releases
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "Despacho"
// @Param        body  body  dto.CancelReleaseRequest  true  "reason"
// @Success      200  {object}  dto.ReleaseResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock-releases/{id}/cancel [post]
func (h *ReleaseHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelReleaseRequest
	if err := bindBody(c, &in); err != nil {
		return err
	}
	return h.respond(c)(h.uc.Cancel(c.UserContext(), GetCompanyID(c), c.Params("id"), GetUserID(c), in.Reason))
}

// Delete godoc
// @Summary      Eliminar despacho (solo PENDING o CANCELLED)
// @Tags         stock-releases
// @Security     Bearer
// @Param        id  path  string  true  "Despacho"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock-releases/{id} [delete]
func (h *ReleaseHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), GetCompanyID(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ReleaseHandler) respond(c *fiber.Ctx) func(*entity.StockRelease, error) error {
	return func(rel *entity.StockRelease, err error) error {
		if err != nil {
			return err
		}
		return c.JSON(dto.ToRelease(rel))
	}
}
