package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/application/inventory"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

// WarehouseHandler consulta de bodegas y su stock (protegido). Las bodegas se administran fuera de este servicio.
type WarehouseHandler struct {
	repo   repository.WarehouseRepository
	levels *inventory.MovementUseCase
}

// NewWarehouseHandler construye el handler.
func NewWarehouseHandler(repo repository.WarehouseRepository, levels *inventory.MovementUseCase) *WarehouseHandler {
	return &WarehouseHandler{repo: repo, levels: levels}
}

// List godoc
// @Summary      Listar bodegas
// @Tags         warehouses
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite (default 20)"
// @Param        offset  query  int  false  "Desplazamiento"
// @Success      200  {object}  dto.WarehouseListResponse
// @Router       /api/warehouses [get]
func (h *WarehouseHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := bindQuery(c, &page); err != nil {
		return err
	}
	page.DefaultPage()
	list, err := h.repo.ListByCompany(c.UserContext(), GetCompanyID(c), page.Limit, page.Offset)
	if err != nil {
		return err
	}
	items := make([]dto.WarehouseResponse, 0, len(list))
	for _, w := range list {
		items = append(items, dto.ToWarehouse(w))
	}
	return c.JSON(dto.WarehouseListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: len(items)},
	})
}

// GetByID godoc
// @Summary      Obtener bodega
// @Tags         warehouses
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Bodega"
// @Success      200  {object}  dto.WarehouseResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/warehouses/{id} [get]
func (h *WarehouseHandler) GetByID(c *fiber.Ctx) error {
	w, err := h.repo.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if w == nil || w.CompanyID != GetCompanyID(c) {
		return domain.ErrNotFound
	}
	return c.JSON(dto.ToWarehouse(w))
}

// Stock godoc
// @Summary      Niveles de stock de una bodega
// @Tags         warehouses
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "Bodega"
// @Param        limit   query  int     false  "Límite (default 20)"
// @Param        offset  query  int     false  "Desplazamiento"
// @Success      200  {array}   dto.StockLevelResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/warehouses/{id}/stock [get]
func (h *WarehouseHandler) Stock(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := bindQuery(c, &page); err != nil {
		return err
	}
	page.DefaultPage()
	list, err := h.levels.ListLevels(c.UserContext(), GetCompanyID(c), c.Params("id"), page.Limit, page.Offset)
	if err != nil {
		return err
	}
	return c.JSON(dto.ToStockLevels(list))
}
