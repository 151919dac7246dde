package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/backoffice-api/internal/application/release"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// ReleaseItemRequest línea solicitada.
type ReleaseItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"gt=0,lte=1000000000"`
}

// CreateReleaseRequest body para POST /api/stock-releases. to_location_id vacío = consumo.
type CreateReleaseRequest struct {
	FromLocationID string               `json:"from_location_id" validate:"required"`
	ToLocationID   string               `json:"to_location_id,omitempty" validate:"omitempty,nefield=FromLocationID"`
	Notes          string               `json:"notes,omitempty" validate:"max=500"`
	Items          []ReleaseItemRequest `json:"items" validate:"required,min=1,max=200,dive"`
}

// ReleaseItemOverride cantidad a liberar de un ítem (0..solicitada).
type ReleaseItemOverride struct {
	ItemID   string `json:"item_id" validate:"required"`
	Quantity int64  `json:"quantity" validate:"min=0,lte=1000000000"`
}

// ReleaseStockRequest body opcional para POST /api/stock-releases/:id/release.
type ReleaseStockRequest struct {
	Items []ReleaseItemOverride `json:"items,omitempty" validate:"dive"`
}

// CancelReleaseRequest body para POST /api/stock-releases/:id/cancel.
type CancelReleaseRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ReleaseQuery filtros de GET /api/stock-releases.
type ReleaseQuery struct {
	PageRequest
	Status     string `query:"status"`
	LocationID string `query:"location_id"`
	From       string `query:"from"`
	To         string `query:"to"`
	Search     string `query:"search" validate:"max=100"`
}

// ReleaseItemResponse línea con costo congelado.
type ReleaseItemResponse struct {
	ID                string          `json:"id"`
	LineNo            int             `json:"line_no"`
	ProductID         string          `json:"product_id"`
	RequestedQuantity int64           `json:"requested_quantity"`
	ReleasedQuantity  int64           `json:"released_quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	TotalCost         decimal.Decimal `json:"total_cost"`
}

// ReleaseResponse despacho con auditoría completa.
type ReleaseResponse struct {
	ID             string                `json:"id"`
	ReleaseNumber  string                `json:"release_number"`
	Status         string                `json:"status"`
	Kind           string                `json:"kind"`
	FromLocationID string                `json:"from_location_id"`
	ToLocationID   string                `json:"to_location_id,omitempty"`
	Notes          string                `json:"notes,omitempty"`
	Items          []ReleaseItemResponse `json:"items"`
	TotalCost      decimal.Decimal       `json:"total_cost"`
	RequestedBy    string                `json:"requested_by"`
	RequestedAt    time.Time             `json:"requested_at"`
	ApprovedBy     string                `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time            `json:"approved_at,omitempty"`
	ReleasedBy     string                `json:"released_by,omitempty"`
	ReleasedAt     *time.Time            `json:"released_at,omitempty"`
	ReceivedBy     string                `json:"received_by,omitempty"`
	ReceivedAt     *time.Time            `json:"received_at,omitempty"`
	CancelledBy    string                `json:"cancelled_by,omitempty"`
	CancelledAt    *time.Time            `json:"cancelled_at,omitempty"`
	CancelReason   string                `json:"cancel_reason,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// ReleaseListResponse página de despachos.
type ReleaseListResponse struct {
	Items []ReleaseResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// ReleaseStatisticsResponse conteos por estado.
type ReleaseStatisticsResponse struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

// Tipos de despacho expuestos.
const (
	KindTransfer    = "TRANSFER"
	KindConsumption = "CONSUMPTION"
)

func ToRelease(r *entity.StockRelease) ReleaseResponse {
	kind := KindConsumption
	if _, ok := entity.DestinationOf(r.Route); ok {
		kind = KindTransfer
	}
	items := make([]ReleaseItemResponse, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, ReleaseItemResponse{
			ID:                it.ID,
			LineNo:            it.LineNo,
			ProductID:         it.ProductID,
			RequestedQuantity: it.RequestedQuantity,
			ReleasedQuantity:  it.ReleasedQuantity,
			UnitCost:          it.UnitCost,
			TotalCost:         it.TotalCost,
		})
	}
	return ReleaseResponse{
		ID:             r.ID,
		ReleaseNumber:  r.ReleaseNumber,
		Status:         string(r.Status),
		Kind:           kind,
		FromLocationID: r.FromLocationID(),
		ToLocationID:   r.ToLocationID(),
		Notes:          r.Notes,
		Items:          items,
		TotalCost:      r.TotalCost(),
		RequestedBy:    r.RequestedBy,
		RequestedAt:    r.RequestedAt,
		ApprovedBy:     r.ApprovedBy,
		ApprovedAt:     r.ApprovedAt,
		ReleasedBy:     r.ReleasedBy,
		ReleasedAt:     r.ReleasedAt,
		ReceivedBy:     r.ReceivedBy,
		ReceivedAt:     r.ReceivedAt,
		CancelledBy:    r.CancelledBy,
		CancelledAt:    r.CancelledAt,
		CancelReason:   r.CancelReason,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func ToStatistics(s *release.Statistics) ReleaseStatisticsResponse {
	by := make(map[string]int, len(s.ByStatus))
	for k, v := range s.ByStatus {
		by[string(k)] = v
	}
	return ReleaseStatisticsResponse{Total: s.Total, ByStatus: by}
}
