package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/backoffice-api/internal/application/inventory"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
type RegisterMovementRequest struct {
	ProductID     string           `json:"product_id" validate:"required"`
	LocationID    string           `json:"location_id" validate:"required"`
	Type          string           `json:"type" validate:"required"`
	Quantity      int64            `json:"quantity" validate:"gt=0,lte=1000000000"`
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty"`
	ReferenceType string           `json:"reference_type,omitempty"`
	ReferenceID   string           `json:"reference_id,omitempty" validate:"max=100"`
	Notes         string           `json:"notes,omitempty" validate:"max=500"`
}

// TransferRequest body para POST /api/inventory/transfers.
type TransferRequest struct {
	ProductID      string `json:"product_id" validate:"required"`
	FromLocationID string `json:"from_location_id" validate:"required"`
	ToLocationID   string `json:"to_location_id" validate:"required,nefield=FromLocationID"`
	Quantity       int64  `json:"quantity" validate:"gt=0,lte=1000000000"`
	Notes          string `json:"notes,omitempty" validate:"max=500"`
}

// ReservationRequest body para POST /api/inventory/reservations y /api/inventory/reservations/release.
type ReservationRequest struct {
	ProductID  string `json:"product_id" validate:"required"`
	LocationID string `json:"location_id" validate:"required"`
	Quantity   int64  `json:"quantity" validate:"gt=0,lte=1000000000"`
}

// MovementQuery filtros de GET /api/inventory/movements.
type MovementQuery struct {
	ProductID   string `query:"product_id"`
	LocationID  string `query:"location_id"`
	ReferenceID string `query:"reference_id"`
	Limit       int    `query:"limit" validate:"min=0,max=1000"`
	AfterAt     string `query:"after_at"`
	AfterSeq    int64  `query:"after_seq" validate:"min=0"`
}

// StockLevelResponse salida de un InventoryRecord.
type StockLevelResponse struct {
	ProductID        string    `json:"product_id"`
	LocationID       string    `json:"location_id"`
	Quantity         int64     `json:"quantity"`
	ReservedQuantity int64     `json:"reserved_quantity"`
	Available        int64     `json:"available_quantity"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// SnapshotResponse estado antes/después de una reserva.
type SnapshotResponse struct {
	ProductID      string `json:"product_id"`
	LocationID     string `json:"location_id"`
	QuantityAfter  int64  `json:"quantity"`
	ReservedBefore int64  `json:"reserved_before"`
	ReservedAfter  int64  `json:"reserved_quantity"`
	Available      int64  `json:"available_quantity"`
}

// MovementResponse entrada del ledger.
type MovementResponse struct {
	ID             string          `json:"id"`
	Seq            int64           `json:"seq"`
	ProductID      string          `json:"product_id"`
	LocationID     string          `json:"location_id"`
	Type           string          `json:"type"`
	Quantity       int64           `json:"quantity"`
	QuantityBefore int64           `json:"quantity_before"`
	QuantityAfter  int64           `json:"quantity_after"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	ReferenceType  string          `json:"reference_type"`
	ReferenceID    string          `json:"reference_id"`
	IsReversal     bool            `json:"is_reversal"`
	Notes          string          `json:"notes,omitempty"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Cursor posición para pedir la siguiente página del ledger.
type Cursor struct {
	AfterAt  time.Time `json:"after_at"`
	AfterSeq int64     `json:"after_seq"`
}

// MovementListResponse página del ledger con cursor.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Next  *Cursor            `json:"next,omitempty"`
}

// ReconciliationResponse resultado de reconstruir un registro desde el ledger.
type ReconciliationResponse struct {
	ProductID      string          `json:"product_id"`
	LocationID     string          `json:"location_id"`
	RecordQuantity int64           `json:"record_quantity"`
	LedgerQuantity int64           `json:"ledger_quantity"`
	Entries        int             `json:"entries"`
	ChainBreaks    int             `json:"chain_breaks"`
	AverageCost    decimal.Decimal `json:"average_cost"`
	Balanced       bool            `json:"balanced"`
}

func ToStockLevel(r *entity.InventoryRecord) StockLevelResponse {
	return StockLevelResponse{
		ProductID:        r.ProductID,
		LocationID:       r.LocationID,
		Quantity:         r.Quantity,
		ReservedQuantity: r.ReservedQuantity,
		Available:        r.Available(),
		UpdatedAt:        r.UpdatedAt,
	}
}

func ToStockLevels(list []*entity.InventoryRecord) []StockLevelResponse {
	out := make([]StockLevelResponse, 0, len(list))
	for _, r := range list {
		out = append(out, ToStockLevel(r))
	}
	return out
}

func ToSnapshot(s inventory.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		ProductID:      s.ProductID,
		LocationID:     s.LocationID,
		QuantityAfter:  s.QuantityAfter,
		ReservedBefore: s.ReservedBefore,
		ReservedAfter:  s.ReservedAfter,
		Available:      s.AvailableAfter(),
	}
}

func ToMovement(m *entity.Movement) MovementResponse {
	return MovementResponse{
		ID:             m.ID,
		Seq:            m.Seq,
		ProductID:      m.ProductID,
		LocationID:     m.LocationID,
		Type:           string(m.Type),
		Quantity:       m.Quantity,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		UnitCost:       m.UnitCost,
		ReferenceType:  string(m.ReferenceType),
		ReferenceID:    m.ReferenceID,
		IsReversal:     m.IsReversal,
		Notes:          m.Notes,
		CreatedBy:      m.CreatedBy,
		CreatedAt:      m.CreatedAt,
	}
}

func ToMovements(list []*entity.Movement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, ToMovement(m))
	}
	return out
}

func ToMovementPage(p inventory.MovementPage) MovementListResponse {
	res := MovementListResponse{Items: ToMovements(p.Items)}
	if p.Next != nil {
		res.Next = &Cursor{AfterAt: p.Next.CreatedAt, AfterSeq: p.Next.Seq}
	}
	return res
}

func ToReconciliation(r *inventory.Reconciliation) ReconciliationResponse {
	return ReconciliationResponse{
		ProductID:      r.ProductID,
		LocationID:     r.LocationID,
		RecordQuantity: r.RecordQuantity,
		LedgerQuantity: r.LedgerQuantity,
		Entries:        r.Entries,
		ChainBreaks:    r.ChainBreaks,
		AverageCost:    r.AverageCost,
		Balanced:       r.Balanced,
	}
}
