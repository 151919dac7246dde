// Package event define los eventos de dominio que el núcleo emite después de cada commit.
package event

import (
	"context"
	"time"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// Nombres de eventos (estables: los consumen reportes y notificaciones).
const (
	NameMovementRecorded     = "movement.recorded"
	NameReleaseStatusChanged = "release.status_changed"
)

// Event contrato mínimo de un evento de dominio.
type Event interface {
	Name() string
	OccurredAt() time.Time
}

// Publisher entrega eventos a consumidores externos. Se invoca solo tras el commit.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// MovementRecorded se emite por cada entrada escrita en el ledger.
type MovementRecorded struct {
	MovementID     string              `json:"movement_id"`
	CompanyID      string              `json:"company_id"`
	ProductID      string              `json:"product_id"`
	LocationID     string              `json:"location_id"`
	Type           entity.MovementType `json:"type"`
	Quantity       int64               `json:"quantity"`
	QuantityBefore int64               `json:"quantity_before"`
	QuantityAfter  int64               `json:"quantity_after"`
	ReferenceType  string              `json:"reference_type"`
	ReferenceID    string              `json:"reference_id"`
	IsReversal     bool                `json:"is_reversal"`
	At             time.Time           `json:"at"`
}

func (e MovementRecorded) Name() string          { return NameMovementRecorded }
func (e MovementRecorded) OccurredAt() time.Time { return e.At }

// NewMovementRecorded construye el evento a partir de la entrada persistida.
func NewMovementRecorded(m *entity.Movement) MovementRecorded {
	return MovementRecorded{
		MovementID:     m.ID,
		CompanyID:      m.CompanyID,
		ProductID:      m.ProductID,
		LocationID:     m.LocationID,
		Type:           m.Type,
		Quantity:       m.Quantity,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		ReferenceType:  string(m.ReferenceType),
		ReferenceID:    m.ReferenceID,
		IsReversal:     m.IsReversal,
		At:             m.CreatedAt,
	}
}

// ReleaseStatusChanged se emite por cada transición de un despacho (incluida la creación).
type ReleaseStatusChanged struct {
	ReleaseID     string               `json:"release_id"`
	ReleaseNumber string               `json:"release_number"`
	CompanyID     string               `json:"company_id"`
	From          entity.ReleaseStatus `json:"from,omitempty"`
	To            entity.ReleaseStatus `json:"to"`
	Action        string               `json:"action"`
	Actor         string               `json:"actor"`
	Reason        string               `json:"reason,omitempty"`
	At            time.Time            `json:"at"`
}

func (e ReleaseStatusChanged) Name() string          { return NameReleaseStatusChanged }
func (e ReleaseStatusChanged) OccurredAt() time.Time { return e.At }
