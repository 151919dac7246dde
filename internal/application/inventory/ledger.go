package inventory

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/event"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
	"github.com/jhoicas/backoffice-api/internal/domain/valuation"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// MovementInput datos de una entrada del ledger. Quantity va sin signo.
type MovementInput struct {
	CompanyID      string
	ProductID      string
	LocationID     string
	Type           entity.MovementType
	Quantity       int64
	QuantityBefore int64
	QuantityAfter  int64
	UnitCost       decimal.Decimal
	ReferenceType  entity.ReferenceType
	ReferenceID    string
	IsReversal     bool
	Notes          string
	CreatedBy      string
}

// FromSnapshot completa producto, bodega y before/after a partir de un ajuste del Store.
func (in MovementInput) FromSnapshot(s Snapshot) MovementInput {
	in.ProductID = s.ProductID
	in.LocationID = s.LocationID
	in.QuantityBefore = s.QuantityBefore
	in.QuantityAfter = s.QuantityAfter
	if d := s.QuantityAfter - s.QuantityBefore; d < 0 {
		in.Quantity = -d
	} else {
		in.Quantity = d
	}
	return in
}

// MovementPage página del ledger; Next es nil cuando no hay más.
type MovementPage struct {
	Items []*entity.Movement
	Next  *repository.MovementCursor
}

// Reconciliation resultado de reconstruir un InventoryRecord desde su historial.
type Reconciliation struct {
	ProductID      string
	LocationID     string
	RecordQuantity int64
	LedgerQuantity int64
	Entries        int
	ChainBreaks    int
	AverageCost    decimal.Decimal
	Balanced       bool
}

// Ledger historial append-only de movimientos de stock.
type Ledger struct {
	repo     repository.MovementRepository
	log      zerolog.Logger
	now      func() time.Time
	recorded func(event.Event)
}

// NewLedger construye el ledger sobre un repositorio (de tx para Record, de pool para lecturas).
func NewLedger(repo repository.MovementRepository, log zerolog.Logger, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{repo: repo, log: log, now: now}
}

func (l *Ledger) onRecord(fn func(event.Event)) *Ledger {
	l.recorded = fn
	return l
}

// Record valida y agrega una entrada. Una entrada incoherente es un error de programación:
// se registra a nivel error y se devuelve InvariantViolationError.
func (l *Ledger) Record(ctx context.Context, in MovementInput) (*entity.Movement, error) {
	if in.ReferenceID == "" || in.ReferenceType == "" {
		return nil, l.violation("movimiento sin referencia", in)
	}
	m := &entity.Movement{
		ID:             uuid.New().String(),
		CompanyID:      in.CompanyID,
		ProductID:      in.ProductID,
		LocationID:     in.LocationID,
		Type:           in.Type,
		Quantity:       in.Quantity,
		QuantityBefore: in.QuantityBefore,
		QuantityAfter:  in.QuantityAfter,
		UnitCost:       in.UnitCost,
		ReferenceType:  in.ReferenceType,
		ReferenceID:    in.ReferenceID,
		IsReversal:     in.IsReversal,
		Notes:          in.Notes,
		CreatedBy:      in.CreatedBy,
		CreatedAt:      l.now().UTC().Truncate(time.Microsecond),
	}
	if !m.Consistent() {
		return nil, l.violation("before/after no cuadra con tipo y cantidad", in)
	}
	if err := l.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}
	if l.recorded != nil {
		l.recorded(event.NewMovementRecorded(m))
	}
	return m, nil
}

func (l *Ledger) violation(detail string, in MovementInput) error {
	l.log.Error().
		Str("product_id", in.ProductID).
		Str("location_id", in.LocationID).
		Str("type", string(in.Type)).
		Int64("quantity", in.Quantity).
		Int64("before", in.QuantityBefore).
		Int64("after", in.QuantityAfter).
		Msg("ledger: " + detail)
	return domain.NewInvariantViolation("%s (%s %s/%s q=%d %d→%d)", detail, in.Type,
		in.ProductID, in.LocationID, in.Quantity, in.QuantityBefore, in.QuantityAfter)
}

// List página ordenada ascendente por (created_at, seq), reanudable con Next.
func (l *Ledger) List(ctx context.Context, filter repository.MovementFilter) (MovementPage, error) {
	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultPageSize
	case filter.Limit > maxPageSize:
		filter.Limit = maxPageSize
	}
	want := filter.Limit
	filter.Limit = want + 1
	items, err := l.repo.List(ctx, filter)
	if err != nil {
		return MovementPage{}, err
	}
	page := MovementPage{Items: items}
	if len(items) > want {
		page.Items = items[:want]
		last := page.Items[want-1]
		page.Next = &repository.MovementCursor{CreatedAt: last.CreatedAt, Seq: last.Seq}
	}
	return page, nil
}

// All recorre todas las páginas de forma perezosa.
func (l *Ledger) All(ctx context.Context, filter repository.MovementFilter) iter.Seq2[*entity.Movement, error] {
	return func(yield func(*entity.Movement, error) bool) {
		for {
			page, err := l.List(ctx, filter)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, m := range page.Items {
				if !yield(m, nil) {
					return
				}
			}
			if page.Next == nil {
				return
			}
			filter.After = page.Next
		}
	}
}

// Reconcile repite el historial del par desde cero y lo compara con el registro actual.
// record nil equivale a cantidad 0 (par nunca tocado). Recorre por seq: las escrituras de un
// par se serializan bajo el lock del registro, así que seq es su orden real aunque los relojes difieran.
func (l *Ledger) Reconcile(ctx context.Context, record *entity.InventoryRecord, productID, locationID string) (*Reconciliation, error) {
	res := &Reconciliation{ProductID: productID, LocationID: locationID, AverageCost: decimal.Zero}
	if record != nil {
		res.RecordQuantity = record.Quantity
	}
	var running int64
	for m, err := range l.All(ctx, repository.MovementFilter{ProductID: productID, LocationID: locationID, Limit: maxPageSize, BySeq: true}) {
		if err != nil {
			return nil, err
		}
		res.Entries++
		if m.QuantityBefore != running || !m.Consistent() {
			res.ChainBreaks++
		}
		if m.Type.Direction() == entity.DirectionIn && !m.UnitCost.IsZero() {
			res.AverageCost = valuation.WeightedAverageCost(running, res.AverageCost, m.Quantity, m.UnitCost)
		}
		running += m.Delta()
	}
	res.LedgerQuantity = running
	res.Balanced = res.ChainBreaks == 0 && res.LedgerQuantity == res.RecordQuantity
	if !res.Balanced {
		l.log.Warn().
			Str("product_id", productID).
			Str("location_id", locationID).
			Int64("record", res.RecordQuantity).
			Int64("ledger", res.LedgerQuantity).
			Int("chain_breaks", res.ChainBreaks).
			Msg("reconciliación con diferencias")
	}
	return res, nil
}
