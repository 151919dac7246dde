package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo ledger append-only sobre inventory_movements. Un trigger en la BD rechaza UPDATE/DELETE.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, seq, company_id, product_id, location_id, type, quantity, quantity_before, quantity_after,
	unit_cost, reference_type, reference_id, is_reversal, notes, created_by, created_at`

// Create inserta la entrada y recupera seq y created_at. La hora la pone el reloj de la BD,
// no el de la réplica, para que todas las instancias escriban sobre el mismo reloj.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	query := `
		INSERT INTO inventory_movements (id, company_id, product_id, location_id, type, quantity, quantity_before, quantity_after,
			unit_cost, reference_type, reference_id, is_reversal, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, clock_timestamp())
		RETURNING seq, created_at`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.CompanyID, m.ProductID, m.LocationID, string(m.Type), m.Quantity, m.QuantityBefore, m.QuantityAfter,
		m.UnitCost, string(m.ReferenceType), m.ReferenceID, m.IsReversal, m.Notes, m.CreatedBy,
	).Scan(&m.Seq, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert inventory movement: %w", err)
	}
	return nil
}

const (
	movementsByTime = `
		  AND ($5::timestamptz IS NULL OR (created_at, seq) > ($5::timestamptz, $6::bigint))
		ORDER BY created_at, seq`
	movementsBySeq = `
		  AND ($5::timestamptz IS NULL OR seq > $6::bigint)
		ORDER BY seq`
)

// List keyset por (created_at, seq) ascendente, o solo por seq si f.BySeq.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	order := movementsByTime
	if f.BySeq {
		order = movementsBySeq
	}
	query := `SELECT ` + movementColumns + ` FROM inventory_movements
		WHERE ($1 = '' OR company_id::text = $1)
		  AND ($2 = '' OR product_id::text = $2)
		  AND ($3 = '' OR location_id::text = $3)
		  AND ($4 = '' OR reference_id = $4)` + order + `
		LIMIT NULLIF($7, 0)`
	var afterAt any
	var afterSeq int64
	if f.After != nil {
		afterAt = f.After.CreatedAt
		afterSeq = f.After.Seq
	}
	rows, err := r.q.Query(ctx, query, f.CompanyID, f.ProductID, f.LocationID, f.ReferenceID, afterAt, afterSeq, f.Limit)
	if err != nil {
		return nil, fmt.Errorf("list inventory movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgxScanner) (*entity.Movement, error) {
	var m entity.Movement
	var typ, refType string
	err := row.Scan(
		&m.ID, &m.Seq, &m.CompanyID, &m.ProductID, &m.LocationID, &typ, &m.Quantity, &m.QuantityBefore, &m.QuantityAfter,
		&m.UnitCost, &refType, &m.ReferenceID, &m.IsReversal, &m.Notes, &m.CreatedBy, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(typ)
	m.ReferenceType = entity.ReferenceType(refType)
	return &m, nil
}
