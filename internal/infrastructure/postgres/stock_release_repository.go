package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
	"github.com/jhoicas/backoffice-api/pkg/textnorm"
)

var _ repository.StockReleaseRepository = (*StockReleaseRepo)(nil)

// StockReleaseRepo despachos (stock_releases) e ítems (stock_release_items) sobre PostgreSQL.
type StockReleaseRepo struct {
	q Querier
}

// NewStockReleaseRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockReleaseRepository(q Querier) *StockReleaseRepo {
	return &StockReleaseRepo{q: q}
}

const releaseColumns = `id, company_id, release_number, status, from_location_id, to_location_id, notes,
	requested_by, requested_at, approved_by, approved_at, released_by, released_at,
	received_by, received_at, cancelled_by, cancelled_at, cancel_reason, created_at, updated_at`

// Create inserta cabecera e ítems. Número repetido en la empresa → domain.ErrDuplicate.
func (r *StockReleaseRepo) Create(ctx context.Context, rel *entity.StockRelease) error {
	query := `
		INSERT INTO stock_releases (id, company_id, release_number, status, from_location_id, to_location_id, notes, search_text,
			requested_by, requested_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		rel.ID, rel.CompanyID, rel.ReleaseNumber, string(rel.Status), rel.FromLocationID(), nullIfEmpty(rel.ToLocationID()),
		rel.Notes, textnorm.Index(rel.ReleaseNumber, rel.Notes), rel.RequestedBy, rel.RequestedAt, rel.CreatedAt, rel.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert stock release: %w", err)
	}
	for _, it := range rel.Items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO stock_release_items (id, release_id, line_no, product_id, requested_quantity, released_quantity, unit_cost, total_cost)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			it.ID, rel.ID, it.LineNo, it.ProductID, it.RequestedQuantity, it.ReleasedQuantity, it.UnitCost, it.TotalCost,
		)
		if err != nil {
			return fmt.Errorf("insert stock release item: %w", err)
		}
	}
	return nil
}

// GetByID cabecera + ítems; nil si no existe.
func (r *StockReleaseRepo) GetByID(ctx context.Context, id string) (*entity.StockRelease, error) {
	return r.get(ctx, `SELECT `+releaseColumns+` FROM stock_releases WHERE id = $1`, id)
}

// GetForUpdate igual que GetByID pero bloquea la cabecera hasta el fin de la tx.
func (r *StockReleaseRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockRelease, error) {
	return r.get(ctx, `SELECT `+releaseColumns+` FROM stock_releases WHERE id = $1 FOR UPDATE`, id)
}

func (r *StockReleaseRepo) get(ctx context.Context, query, id string) (*entity.StockRelease, error) {
	rel, err := scanRelease(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock release: %w", err)
	}
	items, err := r.items(ctx, []string{rel.ID})
	if err != nil {
		return nil, err
	}
	rel.Items = items[rel.ID]
	return rel, nil
}

// Update persiste estado y auditoría, y las cantidades liberadas de cada ítem.
func (r *StockReleaseRepo) Update(ctx context.Context, rel *entity.StockRelease) error {
	query := `
		UPDATE stock_releases SET status = $2, approved_by = $3, approved_at = $4, released_by = $5, released_at = $6,
			received_by = $7, received_at = $8, cancelled_by = $9, cancelled_at = $10, cancel_reason = $11, updated_at = $12
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		rel.ID, string(rel.Status), rel.ApprovedBy, rel.ApprovedAt, rel.ReleasedBy, rel.ReleasedAt,
		rel.ReceivedBy, rel.ReceivedAt, rel.CancelledBy, rel.CancelledAt, rel.CancelReason, rel.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update stock release: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	for _, it := range rel.Items {
		_, err := r.q.Exec(ctx,
			`UPDATE stock_release_items SET released_quantity = $2, total_cost = $3 WHERE id = $1`,
			it.ID, it.ReleasedQuantity, it.TotalCost,
		)
		if err != nil {
			return fmt.Errorf("update stock release item: %w", err)
		}
	}
	return nil
}

// Delete borra la cabecera; los ítems caen por ON DELETE CASCADE.
func (r *StockReleaseRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM stock_releases WHERE id = $1`, id)
	if isInvalidText(err) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete stock release: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const releaseWhere = `
	WHERE company_id = $1
	  AND ($2 = '' OR status = $2)
	  AND ($3 = '' OR from_location_id::text = $3 OR to_location_id::text = $3)
	  AND ($4::timestamptz IS NULL OR created_at >= $4)
	  AND ($5::timestamptz IS NULL OR created_at <= $5)
	  AND ($6 = '' OR strpos(search_text, $6) > 0)`

// List página ordenada por fecha de creación descendente, con el total del filtro.
func (r *StockReleaseRepo) List(ctx context.Context, f repository.ReleaseFilter) ([]*entity.StockRelease, int, error) {
	args := []any{f.CompanyID, string(f.Status), f.LocationID, timeOrNil(f.From), timeOrNil(f.To), f.Search}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM stock_releases`+releaseWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count stock releases: %w", err)
	}

	query := `SELECT ` + releaseColumns + ` FROM stock_releases` + releaseWhere + `
		ORDER BY created_at DESC, release_number DESC
		LIMIT NULLIF($7, 0) OFFSET $8`
	rows, err := r.q.Query(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list stock releases: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockRelease
	var ids []string
	for rows.Next() {
		rel, err := scanRelease(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan stock release: %w", err)
		}
		list = append(list, rel)
		ids = append(ids, rel.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return list, total, nil
	}
	items, err := r.items(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, rel := range list {
		rel.Items = items[rel.ID]
	}
	return list, total, nil
}

// CountByStatus conteos agrupados; locationID vacío = todas las bodegas.
func (r *StockReleaseRepo) CountByStatus(ctx context.Context, companyID, locationID string) (map[entity.ReleaseStatus]int, error) {
	rows, err := r.q.Query(ctx, `
		SELECT status, count(*) FROM stock_releases
		WHERE company_id = $1 AND ($2 = '' OR from_location_id::text = $2 OR to_location_id::text = $2)
		GROUP BY status`, companyID, locationID)
	if err != nil {
		return nil, fmt.Errorf("count stock releases by status: %w", err)
	}
	defer rows.Close()
	counts := make(map[entity.ReleaseStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[entity.ReleaseStatus(status)] = n
	}
	return counts, rows.Err()
}

func (r *StockReleaseRepo) items(ctx context.Context, releaseIDs []string) (map[string][]*entity.StockReleaseItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, release_id, line_no, product_id, requested_quantity, released_quantity, unit_cost, total_cost
		FROM stock_release_items WHERE release_id::text = ANY($1)
		ORDER BY release_id, line_no`, releaseIDs)
	if err != nil {
		return nil, fmt.Errorf("list stock release items: %w", err)
	}
	defer rows.Close()
	out := make(map[string][]*entity.StockReleaseItem, len(releaseIDs))
	for rows.Next() {
		var it entity.StockReleaseItem
		if err := rows.Scan(&it.ID, &it.ReleaseID, &it.LineNo, &it.ProductID, &it.RequestedQuantity,
			&it.ReleasedQuantity, &it.UnitCost, &it.TotalCost); err != nil {
			return nil, fmt.Errorf("scan stock release item: %w", err)
		}
		out[it.ReleaseID] = append(out[it.ReleaseID], &it)
	}
	return out, rows.Err()
}

func scanRelease(row pgxScanner) (*entity.StockRelease, error) {
	var rel entity.StockRelease
	var status string
	var from string
	var to *string
	err := row.Scan(
		&rel.ID, &rel.CompanyID, &rel.ReleaseNumber, &status, &from, &to, &rel.Notes,
		&rel.RequestedBy, &rel.RequestedAt, &rel.ApprovedBy, &rel.ApprovedAt, &rel.ReleasedBy, &rel.ReleasedAt,
		&rel.ReceivedBy, &rel.ReceivedAt, &rel.CancelledBy, &rel.CancelledAt, &rel.CancelReason, &rel.CreatedAt, &rel.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rel.Status = entity.ReleaseStatus(status)
	dest := ""
	if to != nil {
		dest = *to
	}
	rel.Route = entity.NewRoute(from, dest)
	return &rel, nil
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
