package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var _ repository.ReleaseNumberGenerator = (*ReleaseSequence)(nil)

// ReleaseSequence numeración atómica por empresa y mes con UPSERT ... RETURNING sobre release_sequences.
type ReleaseSequence struct {
	q      Querier
	prefix string
}

// NewReleaseSequence usa el pool (no la tx del despacho) para no retener el bloqueo del contador.
func NewReleaseSequence(q Querier, prefix string) *ReleaseSequence {
	return &ReleaseSequence{q: q, prefix: prefix}
}

func (s *ReleaseSequence) Next(ctx context.Context, companyID string, at time.Time) (string, error) {
	var seq int64
	err := s.q.QueryRow(ctx, `
		INSERT INTO release_sequences (company_id, period, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (company_id, period) DO UPDATE SET last_value = release_sequences.last_value + 1
		RETURNING last_value`, companyID, entity.ReleasePeriod(at),
	).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("next release sequence: %w", err)
	}
	return entity.FormatReleaseNumber(s.prefix, at, seq), nil
}
