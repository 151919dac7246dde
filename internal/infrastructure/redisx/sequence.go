package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var _ repository.ReleaseNumberGenerator = (*Sequence)(nil)

// keyTTL el contador de un mes se conserva hasta bien pasado el cambio de periodo.
const keyTTL = 62 * 24 * time.Hour

// Sequence numeración por empresa y mes con INCR (atómico entre réplicas de la API).
type Sequence struct {
	client redis.Cmdable
	prefix string
}

func NewSequence(client redis.Cmdable, prefix string) *Sequence {
	return &Sequence{client: client, prefix: prefix}
}

func sequenceKey(companyID string, at time.Time) string {
	return fmt.Sprintf("stock_release:seq:%s:%s", companyID, entity.ReleasePeriod(at))
}

func (s *Sequence) Next(ctx context.Context, companyID string, at time.Time) (string, error) {
	key := sequenceKey(companyID, at)
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, keyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("redis incr %s: %w", key, err)
	}
	return entity.FormatReleaseNumber(s.prefix, at, incr.Val()), nil
}
