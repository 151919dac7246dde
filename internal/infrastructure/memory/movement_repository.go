package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*movementRepo)(nil)

type movementRepo struct {
	st *state
}

func (r *movementRepo) Create(_ context.Context, m *entity.Movement) error {
	r.st.seq++
	m.Seq = r.st.seq
	r.st.movements = append(r.st.movements, *m)
	return nil
}

func (r *movementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	out := make([]*entity.Movement, 0)
	for i := range r.st.movements {
		m := r.st.movements[i]
		if f.CompanyID != "" && m.CompanyID != f.CompanyID {
			continue
		}
		if f.ProductID != "" && m.ProductID != f.ProductID {
			continue
		}
		if f.LocationID != "" && m.LocationID != f.LocationID {
			continue
		}
		if f.ReferenceID != "" && m.ReferenceID != f.ReferenceID {
			continue
		}
		if f.After != nil && !after(m, *f.After, f.BySeq) {
			continue
		}
		out = append(out, &m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !f.BySeq && !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Seq < out[j].Seq
	})
	return page(out, f.Limit, 0), nil
}

func after(m entity.Movement, c repository.MovementCursor, bySeq bool) bool {
	if bySeq || m.CreatedAt.Equal(c.CreatedAt) {
		return m.Seq > c.Seq
	}
	return m.CreatedAt.After(c.CreatedAt)
}

// MovementRepository vista de lectura fuera de transacción.
func (s *Store) MovementRepository() repository.MovementRepository {
	return &lockedMovements{s: s}
}

type lockedMovements struct{ s *Store }

func (l *lockedMovements) Create(ctx context.Context, m *entity.Movement) (err error) {
	l.s.read(func(st *state) { err = (&movementRepo{st: st}).Create(ctx, m) })
	return
}

func (l *lockedMovements) List(ctx context.Context, f repository.MovementFilter) (out []*entity.Movement, err error) {
	l.s.read(func(st *state) { out, err = (&movementRepo{st: st}).List(ctx, f) })
	return
}
