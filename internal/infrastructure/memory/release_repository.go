package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
	"github.com/jhoicas/backoffice-api/pkg/textnorm"
)

var _ repository.StockReleaseRepository = (*releaseRepo)(nil)

type releaseRepo struct {
	st *state
}

func (r *releaseRepo) Create(_ context.Context, rel *entity.StockRelease) error {
	if _, ok := r.st.releases[rel.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, other := range r.st.releases {
		if other.CompanyID == rel.CompanyID && other.ReleaseNumber == rel.ReleaseNumber {
			return domain.ErrDuplicate
		}
	}
	r.st.releases[rel.ID] = copyRelease(rel)
	return nil
}

func (r *releaseRepo) GetByID(_ context.Context, id string) (*entity.StockRelease, error) {
	return copyRelease(r.st.releases[id]), nil
}

func (r *releaseRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockRelease, error) {
	return r.GetByID(ctx, id)
}

func (r *releaseRepo) Update(_ context.Context, rel *entity.StockRelease) error {
	if _, ok := r.st.releases[rel.ID]; !ok {
		return domain.ErrNotFound
	}
	r.st.releases[rel.ID] = copyRelease(rel)
	return nil
}

func (r *releaseRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.st.releases[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.st.releases, id)
	return nil
}

func (r *releaseRepo) List(_ context.Context, f repository.ReleaseFilter) ([]*entity.StockRelease, int, error) {
	out := make([]*entity.StockRelease, 0)
	for _, rel := range r.st.releases {
		if matches(rel, f) {
			out = append(out, copyRelease(rel))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ReleaseNumber > out[j].ReleaseNumber
	})
	return page(out, f.Limit, f.Offset), len(out), nil
}

func matches(rel *entity.StockRelease, f repository.ReleaseFilter) bool {
	if rel.CompanyID != f.CompanyID {
		return false
	}
	if f.Status != "" && rel.Status != f.Status {
		return false
	}
	if f.LocationID != "" && rel.FromLocationID() != f.LocationID && rel.ToLocationID() != f.LocationID {
		return false
	}
	if f.From != nil && rel.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && rel.CreatedAt.After(*f.To) {
		return false
	}
	if f.Search != "" && !strings.Contains(textnorm.Index(rel.ReleaseNumber, rel.Notes), f.Search) {
		return false
	}
	return true
}

func (r *releaseRepo) CountByStatus(_ context.Context, companyID, locationID string) (map[entity.ReleaseStatus]int, error) {
	counts := make(map[entity.ReleaseStatus]int)
	for _, rel := range r.st.releases {
		if matches(rel, repository.ReleaseFilter{CompanyID: companyID, LocationID: locationID}) {
			counts[rel.Status]++
		}
	}
	return counts, nil
}

// StockReleaseRepository vista de lectura fuera de transacción.
func (s *Store) StockReleaseRepository() repository.StockReleaseRepository {
	return &lockedReleases{s: s}
}

type lockedReleases struct{ s *Store }

func (l *lockedReleases) repo(st *state) *releaseRepo { return &releaseRepo{st: st} }

func (l *lockedReleases) Create(ctx context.Context, rel *entity.StockRelease) (err error) {
	l.s.read(func(st *state) { err = l.repo(st).Create(ctx, rel) })
	return
}

func (l *lockedReleases) GetByID(ctx context.Context, id string) (rel *entity.StockRelease, err error) {
	l.s.read(func(st *state) { rel, err = l.repo(st).GetByID(ctx, id) })
	return
}

func (l *lockedReleases) GetForUpdate(ctx context.Context, id string) (*entity.StockRelease, error) {
	return l.GetByID(ctx, id)
}

func (l *lockedReleases) Update(ctx context.Context, rel *entity.StockRelease) (err error) {
	l.s.read(func(st *state) { err = l.repo(st).Update(ctx, rel) })
	return
}

func (l *lockedReleases) Delete(ctx context.Context, id string) (err error) {
	l.s.read(func(st *state) { err = l.repo(st).Delete(ctx, id) })
	return
}

func (l *lockedReleases) List(ctx context.Context, f repository.ReleaseFilter) (out []*entity.StockRelease, total int, err error) {
	l.s.read(func(st *state) { out, total, err = l.repo(st).List(ctx, f) })
	return
}

func (l *lockedReleases) CountByStatus(ctx context.Context, companyID, locationID string) (counts map[entity.ReleaseStatus]int, err error) {
	l.s.read(func(st *state) { counts, err = l.repo(st).CountByStatus(ctx, companyID, locationID) })
	return
}
