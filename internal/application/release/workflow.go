// Package release implementa el flujo de despachos de stock:
// PENDING → APPROVED → RELEASED → COMPLETED, con cancelación y reversa.
package release

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/backoffice-api/internal/application/inventory"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/event"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
	"github.com/jhoicas/backoffice-api/pkg/textnorm"
)

const (
	maxNumberAttempts = 3
	actionCreate      = "create"
)

// ItemInput línea solicitada al crear un despacho.
type ItemInput struct {
	ProductID string
	Quantity  int64
}

// CreateInput datos de creación. ToLocationID vacío = consumo.
type CreateInput struct {
	CompanyID      string
	RequestedBy    string
	FromLocationID string
	ToLocationID   string
	Notes          string
	Items          []ItemInput
}

// Statistics conteos por estado.
type Statistics struct {
	Total    int
	ByStatus map[entity.ReleaseStatus]int
}

// WorkflowUseCase orquesta el ciclo de vida de los despachos sobre el Store y el Ledger.
type WorkflowUseCase struct {
	uow       *inventory.UnitOfWork
	releases  repository.StockReleaseRepository
	catalog   repository.ProductCatalog
	locations repository.LocationDirectory
	numbers   repository.ReleaseNumberGenerator
	log       zerolog.Logger
}

// NewWorkflowUseCase construye el caso de uso. releases es el repositorio de lectura (pool).
func NewWorkflowUseCase(
	uow *inventory.UnitOfWork,
	releases repository.StockReleaseRepository,
	catalog repository.ProductCatalog,
	locations repository.LocationDirectory,
	numbers repository.ReleaseNumberGenerator,
	log zerolog.Logger,
) *WorkflowUseCase {
	return &WorkflowUseCase{
		uow:       uow,
		releases:  releases,
		catalog:   catalog,
		locations: locations,
		numbers:   numbers,
		log:       log,
	}
}

// Create valida y registra un despacho PENDING. No reserva stock.
func (uc *WorkflowUseCase) Create(ctx context.Context, in CreateInput) (*entity.StockRelease, error) {
	if err := uc.validateCreate(ctx, in); err != nil {
		return nil, err
	}
	items := make([]*entity.StockReleaseItem, 0, len(in.Items))
	for i, it := range in.Items {
		cost, err := uc.catalog.GetCost(ctx, in.CompanyID, it.ProductID)
		if err != nil {
			return nil, err
		}
		items = append(items, &entity.StockReleaseItem{
			LineNo:            i + 1,
			ProductID:         it.ProductID,
			RequestedQuantity: it.Quantity,
			UnitCost:          cost,
			TotalCost:         decimal.Zero,
		})
	}

	for attempt := 1; ; attempt++ {
		rel, err := uc.create(ctx, in, items)
		if err == nil {
			return rel, nil
		}
		if !errors.Is(err, domain.ErrDuplicate) || attempt == maxNumberAttempts {
			return nil, err
		}
		uc.log.Warn().Int("attempt", attempt).Msg("número de despacho duplicado; reintentando")
	}
}

func (uc *WorkflowUseCase) create(ctx context.Context, in CreateInput, items []*entity.StockReleaseItem) (*entity.StockRelease, error) {
	now := uc.uow.Now()
	number, err := uc.numbers.Next(ctx, in.CompanyID, now)
	if err != nil {
		return nil, fmt.Errorf("número de despacho: %w", err)
	}
	rel := &entity.StockRelease{
		ID:            uuid.New().String(),
		CompanyID:     in.CompanyID,
		ReleaseNumber: number,
		Status:        entity.ReleasePending,
		Route:         entity.NewRoute(in.FromLocationID, in.ToLocationID),
		Notes:         in.Notes,
		RequestedBy:   in.RequestedBy,
		RequestedAt:   now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, it := range items {
		cp := *it
		cp.ID = uuid.New().String()
		cp.ReleaseID = rel.ID
		rel.Items = append(rel.Items, &cp)
	}

	totals, err := requestedByProduct(in.Items)
	if err != nil {
		return nil, err
	}
	err = uc.uow.Do(ctx, func(w *inventory.Work) error {
		for productID, requested := range totals {
			rec, err := w.Store.GetOrCreate(ctx, productID, in.FromLocationID)
			if err != nil {
				return err
			}
			if rec.Available() < requested {
				return domain.NewInsufficientStock(productID, in.FromLocationID, rec.Available(), requested)
			}
		}
		if err := w.Releases.Create(ctx, rel); err != nil {
			return err
		}
		w.Emit(statusChanged(rel, "", actionCreate, in.RequestedBy, ""))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rel, nil
}

func (uc *WorkflowUseCase) validateCreate(ctx context.Context, in CreateInput) error {
	if in.CompanyID == "" || in.RequestedBy == "" || in.FromLocationID == "" {
		return fmt.Errorf("%w: empresa, solicitante y bodega origen son obligatorios", domain.ErrInvalidInput)
	}
	if len(in.Items) == 0 {
		return fmt.Errorf("%w: el despacho requiere al menos un ítem", domain.ErrInvalidInput)
	}
	if in.ToLocationID == in.FromLocationID {
		return fmt.Errorf("%w: origen y destino deben ser distintos", domain.ErrInvalidInput)
	}
	for _, loc := range []string{in.FromLocationID, in.ToLocationID} {
		if loc == "" {
			continue
		}
		ok, err := uc.locations.Exists(ctx, in.CompanyID, loc)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("bodega %s: %w", loc, domain.ErrNotFound)
		}
	}
	for _, it := range in.Items {
		if it.ProductID == "" || it.Quantity <= 0 || it.Quantity > entity.MaxQuantity {
			return fmt.Errorf("%w: cada ítem requiere producto y cantidad entre 1 y %d", domain.ErrInvalidInput, entity.MaxQuantity)
		}
		ok, err := uc.catalog.Exists(ctx, in.CompanyID, it.ProductID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("producto %s: %w", it.ProductID, domain.ErrNotFound)
		}
	}
	_, err := requestedByProduct(in.Items)
	return err
}

// Approve PENDING → APPROVED. Sin efectos en inventario.
func (uc *WorkflowUseCase) Approve(ctx context.Context, companyID, id, actor string) (*entity.StockRelease, error) {
	return uc.transition(ctx, companyID, id, func(w *inventory.Work, rel *entity.StockRelease) (string, error) {
		return "", rel.Approve(actor, uc.uow.Now())
	}, entity.ActionApprove, actor)
}

// Release descuenta el stock del origen (TRANSFER_OUT por ítem) y avanza el estado.
// overrides: ID de ítem → cantidad a liberar (0..solicitada). Todo o nada.
func (uc *WorkflowUseCase) Release(ctx context.Context, companyID, id, actor string, overrides map[string]int64) (*entity.StockRelease, error) {
	return uc.transition(ctx, companyID, id, func(w *inventory.Work, rel *entity.StockRelease) (string, error) {
		if err := rel.ApplyRelease(overrides); err != nil {
			return "", err
		}
		from := rel.FromLocationID()
		if err := w.Store.Lock(ctx, itemKeys(rel, from)...); err != nil {
			return "", err
		}
		for _, it := range rel.Items {
			if it.ReleasedQuantity == 0 {
				continue
			}
			snap, err := w.Store.Adjust(ctx, it.ProductID, from, -it.ReleasedQuantity, 0)
			if err != nil {
				return "", err
			}
			if _, err := w.Ledger.Record(ctx, releaseMovement(rel, it, entity.MovementTransferOut, actor, false, "").FromSnapshot(snap)); err != nil {
				return "", err
			}
		}
		return "", rel.MarkReleased(actor, uc.uow.Now())
	}, entity.ActionRelease, actor)
}

// Receive RELEASED → COMPLETED: ingresa lo liberado en la bodega destino (TRANSFER_IN por ítem).
func (uc *WorkflowUseCase) Receive(ctx context.Context, companyID, id, actor string) (*entity.StockRelease, error) {
	return uc.transition(ctx, companyID, id, func(w *inventory.Work, rel *entity.StockRelease) (string, error) {
		if err := rel.MarkReceived(actor, uc.uow.Now()); err != nil {
			return "", err
		}
		to := rel.ToLocationID()
		if err := w.Store.Lock(ctx, itemKeys(rel, to)...); err != nil {
			return "", err
		}
		for _, it := range rel.Items {
			if it.ReleasedQuantity == 0 {
				continue
			}
			snap, err := w.Store.Adjust(ctx, it.ProductID, to, it.ReleasedQuantity, 0)
			if err != nil {
				return "", err
			}
			if _, err := w.Ledger.Record(ctx, releaseMovement(rel, it, entity.MovementTransferIn, actor, false, "").FromSnapshot(snap)); err != nil {
				return "", err
			}
		}
		return "", nil
	}, entity.ActionReceive, actor)
}

// Cancel PENDING/APPROVED → CANCELLED sin efectos; RELEASED → CANCELLED devolviendo lo liberado al origen.
func (uc *WorkflowUseCase) Cancel(ctx context.Context, companyID, id, actor, reason string) (*entity.StockRelease, error) {
	return uc.transition(ctx, companyID, id, func(w *inventory.Work, rel *entity.StockRelease) (string, error) {
		reverse := rel.NeedsReversal()
		if err := rel.MarkCancelled(actor, reason, uc.uow.Now()); err != nil {
			return "", err
		}
		if !reverse {
			return reason, nil
		}
		from := rel.FromLocationID()
		if err := w.Store.Lock(ctx, itemKeys(rel, from)...); err != nil {
			return "", err
		}
		for _, it := range rel.Items {
			if it.ReleasedQuantity == 0 {
				continue
			}
			snap, err := w.Store.Adjust(ctx, it.ProductID, from, it.ReleasedQuantity, 0)
			if err != nil {
				return "", err
			}
			mv := releaseMovement(rel, it, entity.MovementTransferIn, actor, true, reason)
			if _, err := w.Ledger.Record(ctx, mv.FromSnapshot(snap)); err != nil {
				return "", err
			}
		}
		return reason, nil
	}, entity.ActionCancel, actor)
}

// Delete borra un despacho PENDING o CANCELLED (cabecera e ítems). El ledger no se toca.
func (uc *WorkflowUseCase) Delete(ctx context.Context, companyID, id string) error {
	return uc.uow.Do(ctx, func(w *inventory.Work) error {
		rel, err := uc.lock(ctx, w, companyID, id)
		if err != nil {
			return err
		}
		if err := rel.CanDelete(); err != nil {
			return err
		}
		return w.Releases.Delete(ctx, rel.ID)
	})
}

// Get despacho con sus ítems.
func (uc *WorkflowUseCase) Get(ctx context.Context, companyID, id string) (*entity.StockRelease, error) {
	rel, err := uc.releases.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rel == nil || rel.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return rel, nil
}

// List despachos de la empresa según filtro; devuelve la página y el total.
func (uc *WorkflowUseCase) List(ctx context.Context, filter repository.ReleaseFilter) ([]*entity.StockRelease, int, error) {
	if filter.CompanyID == "" {
		return nil, 0, domain.ErrInvalidInput
	}
	if filter.Status != "" {
		if _, ok := entity.ParseReleaseStatus(string(filter.Status)); !ok {
			return nil, 0, fmt.Errorf("%w: estado %q", domain.ErrInvalidInput, filter.Status)
		}
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, 0, fmt.Errorf("%w: rango de fechas invertido", domain.ErrInvalidInput)
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	filter.Search = textnorm.Fold(filter.Search)
	return uc.releases.List(ctx, filter)
}

// Statistics conteo por estado para la empresa (y opcionalmente una bodega).
func (uc *WorkflowUseCase) Statistics(ctx context.Context, companyID, locationID string) (*Statistics, error) {
	counts, err := uc.releases.CountByStatus(ctx, companyID, locationID)
	if err != nil {
		return nil, err
	}
	st := &Statistics{ByStatus: make(map[entity.ReleaseStatus]int, len(entity.AllReleaseStatuses))}
	for _, s := range entity.AllReleaseStatuses {
		st.ByStatus[s] = counts[s]
		st.Total += counts[s]
	}
	return st, nil
}

// transition bloquea el despacho, aplica step y persiste el resultado en la misma tx.
func (uc *WorkflowUseCase) transition(
	ctx context.Context,
	companyID, id string,
	step func(w *inventory.Work, rel *entity.StockRelease) (reason string, err error),
	action, actor string,
) (*entity.StockRelease, error) {
	if actor == "" {
		return nil, fmt.Errorf("%w: actor obligatorio", domain.ErrInvalidInput)
	}
	var out *entity.StockRelease
	err := uc.uow.Do(ctx, func(w *inventory.Work) error {
		rel, err := uc.lock(ctx, w, companyID, id)
		if err != nil {
			return err
		}
		from := rel.Status
		reason, err := step(w, rel)
		if err != nil {
			return err
		}
		if err := w.Releases.Update(ctx, rel); err != nil {
			return err
		}
		w.Emit(statusChanged(rel, from, action, actor, reason))
		out = rel
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("release_id", out.ID).
		Str("release_number", out.ReleaseNumber).
		Str("action", action).
		Str("status", string(out.Status)).
		Msg("despacho actualizado")
	return out, nil
}

func (uc *WorkflowUseCase) lock(ctx context.Context, w *inventory.Work, companyID, id string) (*entity.StockRelease, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	rel, err := w.Releases.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if rel == nil || rel.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return rel, nil
}

// requestedByProduct suma las líneas de un mismo producto; el total también respeta MaxQuantity.
func requestedByProduct(items []ItemInput) (map[string]int64, error) {
	out := make(map[string]int64, len(items))
	for _, it := range items {
		sum, ok := entity.AddQuantity(out[it.ProductID], it.Quantity)
		if !ok || sum > entity.MaxQuantity {
			return nil, fmt.Errorf("%w: el producto %s supera %d unidades en el despacho",
				domain.ErrInvalidInput, it.ProductID, entity.MaxQuantity)
		}
		out[it.ProductID] = sum
	}
	return out, nil
}

func itemKeys(rel *entity.StockRelease, locationID string) []entity.StockKey {
	keys := make([]entity.StockKey, 0, len(rel.Items))
	for _, it := range rel.Items {
		if it.ReleasedQuantity > 0 {
			keys = append(keys, entity.StockKey{ProductID: it.ProductID, LocationID: locationID})
		}
	}
	return keys
}

func releaseMovement(rel *entity.StockRelease, it *entity.StockReleaseItem, t entity.MovementType, actor string, reversal bool, reason string) inventory.MovementInput {
	notes := rel.ReleaseNumber
	if reversal {
		notes = "reversa " + rel.ReleaseNumber
		if reason != "" {
			notes += ": " + reason
		}
	}
	return inventory.MovementInput{
		CompanyID:     rel.CompanyID,
		Type:          t,
		UnitCost:      it.UnitCost,
		ReferenceType: entity.ReferenceStockRelease,
		ReferenceID:   rel.ID,
		IsReversal:    reversal,
		Notes:         notes,
		CreatedBy:     actor,
	}
}

func statusChanged(rel *entity.StockRelease, from entity.ReleaseStatus, action, actor, reason string) event.ReleaseStatusChanged {
	return event.ReleaseStatusChanged{
		ReleaseID:     rel.ID,
		ReleaseNumber: rel.ReleaseNumber,
		CompanyID:     rel.CompanyID,
		From:          from,
		To:            rel.Status,
		Action:        action,
		Actor:         actor,
		Reason:        reason,
		At:            rel.UpdatedAt,
	}
}
