package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

// MovementUseCase registra movimientos manuales (compras, ajustes, ventas, devoluciones),
// traslados directos y reservas, siempre en una transacción con bloqueo de fila.
type MovementUseCase struct {
	uow       *UnitOfWork
	catalog   repository.ProductCatalog
	locations repository.LocationDirectory
	stock     repository.InventoryRepository
	ledger    *Ledger
}

// NewMovementUseCase construye el caso de uso. stock y ledger son de solo lectura (pool).
func NewMovementUseCase(
	uow *UnitOfWork,
	catalog repository.ProductCatalog,
	locations repository.LocationDirectory,
	stock repository.InventoryRepository,
	ledger *Ledger,
) *MovementUseCase {
	return &MovementUseCase{uow: uow, catalog: catalog, locations: locations, stock: stock, ledger: ledger}
}

// MovementRequest entrada de un movimiento simple. UnitCost nil = costo del catálogo.
type MovementRequest struct {
	CompanyID     string
	UserID        string
	ProductID     string
	LocationID    string
	Type          entity.MovementType
	Quantity      int64
	UnitCost      *decimal.Decimal
	ReferenceType entity.ReferenceType
	ReferenceID   string
	Notes         string
}

// TransferRequest traslado directo (sin flujo de aprobación).
type TransferRequest struct {
	CompanyID      string
	UserID         string
	ProductID      string
	FromLocationID string
	ToLocationID   string
	Quantity       int64
	Notes          string
}

// ReservationRequest reserva o libera unidades sin moverlas.
type ReservationRequest struct {
	CompanyID  string
	ProductID  string
	LocationID string
	Quantity   int64
}

// Register aplica un movimiento de un solo lado. Los traslados van por Transfer.
func (uc *MovementUseCase) Register(ctx context.Context, req MovementRequest) (*entity.Movement, error) {
	if !req.Type.IsValid() || req.Type == entity.MovementTransferIn || req.Type == entity.MovementTransferOut {
		return nil, fmt.Errorf("%w: tipo de movimiento %q no admitido", domain.ErrInvalidInput, req.Type)
	}
	if err := checkQuantity(req.Quantity); err != nil {
		return nil, err
	}
	if req.UnitCost != nil && req.UnitCost.IsNegative() {
		return nil, fmt.Errorf("%w: costo unitario negativo", domain.ErrInvalidInput)
	}
	if err := uc.checkPair(ctx, req.CompanyID, req.ProductID, req.LocationID); err != nil {
		return nil, err
	}
	unitCost, err := uc.costOf(ctx, req.CompanyID, req.ProductID, req.UnitCost)
	if err != nil {
		return nil, err
	}
	refType := req.ReferenceType
	if refType == "" {
		refType = defaultReference(req.Type)
	}
	refID := req.ReferenceID
	if refID == "" {
		refID = uuid.New().String()
	}

	var mov *entity.Movement
	err = uc.uow.Do(ctx, func(w *Work) error {
		snap, err := w.Store.Adjust(ctx, req.ProductID, req.LocationID, req.Type.Signed(req.Quantity), 0)
		if err != nil {
			return err
		}
		mov, err = w.Ledger.Record(ctx, MovementInput{
			CompanyID:     req.CompanyID,
			Type:          req.Type,
			UnitCost:      unitCost,
			ReferenceType: refType,
			ReferenceID:   refID,
			Notes:         req.Notes,
			CreatedBy:     req.UserID,
		}.FromSnapshot(snap))
		return err
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// Transfer resta en origen y suma en destino en la misma transacción (TRANSFER_OUT + TRANSFER_IN).
func (uc *MovementUseCase) Transfer(ctx context.Context, req TransferRequest) ([]*entity.Movement, error) {
	if req.FromLocationID == req.ToLocationID {
		return nil, fmt.Errorf("%w: traslado requiere bodegas distintas", domain.ErrInvalidInput)
	}
	if err := checkQuantity(req.Quantity); err != nil {
		return nil, err
	}
	if err := uc.checkPair(ctx, req.CompanyID, req.ProductID, req.FromLocationID); err != nil {
		return nil, err
	}
	if err := uc.checkLocation(ctx, req.CompanyID, req.ToLocationID); err != nil {
		return nil, err
	}
	unitCost, err := uc.costOf(ctx, req.CompanyID, req.ProductID, nil)
	if err != nil {
		return nil, err
	}
	base := MovementInput{
		CompanyID:     req.CompanyID,
		UnitCost:      unitCost,
		ReferenceType: entity.ReferenceDirectTransfer,
		ReferenceID:   uuid.New().String(),
		Notes:         req.Notes,
		CreatedBy:     req.UserID,
	}

	var out []*entity.Movement
	err = uc.uow.Do(ctx, func(w *Work) error {
		snap, err := w.Store.Transfer(ctx, req.ProductID, req.FromLocationID, req.ToLocationID, req.Quantity)
		if err != nil {
			return err
		}
		outIn := base
		outIn.Type = entity.MovementTransferOut
		mOut, err := w.Ledger.Record(ctx, outIn.FromSnapshot(snap.From))
		if err != nil {
			return err
		}
		inIn := base
		inIn.Type = entity.MovementTransferIn
		mIn, err := w.Ledger.Record(ctx, inIn.FromSnapshot(snap.To))
		if err != nil {
			return err
		}
		out = []*entity.Movement{mOut, mIn}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Reserve aparta unidades disponibles; la cantidad física no cambia y no hay movimiento.
func (uc *MovementUseCase) Reserve(ctx context.Context, req ReservationRequest) (Snapshot, error) {
	return uc.reserve(ctx, req, req.Quantity)
}

// Unreserve libera unidades reservadas.
func (uc *MovementUseCase) Unreserve(ctx context.Context, req ReservationRequest) (Snapshot, error) {
	return uc.reserve(ctx, req, -req.Quantity)
}

func (uc *MovementUseCase) reserve(ctx context.Context, req ReservationRequest, delta int64) (Snapshot, error) {
	if err := checkQuantity(req.Quantity); err != nil {
		return Snapshot{}, err
	}
	if err := uc.checkPair(ctx, req.CompanyID, req.ProductID, req.LocationID); err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	err := uc.uow.Do(ctx, func(w *Work) error {
		var err error
		snap, err = w.Store.Adjust(ctx, req.ProductID, req.LocationID, 0, delta)
		return err
	})
	return snap, err
}

// GetLevel nivel actual del par; un par nunca tocado devuelve un registro en cero sin crearlo.
func (uc *MovementUseCase) GetLevel(ctx context.Context, companyID, productID, locationID string) (*entity.InventoryRecord, error) {
	if err := uc.checkPair(ctx, companyID, productID, locationID); err != nil {
		return nil, err
	}
	rec, err := uc.stock.Get(ctx, productID, locationID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = &entity.InventoryRecord{ProductID: productID, LocationID: locationID}
	}
	return rec, nil
}

// ListLevels niveles de stock de una bodega.
func (uc *MovementUseCase) ListLevels(ctx context.Context, companyID, locationID string, limit, offset int) ([]*entity.InventoryRecord, error) {
	if err := uc.checkLocation(ctx, companyID, locationID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	return uc.stock.List(ctx, repository.InventoryFilter{LocationID: locationID, Limit: limit, Offset: offset})
}

// Movements página del ledger restringida a la empresa.
func (uc *MovementUseCase) Movements(ctx context.Context, companyID string, filter repository.MovementFilter) (MovementPage, error) {
	filter.CompanyID = companyID
	return uc.ledger.List(ctx, filter)
}

// Reconcile reconstruye la cantidad del par desde el ledger y la compara con el registro.
func (uc *MovementUseCase) Reconcile(ctx context.Context, companyID, productID, locationID string) (*Reconciliation, error) {
	if err := uc.checkPair(ctx, companyID, productID, locationID); err != nil {
		return nil, err
	}
	rec, err := uc.stock.Get(ctx, productID, locationID)
	if err != nil {
		return nil, err
	}
	return uc.ledger.Reconcile(ctx, rec, productID, locationID)
}

// ReconcileAll recorre todos los registros (opcionalmente de una bodega) y devuelve los que no cuadran.
func (uc *MovementUseCase) ReconcileAll(ctx context.Context, locationID string) (checked int, drift []*Reconciliation, err error) {
	const page = 500
	for offset := 0; ; offset += page {
		records, err := uc.stock.List(ctx, repository.InventoryFilter{LocationID: locationID, Limit: page, Offset: offset})
		if err != nil {
			return checked, drift, err
		}
		for _, rec := range records {
			res, err := uc.ledger.Reconcile(ctx, rec, rec.ProductID, rec.LocationID)
			if err != nil {
				return checked, drift, err
			}
			checked++
			if !res.Balanced {
				drift = append(drift, res)
			}
		}
		if len(records) < page {
			return checked, drift, nil
		}
	}
}

func (uc *MovementUseCase) checkPair(ctx context.Context, companyID, productID, locationID string) error {
	if productID == "" || locationID == "" {
		return domain.ErrInvalidInput
	}
	ok, err := uc.catalog.Exists(ctx, companyID, productID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("producto %s: %w", productID, domain.ErrNotFound)
	}
	return uc.checkLocation(ctx, companyID, locationID)
}

func (uc *MovementUseCase) checkLocation(ctx context.Context, companyID, locationID string) error {
	if locationID == "" {
		return domain.ErrInvalidInput
	}
	ok, err := uc.locations.Exists(ctx, companyID, locationID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bodega %s: %w", locationID, domain.ErrNotFound)
	}
	return nil
}

func (uc *MovementUseCase) costOf(ctx context.Context, companyID, productID string, override *decimal.Decimal) (decimal.Decimal, error) {
	if override != nil {
		return *override, nil
	}
	return uc.catalog.GetCost(ctx, companyID, productID)
}

func defaultReference(t entity.MovementType) entity.ReferenceType {
	switch t {
	case entity.MovementPurchase, entity.MovementReturnToSupplier:
		return entity.ReferencePurchaseOrder
	case entity.MovementSale:
		return entity.ReferenceSale
	case entity.MovementReturnFromCustomer:
		return entity.ReferenceCustomerReturn
	default:
		return entity.ReferenceManualAdjustment
	}
}

func checkQuantity(q int64) error {
	if q <= 0 || q > entity.MaxQuantity {
		return fmt.Errorf("%w: cantidad debe estar entre 1 y %d", domain.ErrInvalidInput, entity.MaxQuantity)
	}
	return nil
}
