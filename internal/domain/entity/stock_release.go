package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ReleaseStatus estado del flujo de despacho.
type ReleaseStatus string

const (
	ReleasePending   ReleaseStatus = "PENDING"
	ReleaseApproved  ReleaseStatus = "APPROVED"
	ReleaseReleased  ReleaseStatus = "RELEASED"
	ReleaseCompleted ReleaseStatus = "COMPLETED"
	ReleaseCancelled ReleaseStatus = "CANCELLED"
)

// AllReleaseStatuses en orden de ciclo de vida (usado por estadísticas).
var AllReleaseStatuses = []ReleaseStatus{
	ReleasePending, ReleaseApproved, ReleaseReleased, ReleaseCompleted, ReleaseCancelled,
}

// ParseReleaseStatus valida un string externo.
func ParseReleaseStatus(s string) (ReleaseStatus, bool) {
	for _, st := range AllReleaseStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// IsTerminal COMPLETED y CANCELLED no admiten más transiciones.
func (s ReleaseStatus) IsTerminal() bool {
	return s == ReleaseCompleted || s == ReleaseCancelled
}

// Acciones del flujo (se usan en InvalidTransitionError y en eventos).
const (
	ActionApprove = "approve"
	ActionRelease = "release"
	ActionReceive = "receive"
	ActionCancel  = "cancel"
	ActionDelete  = "delete"
)

// Route variante explícita del destino: TransferRoute o ConsumptionRoute.
type Route interface {
	Source() string
	isRoute()
}

// TransferRoute mueve stock entre dos bodegas; requiere recepción.
type TransferRoute struct {
	From string
	To   string
}

func (r TransferRoute) Source() string { return r.From }
func (TransferRoute) isRoute()         {}

// ConsumptionRoute consume el stock (baja por daño, uso interno); no hay recepción.
type ConsumptionRoute struct {
	From string
}

func (r ConsumptionRoute) Source() string { return r.From }
func (ConsumptionRoute) isRoute()         {}

// NewRoute construye la variante a partir de columnas planas (to vacío = consumo).
func NewRoute(from, to string) Route {
	if to == "" {
		return ConsumptionRoute{From: from}
	}
	return TransferRoute{From: from, To: to}
}

// DestinationOf bodega destino si la ruta es un traslado.
func DestinationOf(r Route) (string, bool) {
	if t, ok := r.(TransferRoute); ok {
		return t.To, true
	}
	return "", false
}

// StockReleaseItem línea de un despacho. UnitCost se congela al crear.
type StockReleaseItem struct {
	ID                string
	ReleaseID         string
	LineNo            int
	ProductID         string
	RequestedQuantity int64
	ReleasedQuantity  int64
	UnitCost          decimal.Decimal
	TotalCost         decimal.Decimal
}

// StockRelease solicitud multi-ítem para mover o consumir stock desde una bodega.
type StockRelease struct {
	ID            string
	CompanyID     string
	ReleaseNumber string
	Status        ReleaseStatus
	Route         Route
	Items         []*StockReleaseItem
	Notes         string
	RequestedBy   string
	RequestedAt   time.Time
	ApprovedBy    string
	ApprovedAt    *time.Time
	ReleasedBy    string
	ReleasedAt    *time.Time
	ReceivedBy    string
	ReceivedAt    *time.Time
	CancelledBy   string
	CancelledAt   *time.Time
	CancelReason  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FromLocationID bodega origen.
func (r *StockRelease) FromLocationID() string { return r.Route.Source() }

// ToLocationID bodega destino o "" si es consumo.
func (r *StockRelease) ToLocationID() string {
	to, _ := DestinationOf(r.Route)
	return to
}

// Approve PENDING → APPROVED.
func (r *StockRelease) Approve(actor string, at time.Time) error {
	if r.Status != ReleasePending {
		return transitionError(r.Status, ActionApprove)
	}
	r.Status = ReleaseApproved
	r.ApprovedBy = actor
	r.ApprovedAt = &at
	r.UpdatedAt = at
	return nil
}

// ApplyRelease fija ReleasedQuantity/TotalCost por ítem (overrides por ID de ítem) sin tocar el estado.
// Sin override se libera lo solicitado; nunca más de lo solicitado; al menos una unidad en total.
func (r *StockRelease) ApplyRelease(overrides map[string]int64) error {
	if r.Status != ReleaseApproved {
		return transitionError(r.Status, ActionRelease)
	}
	for id := range overrides {
		if r.item(id) == nil {
			return errUnknownItem
		}
	}
	var total int64
	for _, it := range r.Items {
		qty := it.RequestedQuantity
		if o, ok := overrides[it.ID]; ok {
			if o < 0 || o > it.RequestedQuantity {
				return errOverrideRange
			}
			qty = o
		}
		total += qty
	}
	if total == 0 {
		return errNothingToRelease
	}
	for _, it := range r.Items {
		qty := it.RequestedQuantity
		if o, ok := overrides[it.ID]; ok {
			qty = o
		}
		it.ReleasedQuantity = qty
		it.TotalCost = it.UnitCost.Mul(decimal.NewFromInt(qty))
	}
	return nil
}

// MarkReleased APPROVED → RELEASED (traslado) o → COMPLETED (consumo: no hay recepción).
func (r *StockRelease) MarkReleased(actor string, at time.Time) error {
	if r.Status != ReleaseApproved {
		return transitionError(r.Status, ActionRelease)
	}
	r.ReleasedBy = actor
	r.ReleasedAt = &at
	r.UpdatedAt = at
	if _, ok := DestinationOf(r.Route); ok {
		r.Status = ReleaseReleased
	} else {
		r.Status = ReleaseCompleted
	}
	return nil
}

// MarkReceived RELEASED → COMPLETED; solo para traslados.
func (r *StockRelease) MarkReceived(actor string, at time.Time) error {
	if r.Status != ReleaseReleased {
		return transitionError(r.Status, ActionReceive)
	}
	if _, ok := DestinationOf(r.Route); !ok {
		return transitionError(r.Status, ActionReceive)
	}
	r.Status = ReleaseCompleted
	r.ReceivedBy = actor
	r.ReceivedAt = &at
	r.UpdatedAt = at
	return nil
}

// NeedsReversal un RELEASED tiene efectos en inventario que la cancelación debe revertir.
func (r *StockRelease) NeedsReversal() bool {
	return r.Status == ReleaseReleased
}

// MarkCancelled PENDING/APPROVED/RELEASED → CANCELLED. La reversa de stock es responsabilidad del caller.
func (r *StockRelease) MarkCancelled(actor, reason string, at time.Time) error {
	switch r.Status {
	case ReleasePending, ReleaseApproved, ReleaseReleased:
	default:
		return transitionError(r.Status, ActionCancel)
	}
	r.Status = ReleaseCancelled
	r.CancelledBy = actor
	r.CancelReason = reason
	r.CancelledAt = &at
	r.UpdatedAt = at
	return nil
}

// CanDelete solo PENDING (sin efectos) o CANCELLED (efectos ya revertidos).
func (r *StockRelease) CanDelete() error {
	if r.Status != ReleasePending && r.Status != ReleaseCancelled {
		return transitionError(r.Status, ActionDelete)
	}
	return nil
}

// TotalCost suma de TotalCost de los ítems.
func (r *StockRelease) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, it := range r.Items {
		total = total.Add(it.TotalCost)
	}
	return total
}

func (r *StockRelease) item(id string) *StockReleaseItem {
	for _, it := range r.Items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// ReleasePeriod periodo (AAAAMM, UTC) que acota la secuencia de numeración.
func ReleasePeriod(at time.Time) string {
	return at.UTC().Format("200601")
}

// FormatReleaseNumber arma el número visible: <PREFIJO>-<AAAAMM>-<secuencia de 4 dígitos mínimo>.
func FormatReleaseNumber(prefix string, at time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, ReleasePeriod(at), seq)
}
