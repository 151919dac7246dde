package repository

import (
	"context"
	"time"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// MovementCursor posición en el ledger (keyset: created_at, seq).
type MovementCursor struct {
	CreatedAt time.Time
	Seq       int64
}

// MovementFilter filtros del ledger. Campos vacíos no filtran. After nil = desde el inicio.
type MovementFilter struct {
	CompanyID   string
	ProductID   string
	LocationID  string
	ReferenceID string
	After       *MovementCursor
	Limit       int
	// BySeq ordena y pagina solo por seq (orden de escritura); ignora After.CreatedAt.
	BySeq bool
}

// MovementRepository puerto append-only del ledger: no existe Update ni Delete.
type MovementRepository interface {
	// Create persiste la entrada y asigna Seq.
	Create(ctx context.Context, movement *entity.Movement) error
	// List devuelve entradas en orden ascendente (created_at, seq), o por seq si BySeq.
	List(ctx context.Context, filter MovementFilter) ([]*entity.Movement, error)
}
