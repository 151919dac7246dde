package inventory

import (
	"context"

	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

// TxRepos repositorios atados a una misma transacción.
type TxRepos struct {
	Stock     repository.InventoryRepository
	Movements repository.MovementRepository
	Releases  repository.StockReleaseRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback; en otro caso Commit.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos TxRepos) error) error
}
