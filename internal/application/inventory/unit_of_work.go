package inventory

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/backoffice-api/internal/domain/event"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

// Work vista de una transacción en curso: Store y Ledger comparten la tx y los eventos
// quedan en cola hasta el commit.
type Work struct {
	Store    *Store
	Ledger   *Ledger
	Releases repository.StockReleaseRepository

	events []event.Event
}

// Emit encola un evento; se descarta si la transacción hace rollback.
func (w *Work) Emit(e event.Event) {
	w.events = append(w.events, e)
}

// UnitOfWork abre transacciones con TxRunner y publica los eventos acumulados solo tras Commit.
type UnitOfWork struct {
	tx        TxRunner
	publisher event.Publisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewUnitOfWork construye la unidad de trabajo. publisher puede ser nil (sin publicación).
func NewUnitOfWork(tx TxRunner, publisher event.Publisher, log zerolog.Logger) *UnitOfWork {
	return &UnitOfWork{tx: tx, publisher: publisher, log: log, now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (u *UnitOfWork) WithClock(now func() time.Time) *UnitOfWork {
	u.now = now
	return u
}

// Now hora actual según el reloj configurado.
func (u *UnitOfWork) Now() time.Time { return u.now().UTC() }

// Do ejecuta fn en una transacción. Un fallo al publicar no revierte nada: solo se registra.
func (u *UnitOfWork) Do(ctx context.Context, fn func(w *Work) error) error {
	var pending []event.Event
	err := u.tx.Run(ctx, func(repos TxRepos) error {
		w := &Work{Releases: repos.Releases}
		w.Store = NewStore(repos.Stock, u.now)
		w.Ledger = NewLedger(repos.Movements, u.log, u.now).onRecord(func(e event.Event) { w.Emit(e) })
		if err := fn(w); err != nil {
			return err
		}
		pending = w.events
		return nil
	})
	if err != nil {
		return err
	}
	if u.publisher == nil || len(pending) == 0 {
		return nil
	}
	if perr := u.publisher.Publish(ctx, pending...); perr != nil {
		u.log.Warn().Err(perr).Int("events", len(pending)).Msg("publicación de eventos falló tras commit")
	}
	return nil
}
