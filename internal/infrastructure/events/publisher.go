// Package events implementaciones de event.Publisher que no dependen de un broker.
package events

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/jhoicas/backoffice-api/internal/domain/event"
)

var (
	_ event.Publisher = (*LogPublisher)(nil)
	_ event.Publisher = FanOut{}
)

// LogPublisher escribe cada evento como una línea estructurada.
type LogPublisher struct {
	log zerolog.Logger
}

func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, evs ...event.Event) error {
	for _, e := range evs {
		l := p.log.Info().Str("event", e.Name()).Time("occurred_at", e.OccurredAt())
		switch ev := e.(type) {
		case event.MovementRecorded:
			l = l.Str("movement_id", ev.MovementID).
				Str("product_id", ev.ProductID).
				Str("location_id", ev.LocationID).
				Str("type", string(ev.Type)).
				Int64("quantity", ev.Quantity).
				Int64("quantity_after", ev.QuantityAfter).
				Str("reference_id", ev.ReferenceID)
		case event.ReleaseStatusChanged:
			l = l.Str("release_id", ev.ReleaseID).
				Str("release_number", ev.ReleaseNumber).
				Str("from", string(ev.From)).
				Str("to", string(ev.To)).
				Str("actor", ev.Actor)
		}
		l.Msg("evento de dominio")
	}
	return nil
}

// FanOut entrega a todos los publishers aunque alguno falle; devuelve los errores unidos.
type FanOut []event.Publisher

func (f FanOut) Publish(ctx context.Context, evs ...event.Event) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, evs...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
