package redisx

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/backoffice-api/internal/domain/event"
)

var _ event.Publisher = (*Publisher)(nil)

// Envelope forma en que viaja cada evento por el canal.
type Envelope struct {
	Name       string          `json:"name"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Publisher publica eventos de dominio en un canal Pub/Sub.
type Publisher struct {
	client  redis.Cmdable
	channel string
}

func NewPublisher(client redis.Cmdable, channel string) *Publisher {
	return &Publisher{client: client, channel: channel}
}

// Publish envía los eventos en un solo pipeline; sin suscriptores el mensaje se pierde.
func (p *Publisher) Publish(ctx context.Context, evs ...event.Event) error {
	if len(evs) == 0 {
		return nil
	}
	pipe := p.client.Pipeline()
	for _, e := range evs {
		msg, err := Encode(e)
		if err != nil {
			return err
		}
		pipe.Publish(ctx, p.channel, msg)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis publish %s: %w", p.channel, err)
	}
	return nil
}

// Encode serializa un evento dentro del sobre.
func Encode(e event.Event) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.Name(), err)
	}
	return json.Marshal(Envelope{Name: e.Name(), OccurredAt: e.OccurredAt().UTC(), Payload: payload})
}

// Decode inverso de Encode; devuelve el sobre con el payload sin interpretar.
func Decode(msg []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}
