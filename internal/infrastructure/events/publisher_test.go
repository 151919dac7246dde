package events

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/event"
)

type countingPublisher struct {
	calls int
	err   error
}

func (c *countingPublisher) Publish(_ context.Context, evs ...event.Event) error {
	c.calls += len(evs)
	return c.err
}

func TestLogPublisher_WritesOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(zerolog.New(&buf))
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	err := p.Publish(context.Background(),
		event.MovementRecorded{MovementID: "m-1", Type: entity.MovementPurchase, Quantity: 3, At: at},
		event.ReleaseStatusChanged{ReleaseID: "r-1", From: entity.ReleasePending, To: entity.ReleaseApproved, At: at},
	)
	require.NoError(t, err)

	out := buf.String()
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))
	assert.Contains(t, out, `"event":"movement.recorded"`)
	assert.Contains(t, out, `"movement_id":"m-1"`)
	assert.Contains(t, out, `"to":"APPROVED"`)
}

func TestFanOut_DeliversToAllAndJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	a := &countingPublisher{err: boom}
	b := &countingPublisher{}

	err := FanOut{a, nil, b}.Publish(context.Background(), event.MovementRecorded{})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}
