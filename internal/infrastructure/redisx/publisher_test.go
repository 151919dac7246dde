package redisx

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/event"
)

func TestEncodeDecode_Envelope(t *testing.T) {
	at := time.Date(2026, 5, 1, 8, 0, 0, 0, time.FixedZone("COT", -5*3600))
	msg, err := Encode(event.ReleaseStatusChanged{
		ReleaseID: "r-1", ReleaseNumber: "DSP-202605-0003", From: entity.ReleaseApproved, To: entity.ReleaseReleased, At: at,
	})
	require.NoError(t, err)

	env, err := Decode(msg)
	require.NoError(t, err)
	assert.Equal(t, event.NameReleaseStatusChanged, env.Name)
	assert.True(t, env.OccurredAt.Equal(at))
	assert.Equal(t, time.UTC, env.OccurredAt.Location())

	var payload event.ReleaseStatusChanged
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "DSP-202605-0003", payload.ReleaseNumber)
	assert.Equal(t, entity.ReleaseReleased, payload.To)
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode([]byte("{no"))
	assert.Error(t, err)
}

func TestSequenceKey_UsesUTCPeriod(t *testing.T) {
	// 31 de enero 23:30 en Bogotá ya es febrero en UTC.
	at := time.Date(2026, 1, 31, 23, 30, 0, 0, time.FixedZone("COT", -5*3600))
	assert.Equal(t, "stock_release:seq:c-1:202602", sequenceKey("c-1", at))
}
