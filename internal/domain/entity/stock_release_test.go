package entity

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/backoffice-api/internal/domain"
)

var at = time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

func newRelease(route Route, qty ...int64) *StockRelease {
	r := &StockRelease{ID: "r1", Status: ReleasePending, Route: route}
	for i, q := range qty {
		r.Items = append(r.Items, &StockReleaseItem{
			ID: string(rune('a' + i)), LineNo: i + 1, ProductID: "p", RequestedQuantity: q, UnitCost: decimal.NewFromInt(3),
		})
	}
	return r
}

func TestStockRelease_FlujoTraslado(t *testing.T) {
	r := newRelease(TransferRoute{From: "l1", To: "l2"}, 4, 2)
	require.NoError(t, r.Approve("jefe", at))
	require.NoError(t, r.ApplyRelease(map[string]int64{"b": 1}))
	assert.Equal(t, int64(4), r.Items[0].ReleasedQuantity)
	assert.Equal(t, int64(1), r.Items[1].ReleasedQuantity)
	assert.True(t, r.TotalCost().Equal(decimal.NewFromInt(15)))

	require.NoError(t, r.MarkReleased("bodega", at))
	assert.Equal(t, ReleaseReleased, r.Status)
	assert.True(t, r.NeedsReversal())

	require.NoError(t, r.MarkReceived("taller", at))
	assert.Equal(t, ReleaseCompleted, r.Status)
	assert.True(t, r.Status.IsTerminal())
	assert.Equal(t, "l2", r.ToLocationID())
}

func TestStockRelease_ConsumoNoSeRecibe(t *testing.T) {
	r := newRelease(ConsumptionRoute{From: "l1"}, 1)
	require.NoError(t, r.Approve("jefe", at))
	require.NoError(t, r.ApplyRelease(nil))
	require.NoError(t, r.MarkReleased("bodega", at))
	assert.Equal(t, ReleaseCompleted, r.Status)
	assert.Equal(t, "", r.ToLocationID())
	assert.ErrorIs(t, r.MarkReceived("x", at), domain.ErrInvalidTransition)
}

func TestStockRelease_Transiciones(t *testing.T) {
	tests := []struct {
		status ReleaseStatus
		act    func(r *StockRelease) error
		ok     bool
	}{
		{ReleasePending, func(r *StockRelease) error { return r.Approve("a", at) }, true},
		{ReleaseApproved, func(r *StockRelease) error { return r.Approve("a", at) }, false},
		{ReleasePending, func(r *StockRelease) error { return r.ApplyRelease(nil) }, false},
		{ReleaseReleased, func(r *StockRelease) error { return r.MarkReleased("a", at) }, false},
		{ReleaseApproved, func(r *StockRelease) error { return r.MarkReceived("a", at) }, false},
		{ReleasePending, func(r *StockRelease) error { return r.MarkCancelled("a", "", at) }, true},
		{ReleaseApproved, func(r *StockRelease) error { return r.MarkCancelled("a", "", at) }, true},
		{ReleaseReleased, func(r *StockRelease) error { return r.MarkCancelled("a", "", at) }, true},
		{ReleaseCompleted, func(r *StockRelease) error { return r.MarkCancelled("a", "", at) }, false},
		{ReleaseCancelled, func(r *StockRelease) error { return r.MarkCancelled("a", "", at) }, false},
		{ReleasePending, func(r *StockRelease) error { return r.CanDelete() }, true},
		{ReleaseCancelled, func(r *StockRelease) error { return r.CanDelete() }, true},
		{ReleaseApproved, func(r *StockRelease) error { return r.CanDelete() }, false},
		{ReleaseCompleted, func(r *StockRelease) error { return r.CanDelete() }, false},
	}
	for i, tt := range tests {
		r := newRelease(TransferRoute{From: "l1", To: "l2"}, 1)
		r.Status = tt.status
		before := r.Status
		err := tt.act(r)
		if tt.ok {
			assert.NoError(t, err, "caso %d", i)
			continue
		}
		var ite *domain.InvalidTransitionError
		assert.ErrorAs(t, err, &ite, "caso %d", i)
		assert.Equal(t, before, r.Status, "caso %d: el estado no cambia", i)
	}
}

func TestStockRelease_ApplyReleaseRangos(t *testing.T) {
	r := newRelease(TransferRoute{From: "l1", To: "l2"}, 2)
	r.Status = ReleaseApproved

	assert.ErrorIs(t, r.ApplyRelease(map[string]int64{"a": 3}), domain.ErrInvalidInput)
	assert.ErrorIs(t, r.ApplyRelease(map[string]int64{"a": -1}), domain.ErrInvalidInput)
	assert.ErrorIs(t, r.ApplyRelease(map[string]int64{"a": 0}), domain.ErrInvalidInput)
	assert.ErrorIs(t, r.ApplyRelease(map[string]int64{"zz": 1}), domain.ErrInvalidInput)
	assert.Zero(t, r.Items[0].ReleasedQuantity, "un override inválido no deja cambios")
}

func TestRoute(t *testing.T) {
	_, ok := NewRoute("l1", "").(ConsumptionRoute)
	assert.True(t, ok)
	tr, ok := NewRoute("l1", "l2").(TransferRoute)
	require.True(t, ok)
	assert.Equal(t, "l1", tr.Source())
	to, ok := DestinationOf(tr)
	assert.True(t, ok)
	assert.Equal(t, "l2", to)
}

func TestFormatReleaseNumber(t *testing.T) {
	assert.Equal(t, "DSP-202601-0007", FormatReleaseNumber("DSP", at, 7))
	assert.Equal(t, "DSP-202601-12345", FormatReleaseNumber("DSP", at, 12345))
	bogota := time.FixedZone("COT", -5*3600)
	assert.Equal(t, "202602", ReleasePeriod(time.Date(2026, 1, 31, 22, 0, 0, 0, bogota)), "el periodo se calcula en UTC")
}

func TestParseReleaseStatus(t *testing.T) {
	s, ok := ParseReleaseStatus("RELEASED")
	assert.True(t, ok)
	assert.Equal(t, ReleaseReleased, s)
	_, ok = ParseReleaseStatus("released")
	assert.False(t, ok)
}
