// Package metrics métricas Prometheus del servicio sobre un registro propio.
package metrics

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/backoffice-api/internal/application/inventory"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/event"
)

const namespace = "backoffice"

var _ event.Publisher = (*Metrics)(nil)

// Metrics agrupa colectores de dominio y HTTP.
type Metrics struct {
	reg *prometheus.Registry

	MovementsTotal      *prometheus.CounterVec
	MovementUnits       *prometheus.CounterVec
	ReleaseTransitions  *prometheus.CounterVec
	StockRejections     prometheus.Counter
	InvariantViolations prometheus.Counter
	TxDuration          *prometheus.HistogramVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New registra todos los colectores (más runtime de Go y proceso) en un registro nuevo.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		MovementsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inventory_movements_total",
			Help:      "Entradas escritas en el ledger por tipo",
		}, []string{"type"}),
		MovementUnits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inventory_movement_units_total",
			Help:      "Unidades movidas por tipo",
		}, []string{"type"}),
		ReleaseTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_release_transitions_total",
			Help:      "Transiciones de despachos por estado destino",
		}, []string{"action", "to"}),
		StockRejections: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_rejections_total",
			Help:      "Operaciones rechazadas por stock insuficiente",
		}),
		InvariantViolations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invariant_violations_total",
			Help:      "Errores de invariante interna detectados",
		}),
		TxDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_transaction_duration_seconds",
			Help:      "Duración de las transacciones de inventario",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Solicitudes HTTP atendidas",
		}, []string{"method", "path", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duración de las solicitudes HTTP",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// Registry expuesto para tests y para registrar colectores extra.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Publish cuenta los eventos de dominio; nunca falla.
func (m *Metrics) Publish(_ context.Context, evs ...event.Event) error {
	for _, e := range evs {
		switch ev := e.(type) {
		case event.MovementRecorded:
			m.MovementsTotal.WithLabelValues(string(ev.Type)).Inc()
			m.MovementUnits.WithLabelValues(string(ev.Type)).Add(float64(ev.Quantity))
		case event.ReleaseStatusChanged:
			m.ReleaseTransitions.WithLabelValues(ev.Action, string(ev.To)).Inc()
		}
	}
	return nil
}

// ObserveError clasifica errores de negocio que interesa graficar.
func (m *Metrics) ObserveError(err error) {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		m.StockRejections.Inc()
	case errors.Is(err, domain.ErrInvariantViolation):
		m.InvariantViolations.Inc()
	}
}

// Middleware cuenta solicitudes y mide latencia usando la ruta registrada (no la URL cruda).
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		path := c.Route().Path
		m.HTTPRequests.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		m.HTTPDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler endpoint /metrics.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg}))
}

// InstrumentTx envuelve un TxRunner midiendo cada transacción.
func (m *Metrics) InstrumentTx(next inventory.TxRunner) inventory.TxRunner {
	return instrumentedTx{next: next, hist: m.TxDuration}
}

type instrumentedTx struct {
	next inventory.TxRunner
	hist *prometheus.HistogramVec
}

func (t instrumentedTx) Run(ctx context.Context, fn func(repos inventory.TxRepos) error) error {
	start := time.Now()
	err := t.next.Run(ctx, fn)
	outcome := "commit"
	if err != nil {
		outcome = "rollback"
	}
	t.hist.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	return err
}
