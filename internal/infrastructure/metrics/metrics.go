// Package metrics instrumentación Prometheus del ledger y la caja sobre un registry propio.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-caja/internal/domain"
	"github.com/jhoicas/inventario-caja/internal/domain/entity"
)

// Config nombre del servicio y namespace de las métricas.
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig namespace "inventario".
func DefaultConfig(serviceName string) Config {
	return Config{ServiceName: serviceName, Namespace: "inventario"}
}

// Metrics implementa los puertos Metrics de inventario y caja.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	movements        *prometheus.CounterVec
	movedQuantity    *prometheus.CounterVec
	operations       *prometheus.CounterVec
	opDuration       *prometheus.HistogramVec
	sessionsClosed   *prometheus.CounterVec
	closeDifferences prometheus.Histogram
}

// New crea el registry con los collectors de Go y del proceso.
func New(cfg Config) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	service := prometheus.Labels{"service": cfg.ServiceName}
	m := &Metrics{registry: reg}

	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Name: "http_requests_total",
		Help: "Peticiones HTTP atendidas", ConstLabels: service,
	}, []string{"method", "path", "status"})

	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace, Name: "http_request_duration_seconds",
		Help: "Duración de las peticiones HTTP", ConstLabels: service,
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path"})

	m.movements = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Name: "stock_movements_total",
		Help: "Movimientos de inventario aplicados por tipo", ConstLabels: service,
	}, []string{"kind"})

	m.movedQuantity = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Name: "stock_moved_quantity_total",
		Help: "Cantidad absoluta movida por tipo de movimiento", ConstLabels: service,
	}, []string{"kind"})

	m.operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Name: "operations_total",
		Help: "Operaciones del núcleo por resultado", ConstLabels: service,
	}, []string{"operation", "result"})

	m.opDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace, Name: "operation_duration_seconds",
		Help: "Duración de las operaciones del núcleo", ConstLabels: service,
		Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"operation"})

	m.sessionsClosed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace, Name: "cash_sessions_closed_total",
		Help: "Sesiones de caja cerradas según cuadre", ConstLabels: service,
	}, []string{"balanced"})

	m.closeDifferences = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: cfg.Namespace, Name: "cash_close_difference_abs",
		Help: "Diferencia absoluta entre efectivo declarado y esperado", ConstLabels: service,
		Buckets: []float64{0, 100, 500, 1000, 5000, 10000, 50000, 100000},
	})

	reg.MustRegister(m.httpRequests, m.httpDuration, m.movements, m.movedQuantity,
		m.operations, m.opDuration, m.sessionsClosed, m.closeDifferences)
	return m
}

// Registry expone el registry (tests y collectors adicionales).
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// MovementApplied cuenta un movimiento confirmado.
func (m *Metrics) MovementApplied(kind entity.MovementKind, delta decimal.Decimal) {
	m.movements.WithLabelValues(string(kind)).Inc()
	m.movedQuantity.WithLabelValues(string(kind)).Add(delta.Abs().InexactFloat64())
}

// OperationDone registra duración y resultado de una operación.
func (m *Metrics) OperationDone(op string, elapsed time.Duration, err error) {
	m.operations.WithLabelValues(op, resultLabel(err)).Inc()
	m.opDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// CashSessionClosed registra el resultado de un cierre.
func (m *Metrics) CashSessionClosed(balanced bool, difference decimal.Decimal) {
	m.sessionsClosed.WithLabelValues(strconv.FormatBool(balanced)).Inc()
	m.closeDifferences.Observe(difference.Abs().InexactFloat64())
}

// Middleware métricas HTTP por ruta registrada; omite /metrics.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		m.httpRequests.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return err
	}
}

// resultLabel agrupa errores por clase de dominio para no disparar la cardinalidad.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrInvalidStateTransition):
		return "invalid_state"
	case errors.Is(err, domain.ErrSessionNotOpen):
		return "session_not_open"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
