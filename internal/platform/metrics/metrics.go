// Package metrics exposes the Prometheus instrumentation for the server:
// HTTP request counters/latency plus ledger-specific counters (commits,
// rollbacks, set applications, negative stock events).
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	CommitsTotal       prometheus.Counter
	RollbacksTotal     prometheus.Counter
	SetApplications    prometheus.Counter
	NegativeStockTotal prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "viali_http_requests_total",
			Help: "HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "viali_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		CommitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "viali_inventory_commits_total",
			Help: "Successful inventory commits.",
		}),
		RollbacksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "viali_inventory_rollbacks_total",
			Help: "Successful inventory commit rollbacks.",
		}),
		SetApplications: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "viali_set_applications_total",
			Help: "Set applications onto clinical records.",
		}),
		NegativeStockTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "viali_negative_stock_events_total",
			Help: "Commits that drove a stock level below zero.",
		}),
	}

	m.registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.CommitsTotal,
		m.RollbacksTotal,
		m.SetApplications,
		m.NegativeStockTotal,
	)
	return m
}

// Middleware records request counts and latency per route.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			m.RequestsTotal.WithLabelValues(
				c.Request().Method, path, strconv.Itoa(c.Response().Status)).Inc()
			m.RequestDuration.WithLabelValues(c.Request().Method, path).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the Prometheus text exposition endpoint.
func (m *Metrics) Handler() echo.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return echo.WrapHandler(h)
}
