package metrics

import (
	"net/http"
	"time"

	"e2e-harness/internal/application/port/output"
	"e2e-harness/internal/domain/entity"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "harness"

var _ output.MetricsPort = (*Collector)(nil)

type Collector struct {
	registry *prometheus.Registry

	steps          *prometheus.CounterVec
	stepDuration   *prometheus.HistogramVec
	assertions     *prometheus.CounterVec
	scenarios      *prometheus.CounterVec
	sessionsOpened prometheus.Counter
	teardownErrors *prometheus.CounterVec
}

// NewCollector registers the harness metrics on a private registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		steps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "step",
				Name:      "total",
				Help:      "Steps executed, by kind and outcome",
			},
			[]string{"kind", "status"},
		),
		stepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "step",
				Name:      "duration_seconds",
				Help:      "Step duration in seconds, retries included",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
			},
			[]string{"kind"},
		),
		assertions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "assertion",
				Name:      "total",
				Help:      "Expectations evaluated, by result",
			},
			[]string{"result"},
		),
		scenarios: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scenario",
				Name:      "total",
				Help:      "Scenarios finished, by status",
			},
			[]string{"status"},
		),
		sessionsOpened: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "opened_total",
				Help:      "Browser sessions opened",
			},
		),
		teardownErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "teardown_errors_total",
				Help:      "Resources that failed to release during teardown",
			},
			[]string{"resource"},
		),
	}
}

func (c *Collector) ObserveStep(kind entity.StepKind, status entity.StepStatus, elapsed time.Duration) {
	c.steps.WithLabelValues(string(kind), string(status)).Inc()
	c.stepDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

func (c *Collector) ObserveAssertion(passed bool) {
	result := "failed"
	if passed {
		result = "passed"
	}
	c.assertions.WithLabelValues(result).Inc()
}

func (c *Collector) ObserveScenario(status entity.ScenarioStatus) {
	c.scenarios.WithLabelValues(string(status)).Inc()
}

func (c *Collector) ObserveSessionOpened() {
	c.sessionsOpened.Inc()
}

func (c *Collector) ObserveTeardownError(resource string) {
	c.teardownErrors.WithLabelValues(resource).Inc()
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
