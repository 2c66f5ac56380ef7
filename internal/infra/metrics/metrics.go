// Package metrics registers the control-core's Prometheus collectors
// (spec §4.9, C10). Grounded on metrics/metrics.go's
// namespace-and-histogram-per-concern registration style, expanded from
// the teacher's single request-duration histogram to the five collectors
// this system's scheduler and door controller actually produce signal
// for.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/harmelin-systems/elevator-core/internal/constants"
)

// Collectors bundles every Prometheus collector the control-core
// publishes.
type Collectors struct {
	DoorCycles          prometheus.Counter
	QueueDepth          prometheus.Gauge
	PiggybackAdmissions prometheus.Counter
	Stops               prometheus.Counter
	CurrentFloor        prometheus.Gauge
}

// New registers every collector against the default Prometheus registry.
func New() *Collectors {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers every collector against reg — used by tests
// to avoid colliding with the global default registry.
func NewWithRegisterer(reg prometheus.Registerer) *Collectors {
	factory := promauto.With(reg)
	return &Collectors{
		DoorCycles: factory.NewCounter(prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "door_cycles_total",
			Help:      "Total number of door open/close cycles completed.",
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "queue_depth",
			Help:      "Current number of requests waiting in the main queue.",
		}),
		PiggybackAdmissions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "piggyback_admissions_total",
			Help:      "Total number of requests admitted into the current service's piggyback set.",
		}),
		Stops: factory.NewCounter(prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "stops_total",
			Help:      "Total number of floor stops made.",
		}),
		CurrentFloor: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: constants.MetricsNamespace,
			Name:      "current_floor",
			Help:      "The cabin's last known floor.",
		}),
	}
}

// DoorCycleCompleted implements scheduler.Recorder.
func (c *Collectors) DoorCycleCompleted() { c.DoorCycles.Inc() }

// StopMade implements scheduler.Recorder.
func (c *Collectors) StopMade() { c.Stops.Inc() }

// PiggybackAdmitted implements scheduler.Recorder.
func (c *Collectors) PiggybackAdmitted() { c.PiggybackAdmissions.Inc() }

// SetQueueDepth implements scheduler.Recorder.
func (c *Collectors) SetQueueDepth(n int) { c.QueueDepth.Set(float64(n)) }

// SetCurrentFloor implements scheduler.Recorder.
func (c *Collectors) SetCurrentFloor(f int) { c.CurrentFloor.Set(float64(f)) }
