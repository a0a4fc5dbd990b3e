// Package metrics exports license state as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"phoenixstudio.dev/licensing/manager"
)

var allStates = []manager.State{
	manager.NotConfigured,
	manager.NoLicense,
	manager.Invalid,
	manager.Expired,
	manager.Valid,
}

// Collector records license state. It implements manager.Observer.
type Collector struct {
	state       *prometheus.GaugeVec
	transitions *prometheus.CounterVec
}

// NewCollector creates the collectors and registers them with reg. The state
// gauge starts at not_configured, matching a new manager.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "phoenix",
			Subsystem: "license",
			Name:      "state",
			Help:      "Current license state (1 for the active state, 0 otherwise).",
		}, []string{"state"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "phoenix",
			Subsystem: "license",
			Name:      "transitions_total",
			Help:      "License state transitions.",
		}, []string{"from", "to"}),
	}
	if reg != nil {
		for _, col := range []prometheus.Collector{c.state, c.transitions} {
			if err := reg.Register(col); err != nil {
				return nil, err
			}
		}
	}
	c.set(manager.NotConfigured)
	return c, nil
}

// LicenseStateChanged implements manager.Observer.
func (c *Collector) LicenseStateChanged(from, to manager.State) {
	c.transitions.WithLabelValues(from.String(), to.String()).Inc()
	c.set(to)
}

func (c *Collector) set(current manager.State) {
	for _, s := range allStates {
		v := 0.0
		if s == current {
			v = 1
		}
		c.state.WithLabelValues(s.String()).Set(v)
	}
}
