package manager

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ifacesCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wifidm",
			Subsystem: "manager",
			Name:      "ifaces_created_total",
			Help:      "Total number of interfaces created, by type",
		},
		[]string{"type"},
	)

	ifacesDestroyedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wifidm",
			Subsystem: "manager",
			Name:      "ifaces_destroyed_total",
			Help:      "Total number of interfaces destroyed, by type",
		},
		[]string{"type"},
	)

	modeSwitchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wifidm",
			Subsystem: "manager",
			Name:      "mode_switches_total",
			Help:      "Total number of chip mode reconfigurations",
		},
	)
)

func init() {
	prometheus.MustRegister(ifacesCreatedTotal, ifacesDestroyedTotal, modeSwitchesTotal)
}
