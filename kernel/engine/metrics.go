package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	reconciliations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vmcap",
		Name:      "storage_reconciliations_total",
		Help:      "Storage reconciliations that compared live disks against associated storages.",
	})
	storagesDisconnected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vmcap",
		Name:      "storages_disconnected_total",
		Help:      "Storage associations removed because no live disk was placed on them.",
	})
)

func init() {
	prometheus.MustRegister(reconciliations, storagesDisconnected)
}
