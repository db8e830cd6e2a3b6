package metrics

import "github.com/prometheus/client_golang/prometheus"

// collector is implemented by every component metrics set so they can be
// registered the same way.
type collector interface {
	prometheus.Collector
	initMetrics()
}

func register(registry prometheus.Registerer, c collector) error {
	c.initMetrics()
	return registry.Register(c)
}
