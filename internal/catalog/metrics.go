package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Labels:
//   - outcome: "cached", "fresh", "exhausted", "invalid", "error"
var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "dice_catalog_requests_total",
	Help: "Catalog fetches by outcome",
}, []string{"outcome"})
