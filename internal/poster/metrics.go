package poster

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Labels:
	//   - source: "local", "rpdb", "tmdb", "none"
	resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dice_poster_resolutions_total",
		Help: "Poster resolutions by the step that produced the URL",
	}, []string{"source"})

	writeBackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dice_poster_writeback_total",
		Help: "Deferred poster downloads by outcome",
	}, []string{"outcome"})
)
