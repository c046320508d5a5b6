package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "maintenance"

// Record kinds used as the "kind" label of RecordsCreated.
const (
	KindEquipment  = "equipment"
	KindPlan       = "preventive_plan"
	KindCorrective = "corrective_record"
)

var (
	indicatorComputations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "indicator_computations_total",
			Help:      "Number of MTBF/MTTR computations performed (cache misses).",
		},
	)

	indicatorDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "indicator_computation_seconds",
			Help:      "Time spent loading records and computing indicators for one equipment.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)

	indicatorCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "indicator_cache_total",
			Help:      "Indicator cache lookups, partitioned by result.",
		},
		[]string{"result"},
	)

	recordsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_created_total",
			Help:      "Records stored through the API, partitioned by kind.",
		},
		[]string{"kind"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, partitioned by route, method and status code.",
		},
		[]string{"route", "method", "code"},
	)
)

// Register attaches the collectors to reg. Already-registered collectors
// are skipped so tests and restarts can call it repeatedly.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		indicatorComputations,
		indicatorDurationSeconds,
		indicatorCache,
		recordsCreated,
		httpRequests,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveComputation records one indicator computation and its duration.
func ObserveComputation(d time.Duration) {
	indicatorComputations.Inc()
	if d < 0 {
		d = 0
	}
	indicatorDurationSeconds.Observe(d.Seconds())
}

// ObserveCache counts a cache lookup.
func ObserveCache(hit bool) {
	if hit {
		indicatorCache.WithLabelValues("hit").Inc()
		return
	}
	indicatorCache.WithLabelValues("miss").Inc()
}

// RecordCreated counts a stored record of the given kind.
func RecordCreated(kind string) {
	recordsCreated.WithLabelValues(kind).Inc()
}

// ObserveRequest counts a served HTTP request.
func ObserveRequest(route, method string, code int) {
	httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
}
