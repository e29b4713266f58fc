package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "macrotrack"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by route, method and status code.",
		},
		[]string{"route", "method", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	calculations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metabolic_calculations_total",
			Help:      "Count of metabolic calculations by outcome.",
		},
		[]string{"outcome"},
	)

	foodLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "food_lookups_total",
			Help:      "Count of upstream food database calls by source and outcome.",
		},
		[]string{"source", "outcome"},
	)

	cacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "food_cache_total",
			Help:      "Count of food cache lookups by result.",
		},
		[]string{"result"},
	)

	diaryEntries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diary_entries_total",
			Help:      "Count of diary entries created by meal type.",
		},
		[]string{"meal_type"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, calculations, foodLookups, cacheResults, diaryEntries)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveRequest(route, method string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func IncCalculation(outcome string) {
	calculations.WithLabelValues(outcome).Inc()
}

func IncFoodLookup(source, outcome string) {
	foodLookups.WithLabelValues(source, outcome).Inc()
}

func IncCache(result string) {
	cacheResults.WithLabelValues(result).Inc()
}

func IncDiaryEntry(mealType string) {
	diaryEntries.WithLabelValues(mealType).Inc()
}
