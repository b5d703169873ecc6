package providers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"srd/internal/models"
	"srd/internal/structures"
)

// ReviewStatsSource is what the gauge and counter funcs scrape from the
// review service on every /metrics pull.
type ReviewStatsSource interface {
	GetCardCount() int
	GetDueCount() int
	GetPackCount() int
	GetCurrentStreak() int
	GetRatingTotals() models.RatingTotals
	GetUndoCounts() (applied, declined int64)
}

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	ObservePersistenceDuration(duration time.Duration)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	persistenceDuration prometheus.Histogram
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config, service ReviewStatsSource) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	m := &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "srd_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "srd_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "srd_cache_hits_total",
			Help: "Total number of cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "srd_cache_misses_total",
			Help: "Total number of cache misses",
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "srd_persistence_duration_seconds",
			Help:    "Duration of snapshot persistence in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "srd_cards_total",
		Help: "Number of cards in the store",
	}, func() float64 {
		return float64(service.GetCardCount())
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "srd_due_cards",
		Help: "Number of cards currently due for review",
	}, func() float64 {
		return float64(service.GetDueCount())
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "srd_packs_total",
		Help: "Number of packs",
	}, func() float64 {
		return float64(service.GetPackCount())
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "srd_streak_days",
		Help: "Current study streak in days",
	}, func() float64 {
		return float64(service.GetCurrentStreak())
	})

	ratingCounter := func(rating string, value func(models.RatingTotals) int64) {
		promauto.NewCounterFunc(prometheus.CounterOpts{
			Name:        "srd_reviews_total",
			Help:        "Lifetime number of reviews by rating",
			ConstLabels: prometheus.Labels{"rating": rating},
		}, func() float64 {
			return float64(value(service.GetRatingTotals()))
		})
	}
	ratingCounter("again", func(t models.RatingTotals) int64 { return t.Again })
	ratingCounter("hard", func(t models.RatingTotals) int64 { return t.Hard })
	ratingCounter("good", func(t models.RatingTotals) int64 { return t.Good })
	ratingCounter("easy", func(t models.RatingTotals) int64 { return t.Easy })

	promauto.NewCounterFunc(prometheus.CounterOpts{
		Name:        "srd_undo_total",
		Help:        "Undo attempts by outcome",
		ConstLabels: prometheus.Labels{"outcome": "applied"},
	}, func() float64 {
		applied, _ := service.GetUndoCounts()
		return float64(applied)
	})

	promauto.NewCounterFunc(prometheus.CounterOpts{
		Name:        "srd_undo_total",
		Help:        "Undo attempts by outcome",
		ConstLabels: prometheus.Labels{"outcome": "declined"},
	}, func() float64 {
		_, declined := service.GetUndoCounts()
		return float64(declined)
	})

	return m
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
