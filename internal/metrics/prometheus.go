package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exportai_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 60},
		},
		[]string{"method", "path", "status"},
	)

	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exportai_analyses_total",
			Help: "Total analysis runs by generator and outcome",
		},
		[]string{"generator", "status"},
	)

	AnalysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exportai_analysis_duration_seconds",
			Help:    "End-to-end analysis duration including the completion call",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"generator"},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exportai_llm_tokens_used_total",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)

	CircuitState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "exportai_circuit_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exportai_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exportai_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	NotificationsPushed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "exportai_notifications_pushed_total",
			Help: "Notifications delivered over open websockets",
		},
	)

	AuthCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exportai_auth_cache_lookups_total",
			Help: "Token cache lookups by result (hit, miss, shared)",
		},
		[]string{"result"},
	)
)

func Init() {
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(AnalysesTotal)
	prometheus.MustRegister(AnalysisDuration)
	prometheus.MustRegister(LLMTokensUsed)
	prometheus.MustRegister(CircuitState)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(NotificationsPushed)
	prometheus.MustRegister(AuthCacheLookups)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
