package observability

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/yungbote/studybits-backend/internal/platform/envutil"
	"github.com/yungbote/studybits-backend/internal/platform/logger"
)

// Metrics is safe to use through a nil pointer; every method is a no-op then.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	recommendRequests *prometheus.CounterVec
	recommendLatency  prometheus.Histogram
	recommendScanned  prometheus.Counter
	recommendRejected *prometheus.CounterVec
	recommendSkipped  prometheus.Counter
	recommendGroups   prometheus.Histogram

	taggerRequests *prometheus.CounterVec
	taggerLatency  *prometheus.HistogramVec
	taggerCache    *prometheus.CounterVec
	breakerState   *prometheus.GaugeVec

	redisUp   prometheus.Gauge
	redisPing prometheus.Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	return envutil.Duration("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second)
}

// Init builds the process-wide metrics once. It returns nil when metrics are disabled.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics(prometheus.NewRegistry())
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

// NewMetrics registers every collector on reg. Tests use a private registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sb_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sb_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route", "status"}),
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Name: "sb_api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		recommendRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sb_recommend_requests_total",
			Help: "Recommendation requests by outcome.",
		}, []string{"outcome"}),
		recommendLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "sb_recommend_duration_seconds",
			Help:    "End to end recommendation latency in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		recommendScanned: f.NewCounter(prometheus.CounterOpts{
			Name: "sb_recommend_questions_scanned_total",
			Help: "Questions evaluated by the candidate scan.",
		}),
		recommendRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sb_recommend_questions_rejected_total",
			Help: "Questions rejected by the relevance filter, by reason.",
		}, []string{"reason"}),
		recommendSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "sb_recommend_questions_skipped_total",
			Help: "Questions skipped because a document fetch failed.",
		}),
		recommendGroups: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "sb_recommend_groups",
			Help:    "Groups formed per recommendation before truncation.",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		}),
		taggerRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sb_tagger_requests_total",
			Help: "Tag generation requests by kind/status.",
		}, []string{"kind", "status"}),
		taggerLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sb_tagger_request_duration_seconds",
			Help:    "Tag generation latency in seconds by kind/status.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"kind", "status"}),
		taggerCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sb_tagger_cache_total",
			Help: "Tag cache lookups by result.",
		}, []string{"result"}),
		breakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sb_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open).",
		}, []string{"name"}),
		redisUp: f.NewGauge(prometheus.GaugeOpts{
			Name: "sb_redis_up",
			Help: "Whether the last redis ping succeeded.",
		}),
		redisPing: f.NewGauge(prometheus.GaugeOpts{
			Name: "sb_redis_ping_seconds",
			Help: "Latency of the last successful redis ping.",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveRecommendation(outcome string, dur time.Duration, groups int) {
	if m == nil {
		return
	}
	m.recommendRequests.WithLabelValues(outcome).Inc()
	m.recommendLatency.Observe(dur.Seconds())
	if outcome == "ok" {
		m.recommendGroups.Observe(float64(groups))
	}
}

func (m *Metrics) IncScanned() {
	if m == nil {
		return
	}
	m.recommendScanned.Inc()
}

func (m *Metrics) IncRejected(reason string) {
	if m == nil {
		return
	}
	m.recommendRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncSkipped() {
	if m == nil {
		return
	}
	m.recommendSkipped.Inc()
}

func (m *Metrics) ObserveTagger(kind, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.taggerRequests.WithLabelValues(kind, status).Inc()
	m.taggerLatency.WithLabelValues(kind, status).Observe(dur.Seconds())
}

func (m *Metrics) IncTagCache(hit bool) {
	if m == nil {
		return
	}
	m.taggerCache.WithLabelValues(strconv.FormatBool(hit)).Inc()
}

// SetBreakerState records a breaker transition; state is the breaker's String() form.
func (m *Metrics) SetBreakerState(name, state string) {
	if m == nil {
		return
	}
	v := 0.0
	switch strings.ToLower(state) {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	m.breakerState.WithLabelValues(name).Set(v)
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb *redis.Client) {
	if m == nil || rdb == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
