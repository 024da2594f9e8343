package service

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// tally is a lock-free count and duration sum for the ops summary.
type tally struct {
	count uint64
	nanos uint64
}

func (t *tally) add(d time.Duration) {
	atomic.AddUint64(&t.count, 1)
	atomic.AddUint64(&t.nanos, uint64(d.Nanoseconds()))
}

func (t *tally) load() (uint64, float64) {
	n := atomic.LoadUint64(&t.count)
	if n == 0 {
		return 0, 0
	}
	return n, float64(atomic.LoadUint64(&t.nanos)) / float64(n) / float64(time.Millisecond)
}

// MetricsService owns a private Prometheus registry covering HTTP traffic,
// backend calls, the snapshot cache, storage and background jobs.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	httpDuration    *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	upstreamErrors  *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheWrite      prometheus.Histogram
	cacheLookups    *prometheus.CounterVec
	cacheHitRatio   prometheus.Gauge
	queryDuration   *prometheus.HistogramVec
	workspaces      prometheus.Gauge
	jobs            *prometheus.CounterVec

	requests    tally
	queries     tally
	upstream    tally
	upFailures  uint64
	cacheHits   uint64
	cacheMisses uint64
	jobFailures uint64
	jobTotal    uint64
	resident    int64
}

// MetricsSnapshot is the JSON summary served on the ops endpoint.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	UpstreamCalls            uint64    `json:"upstream_calls"`
	UpstreamFailures         uint64    `json:"upstream_failures"`
	AverageUpstreamMs        float64   `json:"average_upstream_ms"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	Workspaces               int64     `json:"workspaces"`
	JobsProcessed            uint64    `json:"jobs_processed"`
	JobsFailed               uint64    `json:"jobs_failed"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// NewMetricsService registers the collectors together with the Go runtime
// and process collectors.
func NewMetricsService() *MetricsService {
	m := &MetricsService{registry: prometheus.NewRegistry()}

	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by route, portal app and status",
	}, []string{"method", "path", "app", "status"})
	m.upstreamLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of university backend calls",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"resource", "status"})
	m.upstreamErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_errors_total",
		Help: "Backend calls that failed or returned a non-2xx status",
	}, []string{"resource"})
	m.cacheLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency of snapshot cache reads",
		Buckets: []float64{.0005, .001, .005, .01, .05, .1},
	})
	m.cacheWrite = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency of snapshot cache writes",
		Buckets: []float64{.0005, .001, .005, .01, .05, .1},
	})
	m.cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Snapshot cache lookups by group and result",
	}, []string{"group", "result"})
	m.cacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})
	m.queryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of Postgres and Redis commands",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})
	m.workspaces = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "session_workspaces",
		Help: "Number of resident session workspaces",
	})
	m.jobs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "background_jobs_total",
		Help: "Background jobs by type and outcome",
	}, []string{"type", "outcome"})

	m.registry.MustRegister(
		m.httpDuration, m.httpRequests,
		m.upstreamLatency, m.upstreamErrors,
		m.cacheLatency, m.cacheWrite, m.cacheLookups, m.cacheHitRatio,
		m.queryDuration, m.workspaces, m.jobs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request. app is the portal the
// caller signed in through, or "anonymous".
func (m *MetricsService) ObserveHTTPRequest(method, path, app string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	m.httpRequests.WithLabelValues(method, path, app, code).Inc()
	m.requests.add(duration)
}

// RecordCacheOperation records a lookup in group and updates the hit ratio.
func (m *MetricsService) RecordCacheOperation(group string, hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	result := "miss"
	if hit {
		result = "hit"
		atomic.AddUint64(&m.cacheHits, 1)
	} else {
		atomic.AddUint64(&m.cacheMisses, 1)
	}
	m.cacheLookups.WithLabelValues(group, result).Inc()
	m.cacheHitRatio.Set(m.hitRatio())
}

func (m *MetricsService) hitRatio() float64 {
	hits := atomic.LoadUint64(&m.cacheHits)
	total := hits + atomic.LoadUint64(&m.cacheMisses)
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// ObserveCacheWrite records the duration of a cache write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records one Postgres query or Redis command.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.queryDuration.WithLabelValues(label).Observe(duration.Seconds())
	m.queries.add(duration)
}

// ObserveUpstreamCall records one backend call. Status 0 means the request never got a response.
func (m *MetricsService) ObserveUpstreamCall(resource string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.upstreamLatency.WithLabelValues(resource, strconv.Itoa(status)).Observe(duration.Seconds())
	m.upstream.add(duration)
	if status < 200 || status > 299 {
		m.upstreamErrors.WithLabelValues(resource).Inc()
		atomic.AddUint64(&m.upFailures, 1)
	}
}

// SetWorkspaces updates the resident workspace gauge.
func (m *MetricsService) SetWorkspaces(n int) {
	if m == nil {
		return
	}
	m.workspaces.Set(float64(n))
	atomic.StoreInt64(&m.resident, int64(n))
}

// RecordJob counts one background job attempt.
func (m *MetricsService) RecordJob(jobType string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
		atomic.AddUint64(&m.jobFailures, 1)
	}
	atomic.AddUint64(&m.jobTotal, 1)
	m.jobs.WithLabelValues(jobType, outcome).Inc()
}

// Snapshot summarizes the counters for the ops endpoint.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	requests, avgRequest := m.requests.load()
	queries, avgQuery := m.queries.load()
	calls, avgUpstream := m.upstream.load()
	return MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequest,
		UpstreamCalls:            calls,
		UpstreamFailures:         atomic.LoadUint64(&m.upFailures),
		AverageUpstreamMs:        avgUpstream,
		CacheHits:                atomic.LoadUint64(&m.cacheHits),
		CacheMisses:              atomic.LoadUint64(&m.cacheMisses),
		CacheHitRatio:            m.hitRatio(),
		DBQueryCount:             queries,
		AverageDBQueryDurationMs: avgQuery,
		Workspaces:               atomic.LoadInt64(&m.resident),
		JobsProcessed:            atomic.LoadUint64(&m.jobTotal),
		JobsFailed:               atomic.LoadUint64(&m.jobFailures),
		GeneratedAt:              time.Now().UTC(),
	}
}
