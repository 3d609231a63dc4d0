package metrics

import (
	"errors"
	"time"

	"github.com/Borislavv/newest-stories-cache/pkg/prometheus/metrics/keyword"
	"github.com/Borislavv/newest-stories-cache/pkg/prometheus/metrics/validator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var MetricRegisterErrorMessage = "failed to register metric counter"

// Meter is the HTTP layer instrumentation.
type Meter interface {
	IncTotal(path string, method string, status string)
	IncStatus(path string, method string, status string)
	ObserveResponseTime(path string, method string, d time.Duration)
}

// Recorder is the instrumentation of the stories kernel (upstream, refresher, cache).
type Recorder interface {
	IncCacheLookup(result string)
	IncRefresh(outcome string)
	ObserveRefreshDuration(d time.Duration)
	AddItemFailures(n int)
	SetSnapshotStories(n int)
	ObserveUpstreamRequest(endpoint string, result string, d time.Duration)
}

type Metrics struct {
	totalRequestsCounter    *prometheus.CounterVec
	totalResponsesCounter   *prometheus.CounterVec
	responseStatusesCounter *prometheus.CounterVec
	responseTimeMsCounter   *prometheus.HistogramVec

	cacheLookupsCounter     *prometheus.CounterVec
	refreshesCounter        *prometheus.CounterVec
	refreshDuration         prometheus.Histogram
	itemFailuresCounter     prometheus.Counter
	snapshotStoriesGauge    prometheus.Gauge
	upstreamRequestsCounter *prometheus.CounterVec
	upstreamRequestDuration *prometheus.HistogramVec
}

// New creates all collectors and registers them in reg.
// Pass prometheus.DefaultRegisterer to expose them via promhttp.Handler().
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		totalRequestsCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: keyword.TotalHttpRequestsMetricName,
				Help: "Number of all requests.",
			},
			[]string{"path", "method"},
		),
		totalResponsesCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: keyword.TotalHttpResponsesMetricName,
				Help: "Number of all responses.",
			},
			[]string{"path", "method", "status"},
		),
		responseStatusesCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: keyword.HttpResponseStatusesMetricName,
				Help: "Status of HTTP response",
			},
			[]string{"path", "method", "status"},
		),
		responseTimeMsCounter: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: keyword.HttpResponseTimeMsMetricName,
			Help: "Duration of HTTP requests.",
		}, []string{"path", "method"}),

		cacheLookupsCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: keyword.CacheLookupsMetricName,
				Help: "Number of snapshot lookups by result (hit, miss, stale).",
			},
			[]string{"result"},
		),
		refreshesCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: keyword.RefreshesMetricName,
				Help: "Number of refresh cycles by outcome.",
			},
			[]string{"outcome"},
		),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    keyword.RefreshDurationMetricName,
			Help:    "Duration of refresh cycles which reached the upstream.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		itemFailuresCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: keyword.ItemFailuresMetricName,
			Help: "Number of items dropped from snapshots due to fetch failures.",
		}),
		snapshotStoriesGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: keyword.SnapshotStoriesMetricName,
			Help: "Number of stories in the last committed snapshot.",
		}),
		upstreamRequestsCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: keyword.UpstreamRequestsMetricName,
				Help: "Number of upstream requests by endpoint and result.",
			},
			[]string{"endpoint", "result"},
		),
		upstreamRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: keyword.UpstreamRequestDurationMetricName,
			Help: "Duration of upstream requests.",
		}, []string{"endpoint"}),
	}

	for _, c := range []prometheus.Collector{
		m.totalRequestsCounter,
		m.totalResponsesCounter,
		m.responseStatusesCounter,
		m.responseTimeMsCounter,
		m.cacheLookupsCounter,
		m.refreshesCounter,
		m.refreshDuration,
		m.itemFailuresCounter,
		m.snapshotStoriesGauge,
		m.upstreamRequestsCounter,
		m.upstreamRequestDuration,
	} {
		if err := reg.Register(c); err != nil {
			log.Err(err).Msg(MetricRegisterErrorMessage)
			return nil, errors.New(MetricRegisterErrorMessage)
		}
	}

	return m, nil
}

// IncTotal method is increments request/response total counters and depends on
// *status* argument (numeric or empty string available).
// If the *status* argument is empty string then will be used request_counter,
// in other way will be used response_counter.
func (m *Metrics) IncTotal(path string, method string, status string) {
	if status != "" {
		if err := validator.ValidateStrStatusCode(status); err != nil {
			panic(err)
		}
		m.totalResponsesCounter.With(
			prometheus.Labels{
				"path":   path,
				"method": method,
				"status": status,
			},
		).Inc()
		return
	}
	m.totalRequestsCounter.With(
		prometheus.Labels{
			"path":   path,
			"method": method,
		},
	).Inc()
}

func (m *Metrics) IncStatus(path string, method string, status string) {
	if err := validator.ValidateStrStatusCode(status); err != nil {
		panic(err)
	}

	m.responseStatusesCounter.With(
		prometheus.Labels{
			"path":   path,
			"method": method,
			"status": status,
		},
	).Inc()
}

func (m *Metrics) ObserveResponseTime(path string, method string, d time.Duration) {
	m.responseTimeMsCounter.WithLabelValues(path, method).Observe(d.Seconds())
}

func (m *Metrics) IncCacheLookup(result string) {
	m.cacheLookupsCounter.WithLabelValues(result).Inc()
}

func (m *Metrics) IncRefresh(outcome string) {
	m.refreshesCounter.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRefreshDuration(d time.Duration) {
	m.refreshDuration.Observe(d.Seconds())
}

func (m *Metrics) AddItemFailures(n int) {
	if n > 0 {
		m.itemFailuresCounter.Add(float64(n))
	}
}

func (m *Metrics) SetSnapshotStories(n int) {
	m.snapshotStoriesGauge.Set(float64(n))
}

func (m *Metrics) ObserveUpstreamRequest(endpoint string, result string, d time.Duration) {
	m.upstreamRequestsCounter.WithLabelValues(endpoint, result).Inc()
	m.upstreamRequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// Noop discards everything, it is used when a component is built without metrics.
type Noop struct{}

func (Noop) IncCacheLookup(string) {}
func (Noop) IncRefresh(string) {}
func (Noop) ObserveRefreshDuration(time.Duration) {}
func (Noop) AddItemFailures(int) {}
func (Noop) SetSnapshotStories(int) {}
func (Noop) ObserveUpstreamRequest(string, string, time.Duration) {}
