package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the feed engine and its HTTP
// surface. All methods are safe on a nil receiver so components can run
// without metrics in tests.
type Metrics struct {
	registry       *prometheus.Registry
	requestsTotal  prometheus.Counter
	errorsTotal    prometheus.Counter
	fetchesTotal   *prometheus.CounterVec
	staleTotal     prometheus.Counter
	activeChanges  prometheus.Counter
	playbackErrors prometheus.Counter
	scrollAbandons prometheus.Counter
	sessions       prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reelview_requests_total",
			Help: "Total number of HTTP requests received",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reelview_errors_total",
			Help: "Total number of HTTP responses with error status (4xx or 5xx)",
		}),
		fetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reelview_feed_fetches_total",
			Help: "Feed page fetches by result (ok, empty, error)",
		}, []string{"result"}),
		staleTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reelview_feed_stale_total",
			Help: "Fetch completions discarded because a refresh superseded them",
		}),
		activeChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reelview_active_changes_total",
			Help: "Transitions of the active feed index",
		}),
		playbackErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reelview_playback_errors_total",
			Help: "Media pipeline load or play failures",
		}),
		scrollAbandons: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reelview_scroll_abandoned_total",
			Help: "Programmatic scroll targets given up after the retry",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reelview_sessions",
			Help: "Number of live feed sessions",
		}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.errorsTotal,
		m.fetchesTotal,
		m.staleTotal,
		m.activeChanges,
		m.playbackErrors,
		m.scrollAbandons,
		m.sessions,
	)

	return m
}

func (m *Metrics) IncRequests() {
	if m != nil {
		m.requestsTotal.Inc()
	}
}

func (m *Metrics) IncErrors() {
	if m != nil {
		m.errorsTotal.Inc()
	}
}

// ObserveFetch records a completed page fetch; result is "ok", "empty" or "error".
func (m *Metrics) ObserveFetch(result string) {
	if m != nil {
		m.fetchesTotal.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) IncStale() {
	if m != nil {
		m.staleTotal.Inc()
	}
}

func (m *Metrics) IncActiveChanges() {
	if m != nil {
		m.activeChanges.Inc()
	}
}

func (m *Metrics) IncPlaybackErrors() {
	if m != nil {
		m.playbackErrors.Inc()
	}
}

func (m *Metrics) IncScrollAbandons() {
	if m != nil {
		m.scrollAbandons.Inc()
	}
}

func (m *Metrics) SetSessions(n int) {
	if m != nil {
		m.sessions.Set(float64(n))
	}
}

// Handler serves the registry. updateGauges runs before each scrape.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
