// Package metrics exposes queue activity as Prometheus metrics. A Recorder is
// registered on the queue service as its Observer and serves its own registry
// over HTTP.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"printq/internal/queue"
)

const namespace = "printq"

// StatsSource reports entry counts per status.
type StatsSource interface {
	Stats(ctx context.Context) (map[queue.Status]int, error)
}

var _ queue.Observer = (*Recorder)(nil)

// Recorder counts queue mutations and failures.
type Recorder struct {
	registry    *prometheus.Registry
	enqueued    prometheus.Counter
	transitions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	released    prometheus.Counter
}

// NewRecorder builds a Recorder on a fresh registry. When source is non-nil an
// entries gauge is collected from it on every scrape.
func NewRecorder(source StatsSource) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		enqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_enqueued_total",
			Help:      "Queue entries created.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Successful status transitions by source and target status.",
		}, []string{"from", "to"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_failures_total",
			Help:      "Rejected or failed queue operations by operation and error kind.",
		}, []string{"op", "kind"}),
		released: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "positions_released_total",
			Help:      "Positions vacated by entries reaching a terminal status.",
		}),
	}
	r.registry.MustRegister(
		r.enqueued,
		r.transitions,
		r.failures,
		r.released,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if source != nil {
		r.registry.MustRegister(newEntriesCollector(source))
	}
	return r
}

// EntryEnqueued implements queue.Observer.
func (r *Recorder) EntryEnqueued(queue.Entry) {
	r.enqueued.Inc()
}

// EntryTransitioned implements queue.Observer.
func (r *Recorder) EntryTransitioned(from queue.Status, entry queue.Entry) {
	r.transitions.WithLabelValues(string(from), string(entry.Status)).Inc()
	if _, released := queue.ReleasePosition(entry); released {
		r.released.Inc()
	}
}

// OperationFailed implements queue.Observer.
func (r *Recorder) OperationFailed(op string, err error) {
	r.failures.WithLabelValues(op, string(queue.KindOf(err))).Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

type entriesCollector struct {
	source StatsSource
	desc   *prometheus.Desc
	errors prometheus.Counter
}

func newEntriesCollector(source StatsSource) *entriesCollector {
	return &entriesCollector{
		source: source,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "entries"),
			"Queue entries currently stored, by status.",
			[]string{"status"}, nil,
		),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stats_scrape_errors_total",
			Help:      "Failed store stats reads during metric collection.",
		}),
	}
}

func (c *entriesCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
	c.errors.Describe(ch)
}

func (c *entriesCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	stats, err := c.source.Stats(ctx)
	if err != nil {
		c.errors.Inc()
	} else {
		for _, status := range queue.AllStatuses() {
			ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(stats[status]), string(status))
		}
	}
	c.errors.Collect(ch)
}
