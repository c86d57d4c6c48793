package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rickgao/forkstream/internal/fork"
)

const namespace = "forkstream"

// StatsFunc returns a point-in-time snapshot of a fork.
type StatsFunc func() fork.Stats

// Collector is a prometheus.Collector reading fork statistics on scrape.
type Collector struct {
	stats StatsFunc

	received  *prometheus.Desc
	unrouted  *prometheus.Desc
	classify  *prometheus.Desc
	published *prometheus.Desc
	forwarded *prometheus.Desc
	discarded *prometheus.Desc
	dropped   *prometheus.Desc
	state     *prometheus.Desc
}

// NewCollector returns a Collector over stats.
func NewCollector(stats StatsFunc) *Collector {
	forkLabels := []string{"fork"}
	destLabels := []string{"fork", "destination"}

	return &Collector{
		stats: stats,
		received: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "records_received_total"),
			"Records read from the input stream.",
			forkLabels, nil,
		),
		unrouted: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "records_unrouted_total"),
			"Records classified to no destination.",
			forkLabels, nil,
		),
		classify: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "classify_errors_total"),
			"Records the classifier rejected.",
			forkLabels, nil,
		),
		published: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "envelopes_published_total"),
			"Envelopes broadcast to filter channels.",
			forkLabels, nil,
		),
		forwarded: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "destination", "forwarded_total"),
			"Payloads written to the destination sink.",
			destLabels, nil,
		),
		discarded: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "destination", "discarded_total"),
			"Envelopes addressed to other destinations.",
			destLabels, nil,
		),
		dropped: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "destination", "dropped_total"),
			"Payloads not delivered because the destination failed.",
			destLabels, nil,
		),
		state: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "destination", "state"),
			"Filter state: 0 created, 1 resolving, 2 wired, 3 failed.",
			destLabels, nil,
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.received
	ch <- c.unrouted
	ch <- c.classify
	ch <- c.published
	ch <- c.forwarded
	ch <- c.discarded
	ch <- c.dropped
	ch <- c.state
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()

	ch <- prometheus.MustNewConstMetric(c.received, prometheus.CounterValue, float64(s.RecordsReceived), s.Name)
	ch <- prometheus.MustNewConstMetric(c.unrouted, prometheus.CounterValue, float64(s.RecordsUnrouted), s.Name)
	ch <- prometheus.MustNewConstMetric(c.classify, prometheus.CounterValue, float64(s.ClassifyErrors), s.Name)
	ch <- prometheus.MustNewConstMetric(c.published, prometheus.CounterValue, float64(s.EnvelopesPublished), s.Name)

	for _, d := range s.Destinations {
		ch <- prometheus.MustNewConstMetric(c.forwarded, prometheus.CounterValue, float64(d.Forwarded), s.Name, d.Key)
		ch <- prometheus.MustNewConstMetric(c.discarded, prometheus.CounterValue, float64(d.Discarded), s.Name, d.Key)
		ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(d.Dropped), s.Name, d.Key)
		ch <- prometheus.MustNewConstMetric(c.state, prometheus.GaugeValue, float64(d.State), s.Name, d.Key)
	}
}
