package ringcast

import (
	"github.com/prometheus/client_golang/prometheus"
)

// channelMetrics holds Prometheus metrics for one channel.
type channelMetrics struct {
	writes   prometheus.Counter
	reads    prometheus.Counter
	lost     prometheus.Counter
	rejected prometheus.Counter
	readers  prometheus.Counter
}

// newChannelMetrics creates the channel metrics and registers them with reg.
func newChannelMetrics(reg prometheus.Registerer, name string) (*channelMetrics, error) {
	labels := prometheus.Labels{"channel": name}
	counter := func(metric, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "ringcast",
			Subsystem:   "channel",
			Name:        metric,
			ConstLabels: labels,
			Help:        help,
		})
	}

	m := &channelMetrics{
		writes:   counter("writes_total", "Total number of values written to the channel"),
		reads:    counter("reads_total", "Total number of values handed to readers, salvage included"),
		lost:     counter("lost_total", "Total number of values overwritten before a reader saw them"),
		rejected: counter("rejected_writes_total", "Total number of batches rejected for exceeding capacity"),
		readers:  counter("readers_total", "Total number of readers created"),
	}

	for _, c := range []prometheus.Collector{m.writes, m.reads, m.lost, m.rejected, m.readers} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *channelMetrics) recordWrite(n int) {
	m.writes.Add(float64(n))
}

func (m *channelMetrics) recordRead(n int) {
	if n > 0 {
		m.reads.Add(float64(n))
	}
}

func (m *channelMetrics) recordLost(n uint64) {
	m.lost.Add(float64(n))
}

func (m *channelMetrics) recordRejected() {
	m.rejected.Inc()
}

func (m *channelMetrics) recordReader() {
	m.readers.Inc()
}
