package ymsg

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts socket traffic reported by the notify callback. Pass its Observe
// method to OnNotifyOption.
type Metrics struct {
	bytesSent     prometheus.Counter
	bytesReceived prometheus.Counter
	writes        prometheus.Counter
	reads         prometheus.Counter
}

// NewMetrics creates the counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := &Metrics{
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_sent_total",
			Help:      "Total bytes written to the pager connection",
		}),
		bytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_received_total",
			Help:      "Total bytes read from the pager connection",
		}),
		writes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "socket_writes_total",
			Help:      "Total successful socket writes",
		}),
		reads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "socket_reads_total",
			Help:      "Total successful socket reads",
		}),
	}

	for _, c := range []prometheus.Collector{m.bytesSent, m.bytesReceived, m.writes, m.reads} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe records one notification.
func (m *Metrics) Observe(ev Event) {
	switch ev.Kind {
	case EventBytesSent:
		m.writes.Inc()
		m.bytesSent.Add(float64(ev.Bytes))
	case EventBytesReceived:
		m.reads.Inc()
		m.bytesReceived.Add(float64(ev.Bytes))
	}
}
