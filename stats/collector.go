package stats

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ipchama/dhcpsentry/dhcpv4"
)

const (
	namespace = "dhcpsentry"
	subsystem = "scan"
)

const (
	labelVerdict = "verdict"
	labelResult  = "result"
)

// Collector exports the scan counters to Prometheus.
type Collector struct {
	// DiscoversSent counts DHCPDISCOVER broadcasts, one per attempt.
	DiscoversSent prometheus.Counter

	// Offers counts interpreted offers by verdict (legitimate, rogue,
	// unverifiable).
	Offers *prometheus.CounterVec

	// ForeignDatagrams counts datagrams on the client port that did not answer
	// the outstanding discovery.
	ForeignDatagrams prometheus.Counter

	// MalformedOffers counts offers whose option stream could not be decoded.
	MalformedOffers prometheus.Counter

	// Alerts counts alert deliveries by result (sent, failed).
	Alerts *prometheus.CounterVec
}

// NewCollector creates a Collector registered against reg. If reg is nil,
// prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.DiscoversSent,
		c.Offers,
		c.ForeignDatagrams,
		c.MalformedOffers,
		c.Alerts,
	)

	return c
}

func newMetrics() *Collector {
	return &Collector{
		DiscoversSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "discovers_sent_total",
			Help:      "Total DHCPDISCOVER messages broadcast.",
		}),

		Offers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "offers_total",
			Help:      "Total DHCP offers received, by verdict.",
		}, []string{labelVerdict}),

		ForeignDatagrams: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "foreign_datagrams_total",
			Help:      "Total datagrams ignored because they did not answer the outstanding discovery.",
		}),

		MalformedOffers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "malformed_offers_total",
			Help:      "Total offers dropped because their options could not be decoded.",
		}),

		Alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "alerts_total",
			Help:      "Total rogue server alerts, by delivery result.",
		}, []string{labelResult}),
	}
}

// Observe mirrors a stat into the matching metric. OfferReceivedStat has no
// metric of its own; it is the sum of the offers_total series.
func (c *Collector) Observe(sv StatValue) {
	switch sv {
	case DiscoverSentStat:
		c.DiscoversSent.Inc()
	case LegitimateOfferStat:
		c.Offers.WithLabelValues(dhcpv4.VerdictLegitimate.String()).Inc()
	case RogueOfferStat:
		c.Offers.WithLabelValues(dhcpv4.VerdictRogue.String()).Inc()
	case UnverifiableOfferStat:
		c.Offers.WithLabelValues(dhcpv4.VerdictUnverifiable.String()).Inc()
	case ForeignDatagramStat:
		c.ForeignDatagrams.Inc()
	case MalformedOfferStat:
		c.MalformedOffers.Inc()
	case AlertSentStat:
		c.Alerts.WithLabelValues("sent").Inc()
	case AlertFailedStat:
		c.Alerts.WithLabelValues("failed").Inc()
	}
}
