package stats_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ipchama/dhcpsentry/stats"
)

func TestNewCollector(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := stats.NewCollector(reg)

	if c.DiscoversSent == nil {
		t.Error("DiscoversSent is nil")
	}
	if c.Offers == nil {
		t.Error("Offers is nil")
	}
	if c.ForeignDatagrams == nil {
		t.Error("ForeignDatagrams is nil")
	}
	if c.MalformedOffers == nil {
		t.Error("MalformedOffers is nil")
	}
	if c.Alerts == nil {
		t.Error("Alerts is nil")
	}

	if _, err := reg.Gather(); err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
}

func TestCollectorObserve(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := stats.NewCollector(reg)

	c.Observe(stats.UnverifiableOfferStat)
	c.Observe(stats.UnverifiableOfferStat)
	c.Observe(stats.MalformedOfferStat)
	c.Observe(stats.ForeignDatagramStat)
	c.Observe(stats.AlertFailedStat)
	c.Observe(stats.OfferReceivedStat)

	expected := `
# HELP dhcpsentry_scan_offers_total Total DHCP offers received, by verdict.
# TYPE dhcpsentry_scan_offers_total counter
dhcpsentry_scan_offers_total{verdict="unverifiable"} 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "dhcpsentry_scan_offers_total"); err != nil {
		t.Errorf("offers_total: %v", err)
	}

	if got := testutil.ToFloat64(c.MalformedOffers); got != 1 {
		t.Errorf("malformed_offers_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.ForeignDatagrams); got != 1 {
		t.Errorf("foreign_datagrams_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.Alerts.WithLabelValues("failed")); got != 1 {
		t.Errorf("alerts_total{result=failed} = %v, want 1", got)
	}
}
