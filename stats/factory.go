package stats

import (
	"errors"

	"github.com/ipchama/dhcpsentry/config"
)

type StatsInitParams struct {
	options   config.ScanConfig
	collector *Collector
	logFunc   func(string) bool
	errFunc   func(error) bool
}

var statters map[string]func(StatsInitParams) Stats = make(map[string]func(StatsInitParams) Stats)

func AddStatter(s string, f func(StatsInitParams) Stats) error {
	if _, found := statters[s]; found {
		return errors.New("Statter type already exists: " + s)
	}

	statters[s] = f

	return nil
}

// New returns the statter registered for the scan type. The collector may be
// nil, in which case nothing is exported to Prometheus.
func New(o config.ScanConfig, c *Collector, logFunc func(string) bool, errFunc func(error) bool) (Stats, error) {
	sip := StatsInitParams{
		options:   o,
		collector: c,
		logFunc:   logFunc,
		errFunc:   errFunc,
	}

	sf, ok := statters[o.ScanType()]

	if !ok {
		return nil, errors.New("Statters - Scan type not found: " + o.ScanType())
	}

	return sf(sip), nil
}
