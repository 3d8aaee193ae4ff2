package handler

import (
	"errors"

	"github.com/ipchama/dhcpsentry/alert"
	"github.com/ipchama/dhcpsentry/config"
	"github.com/ipchama/dhcpsentry/report"
	"github.com/ipchama/dhcpsentry/stats"
)

var handlers map[string]func(HandlerInitParams) Handler = make(map[string]func(HandlerInitParams) Handler)

func AddHandler(s string, f func(HandlerInitParams) Handler) error {
	if _, found := handlers[s]; found {
		return errors.New("Handler type already exists: " + s)
	}

	handlers[s] = f

	return nil
}

// New returns the handler registered for the scan type. debugFunc may be nil,
// which skips building packet dumps.
func New(o config.ScanConfig, sink report.Sink, alerter alert.Alerter, logFunc func(string) bool, errFunc func(error) bool, statFunc func(stats.StatValue) bool, debugFunc func(string) bool) (Handler, error) {
	hip := HandlerInitParams{
		options:   o,
		sink:      sink,
		alerter:   alerter,
		logFunc:   logFunc,
		errFunc:   errFunc,
		statFunc:  statFunc,
		debugFunc: debugFunc,
	}

	hf, ok := handlers[o.ScanType()]

	if !ok {
		return nil, errors.New("Handlers - Scan type not found: " + o.ScanType())
	}

	return hf(hip), nil
}
