package handler

import (
	"github.com/ipchama/dhcpsentry/alert"
	"github.com/ipchama/dhcpsentry/config"
	"github.com/ipchama/dhcpsentry/dhcpv4"
	"github.com/ipchama/dhcpsentry/message"
	"github.com/ipchama/dhcpsentry/report"
	"github.com/ipchama/dhcpsentry/stats"
)

// Handler turns received datagrams into offer records. Messages are handled
// one at a time, in arrival order. The transaction a datagram is checked
// against is set by the StartOfCycle marker queued ahead of it.
type Handler interface {
	ReceiveMessage(m message.Message) bool
	Init() error
	Run()
	Stop() error
	DeInit() error

	// Records returns the most recent offer records, oldest first.
	Records() []dhcpv4.OfferRecord
	// RogueFound reports whether any rogue offer has been seen.
	RogueFound() bool
}

type HandlerInitParams struct {
	options   config.ScanConfig
	sink      report.Sink
	alerter   alert.Alerter
	logFunc   func(string) bool
	errFunc   func(error) bool
	statFunc  func(stats.StatValue) bool
	debugFunc func(string) bool
}
