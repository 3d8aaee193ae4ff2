package config

import (
	"net"
	"time"
)

// ScanConfig is implemented by every scan type's runtime options. The type
// name selects the generator, handler and stats implementations.
type ScanConfig interface {
	ScanType() string
}

type ScanOptions struct {
	DhcpBroadcast     bool
	EthernetBroadcast bool

	// Attempts is the number of discovery cycles to run. 0 == forever.
	Attempts int
	// Timeout is how long each cycle listens for offers.
	Timeout time.Duration
	// Interval is the time between the start of two cycles. Values below
	// Timeout are raised to Timeout.
	Interval time.Duration

	ClientMAC net.HardwareAddr

	// ExpectedServer is the authorised server identifier, dotted-decimal.
	ExpectedServer     string
	AlertUnverifiable  bool
	RecentRecordsLimit int

	StatsRate int
}

func (o *ScanOptions) ScanType() string {
	return "dhcpv4"
}
