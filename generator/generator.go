package generator

import (
	"github.com/ipchama/dhcpsentry/config"
	"github.com/ipchama/dhcpsentry/message"
	"github.com/ipchama/dhcpsentry/socketeer"
	"github.com/ipchama/dhcpsentry/stats"
)

// Generator drives the discovery cycles. Done is closed once Run returns,
// either because the attempts ran out or because Stop was called.
type Generator interface {
	Init() error
	Update(interface{}) error
	Run()
	Stop() error
	DeInit() error
	Done() <-chan struct{}
}

type GeneratorInitParams struct {
	socketeer socketeer.Socketeer
	options   config.ScanConfig
	logFunc   func(string) bool
	errFunc   func(error) bool
	statFunc  func(stats.StatValue) bool
	cycleFunc func(message.Message) bool
}
