package generator

import (
	"errors"

	"github.com/ipchama/dhcpsentry/config"
	"github.com/ipchama/dhcpsentry/message"
	"github.com/ipchama/dhcpsentry/socketeer"
	"github.com/ipchama/dhcpsentry/stats"
)

var generators map[string]func(GeneratorInitParams) Generator = make(map[string]func(GeneratorInitParams) Generator)

func AddGenerator(s string, f func(GeneratorInitParams) Generator) error {
	if _, found := generators[s]; found {
		return errors.New("Generator type already exists: " + s)
	}

	generators[s] = f

	return nil
}

// New returns the generator registered for the scan type. cycleFunc receives
// a StartOfCycle message before each discover is sent and an EndOfCycle
// message once its receive window closes.
func New(s socketeer.Socketeer, o config.ScanConfig, logFunc func(string) bool, errFunc func(error) bool, statFunc func(stats.StatValue) bool, cycleFunc func(message.Message) bool) (Generator, error) {

	gip := GeneratorInitParams{
		socketeer: s,
		options:   o,
		logFunc:   logFunc,
		errFunc:   errFunc,
		statFunc:  statFunc,
		cycleFunc: cycleFunc,
	}

	gf, ok := generators[o.ScanType()]

	if !ok {
		return nil, errors.New("Generators - Scan type not found: " + o.ScanType())
	}

	return gf(gip), nil
}
