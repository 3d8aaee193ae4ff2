package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ipchama/dhcpsentry/config"
)

const (
	DiscoverSentStat = iota
	OfferReceivedStat
	LegitimateOfferStat
	RogueOfferStat
	UnverifiableOfferStat
	ForeignDatagramStat
	MalformedOfferStat
	AlertSentStat
	AlertFailedStat

	statCount
)

var statNames = [statCount]string{
	DiscoverSentStat:      "DiscoverSent",
	OfferReceivedStat:     "OfferReceived",
	LegitimateOfferStat:   "LegitimateOffer",
	RogueOfferStat:        "RogueOffer",
	UnverifiableOfferStat: "UnverifiableOffer",
	ForeignDatagramStat:   "ForeignDatagram",
	MalformedOfferStat:    "MalformedOffer",
	AlertSentStat:         "AlertSent",
	AlertFailedStat:       "AlertFailed",
}

var ErrInvalidStatsRate = errors.New("stats rate must be at least one second")

type StatsV4 struct {
	options   *config.ScanOptions
	collector *Collector

	countersMux *sync.RWMutex
	counters    [statCount]Stat

	addLog   func(string) bool
	addError func(error) bool

	statChannel chan StatValue
	doneChannel chan struct{}
}

func init() {
	if err := AddStatter("dhcpv4", NewStatsDhcpV4); err != nil {
		panic(err)
	}
}

func NewStatsDhcpV4(sip StatsInitParams) Stats {
	s := StatsV4{
		options:     sip.options.(*config.ScanOptions),
		collector:   sip.collector,
		addLog:      sip.logFunc,
		addError:    sip.errFunc,
		statChannel: make(chan StatValue, 10000),
		doneChannel: make(chan struct{}),
		countersMux: &sync.RWMutex{},
	}

	return &s
}

// AddStat never blocks; a stat is dropped when the channel is full.
func (s *StatsV4) AddStat(sv StatValue) bool {
	select {
	case s.statChannel <- sv:
		return true
	default:
	}
	return false
}

func (s *StatsV4) Init() error {

	if s.options.StatsRate < 1 {
		return ErrInvalidStatsRate
	}

	for i := range s.counters {
		s.counters[i].Name = statNames[i]
	}

	s.addLog(fmt.Sprintf("Stat rates are calculated every %d second(s).", s.options.StatsRate))

	return nil
}

func (s *StatsV4) DeInit() error {
	return nil
}

func (s *StatsV4) Run() {

	var wg sync.WaitGroup

	wg.Add(1)

	stopTicker := make(chan struct{})

	ticker := time.NewTicker(time.Duration(s.options.StatsRate) * time.Second)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stopTicker:
				ticker.Stop()
				return
			case <-ticker.C:
			}

			s.calculateStats()
		}
	}()

	for sv := range s.statChannel {
		if sv < 0 || sv >= statCount {
			continue
		}

		s.countersMux.Lock()
		s.counters[sv].Value++
		s.countersMux.Unlock()

		if s.collector != nil {
			s.collector.Observe(sv)
		}
	}

	close(stopTicker)
	wg.Wait()

	close(s.doneChannel)
}

func (s *StatsV4) calculateStats() {

	rate := float64(s.options.StatsRate)

	s.countersMux.Lock()
	for i := range s.counters {
		s.counters[i].RatePerSecond = float64(s.counters[i].Value-s.counters[i].PreviousTickerValue) / rate
		s.counters[i].PreviousTickerValue = s.counters[i].Value
	}
	s.countersMux.Unlock()
}

func (s *StatsV4) Counters() []Stat {

	s.countersMux.RLock()
	defer s.countersMux.RUnlock()

	out := make([]Stat, len(s.counters))
	copy(out, s.counters[:])

	return out
}

func (s *StatsV4) String() string {

	jsonData, err := json.MarshalIndent(s.Counters(), "", "  ")
	if err != nil {
		s.addError(err)
		return ""
	}

	return string(jsonData)
}

func (s *StatsV4) Stop() error {
	close(s.statChannel)
	<-s.doneChannel

	return nil
}
