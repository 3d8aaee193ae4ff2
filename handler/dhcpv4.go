package handler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	idhcp "github.com/insomniacslk/dhcp/dhcpv4"

	"github.com/ipchama/dhcpsentry/alert"
	"github.com/ipchama/dhcpsentry/config"
	"github.com/ipchama/dhcpsentry/dhcpv4"
	"github.com/ipchama/dhcpsentry/message"
	"github.com/ipchama/dhcpsentry/report"
	"github.com/ipchama/dhcpsentry/stats"
)

const (
	defaultRecentRecords = 100
	alertTimeout         = 30 * time.Second
)

type HandlerV4 struct {
	options *config.ScanOptions
	sink    report.Sink
	alerter alert.Alerter

	addLog   func(string) bool
	addError func(error) bool
	addStat  func(stats.StatValue) bool
	addDebug func(string) bool

	inputChannel chan message.Message
	doneChannel  chan struct{}

	// Only touched by Run.
	current     dhcpv4.TransactionID
	inCycle     bool
	pending     []dhcpv4.OfferRecord
	cycleOffers int

	recordsMux sync.RWMutex
	records    []dhcpv4.OfferRecord
	limit      int

	rogueFound atomic.Bool
}

func init() {
	if err := AddHandler("dhcpv4", NewDhcpV4); err != nil {
		panic(err)
	}
}

func NewDhcpV4(hip HandlerInitParams) Handler {

	h := HandlerV4{
		options:      hip.options.(*config.ScanOptions),
		sink:         hip.sink,
		alerter:      hip.alerter,
		addLog:       hip.logFunc,
		addError:     hip.errFunc,
		addStat:      hip.statFunc,
		addDebug:     hip.debugFunc,
		inputChannel: make(chan message.Message, 10000),
		doneChannel:  make(chan struct{}),
	}

	return &h
}

// ReceiveMessage queues a datagram, dropping it if the queue is full. Cycle
// markers are never dropped.
func (h *HandlerV4) ReceiveMessage(msg message.Message) bool {

	if msg.Marker() {
		h.inputChannel <- msg
		return true
	}

	select {
	case h.inputChannel <- msg:
		return true
	default:
	}

	return false
}

func (h *HandlerV4) Init() error {

	if h.sink == nil {
		h.sink = report.Multi{}
	}

	if h.alerter == nil {
		h.alerter = alert.Nop{}
	}

	h.limit = h.options.RecentRecordsLimit
	if h.limit <= 0 {
		h.limit = defaultRecentRecords
	}

	return nil
}

func (h *HandlerV4) DeInit() error {
	return nil
}

func (h *HandlerV4) Stop() error {
	close(h.inputChannel)
	<-h.doneChannel
	return nil
}

func (h *HandlerV4) Run() {

	defer close(h.doneChannel)

	for msg := range h.inputChannel {
		switch {
		case msg.StartOfCycle:
			h.startCycle(msg.Transaction)
			continue
		case msg.EndOfCycle:
			h.endCycle(msg.Transaction)
			continue
		}

		h.handle(msg)
	}

	// Offers that arrived after the last completed cycle still get alerted.
	h.flushAlerts()
}

func (h *HandlerV4) handle(msg message.Message) {

	// Raw frames that are not DHCP datagrams carry no payload.
	if len(msg.Payload) == 0 {
		return
	}

	if msg.Payload[0] != dhcpv4.OpReply {
		h.addStat(stats.ForeignDatagramStat)
		return
	}

	if !h.inCycle {
		h.addStat(stats.ForeignDatagramStat)
		return
	}

	offer, err := dhcpv4.InterpretOffer(msg.Payload, h.current)
	if err != nil {
		h.addStat(stats.MalformedOfferStat)
		h.addError(fmt.Errorf("offer from %s: %w", msg.RemoteAddress, err))
		return
	}

	if offer == nil {
		h.addStat(stats.ForeignDatagramStat)
		return
	}

	for _, o := range offer.Options {
		if o.Err != nil {
			h.addLog(fmt.Sprintf("Offer from %s: option %d: %v", msg.RemoteAddress, o.Code, o.Err))
		}
	}

	rec := dhcpv4.Evaluate(offer, h.options.ExpectedServer)

	h.addStat(stats.OfferReceivedStat)

	switch rec.Verdict {
	case dhcpv4.VerdictRogue:
		h.addStat(stats.RogueOfferStat)
		h.rogueFound.Store(true)
	case dhcpv4.VerdictLegitimate:
		h.addStat(stats.LegitimateOfferStat)
	default:
		h.addStat(stats.UnverifiableOfferStat)
	}

	h.cycleOffers++
	h.remember(rec)

	if err := h.sink.Report(rec); err != nil {
		h.addError(fmt.Errorf("report offer: %w", err))
	}

	if h.addDebug != nil {
		if p, err := idhcp.FromBytes(msg.Payload); err == nil {
			h.addDebug(p.Summary())
		}
	}

	if rec.Rogue || (h.options.AlertUnverifiable && rec.Verdict == dhcpv4.VerdictUnverifiable) {
		h.pending = append(h.pending, rec)
	}
}

func (h *HandlerV4) startCycle(xid dhcpv4.TransactionID) {
	h.current = xid
	h.inCycle = true
	h.cycleOffers = 0
}

func (h *HandlerV4) endCycle(xid dhcpv4.TransactionID) {

	if xid == h.current {
		h.inCycle = false
	}

	h.addLog(fmt.Sprintf("Receive window for %s closed, %d offer(s).", xid, h.cycleOffers))
	h.cycleOffers = 0

	h.flushAlerts()
}

func (h *HandlerV4) flushAlerts() {

	if len(h.pending) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), alertTimeout)
	defer cancel()

	if err := h.alerter.Alert(ctx, h.pending); err != nil {
		h.addStat(stats.AlertFailedStat)
		h.addError(fmt.Errorf("send alert: %w", err))
	} else {
		h.addStat(stats.AlertSentStat)
		h.addLog(fmt.Sprintf("Alert sent for %d offer(s).", len(h.pending)))
	}

	h.pending = nil
}

func (h *HandlerV4) remember(rec dhcpv4.OfferRecord) {

	h.recordsMux.Lock()
	defer h.recordsMux.Unlock()

	if len(h.records) >= h.limit {
		h.records = append(h.records[:0], h.records[len(h.records)-h.limit+1:]...)
	}

	h.records = append(h.records, rec)
}

func (h *HandlerV4) Records() []dhcpv4.OfferRecord {

	h.recordsMux.RLock()
	defer h.recordsMux.RUnlock()

	return append([]dhcpv4.OfferRecord(nil), h.records...)
}

func (h *HandlerV4) RogueFound() bool {
	return h.rogueFound.Load()
}
