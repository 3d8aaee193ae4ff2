package generator

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/ipchama/dhcpsentry/config"
	"github.com/ipchama/dhcpsentry/dhcpv4"
	"github.com/ipchama/dhcpsentry/message"
	"github.com/ipchama/dhcpsentry/socketeer"
	"github.com/ipchama/dhcpsentry/stats"
)

var (
	ErrNoInterface  = errors.New("raw transport needs an interface")
	ErrNoGatewayMAC = errors.New("gateway MAC is required when ethernet broadcast is disabled")
)

type GeneratorV4 struct {
	options   *config.ScanOptions
	socketeer socketeer.Socketeer

	clientMAC net.HardwareAddr
	interval  time.Duration

	ethernetLayer *layers.Ethernet
	ipLayer       *layers.IPv4
	udpLayer      *layers.UDP

	addLog      func(string) bool
	addError    func(error) bool
	sendPayload func([]byte) bool
	addStat     func(stats.StatValue) bool
	cycle       func(message.Message) bool

	finishChannel   chan struct{}
	doneChannel     chan struct{}
	intervalChannel chan time.Duration
}

func init() {
	if err := AddGenerator("dhcpv4", NewDhcpV4); err != nil {
		panic(err)
	}
}

func NewDhcpV4(gip GeneratorInitParams) Generator {

	g := GeneratorV4{
		options:         gip.options.(*config.ScanOptions),
		socketeer:       gip.socketeer,
		addLog:          gip.logFunc,
		addError:        gip.errFunc,
		sendPayload:     gip.socketeer.AddPayload,
		addStat:         gip.statFunc,
		cycle:           gip.cycleFunc,
		finishChannel:   make(chan struct{}, 1),
		doneChannel:     make(chan struct{}),
		intervalChannel: make(chan time.Duration, 1),
	}

	return &g
}

func (g *GeneratorV4) Init() error {
	var err error

	iface := g.socketeer.Interface()

	if len(g.options.ClientMAC) > 0 {
		g.clientMAC = g.options.ClientMAC
	} else if g.clientMAC, err = dhcpv4.HardwareAddress(iface); err != nil {
		return err
	}

	g.interval = g.options.Interval

	if !g.socketeer.Framed() {
		return nil
	}

	if iface == nil {
		return ErrNoInterface
	}

	socketeerOptions := g.socketeer.Options()

	srcMAC := iface.HardwareAddr
	if len(srcMAC) == 0 {
		srcMAC = g.clientMAC
	}

	g.ethernetLayer = &layers.Ethernet{
		DstMAC:       layers.EthernetBroadcast,
		SrcMAC:       srcMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}

	if !g.options.EthernetBroadcast {
		if len(socketeerOptions.GatewayMAC) == 0 {
			return ErrNoGatewayMAC
		}
		g.ethernetLayer.DstMAC = socketeerOptions.GatewayMAC
	}

	g.ipLayer = &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.IPv4zero,
		DstIP:    net.IPv4bcast,
	}

	g.udpLayer = &layers.UDP{
		SrcPort: layers.UDPPort(socketeerOptions.ClientPort),
		DstPort: layers.UDPPort(socketeerOptions.TargetPort),
	}

	return g.udpLayer.SetNetworkLayerForChecksum(g.ipLayer)
}

func (g *GeneratorV4) DeInit() error {
	return nil
}

func (g *GeneratorV4) Done() <-chan struct{} {
	return g.doneChannel
}

func (g *GeneratorV4) Stop() error {
	select {
	case g.finishChannel <- struct{}{}:
	default:
	}
	<-g.doneChannel
	return nil
}

// Update accepts {"interval": seconds}. The new interval applies from the
// next wait onwards.
func (g *GeneratorV4) Update(details interface{}) error {

	if d, ok := details.(map[string]interface{}); ok {
		if v, ok := d["interval"].(float64); ok && v > 0 {
			select {
			case g.intervalChannel <- time.Duration(v * float64(time.Second)):
				return nil
			default:
				return errors.New("Update request failed.  An interval change is already pending")
			}
		}
	}

	return fmt.Errorf("Update request failed.  Data was %v", details)
}

func (g *GeneratorV4) Run() {

	defer close(g.doneChannel)

	g.addLog(fmt.Sprintf("Scanning with client hardware address %s.", g.clientMAC))

	for attempt := 1; g.options.Attempts == 0 || attempt <= g.options.Attempts; attempt++ {

		select {
		case <-g.finishChannel:
			return
		default:
		}

		xid, err := dhcpv4.GenerateTransactionID()
		if err != nil {
			g.addError(err)
			return
		}

		payload, err := g.frame(dhcpv4.BuildDiscover(xid, g.clientMAC))
		if err != nil {
			g.addError(fmt.Errorf("serialize discover: %w", err))
			return
		}

		// The handler must adopt xid before any answer to it can be queued.
		g.cycle(message.Message{StartOfCycle: true, Transaction: xid})

		if g.sendPayload(payload) {
			g.addStat(stats.DiscoverSentStat)
		}

		g.addLog(fmt.Sprintf("Attempt %d: DHCPDISCOVER sent with transaction id %s.", attempt, xid))

		finished := g.wait(g.options.Timeout)

		g.cycle(message.Message{EndOfCycle: true, Transaction: xid})

		if finished || attempt == g.options.Attempts {
			return
		}

		if g.wait(g.interval - g.options.Timeout) {
			return
		}
	}
}

// wait blocks for d, returning true if the generator was asked to stop.
func (g *GeneratorV4) wait(d time.Duration) bool {

	timer := time.NewTimer(d)
	defer timer.Stop()

	for {
		select {
		case <-g.finishChannel:
			return true
		case g.interval = <-g.intervalChannel:
			g.addLog(fmt.Sprintf("Scan interval changed to %s.", g.interval))
		case <-timer.C:
			return false
		}
	}
}

func (g *GeneratorV4) frame(discover []byte) ([]byte, error) {

	dhcpv4.SetBroadcastFlag(discover, g.options.DhcpBroadcast)

	if !g.socketeer.Framed() {
		return discover, nil
	}

	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}

	buf := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(buf, opts,
		g.ethernetLayer,
		g.ipLayer,
		g.udpLayer,
		gopacket.Payload(discover),
	)

	return buf.Bytes(), err
}
