package socketeer

import (
	"fmt"
	"net"

	"github.com/ipchama/dhcpsentry/config"
	"github.com/ipchama/dhcpsentry/message"
)

// Socketeer moves payloads to and from the wire. Raw socketeers exchange
// whole Ethernet frames, UDP socketeers exchange DHCP datagrams; Framed tells
// the generator which one it is talking to.
type Socketeer interface {
	Init() error
	DeInit() error
	SetReceiver(receiverFunc func(msg message.Message) bool)
	RunListener()
	RunWriter()
	StopListener() error
	StopWriter() error
	AddPayload(payload []byte) bool
	Options() config.SocketeerOptions
	Interface() *net.Interface
	Framed() bool
}

func New(o *config.SocketeerOptions, logFunc func(string) bool, errFunc func(error) bool) (Socketeer, error) {
	switch o.Transport {
	case config.TransportRaw, "":
		return NewRawSocketeer(o, logFunc, errFunc), nil
	case config.TransportUDP:
		return NewUdpSocketeer(o, logFunc, errFunc), nil
	default:
		return nil, fmt.Errorf("socketeer - unknown transport: %q", o.Transport)
	}
}
