package socketeer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"runtime"
	"syscall"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"golang.org/x/sys/unix"

	"github.com/ipchama/dhcpsentry/config"
	"github.com/ipchama/dhcpsentry/message"
)

type RawSocketeer struct {
	socketFd      int
	IfInfo        *net.Interface
	outputChannel chan []byte

	options *config.SocketeerOptions

	addLog   func(string) bool
	addError func(error) bool

	handleMessage func(msg message.Message) bool

	finishChannel chan struct{}
	doneChannel   chan struct{}
}

func NewRawSocketeer(o *config.SocketeerOptions, logFunc func(string) bool, errFunc func(error) bool) *RawSocketeer {

	s := RawSocketeer{
		socketFd:      -1,
		options:       o,
		addLog:        logFunc,
		addError:      errFunc,
		outputChannel: make(chan []byte),
		finishChannel: make(chan struct{}, 1),
		doneChannel:   make(chan struct{}, 1),
	}

	return &s
}

func (s *RawSocketeer) SetReceiver(receiverFunc func(msg message.Message) bool) {
	s.handleMessage = receiverFunc
}

func (s *RawSocketeer) Options() config.SocketeerOptions {
	return *s.options
}

func (s *RawSocketeer) Interface() *net.Interface {
	return s.IfInfo
}

func (s *RawSocketeer) Framed() bool {
	return true
}

func htons(v uint16) uint16 {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return binary.LittleEndian.Uint16(b)
}

func (s *RawSocketeer) Init() error {
	var err error

	if s.socketFd, err = unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(htons(unix.ETH_P_ALL))); err != nil {
		return err
	}

	filterName := "custom socket filter"
	filter := s.options.EbpfFilter
	if filter == nil {
		if filter, err = SockFprog(ClientPortFilter(s.options.ClientPort)); err != nil {
			return err
		}
		filterName = fmt.Sprintf("UDP port %d filter", s.options.ClientPort)
	}

	if err = unix.SetsockoptSockFprog(s.socketFd, unix.SOL_SOCKET, unix.SO_ATTACH_FILTER, filter); err != nil {
		return err
	}

	// Wake the listener up regularly so it notices StopListener.
	if err = unix.SetsockoptTimeval(s.socketFd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &unix.Timeval{Sec: 1}); err != nil {
		return err
	}

	s.IfInfo, err = net.InterfaceByName(s.options.InterfaceName)

	if err != nil {
		return err
	}

	addr := unix.SockaddrLinklayer{
		Protocol: htons(unix.ETH_P_ALL),
		Ifindex:  s.IfInfo.Index,
	}

	if err = unix.Bind(s.socketFd, &addr); err != nil {
		return err
	}

	if s.options.PromiscuousMode {
		if err = syscall.SetLsfPromisc(s.options.InterfaceName, true); err != nil {
			return err
		}
	}

	s.addLog(fmt.Sprintf("Listening on %s (raw, %s, promiscuous %t).", s.IfInfo.Name, filterName, s.options.PromiscuousMode))

	return nil
}

func (s *RawSocketeer) DeInit() error {

	if s.options.PromiscuousMode {
		if err := syscall.SetLsfPromisc(s.options.InterfaceName, false); err != nil {
			return err
		}
	}

	return nil
}

func (s *RawSocketeer) RunListener() {

	data := make([]byte, 4096)

	defer close(s.doneChannel)

	for {

		select {
		case <-s.finishChannel:
			return
		default:
		}

		read, ifrom, err := unix.Recvfrom(s.socketFd, data, 0)

		if err != nil {
			if !errors.Is(err, unix.EAGAIN) && !errors.Is(err, unix.EINTR) {
				s.addError(err)
			}
			continue
		} else if sll, ok := ifrom.(*unix.SockaddrLinklayer); ok && sll.Pkttype == unix.PACKET_OUTGOING {
			runtime.Gosched()
			continue
		} else if read == 0 {
			runtime.Gosched()
			continue
		}

		// The handler works asynchronously, so the frame must not share the read buffer.
		frame := make([]byte, read)
		copy(frame, data[:read])

		s.handleMessage(s.decode(frame))
	}

}

// decode wraps a frame into a message. Payload is only set for UDP datagrams
// addressed to the client port; other frames that made it through the socket
// filter (ARP lookups use an accept-all filter) carry just the packet.
func (s *RawSocketeer) decode(frame []byte) message.Message {
	p := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.DecodeOptions{Lazy: true, NoCopy: true})

	msg := message.Message{
		Packet: p,
	}

	if ip, ok := p.Layer(layers.LayerTypeIPv4).(*layers.IPv4); ok {
		msg.RemoteAddress = ip.SrcIP
	}

	if udp, ok := p.Layer(layers.LayerTypeUDP).(*layers.UDP); ok {
		msg.RemotePort = int(udp.SrcPort)
		if int(udp.DstPort) == s.options.ClientPort {
			msg.Payload = udp.Payload
		}
	}

	return msg
}

func (s *RawSocketeer) RunWriter() {

	var payload []byte

	for ok := true; ok; {
		if payload, ok = <-s.outputChannel; ok {

			_, err := unix.Write(s.socketFd, payload)

			if err != nil {
				s.addError(err)
			}
		}
	}
}

func (s *RawSocketeer) StopListener() error {

	s.finishChannel <- struct{}{}
	<-s.doneChannel

	return unix.Close(s.socketFd)
}

func (s *RawSocketeer) StopWriter() error {
	close(s.outputChannel)
	return nil
}

func (s *RawSocketeer) AddPayload(payload []byte) bool {
	s.outputChannel <- payload
	return true
}
