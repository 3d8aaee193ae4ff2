package socketeer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/ipchama/dhcpsentry/config"
	"github.com/ipchama/dhcpsentry/message"
)

// UdpSocketeer exchanges DHCP datagrams over a UDP socket bound to the client
// port, leaving framing to the kernel.
type UdpSocketeer struct {
	conn          net.PacketConn
	IfInfo        *net.Interface
	target        *net.UDPAddr
	outputChannel chan []byte

	options *config.SocketeerOptions

	addLog   func(string) bool
	addError func(error) bool

	handleMessage func(msg message.Message) bool

	doneChannel chan struct{}
}

func NewUdpSocketeer(o *config.SocketeerOptions, logFunc func(string) bool, errFunc func(error) bool) *UdpSocketeer {

	s := UdpSocketeer{
		options:       o,
		addLog:        logFunc,
		addError:      errFunc,
		outputChannel: make(chan []byte),
		doneChannel:   make(chan struct{}),
	}

	return &s
}

func (s *UdpSocketeer) SetReceiver(receiverFunc func(msg message.Message) bool) {
	s.handleMessage = receiverFunc
}

func (s *UdpSocketeer) Options() config.SocketeerOptions {
	return *s.options
}

func (s *UdpSocketeer) Interface() *net.Interface {
	return s.IfInfo
}

func (s *UdpSocketeer) Framed() bool {
	return false
}

func (s *UdpSocketeer) control(network, address string, c syscall.RawConn) error {
	var sockErr error

	err := c.Control(func(fd uintptr) {
		if sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1); sockErr != nil {
			return
		}
		if sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); sockErr != nil {
			return
		}
		if s.options.InterfaceName != "" {
			sockErr = unix.BindToDevice(int(fd), s.options.InterfaceName)
		}
	})
	if err != nil {
		return err
	}

	return sockErr
}

func (s *UdpSocketeer) Init() error {
	var err error

	if s.options.InterfaceName != "" {
		if s.IfInfo, err = net.InterfaceByName(s.options.InterfaceName); err != nil {
			return err
		}
	}

	lc := net.ListenConfig{Control: s.control}

	if s.conn, err = lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf("0.0.0.0:%d", s.options.ClientPort)); err != nil {
		return err
	}

	s.target = &net.UDPAddr{IP: net.IPv4bcast, Port: s.options.TargetPort}

	device := s.options.InterfaceName
	if device == "" {
		device = "all interfaces"
	}
	s.addLog(fmt.Sprintf("Listening on %s via %s (udp), sending to %s.", s.conn.LocalAddr(), device, s.target))

	return nil
}

func (s *UdpSocketeer) DeInit() error {
	return nil
}

func (s *UdpSocketeer) RunListener() {

	defer close(s.doneChannel)

	data := make([]byte, 2048)

	for {
		read, from, err := s.conn.ReadFrom(data)

		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.addError(err)
			continue
		}

		payload := make([]byte, read)
		copy(payload, data[:read])

		msg := message.Message{
			Payload: payload,
		}

		if addr, ok := from.(*net.UDPAddr); ok {
			msg.RemoteAddress = addr.IP
			msg.RemotePort = addr.Port
		}

		s.handleMessage(msg)
	}
}

func (s *UdpSocketeer) RunWriter() {

	for payload := range s.outputChannel {
		if _, err := s.conn.WriteTo(payload, s.target); err != nil {
			s.addError(err)
		}
	}
}

func (s *UdpSocketeer) StopListener() error {

	err := s.conn.Close()
	<-s.doneChannel

	return err
}

func (s *UdpSocketeer) StopWriter() error {
	close(s.outputChannel)
	return nil
}

func (s *UdpSocketeer) AddPayload(payload []byte) bool {
	s.outputChannel <- payload
	return true
}
