package config

import (
	"net"

	"golang.org/x/sys/unix"
)

const (
	TransportRaw = "raw"
	TransportUDP = "udp"
)

type SocketeerOptions struct {
	InterfaceName   string
	Transport       string
	GatewayMAC      net.HardwareAddr
	PromiscuousMode bool
	EbpfFilter      *unix.SockFprog

	ClientPort int
	TargetPort int
}
