package message

import (
	"net"

	"github.com/google/gopacket"

	"github.com/ipchama/dhcpsentry/dhcpv4"
)

type Message struct {
	RemoteAddress net.IP
	RemotePort    int
	Packet        gopacket.Packet // Only set by the raw transport.
	Payload       []byte          // The UDP payload, i.e. the DHCP datagram.

	// StartOfCycle and EndOfCycle bracket the receive window for Transaction.
	// Markers carry no datagram. Datagrams queued between the two answer
	// Transaction or nobody.
	StartOfCycle bool
	EndOfCycle   bool
	Transaction  dhcpv4.TransactionID
}

// Marker reports whether m opens or closes a receive window.
func (m Message) Marker() bool {
	return m.StartOfCycle || m.EndOfCycle
}
