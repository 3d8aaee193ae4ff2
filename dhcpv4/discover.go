// Package dhcpv4 holds the DHCP wire logic of the scanner: building the
// discovery datagram, decoding offer options and deciding whether an offer
// came from the authorised server.
//
// Everything here is a pure function over its inputs. Nothing blocks or
// performs I/O, so callers may invoke it from any goroutine.
package dhcpv4

import (
	"encoding/binary"
	"net"
)

// BOOTP operations.
const (
	OpRequest byte = 1
	OpReply   byte = 2
)

const (
	hardwareTypeEthernet byte = 1
	hardwareAddrLen           = 6
	broadcastFlag             = 0x8000

	// MagicCookie marks the start of the DHCP options area (RFC 2131 §3).
	MagicCookie uint32 = 0x63825363
)

// Fixed header offsets (RFC 2131 §2, figure 1).
const (
	offsetXid      = 4
	offsetSecs     = 8
	offsetFlags    = 10
	offsetYIAddr   = 16
	offsetSIAddr   = 20
	offsetCHAddr   = 28
	chaddrLen      = 16
	offsetCookie   = 236
	HeaderLen      = 240
	ServerPort     = 67
	ClientPort     = 68
	discoverOptLen = 3 + 2 + hardwareAddrLen + 5 + 1

	// DiscoverLen is the total length of the datagram built by BuildDiscover.
	DiscoverLen = HeaderLen + discoverOptLen
)

// Option codes used by the scanner.
const (
	OptPad              byte = 0
	OptSubnetMask       byte = 1
	OptRouter           byte = 3
	OptDomainNameServer byte = 6
	OptBroadcastAddress byte = 28
	OptLeaseTime        byte = 51
	OptMessageType      byte = 53
	OptServerIdentifier byte = 54
	OptParameterRequest byte = 55
	OptRenewalTime      byte = 58
	OptRebindingTime    byte = 59
	OptClientIdentifier byte = 61
	OptEnd              byte = 255
)

// DHCP message types carried in option 53.
const (
	MessageDiscover byte = 1
	MessageOffer    byte = 2
	MessageRequest  byte = 3
	MessageDecline  byte = 4
	MessageAck      byte = 5
	MessageNak      byte = 6
)

// BuildDiscover assembles a broadcast DHCPDISCOVER for the given transaction
// and client hardware address. The hardware address is written twice: into
// chaddr and as the client identifier option (61). Only the first six bytes
// of hw are used; a shorter address is zero padded.
func BuildDiscover(xid TransactionID, hw net.HardwareAddr) []byte {
	var mac [hardwareAddrLen]byte
	copy(mac[:], hw)

	b := make([]byte, DiscoverLen)

	b[0] = OpRequest
	b[1] = hardwareTypeEthernet
	b[2] = hardwareAddrLen
	b[3] = 0 // hops
	copy(b[offsetXid:offsetXid+4], xid[:])
	binary.BigEndian.PutUint16(b[offsetSecs:], 0)
	binary.BigEndian.PutUint16(b[offsetFlags:], broadcastFlag)

	// ciaddr, yiaddr, siaddr, giaddr, the chaddr padding, sname and file
	// are all left zeroed by make.
	copy(b[offsetCHAddr:offsetCHAddr+chaddrLen], mac[:])

	binary.BigEndian.PutUint32(b[offsetCookie:], MagicCookie)

	opts := b[HeaderLen:HeaderLen]
	opts = append(opts, OptMessageType, 1, MessageDiscover)
	opts = append(opts, OptClientIdentifier, hardwareAddrLen)
	opts = append(opts, mac[:]...)
	opts = append(opts, OptParameterRequest, 3, OptRouter, OptSubnetMask, OptDomainNameServer)
	opts = append(opts, OptEnd)

	return b[:HeaderLen+len(opts)]
}

// SetBroadcastFlag sets or clears the BROADCAST bit of a built message.
func SetBroadcastFlag(b []byte, on bool) {
	if len(b) < offsetFlags+2 {
		return
	}
	if on {
		binary.BigEndian.PutUint16(b[offsetFlags:], broadcastFlag)
		return
	}
	binary.BigEndian.PutUint16(b[offsetFlags:], 0)
}
