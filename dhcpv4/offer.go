package dhcpv4

import (
	"bytes"
	"fmt"
)

// Labels used for options outside the decoded set.
const (
	UnknownOptionName  = "Option not found"
	UnknownOptionValue = "N/A"
)

// SemanticOption is the human readable projection of an Option.
type SemanticOption struct {
	Code  byte   `json:"code"`
	Name  string `json:"name"`
	Value string `json:"value"`
	// Err is set when the value could not be decoded; Value then holds a
	// placeholder describing the problem.
	Err error `json:"-"`
}

// Offer is the decoded content of a reply matching an outstanding discovery.
type Offer struct {
	OfferedIP    string `json:"offered_ip"`
	NextServerIP string `json:"next_server_ip"`

	// ServerIdentity is the decoded option 54. HasServerIdentity is false
	// when the option was absent or its value could not be decoded.
	ServerIdentity    string `json:"server_identity,omitempty"`
	HasServerIdentity bool   `json:"has_server_identity"`

	Options []SemanticOption `json:"options"`
}

type optionKind int

const (
	kindAddress optionKind = iota
	kindUint32
	kindMessageType
)

var optionTable = map[byte]struct {
	name string
	kind optionKind
}{
	OptSubnetMask:       {"Subnet Mask", kindAddress},
	OptRouter:           {"Available Router", kindAddress},
	OptDomainNameServer: {"Domain Name Server(s)", kindAddress},
	OptBroadcastAddress: {"Broadcast Address", kindAddress},
	OptLeaseTime:        {"IP address Lease Time", kindUint32},
	OptMessageType:      {"DHCP Message Type", kindMessageType},
	OptServerIdentifier: {"Server IP", kindAddress},
	OptRenewalTime:      {"Renewal (T1) Time Value", kindUint32},
	OptRebindingTime:    {"Rebinding (T2) Time Value", kindUint32},
}

var messageTypeNames = map[byte]string{
	MessageDiscover: "DHCP Discover message (DHCPDiscover)",
	MessageOffer:    "DHCP Offer message (DHCPOffer)",
	MessageRequest:  "DHCP Request message (DHCPRequest)",
	MessageDecline:  "DHCP Decline message (DHCPDecline)",
	MessageAck:      "DHCP Acknowledgment message (DHCPAck)",
	MessageNak:      "DHCP Negative Acknowledgment message (DHCPNak)",
}

const messageTypeUnsupported = "Message type not supported"

// InterpretOffer decodes a reply datagram sent in answer to the discovery
// identified by xid.
//
// A datagram carrying another transaction ID is not an error: InterpretOffer
// returns nil, nil and the caller should wait for the next one. The only
// error returned is a *MalformedOptionsError, scoped to this datagram. Values
// of individual options that fail to decode are reported through
// SemanticOption.Err and do not abort the offer.
func InterpretOffer(datagram []byte, xid TransactionID) (*Offer, error) {
	if len(datagram) < offsetXid+len(xid) || !bytes.Equal(datagram[offsetXid:offsetXid+len(xid)], xid[:]) {
		return nil, nil
	}

	if len(datagram) < HeaderLen {
		return nil, &MalformedOptionsError{
			Reason: fmt.Sprintf("datagram is %d bytes, shorter than the %d byte header", len(datagram), HeaderLen),
		}
	}

	raw, err := DecodeOptions(datagram[HeaderLen:])
	if err != nil {
		return nil, err
	}

	offer := &Offer{
		OfferedIP:    mustFormat4(datagram[offsetYIAddr : offsetYIAddr+4]),
		NextServerIP: mustFormat4(datagram[offsetSIAddr : offsetSIAddr+4]),
		Options:      make([]SemanticOption, 0, len(raw)),
	}

	for _, o := range raw {
		so := InterpretOption(o)
		if o.Code == OptServerIdentifier && so.Err == nil {
			offer.ServerIdentity = so.Value
			offer.HasServerIdentity = true
		}
		offer.Options = append(offer.Options, so)
	}

	return offer, nil
}

// InterpretOption maps a raw option to its label and rendered value.
func InterpretOption(o Option) SemanticOption {
	entry, known := optionTable[o.Code]
	if !known {
		return SemanticOption{Code: o.Code, Name: UnknownOptionName, Value: UnknownOptionValue}
	}

	so := SemanticOption{Code: o.Code, Name: entry.name}

	switch entry.kind {
	case kindAddress:
		so.Value, so.Err = FormatAddress(o.Value)
		if so.Err != nil {
			so.Value = fmt.Sprintf("Invalid address length (%d bytes)", len(o.Value))
		}
	case kindUint32:
		so.Value, so.Err = FormatUint32(o.Value)
		if so.Err != nil {
			so.Value = fmt.Sprintf("Invalid integer length (%d bytes)", len(o.Value))
		}
	case kindMessageType:
		so.Value = messageTypeUnsupported
		if len(o.Value) == 1 {
			if name, ok := messageTypeNames[o.Value[0]]; ok {
				so.Value = name
			}
		}
	}

	return so
}

// mustFormat4 formats a header field already known to be 4 bytes long.
func mustFormat4(b []byte) string {
	s, _ := FormatAddress(b)
	return s
}
