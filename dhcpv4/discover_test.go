package dhcpv4_test

import (
	"bytes"
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	idhcp "github.com/insomniacslk/dhcp/dhcpv4"

	"github.com/ipchama/dhcpsentry/dhcpv4"
)

var (
	testXid = dhcpv4.TransactionID{0xde, 0xad, 0xbe, 0xef}
	testMAC = net.HardwareAddr{0x02, 0x42, 0xac, 0x11, 0x00, 0x02}
)

func TestBuildDiscoverLayout(t *testing.T) {
	t.Parallel()

	b := dhcpv4.BuildDiscover(testXid, testMAC)

	if len(b) != dhcpv4.DiscoverLen || len(b) != 257 {
		t.Fatalf("len(discover) = %d, want %d", len(b), 257)
	}

	if !bytes.Equal(b[0:4], []byte{1, 1, 6, 0}) {
		t.Errorf("op/htype/hlen/hops = %x, want 01010600", b[0:4])
	}

	if !bytes.Equal(b[4:8], testXid[:]) {
		t.Errorf("xid = %x, want %x", b[4:8], testXid[:])
	}

	if !bytes.Equal(b[8:12], []byte{0x00, 0x00, 0x80, 0x00}) {
		t.Errorf("secs/flags = %x, want 00008000", b[8:12])
	}

	if !bytes.Equal(b[12:28], make([]byte, 16)) {
		t.Errorf("ciaddr..giaddr = %x, want zeros", b[12:28])
	}

	if !bytes.Equal(b[28:34], testMAC) {
		t.Errorf("chaddr = %x, want %x", b[28:34], []byte(testMAC))
	}

	if !bytes.Equal(b[34:236], make([]byte, 202)) {
		t.Errorf("chaddr padding, sname and file are not zeroed")
	}

	if !bytes.Equal(b[236:240], []byte{0x63, 0x82, 0x53, 0x63}) {
		t.Errorf("magic cookie = %x, want 63825363", b[236:240])
	}

	wantOpts := []byte{0x35, 0x01, 0x01, 0x3d, 0x06}
	wantOpts = append(wantOpts, testMAC...)
	wantOpts = append(wantOpts, 0x37, 0x03, 0x03, 0x01, 0x06, 0xff)

	if !bytes.Equal(b[240:], wantOpts) {
		t.Errorf("options = %x, want %x", b[240:], wantOpts)
	}
}

func TestBuildDiscoverEmbedsInputs(t *testing.T) {
	t.Parallel()

	for i := 0; i < 32; i++ {
		xid, err := dhcpv4.GenerateTransactionID()
		if err != nil {
			t.Fatalf("GenerateTransactionID() error: %v", err)
		}
		mac := net.HardwareAddr{byte(i), 0x11, 0x22, byte(i * 7), 0x44, xid[0]}

		b := dhcpv4.BuildDiscover(xid, mac)

		if len(b) != dhcpv4.DiscoverLen {
			t.Fatalf("len(discover) = %d, want %d", len(b), dhcpv4.DiscoverLen)
		}
		if !bytes.Equal(b[4:8], xid[:]) {
			t.Errorf("xid = %x, want %x", b[4:8], xid[:])
		}
		if !bytes.Equal(b[28:34], mac) {
			t.Errorf("chaddr = %x, want %x", b[28:34], []byte(mac))
		}
		if !bytes.Equal(b[245:251], mac) {
			t.Errorf("client identifier = %x, want %x", b[245:251], []byte(mac))
		}
	}
}

func TestBuildDiscoverDecodesWithGopacket(t *testing.T) {
	t.Parallel()

	p := gopacket.NewPacket(dhcpv4.BuildDiscover(testXid, testMAC), layers.LayerTypeDHCPv4, gopacket.Default)
	if el := p.ErrorLayer(); el != nil {
		t.Fatalf("gopacket decode error: %v", el.Error())
	}

	d, ok := p.Layer(layers.LayerTypeDHCPv4).(*layers.DHCPv4)
	if !ok {
		t.Fatalf("no DHCPv4 layer decoded")
	}

	if d.Operation != layers.DHCPOpRequest {
		t.Errorf("Operation = %v, want %v", d.Operation, layers.DHCPOpRequest)
	}
	if d.Xid != 0xdeadbeef {
		t.Errorf("Xid = %#x, want %#x", d.Xid, 0xdeadbeef)
	}
	if d.Flags != 0x8000 {
		t.Errorf("Flags = %#x, want %#x", d.Flags, 0x8000)
	}
	if d.ClientHWAddr.String() != testMAC.String() {
		t.Errorf("ClientHWAddr = %s, want %s", d.ClientHWAddr, testMAC)
	}

	var msgType []byte
	for _, o := range d.Options {
		if o.Type == layers.DHCPOptMessageType {
			msgType = o.Data
		}
	}
	if !bytes.Equal(msgType, []byte{byte(layers.DHCPMsgTypeDiscover)}) {
		t.Errorf("message type option = %x, want %x", msgType, []byte{byte(layers.DHCPMsgTypeDiscover)})
	}
}

func TestBuildDiscoverDecodesWithInsomniacslk(t *testing.T) {
	t.Parallel()

	m, err := idhcp.FromBytes(dhcpv4.BuildDiscover(testXid, testMAC))
	if err != nil {
		t.Fatalf("FromBytes() error: %v", err)
	}

	if m.MessageType() != idhcp.MessageTypeDiscover {
		t.Errorf("MessageType() = %v, want %v", m.MessageType(), idhcp.MessageTypeDiscover)
	}
	if m.TransactionID != idhcp.TransactionID(testXid) {
		t.Errorf("TransactionID = %v, want %v", m.TransactionID, testXid)
	}
	if !m.IsBroadcast() {
		t.Errorf("broadcast flag not set")
	}
	if got := m.Options.Get(idhcp.OptionClientIdentifier); !bytes.Equal(got, testMAC) {
		t.Errorf("client identifier = %x, want %x", got, []byte(testMAC))
	}
}

func TestSetBroadcastFlag(t *testing.T) {
	t.Parallel()

	b := dhcpv4.BuildDiscover(testXid, testMAC)

	dhcpv4.SetBroadcastFlag(b, false)
	if !bytes.Equal(b[10:12], []byte{0, 0}) {
		t.Errorf("flags = %x, want 0000", b[10:12])
	}

	dhcpv4.SetBroadcastFlag(b, true)
	if !bytes.Equal(b[10:12], []byte{0x80, 0}) {
		t.Errorf("flags = %x, want 8000", b[10:12])
	}

	// Too short to carry flags; must not panic.
	dhcpv4.SetBroadcastFlag(make([]byte, 4), true)
}
