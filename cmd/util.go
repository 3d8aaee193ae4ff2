package cmd

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/vishvananda/netlink"

	"github.com/ipchama/dhcpsentry/config"
	"github.com/ipchama/dhcpsentry/message"
	"github.com/ipchama/dhcpsentry/socketeer"
)

const arpTimeout = 5 * time.Second

var (
	ErrNoDefaultRoute = errors.New("no IPv4 default route found")
	ErrNoArpReply     = errors.New("failed to get ARP response for default gateway lookup during init")
)

// defaultRouteV4 returns the link and gateway of the IPv4 default route. With
// a non-empty name only that link's routes are considered.
func defaultRouteV4(name string) (netlink.Link, net.IP, error) {
	var link netlink.Link
	var err error

	if name != "" {
		if link, err = netlink.LinkByName(name); err != nil {
			return nil, nil, fmt.Errorf("lookup interface %s: %w", name, err)
		}
	}

	routes, err := netlink.RouteList(link, netlink.FAMILY_V4)
	if err != nil {
		return nil, nil, fmt.Errorf("list routes: %w", err)
	}

	for _, r := range routes {
		if r.Dst != nil || r.Gw == nil {
			continue
		}

		if link == nil {
			if link, err = netlink.LinkByIndex(r.LinkIndex); err != nil {
				return nil, nil, fmt.Errorf("lookup interface %d: %w", r.LinkIndex, err)
			}
		}

		return link, r.Gw, nil
	}

	return nil, nil, ErrNoDefaultRoute
}

// defaultInterface names the interface carrying the IPv4 default route.
func defaultInterface() (string, error) {
	link, _, err := defaultRouteV4("")
	if err != nil {
		return "", err
	}
	return link.Attrs().Name, nil
}

// gatewayMAC resolves the hardware address of the default gateway reachable
// through the named interface.
func gatewayMAC(name string) (net.HardwareAddr, error) {
	link, gw, err := defaultRouteV4(name)
	if err != nil {
		return nil, err
	}

	return arp(name, link, gw)
}

func arp(n string, l netlink.Link, target net.IP) (net.HardwareAddr, error) {

	addrs, err := netlink.AddrList(l, netlink.FAMILY_V4)
	if err != nil {
		return nil, fmt.Errorf("list addresses on %s: %w", n, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("no IPv4 address on %s", n)
	}

	filter, err := socketeer.SockFprog(socketeer.AcceptAllFilter())
	if err != nil {
		return nil, err
	}

	s := socketeer.NewRawSocketeer(&config.SocketeerOptions{InterfaceName: n, EbpfFilter: filter}, func(string) bool { return true }, func(error) bool { return true })

	if err := s.Init(); err != nil {
		return nil, err
	}

	arpReplies := make(chan net.HardwareAddr, 1)

	s.SetReceiver(func(msg message.Message) bool {
		arpMsg, ok := msg.Packet.Layer(layers.LayerTypeARP).(*layers.ARP)
		if !ok || arpMsg.Operation != layers.ARPReply || !net.IP(arpMsg.SourceProtAddress).Equal(target) {
			return true
		}

		select {
		case arpReplies <- net.HardwareAddr(append([]byte(nil), arpMsg.SourceHwAddress...)):
		default:
		}

		return true
	})

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		s.RunWriter()
	}()
	go func() {
		defer wg.Done()
		s.RunListener()
	}()

	ethernetLayer := &layers.Ethernet{
		DstMAC:       layers.EthernetBroadcast,
		SrcMAC:       s.IfInfo.HardwareAddr,
		EthernetType: layers.EthernetTypeARP,
	}

	arpLayer := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   s.IfInfo.HardwareAddr,
		SourceProtAddress: addrs[0].IP.To4(),
		DstHwAddress:      make([]byte, 6),
		DstProtAddress:    target.To4(),
	}

	buf := gopacket.NewSerializeBuffer()

	if err = gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true}, ethernetLayer, arpLayer); err == nil {
		s.AddPayload(buf.Bytes())
	}

	var gwMac net.HardwareAddr

	if err == nil {
		select {
		case gwMac = <-arpReplies:
		case <-time.After(arpTimeout):
			err = ErrNoArpReply
		}
	}

	// Either we got a reply or we didn't; socket teardown errors don't change that.
	_ = s.StopListener()
	_ = s.StopWriter()

	wg.Wait()

	if err != nil {
		return nil, err
	}

	return gwMac, nil
}
