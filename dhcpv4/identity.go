package dhcpv4

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"sync"
)

// TransactionID correlates a discovery with the offers answering it.
type TransactionID [4]byte

func (x TransactionID) String() string {
	return "0x" + hex.EncodeToString(x[:])
}

// GenerateTransactionID returns a new uniformly random transaction ID. Call
// it once per discovery attempt; IDs are never reused across attempts.
func GenerateTransactionID() (TransactionID, error) {
	var x TransactionID
	if _, err := rand.Read(x[:]); err != nil {
		return x, fmt.Errorf("generate transaction id: %w", err)
	}
	return x, nil
}

var (
	fallbackOnce sync.Once
	fallbackMAC  net.HardwareAddr
	fallbackErr  error
)

// HardwareAddress returns the 6-byte client hardware address for iface.
//
// When the interface has no Ethernet-sized address (nil iface, loopback,
// tunnels) a random locally administered unicast address is generated on the
// first call and returned for the rest of the process lifetime.
func HardwareAddress(iface *net.Interface) (net.HardwareAddr, error) {
	if iface != nil && len(iface.HardwareAddr) == hardwareAddrLen {
		mac := make(net.HardwareAddr, hardwareAddrLen)
		copy(mac, iface.HardwareAddr)
		return mac, nil
	}

	fallbackOnce.Do(func() {
		mac := make(net.HardwareAddr, hardwareAddrLen)
		if _, err := rand.Read(mac); err != nil {
			fallbackErr = fmt.Errorf("generate hardware address: %w", err)
			return
		}
		// Clear the multicast bit, set the locally administered bit.
		mac[0] = (mac[0] &^ 0x01) | 0x02
		fallbackMAC = mac
	})

	if fallbackErr != nil {
		return nil, fallbackErr
	}

	mac := make(net.HardwareAddr, hardwareAddrLen)
	copy(mac, fallbackMAC)
	return mac, nil
}
