package socketeer_test

import (
	"bytes"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ipchama/dhcpsentry/config"
	"github.com/ipchama/dhcpsentry/message"
	"github.com/ipchama/dhcpsentry/socketeer"
)

func TestUdpSocketeerReceive(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		logs []string
	)
	logFunc := func(m string) bool {
		mu.Lock()
		defer mu.Unlock()
		logs = append(logs, m)
		return true
	}

	s := socketeer.NewUdpSocketeer(&config.SocketeerOptions{Transport: config.TransportUDP, TargetPort: 9}, logFunc, func(error) bool { return true })
	if err := s.Init(); err != nil {
		t.Skipf("udp socket unavailable: %v", err)
	}

	if s.Framed() {
		t.Error("Framed() = true, want false")
	}

	received := make(chan message.Message, 1)
	s.SetReceiver(func(msg message.Message) bool {
		received <- msg
		return true
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.RunListener()
	}()
	t.Cleanup(func() {
		_ = s.StopListener()
		wg.Wait()
	})

	mu.Lock()
	startup := append([]string(nil), logs...)
	mu.Unlock()

	if len(startup) != 1 || !strings.Contains(startup[0], "(udp)") || !strings.Contains(startup[0], "all interfaces") {
		t.Fatalf("logs = %q, want one listening line", startup)
	}

	fields := strings.Fields(startup[0])
	if len(fields) < 3 {
		t.Fatalf("no bound address in %q", startup[0])
	}
	_, port, err := net.SplitHostPort(fields[2])
	if err != nil {
		t.Fatalf("bound address %q: %v", fields[2], err)
	}

	conn, err := net.Dial("udp4", net.JoinHostPort("127.0.0.1", port))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	payload := []byte{2, 1, 6, 0, 0xde, 0xad, 0xbe, 0xef}
	if _, err := conn.Write(payload); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case msg := <-received:
		if !bytes.Equal(msg.Payload, payload) {
			t.Errorf("Payload = %x, want %x", msg.Payload, payload)
		}
		if !msg.RemoteAddress.Equal(net.IPv4(127, 0, 0, 1)) {
			t.Errorf("RemoteAddress = %s, want 127.0.0.1", msg.RemoteAddress)
		}
		if msg.Packet != nil {
			t.Error("Packet set by the udp transport")
		}
	case <-time.After(5 * time.Second):
		t.Error("datagram not delivered")
	}

	if err := s.StopListener(); err != nil {
		t.Errorf("StopListener: %v", err)
	}
}
