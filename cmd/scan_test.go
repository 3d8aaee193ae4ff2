package cmd

import (
	"bytes"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/ipchama/dhcpsentry/config"
)

func parsedScanCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()

	c := prepareCmd(&cobra.Command{Use: "scan"})
	if err := c.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags(%v): %v", args, err)
	}

	return c
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Server.IP = "192.168.1.1"
	cfg.Alert.Unverifiable = true
	return cfg
}

func TestScanOptionsDefaults(t *testing.T) {
	t.Parallel()

	options, so, ao, err := scanOptions(parsedScanCmd(t), testConfig())
	if err != nil {
		t.Fatalf("scanOptions: %v", err)
	}

	if options.ExpectedServer != "192.168.1.1" {
		t.Errorf("ExpectedServer = %q, want 192.168.1.1", options.ExpectedServer)
	}
	if !options.AlertUnverifiable {
		t.Error("AlertUnverifiable = false, want true from config")
	}
	if !options.DhcpBroadcast || !options.EthernetBroadcast {
		t.Errorf("broadcast = %v/%v, want true/true", options.DhcpBroadcast, options.EthernetBroadcast)
	}
	if options.Attempts != 1 || options.Timeout != 3*time.Second || options.Interval != 0 {
		t.Errorf("attempts/timeout/interval = %d/%s/%s, want 1/3s/0s", options.Attempts, options.Timeout, options.Interval)
	}
	if options.StatsRate != 5 || options.RecentRecordsLimit != 100 {
		t.Errorf("stats-rate/recent-records = %d/%d, want 5/100", options.StatsRate, options.RecentRecordsLimit)
	}
	if options.ClientMAC != nil {
		t.Errorf("ClientMAC = %s, want unset", options.ClientMAC)
	}

	if so.Transport != config.TransportRaw || so.InterfaceName != autoValue {
		t.Errorf("transport/interface = %s/%s, want raw/auto", so.Transport, so.InterfaceName)
	}
	if so.ClientPort != 68 || so.TargetPort != 67 {
		t.Errorf("ports = %d/%d, want 68/67", so.ClientPort, so.TargetPort)
	}

	if ao.Enabled() {
		t.Error("API enabled by default")
	}
}

func TestScanOptionsFlags(t *testing.T) {
	t.Parallel()

	c := parsedScanCmd(t,
		"--transport", "udp",
		"--interface", "eth1",
		"--mac", "02:42:ac:11:00:02",
		"--gateway-mac", "de:ad:be:ef:f0:0d",
		"--attempts", "0",
		"--timeout", "500ms",
		"--interval", "1m",
		"--dhcp-broadcast=false",
		"--api-address", "127.0.0.1",
		"--api-port", "8080",
	)

	options, so, ao, err := scanOptions(c, testConfig())
	if err != nil {
		t.Fatalf("scanOptions: %v", err)
	}

	if options.Attempts != 0 || options.Timeout != 500*time.Millisecond || options.Interval != time.Minute {
		t.Errorf("attempts/timeout/interval = %d/%s/%s, want 0/500ms/1m0s", options.Attempts, options.Timeout, options.Interval)
	}
	if options.DhcpBroadcast {
		t.Error("DhcpBroadcast = true, want false")
	}
	if want := (net.HardwareAddr{0x02, 0x42, 0xac, 0x11, 0x00, 0x02}); !bytes.Equal(options.ClientMAC, want) {
		t.Errorf("ClientMAC = %s, want %s", options.ClientMAC, want)
	}
	if so.Transport != config.TransportUDP || so.InterfaceName != "eth1" {
		t.Errorf("transport/interface = %s/%s, want udp/eth1", so.Transport, so.InterfaceName)
	}
	if so.GatewayMAC.String() != "de:ad:be:ef:f0:0d" {
		t.Errorf("GatewayMAC = %s, want de:ad:be:ef:f0:0d", so.GatewayMAC)
	}
	if !ao.Enabled() || ao.Address != "127.0.0.1" || ao.Port != 8080 {
		t.Errorf("api = %+v, want 127.0.0.1:8080", ao)
	}
}

func TestScanOptionsErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"transport", []string{"--transport", "pcap"}, "--transport"},
		{"mac", []string{"--mac", "not-a-mac"}, "not-a-mac"},
		{"long mac", []string{"--mac", "00:00:00:00:fe:80:00:00:00:00:00:00:02:00:5e:10:00:00:00:01"}, "6 byte"},
		{"attempts", []string{"--attempts", "-1"}, "--attempts"},
		{"timeout", []string{"--timeout", "0s"}, "--timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := scanOptions(parsedScanCmd(t, tt.args...), testConfig())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("scanOptions(%v) = %v, want error mentioning %q", tt.args, err, tt.want)
			}
		})
	}
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	t.Setenv("DHCPSENTRY_SERVER_IP", "")

	cfg, err := loadConfig(parsedScanCmd(t, "--server-ip", "10.0.0.1", "--log-level", "debug"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Server.IP != "10.0.0.1" || cfg.Log.Level != "debug" {
		t.Errorf("server.ip/log.level = %s/%s, want 10.0.0.1/debug", cfg.Server.IP, cfg.Log.Level)
	}

	if _, err := loadConfig(parsedScanCmd(t)); !errors.Is(err, config.ErrMissingServerIP) {
		t.Errorf("loadConfig without server = %v, want %v", err, config.ErrMissingServerIP)
	}
}

func TestResolveNetworkExplicit(t *testing.T) {
	t.Parallel()

	options := &config.ScanOptions{EthernetBroadcast: true}
	so := &config.SocketeerOptions{Transport: config.TransportRaw, InterfaceName: "eth1"}

	if err := resolveNetwork(options, so); err != nil {
		t.Fatalf("resolveNetwork: %v", err)
	}
	if so.InterfaceName != "eth1" || so.GatewayMAC != nil {
		t.Errorf("resolved = %s/%s, want eth1 and no gateway lookup", so.InterfaceName, so.GatewayMAC)
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format string
		want   string
	}{
		{"json", `"msg":"hello"`},
		{"text", "msg=hello"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		logger := newLogger(config.LogConfig{Level: "warn", Format: tt.format}, &buf)

		logger.Info("dropped")
		logger.Warn("hello")

		if got := buf.String(); !strings.Contains(got, tt.want) || strings.Contains(got, "dropped") {
			t.Errorf("%s logger output = %q, want only the warning", tt.format, got)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer

	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	if err := Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "dhcpsentry "+Version) {
		t.Errorf("version output = %q", buf.String())
	}
}
