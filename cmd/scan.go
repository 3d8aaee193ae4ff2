package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ipchama/dhcpsentry/alert"
	"github.com/ipchama/dhcpsentry/config"
	"github.com/ipchama/dhcpsentry/report"
	"github.com/ipchama/dhcpsentry/scanner"
)

// ErrRogueFound is returned by the scan command when at least one offer came
// from a server other than the authorised one.
var ErrRogueFound = errors.New("rogue DHCP server found")

const autoValue = "auto"

func prepareCmd(cmd *cobra.Command) *cobra.Command {
	cmd.Flags().String("config", "", "Configuration file (YAML, or JSON with a .json extension).")
	cmd.Flags().String("server-ip", "", "Address of the authorised DHCP server. Overrides server.ip from the configuration.")
	cmd.Flags().String("log-level", "", "Log level: debug, info, warn, error. Overrides log.level from the configuration.")

	cmd.Flags().String("transport", config.TransportRaw, "How to reach the network: raw (AF_PACKET) or udp.")
	cmd.Flags().String("interface", autoValue, "Interface name for listening and sending. auto == interface of the default route.")
	cmd.Flags().String("gateway-mac", "", "MAC of the gateway, used with --ethernet-broadcast=false. Empty == ARP for the default gateway.")
	cmd.Flags().Bool("promisc", false, "Turn on promiscuous mode for the listening interface.")
	cmd.Flags().String("mac", "", "Client hardware address to send. Empty == the interface's own address.")

	cmd.Flags().Bool("dhcp-broadcast", true, "Set the broadcast bit.")
	cmd.Flags().Bool("ethernet-broadcast", true, "Use ethernet broadcasting.")

	cmd.Flags().Int("attempts", 1, "Number of discovery cycles. 0 == forever.")
	cmd.Flags().Duration("timeout", 3*time.Second, "How long each cycle waits for offers.")
	cmd.Flags().Duration("interval", 0, "Time between the start of two cycles. Values below --timeout mean back to back.")

	cmd.Flags().Int("stats-rate", 5, "How frequently to update stat calculations. (seconds).")
	cmd.Flags().Int("recent-records", 100, "Number of offers kept for the API.")

	cmd.Flags().Int("target-port", 67, "Target port for special cases.  Rarely would you want to use this.")
	cmd.Flags().Int("client-port", 68, "Client port to send from and listen on.")

	cmd.Flags().String("api-address", "", "IP for the API server to listen on.")
	cmd.Flags().Int("api-port", 0, "Port for the API server to listen on. 0 == no API server.")

	return cmd
}

func init() {

	rootCmd.AddCommand(prepareCmd(&cobra.Command{
		Use:   "scan",
		Short: "Scan for DHCP servers.",
		Long:  `Broadcast DHCPDISCOVER messages and classify every offer against the authorised server. Exits with status 2 when a rogue server answered.`,
		Args:  cobra.NoArgs,
		RunE:  runScan,
	}))

}

func runScan(cmd *cobra.Command, _ []string) error {

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log, os.Stderr)

	options, socketeerOptions, apiOptions, err := scanOptions(cmd, cfg)
	if err != nil {
		return err
	}

	if err = resolveNetwork(options, socketeerOptions); err != nil {
		return err
	}

	sinks := report.Multi{report.NewConsole(cmd.OutOrStdout())}

	if cfg.Log.File != "" {
		scanLog, err := report.OpenFile(cfg.Log.File)
		if err != nil {
			return err
		}
		defer scanLog.Close()

		sinks = append(sinks, scanLog)
	}

	var alerter alert.Alerter = alert.Nop{}
	if cfg.Mail.Enabled {
		alerter = alert.NewSMTP(cfg.Mail)
	}

	s := scanner.New(scanner.Options{
		Scan:      options,
		Socketeer: socketeerOptions,
		Api:       apiOptions,
		Sink:      sinks,
		Alerter:   alerter,
		Logger:    logger,
	})

	if err = s.Init(); err != nil {
		return err
	}

	osSigChann := make(chan os.Signal, 1)
	signal.Notify(osSigChann, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(osSigChann)

	finished := make(chan struct{})
	defer close(finished)

	go func() {
		select {
		case <-osSigChann:
			logger.Info("signal received, stopping")
			s.Stop()
		case <-finished:
		}
	}()

	if err = s.Run(); err != nil {
		return err
	}

	if s.RogueFound() {
		return ErrRogueFound
	}

	return nil
}

// loadConfig layers the command line over the configuration file and
// environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {

	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if v, _ := cmd.Flags().GetString("server-ip"); v != "" {
		cfg.Server.IP = v
	}

	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}

	if err = config.Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: config.ParseLogLevel(cfg.Level)}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

func scanOptions(cmd *cobra.Command, cfg *config.Config) (*config.ScanOptions, *config.SocketeerOptions, *config.ApiOptions, error) {

	options := &config.ScanOptions{
		AlertUnverifiable: cfg.Alert.Unverifiable,
	}
	socketeerOptions := &config.SocketeerOptions{}
	apiOptions := &config.ApiOptions{}

	server, err := config.ServerAddr(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	options.ExpectedServer = server.String()

	flags := cmd.Flags()

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	var v bool
	v, err = flags.GetBool("dhcp-broadcast")
	collect(err)
	options.DhcpBroadcast = v

	v, err = flags.GetBool("ethernet-broadcast")
	collect(err)
	options.EthernetBroadcast = v

	v, err = flags.GetBool("promisc")
	collect(err)
	socketeerOptions.PromiscuousMode = v

	var i int
	for name, dst := range map[string]*int{
		"attempts":       &options.Attempts,
		"stats-rate":     &options.StatsRate,
		"recent-records": &options.RecentRecordsLimit,
		"target-port":    &socketeerOptions.TargetPort,
		"client-port":    &socketeerOptions.ClientPort,
		"api-port":       &apiOptions.Port,
	} {
		i, err = flags.GetInt(name)
		collect(err)
		*dst = i
	}

	options.Timeout, err = flags.GetDuration("timeout")
	collect(err)

	options.Interval, err = flags.GetDuration("interval")
	collect(err)

	var s string
	for name, dst := range map[string]*string{
		"transport":   &socketeerOptions.Transport,
		"interface":   &socketeerOptions.InterfaceName,
		"api-address": &apiOptions.Address,
	} {
		s, err = flags.GetString(name)
		collect(err)
		*dst = s
	}

	if s, err = flags.GetString("mac"); err == nil && s != "" {
		options.ClientMAC, err = net.ParseMAC(s)
		if err == nil && len(options.ClientMAC) != 6 {
			err = fmt.Errorf("--mac must be a 6 byte address: %s", s)
		}
	}
	collect(err)

	if s, err = flags.GetString("gateway-mac"); err == nil && s != "" {
		socketeerOptions.GatewayMAC, err = net.ParseMAC(s)
	}
	collect(err)

	if err = errors.Join(errs...); err != nil {
		return nil, nil, nil, err
	}

	switch socketeerOptions.Transport {
	case config.TransportRaw, config.TransportUDP:
	default:
		return nil, nil, nil, fmt.Errorf("--transport must be %s or %s: %q", config.TransportRaw, config.TransportUDP, socketeerOptions.Transport)
	}

	if options.Attempts < 0 {
		return nil, nil, nil, fmt.Errorf("--attempts must not be negative: %d", options.Attempts)
	}

	if options.Timeout <= 0 {
		return nil, nil, nil, fmt.Errorf("--timeout must be positive: %s", options.Timeout)
	}

	if options.StatsRate <= 0 {
		options.StatsRate = 5
	}

	return options, socketeerOptions, apiOptions, nil
}

// resolveNetwork fills in the interface and gateway MAC left on auto.
func resolveNetwork(options *config.ScanOptions, socketeerOptions *config.SocketeerOptions) error {
	var err error

	if socketeerOptions.InterfaceName == autoValue {
		if socketeerOptions.InterfaceName, err = defaultInterface(); err != nil {
			return fmt.Errorf("--interface auto: %w", err)
		}
	}

	needsGateway := socketeerOptions.Transport == config.TransportRaw && !options.EthernetBroadcast
	if needsGateway && len(socketeerOptions.GatewayMAC) == 0 {
		if socketeerOptions.GatewayMAC, err = gatewayMAC(socketeerOptions.InterfaceName); err != nil {
			return fmt.Errorf("--gateway-mac: %w", err)
		}
	}

	return nil
}
