// Package config holds the scanner's runtime options and the file-backed
// site configuration (authorised server, logging, mail).
//
// The site configuration is layered with koanf: built-in defaults, then a
// YAML or JSON file, then DHCPSENTRY_ environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the site configuration.
type Config struct {
	Server ServerConfig `koanf:"server"`
	Log    LogConfig    `koanf:"log"`
	Mail   MailConfig   `koanf:"mail"`
	Alert  AlertConfig  `koanf:"alert"`
}

// ServerConfig names the authorised DHCP server.
type ServerConfig struct {
	// IP is the address every offer's server identifier is compared against.
	IP string `koanf:"ip"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
	// File is the append-only scan log. Empty disables it.
	File string `koanf:"file"`
}

// MailConfig holds the SMTP alert settings.
type MailConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Sender   string `koanf:"sender"`
	Receiver string `koanf:"receiver"`
	// Host is the SMTP server as host or host:port. The port defaults to 465.
	Host     string `koanf:"host"`
	Password string `koanf:"password"`
}

// AlertConfig controls which verdicts raise alerts.
type AlertConfig struct {
	// Unverifiable also alerts on offers without a usable server identifier.
	Unverifiable bool `koanf:"unverifiable"`
}

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   "DHCP_scans.log",
		},
	}
}

// envPrefix is the environment variable prefix, e.g. DHCPSENTRY_SERVER_IP.
const envPrefix = "DHCPSENTRY_"

// Load reads the configuration file at path (YAML, or JSON when the name ends
// in .json), overlays DHCPSENTRY_ environment variables and merges the result
// on top of DefaultConfig. An empty path skips the file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k, DefaultConfig()); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

func parserFor(path string) koanf.Parser {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return json.Parser()
	}
	return yaml.Parser()
}

// envKeyMapper transforms DHCPSENTRY_MAIL_HOST -> mail.host.
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "_", ".")
}

func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"server.ip":          defaults.Server.IP,
		"log.level":          defaults.Log.Level,
		"log.format":         defaults.Log.Format,
		"log.file":           defaults.Log.File,
		"mail.enabled":       defaults.Mail.Enabled,
		"alert.unverifiable": defaults.Alert.Unverifiable,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// Validation errors.
var (
	ErrMissingServerIP  = errors.New("server.ip must be set")
	ErrInvalidServerIP  = errors.New("server.ip must be an IPv4 address")
	ErrInvalidLogFormat = errors.New("log.format must be text or json")
	ErrIncompleteMail   = errors.New("mail.sender, mail.receiver and mail.host are required when mail is enabled")
)

// Validate checks the configuration for logical errors and returns the first
// one found.
func Validate(cfg *Config) error {
	if cfg.Server.IP == "" {
		return ErrMissingServerIP
	}

	if _, err := ServerAddr(cfg); err != nil {
		return err
	}

	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, cfg.Log.Format)
	}

	if cfg.Mail.Enabled && (cfg.Mail.Sender == "" || cfg.Mail.Receiver == "" || cfg.Mail.Host == "") {
		return ErrIncompleteMail
	}

	return nil
}

// ServerAddr parses the authorised server address.
func ServerAddr(cfg *Config) (netip.Addr, error) {
	addr, err := netip.ParseAddr(cfg.Server.IP)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: %w", ErrInvalidServerIP, err)
	}
	if !addr.Unmap().Is4() {
		return netip.Addr{}, fmt.Errorf("%w: %s", ErrInvalidServerIP, addr)
	}
	return addr.Unmap(), nil
}

// ParseLogLevel maps a level name to a slog.Level. Unknown values default to
// slog.LevelInfo.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
