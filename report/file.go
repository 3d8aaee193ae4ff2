package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/ipchama/dhcpsentry/dhcpv4"
)

const (
	rogueLogMessage  = "DHCP ROGUE FOUND!"
	serverLogMessage = "DHCP SERVER FOUND!"
)

// File appends one structured line per record to the scan log. Rogue offers
// are logged at WARN, everything else at INFO.
type File struct {
	closer io.Closer
	logger *slog.Logger
}

// OpenFile opens (or creates) the scan log at path for appending.
func OpenFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open scan log %s: %w", path, err)
	}

	fs := NewFile(f)
	fs.closer = f

	return fs, nil
}

// NewFile writes the scan log to w.
func NewFile(w io.Writer) *File {
	return &File{
		logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})),
	}
}

func (f *File) Report(rec dhcpv4.OfferRecord) error {
	level, msg := slog.LevelInfo, serverLogMessage
	if rec.Rogue {
		level, msg = slog.LevelWarn, rogueLogMessage
	}

	options := make([]any, 0, len(rec.Options))
	for _, o := range rec.Options {
		options = append(options, slog.String(strconv.Itoa(int(o.Code)), o.Value))
	}

	f.logger.LogAttrs(context.Background(), level, msg,
		slog.String("verdict", rec.Verdict.String()),
		slog.String("server_identity", rec.ServerIdentity),
		slog.String("offered_ip", rec.OfferedIP),
		slog.String("gateway_ip", rec.NextServerIP),
		slog.Group("option", options...),
	)

	return nil
}

func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}
