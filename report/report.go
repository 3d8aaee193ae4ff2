// Package report writes interpreted offers to their destinations: the
// operator's console and the append-only scan log.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ipchama/dhcpsentry/dhcpv4"
)

const (
	rogueHeader  = "DHCP ROGUE SERVER FOUND!"
	serverHeader = "DHCP SERVER FOUND!"

	offeredIPLabel = "Offered IP Address"
	gatewayIPLabel = "Gateway IP Address"
)

// Sink consumes offer records.
type Sink interface {
	Report(rec dhcpv4.OfferRecord) error
}

// Multi fans a record out to several sinks. Every sink is tried; the errors
// are joined.
type Multi []Sink

func (m Multi) Report(rec dhcpv4.OfferRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.Report(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func row(name, value string) string {
	return fmt.Sprintf("%-25s : %-15s", name, value)
}

// Table renders the option rows of a record in first-seen order.
func Table(rec dhcpv4.OfferRecord) []string {
	rows := make([]string, 0, len(rec.Options))
	for _, o := range rec.Options {
		rows = append(rows, row(o.Name, o.Value))
	}
	return rows
}

// Console prints each record as a table.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Report(rec dhcpv4.OfferRecord) error {
	header := serverHeader
	if rec.Rogue {
		header = rogueHeader
	}

	var b strings.Builder

	fmt.Fprintf(&b, "\n--- %s ---\n\n", header)
	for _, r := range Table(rec) {
		b.WriteString(r)
		b.WriteByte('\n')
	}
	b.WriteString(row(offeredIPLabel, rec.OfferedIP))
	b.WriteByte('\n')
	b.WriteString(row(gatewayIPLabel, rec.NextServerIP))
	b.WriteString("\n\n")

	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := io.WriteString(c.w, b.String())
	return err
}
