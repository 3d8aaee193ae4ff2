package alert

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"github.com/ipchama/dhcpsentry/config"
	"github.com/ipchama/dhcpsentry/dhcpv4"
)

const (
	defaultSMTPPort = "465"
	dialTimeout     = 10 * time.Second

	RogueSubject        = "DHCP rogue server found!"
	UnverifiableSubject = "Unverifiable DHCP server found!"

	rogueBody        = "A rogue DHCP server has been found in your network.\r\n"
	unverifiableBody = "A DHCP server that does not identify itself has been found in your network.\r\n"
	logHint          = "Please check the local log file for more info.\r\n"
)

// wording picks subject and opening line by the worst verdict in the batch.
func wording(records []dhcpv4.OfferRecord) (subject, opening string) {
	for _, r := range records {
		if r.Verdict == dhcpv4.VerdictRogue {
			return RogueSubject, rogueBody
		}
	}
	return UnverifiableSubject, unverifiableBody
}

// SMTP mails alerts over an implicit TLS connection, authenticating as the
// sender.
type SMTP struct {
	sender   string
	receiver string
	host     string
	addr     string
	password string
}

func NewSMTP(m config.MailConfig) *SMTP {
	host, port, err := net.SplitHostPort(m.Host)
	if err != nil {
		host, port = m.Host, defaultSMTPPort
	}

	return &SMTP{
		sender:   m.Sender,
		receiver: m.Receiver,
		host:     host,
		addr:     net.JoinHostPort(host, port),
		password: m.Password,
	}
}

// Addr is the host:port the alert is delivered to.
func (s *SMTP) Addr() string {
	return s.addr
}

// Message renders the mail, headers included.
func (s *SMTP) Message(records []dhcpv4.OfferRecord) []byte {
	var b bytes.Buffer

	subject, opening := wording(records)

	fmt.Fprintf(&b, "From: %s\r\n", s.sender)
	fmt.Fprintf(&b, "To: %s\r\n", s.receiver)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(opening)
	b.WriteString(logHint)

	if len(records) > 0 {
		b.WriteString("\r\n")
	}
	for _, r := range records {
		server := r.ServerIdentity
		if !r.HasServerIdentity {
			server = dhcpv4.UnknownOptionValue
		}
		fmt.Fprintf(&b, "%s server %s offered %s\r\n", r.Verdict, server, r.OfferedIP)
	}

	return b.Bytes()
}

func (s *SMTP) Alert(ctx context.Context, records []dhcpv4.OfferRecord) error {
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: dialTimeout},
		Config:    &tls.Config{ServerName: s.host, MinVersion: tls.VersionTLS12},
	}

	conn, err := dialer.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("dial smtp %s: %w", s.addr, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if err = c.Auth(smtp.PlainAuth("", s.sender, s.password, s.host)); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}

	if err = c.Mail(s.sender); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}

	if err = c.Rcpt(s.receiver); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}

	if _, err = w.Write(s.Message(records)); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}

	if err = w.Close(); err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}

	return c.Quit()
}
