package alert_test

import (
	"context"
	"strings"
	"testing"

	"github.com/ipchama/dhcpsentry/alert"
	"github.com/ipchama/dhcpsentry/config"
	"github.com/ipchama/dhcpsentry/dhcpv4"
)

func TestNewSMTPAddr(t *testing.T) {
	t.Parallel()

	tests := []struct {
		host string
		want string
	}{
		{"smtp.example.com", "smtp.example.com:465"},
		{"smtp.example.com:587", "smtp.example.com:587"},
		{"192.0.2.25", "192.0.2.25:465"},
	}

	for _, tt := range tests {
		s := alert.NewSMTP(config.MailConfig{Host: tt.host})
		if got := s.Addr(); got != tt.want {
			t.Errorf("NewSMTP(%q).Addr() = %q, want %q", tt.host, got, tt.want)
		}
	}
}

func TestSMTPMessage(t *testing.T) {
	t.Parallel()

	s := alert.NewSMTP(config.MailConfig{
		Sender:   "sentry@example.com",
		Receiver: "noc@example.com",
		Host:     "smtp.example.com",
	})

	records := []dhcpv4.OfferRecord{
		{
			Offer:   dhcpv4.Offer{OfferedIP: "192.168.1.150", ServerIdentity: "192.168.1.66", HasServerIdentity: true},
			Verdict: dhcpv4.VerdictRogue,
			Rogue:   true,
		},
		{
			Offer:   dhcpv4.Offer{OfferedIP: "192.168.1.151"},
			Verdict: dhcpv4.VerdictUnverifiable,
		},
	}

	msg := string(s.Message(records))

	headers, text, ok := strings.Cut(msg, "\r\n\r\n")
	if !ok {
		t.Fatalf("message has no header/body separator:\n%s", msg)
	}

	for _, want := range []string{
		"From: sentry@example.com",
		"To: noc@example.com",
		"Subject: DHCP rogue server found!",
	} {
		if !strings.Contains(headers, want+"\r\n") {
			t.Errorf("headers missing %q:\n%s", want, headers)
		}
	}

	for _, want := range []string{
		"A rogue DHCP server has been found in your network.",
		"Please check the local log file for more info.",
		"rogue server 192.168.1.66 offered 192.168.1.150",
		"unverifiable server N/A offered 192.168.1.151",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("body missing %q:\n%s", want, text)
		}
	}
}

func TestSMTPMessageUnverifiableOnly(t *testing.T) {
	t.Parallel()

	s := alert.NewSMTP(config.MailConfig{Sender: "sentry@example.com", Receiver: "noc@example.com", Host: "smtp.example.com"})

	msg := string(s.Message([]dhcpv4.OfferRecord{
		{Offer: dhcpv4.Offer{OfferedIP: "192.168.1.151"}, Verdict: dhcpv4.VerdictUnverifiable},
	}))

	if !strings.Contains(msg, "Subject: "+alert.UnverifiableSubject+"\r\n") {
		t.Errorf("message lacks the unverifiable subject:\n%s", msg)
	}
	if strings.Contains(msg, "rogue") {
		t.Errorf("message calls an unverifiable offer rogue:\n%s", msg)
	}
	if !strings.Contains(msg, "unverifiable server N/A offered 192.168.1.151") {
		t.Errorf("message lacks the offer line:\n%s", msg)
	}
}

func TestNop(t *testing.T) {
	t.Parallel()

	var a alert.Alerter = alert.Nop{}
	if err := a.Alert(context.Background(), nil); err != nil {
		t.Errorf("Nop.Alert() = %v, want nil", err)
	}
}
