// Package alert notifies an operator when a scan cycle turned up offers from
// servers other than the authorised one.
package alert

import (
	"context"

	"github.com/ipchama/dhcpsentry/dhcpv4"
)

// Alerter delivers one notification for a batch of offending records.
type Alerter interface {
	Alert(ctx context.Context, records []dhcpv4.OfferRecord) error
}

// Nop drops every alert. It is used when mail is disabled.
type Nop struct{}

func (Nop) Alert(context.Context, []dhcpv4.OfferRecord) error {
	return nil
}
