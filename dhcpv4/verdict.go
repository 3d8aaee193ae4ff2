package dhcpv4

import (
	"net/netip"
)

// Verdict is the outcome of comparing an offer's server identity with the
// authorised server.
type Verdict int

const (
	// VerdictUnverifiable means the offer carried no usable server
	// identifier (option 54), so it can neither be trusted nor condemned.
	VerdictUnverifiable Verdict = iota
	VerdictLegitimate
	VerdictRogue
)

func (v Verdict) String() string {
	switch v {
	case VerdictLegitimate:
		return "legitimate"
	case VerdictRogue:
		return "rogue"
	case VerdictUnverifiable:
		return "unverifiable"
	default:
		return "unknown"
	}
}

func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// OfferRecord is an offer together with its verdict. Records are values and
// are never shared between offers.
type OfferRecord struct {
	Offer
	Verdict Verdict `json:"verdict"`
	Rogue   bool    `json:"rogue"`
}

// Classify compares a server identity against the expected server address.
// present reports whether the offer carried a decodable option 54.
func Classify(serverIdentity string, present bool, expected string) Verdict {
	if !present {
		return VerdictUnverifiable
	}
	if sameAddress(serverIdentity, expected) {
		return VerdictLegitimate
	}
	return VerdictRogue
}

// IsRogue is true exactly when a server identity is present and differs from
// the expected address.
func IsRogue(serverIdentity string, present bool, expected string) bool {
	return Classify(serverIdentity, present, expected) == VerdictRogue
}

// Evaluate attaches a verdict to a decoded offer.
func Evaluate(o *Offer, expected string) OfferRecord {
	v := Classify(o.ServerIdentity, o.HasServerIdentity, expected)

	rec := OfferRecord{
		Offer:   *o,
		Verdict: v,
		Rogue:   v == VerdictRogue,
	}
	rec.Options = append([]SemanticOption(nil), o.Options...)

	return rec
}

func sameAddress(a, b string) bool {
	pa, errA := netip.ParseAddr(a)
	pb, errB := netip.ParseAddr(b)
	if errA == nil && errB == nil {
		return pa.Unmap() == pb.Unmap()
	}
	return a == b
}
