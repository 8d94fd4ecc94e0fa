package parser

import (
	"net"
	"strings"

	"golang.org/x/net/idna"
)

// Encoding selects the display form produced by Name.
type Encoding string

const (
	ASCII   Encoding = "ascii"   // IDNA A-label form
	Unicode Encoding = "unicode" // U-label form decoded from the A-labels
)

// Name returns the display form of the host.  IP literals keep their bracket
// syntax; DNS names are rendered as A-labels or decoded back to Unicode
// depending on enc.
func (h *Host) Name(enc Encoding) string {
	switch h.Kind {
	case IPv4Literal:
		return "[" + h.IPAddress + "]"
	case IPv6Literal:
		return "[IPv6:" + h.IPAddress + "]"
	}
	if enc == Unicode {
		if u, err := idna.Lookup.ToUnicode(h.DNSName); err == nil {
			return u
		}
	}
	return h.DNSName
}

// Canonical returns the DNS-safe A-label form unconditionally.
func (h *Host) Canonical() string {
	return h.DNSName
}

// Munge replaces everything after the first one or two characters of the
// host name with mask.  Short names are not an error: the whole name is kept
// and the mask appended.
func (h *Host) Munge(mask string) string {
	r := []rune(h.HostName)
	if len(r) <= 2 {
		return h.HostName + mask
	}
	return string(r[:2]) + mask
}

// IsFQDN reports whether a TLD suffix was identified during decomposition.
func (h *Host) IsFQDN() bool {
	return h.TLD != ""
}

// IsIPv4 reports whether the input used the bracketed IPv4 literal syntax.
func (h *Host) IsIPv4() bool {
	return h.Kind == IPv4Literal
}

// IsIPv6 reports whether the input used the bracketed IPv6 literal syntax.
func (h *Host) IsIPv6() bool {
	return h.Kind == IPv6Literal
}

// ValidIP reports whether the literal text parses as an address of the
// family its bracket syntax announced.  Always false for DNS-form hosts.
func (h *Host) ValidIP() bool {
	ip := net.ParseIP(h.IPAddress)
	if ip == nil {
		return false
	}
	switch h.Kind {
	case IPv4Literal:
		return ip.To4() != nil
	case IPv6Literal:
		return strings.ContainsRune(h.IPAddress, ':')
	}
	return false
}
