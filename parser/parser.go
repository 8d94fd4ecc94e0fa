// Package parser decomposes the host part of an email address into its
// structural components.  Parsing is pure and synchronous: it never performs
// DNS lookups and never fails on malformed input.  Whether the result is an
// acceptable mail host is decided later by the validator, not here.
package parser

import (
	"strings"

	"golang.org/x/net/idna"
)

// Kind tags the syntactic form the raw input was recognized as.
type Kind int

const (
	DNSHost     Kind = iota // a (possibly unqualified) DNS host name
	IPv4Literal             // bracketed dotted-quad, e.g. "[192.0.2.1]"
	IPv6Literal             // bracketed "[IPv6:...]" literal
)

// MaxLength is the longest display form accepted for a host name when DNS
// checks are disabled (RFC 5321 section 4.5.3.1.2).
const MaxLength = 255

// Host is the decomposed form of a raw host string.  For DNSHost inputs the
// name fields below are populated; for IP literals only IPAddress is set.
// A Host is immutable after Parse.
type Host struct {
	Kind Kind

	// HostName is the normalized original text: trimmed, lower-cased, with
	// internal spaces and parenthesized fragments removed.  Empty for IP
	// literals.
	HostName string

	// DNSName is the IDNA (A-label) encoding of HostName.  Empty for IP
	// literals.
	DNSName string

	// IPAddress holds the literal text between the brackets, verbatim and
	// unvalidated.  Set only for IPv4Literal and IPv6Literal kinds.
	IPAddress string

	// Subdomains holds the labels left of the registration name.  For a
	// dotless input it holds the entire host name.
	Subdomains string

	// RegistrationName is the label immediately left of the TLD suffix.
	RegistrationName string

	// DomainName is RegistrationName + "." + TLD2.
	DomainName string

	// TLD is the final suffix label ("uk"); TLD2 is the full matched one or
	// two level suffix ("co.uk").  They are equal for single-level suffixes.
	TLD  string
	TLD2 string

	// Comment is text extracted from a leading or trailing parenthetical
	// annotation, if any.
	Comment string
}

// Parse decomposes raw into a Host.  It always succeeds: malformed input
// degrades to a best-effort assignment and is judged invalid later.
// Parsing is deterministic and idempotent.
func Parse(raw string) *Host {
	h := &Host{Kind: DNSHost}

	rest := strings.TrimSpace(raw)
	rest = h.extractComments(rest)

	if addr, v6, ok := literal(rest); ok {
		if v6 {
			h.Kind = IPv6Literal
		} else {
			h.Kind = IPv4Literal
		}
		h.IPAddress = addr
		return h
	}

	h.HostName = normalize(rest)
	h.DNSName = toASCII(h.HostName)
	h.decompose()
	return h
}

// extractComments strips one leading "(text)rest" and one trailing
// "rest(text)" annotation.  When both are present the trailing comment wins.
// Nested parentheses are not supported.
func (h *Host) extractComments(s string) string {
	if len(s) > 0 && s[0] == '(' {
		if i := strings.IndexByte(s, ')'); i > 1 && i+1 < len(s) {
			h.Comment = s[1:i]
			s = s[i+1:]
		}
	}
	if len(s) > 0 && s[len(s)-1] == ')' {
		if i := strings.LastIndexByte(s[:len(s)-1], '('); i > 0 && i+1 < len(s)-1 {
			h.Comment = s[i+1 : len(s)-1]
			s = s[:i]
		}
	}
	return s
}

// literal recognizes the two bracketed IP literal forms.  The address text is
// not validated here; a malformed literal falls through to DNS-name parsing.
func literal(s string) (addr string, v6, ok bool) {
	if len(s) < 3 || s[0] != '[' || s[len(s)-1] != ']' {
		return "", false, false
	}
	inner := s[1 : len(s)-1]
	if len(inner) > 5 && strings.EqualFold(inner[:5], "IPv6:") {
		return inner[5:], true, true
	}
	if ipv4Shape(inner) {
		return inner, false, true
	}
	return "", false, false
}

// ipv4Shape reports whether s looks like four dot-separated runs of one to
// three digits.  Octet range checking happens during validation, not here.
func ipv4Shape(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if len(p) < 1 || len(p) > 3 {
			return false
		}
		for i := 0; i < len(p); i++ {
			if p[i] < '0' || p[i] > '9' {
				return false
			}
		}
	}
	return true
}

// normalize lowers, trims and removes internal spaces and any residual
// parenthesized fragments from a DNS-form host name.
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "")
	for {
		i := strings.IndexByte(s, '(')
		if i < 0 {
			break
		}
		j := strings.IndexByte(s[i:], ')')
		if j < 0 {
			break
		}
		s = s[:i] + s[i+j+1:]
	}
	return s
}

// toASCII converts a host name to its IDNA A-label form.  Conversion failures
// degrade to the input unchanged; the validator catches such names later.
func toASCII(name string) string {
	if name == "" {
		return ""
	}
	ascii, err := idna.Lookup.ToASCII(name)
	if err != nil {
		return name
	}
	return strings.ToLower(ascii)
}

// decompose splits HostName into subdomains, registration name and TLD
// suffix.  The three suffix patterns are tried in a fixed priority order:
//
//  1. a final label of 3-10 word characters       ("com", "museum")
//  2. a 1-3 word-char label before a 2-char one   ("co.uk")
//  3. a bare 2-char final label                   ("uk")
//
// This is a length heuristic, not a public suffix list, and the ordering is
// load-bearing: "example.co.uk" must yield tld2="co.uk", never plain "uk".
func (h *Host) decompose() {
	name := h.HostName
	if !strings.Contains(name, ".") {
		h.Subdomains = name
		return
	}

	var subAndDomain string
	switch {
	case splitLastLabel(name, 3, 10, &subAndDomain, &h.TLD2):
	case splitTwoLabels(name, &subAndDomain, &h.TLD2):
	case splitLastLabel(name, 2, 2, &subAndDomain, &h.TLD2):
	default:
		return // dotted, but no recognizable suffix
	}

	if i := strings.LastIndexByte(h.TLD2, '.'); i >= 0 {
		h.TLD = h.TLD2[i+1:]
	} else {
		h.TLD = h.TLD2
	}

	if i := strings.LastIndexByte(subAndDomain, '.'); i >= 0 {
		h.Subdomains = subAndDomain[:i]
		h.RegistrationName = subAndDomain[i+1:]
	} else {
		h.RegistrationName = subAndDomain
	}
	h.DomainName = h.RegistrationName + "." + h.TLD2
}

// splitLastLabel matches "<prefix>.<label>" where the final label is min..max
// word characters and the prefix is non-empty.
func splitLastLabel(name string, min, max int, pre, suf *string) bool {
	i := strings.LastIndexByte(name, '.')
	if i < 1 {
		return false
	}
	last := name[i+1:]
	if !wordLabel(last, min, max) {
		return false
	}
	*pre, *suf = name[:i], last
	return true
}

// splitTwoLabels matches "<prefix>.<l1>.<l2>" where l1 is 1-3 word chars and
// l2 exactly 2, capturing "l1.l2" as the suffix.
func splitTwoLabels(name string, pre, suf *string) bool {
	i := strings.LastIndexByte(name, '.')
	if i < 1 || !wordLabel(name[i+1:], 2, 2) {
		return false
	}
	j := strings.LastIndexByte(name[:i], '.')
	if j < 1 || !wordLabel(name[j+1:i], 1, 3) {
		return false
	}
	*pre, *suf = name[:j], name[j+1:]
	return true
}

func wordLabel(s string, min, max int) bool {
	if len(s) < min || len(s) > max {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_':
		default:
			return false
		}
	}
	return true
}
