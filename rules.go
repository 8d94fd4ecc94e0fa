package mailhost

import (
	"net"
	"regexp"
	"strings"

	"github.com/gobwas/glob"

	"github.com/mailspire/mailhost/parser"
)

// providerNameShape gates the provider-name predicate: a rule of letters,
// digits, '-' and '_' can name a provider id.
var providerNameShape = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Matches evaluates rules left to right against h and returns the first rule
// that matches, or "" when none do.  The matched rule text is returned, not
// a boolean, so callers can keep it as an audit trail.
//
// Each rule is tried against every predicate class in a fixed order:
//
//	exact         rule == domain_name or rule == dns_name
//	registration  rule == registration_name + "."
//	tld suffix    ".uk" or ".co.uk" matching tld/tld2
//	domain glob   shell glob (optionally "@"-prefixed) on domain or dns name
//	provider      rule equals the host's memoized provider id
//	ip/cidr       exact address or CIDR containment, IP literals only
//
// The provider predicate consults only an already-resolved provider; Matches
// itself never triggers DNS work and is pure per call.
func (c *Checker) Matches(h *Host, rules ...string) string {
	pr := ""
	if h.resolved {
		pr = h.provider
	}
	return matchRules(h.parts, pr, rules)
}

func matchRules(p *parser.Host, provider string, rules []string) string {
	for _, rule := range rules {
		if ruleMatches(p, provider, rule) {
			return rule
		}
	}
	return ""
}

func ruleMatches(p *parser.Host, provider, rule string) bool {
	if rule == "" {
		return false
	}
	if p.DomainName != "" && rule == p.DomainName {
		return true
	}
	if p.DNSName != "" && rule == p.DNSName {
		return true
	}
	if p.RegistrationName != "" && rule == p.RegistrationName+"." {
		return true
	}
	if tldMatches(p, rule) {
		return true
	}
	if globMatches(p, rule) {
		return true
	}
	if provider != "" && providerNameShape.MatchString(rule) && rule == provider {
		return true
	}
	return ipMatches(p, rule)
}

func tldMatches(p *parser.Host, rule string) bool {
	if len(rule) < 2 || rule[0] != '.' {
		return false
	}
	suffix := rule[1:]
	return (p.TLD != "" && suffix == p.TLD) || (p.TLD2 != "" && suffix == p.TLD2)
}

// globMatches applies a shell glob (supporting '*', '?' and bracket classes)
// to the domain name and the dns name.  An uncompilable pattern simply does
// not match.
func globMatches(p *parser.Host, rule string) bool {
	if p.DomainName == "" && p.DNSName == "" {
		return false
	}
	pattern := strings.TrimPrefix(rule, "@")
	g, err := glob.Compile(strings.ToLower(pattern))
	if err != nil {
		return false
	}
	if p.DomainName != "" && g.Match(p.DomainName) {
		return true
	}
	return p.DNSName != "" && g.Match(p.DNSName)
}

// ipMatches evaluates address rules; it applies only to IP-literal hosts.
// A rule without '/' must equal the literal exactly; otherwise the rule is
// parsed as a CIDR network and must contain the address within the same
// family.  A malformed CIDR rule fails this one evaluation rather than the
// caller (see DESIGN.md).
func ipMatches(p *parser.Host, rule string) bool {
	if p.IPAddress == "" {
		return false
	}
	if !strings.ContainsRune(rule, '/') {
		return rule == p.IPAddress
	}
	_, network, err := net.ParseCIDR(rule)
	if err != nil {
		return false
	}
	addr := net.ParseIP(p.IPAddress)
	if addr == nil {
		return false
	}
	if (network.IP.To4() != nil) != (addr.To4() != nil) {
		return false
	}
	return network.Contains(addr)
}
