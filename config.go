package mailhost

import "github.com/mailspire/mailhost/parser"

// Policy selects the DNS check applied when a host's provider is unknown.
type Policy string

const (
	PolicyMX  Policy = "mx"  // require at least one usable mail exchanger
	PolicyA   Policy = "a"   // require at least one address record
	PolicyOff Policy = "off" // syntactic length bound only, no network
)

// HostType describes what role the host plays for its owner.  An "mx" host
// is itself a mail exchanger, so its DNS check uses address records rather
// than MX records of its own.
type HostType string

const (
	HostTypeEmail HostType = "email"
	HostTypeMX    HostType = "mx"
)

// DefaultProvider is the provider id adopted when no rule and no exchanger
// classification identifies the host's ESP.
const DefaultProvider = "default"

// Config is the explicit configuration value passed to NewChecker.  There is
// no process-wide configuration state; every knob lives here.
type Config struct {
	DNSLookup    Policy
	HostEncoding parser.Encoding
	AllowIP      bool
	MungeString  string
	HostType     HostType

	// Providers is the ordered ESP table.  Definition order is matching
	// order.
	Providers []Provider
}

// DefaultConfig mirrors the knob defaults most callers want.
var DefaultConfig = Config{
	DNSLookup:    PolicyMX,
	HostEncoding: parser.ASCII,
	AllowIP:      true,
	MungeString:  "*****",
	HostType:     HostTypeEmail,
}

// Provider is one entry of the ESP table.
type Provider struct {
	// ID identifies the provider; letters, digits, '-' and '_' only, so it
	// can double as a provider-name rule.
	ID string

	// HostMatch rules identify the provider from the host itself.
	HostMatch []string

	// ExchangerMatch rules identify the provider from the host names of its
	// mail exchangers.
	ExchangerMatch []string

	// Config holds the provider's configuration defaults, applied when the
	// provider is adopted for a host.
	Config ConfigPatch
}

// ConfigPatch is a partial Config.  Zero-valued fields inherit; pointer
// fields distinguish "unset" from an explicit false or empty string.
type ConfigPatch struct {
	DNSLookup    Policy
	HostEncoding parser.Encoding
	AllowIP      *bool
	MungeString  *string
	HostType     HostType
}

// apply lays the patch over c and returns the result.
func (p ConfigPatch) apply(c Config) Config {
	if p.DNSLookup != "" {
		c.DNSLookup = p.DNSLookup
	}
	if p.HostEncoding != "" {
		c.HostEncoding = p.HostEncoding
	}
	if p.AllowIP != nil {
		c.AllowIP = *p.AllowIP
	}
	if p.MungeString != nil {
		c.MungeString = *p.MungeString
	}
	if p.HostType != "" {
		c.HostType = p.HostType
	}
	return c
}

// Bool returns a pointer suitable for ConfigPatch.AllowIP.
func Bool(v bool) *bool { return &v }

// String returns a pointer suitable for ConfigPatch.MungeString.
func String(v string) *string { return &v }
