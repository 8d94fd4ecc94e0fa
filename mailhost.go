// Package mailhost classifies the host part of an email address.  It
// decomposes a raw host string, resolves which email service provider (ESP)
// operates it, and decides its validity under a configurable policy.
//
// The package is a library primitive for email-address parsers.  It is not
// an SMTP stack: the only network activity is DNS lookups through the
// collaborators in the dns subpackage, and every lookup failure degrades to
// "no records" rather than an error.
package mailhost

import (
	"context"

	"github.com/mailspire/mailhost/dns"
	"github.com/mailspire/mailhost/parser"
)

// Checker owns the configuration value, the provider table and the DNS
// collaborators.  One Checker is typically shared process-wide; its
// exchanger cache is keyed by DNS name across all hosts it parses.
type Checker struct {
	cfg       Config
	resolver  *dns.Resolver
	exchanger *Exchanger
}

// NewChecker returns a Checker using the stdlib-backed DNS resolver.
func NewChecker(cfg Config) *Checker {
	return NewCustomChecker(cfg, dns.NewResolver())
}

// NewCustomChecker returns a Checker that performs DNS lookups through r.
// Pass a resolver built with dns.NewCustomResolver for tests, or one
// wrapping dns.NewDirectResolver to pin query behaviour.
func NewCustomChecker(cfg Config, r *dns.Resolver) *Checker {
	return &Checker{
		cfg:       cfg,
		resolver:  r,
		exchanger: newExchanger(cfg.Providers, r),
	}
}

// Host is a parsed host bound to its effective configuration.  The provider
// and its DNS-derived lookups are resolved lazily, at most once, and cached
// for the lifetime of the instance.  A Host is not safe for concurrent
// mutation; the design assumes single-owner access per instance.
type Host struct {
	parts    *parser.Host
	cfg      Config        // effective: explicit over provider over global
	explicit []ConfigPatch // per-host overrides, reapplied on adoption

	provider string
	resolved bool
}

// Host parses raw into a Host bound to this Checker's configuration.
// Explicit per-host overrides may be supplied; they take precedence over
// provider defaults even after a provider is adopted ("last explicit wins").
func (c *Checker) Host(raw string, overrides ...ConfigPatch) *Host {
	h := &Host{
		parts:    parser.Parse(raw),
		explicit: overrides,
	}
	h.cfg = c.cfg
	for _, p := range overrides {
		h.cfg = p.apply(h.cfg)
	}
	return h
}

// Parts returns the pure decomposition of the host string.
func (h *Host) Parts() *parser.Host { return h.parts }

// Config returns the host's effective configuration.
func (h *Host) Config() Config { return h.cfg }

// Name returns the display form under the host's configured encoding.
func (h *Host) Name() string { return h.parts.Name(h.cfg.HostEncoding) }

// Canonical returns the DNS-safe A-label form.
func (h *Host) Canonical() string { return h.parts.Canonical() }

// Munge masks the host name with the configured munge string.
func (h *Host) Munge() string { return h.parts.Munge(h.cfg.MungeString) }

// Valid reports whether the host is acceptable as a mail destination under
// its effective policy.  A host operated by a known ESP is valid
// unconditionally; IP literals are accepted only when allowed and
// syntactically sound; otherwise the DNSLookup policy decides.  DNS failures
// count as zero records, never as errors.
func (c *Checker) Valid(ctx context.Context, h *Host) bool {
	if c.Provider(ctx, h) != DefaultProvider {
		return true
	}

	p := h.parts
	if p.Kind != parser.DNSHost {
		return h.cfg.AllowIP && p.ValidIP()
	}

	policy := h.cfg.DNSLookup
	if policy == PolicyMX && h.cfg.HostType == HostTypeMX {
		// an exchanger needs an address record, not MX records of its own
		policy = PolicyA
	}

	switch policy {
	case PolicyMX:
		return len(c.exchanger.ForName(ctx, p.DNSName).MXers) > 0
	case PolicyA:
		ips, err := c.resolver.LookupIP(ctx, p.DNSName)
		return err == nil && len(ips) > 0
	default:
		return p.DNSName != "" && len(p.DNSName) <= parser.MaxLength
	}
}
