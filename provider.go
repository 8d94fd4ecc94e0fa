package mailhost

import "context"

// Provider resolves the ESP identifier for h, memoized per instance.  The
// cascade is:
//
//	1. the first provider-table entry whose HostMatch rules match the host
//	2. DefaultProvider when DNS lookups are disabled
//	3. the exchanger's classification derived from the host's MX hostnames
//	4. DefaultProvider
//
// Adopting a provider merges its config defaults under the host's explicit
// overrides.  A second call returns the cached id and performs no DNS work.
func (c *Checker) Provider(ctx context.Context, h *Host) string {
	if h.resolved {
		return h.provider
	}

	for i := range c.cfg.Providers {
		p := &c.cfg.Providers[i]
		if len(p.HostMatch) == 0 {
			continue
		}
		if matchRules(h.parts, "", p.HostMatch) != "" {
			c.adopt(h, p.ID)
			return h.provider
		}
	}

	if h.cfg.DNSLookup == PolicyOff || h.parts.DNSName == "" {
		c.adopt(h, DefaultProvider)
		return h.provider
	}

	if id := c.exchanger.ForName(ctx, h.parts.DNSName).Provider; id != DefaultProvider && id != "" {
		c.adopt(h, id)
		return h.provider
	}

	c.adopt(h, DefaultProvider)
	return h.provider
}

// adopt memoizes the provider and rebuilds the host's effective config:
// provider defaults over the global config, explicit host overrides on top.
func (c *Checker) adopt(h *Host, id string) {
	h.provider = id
	h.resolved = true

	if p := c.providerByID(id); p != nil {
		cfg := p.Config.apply(c.cfg)
		for _, patch := range h.explicit {
			cfg = patch.apply(cfg)
		}
		h.cfg = cfg
	}
}

func (c *Checker) providerByID(id string) *Provider {
	for i := range c.cfg.Providers {
		if c.cfg.Providers[i].ID == id {
			return &c.cfg.Providers[i]
		}
	}
	return nil
}
