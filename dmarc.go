package mailhost

import (
	"context"
	"strings"
)

// DMARC fetches and parses the host's DMARC policy from the TXT record at
// "_dmarc.<dns_name>".  Lookup failures and absent records yield an empty
// map, never an error.
func (c *Checker) DMARC(ctx context.Context, h *Host) map[string]string {
	name := h.parts.DNSName
	if name == "" {
		return map[string]string{}
	}

	txts, err := c.resolver.LookupTXT(ctx, "_dmarc."+name)
	if err != nil {
		return map[string]string{}
	}
	for _, txt := range txts {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(txt)), "v=dmarc1") {
			return ParseDMARC(txt)
		}
	}
	return map[string]string{}
}

// ParseDMARC splits a DMARC TXT record into its tag=value pairs.  Pairs are
// split on ';', then on the first '='; entries without '=' are skipped.
func ParseDMARC(record string) map[string]string {
	tags := map[string]string{}
	for _, pair := range strings.Split(record, ";") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		tags[key] = strings.TrimSpace(value)
	}
	return tags
}
