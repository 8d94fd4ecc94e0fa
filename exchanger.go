package mailhost

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/mailspire/mailhost/dns"
	"github.com/mailspire/mailhost/parser"
)

// exchangerCacheSize bounds the process-wide exchange cache.
const exchangerCacheSize = 4096

// MX is one usable mail-exchanger record.
type MX struct {
	Host string
	Pref uint16
}

// Exchange is the cached result of an exchanger lookup: the usable MX hosts
// for a DNS name and the provider classification derived from them.
type Exchange struct {
	MXers    []MX
	Provider string
}

// Exchanger looks up mail exchangers for DNS names and classifies their
// provider from the providers' ExchangerMatch rules.  Results are cached per
// DNS name, with concurrent lookups for the same name collapsed into one.
type Exchanger struct {
	resolver  *dns.Resolver
	providers []Provider
	cache     *lru.Cache[string, Exchange]
	group     singleflight.Group
}

func newExchanger(providers []Provider, r *dns.Resolver) *Exchanger {
	cache, _ := lru.New[string, Exchange](exchangerCacheSize)
	return &Exchanger{
		resolver:  r,
		providers: providers,
		cache:     cache,
	}
}

// ForName returns the exchange for dnsName, from cache when possible.  DNS
// failures are not errors: they yield an Exchange with no MX hosts and the
// default provider.
func (e *Exchanger) ForName(ctx context.Context, dnsName string) Exchange {
	if dnsName == "" {
		return Exchange{Provider: DefaultProvider}
	}
	if ex, ok := e.cache.Get(dnsName); ok {
		return ex
	}

	v, _, _ := e.group.Do(dnsName, func() (any, error) {
		if ex, ok := e.cache.Get(dnsName); ok {
			return ex, nil
		}
		ex := e.lookup(ctx, dnsName)
		e.cache.Add(dnsName, ex)
		return ex, nil
	})
	return v.(Exchange)
}

func (e *Exchanger) lookup(ctx context.Context, dnsName string) Exchange {
	var ex Exchange

	records, err := e.resolver.LookupMX(ctx, dnsName)
	if err == nil {
		for _, mx := range records {
			host := strings.TrimSuffix(strings.ToLower(mx.Host), ".")
			if host == "" {
				continue // "null MX" and malformed answers are not usable
			}
			ex.MXers = append(ex.MXers, MX{Host: host, Pref: mx.Pref})
		}
	}

	// RFC 5321 section 5.1: with no MX records, an address record makes the
	// host its own implicit exchanger.
	if len(ex.MXers) == 0 {
		if ips, err := e.resolver.LookupIP(ctx, dnsName); err == nil && len(ips) > 0 {
			ex.MXers = []MX{{Host: dnsName, Pref: 0}}
		}
	}

	ex.Provider = e.classify(ex.MXers)
	return ex
}

// classify matches each exchanger host name against the provider table's
// ExchangerMatch rules, in table order.
func (e *Exchanger) classify(mxers []MX) string {
	for i := range e.providers {
		p := &e.providers[i]
		if len(p.ExchangerMatch) == 0 {
			continue
		}
		for _, mx := range mxers {
			if matchRules(parser.Parse(mx.Host), "", p.ExchangerMatch) != "" {
				return p.ID
			}
		}
	}
	return DefaultProvider
}
