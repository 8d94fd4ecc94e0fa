package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	mdns "github.com/miekg/dns"
)

// DirectConfig configures a DirectResolver.
type DirectConfig struct {
	// Nameservers is the list of servers to query (e.g. "8.8.8.8:53").
	// If empty, the servers from /etc/resolv.conf are used, falling back to
	// public DNS.
	Nameservers []string

	// Timeout bounds each individual query.  Defaults to DefaultDialTimeout.
	Timeout time.Duration

	// Retries is the number of extra attempts for failed queries.
	Retries int
}

// DirectResolver implements TXTResolver, IPResolver and MXResolver by
// speaking DNS directly via github.com/miekg/dns, bypassing the stdlib
// resolver.  Use it when query behaviour (servers, retries) must be pinned
// rather than inherited from the host system.
type DirectResolver struct {
	config DirectConfig
	client *mdns.Client
}

// NewDirectResolver returns a DirectResolver for the given configuration.
func NewDirectResolver(config DirectConfig) *DirectResolver {
	if config.Timeout == 0 {
		config.Timeout = DefaultDialTimeout
	}
	if config.Retries == 0 {
		config.Retries = 2
	}
	if len(config.Nameservers) == 0 {
		config.Nameservers = systemNameservers()
	}
	return &DirectResolver{
		config: config,
		client: &mdns.Client{Timeout: config.Timeout},
	}
}

// systemNameservers reads the system servers from resolv.conf.
func systemNameservers() []string {
	config, err := mdns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(config.Servers) == 0 {
		return []string{"8.8.8.8:53", "1.1.1.1:53"}
	}
	servers := make([]string, 0, len(config.Servers))
	for _, s := range config.Servers {
		if !strings.Contains(s, ":") {
			s += ":53"
		}
		servers = append(servers, s)
	}
	return servers
}

func absolute(name string) string {
	if !strings.HasSuffix(name, ".") {
		return name + "."
	}
	return name
}

// query performs one DNS question with retries across the configured
// servers, mapping rcodes onto the package sentinel errors.
func (r *DirectResolver) query(ctx context.Context, name string, qtype uint16) (*mdns.Msg, error) {
	m := new(mdns.Msg)
	m.SetQuestion(absolute(name), qtype)
	m.RecursionDesired = true

	var lastErr error
	for i := 0; i <= r.config.Retries; i++ {
		for _, server := range r.config.Nameservers {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}

			resp, _, err := r.client.ExchangeContext(ctx, m, server)
			if err != nil {
				lastErr = fmt.Errorf("%w: %v", ErrTempfail, err)
				continue
			}
			switch resp.Rcode {
			case mdns.RcodeSuccess:
				return resp, nil
			case mdns.RcodeNameError: // NXDOMAIN
				return nil, ErrNotFound
			case mdns.RcodeServerFailure:
				lastErr = ErrTempfail
				continue
			default:
				lastErr = fmt.Errorf("%w: rcode %d", ErrPermfail, resp.Rcode)
				continue
			}
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrTempfail
}

// LookupTXT retrieves TXT records for name.  Split character strings within
// one record are joined.
func (r *DirectResolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	resp, err := r.query(ctx, name, mdns.TypeTXT)
	if err != nil {
		return nil, err
	}
	var records []string
	for _, rr := range resp.Answer {
		if txt, ok := rr.(*mdns.TXT); ok {
			records = append(records, strings.Join(txt.Txt, ""))
		}
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records, nil
}

// LookupIPAddr retrieves A and AAAA records for host.
func (r *DirectResolver) LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error) {
	var addrs []net.IPAddr
	var lastErr error

	for _, qtype := range []uint16{mdns.TypeA, mdns.TypeAAAA} {
		resp, err := r.query(ctx, host, qtype)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				lastErr = err
			}
			continue
		}
		for _, rr := range resp.Answer {
			switch a := rr.(type) {
			case *mdns.A:
				addrs = append(addrs, net.IPAddr{IP: a.A})
			case *mdns.AAAA:
				addrs = append(addrs, net.IPAddr{IP: a.AAAA})
			}
		}
	}

	if len(addrs) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, ErrNotFound
	}
	return addrs, nil
}

// LookupMX retrieves MX records for name.
func (r *DirectResolver) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	resp, err := r.query(ctx, name, mdns.TypeMX)
	if err != nil {
		return nil, err
	}
	var records []*net.MX
	for _, rr := range resp.Answer {
		if mx, ok := rr.(*mdns.MX); ok {
			records = append(records, &net.MX{Host: mx.Mx, Pref: mx.Preference})
		}
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records, nil
}
