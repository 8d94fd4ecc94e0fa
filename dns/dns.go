// Package dns holds the DNS collaborator interfaces for the library and two
// implementations: one backed by Go's stdlib resolver and one speaking DNS
// directly.  Callers above this package never see lookup errors as fatal;
// the checker normalizes every failure to "zero records found".
package dns

import (
	"context"
	"errors"
	"net"
	"time"
)

// Errors surfaced by the resolver implementations.
var (
	ErrNotFound = errors.New("DNS record not found (NXDOMAIN)")
	ErrTempfail = errors.New("temporary DNS lookup failure")
	ErrPermfail = errors.New("permanent DNS lookup failure")
)

// DefaultDialTimeout is the fallback time out if the caller does not pass a
// deadline/cancellation.
const DefaultDialTimeout = 5 * time.Second

// TXTResolver fetches all TXT records for a name.
type TXTResolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// IPResolver fetches A and AAAA records for a host.
type IPResolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// MXResolver fetches mail-exchanger records for a name.
type MXResolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

// Resolver bundles the three lookup interfaces behind one value.
type Resolver struct {
	txt TXTResolver
	ip  IPResolver
	mx  MXResolver
}

// NewResolver returns a Resolver that performs lookups with the Go standard
// library.  Lookups respect context timeouts and cancellations.
func NewResolver() *Resolver {
	nr := &net.Resolver{
		StrictErrors: true,
		PreferGo:     true, // force pure-Go DNS implementation
		Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
			d := &net.Dialer{Timeout: DefaultDialTimeout}
			return d.DialContext(ctx, network, address)
		},
	}
	// *net.Resolver satisfies all three interfaces
	return &Resolver{txt: nr, ip: nr, mx: nr}
}

// NewCustomResolver builds a Resolver that delegates lookups to the provided
// implementations.  Nil arguments fall back to the stdlib resolver; this is
// used by unit tests and by callers that need special query behaviour.
func NewCustomResolver(txt TXTResolver, ip IPResolver, mx MXResolver) *Resolver {
	nr := &net.Resolver{}
	if txt == nil {
		txt = nr
	}
	if ip == nil {
		ip = nr
	}
	if mx == nil {
		mx = nr
	}
	return &Resolver{txt: txt, ip: ip, mx: mx}
}

// LookupTXT forwards the request to the underlying resolver.
func (r *Resolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	return r.txt.LookupTXT(ctx, name)
}

// LookupIP returns the addresses for host, flattening net.IPAddr values.
func (r *Resolver) LookupIP(ctx context.Context, host string) ([]net.IP, error) {
	addrs, err := r.ip.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}
	ips := make([]net.IP, 0, len(addrs))
	for _, a := range addrs {
		ips = append(ips, a.IP)
	}
	return ips, nil
}

// LookupMX forwards the request to the underlying resolver.
func (r *Resolver) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	return r.mx.LookupMX(ctx, name)
}

// IsNotFound reports whether err represents NXDOMAIN or an equivalent
// "name has no such records" condition.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr) && dnsErr.IsNotFound
}
