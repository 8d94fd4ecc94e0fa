package mailhost

import (
	"context"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mailspire/mailhost/dns"
)

// fake resolvers implementing the dns collaborator interfaces; call counters
// let tests assert memoization.

type fakeTXT struct {
	txts  []string
	err   error
	calls int
}

func (f *fakeTXT) LookupTXT(ctx context.Context, name string) ([]string, error) {
	f.calls++
	return f.txts, f.err
}

type fakeIP struct {
	addrs []net.IPAddr
	err   error
	calls int
}

func (f *fakeIP) LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error) {
	f.calls++
	return f.addrs, f.err
}

type fakeMX struct {
	records []*net.MX
	err     error
	calls   int
}

func (f *fakeMX) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	f.calls++
	return f.records, f.err
}

func addrs(ips ...string) []net.IPAddr {
	out := make([]net.IPAddr, 0, len(ips))
	for _, s := range ips {
		out = append(out, net.IPAddr{IP: net.ParseIP(s)})
	}
	return out
}

func mxs(hosts ...string) []*net.MX {
	out := make([]*net.MX, 0, len(hosts))
	for i, h := range hosts {
		out = append(out, &net.MX{Host: h, Pref: uint16(10 * (i + 1))})
	}
	return out
}

func testChecker(cfg Config, txt *fakeTXT, ip *fakeIP, mx *fakeMX) *Checker {
	if txt == nil {
		txt = &fakeTXT{err: &net.DNSError{Err: "no such host", IsNotFound: true}}
	}
	if ip == nil {
		ip = &fakeIP{err: &net.DNSError{Err: "no such host", IsNotFound: true}}
	}
	if mx == nil {
		mx = &fakeMX{err: &net.DNSError{Err: "no such host", IsNotFound: true}}
	}
	return NewCustomChecker(cfg, dns.NewCustomResolver(txt, ip, mx))
}

func TestValidKnownProviderSkipsDNS(t *testing.T) {
	ip := &fakeIP{}
	mx := &fakeMX{}
	cfg := DefaultConfig
	cfg.Providers = []Provider{
		{ID: "google", HostMatch: []string{"gmail.com", "googlemail.com"}},
	}
	c := testChecker(cfg, nil, ip, mx)

	h := c.Host("gmail.com")
	assert.True(t, c.Valid(context.Background(), h))
	assert.Zero(t, ip.calls)
	assert.Zero(t, mx.calls)
}

func TestValidIPLiteral(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		allowIP bool
		want    bool
	}{
		{"valid v4 allowed", "[1.2.3.4]", true, true},
		{"valid v4 forbidden", "[1.2.3.4]", false, false},
		{"valid v6 allowed", "[IPv6:2001:db8::1]", true, true},
		{"octet out of range", "[999.1.1.1]", true, false},
		{"garbage v6", "[IPv6:nope]", true, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig
			cfg.AllowIP = tc.allowIP
			c := testChecker(cfg, nil, nil, nil)
			assert.Equal(t, tc.want, c.Valid(context.Background(), c.Host(tc.raw)))
		})
	}
}

func TestValidPolicyMX(t *testing.T) {
	t.Run("mx records present", func(t *testing.T) {
		c := testChecker(DefaultConfig, nil, nil, &fakeMX{records: mxs("mx1.example.com.")})
		assert.True(t, c.Valid(context.Background(), c.Host("example.com")))
	})

	t.Run("no records anywhere", func(t *testing.T) {
		c := testChecker(DefaultConfig, nil, nil, nil)
		assert.False(t, c.Valid(context.Background(), c.Host("example.com")))
	})

	t.Run("lookup error counts as zero records", func(t *testing.T) {
		c := testChecker(DefaultConfig, nil,
			&fakeIP{err: &net.DNSError{Err: "timeout", IsTimeout: true}},
			&fakeMX{err: &net.DNSError{Err: "timeout", IsTimeout: true}})
		assert.False(t, c.Valid(context.Background(), c.Host("example.com")))
	})

	t.Run("implicit mx from address record", func(t *testing.T) {
		c := testChecker(DefaultConfig, nil, &fakeIP{addrs: addrs("192.0.2.1")}, nil)
		assert.True(t, c.Valid(context.Background(), c.Host("example.com")))
	})
}

func TestValidPolicyA(t *testing.T) {
	cfg := DefaultConfig
	cfg.DNSLookup = PolicyA

	c := testChecker(cfg, nil, &fakeIP{addrs: addrs("192.0.2.1")}, nil)
	assert.True(t, c.Valid(context.Background(), c.Host("example.com")))

	c = testChecker(cfg, nil, nil, nil)
	assert.False(t, c.Valid(context.Background(), c.Host("example.com")))
}

func TestValidPolicyOff(t *testing.T) {
	cfg := DefaultConfig
	cfg.DNSLookup = PolicyOff
	ip := &fakeIP{}
	mx := &fakeMX{}
	c := testChecker(cfg, nil, ip, mx)

	assert.True(t, c.Valid(context.Background(), c.Host("example.com")))

	long := strings.Repeat("a", 64) + "." + strings.Repeat("b", 63) + "." +
		strings.Repeat("c", 63) + "." + strings.Repeat("d", 63) + "." +
		strings.Repeat("e", 30) + ".com"
	assert.False(t, c.Valid(context.Background(), c.Host(long)))

	assert.Zero(t, ip.calls)
	assert.Zero(t, mx.calls)
}

func TestValidHostTypeMXUsesAddressRecords(t *testing.T) {
	cfg := DefaultConfig
	cfg.HostType = HostTypeMX

	mx := &fakeMX{err: &net.DNSError{Err: "no such host", IsNotFound: true}}
	c := testChecker(cfg, nil, &fakeIP{addrs: addrs("192.0.2.1")}, mx)
	assert.True(t, c.Valid(context.Background(), c.Host("mx1.example.com")))
}

func TestHostDisplayForms(t *testing.T) {
	c := testChecker(DefaultConfig, nil, nil, nil)

	h := c.Host("bücher.example")
	assert.Equal(t, "xn--bcher-kva.example", h.Name())
	assert.Equal(t, "xn--bcher-kva.example", h.Canonical())

	h = c.Host("bücher.example", ConfigPatch{HostEncoding: "unicode"})
	assert.Equal(t, "bücher.example", h.Name())
	assert.Equal(t, "xn--bcher-kva.example", h.Canonical())

	h = c.Host("ab.example.com", ConfigPatch{MungeString: String("###")})
	assert.Equal(t, "ab###", h.Munge())
}

func TestHostIdempotentAccessors(t *testing.T) {
	c := testChecker(DefaultConfig, nil, nil, nil)
	h := c.Host("sub.example.co.uk")

	assert.Equal(t, h.Name(), h.Name())
	assert.Equal(t, h.Canonical(), h.Canonical())
	assert.Equal(t, h.Parts(), h.Parts())
}
