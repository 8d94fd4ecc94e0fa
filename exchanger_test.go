package mailhost

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExchangerForName(t *testing.T) {
	mx := &fakeMX{records: mxs("MX1.Example.COM.", "mx2.example.com.")}
	c := testChecker(DefaultConfig, nil, nil, mx)

	ex := c.exchanger.ForName(context.Background(), "example.com")
	assert.Equal(t, []MX{
		{Host: "mx1.example.com", Pref: 10},
		{Host: "mx2.example.com", Pref: 20},
	}, ex.MXers)
	assert.Equal(t, DefaultProvider, ex.Provider)
}

func TestExchangerCaching(t *testing.T) {
	mx := &fakeMX{records: mxs("mx1.example.com.")}
	c := testChecker(DefaultConfig, nil, nil, mx)
	ctx := context.Background()

	a := c.exchanger.ForName(ctx, "example.com")
	b := c.exchanger.ForName(ctx, "example.com")
	assert.Equal(t, a, b)
	assert.Equal(t, 1, mx.calls)

	// distinct names are distinct cache entries
	c.exchanger.ForName(ctx, "other.example")
	assert.Equal(t, 2, mx.calls)
}

func TestExchangerImplicitMX(t *testing.T) {
	mx := &fakeMX{err: &net.DNSError{Err: "no such host", IsNotFound: true}}
	ip := &fakeIP{addrs: addrs("192.0.2.1")}
	c := testChecker(DefaultConfig, nil, ip, mx)

	ex := c.exchanger.ForName(context.Background(), "example.com")
	assert.Equal(t, []MX{{Host: "example.com", Pref: 0}}, ex.MXers)
}

func TestExchangerNothingFound(t *testing.T) {
	c := testChecker(DefaultConfig, nil, nil, nil)

	ex := c.exchanger.ForName(context.Background(), "example.com")
	assert.Empty(t, ex.MXers)
	assert.Equal(t, DefaultProvider, ex.Provider)

	assert.Equal(t, Exchange{Provider: DefaultProvider}, c.exchanger.ForName(context.Background(), ""))
}

func TestExchangerClassifyOrder(t *testing.T) {
	mx := &fakeMX{records: mxs("relay.shared.example.")}
	cfg := DefaultConfig
	cfg.Providers = []Provider{
		{ID: "first", ExchangerMatch: []string{".example"}},
		{ID: "second", ExchangerMatch: []string{"shared.example"}},
	}
	c := testChecker(cfg, nil, nil, mx)

	ex := c.exchanger.ForName(context.Background(), "hosted.test")
	assert.Equal(t, "first", ex.Provider)
}
