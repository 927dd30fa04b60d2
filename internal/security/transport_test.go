package security

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockResolver implements Resolver for deterministic testing.
type mockResolver struct {
	ips map[string][]net.IPAddr
}

func (m *mockResolver) LookupIPAddr(_ context.Context, host string) ([]net.IPAddr, error) {
	ips, ok := m.ips[host]
	if !ok {
		return nil, fmt.Errorf("no such host: %s", host)
	}
	return ips, nil
}

// slowResolver simulates a DNS resolver that takes too long.
type slowResolver struct {
	delay time.Duration
}

func (s *slowResolver) LookupIPAddr(ctx context.Context, _ string) ([]net.IPAddr, error) {
	select {
	case <-time.After(s.delay):
		return []net.IPAddr{{IP: net.ParseIP("93.184.216.34")}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func newMockResolver(mappings map[string][]string) *mockResolver {
	ips := make(map[string][]net.IPAddr)
	for host, ipStrs := range mappings {
		for _, s := range ipStrs {
			ips[host] = append(ips[host], net.IPAddr{IP: net.ParseIP(s)})
		}
	}
	return &mockResolver{ips: ips}
}

func TestBlockedCIDRsParse(t *testing.T) {
	require.NoError(t, initBlockedNets())
	assert.Len(t, blockedNets, len(BlockedCIDRs))
}

func TestIsBlockedIP(t *testing.T) {
	tests := []struct {
		ip      string
		blocked bool
	}{
		{"127.0.0.1", true},
		{"10.1.2.3", true},
		{"172.16.0.1", true},
		{"172.31.255.255", true},
		{"192.168.1.50", true},
		{"169.254.169.254", true},
		{"100.64.0.1", true},
		{"0.0.0.0", true},
		{"::1", true},
		{"fd00::1", true},
		{"fe80::1", true},
		{"172.32.0.1", false},
		{"8.8.8.8", false},
		{"23.56.104.17", false},
		{"2606:4700::6810:84e5", false},
	}
	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			assert.Equal(t, tt.blocked, IsBlockedIP(net.ParseIP(tt.ip)))
		})
	}
}

func TestSafeTransport_BlocksIPLiteral(t *testing.T) {
	st, err := NewSafeTransport(nil, newMockResolver(nil))
	require.NoError(t, err)

	client := &http.Client{Transport: st, Timeout: time.Second}
	_, err = client.Get("http://169.254.169.254/latest/meta-data/")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBlocked), "got %v", err)
}

func TestSafeTransport_BlocksResolvedPrivateHost(t *testing.T) {
	st, err := NewSafeTransport(nil, newMockResolver(map[string][]string{
		"forecast.evil.test": {"192.168.0.10"},
	}))
	require.NoError(t, err)

	_, err = st.dialContext(context.Background(), "tcp", "forecast.evil.test:443")
	assert.ErrorIs(t, err, ErrBlocked)
}

func TestSafeTransport_BlocksMixedAnswer(t *testing.T) {
	st, err := NewSafeTransport(nil, newMockResolver(map[string][]string{
		"rebind.test": {"23.56.104.17", "127.0.0.1"},
	}))
	require.NoError(t, err)

	_, err = st.dialContext(context.Background(), "tcp", "rebind.test:443")
	assert.ErrorIs(t, err, ErrBlocked)
}

func TestSafeTransport_DNSFailures(t *testing.T) {
	st, err := NewSafeTransport(nil, newMockResolver(nil))
	require.NoError(t, err)
	_, err = st.dialContext(context.Background(), "tcp", "unknown.test:443")
	assert.ErrorIs(t, err, ErrDNSFailed)

	st, err = NewSafeTransport(nil, &slowResolver{delay: 2 * time.Second})
	require.NoError(t, err)
	_, err = st.dialContext(context.Background(), "tcp", "slow.test:443")
	assert.ErrorIs(t, err, ErrDNSTimeout)

	_, err = st.dialContext(context.Background(), "tcp", "no-port")
	require.Error(t, err)
}

func TestCheckRedirect(t *testing.T) {
	check := CheckRedirect(2, newMockResolver(map[string][]string{
		"api.weather.gov": {"23.56.104.17"},
		"internal.test":   {"10.0.0.5"},
	}))

	redirect := func(raw string) *http.Request {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		return (&http.Request{URL: u}).WithContext(context.Background())
	}

	assert.NoError(t, check(redirect("https://api.weather.gov/gridpoints/PSR/1,1/forecast"), nil))
	assert.ErrorIs(t, check(redirect("https://internal.test/"), nil), ErrBlocked)
	assert.ErrorIs(t, check(redirect("http://127.0.0.1:8080/"), nil), ErrBlocked)
	assert.ErrorIs(t, check(redirect("http:///nohost"), nil), ErrBlocked)

	via := []*http.Request{redirect("https://api.weather.gov/a"), redirect("https://api.weather.gov/b")}
	assert.ErrorIs(t, check(redirect("https://api.weather.gov/c"), via), ErrTooManyRedirects)
}

func TestValidateURL(t *testing.T) {
	resolver := newMockResolver(map[string][]string{"api.weather.gov": {"23.56.104.17"}})
	ctx := context.Background()

	assert.NoError(t, ValidateURL(ctx, resolver, "https://api.weather.gov/gridpoints/PSR/158,57/forecast"))
	assert.ErrorIs(t, ValidateURL(ctx, resolver, "file:///etc/passwd"), ErrBlocked)
	assert.ErrorIs(t, ValidateURL(ctx, resolver, "http://[::1]/"), ErrBlocked)
	assert.ErrorIs(t, ValidateURL(ctx, resolver, "https:///forecast"), ErrBlocked)
	assert.ErrorIs(t, ValidateURL(ctx, resolver, "https://nowhere.test/"), ErrDNSFailed)
}

func TestNewSafeHTTPClient(t *testing.T) {
	client, err := NewSafeHTTPClient(5*time.Second, 3)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, client.Timeout)
	assert.IsType(t, &SafeTransport{}, client.Transport)
	assert.NotNil(t, client.CheckRedirect)
}
