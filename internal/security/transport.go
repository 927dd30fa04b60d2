// Package security guards the outbound calls whose destination mistportal does
// not choose itself.
//
// The forecast resource URL comes back from weather.gov's /points endpoint
// and is then fetched verbatim, so the weather client dials through
// SafeTransport. It refuses loopback, link-local (including cloud metadata
// at 169.254.169.254) and private ranges. The portal client does not use it,
// because the misting device lives on the LAN by design.
package security

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// dnsTimeout bounds each resolution done on behalf of a dial or redirect.
const dnsTimeout = 500 * time.Millisecond

// BlockedCIDRs are the ranges a provider-supplied URL may not reach.
var BlockedCIDRs = []string{
	"0.0.0.0/8",
	"10.0.0.0/8",
	"100.64.0.0/10",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
}

var (
	ErrBlocked          = errors.New("ssrf: request to blocked IP range")
	ErrDNSTimeout       = errors.New("ssrf: DNS resolution timeout")
	ErrDNSFailed        = errors.New("ssrf: DNS resolution failed")
	ErrTooManyRedirects = errors.New("ssrf: too many redirects")
)

var (
	blockedNets []*net.IPNet
	initOnce    sync.Once
	initErr     error
)

func initBlockedNets() error {
	initOnce.Do(func() {
		blockedNets = make([]*net.IPNet, 0, len(BlockedCIDRs))
		for _, cidr := range BlockedCIDRs {
			_, ipNet, err := net.ParseCIDR(cidr)
			if err != nil {
				initErr = fmt.Errorf("ssrf: failed to parse CIDR %q: %w", cidr, err)
				return
			}
			blockedNets = append(blockedNets, ipNet)
		}
	})
	return initErr
}

// IsBlockedIP reports whether ip falls inside any of BlockedCIDRs.
func IsBlockedIP(ip net.IP) bool {
	if initBlockedNets() != nil {
		return true
	}
	for _, ipNet := range blockedNets {
		if ipNet.Contains(ip) {
			return true
		}
	}
	return false
}

// Resolver abstracts DNS resolution for testability.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// checkHost resolves host (unless it is an IP literal) and fails if any
// address is blocked. All addresses are checked so a rebinding answer that
// mixes a public and a private address is refused.
func checkHost(ctx context.Context, resolver Resolver, host string) ([]net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		if IsBlockedIP(ip) {
			return nil, fmt.Errorf("%w: %s", ErrBlocked, ip)
		}
		return []net.IP{ip}, nil
	}

	dnsCtx, cancel := context.WithTimeout(ctx, dnsTimeout)
	defer cancel()

	addrs, err := resolver.LookupIPAddr(dnsCtx, host)
	if err != nil {
		if dnsCtx.Err() != nil {
			return nil, fmt.Errorf("%w: host %q", ErrDNSTimeout, host)
		}
		return nil, fmt.Errorf("%w: host %q: %v", ErrDNSFailed, host, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: host %q resolved to no addresses", ErrDNSFailed, host)
	}

	ips := make([]net.IP, 0, len(addrs))
	for _, a := range addrs {
		if IsBlockedIP(a.IP) {
			return nil, fmt.Errorf("%w: %s (resolved from %s)", ErrBlocked, a.IP, host)
		}
		ips = append(ips, a.IP)
	}
	return ips, nil
}

// SafeTransport is an http.RoundTripper whose dialer refuses blocked
// addresses.
type SafeTransport struct {
	Base *http.Transport

	// Resolver is used for DNS lookups. If nil, net.DefaultResolver is used.
	Resolver Resolver
}

// NewSafeTransport wraps base, or a clone of http.DefaultTransport when base
// is nil, overriding its DialContext.
func NewSafeTransport(base *http.Transport, resolver Resolver) (*SafeTransport, error) {
	if err := initBlockedNets(); err != nil {
		return nil, err
	}
	if base == nil {
		base = http.DefaultTransport.(*http.Transport).Clone()
	}
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	st := &SafeTransport{Base: base, Resolver: resolver}
	base.Proxy = nil
	base.DialContext = st.dialContext
	return st, nil
}

// RoundTrip implements http.RoundTripper.
func (st *SafeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return st.Base.RoundTrip(req)
}

func (st *SafeTransport) dialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("ssrf: invalid address %q: %w", addr, err)
	}
	ips, err := checkHost(ctx, st.Resolver, host)
	if err != nil {
		return nil, err
	}
	dialer := &net.Dialer{}
	return dialer.DialContext(ctx, network, net.JoinHostPort(ips[0].String(), port))
}

// CheckRedirect returns an http.Client CheckRedirect that caps the redirect
// chain and re-checks every hop.
func CheckRedirect(maxRedirects int, resolver Resolver) func(*http.Request, []*http.Request) error {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("%w: limit is %d", ErrTooManyRedirects, maxRedirects)
		}
		host := req.URL.Hostname()
		if host == "" {
			return fmt.Errorf("%w: redirect URL has no host", ErrBlocked)
		}
		_, err := checkHost(req.Context(), resolver, host)
		return err
	}
}

// ValidateURL is a pre-flight check for a provider-supplied URL. Only http
// and https URLs with a host are accepted.
func ValidateURL(ctx context.Context, resolver Resolver, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBlocked, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q not allowed", ErrBlocked, u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("%w: URL has no host", ErrBlocked)
	}
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	_, err = checkHost(ctx, resolver, u.Hostname())
	return err
}

// NewSafeHTTPClient returns an http.Client with SafeTransport and
// redirect checking. The weather client is built on it.
func NewSafeHTTPClient(timeout time.Duration, maxRedirects int) (*http.Client, error) {
	transport, err := NewSafeTransport(nil, nil)
	if err != nil {
		return nil, err
	}
	return &http.Client{
		Transport:     transport,
		Timeout:       timeout,
		CheckRedirect: CheckRedirect(maxRedirects, transport.Resolver),
	}, nil
}
