// Package httpclient wraps http.Client with SSRF protection for
// collectors that fetch partner endpoints. Endpoint URLs come from
// injected configuration, so redirects and DNS answers still get
// validated before any connection to a private address is made.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/foodcost/pricefeed/errors"
)

// SaferClient wraps http.Client with scheme checks, redirect limits,
// and private-IP blocking at dial time.
type SaferClient struct {
	*http.Client
	allowedSchemes []string
	blockPrivateIP bool
	maxRedirects   int
	defaultHeaders http.Header
}

// NewSaferClient creates an HTTP client with SSRF protection.
func NewSaferClient(timeout time.Duration) *SaferClient {
	client := &SaferClient{
		Client: &http.Client{
			Timeout: timeout,
		},
		allowedSchemes: []string{"http", "https"},
		blockPrivateIP: true,
		maxRedirects:   10,
	}

	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= client.maxRedirects {
			return errors.Newf("stopped after %d redirects", client.maxRedirects)
		}
		if err := client.validateURL(req.URL); err != nil {
			return errors.Wrap(err, "redirect blocked")
		}
		return nil
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	client.Transport = &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, errors.Wrap(err, "invalid address")
			}

			ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to resolve host %q", host)
			}

			// DNS rebinding protection: check resolved addresses, not
			// just the hostname the request was built with.
			for _, ip := range ips {
				if isPrivateIP(ip) {
					return nil, errors.Newf("private IP address blocked: %s", ip)
				}
			}

			return dialer.DialContext(ctx, network, addr)
		},
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return client
}

// SetDefaultHeaders installs headers applied to every request made
// through Do. Request-specific headers win on conflict.
func (c *SaferClient) SetDefaultHeaders(h http.Header) {
	c.defaultHeaders = h
}

// validateURL validates a URL for SSRF protection before making a request.
func (c *SaferClient) validateURL(u *url.URL) error {
	scheme := strings.ToLower(u.Scheme)
	allowed := false
	for _, s := range c.allowedSchemes {
		if scheme == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return errors.Newf("scheme %q not allowed (allowed: %v)", scheme, c.allowedSchemes)
	}

	if strings.Contains(u.String(), "@") {
		// Could be credential injection or URL confusion: http://evil.com@localhost/
		return errors.New("URL contains @ character (potential SSRF attempt)")
	}

	hostname := u.Hostname()
	if hostname == "" {
		return errors.New("URL missing hostname")
	}

	if c.blockPrivateIP {
		if isLocalhost(hostname) {
			return errors.New("localhost access blocked")
		}
		if ip := net.ParseIP(hostname); ip != nil && isPrivateIP(ip) {
			return errors.Newf("private IP address blocked: %s", hostname)
		}
	}

	return nil
}

// ValidateURL validates a URL string before creating a request.
func (c *SaferClient) ValidateURL(urlStr string) (*url.URL, error) {
	u, err := url.Parse(urlStr)
	if err != nil {
		return nil, errors.Wrap(err, "invalid URL")
	}
	if err := c.validateURL(u); err != nil {
		return nil, err
	}
	return u, nil
}

// Do executes an HTTP request with SSRF protection and default headers.
func (c *SaferClient) Do(req *http.Request) (*http.Response, error) {
	if err := c.validateURL(req.URL); err != nil {
		return nil, errors.Wrap(err, "request blocked by SSRF protection")
	}
	for k, vs := range c.defaultHeaders {
		if req.Header.Get(k) == "" {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
	}
	return c.Client.Do(req)
}

// isPrivateIP checks if an IP is in private/special use ranges.
func isPrivateIP(ip net.IP) bool {
	if ip4 := ip.To4(); ip4 != nil {
		privateBlocks := []net.IPNet{
			{IP: net.IPv4(10, 0, 0, 0), Mask: net.CIDRMask(8, 32)},     // 10.0.0.0/8
			{IP: net.IPv4(172, 16, 0, 0), Mask: net.CIDRMask(12, 32)},  // 172.16.0.0/12
			{IP: net.IPv4(192, 168, 0, 0), Mask: net.CIDRMask(16, 32)}, // 192.168.0.0/16
			{IP: net.IPv4(127, 0, 0, 0), Mask: net.CIDRMask(8, 32)},    // loopback
			{IP: net.IPv4(169, 254, 0, 0), Mask: net.CIDRMask(16, 32)}, // link-local
			{IP: net.IPv4(0, 0, 0, 0), Mask: net.CIDRMask(8, 32)},
			{IP: net.IPv4(224, 0, 0, 0), Mask: net.CIDRMask(4, 32)}, // multicast
			{IP: net.IPv4(240, 0, 0, 0), Mask: net.CIDRMask(4, 32)}, // reserved
		}
		for _, block := range privateBlocks {
			if block.Contains(ip4) {
				return true
			}
		}
		return false
	}

	if len(ip) == net.IPv6len {
		if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsMulticast() || ip.IsUnspecified() {
			return true
		}
		// Unique local addresses (fc00::/7), the IPv6 RFC 1918 equivalent
		if (ip[0] & 0xfe) == 0xfc {
			return true
		}
		// Site-local (fec0::/10), deprecated but still blocked
		if ip[0] == 0xfe && (ip[1]&0xc0) == 0xc0 {
			return true
		}
	}

	return false
}

// isLocalhost checks for localhost variants.
func isLocalhost(hostname string) bool {
	hostname = strings.ToLower(hostname)
	return hostname == "localhost" ||
		hostname == "localhost.localdomain" ||
		strings.HasSuffix(hostname, ".localhost")
}

// WrapClient wraps an existing http.Client in a SaferClient without SSRF protection.
// Only use this in tests where you need httptest.NewServer on localhost.
func WrapClient(client *http.Client) *SaferClient {
	return &SaferClient{
		Client:         client,
		allowedSchemes: []string{"http", "https"},
		blockPrivateIP: false,
		maxRedirects:   10,
	}
}
