// Package urlcheck validates URLs before the crawler is pointed at them:
// scheme allow-listing and SSRF prevention (private/loopback targets).
package urlcheck

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ErrSSRF is returned when a URL targets a private or loopback address.
var ErrSSRF = errors.New("urlcheck: URL targets a private or loopback address")

// ErrUnsafeScheme is returned when a URL uses a non-HTTP(S) scheme.
var ErrUnsafeScheme = errors.New("urlcheck: only http and https schemes are allowed")

// Validate checks that rawURL uses http/https, has a hostname, and does not
// resolve to a private or loopback IP. DNS resolution is performed to catch
// internal hostnames that alias private addresses.
func Validate(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("urlcheck: invalid URL: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ErrUnsafeScheme
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("urlcheck: URL has no host")
	}

	// Literal IP first.
	if ip := net.ParseIP(host); ip != nil {
		if isPrivateIP(ip) {
			return ErrSSRF
		}
		return nil
	}

	addrs, err := net.LookupHost(host)
	if err != nil {
		// DNS failure — allow through; the crawler will surface a network
		// error at navigation time anyway.
		return nil
	}
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil && isPrivateIP(ip) {
			return ErrSSRF
		}
	}
	return nil
}

// ValidateLoose is Validate without the private-address check. Used when the
// target is expected to be a local or staging deployment of the crawled site.
func ValidateLoose(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("urlcheck: invalid URL: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ErrUnsafeScheme
	}
	if u.Hostname() == "" {
		return fmt.Errorf("urlcheck: URL has no host")
	}
	return nil
}

var privateCIDRs = func() []*net.IPNet {
	ranges := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"169.254.0.0/16",
		"fc00::/7",
		"::1/128",
	}
	nets := make([]*net.IPNet, 0, len(ranges))
	for _, r := range ranges {
		_, cidr, err := net.ParseCIDR(r)
		if err != nil {
			continue
		}
		nets = append(nets, cidr)
	}
	return nets
}()

func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}
	for _, cidr := range privateCIDRs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}
