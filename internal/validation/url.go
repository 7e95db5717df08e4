// Package validation checks user-supplied API base URLs and search
// identifiers before they leave the machine.
//
// Base URLs must use https. Plain http is accepted only for loopback hosts so a
// local mock server can stand in for the API. Private ranges are refused unless
// OSINT_ALLOW_PRIVATE is set (any strconv.ParseBool true value) or
// SetAllowPrivate(true) is called; cloud metadata endpoints are always refused.
package validation

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// EnvAllowPrivate permits private network base URLs when true.
const EnvAllowPrivate = "OSINT_ALLOW_PRIVATE"

var allowPrivate atomic.Bool

var privateNetworks []*net.IPNet

func init() {
	v, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv(EnvAllowPrivate)))
	allowPrivate.Store(v)

	for _, cidr := range []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"100.64.0.0/10",
		"169.254.0.0/16",
		"fc00::/7",
		"fe80::/10",
	} {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		privateNetworks = append(privateNetworks, network)
	}
}

// SetAllowPrivate toggles acceptance of private network base URLs.
func SetAllowPrivate(enabled bool) {
	allowPrivate.Store(enabled)
}

// ValidateBaseURL checks an API base URL. It returns nil when the URL may be
// used to send the API key.
func ValidateBaseURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("URL cannot be empty")
	}
	if len(rawURL) > MaxURLLength {
		return fmt.Errorf("URL exceeds maximum length of %d characters", MaxURLLength)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	hostname := parsed.Hostname()
	if hostname == "" {
		return fmt.Errorf("URL must contain a hostname")
	}
	if parsed.User != nil {
		return fmt.Errorf("URL must not contain credentials")
	}
	if isCloudMetadata(hostname) {
		return fmt.Errorf("cloud metadata endpoints are not allowed")
	}

	loopback := isLoopback(hostname)
	switch parsed.Scheme {
	case "https":
	case "http":
		if !loopback {
			return fmt.Errorf("plain http is only allowed for loopback hosts, use https")
		}
	default:
		return fmt.Errorf("invalid URL scheme: only https is allowed, got %q", parsed.Scheme)
	}
	if loopback {
		return nil
	}

	if ip := net.ParseIP(hostname); ip != nil {
		return validateIP(ip)
	}
	return validateDomain(hostname)
}

func isLoopback(hostname string) bool {
	h := strings.ToLower(hostname)
	if h == "localhost" || strings.HasSuffix(h, ".localhost") {
		return true
	}
	ip := net.ParseIP(h)
	return ip != nil && ip.IsLoopback()
}

func isCloudMetadata(hostname string) bool {
	switch strings.ToLower(hostname) {
	case "169.254.169.254", "metadata.google.internal", "metadata", "instance-data", "fd00:ec2::254":
		return true
	}
	return strings.HasSuffix(strings.ToLower(hostname), ".metadata.google.internal")
}

func validateIP(ip net.IP) error {
	if ip.Equal(net.IPv4(169, 254, 169, 254)) {
		return fmt.Errorf("cloud metadata IP address is not allowed")
	}
	if ip.IsUnspecified() {
		return fmt.Errorf("unspecified IP addresses are not allowed")
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return fmt.Errorf("link-local IP addresses are not allowed")
	}
	if !allowPrivate.Load() && isPrivateIP(ip) {
		return fmt.Errorf("private IP addresses are not allowed (set OSINT_ALLOW_PRIVATE=1 to permit)")
	}
	return nil
}

func isPrivateIP(ip net.IP) bool {
	for _, network := range privateNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// validateDomain resolves hostname and checks every address. Names that do not
// resolve are let through; the request itself will fail.
func validateDomain(hostname string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ips, err := net.DefaultResolver.LookupIP(ctx, "ip", hostname)
	if err != nil {
		return nil
	}
	for _, ip := range ips {
		if ip.IsLoopback() {
			continue
		}
		if err := validateIP(ip); err != nil {
			return fmt.Errorf("domain %q resolves to forbidden IP %s: %w", hostname, ip, err)
		}
	}
	return nil
}
