package unfurl

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"
)

// isBlockedHost reports whether host is a literal loopback, private or
// link-local address, or localhost.
func isBlockedHost(host string) bool {
	host = strings.ToLower(host)
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && isBlockedIP(ip)
}

func isBlockedIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()
}

// guardDial runs after DNS resolution, so address is always the IP about to
// be connected to. Names that resolve to internal addresses stop here.
func guardDial(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedHost, address)
	}
	ip := net.ParseIP(host)
	if ip == nil || isBlockedIP(ip) {
		return fmt.Errorf("%w: %s", ErrBlockedHost, host)
	}
	return nil
}

// checkRedirect refuses redirects whose target names an internal host.
// Resolved addresses are still checked by guardDial.
func checkRedirect(req *http.Request, _ []*http.Request) error {
	if isBlockedHost(req.URL.Hostname()) {
		return fmt.Errorf("%w: redirect to %s", ErrBlockedHost, req.URL.Hostname())
	}
	return nil
}

// newGuardedTransport dials only public addresses. It ignores proxy
// settings so the dial guard always sees the target address.
func newGuardedTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   guardDial,
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	return transport
}
