package security

import (
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"maintenance/app/internal/ratelimit"
)

// MaxBodyBytes caps request bodies; the API only accepts small JSON documents.
const MaxBodyBytes = 1 << 20

// SecureHeaders adds security headers to responses
func SecureHeaders(next http.Handler) http.Handler {
	const csp = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'"
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
		w.Header().Set("Content-Security-Policy", csp)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		next.ServeHTTP(w, r)
	})
}

// RateLimit throttles clients per IP, as resolved by proxies, and answers
// exhausted buckets with a JSON 429. Every response carries the bucket state
// in X-RateLimit-Limit and X-RateLimit-Remaining.
func RateLimit(limiter *ratelimit.Limiter, proxies *ProxyTrust) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := limiter.Take(proxies.ClientIP(r))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if d.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			secs := int(math.Ceil(d.RetryAfter.Seconds()))
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": limiter.ErrorMessage()})
		})
	}
}

// ProxyTrust lists the reverse proxies whose X-Forwarded-For is believed.
// A nil *ProxyTrust trusts nobody.
type ProxyTrust struct {
	nets []*net.IPNet
}

// NewProxyTrust parses CIDRs or bare IPs. An empty list yields a ProxyTrust
// that trusts nobody.
func NewProxyTrust(entries []string) (*ProxyTrust, error) {
	p := &ProxyTrust{}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.Contains(e, "/") {
			ip := net.ParseIP(e)
			if ip == nil {
				return nil, fmt.Errorf("trusted proxy %q is not an IP or CIDR", e)
			}
			bits := 8 * net.IPv6len
			if ip4 := ip.To4(); ip4 != nil {
				ip, bits = ip4, 8*net.IPv4len
			}
			p.nets = append(p.nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(e)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
		}
		p.nets = append(p.nets, n)
	}
	return p, nil
}

func (p *ProxyTrust) trusts(addr string) bool {
	if p == nil {
		return false
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, n := range p.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP returns the peer address unless the peer is a trusted proxy. Then
// X-Forwarded-For is walked from the right and the first hop that is not a
// trusted proxy is the client.
func (p *ProxyTrust) ClientIP(r *http.Request) string {
	peer := remoteHost(r)
	if !p.trusts(peer) {
		return peer
	}

	xff := r.Header.Values("X-Forwarded-For")
	var hops []string
	for _, v := range xff {
		for _, h := range strings.Split(v, ",") {
			if h = strings.TrimSpace(h); h != "" {
				hops = append(hops, h)
			}
		}
	}
	for i := len(hops) - 1; i >= 0; i-- {
		if net.ParseIP(hops[i]) == nil {
			// garbage in the chain; nothing left of it can be trusted
			return peer
		}
		if !p.trusts(hops[i]) {
			return hops[i]
		}
	}
	if len(hops) > 0 {
		return hops[0]
	}
	return peer
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
