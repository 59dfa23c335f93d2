package httpserver

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"rentalcore/internal/httpx"
)

// clientLimiter keeps one token bucket per client key. Idle buckets are
// dropped after ttl.
type clientLimiter struct {
	trusted []netip.Prefix

	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
	entries   map[string]*bucket
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newClientLimiter(limit rate.Limit, burst int, ttl time.Duration, trusted []netip.Prefix) *clientLimiter {
	return &clientLimiter{
		trusted: trusted,
		limit:   limit,
		burst:   burst,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*bucket),
	}
}

func (c *clientLimiter) allow(key string) bool {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.entries[key]
	if b == nil {
		b = &bucket{lim: rate.NewLimiter(c.limit, c.burst)}
		c.entries[key] = b
	}
	b.lastSeen = now

	if now.Sub(c.lastSweep) > c.ttl {
		for k, v := range c.entries {
			if now.Sub(v.lastSeen) > c.ttl {
				delete(c.entries, k)
			}
		}
		c.lastSweep = now
	}
	return b.lim.AllowN(now, 1)
}

// retryAfter is the whole number of seconds until one token refills.
func (c *clientLimiter) retryAfter() int {
	if c.limit <= 0 || c.limit == rate.Inf {
		return 1
	}
	return int(math.Max(1, math.Ceil(1/float64(c.limit))))
}

func (c *clientLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !c.allow(clientIP(r, c.trusted)) {
			w.Header().Set("Retry-After", strconv.Itoa(c.retryAfter()))
			httpx.WriteError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ParseTrustedProxies accepts CIDRs and bare addresses.
func ParseTrustedProxies(entries []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
			}
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
		}
		out = append(out, netip.PrefixFrom(a.Unmap(), a.Unmap().BitLen()))
	}
	return out, nil
}

func isTrusted(addr string, trusted []netip.Prefix) bool {
	a, err := netip.ParseAddr(addr)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, p := range trusted {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

// clientIP keys on the peer address. X-Forwarded-For is consulted only when
// the peer is a trusted proxy, and then the rightmost untrusted hop wins.
func clientIP(r *http.Request, trusted []netip.Prefix) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || peer == "" {
		peer = r.RemoteAddr
	}
	if !isTrusted(peer, trusted) {
		return peer
	}
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !isTrusted(hop, trusted) {
			return hop
		}
	}
	return peer
}
