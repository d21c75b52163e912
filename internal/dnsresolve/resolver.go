// Package dnsresolve builds a per-request resolver/dialer that routes
// DNS for a fixed set of hosts through Cloudflare's DNS-over-HTTPS
// endpoint, instead of patching the process-wide resolver. Scoping the
// override to an http.Transport's DialContext keeps it local to the
// client that needs it, with no global mutation and no threading
// hazards.
package dnsresolve

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
)

// dohEndpoint is Cloudflare's DNS-over-HTTPS JSON API.
const dohEndpoint = "https://1.1.1.1/dns-query"

// ScopedDialer returns a DialContext function for http.Transport that
// resolves hosts in scopedHosts via Cloudflare DoH and dials every
// other host normally. It carries its own small in-memory cache so a
// burst of requests to the same host during one run doesn't re-query
// DoH each time; the cache has no relation to the process-global
// resolver and is safe to throw away (e.g. one per scraper instance).
type ScopedDialer struct {
	scopedHosts map[string]struct{}
	httpClient  *http.Client

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	ip        string
	expiresAt time.Time
}

const cacheTTL = 5 * time.Minute

// NewScopedDialer builds a dialer that resolves only the given
// hostnames through DoH; all other hosts use the default dialer.
func NewScopedDialer(hosts ...string) *ScopedDialer {
	scoped := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		scoped[strings.ToLower(h)] = struct{}{}
	}
	return &ScopedDialer{
		scopedHosts: scoped,
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		cache:       make(map[string]cacheEntry),
	}
}

// DialContext implements the signature expected by
// http.Transport.DialContext.
func (d *ScopedDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return (&net.Dialer{}).DialContext(ctx, network, addr)
	}

	if _, ok := d.scopedHosts[strings.ToLower(host)]; !ok {
		return (&net.Dialer{}).DialContext(ctx, network, addr)
	}

	ip, err := d.resolve(ctx, host)
	if err != nil {
		// Fall back to the ordinary resolver for this call only; a DoH
		// failure must never wedge the whole request path.
		return (&net.Dialer{}).DialContext(ctx, network, addr)
	}

	return (&net.Dialer{}).DialContext(ctx, network, net.JoinHostPort(ip, port))
}

func (d *ScopedDialer) resolve(ctx context.Context, host string) (string, error) {
	d.mu.Lock()
	if entry, ok := d.cache[host]; ok && time.Now().Before(entry.expiresAt) {
		d.mu.Unlock()
		return entry.ip, nil
	}
	d.mu.Unlock()

	// One retry only: a DoH lookup failing twice in a row means the
	// endpoint itself is down for this request, not a transient blip.
	ip, err := retry.DoWithData(
		func() (string, error) { return d.queryDoH(ctx, host) },
		retry.Attempts(2),
		retry.Delay(200*time.Millisecond),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", err
	}

	d.mu.Lock()
	d.cache[host] = cacheEntry{ip: ip, expiresAt: time.Now().Add(cacheTTL)}
	d.mu.Unlock()
	return ip, nil
}

type dohAnswer struct {
	Answer []struct {
		Data string `json:"data"`
		Type int    `json:"type"`
	} `json:"Answer"`
}

// queryDoH resolves host via Cloudflare's DoH JSON API, trying A first
// and falling back to AAAA if no A record answers.
func (d *ScopedDialer) queryDoH(ctx context.Context, host string) (string, error) {
	if ip, err := d.queryDoHType(ctx, host, "A", 1); err == nil {
		return ip, nil
	}
	if ip, err := d.queryDoHType(ctx, host, "AAAA", 28); err == nil {
		return ip, nil
	}
	return "", fmt.Errorf("dnsresolve: no A or AAAA record for %s", host)
}

func (d *ScopedDialer) queryDoHType(ctx context.Context, host, rrtype string, wantType int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dohEndpoint, nil)
	if err != nil {
		return "", err
	}
	q := req.URL.Query()
	q.Set("name", host)
	q.Set("type", rrtype)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("accept", "application/dns-json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("dnsresolve: doh request for %s: %w", host, err)
	}
	defer resp.Body.Close()

	var parsed dohAnswer
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("dnsresolve: decode doh response for %s: %w", host, err)
	}
	for _, a := range parsed.Answer {
		if a.Type == wantType && a.Data != "" {
			return a.Data, nil
		}
	}
	return "", fmt.Errorf("dnsresolve: no %s record for %s", rrtype, host)
}

// NewScopedTransport returns an *http.Transport whose DialContext
// routes the given hosts through Cloudflare DoH, safe to attach to an
// *http.Client used for exactly those hosts.
func NewScopedTransport(hosts ...string) *http.Transport {
	dialer := NewScopedDialer(hosts...)
	return &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}
