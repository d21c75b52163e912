package scraper

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/atreides/aniwatch/internal/dnsresolve"
)

const requestTimeout = 8 * time.Second

// userAgents is a small fixed rotation pool, picked per request in
// place of process-wide header state.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

func randomUserAgent() string {
	return userAgents[rand.IntN(len(userAgents))]
}

// httpClient wraps an *http.Client scoped to DoH resolution for the
// given hosts, grounded on alvarorichard-GoAnime's AnimefireClient
// shape (one client struct, one decorateRequest helper) but rebuilt
// around this service's DNS-override requirement.
type httpClient struct {
	client *http.Client
}

func newHTTPClient(hosts ...string) *httpClient {
	return &httpClient{
		client: &http.Client{
			Timeout:   requestTimeout,
			Transport: dnsresolve.NewScopedTransport(hosts...),
		},
	}
}

// newHTTPClientWithClient lets tests substitute an httptest-backed
// *http.Client with no DNS override involved.
func newHTTPClientWithClient(c *http.Client) *httpClient {
	return &httpClient{client: c}
}

func (c *httpClient) getDocument(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := c.getBody(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return goquery.NewDocumentFromReader(body)
}

func (c *httpClient) getBody(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.decorate(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scraper: GET %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("scraper: GET %s: status %s", url, resp.Status)
	}
	return resp.Body, nil
}

func (c *httpClient) postForm(ctx context.Context, target string, form map[string]string) (io.ReadCloser, error) {
	values := url.Values{}
	for k, v := range form {
		values.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.decorate(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scraper: POST %s: %w", target, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("scraper: POST %s: status %s", target, resp.Status)
	}
	return resp.Body, nil
}

func (c *httpClient) decorate(req *http.Request) {
	req.Header.Set("User-Agent", randomUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "de-DE,de;q=0.9,en;q=0.8")
}
