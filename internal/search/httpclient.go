package search

import (
	"context"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/atreides/aniwatch/internal/dnsresolve"
)

const searchRequestTimeout = 8 * time.Second

var searchUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

// searchHTTPClient is the search package's own small client helper,
// kept separate from internal/scraper's httpClient since the two
// packages are never imported into each other and each should carry
// its own DoH-scoped transport per call site.
type searchHTTPClient struct {
	client *http.Client
}

func newSearchHTTPClient(hosts ...string) *searchHTTPClient {
	return &searchHTTPClient{
		client: &http.Client{
			Timeout:   searchRequestTimeout,
			Transport: dnsresolve.NewScopedTransport(hosts...),
		},
	}
}

func newSearchHTTPClientWithClient(c *http.Client) *searchHTTPClient {
	return &searchHTTPClient{client: c}
}

func (c *searchHTTPClient) decorate(req *http.Request) {
	req.Header.Set("User-Agent", searchUserAgents[rand.IntN(len(searchUserAgents))])
	req.Header.Set("Accept", "application/json, text/plain, */*")
}

func (c *searchHTTPClient) postForm(ctx context.Context, target string, form map[string]string) (io.ReadCloser, error) {
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
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errStatus(target, resp.Status)
	}
	return resp.Body, nil
}

func (c *searchHTTPClient) getWithQuery(ctx context.Context, target string, params map[string]string) (io.ReadCloser, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	c.decorate(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errStatus(target, resp.Status)
	}
	return resp.Body, nil
}

type statusError struct {
	url    string
	status string
}

func (e *statusError) Error() string {
	return "search: " + e.url + ": " + e.status
}

func errStatus(url, status string) error {
	return &statusError{url: url, status: status}
}
