package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSearchTestServer(t *testing.T, path, body string) (*httptest.Server, *searchHTTPClient) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, newSearchHTTPClientWithClient(&http.Client{Transport: rewriteTransport{host: srv.Listener.Addr().String()}})
}

// rewriteTransport sends every request to the test server, whatever
// host the client under test addressed it to.
type rewriteTransport struct{ host string }

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = "http"
	out.URL.Host = rt.host
	return http.DefaultTransport.RoundTrip(out)
}

func TestRepairTruncatedJSON_ClosesUnbalancedObjectAndArray(t *testing.T) {
	truncated := `[{"title":"Demo","link":"demo-show"},{"title":"Other","link":"oth`
	repaired := repairTruncatedJSON([]byte(truncated))

	var out []aniworldSearchResult
	require.NoError(t, json.Unmarshal(repaired, &out))
	require.Len(t, out, 2)
	assert.Equal(t, "Demo", out[0].Title)
}

func TestRepairTruncatedJSON_TrimsTrailingComma(t *testing.T) {
	truncated := `[{"title":"Demo","link":"demo-show"},`
	repaired := repairTruncatedJSON([]byte(truncated))

	var out []aniworldSearchResult
	require.NoError(t, json.Unmarshal(repaired, &out))
	require.Len(t, out, 1)
}

func TestUnmarshalTolerant_FallsBackOnlyWhenNeeded(t *testing.T) {
	var out []aniworldSearchResult
	require.NoError(t, unmarshalTolerant([]byte(`[{"title":"Demo","link":"demo-show"}]`), &out))
	require.Len(t, out, 1)

	out = nil
	require.NoError(t, unmarshalTolerant([]byte(`[{"title":"Demo","link":"demo-show"}`), &out))
	require.Len(t, out, 1)
}

func TestUnmarshalTolerant_StillFailsOnGarbage(t *testing.T) {
	var out []aniworldSearchResult
	err := unmarshalTolerant([]byte(`not json at all`), &out)
	assert.Error(t, err)
}

func TestAniworldSearchClient_Search(t *testing.T) {
	_, client := newSearchTestServer(t, "/ajax/search", `[{"title":"Demo Show","link":"demo-show","cover":"/cover.jpg","productionYear":"2020"}]`)
	c := &aniworldSearchClient{http: client}

	results, err := c.Search(context.Background(), "demo")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Demo Show", results[0].Title)
	assert.Equal(t, "https://aniworld.to/anime/stream/demo-show", results[0].URL)

}

func TestAniworldSearchClient_Search_TruncatedResponse(t *testing.T) {
	_, client := newSearchTestServer(t, "/ajax/search", `[{"title":"Demo Show","link":"demo-show"},{"title":"Cut Off","link":"cut`)
	c := &aniworldSearchClient{http: client}

	results, err := c.Search(context.Background(), "demo")
	require.NoError(t, err)
	require.Len(t, results, 2)

}

func TestSToSearchClient_Search(t *testing.T) {
	_, client := newSearchTestServer(t, "/api/search/suggest", `{"shows":[{"name":"Demo Show","url":"/serie/stream/demo-show"}]}`)
	c := &sToSearchClient{http: client}

	results, err := c.Search(context.Background(), "demo")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://s.to/serie/demo-show", results[0].URL)

}

func TestNormalizeSToLink(t *testing.T) {
	assert.Equal(t, "/serie/demo-show", normalizeSToLink("/serie/stream/demo-show"))
	assert.Equal(t, "/serie/demo-show", normalizeSToLink("/serie/demo-show/staffel-1"))
	assert.Equal(t, "", normalizeSToLink("/anime/stream/demo-show"))
	assert.Equal(t, "", normalizeSToLink(""))
}

type fakeSearcher struct {
	results []Result
	err     error
}

func (f *fakeSearcher) Search(ctx context.Context, keyword string) ([]Result, error) {
	return f.results, f.err
}

func TestProviders_Search_TolerantOfOneFailure(t *testing.T) {
	p := &Providers{
		aniworld: &fakeSearcher{results: []Result{{Title: "A"}}},
		sTo:      &fakeSearcher{err: assert.AnError},
	}

	results := p.Search(context.Background(), "demo")
	require.Len(t, results, 1)
	assert.Equal(t, "A", results[0].Title)
}

func TestProviders_Search_MergesBoth(t *testing.T) {
	p := &Providers{
		aniworld: &fakeSearcher{results: []Result{{Title: "A"}}},
		sTo:      &fakeSearcher{results: []Result{{Title: "B"}}},
	}

	results := p.Search(context.Background(), "demo")
	require.Len(t, results, 2)
}
