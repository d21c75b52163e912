package search

import (
	"context"
	"io"
	"strings"

	"github.com/atreides/aniwatch/internal/models"
)

const sToSearchURL = "https://s.to/api/search/suggest"

type sToSearchResponse struct {
	Shows []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"shows"`
}

type sToSearchClient struct {
	http *searchHTTPClient
}

func newSToSearchClient() *sToSearchClient {
	return &sToSearchClient{http: newSearchHTTPClient("s.to")}
}

func (c *sToSearchClient) Search(ctx context.Context, keyword string) ([]Result, error) {
	body, err := c.http.getWithQuery(ctx, sToSearchURL, map[string]string{"term": keyword})
	if err != nil {
		return nil, err
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	var parsed sToSearchResponse
	if err := unmarshalTolerant(raw, &parsed); err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(parsed.Shows))
	for _, show := range parsed.Shows {
		link := normalizeSToLink(show.URL)
		if link == "" {
			continue
		}
		out = append(out, Result{
			Title:    show.Name,
			URL:      "https://s.to" + link,
			Provider: models.SiteSTo,
		})
	}
	return out, nil
}

// normalizeSToLink collapses both `/serie/stream/<slug>` and
// `/serie/<slug>[/extra]` forms returned by this endpoint down to the
// canonical `/serie/<slug>`.
func normalizeSToLink(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	if strings.HasPrefix(link, "/serie/stream/") {
		slug := strings.Trim(strings.TrimPrefix(link, "/serie/stream/"), "/")
		if slug == "" {
			return ""
		}
		return "/serie/" + slug
	}
	if strings.HasPrefix(link, "/serie/") {
		slug := strings.Trim(strings.TrimPrefix(link, "/serie/"), "/")
		slug = strings.SplitN(slug, "/", 2)[0]
		if slug == "" {
			return ""
		}
		return "/serie/" + slug
	}
	return ""
}
