package search

import (
	"context"
	"io"

	"github.com/atreides/aniwatch/internal/models"
)

const aniworldSearchURL = "https://aniworld.to/ajax/search"

type aniworldSearchResult struct {
	Title string `json:"title"`
	Link  string `json:"link"`
	Cover string `json:"cover"`
	Year  string `json:"productionYear"`
}

type aniworldSearchClient struct {
	http *searchHTTPClient
}

func newAniworldSearchClient() *aniworldSearchClient {
	return &aniworldSearchClient{http: newSearchHTTPClient("aniworld.to")}
}

func (c *aniworldSearchClient) Search(ctx context.Context, keyword string) ([]Result, error) {
	body, err := c.http.postForm(ctx, aniworldSearchURL, map[string]string{"keyword": keyword})
	if err != nil {
		return nil, err
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	var parsed []aniworldSearchResult
	if err := unmarshalTolerant(raw, &parsed); err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(parsed))
	for _, r := range parsed {
		if r.Link == "" {
			continue
		}
		out = append(out, Result{
			Title:    r.Title,
			URL:      "https://aniworld.to/anime/stream/" + r.Link,
			Cover:    r.Cover,
			Year:     r.Year,
			Provider: models.SiteAniworld,
		})
	}
	return out, nil
}
