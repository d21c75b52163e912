package scraper

import (
	"net/url"
	"strings"

	"github.com/atreides/aniwatch/internal/models"
)

// SiteForURL derives the Site a series URL belongs to from its host,
// the same classification upsert_series applies to every
// externally-supplied link (/export, /add_link, /upload_txt).
func SiteForURL(rawURL string) (models.Site, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	switch {
	case strings.Contains(host, "aniworld.to"):
		return models.SiteAniworld, true
	case strings.Contains(host, "s.to"):
		return models.SiteSTo, true
	default:
		return "", false
	}
}
