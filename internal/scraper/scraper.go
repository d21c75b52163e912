// Package scraper reads series/season/episode/language data from
// aniworld.to and s.to. It never writes to disk
// and never invokes the downloader; every call makes synchronous HTTP
// requests (one, except s.to's EpisodeTitle, which fetches the page a
// second time to read its languages) with no retry at this layer —
// failures surface to the caller, which is the pipeline's job to
// interpret.
package scraper

import (
	"context"

	"github.com/atreides/aniwatch/internal/models"
)

// Scraper is the shape grounded on Wraient-pair/pkg/scraper's
// interface style, generalized from one site to the two this service
// supports.
type Scraper interface {
	SeriesTitle(ctx context.Context, seriesURL string) (string, error)
	SeasonNumbers(ctx context.Context, seriesURL string) ([]models.SeasonKey, error)
	Episodes(ctx context.Context, seriesURL string, season models.SeasonKey) ([]models.EpisodeRef, error)
	Languages(ctx context.Context, episodeURL string) (models.LanguageSet, error)
	EpisodeTitle(ctx context.Context, episodeURL string, preferEnglish bool) (string, error)

	// EpisodeURL and FilmURL synthesize a navigable URL for an
	// episode/film number the mode engine hasn't scraped a listing
	// page for yet — probing sequential numbers past the end of a
	// season relies on these rather than Episodes.
	EpisodeURL(seriesURL string, season models.SeasonKey, number int) string
	FilmURL(seriesURL string, number int) string
}

// ForSite returns the Scraper implementation for site.
func ForSite(site models.Site) Scraper {
	if site == models.SiteAniworld {
		return NewAniworldScraper()
	}
	return NewSToScraper()
}
