package scraper

import (
	"fmt"

	"github.com/atreides/aniwatch/internal/models"
)

// Episode URLs are synthesized, not scraped, so template drift in the
// origin HTML never breaks URL construction.

func aniworldSeasonURL(seriesURL string, season models.SeasonKey) string {
	if season.IsFilme {
		return seriesURL + "/filme"
	}
	return fmt.Sprintf("%s/staffel-%d", seriesURL, season.Number)
}

func aniworldEpisodeURL(seriesURL string, season models.SeasonKey, number int) string {
	if season.IsFilme {
		return fmt.Sprintf("%s/filme/film-%d", seriesURL, number)
	}
	return fmt.Sprintf("%s/staffel-%d/episode-%d", seriesURL, season.Number, number)
}

func aniworldFilmURL(seriesURL string, number int) string {
	return fmt.Sprintf("%s/filme/film-%d", seriesURL, number)
}

func sToSeasonURL(seriesURL string, season models.SeasonKey) string {
	if season.IsFilme {
		return seriesURL + "/filme"
	}
	return fmt.Sprintf("%s/staffel-%d", seriesURL, season.Number)
}

func sToEpisodeURL(seriesURL string, season models.SeasonKey, number int) string {
	if season.IsFilme {
		return fmt.Sprintf("%s/filme/film-%d", seriesURL, number)
	}
	return fmt.Sprintf("%s/staffel-%d/episode-%d", seriesURL, season.Number, number)
}
