package catalog

import (
	"context"
	"log/slog"
	"strings"

	"github.com/atreides/aniwatch/internal/scraper"
)

// RefreshTitles implements refresh_titles_on_start: for every
// non-deleted series whose URL is a real link, re-scrape the series
// title and update the row if the site's listing page now shows a
// different one. Runs once at startup, never mid-pass.
func (s *Store) RefreshTitles(ctx context.Context, log *slog.Logger) int {
	updated := 0
	for _, ser := range s.ListSeries(ListFilter{}) {
		if !strings.HasPrefix(ser.URL, "https://") {
			continue
		}
		scr := scraper.ForSite(ser.Site)
		newTitle, err := scr.SeriesTitle(ctx, ser.URL)
		if err != nil || newTitle == "" || newTitle == ser.Title {
			if err != nil && log != nil {
				log.Warn("catalog: title refresh check failed", "series_id", ser.ID, "err", err)
			}
			continue
		}
		if !s.UpdateSeries(ser.ID, SeriesUpdate{Title: &newTitle}) {
			continue
		}
		updated++
		if log != nil {
			log.Info("catalog: title refreshed", "series_id", ser.ID, "old", ser.Title, "new", newTitle)
		}
	}
	return updated
}
