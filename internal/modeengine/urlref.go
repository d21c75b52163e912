package modeengine

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/atreides/aniwatch/internal/models"
)

var (
	staffelEpisodeRe = regexp.MustCompile(`/staffel-(\d+)/episode-(\d+)`)
	filmRe           = regexp.MustCompile(`/filme/film-(\d+)`)
)

// parseEpisodeRef recovers (season, episode, isFilm) from one of the
// URL shapes urls.go synthesizes, for entries stored in a series'
// missing-German list long after the listing page that produced them
// is gone.
func parseEpisodeRef(url string) (models.SeasonKey, int, bool, error) {
	if m := staffelEpisodeRe.FindStringSubmatch(url); m != nil {
		season, _ := strconv.Atoi(m[1])
		episode, _ := strconv.Atoi(m[2])
		return models.SeasonKey{Number: season}, episode, false, nil
	}
	if m := filmRe.FindStringSubmatch(url); m != nil {
		n, _ := strconv.Atoi(m[1])
		return models.SeasonKey{IsFilme: true}, n, true, nil
	}
	return models.SeasonKey{}, 0, false, fmt.Errorf("modeengine: unrecognized episode URL %q", url)
}
