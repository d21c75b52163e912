package models

import "strconv"

// EpisodeRef identifies one episode or movie within a season as
// returned by the scraper: a number and the canonical URL the URL
// builder synthesized for it.
type EpisodeRef struct {
	Number int
	URL    string
}

// SeasonKey identifies a season, canonicalizing the "season 0 vs the
// string 'filme'" ambiguity present in the source material into one
// representation used everywhere past the scraper boundary.
type SeasonKey struct {
	Number  int
	IsFilme bool
}

func (k SeasonKey) String() string {
	if k.IsFilme {
		return "filme"
	}
	return strconv.Itoa(k.Number)
}
