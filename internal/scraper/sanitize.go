package scraper

import (
	"regexp"
	"strings"
)

var scraperForbiddenChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// sanitizeFolderTitle cleans a scraped series title; unlike episode
// titles, series folder names keep their dots.
func sanitizeFolderTitle(title string) string {
	cleaned := scraperForbiddenChars.ReplaceAllString(title, "")
	return strings.Join(strings.Fields(cleaned), " ")
}

// sanitizeEpisodeTitle cleans a scraped episode title for later
// filesystem placement by internal/layout.
func sanitizeEpisodeTitle(title string) string {
	cleaned := scraperForbiddenChars.ReplaceAllString(title, "")
	return strings.Join(strings.Fields(cleaned), " ")
}
