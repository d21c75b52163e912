package layout

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/atreides/aniwatch/internal/models"
)

// Target fully describes one episode or film's place in the tree, the
// shared argument shape for AlreadyDownloaded, RenameDownloaded, and
// DeleteDowngrades.
type Target struct {
	SeriesFolder string
	SeriesTitle  string
	Season       models.SeasonKey
	Episode      int
	IsFilm       bool
	Dedicated    bool
}

// siblingVariants returns folder plus its `.`↔`#` sibling variant:
// both forms appear on disk from older, inconsistent sanitization.
// This is the one call site; removing the legacy tolerance later means
// deleting this function's body down to `return []string{folder}`.
func siblingVariants(folder string) []string {
	variants := []string{folder}
	base := filepath.Base(folder)
	parent := filepath.Dir(folder)

	if strings.Contains(base, ".") {
		variants = append(variants, filepath.Join(parent, strings.ReplaceAll(base, ".", "#")))
	}
	if strings.Contains(base, "#") {
		variants = append(variants, filepath.Join(parent, strings.ReplaceAll(base, "#", ".")))
	}
	return variants
}

// searchDir walks dir recursively for a .mp4 whose name contains any of
// patterns, case-insensitively. A missing dir is not an error.
func searchDir(dir string, patterns []string) string {
	var found string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if found != "" {
				return filepath.SkipAll
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".mp4") {
			return nil
		}
		name := d.Name()
		for _, p := range patterns {
			if containsFold(name, p) {
				found = path
				return filepath.SkipAll
			}
		}
		return nil
	})
	return found
}

func searchAnyVariant(folder string, patterns []string) string {
	for _, dir := range siblingVariants(folder) {
		if f := searchDir(dir, patterns); f != "" {
			return f
		}
	}
	return ""
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// episodePattern is the S{NN}E{NNN} marker embedded in every episode
// filename this system produces.
func episodePattern(season, episode int) string {
	return fmt.Sprintf("S%02dE%03d", season, episode)
}

func filmPatterns(n int) []string {
	return []string{fmt.Sprintf("Film%02d", n), fmt.Sprintf("Movie%02d", n)}
}

func dedicatedFilmPatterns(seriesTitle string, n int) []string {
	return []string{fmt.Sprintf("%s - Film%02d", seriesTitle, n), fmt.Sprintf("Movie%02d", n)}
}

// AlreadyDownloaded implements already_downloaded: a
// recursive, sibling-tolerant search for a placed .mp4 matching t.
func AlreadyDownloaded(t Target) bool {
	return findExisting(t) != ""
}

// FindExisting returns the path of the placed .mp4 matching t, or ""
// if none was found yet.
func FindExisting(t Target) string {
	return findExisting(t)
}

func findExisting(t Target) string {
	if t.IsFilm && t.Dedicated {
		parent := filepath.Dir(t.SeriesFolder)
		return searchAnyVariant(parent, dedicatedFilmPatterns(t.SeriesTitle, t.Episode))
	}
	if t.IsFilm {
		return searchAnyVariant(t.SeriesFolder, filmPatterns(t.Episode))
	}
	return searchAnyVariant(t.SeriesFolder, []string{episodePattern(t.Season.Number, t.Episode)})
}

// ClassifyLanguage derives a placed file's Language from its filename.
func ClassifyLanguage(filename string) models.Language {
	return models.ClassifyLanguage(filepath.Base(filename))
}

// DeleteDowngrades removes .mp4s matching t's episode/film pattern that
// carry a non-German language suffix. Called only right after a fresh
// German file has been placed.
func DeleteDowngrades(t Target) error {
	patterns := matchPatterns(t)
	for _, dir := range candidateDirs(t) {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if !strings.EqualFold(filepath.Ext(path), ".mp4") {
				return nil
			}
			name := d.Name()
			matched := false
			for _, p := range patterns {
				if containsFold(name, p) {
					matched = true
					break
				}
			}
			if !matched {
				return nil
			}
			if ClassifyLanguage(name).IsGerman() {
				return nil
			}
			return os.Remove(path)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func matchPatterns(t Target) []string {
	if t.IsFilm && t.Dedicated {
		return dedicatedFilmPatterns(t.SeriesTitle, t.Episode)
	}
	if t.IsFilm {
		return filmPatterns(t.Episode)
	}
	return []string{episodePattern(t.Season.Number, t.Episode)}
}

func candidateDirs(t Target) []string {
	if t.IsFilm && t.Dedicated {
		return []string{filepath.Dir(t.SeriesFolder)}
	}
	return siblingVariants(t.SeriesFolder)
}
