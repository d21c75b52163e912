package layout

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/atreides/aniwatch/internal/models"
)

// ErrFreshFileNotFound is returned by RenameDownloaded when none of the
// downloader's own naming patterns matched anything under the series
// folder.
var ErrFreshFileNotFound = errors.New("layout: no freshly downloaded file found")

// maxPath mirrors Windows' legacy MAX_PATH; titles are truncated to
// keep the full destination path under it.
const maxPath = 260

// freshFilePatterns returns the naming patterns the external
// downloader itself emits, before this system renames the file into
// its canonical form.
func freshFilePatterns(t Target) []string {
	if t.IsFilm {
		return []string{
			fmt.Sprintf("Movie %d", t.Episode),
			fmt.Sprintf("Movie %02d", t.Episode),
		}
	}
	return []string{
		fmt.Sprintf("Episode %d", t.Episode),
		fmt.Sprintf("Episode %02d", t.Episode),
	}
}

// RenameDownloaded implements rename_downloaded: locate the
// freshly downloaded file, compute its destination, truncate the title
// if needed, and move it into place.
func RenameDownloaded(t Target, title string, lang models.Language) (string, error) {
	found := searchAnyVariant(t.SeriesFolder, freshFilePatterns(t))
	if found == "" {
		return "", ErrFreshFileNotFound
	}

	cleanTitle := SanitizeTitle(title)
	destDir := destinationDir(t, cleanTitle)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("layout: mkdir %s: %w", destDir, err)
	}

	name := buildFileNameFit(destDir, t, cleanTitle, lang)
	dest := filepath.Join(destDir, name)
	if err := os.Rename(found, dest); err != nil {
		return "", fmt.Errorf("layout: move %s -> %s: %w", found, dest, err)
	}

	if t.IsFilm && t.Dedicated {
		removeIfEmpty(t.SeriesFolder)
	}
	return dest, nil
}

func destinationDir(t Target, title string) string {
	if t.IsFilm {
		if t.Dedicated {
			if title != "" {
				return filepath.Join(filepath.Dir(t.SeriesFolder), SanitizeFolderName(title))
			}
			return filepath.Join(t.SeriesFolder, fmt.Sprintf("Film%02d", t.Episode))
		}
		return filepath.Join(t.SeriesFolder, "Filme")
	}
	return filepath.Join(t.SeriesFolder, fmt.Sprintf("Staffel %d", t.Season.Number))
}

// buildFileName produces the canonical `{stem}[ - {title}][ {suffix}].mp4`
// name for a placed file.
func buildFileName(t Target, title string, lang models.Language) string {
	var stem string
	if t.IsFilm {
		stem = fmt.Sprintf("Film%02d", t.Episode)
		if t.Dedicated {
			stem = SanitizeFolderName(t.SeriesTitle) + " - " + stem
		}
	} else {
		stem = episodePattern(t.Season.Number, t.Episode)
	}
	if title != "" {
		stem += " - " + title
	}
	if suffix := lang.Suffix(); suffix != "" {
		stem += " " + suffix
	}
	return stem + ".mp4"
}

// buildFileNameFit truncates title, if necessary, so the full
// destination path (destDir + separator + filename) stays under
// maxPath, reserving room for the stem, language suffix, and extension.
func buildFileNameFit(destDir string, t Target, title string, lang models.Language) string {
	name := buildFileName(t, title, lang)
	overflow := len(destDir) + 1 + len(name) - maxPath
	if overflow <= 0 || title == "" {
		return name
	}

	keep := len(title) - overflow
	if keep < 0 {
		keep = 0
	}
	truncated := title
	if keep < len(title) {
		truncated = trimToRuneBoundary(title, keep)
	}
	return buildFileName(t, truncated, lang)
}

func trimToRuneBoundary(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if n >= len(s) {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func removeIfEmpty(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 0 {
		return
	}
	_ = os.Remove(dir)
}
