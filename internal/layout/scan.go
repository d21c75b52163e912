package layout

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/atreides/aniwatch/internal/models"
)

// PlacedFile is one .mp4 this system has already put on disk, as
// discovered by Scan.
type PlacedFile struct {
	Path     string
	Season   models.SeasonKey
	Episode  int
	IsFilm   bool
	Language models.Language
}

var (
	episodeFileRe = regexp.MustCompile(`^S(\d{2})E(\d{3})`)
	filmFileRe    = regexp.MustCompile(`^(?:Film|Movie)\s*(\d{2})`)
)

// Scan walks seriesFolder (and its `.`/`#` sibling) for every placed
// episode and film, parsing season/episode/language back out of the
// canonical filename. A missing directory yields an empty result, not
// an error. Used by the full-audit traversal and by the on-disk counts
// endpoint; it never touches a dedicated-movies root, since those live
// outside seriesFolder entirely.
func Scan(seriesFolder string) []PlacedFile {
	var out []PlacedFile
	for _, dir := range siblingVariants(seriesFolder) {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if !strings.EqualFold(filepath.Ext(path), ".mp4") {
				return nil
			}
			name := d.Name()
			lang := ClassifyLanguage(name)
			if m := episodeFileRe.FindStringSubmatch(name); m != nil {
				season, _ := strconv.Atoi(m[1])
				episode, _ := strconv.Atoi(m[2])
				out = append(out, PlacedFile{
					Path: path, Season: models.SeasonKey{Number: season},
					Episode: episode, Language: lang,
				})
				return nil
			}
			if m := filmFileRe.FindStringSubmatch(name); m != nil {
				n, _ := strconv.Atoi(m[1])
				out = append(out, PlacedFile{
					Path: path, Season: models.SeasonKey{IsFilme: true},
					Episode: n, IsFilm: true, Language: lang,
				})
			}
			return nil
		})
	}
	return out
}
