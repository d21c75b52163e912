// Package layout derives and mutates the on-disk episode/movie tree.
// Every function here is a pure path computation
// or a single filesystem operation; nothing in this package talks to
// the network or the database.
package layout

import (
	"path/filepath"

	"github.com/atreides/aniwatch/config"
	"github.com/atreides/aniwatch/internal/models"
)

// IsDedicatedMovies reports whether films for contentType are placed in
// their own root outside the series folder tree
func IsDedicatedMovies(cfg config.Settings, contentType models.ContentType) bool {
	if cfg.StorageMode != config.StorageSeparate {
		return false
	}
	if contentType == models.ContentAnime {
		return cfg.AnimeSeparateMovies
	}
	return cfg.SerienSeparateMovies
}

// BasePath resolves the root directory a given content type and
// film/series split downloads into.
func BasePath(cfg config.Settings, contentType models.ContentType, isFilm bool) string {
	if cfg.StorageMode != config.StorageSeparate {
		return cfg.DownloadPath
	}

	if contentType == models.ContentAnime {
		animePath := cfg.AnimePath
		if animePath == "" {
			animePath = cfg.MoviesPath
		}
		if isFilm && cfg.AnimeSeparateMovies {
			if cfg.AnimeMoviesPath != "" {
				return cfg.AnimeMoviesPath
			}
			return filepath.Join(animePath, "Filme")
		}
		return animePath
	}

	serienPath := cfg.SerienPath
	if serienPath == "" {
		serienPath = cfg.SeriesPath
	}
	if isFilm && cfg.SerienSeparateMovies {
		if cfg.SerienMoviesPath != "" {
			return cfg.SerienMoviesPath
		}
		return filepath.Join(serienPath, "Filme")
	}
	return serienPath
}
