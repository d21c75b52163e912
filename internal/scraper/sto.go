package scraper

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/atreides/aniwatch/internal/models"
)

// sToScraper reads s.to, mirroring aniworldScraper's structure but
// with that site's own selectors.
type sToScraper struct {
	http *httpClient
}

func NewSToScraper() Scraper {
	return &sToScraper{http: newHTTPClient("s.to")}
}

func (s *sToScraper) SeriesTitle(ctx context.Context, seriesURL string) (string, error) {
	doc, err := s.http.getDocument(ctx, seriesURL)
	if err != nil {
		return "", err
	}
	for _, selector := range []string{"div.series-title h1 span", "div.series-title h1", "h1.h2.mb-1.fw-bold"} {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text != "" {
			return sanitizeFolderTitle(text), nil
		}
	}
	return "", fmt.Errorf("scraper: no title element found at %s", seriesURL)
}

func (s *sToScraper) SeasonNumbers(ctx context.Context, seriesURL string) ([]models.SeasonKey, error) {
	doc, err := s.http.getDocument(ctx, seriesURL)
	if err != nil {
		return nil, err
	}

	scope := doc.Selection
	if nav := doc.Find("nav#season-nav"); nav.Length() > 0 {
		scope = nav
	}

	var seasons []models.SeasonKey
	scope.Find("a[data-season-pill]").Each(func(_ int, a *goquery.Selection) {
		value, ok := a.Attr("data-season-pill")
		if !ok {
			return
		}
		value = strings.TrimSpace(value)
		if strings.EqualFold(value, "Filme") || value == "0" {
			seasons = append(seasons, models.SeasonKey{IsFilme: true})
			return
		}
		if n, err := strconv.Atoi(value); err == nil {
			seasons = append(seasons, models.SeasonKey{Number: n})
		}
	})
	return seasons, nil
}

func (s *sToScraper) Episodes(ctx context.Context, seriesURL string, season models.SeasonKey) ([]models.EpisodeRef, error) {
	pageURL := sToSeasonURL(seriesURL, season)
	doc, err := s.http.getDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	var out []models.EpisodeRef
	doc.Find("tr.episode-row").Each(func(_ int, tr *goquery.Selection) {
		if strings.Contains(tr.AttrOr("class", ""), "upcoming") {
			return
		}
		text := strings.TrimSpace(tr.Find("th.episode-number-cell").First().Text())
		if text == "" {
			return
		}
		n, err := strconv.Atoi(episodeNumberContentPattern.FindString(text))
		if err != nil {
			return
		}
		out = append(out, models.EpisodeRef{Number: n, URL: sToEpisodeURL(seriesURL, season, n)})
	})
	return out, nil
}

// sToLanguageKeys maps the `#icon-flag-*` href suffix to a Language.
var sToLanguageKeys = map[string]models.Language{
	"german":         models.GermanDub,
	"english":        models.EnglishDub,
	"english-german": models.GermanSub,
}

func (s *sToScraper) Languages(ctx context.Context, episodeURL string) (models.LanguageSet, error) {
	doc, err := s.http.getDocument(ctx, episodeURL)
	if err != nil {
		return nil, err
	}

	set := make(models.LanguageSet)
	doc.Find("svg.watch-language use").Each(func(_ int, use *goquery.Selection) {
		href, ok := use.Attr("href")
		if !ok {
			return
		}
		key := strings.TrimPrefix(href, "#icon-flag-")
		if lang, ok := sToLanguageKeys[strings.ToLower(key)]; ok {
			set[lang] = struct{}{}
		}
	})
	return set, nil
}

var (
	sxxexxPrefix  = regexp.MustCompile(`^S\d{2}E\d{2}:\s*`)
	trailingParen = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
	parenContent  = regexp.MustCompile(`\(([^)]*)\)`)
)

func (s *sToScraper) EpisodeTitle(ctx context.Context, episodeURL string, preferEnglish bool) (string, error) {
	doc, err := s.http.getDocument(ctx, episodeURL)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(doc.Find("h2.h4.mb-1").First().Text())
	if text == "" {
		return "", nil
	}
	cleaned := sxxexxPrefix.ReplaceAllString(text, "")

	langs, err := s.Languages(ctx, episodeURL)
	if err != nil {
		return sanitizeEpisodeTitle(cleaned), nil
	}

	if langs.Has(models.GermanDub) && !preferEnglish {
		cleaned = trailingParen.ReplaceAllString(cleaned, "")
	} else if match := parenContent.FindStringSubmatch(cleaned); match != nil {
		cleaned = match[1]
	}
	return sanitizeEpisodeTitle(cleaned), nil
}

func (s *sToScraper) EpisodeURL(seriesURL string, season models.SeasonKey, number int) string {
	return sToEpisodeURL(seriesURL, season, number)
}

// FilmURL reuses the episode URL builder with the Filme pseudo-season,
// which renders the same "/filme/film-N" form aniworld uses.
func (s *sToScraper) FilmURL(seriesURL string, number int) string {
	return sToEpisodeURL(seriesURL, models.SeasonKey{IsFilme: true}, number)
}
