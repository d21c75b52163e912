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

// aniworldScraper reads aniworld.to, following
// alvarorichard-GoAnime/internal/scraper/animefire.go's
// goquery.NewDocumentFromReader document-parsing style.
type aniworldScraper struct {
	http *httpClient
}

func NewAniworldScraper() Scraper {
	return &aniworldScraper{http: newHTTPClient("aniworld.to")}
}

func (s *aniworldScraper) SeriesTitle(ctx context.Context, seriesURL string) (string, error) {
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

func (s *aniworldScraper) SeasonNumbers(ctx context.Context, seriesURL string) ([]models.SeasonKey, error) {
	doc, err := s.http.getDocument(ctx, seriesURL)
	if err != nil {
		return nil, err
	}

	scope := doc.Selection
	if nav := doc.Find("div.hosterSiteDirectNav"); nav.Length() > 0 {
		scope = nav
	}

	var seasons []models.SeasonKey
	seen := make(map[string]struct{})
	scope.Find("ul").Each(func(_ int, ul *goquery.Selection) {
		if !strings.Contains(ul.Text(), "Staffeln") {
			return
		}
		ul.Find("a").Each(func(_ int, a *goquery.Selection) {
			for _, field := range strings.Fields(a.Text()) {
				field = strings.TrimSpace(field)
				if field == "" {
					continue
				}
				if _, dup := seen[field]; dup {
					continue
				}
				seen[field] = struct{}{}

				if strings.EqualFold(field, "Filme") {
					seasons = append(seasons, models.SeasonKey{IsFilme: true})
					continue
				}
				if n, err := strconv.Atoi(field); err == nil {
					seasons = append(seasons, models.SeasonKey{Number: n})
				}
			}
		})
	})
	return seasons, nil
}

var episodeNumberContentPattern = regexp.MustCompile(`\d+`)

func (s *aniworldScraper) Episodes(ctx context.Context, seriesURL string, season models.SeasonKey) ([]models.EpisodeRef, error) {
	if season.IsFilme {
		return s.filmEpisodes(ctx, seriesURL)
	}

	pageURL := aniworldSeasonURL(seriesURL, season)
	doc, err := s.http.getDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	tbody := doc.Find(fmt.Sprintf("table.seasonEpisodesList tbody#season%d", season.Number))
	if tbody.Length() == 0 {
		return nil, nil
	}

	var out []models.EpisodeRef
	tbody.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if strings.Contains(tr.AttrOr("class", ""), "upcoming") {
			return
		}
		content, ok := tr.Find("meta[itemprop='episodeNumber']").Attr("content")
		if !ok {
			return
		}
		n, err := strconv.Atoi(episodeNumberContentPattern.FindString(content))
		if err != nil {
			return
		}
		out = append(out, models.EpisodeRef{Number: n, URL: aniworldEpisodeURL(seriesURL, season, n)})
	})
	return out, nil
}

func (s *aniworldScraper) filmEpisodes(ctx context.Context, seriesURL string) ([]models.EpisodeRef, error) {
	doc, err := s.http.getDocument(ctx, seriesURL+"/filme")
	if err != nil {
		return nil, err
	}

	filmLinkPattern := regexp.MustCompile(`/filme/film-(\d+)`)
	seen := make(map[int]struct{})
	var out []models.EpisodeRef
	doc.Find("a[href*='/filme/film-']").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		match := filmLinkPattern.FindStringSubmatch(href)
		if match == nil {
			return
		}
		n, err := strconv.Atoi(match[1])
		if err != nil {
			return
		}
		if _, dup := seen[n]; dup {
			return
		}
		seen[n] = struct{}{}
		out = append(out, models.EpisodeRef{Number: n, URL: aniworldFilmURL(seriesURL, n)})
	})
	return out, nil
}

// aniworldLanguageKeys maps the icon filename stem (without extension)
// to a Language
var aniworldLanguageKeys = map[string]models.Language{
	"german":          models.GermanDub,
	"english":         models.EnglishDub,
	"japanese-german": models.GermanSub,
	"japanese-english": models.EnglishSub,
}

func (s *aniworldScraper) Languages(ctx context.Context, episodeURL string) (models.LanguageSet, error) {
	doc, err := s.http.getDocument(ctx, episodeURL)
	if err != nil {
		return nil, err
	}

	set := make(models.LanguageSet)
	doc.Find("div.changeLanguageBox img").Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		if !ok {
			return
		}
		key := strings.TrimSuffix(strings.TrimPrefix(src, "/public/img/"), ".svg")
		if lang, ok := aniworldLanguageKeys[strings.ToLower(key)]; ok {
			set[lang] = struct{}{}
		}
	})
	return set, nil
}

func (s *aniworldScraper) EpisodeTitle(ctx context.Context, episodeURL string, preferEnglish bool) (string, error) {
	doc, err := s.http.getDocument(ctx, episodeURL)
	if err != nil {
		return "", err
	}

	if !preferEnglish {
		if text := strings.TrimSpace(doc.Find("span.episodeGermanTitle").First().Text()); text != "" {
			return sanitizeEpisodeTitle(text), nil
		}
	}
	if text := strings.TrimSpace(doc.Find("small.episodeEnglishTitle").First().Text()); text != "" {
		return sanitizeEpisodeTitle(text), nil
	}
	return "", nil
}

func (s *aniworldScraper) EpisodeURL(seriesURL string, season models.SeasonKey, number int) string {
	return aniworldEpisodeURL(seriesURL, season, number)
}

func (s *aniworldScraper) FilmURL(seriesURL string, number int) string {
	return aniworldFilmURL(seriesURL, number)
}
