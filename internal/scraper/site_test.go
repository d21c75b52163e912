package scraper

import (
	"testing"

	"github.com/atreides/aniwatch/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestSiteForURL(t *testing.T) {
	site, ok := SiteForURL("https://aniworld.to/anime/stream/demo-show")
	assert.True(t, ok)
	assert.Equal(t, models.SiteAniworld, site)

	site, ok = SiteForURL("https://s.to/serie/stream/demo-show")
	assert.True(t, ok)
	assert.Equal(t, models.SiteSTo, site)

	_, ok = SiteForURL("https://example.com/not-supported")
	assert.False(t, ok)

	_, ok = SiteForURL("://%zz invalid")
	assert.False(t, ok)
}
