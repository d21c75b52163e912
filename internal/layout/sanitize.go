package layout

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	forbiddenChars   = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
	episodeBanWords  = []string{"the movie", "[movie]", "movie"}
)

// SanitizeTitle cleans an episode title for filesystem use: strips
// Windows-forbidden characters, drops "Movie"-family tokens (so a film
// doesn't get double-tagged when it's placed under "Filme"/a dedicated
// folder), and collapses whitespace.
func SanitizeTitle(title string) string {
	cleaned := forbiddenChars.ReplaceAllString(norm.NFC.String(title), "")
	for _, word := range episodeBanWords {
		cleaned = replaceFold(cleaned, word, "")
	}
	cleaned = whitespaceRun.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// SanitizeFolderName cleans a series/folder name, preserving dots
// (series titles routinely contain them, e.g. "Re:ZERO -Starting Life
// in Another World-" has no dots but many others do). The name is
// first normalized to NFC so German umlauts and other composed
// characters scraped as separate combining sequences collapse to the
// single-rune form most filesystems and prior runs used.
func SanitizeFolderName(name string) string {
	cleaned := forbiddenChars.ReplaceAllString(norm.NFC.String(name), "")
	cleaned = whitespaceRun.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

func replaceFold(s, old, new string) string {
	if old == "" {
		return s
	}
	lowerS := strings.ToLower(s)
	lowerOld := strings.ToLower(old)

	var b strings.Builder
	i := 0
	for {
		idx := strings.Index(lowerS[i:], lowerOld)
		if idx < 0 {
			b.WriteString(s[i:])
			break
		}
		b.WriteString(s[i : i+idx])
		b.WriteString(new)
		i += idx + len(old)
	}
	return b.String()
}
