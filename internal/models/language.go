package models

import "strings"

// Language is one of the four audio/subtitle variants the catalog
// tracks. There is no provider-selection dimension in this core: every
// site dialect collapses onto this one enum at the scraper boundary.
type Language string

const (
	GermanDub  Language = "German Dub"
	GermanSub  Language = "German Sub"
	EnglishDub Language = "English Dub"
	EnglishSub Language = "English Sub"
)

// Suffix returns the filename marker for l. German Dub carries no
// marker: its absence from a filename means German Dub.
func (l Language) Suffix() string {
	switch l {
	case GermanSub:
		return "[Sub]"
	case EnglishDub:
		return "[English Dub]"
	case EnglishSub:
		return "[English Sub]"
	default:
		return ""
	}
}

// IsGerman reports whether l is either German variant.
func (l Language) IsGerman() bool {
	return l == GermanDub || l == GermanSub
}

// LanguageSet is the set of languages available for one episode.
type LanguageSet map[Language]struct{}

func NewLanguageSet(langs ...Language) LanguageSet {
	s := make(LanguageSet, len(langs))
	for _, l := range langs {
		s[l] = struct{}{}
	}
	return s
}

func (s LanguageSet) Has(l Language) bool {
	_, ok := s[l]
	return ok
}

func (s LanguageSet) Empty() bool {
	return len(s) == 0
}

// ClassifyLanguage derives the Language implied by a filename's suffix
// markers. Absence of any marker means German Dub.
func ClassifyLanguage(name string) Language {
	switch {
	case containsFold(name, "[English Dub]"):
		return EnglishDub
	case containsFold(name, "[English Sub]"):
		return EnglishSub
	case containsFold(name, "[Sub]"):
		return GermanSub
	default:
		return GermanDub
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
