package poster

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"
)

// DefaultRPDBBaseURL is the public RPDB endpoint.
const DefaultRPDBBaseURL = "https://api.ratingposterdb.com"

// Free tiers don't support localized posters.
var tiersWithoutLanguage = map[string]bool{"t0": true, "t1": true}

// RPDBURL builds the poster URL for a TMDB item. kind is "movie" or "tv".
func RPDBURL(baseURL, key, kind string, id int64, lang string) string {
	rpdbType := "movie"
	if kind == "tv" {
		rpdbType = "series"
	}
	u := fmt.Sprintf("%s/%s/tmdb/poster-default/%s-%d.jpg",
		strings.TrimRight(baseURL, "/"), url.PathEscape(key), rpdbType, id)

	tier, _, _ := strings.Cut(key, "-")
	if tiersWithoutLanguage[tier] {
		return u
	}
	if base := baseLanguage(lang); base != "" {
		u += "?lang=" + url.QueryEscape(base)
	}
	return u
}

// baseLanguage reduces "pt-BR" to "pt".
func baseLanguage(lang string) string {
	if lang == "" {
		return ""
	}
	tag, err := language.Parse(lang)
	if err != nil {
		base, _, _ := strings.Cut(lang, "-")
		return strings.ToLower(base)
	}
	base, _ := tag.Base()
	return base.String()
}
