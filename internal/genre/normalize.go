package genre

import (
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fuzzyThreshold is the minimum Jaro-Winkler similarity for a fuzzy genre match.
const fuzzyThreshold = 0.92

// fold lowercases, strips accents and collapses punctuation so "Science-Fiction" matches "science fiction".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}
	result = strings.ToLower(result)
	result = strings.ReplaceAll(result, "&", " and ")
	result = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, result)
	return strings.Join(strings.Fields(result), " ")
}

// bestMatch returns the index of the candidate closest to name, or -1 below the threshold.
func bestMatch(name string, candidates []string) int {
	target := fold(name)
	best, bestScore := -1, float32(0)
	for i, c := range candidates {
		score, err := edlib.StringsSimilarity(target, fold(c), edlib.JaroWinkler)
		if err != nil {
			continue
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if bestScore < fuzzyThreshold {
		return -1
	}
	return best
}
