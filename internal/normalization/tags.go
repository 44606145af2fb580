package normalization

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "or": {}, "of": {}, "a": {}, "an": {}, "in": {}, "on": {},
	"to": {}, "for": {}, "by": {}, "with": {}, "at": {}, "from": {}, "as": {}, "is": {},
}

func IsStopword(word string) bool {
	_, ok := stopwords[word]
	return ok
}

// NormalizeTags turns raw tag phrases into canonical words: lowercased, punctuation
// stripped, stopwords dropped, and a trailing "s" removed from words longer than three
// characters. The singular rule is naive ("physics" becomes "physic", "gas" becomes "ga").
// A word that singularizes into a stopword ("ands") is dropped too.
func NormalizeTags(raw []string) TagSet {
	out := TagSet{}
	for _, tag := range raw {
		for _, word := range splitTag(tag) {
			if IsStopword(word) {
				continue
			}
			if utf8.RuneCountInString(word) > 3 && strings.HasSuffix(word, "s") {
				word = word[:len(word)-1]
				if IsStopword(word) {
					continue
				}
			}
			out.Add(word)
		}
	}
	return out
}

func splitTag(tag string) []string {
	tag = strings.ToLower(tag)
	var b strings.Builder
	b.Grow(len(tag))
	for _, r := range tag {
		switch {
		case r == '-' || r == '/':
			b.WriteRune(' ')
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r):
			b.WriteRune(r)
		}
	}
	return strings.Fields(b.String())
}
