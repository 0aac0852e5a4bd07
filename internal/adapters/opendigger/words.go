package opendigger

import (
	"strings"
	"unicode"
)

// stopwords are dropped when deriving keywords from free text.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "the": {}, "for": {}, "of": {}, "to": {}, "in": {},
	"on": {}, "with": {}, "is": {}, "are": {}, "by": {}, "your": {}, "you": {}, "it": {},
	"this": {}, "that": {}, "from": {}, "as": {}, "at": {}, "or": {}, "be": {}, "based": {},
}

// Words splits free text into candidate keyword tokens.
func Words(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '-' || r == '_')
	})
	out := fields[:0]
	for _, f := range fields {
		if _, stop := stopwords[strings.ToLower(f)]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}
