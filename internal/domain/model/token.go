package model

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

// MaxTokenLen bounds the length of a normalized skill or keyword token.
const MaxTokenLen = 20

var tokenPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// tokenAliases rewrites spellings that would otherwise lose their meaning
// once punctuation is stripped.
var tokenAliases = map[string]string{
	"c++":         "cpp",
	"c#":          "csharp",
	"f#":          "fsharp",
	".net":        "dotnet",
	"node.js":     "nodejs",
	"node":        "nodejs",
	"vue.js":      "vue",
	"react.js":    "react",
	"next.js":     "nextjs",
	"golang":      "go",
	"k8s":         "kubernetes",
	"js":          "javascript",
	"ts":          "typescript",
	"py":          "python",
	"postgres":    "postgresql",
	"objective-c": "objc",
}

// NormalizeToken folds raw into the canonical token form: full-width
// characters are narrowed, the text is lower-cased, known aliases are
// applied and hyphens/dots/spaces become underscores. It reports false when
// the result is empty, too long or contains anything outside [a-z0-9_].
func NormalizeToken(raw string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(width.Fold.String(raw)))
	if s == "" {
		return "", false
	}
	if alias, ok := tokenAliases[s]; ok {
		s = alias
	}
	s = strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(s)
	s = strings.Trim(s, "_")
	if s == "" || len(s) > MaxTokenLen || !tokenPattern.MatchString(s) {
		return "", false
	}
	return s, true
}

// NormalizeTokens normalizes each value and returns the unique, sorted
// survivors.
func NormalizeTokens(raw []string) []string {
	var out []string
	for _, r := range raw {
		if t, ok := NormalizeToken(r); ok {
			out = insertSorted(out, t)
		}
	}
	return out
}

// insertSorted inserts v into the sorted slice s unless it is already there.
func insertSorted(s []string, v string) []string {
	lo, hi := 0, len(s)
	for lo < hi {
		mid := (lo + hi) / 2
		if s[mid] < v {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(s) && s[lo] == v {
		return s
	}
	s = append(s, "")
	copy(s[lo+1:], s[lo:])
	s[lo] = v
	return s
}
