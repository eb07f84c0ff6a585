package filter

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultExcludeKeywords are the junior and entry-level markers. A listing
// whose title or department contains one of them is never stored.
var DefaultExcludeKeywords = []string{
	"intern", "internship", "co-op", "coop", "student",
	"entry level", "entry-level", "graduate program",
	"campus", "university", "new grad", "new graduate",
	"trainee", "apprentice", "apprenticeship", "rotational program", "early career",
	"campus recruiting", "university recruiting",
}

// urlExcludeKeywords are checked against the URL path tokens.
var urlExcludeKeywords = []string{"intern", "internship", "entry", "campus", "graduate"}

// normalizeText folds accents and case so "Stagiaire Été" and "stagiaire ete"
// compare equal.
func normalizeText(str string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, str)
	return strings.ToLower(result)
}

// keywordRegex builds an alternation anchored at a word start. Plural and
// "-ship" forms ("interns", "apprenticeship") still match, while "intern"
// does not match "international".
func keywordRegex(keywords []string) *regexp.Regexp {
	parts := make([]string, 0, len(keywords))
	seen := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		kw = normalizeText(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		//let "entry level" match "entry-level" and "entry  level"
		quoted := regexp.QuoteMeta(kw)
		quoted = strings.ReplaceAll(quoted, "-", `[\s-]?`)
		quoted = strings.ReplaceAll(quoted, " ", `[\s-]+`)
		parts = append(parts, quoted)
	}
	if len(parts) == 0 {
		return nil
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(parts, "|") + `)(?:s|es|ships?)?\b`)
}
