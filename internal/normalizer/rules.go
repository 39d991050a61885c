package normalizer

import (
	"fmt"
	"regexp"
)

// abbreviations maps airport shorthand to its expanded form. Patterns are
// word-bounded so expansions never re-trigger on their own output.
var abbreviations = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)\bT(\d)\b`), "Terminal $1"},
	{regexp.MustCompile(`(?i)\bdep\b`), "departure"},
	{regexp.MustCompile(`(?i)\barr\b`), "arrival"},
	{regexp.MustCompile(`(?i)\bacft\b`), "aircraft"},
	{regexp.MustCompile(`(?i)\ba/c\b`), "aircraft"},
	{regexp.MustCompile(`(?i)\bpax\b`), "passengers"},
	{regexp.MustCompile(`(?i)\bmaint\b`), "maintenance"},
	{regexp.MustCompile(`(?i)\butil\b`), "utilization"},
	{regexp.MustCompile(`(?i)\bcap\b`), "capacity"},
}

func expandAbbreviations(s string) string {
	for _, a := range abbreviations {
		s = a.re.ReplaceAllString(s, a.replacement)
	}
	return s
}

// synonyms maps colloquial vocabulary onto the domain's canonical terms.
var synonyms = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)\bgates\b`), "stands"},
	{regexp.MustCompile(`(?i)\bgate\b`), "stand"},
	{regexp.MustCompile(`(?i)\bparking positions\b`), "stands"},
	{regexp.MustCompile(`(?i)\bparking position\b`), "stand"},
	{regexp.MustCompile(`(?i)\busage\b`), "utilization"},
	{regexp.MustCompile(`(?i)\bplanes\b`), "aircraft"},
	{regexp.MustCompile(`(?i)\bplane\b`), "aircraft"},
	{regexp.MustCompile(`(?i)\bbusyness\b`), "utilization"},
}

func replaceSynonyms(s string) string {
	for _, syn := range synonyms {
		s = syn.re.ReplaceAllString(s, syn.replacement)
	}
	return s
}

// colloquialisms rewrites informal phrasings into direct requests. The
// right-hand sides are canonical and never match a left-hand side again.
var colloquialisms = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)^what's up with (.+?)\??$`), "status of $1"},
	{regexp.MustCompile(`(?i)^what is up with (.+?)\??$`), "status of $1"},
	{regexp.MustCompile(`(?i)^how's (.+?) doing\??$`), "status of $1"},
	{regexp.MustCompile(`(?i)^how is (.+?) doing\??$`), "status of $1"},
	{regexp.MustCompile(`(?i)^any news on (.+?)\??$`), "status of $1"},
	{regexp.MustCompile(`(?i)\bgimme\b`), "show me"},
	{regexp.MustCompile(`(?i)^can you tell me (.+?)\??$`), "show $1"},
}

func translateColloquialisms(s string) string {
	for _, c := range colloquialisms {
		if c.re.MatchString(s) {
			return c.re.ReplaceAllString(s, c.replacement)
		}
	}
	return s
}

// phrasings rewrites question templates to imperative form.
var phrasings = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)^what is the (.+?)\??$`), "show $1"},
	{regexp.MustCompile(`(?i)^what are the (.+?)\??$`), "show $1"},
	{regexp.MustCompile(`(?i)^tell me about (.+?)\??$`), "show details for $1"},
	{regexp.MustCompile(`(?i)^i need to know (.+?)\??$`), "show $1"},
	{regexp.MustCompile(`(?i)^do we have (.+?)\??$`), "check availability of $1"},
}

func normalizePhrasing(s string) string {
	for _, p := range phrasings {
		if p.re.MatchString(s) {
			return p.re.ReplaceAllString(s, p.replacement)
		}
	}
	return s
}

// Vocabulary returns a short description of the rule tables, used by the
// setup wizard to show what normalization will do.
func Vocabulary() string {
	return fmt.Sprintf("%d abbreviations, %d synonyms, %d colloquialisms, %d phrasing templates",
		len(abbreviations), len(synonyms), len(colloquialisms), len(phrasings))
}
