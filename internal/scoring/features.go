package scoring

import (
	"fmt"
	"regexp"
	"strings"
)

// Sections reports which résumé sections were detected. All known sections
// are always present as keys.
type Sections map[Section]bool

// Count returns the number of detected sections.
func (s Sections) Count() int {
	n := 0
	for _, present := range s {
		if present {
			n++
		}
	}
	return n
}

// KeywordStats summarizes professional keyword usage in a text.
type KeywordStats struct {
	Occurrences int     `json:"occurrences" yaml:"occurrences"`
	WordCount   int     `json:"wordCount" yaml:"wordCount"`
	Density     float64 `json:"density" yaml:"density"`
}

// Analyzer extracts section presence and keyword statistics from plain text.
// It holds no mutable state and is safe for concurrent use.
type Analyzer struct {
	tables      Tables
	fingerprint string
	sections    []sectionMatcher
	keywords    []string
}

type sectionMatcher struct {
	section Section
	pattern *regexp.Regexp
}

// NewAnalyzer compiles the given tables.
func NewAnalyzer(t Tables) (*Analyzer, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tables: %w", err)
	}
	t = t.clone()

	a := &Analyzer{
		tables:      t,
		fingerprint: t.Fingerprint(),
		sections:    make([]sectionMatcher, 0, len(t.Sections)),
		keywords:    make([]string, 0, len(t.Keywords)),
	}
	for _, rule := range t.Sections {
		pattern, err := sectionPattern(rule.Synonyms)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", rule.Section, err)
		}
		a.sections = append(a.sections, sectionMatcher{section: rule.Section, pattern: pattern})
	}
	for _, kw := range t.Keywords {
		a.keywords = append(a.keywords, strings.ToLower(strings.TrimSpace(kw)))
	}
	return a, nil
}

// MustNewAnalyzer is NewAnalyzer for tables known to be valid.
func MustNewAnalyzer(t Tables) *Analyzer {
	a, err := NewAnalyzer(t)
	if err != nil {
		panic(err)
	}
	return a
}

// Tables returns a copy of the tables the analyzer was built with.
func (a *Analyzer) Tables() Tables {
	return a.tables.clone()
}

// Fingerprint identifies the analyzer's tables.
func (a *Analyzer) Fingerprint() string {
	return a.fingerprint
}

// Analyze scans text for sections and keyword density. Empty text is a valid
// input and yields no sections and zeroed stats.
//
// Section detection matches whole words while keyword counting matches raw
// substrings of the lower-cased text, so "javascript" also counts toward
// "java". Scores depend on the two rules staying distinct.
func (a *Analyzer) Analyze(text string) (Sections, KeywordStats) {
	sections := make(Sections, len(AllSections))
	for _, s := range AllSections {
		sections[s] = false
	}
	for _, m := range a.sections {
		sections[m.section] = m.pattern.MatchString(text)
	}

	lower := strings.ToLower(text)
	occurrences := 0
	for _, kw := range a.keywords {
		occurrences += strings.Count(lower, kw)
	}

	wordCount := len(strings.Fields(text))
	density := 0.0
	if wordCount > 0 {
		density = float64(occurrences) / float64(wordCount) * 100
	}

	return sections, KeywordStats{
		Occurrences: occurrences,
		WordCount:   wordCount,
		Density:     density,
	}
}

// sectionPattern matches any synonym as a whole word. Letters, digits and
// underscore in any script are word characters, so an accented letter next to
// a synonym joins it into a longer word. RE2's \b is ASCII-only.
func sectionPattern(synonyms []string) (*regexp.Regexp, error) {
	alts := make([]string, 0, len(synonyms))
	for _, syn := range synonyms {
		alts = append(alts, regexp.QuoteMeta(strings.TrimSpace(syn)))
	}
	return regexp.Compile(`(?i)(?:^|` + nonWordClass + `)(?:` + strings.Join(alts, "|") + `)(?:$|` + nonWordClass + `)`)
}

const nonWordClass = `[^\p{L}\p{N}_]`
