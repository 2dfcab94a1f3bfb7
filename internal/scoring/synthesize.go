package scoring

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	sectionPoints   = 20
	densityWeight   = 2
	densityCap      = 40
	strongScore     = 80
	moderateScore   = 60
	minDensity      = 5
	minWordCount    = 100
	scoreDecimalFmt = 2
)

const (
	SuggestEducation  = "Add an 'Education' section with your academic background."
	SuggestExperience = "Include a 'Work Experience' section detailing your professional history."
	SuggestSkills     = "Add a 'Skills' section to highlight relevant technical and soft skills."
	SuggestKeywords   = "Incorporate more industry-specific keywords (e.g., Python, leadership)."
	SuggestExpand     = "Expand the CV content to provide more details about your qualifications."
)

var sectionSuggestions = map[Section]string{
	SectionEducation:  SuggestEducation,
	SectionExperience: SuggestExperience,
	SectionSkills:     SuggestSkills,
}

// Result is the outcome of analyzing one document.
type Result struct {
	Message     string   `json:"message" yaml:"message"`
	Score       float64  `json:"score" yaml:"score"`
	Suggestions []string `json:"suggestions" yaml:"suggestions"`
}

// Tier classifies a total score.
type Tier string

const (
	TierStrong   Tier = "strong"
	TierModerate Tier = "moderate"
	TierWeak     Tier = "weak"
)

// TierFor returns the tier a total score falls into.
func TierFor(score float64) Tier {
	switch {
	case score >= strongScore:
		return TierStrong
	case score >= moderateScore:
		return TierModerate
	default:
		return TierWeak
	}
}

// SectionScore is the points awarded for detected sections.
func SectionScore(sections Sections) float64 {
	return float64(sections.Count() * sectionPoints)
}

// DensityScore is the capped points awarded for keyword density.
func DensityScore(stats KeywordStats) float64 {
	return math.Min(stats.Density*densityWeight, densityCap)
}

// Synthesize turns features into a score, message and ordered suggestions.
// Only the final sum is rounded.
func Synthesize(sections Sections, stats KeywordStats) Result {
	total := roundScore(SectionScore(sections) + DensityScore(stats))

	suggestions := make([]string, 0, 5)
	for _, s := range AllSections {
		if !sections[s] {
			suggestions = append(suggestions, sectionSuggestions[s])
		}
	}
	if stats.Density < minDensity {
		suggestions = append(suggestions, SuggestKeywords)
	}
	if stats.WordCount < minWordCount {
		suggestions = append(suggestions, SuggestExpand)
	}

	return Result{
		Message:     message(total, wholeScore(stats)),
		Score:       total,
		Suggestions: suggestions,
	}
}

// wholeScore reports whether the total is an integer quantity rather than a
// fractional one. Only empty text and a capped density keep the sum integral;
// every other total prints with at least one decimal, "60.0" not "60".
func wholeScore(stats KeywordStats) bool {
	return stats.WordCount == 0 || stats.Density*densityWeight > densityCap
}

func formatScore(score float64, whole bool) string {
	formatted := strconv.FormatFloat(score, 'f', -1, 64)
	if !whole && !strings.Contains(formatted, ".") {
		formatted += ".0"
	}
	return formatted
}

func message(score float64, whole bool) string {
	formatted := formatScore(score, whole)
	switch TierFor(score) {
	case TierStrong:
		return fmt.Sprintf("The CV is strong (Score: %s%%). Well-structured with relevant content.", formatted)
	case TierModerate:
		return fmt.Sprintf("The CV is moderately strong (Score: %s%%). Some improvements needed.", formatted)
	default:
		return fmt.Sprintf("The CV needs significant improvement (Score: %s%%). Lacking key content.", formatted)
	}
}

// roundScore rounds the exact binary value of v to two decimals, exact ties
// to even. Scaling by 100 first would round twice.
func roundScore(v float64) float64 {
	out, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', scoreDecimalFmt, 64), 64)
	if err != nil {
		return math.Round(v*100) / 100
	}
	return out
}
