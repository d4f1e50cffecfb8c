// Package postprocess cleans model output and reads the ATS score from it.
package postprocess

import (
	"regexp"
	"strconv"
	"strings"
)

// placeholderPhrases are removed from every model response, in order.
var placeholderPhrases = []string{
	"add relevant experience",
	"add your experience here",
	"placeholder",
}

var placeholderPatterns = compilePlaceholders(placeholderPhrases)

func compilePlaceholders(phrases []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(phrases))
	for i, p := range phrases {
		patterns[i] = regexp.MustCompile("(?i)" + regexp.QuoteMeta(p))
	}
	return patterns
}

// Clean strips placeholder boilerplate anywhere it occurs, ignoring case
// and word boundaries.
func Clean(text string) string {
	for _, re := range placeholderPatterns {
		text = re.ReplaceAllLiteralString(text, "")
	}
	return text
}

// ScoreMarker precedes the score in an analysis report. It is case-sensitive.
const ScoreMarker = "ATS Score :"

var scorePattern = regexp.MustCompile(regexp.QuoteMeta(ScoreMarker) + `\s*([+-]?(?:\d+(?:\.\d*)?|\.\d+))`)

// ExtractScore parses the number after ScoreMarker. It returns 0 when the
// marker is missing or not followed by a number.
func ExtractScore(text string) float64 {
	m := scorePattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	score, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return score
}

// DisplayScore clamps a parsed score into the 0-100 range used by gauges.
// The second result reports whether clamping changed the value.
func DisplayScore(score float64) (float64, bool) {
	switch {
	case score < 0:
		return 0, true
	case score > 100:
		return 100, true
	}
	return score, false
}

// FormatReport prepares an analysis report for display: the score marker is
// dropped and the report heading is emphasized.
func FormatReport(report string) string {
	report = strings.ReplaceAll(report, ScoreMarker, "")
	return strings.ReplaceAll(report, "Detailed Report:", "**Detailed Report:**")
}
