package feedback

import (
	"math"
	"strings"
)

// saturationBase is the count+1 at which the frequency score reaches 1.0.
const saturationBase = 10

// CountOccurrences counts non-overlapping occurrences of the lower-cased tag
// in cleanedText. Partial-word matches count.
func CountOccurrences(tag, cleanedText string) int {
	needle := strings.ToLower(tag)
	if needle == "" {
		return 0
	}
	return strings.Count(cleanedText, needle)
}

// ScoreFrequency returns min(1, ln(count+1)/ln(10)) for the tag's occurrence
// count in cleanedText, or 0 when the tag does not occur.
func ScoreFrequency(tag, cleanedText string) float64 {
	count := CountOccurrences(tag, cleanedText)
	if count == 0 {
		return 0
	}
	return math.Min(1, math.Log(float64(count+1))/math.Log(saturationBase))
}
