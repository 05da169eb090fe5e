package intent

import "strings"

// Normalize lower-cases and trims a raw message. Classification and
// extraction both expect normalized input.
func Normalize(message string) string {
	return strings.ToLower(strings.TrimSpace(message))
}

// Classify scores a normalized message against the catalog and returns the
// best intent with a confidence in [0,1].
//
// Scoring: one point per keyword found as a substring, plus a two point bonus
// when the message equals a keyword exactly. Confidence is min(score/3, 1).
// Equal scores resolve to the earlier catalog entry. A message with no
// keyword hits falls back to the first catalog entry at confidence 0, so
// classification is total: it never fails and never returns no intent.
func Classify(message string) (Intent, float64) {
	best := Catalog[0]
	bestScore := 0

	for _, it := range Catalog {
		score := 0
		for _, kw := range it.Keywords {
			if strings.Contains(message, kw) {
				score++
			}
			if message == kw {
				score += 2
			}
		}
		if score > bestScore {
			best = it
			bestScore = score
		}
	}

	confidence := float64(bestScore) / 3
	if confidence > 1 {
		confidence = 1
	}
	return best, confidence
}
