// Package extract scans normalized messages against the fixed domain
// vocabularies and a numeric pattern, producing typed entities.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"agrichat/internal/models"
)

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// maxQuantity bounds plausible farm sizes; larger numbers (years, pin codes)
// are ignored.
const maxQuantity = 1000

// Entities extracts all entities from a normalized message. Scans are
// independent per type, and repeated mentions produce repeated entities: no
// deduplication is applied.
func Entities(message string) []models.Entity {
	var out []models.Entity

	out = appendMatches(out, message, models.EntitySoilType, soilTypes)
	out = appendMatches(out, message, models.EntityLocation, indianStates)
	out = appendMatches(out, message, models.EntitySeason, seasons)
	out = appendMatches(out, message, models.EntityCropType, cropNames)

	for _, tok := range numberPattern.FindAllString(message, -1) {
		val, err := strconv.ParseFloat(tok, 64)
		if err != nil || val > maxQuantity {
			continue
		}
		out = append(out, models.Entity{Type: models.EntityQuantity, Value: tok})
	}

	return out
}

// appendMatches emits one entity per non-overlapping occurrence of each
// vocabulary term, so a repeated mention yields repeated entities.
func appendMatches(out []models.Entity, message string, typ models.EntityType, vocab []string) []models.Entity {
	for _, term := range vocab {
		for i := 0; i < strings.Count(message, term); i++ {
			out = append(out, models.Entity{Type: typ, Value: term})
		}
	}
	return out
}
