// Package accumulate folds extracted entities into the session's persistent
// user context.
package accumulate

import (
	"strconv"

	"agrichat/internal/models"
)

// Merge applies the extracted entities to the context in place. Scalar fields
// (soil type, location, farm size) are last-write-wins; crop preferences and
// last topics accumulate in insertion order without duplicates. The context
// is never reset mid-session.
func Merge(ctx *models.UserContext, entities []models.Entity) {
	for _, e := range entities {
		switch e.Type {
		case models.EntitySoilType:
			ctx.SoilType = e.Value
		case models.EntityLocation:
			ctx.Location = &models.Location{Address: e.Value}
		case models.EntitySeason:
			ctx.LastTopics = appendUnique(ctx.LastTopics, e.Value)
		case models.EntityCropType:
			ctx.CropPreferences = appendUnique(ctx.CropPreferences, e.Value)
		case models.EntityQuantity:
			if size, err := strconv.ParseFloat(e.Value, 64); err == nil {
				ctx.FarmSize = size
			}
		}
	}
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
