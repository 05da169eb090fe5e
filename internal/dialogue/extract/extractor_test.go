package extract

import (
	"testing"

	"agrichat/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestEntities_MixedMessage(t *testing.T) {
	entities := Entities("my soil is loamy and i grow rice in kharif season")

	assert.Contains(t, entities, models.Entity{Type: models.EntitySoilType, Value: "loamy"})
	assert.Contains(t, entities, models.Entity{Type: models.EntityCropType, Value: "rice"})
	assert.Contains(t, entities, models.Entity{Type: models.EntitySeason, Value: "kharif"})
}

func TestEntities_PerTypeScans(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		expected []models.Entity
	}{
		{
			name:    "soil type",
			message: "i have sandy soil",
			expected: []models.Entity{
				{Type: models.EntitySoilType, Value: "sandy"},
			},
		},
		{
			name:    "location",
			message: "i farm in punjab",
			expected: []models.Entity{
				{Type: models.EntityLocation, Value: "punjab"},
			},
		},
		{
			name:    "quantity",
			message: "my farm is 12.5 acres",
			expected: []models.Entity{
				{Type: models.EntityQuantity, Value: "12.5"},
			},
		},
		{
			name:     "no entities",
			message:  "tell me something useful",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Entities(tt.message))
		})
	}
}

func TestEntities_QuantityBound(t *testing.T) {
	// Numbers above 1000 are implausible farm sizes (years, pin codes) and
	// are dropped; numbers at or below the bound are kept.
	entities := Entities("i bought 5 acres in 2021 near pin 110001, total 1000 trees")

	var quantities []string
	for _, e := range entities {
		if e.Type == models.EntityQuantity {
			quantities = append(quantities, e.Value)
		}
	}
	assert.Equal(t, []string{"5", "1000"}, quantities)
}

func TestEntities_NoDeduplication(t *testing.T) {
	entities := Entities("rice rice everywhere, nothing but rice")

	count := 0
	for _, e := range entities {
		if e.Type == models.EntityCropType && e.Value == "rice" {
			count++
		}
	}
	// One entity per mention, duplicates preserved.
	assert.Equal(t, 3, count)

	numbers := Entities("plots of 10 and 10 and 10")
	quantityCount := 0
	for _, e := range numbers {
		if e.Type == models.EntityQuantity {
			quantityCount++
		}
	}
	assert.Equal(t, 3, quantityCount)
}
