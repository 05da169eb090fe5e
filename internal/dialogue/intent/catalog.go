// Package intent holds the static intent catalog and the keyword classifier.
package intent

import "agrichat/internal/models"

// Tag is the closed set of intent identifiers. The composer dispatches on
// Tag, so adding an intent here forces a decision in its dispatch table.
type Tag string

const (
	Greeting           Tag = "greeting"
	CropRecommendation Tag = "crop_recommendation"
	DiseaseHelp        Tag = "disease_help"
	FertilizerAdvice   Tag = "fertilizer_advice"
	WeatherQuery       Tag = "weather_query"
	MarketPrice        Tag = "market_price"
	GovernmentScheme   Tag = "government_scheme"
	IrrigationInfo     Tag = "irrigation_info"
	Farewell           Tag = "farewell"
)

// Intent is one entry of the static catalog. Immutable for the process
// lifetime.
type Intent struct {
	Tag              Tag
	Keywords         []string
	ResponseTemplate string
	EntityTypes      []models.EntityType
	FollowUps        []string
}

// Name returns the wire name of the intent.
func (i Intent) Name() string { return string(i.Tag) }

// Catalog is the ordered intent table. The order is an explicit priority:
// ties in classifier scoring resolve to the earlier entry, and the first
// entry (greeting) doubles as the fallback when nothing matches.
var Catalog = []Intent{
	{
		Tag:              Greeting,
		Keywords:         []string{"hello", "hi", "hey", "namaste", "good morning", "good evening"},
		ResponseTemplate: "Hello! I am your farming assistant. I can help you with crop recommendations, government schemes, market prices and more. What would you like to know?",
		FollowUps: []string{
			"Which crop should I grow?",
			"Show me government schemes",
			"What are today's market prices?",
		},
	},
	{
		Tag:              CropRecommendation,
		Keywords:         []string{"crop", "recommend", "grow", "plant", "cultivate", "which crop", "sow"},
		ResponseTemplate: "I can suggest crops suited to your farm. Tell me about your soil type and location for a better recommendation.",
		EntityTypes:      []models.EntityType{models.EntitySoilType, models.EntityLocation, models.EntitySeason},
		FollowUps: []string{
			"My soil is loamy",
			"What grows well in kharif season?",
			"How much water do these crops need?",
		},
	},
	{
		Tag:              DiseaseHelp,
		Keywords:         []string{"disease", "pest", "infection", "fungus", "leaf spot", "blight", "wilt", "insect"},
		ResponseTemplate: "Plant diseases need quick attention. Describe the symptoms you see, or upload a photo on the disease detection page for a detailed diagnosis.",
		EntityTypes:      []models.EntityType{models.EntityCropType},
		FollowUps: []string{
			"My crop leaves are turning yellow",
			"How do I prevent fungal infections?",
			"Which pesticide should I use?",
		},
	},
	{
		Tag:              FertilizerAdvice,
		Keywords:         []string{"fertilizer", "fertiliser", "manure", "urea", "npk", "compost", "nutrient"},
		ResponseTemplate: "Balanced fertilization depends on your soil and crop. A soil test is the best starting point; most crops do well with an NPK mix adjusted to the growth stage.",
		EntityTypes:      []models.EntityType{models.EntitySoilType, models.EntityCropType},
		FollowUps: []string{
			"How much urea per acre?",
			"Is organic compost enough?",
			"When should I apply fertilizer?",
		},
	},
	{
		Tag:              WeatherQuery,
		Keywords:         []string{"weather", "rain", "temperature", "forecast", "humidity", "climate"},
		ResponseTemplate: "You can check the detailed forecast on the weather page. Share your location and I will keep it in mind for crop suggestions.",
		EntityTypes:      []models.EntityType{models.EntityLocation},
		FollowUps: []string{
			"Will it rain this week?",
			"Which crops handle dry weather?",
		},
	},
	{
		Tag:              MarketPrice,
		Keywords:         []string{"price", "market", "rate", "sell", "mandi", "cost"},
		ResponseTemplate: "Market prices vary by mandi and quality grade. Tell me which crop you want to sell and I will point you to current price information.",
		EntityTypes:      []models.EntityType{models.EntityCropType, models.EntityQuantity},
		FollowUps: []string{
			"What is the price of wheat?",
			"Where can I sell my produce?",
		},
	},
	{
		Tag:              GovernmentScheme,
		Keywords:         []string{"scheme", "subsidy", "government", "loan", "insurance", "pm-kisan", "kisan"},
		ResponseTemplate: "There are several government schemes for farmers. Share your state and I can list the ones you may be eligible for.",
		EntityTypes:      []models.EntityType{models.EntityLocation},
		FollowUps: []string{
			"Am I eligible for PM-KISAN?",
			"How do I apply for crop insurance?",
		},
	},
	{
		Tag:              IrrigationInfo,
		Keywords:         []string{"irrigation", "water", "drip", "sprinkler", "watering", "canal"},
		ResponseTemplate: "Efficient irrigation saves water and improves yield. Drip irrigation works well for row crops; sprinklers suit closely spaced crops.",
		EntityTypes:      []models.EntityType{models.EntityCropType, models.EntityQuantity},
		FollowUps: []string{
			"How often should I water my crops?",
			"Is drip irrigation worth the cost?",
		},
	},
	{
		Tag:              Farewell,
		Keywords:         []string{"bye", "goodbye", "thanks", "thank you", "see you"},
		ResponseTemplate: "Happy to help! Come back anytime you have a farming question. Wishing you a good harvest!",
		FollowUps: []string{
			"Rate this conversation",
		},
	},
}

// Lookup returns the catalog entry for a tag. The bool is false for tags not
// in the catalog.
func Lookup(tag Tag) (Intent, bool) {
	for _, it := range Catalog {
		if it.Tag == tag {
			return it, true
		}
	}
	return Intent{}, false
}
