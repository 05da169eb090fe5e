// Package compose builds the outgoing bot message, suggestions and action
// directives for a classified turn.
package compose

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agrichat/internal/common/logger"
	"agrichat/internal/dialogue/intent"
	"agrichat/internal/models"
)

const defaultCatalogLimit = 3

// CropCatalog is the read-only crop lookup collaborator.
type CropCatalog interface {
	FindBySoilType(ctx context.Context, soilType string, activeOnly bool, limit int) ([]models.Crop, error)
}

// SchemeCatalog is the read-only scheme lookup collaborator. Implementations
// match schemes for the given state or for "All India".
type SchemeCatalog interface {
	FindByState(ctx context.Context, state string, activeOnly bool, limit int) ([]models.Scheme, error)
}

// AdvisoryIndex is the full-text advisory lookup collaborator. Optional: a
// nil index disables disease-help enrichment.
type AdvisoryIndex interface {
	SearchByCrop(ctx context.Context, crop string, limit int) ([]models.Advisory, error)
}

// Result is the composed portion of a ChatResponse.
type Result struct {
	Message     string
	Suggestions []string
	Actions     []models.Action
}

// Composer augments intent templates with catalog data. Composition is
// total: a collaborator failure degrades to the plain template response and
// is logged, never surfaced to the caller.
type Composer struct {
	crops      CropCatalog
	schemes    SchemeCatalog
	advisories AdvisoryIndex
	timeout    time.Duration
	logger     logger.Logger
	augmenters map[intent.Tag]augmentFunc
}

type augmentFunc func(ctx context.Context, uctx models.UserContext, r *Result)

// New creates a Composer. The dispatch table is fixed at construction and
// keyed by intent tag: intents without an entry get the plain template.
func New(crops CropCatalog, schemes SchemeCatalog, advisories AdvisoryIndex, timeout time.Duration, log logger.Logger) *Composer {
	c := &Composer{
		crops:      crops,
		schemes:    schemes,
		advisories: advisories,
		timeout:    timeout,
		logger:     log.With(map[string]interface{}{"component": "composer"}),
	}
	c.augmenters = map[intent.Tag]augmentFunc{
		intent.CropRecommendation: c.augmentCropRecommendation,
		intent.GovernmentScheme:   c.augmentGovernmentScheme,
		intent.MarketPrice:        c.augmentMarketPrice,
		intent.DiseaseHelp:        c.augmentDiseaseHelp,
	}
	return c
}

// Compose builds the reply for one turn from the classified intent and the
// accumulated context.
func (c *Composer) Compose(ctx context.Context, it intent.Intent, uctx models.UserContext) Result {
	r := Result{
		Message:     it.ResponseTemplate,
		Suggestions: c.suggestions(it, uctx),
	}

	if augment, ok := c.augmenters[it.Tag]; ok {
		augment(ctx, uctx, &r)
	}
	return r
}

// suggestions returns the intent's follow-ups, with a continuity prompt
// prepended when the most recent topic differs from the current intent.
func (c *Composer) suggestions(it intent.Intent, uctx models.UserContext) []string {
	out := make([]string, 0, len(it.FollowUps)+1)
	if len(uctx.LastTopics) > 0 {
		last := uctx.LastTopics[len(uctx.LastTopics)-1]
		if last != it.Name() {
			out = append(out, fmt.Sprintf("You were previously asking about %s. Want to continue with that?", last))
		}
	}
	return append(out, it.FollowUps...)
}

// augmentCropRecommendation needs only a known soil type; crop preferences
// refine the wording but are not required to run the lookup.
func (c *Composer) augmentCropRecommendation(ctx context.Context, uctx models.UserContext, r *Result) {
	if uctx.SoilType == "" {
		return
	}

	lctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	crops, err := c.crops.FindBySoilType(lctx, uctx.SoilType, true, defaultCatalogLimit)
	if err != nil {
		c.logger.Warn("crop catalog lookup failed, responding without enrichment", map[string]interface{}{
			"soilType": uctx.SoilType,
			"error":    err.Error(),
		})
		return
	}
	if len(crops) == 0 {
		return
	}

	names := make([]string, len(crops))
	for i, crop := range crops {
		names[i] = crop.Name
	}
	r.Message += fmt.Sprintf(" Based on your %s soil, these crops look promising: %s.", uctx.SoilType, strings.Join(names, ", "))
	r.Actions = append(r.Actions, models.Action{
		Type: "crop_recommendation",
		Data: map[string]interface{}{
			"soilType": uctx.SoilType,
			"crops":    names,
		},
	})
}

func (c *Composer) augmentGovernmentScheme(ctx context.Context, uctx models.UserContext, r *Result) {
	if uctx.Location == nil {
		return
	}

	lctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	schemes, err := c.schemes.FindByState(lctx, uctx.Location.Address, true, defaultCatalogLimit)
	if err != nil {
		c.logger.Warn("scheme catalog lookup failed, responding without enrichment", map[string]interface{}{
			"state": uctx.Location.Address,
			"error": err.Error(),
		})
		return
	}
	if len(schemes) == 0 {
		return
	}

	r.Message += fmt.Sprintf(" I found %d schemes for your area, starting with %q.", len(schemes), schemes[0].Title)
	r.Actions = append(r.Actions, models.Action{
		Type: "schemes",
		Data: map[string]interface{}{
			"schemes": schemes,
		},
	})
}

func (c *Composer) augmentMarketPrice(_ context.Context, uctx models.UserContext, r *Result) {
	if len(uctx.CropPreferences) == 0 {
		return
	}

	crop := uctx.CropPreferences[0]
	r.Message += fmt.Sprintf(" Since you grow %s, check its mandi rates on the market page.", crop)
	r.Actions = append(r.Actions, models.Action{
		Type: "price_info",
		Data: map[string]interface{}{
			"crop": crop,
		},
	})
}

func (c *Composer) augmentDiseaseHelp(ctx context.Context, uctx models.UserContext, r *Result) {
	if c.advisories == nil || len(uctx.CropPreferences) == 0 {
		return
	}

	lctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	crop := uctx.CropPreferences[0]
	tips, err := c.advisories.SearchByCrop(lctx, crop, defaultCatalogLimit)
	if err != nil {
		c.logger.Warn("advisory index lookup failed, responding without enrichment", map[string]interface{}{
			"crop":  crop,
			"error": err.Error(),
		})
		return
	}
	if len(tips) == 0 {
		return
	}

	r.Message += fmt.Sprintf(" For %s, one tip from our advisories: %s", crop, tips[0].Tip)
	r.Actions = append(r.Actions, models.Action{
		Type: "advisories",
		Data: map[string]interface{}{
			"crop":       crop,
			"advisories": tips,
		},
	})
}
