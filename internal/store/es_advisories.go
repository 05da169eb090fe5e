package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"agrichat/internal/common/errors"
	"agrichat/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ESAdvisoryIndex searches crop-care advisories in Elasticsearch. It backs
// the disease-help enrichment with text guidance; the image-based disease
// model is a separate service and not consulted here.
type ESAdvisoryIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewESAdvisoryIndex(client *elasticsearch.Client, index string) *ESAdvisoryIndex {
	return &ESAdvisoryIndex{client: client, index: index}
}

// SearchByCrop returns up to limit advisories matching the crop name.
func (s *ESAdvisoryIndex) SearchByCrop(ctx context.Context, crop string, limit int) ([]models.Advisory, error) {
	queryBody := map[string]interface{}{
		"query": map[string]interface{}{
			"match": map[string]interface{}{
				"crop": crop,
			},
		},
		"size": limit,
	}

	body, _ := json.Marshal(queryBody)
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  strings.NewReader(string(body)),
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewCatalogTimeoutError("advisories")
		}
		return nil, errors.NewCatalogQueryError("advisories", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewCatalogQueryError("advisories", fmt.Errorf("search failed: %s", res.String()))
	}

	var r map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, errors.NewCatalogQueryError("advisories", err)
	}

	hitsWrapper, ok := r["hits"].(map[string]interface{})
	if !ok {
		return nil, nil
	}
	hits, ok := hitsWrapper["hits"].([]interface{})
	if !ok {
		return nil, nil
	}

	var advisories []models.Advisory
	for _, hit := range hits {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		source, ok := hitMap["_source"].(map[string]interface{})
		if !ok {
			continue
		}

		advisory := models.Advisory{
			Crop:  stringField(source, "crop"),
			Title: stringField(source, "title"),
			Tip:   stringField(source, "tip"),
		}
		if id, ok := hitMap["_id"].(string); ok {
			advisory.ID = id
		}
		advisories = append(advisories, advisory)
	}
	return advisories, nil
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
