package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agrichat/internal/common/errors"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAdvisoryIndex(t *testing.T, handler http.HandlerFunc) *ESAdvisoryIndex {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)

	return NewESAdvisoryIndex(client, "crop-advisories")
}

func TestSearchByCrop(t *testing.T) {
	var capturedBody map[string]interface{}
	index := setupAdvisoryIndex(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "crop-advisories")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&capturedBody))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"hits": {
				"hits": [
					{"_id": "adv-1", "_source": {"crop": "rice", "title": "Blast management", "tip": "Drain standing water and apply tricyclazole."}},
					{"_id": "adv-2", "_source": {"crop": "rice", "title": "Brown spot", "tip": "Correct potash deficiency."}}
				]
			}
		}`))
	})

	advisories, err := index.SearchByCrop(context.Background(), "rice", 3)
	require.NoError(t, err)

	require.Len(t, advisories, 2)
	assert.Equal(t, "adv-1", advisories[0].ID)
	assert.Equal(t, "Blast management", advisories[0].Title)
	assert.Equal(t, "Correct potash deficiency.", advisories[1].Tip)

	query := capturedBody["query"].(map[string]interface{})
	match := query["match"].(map[string]interface{})
	assert.Equal(t, "rice", match["crop"])
	assert.Equal(t, float64(3), capturedBody["size"])
}

func TestSearchByCropNoHits(t *testing.T) {
	index := setupAdvisoryIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"hits": {"hits": []}}`))
	})

	advisories, err := index.SearchByCrop(context.Background(), "quinoa", 3)
	require.NoError(t, err)
	assert.Empty(t, advisories)
}

func TestSearchByCropServerError(t *testing.T) {
	index := setupAdvisoryIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"type": "search_phase_execution_exception"}}`))
	})

	_, err := index.SearchByCrop(context.Background(), "rice", 3)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCatalogQueryFailed), "got %v", err)
	assert.True(t, errors.IsRetryable(err))
}

func TestSearchByCropTimeout(t *testing.T) {
	index := setupAdvisoryIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"hits": {"hits": []}}`))
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := index.SearchByCrop(ctx, "rice", 3)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCatalogTimeout), "got %v", err)
	assert.True(t, errors.IsRetryable(err))
}

func TestSearchByCropMalformedHits(t *testing.T) {
	index := setupAdvisoryIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"took": 2}`))
	})

	advisories, err := index.SearchByCrop(context.Background(), "rice", 3)
	require.NoError(t, err)
	assert.Empty(t, advisories)
}
