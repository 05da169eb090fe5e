package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"agrichat/internal/common/config"
	"agrichat/internal/common/logger"
	"agrichat/internal/dialogue/compose"
	"agrichat/internal/dialogue/engine"
	"agrichat/internal/models"
	"agrichat/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Fixtures
// ==========================

type stubCropCatalog struct{}

func (s *stubCropCatalog) FindBySoilType(_ context.Context, soilType string, _ bool, _ int) ([]models.Crop, error) {
	if soilType == "loamy" {
		return []models.Crop{
			{ID: "1", Name: "rice", SoilTypes: []string{"loamy"}, Season: "kharif", IsActive: true},
			{ID: "2", Name: "wheat", SoilTypes: []string{"loamy"}, Season: "rabi", IsActive: true},
		}, nil
	}
	return nil, nil
}

type stubSchemeCatalog struct{}

func (s *stubSchemeCatalog) FindByState(_ context.Context, _ string, _ bool, _ int) ([]models.Scheme, error) {
	return []models.Scheme{{ID: "1", Title: "PM-KISAN", State: "All India", IsActive: true}}, nil
}

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	log := logger.NewTestLogger(t)
	sessions := store.NewRedisSessionStore(client, time.Hour, log)
	composer := compose.New(&stubCropCatalog{}, &stubSchemeCatalog{}, nil, time.Second, log)
	eng := engine.New(sessions, composer, config.DialogueConfig{
		MaxMessageLength: 1000,
		TurnRetries:      3,
		StoreTimeout:     2000,
		CatalogTimeout:   1500,
		SessionTTL:       72,
		MaxSuggestions:   4,
	}, log, nil)

	router := chi.NewRouter()
	NewHandler(eng, log).RegisterRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

type errorBody struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		Retryable bool   `json:"retryable"`
	} `json:"error"`
}

func doRequest(t *testing.T, server *httptest.Server, method, path, owner, body string) (*http.Response, []byte) {
	t.Helper()

	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		req.Header.Set("X-User-ID", owner)
	}

	res, err := server.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(res.Body)
	require.NoError(t, err)
	return res, buf.Bytes()
}

func startTestSession(t *testing.T, server *httptest.Server, owner string) string {
	t.Helper()

	res, body := doRequest(t, server, http.MethodPost, "/api/chat/sessions", owner, `{}`)
	require.Equal(t, http.StatusCreated, res.StatusCode, "body: %s", body)

	var created struct {
		SessionID       string               `json:"sessionId"`
		InitialResponse *models.ChatResponse `json:"initialResponse"`
	}
	require.NoError(t, json.Unmarshal(body, &created))
	require.NotEmpty(t, created.SessionID)
	return created.SessionID
}

// ==========================
// Endpoint Tests
// ==========================

func TestStartSessionEndpoint(t *testing.T) {
	server := setupTestServer(t)

	res, body := doRequest(t, server, http.MethodPost, "/api/chat/sessions", "user1",
		`{"context": {"soilType": "loamy", "experience": "beginner"}}`)
	require.Equal(t, http.StatusCreated, res.StatusCode, "body: %s", body)

	var created struct {
		SessionID       string               `json:"sessionId"`
		InitialResponse *models.ChatResponse `json:"initialResponse"`
	}
	require.NoError(t, json.Unmarshal(body, &created))

	assert.True(t, strings.HasPrefix(created.SessionID, "session_"), "got %q", created.SessionID)
	require.NotNil(t, created.InitialResponse)
	assert.Equal(t, "greeting", created.InitialResponse.Intent)
	assert.NotEmpty(t, created.InitialResponse.Suggestions)
}

func TestStartSessionRequiresOwner(t *testing.T) {
	server := setupTestServer(t)

	res, body := doRequest(t, server, http.MethodPost, "/api/chat/sessions", "", `{}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	var e errorBody
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, "VALIDATION_FAILED", e.Error.Code)
}

func TestStartSessionRejectsUnknownContextFields(t *testing.T) {
	server := setupTestServer(t)

	res, _ := doRequest(t, server, http.MethodPost, "/api/chat/sessions", "user1",
		`{"context": {"soilType": "loamy", "tractorModel": "x900"}}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestSendMessageEndpoint(t *testing.T) {
	server := setupTestServer(t)
	sessionID := startTestSession(t, server, "user1")

	res, body := doRequest(t, server, http.MethodPost, "/api/chat/sessions/"+sessionID+"/messages",
		"user1", `{"message": "I have loamy soil, recommend a crop"}`)
	require.Equal(t, http.StatusOK, res.StatusCode, "body: %s", body)

	var response models.ChatResponse
	require.NoError(t, json.Unmarshal(body, &response))

	assert.Equal(t, "crop_recommendation", response.Intent)
	assert.Contains(t, response.Entities, models.Entity{Type: models.EntitySoilType, Value: "loamy"})
	assert.Contains(t, response.Message, "rice")

	require.Len(t, response.Actions, 1)
	assert.Equal(t, "crop_recommendation", response.Actions[0].Type)
	assert.Equal(t, "loamy", response.Actions[0].Data["soilType"])
}

func TestSendMessageValidation(t *testing.T) {
	server := setupTestServer(t)
	sessionID := startTestSession(t, server, "user1")

	tests := []struct {
		name string
		body string
	}{
		{"empty message", `{"message": ""}`},
		{"missing message", `{}`},
		{"oversized message", `{"message": "` + strings.Repeat("a", 1001) + `"}`},
		{"malformed json", `{"message": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, body := doRequest(t, server, http.MethodPost,
				"/api/chat/sessions/"+sessionID+"/messages", "user1", tt.body)
			assert.Equal(t, http.StatusBadRequest, res.StatusCode, "body: %s", body)

			var e errorBody
			require.NoError(t, json.Unmarshal(body, &e))
			assert.Equal(t, "VALIDATION_FAILED", e.Error.Code)
			assert.False(t, e.Error.Retryable)
		})
	}
}

func TestSendMessageUnknownSession(t *testing.T) {
	server := setupTestServer(t)

	res, body := doRequest(t, server, http.MethodPost,
		"/api/chat/sessions/session_missing/messages", "user1", `{"message": "hello"}`)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	var e errorBody
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, "SESSION_NOT_FOUND", e.Error.Code)
}

func TestGetSessionEndpoint(t *testing.T) {
	server := setupTestServer(t)
	sessionID := startTestSession(t, server, "user1")

	_, _ = doRequest(t, server, http.MethodPost, "/api/chat/sessions/"+sessionID+"/messages",
		"user1", `{"message": "my soil is loamy"}`)

	res, body := doRequest(t, server, http.MethodGet, "/api/chat/sessions/"+sessionID, "user1", "")
	require.Equal(t, http.StatusOK, res.StatusCode, "body: %s", body)

	var session models.Session
	require.NoError(t, json.Unmarshal(body, &session))
	assert.Equal(t, sessionID, session.ID)
	assert.Len(t, session.Turns, 4, "greeting pair plus one exchange")
	assert.Equal(t, "loamy", session.Context.SoilType)
}

func TestGetSessionHidesStorageVersion(t *testing.T) {
	server := setupTestServer(t)
	sessionID := startTestSession(t, server, "user1")

	res, body := doRequest(t, server, http.MethodGet, "/api/chat/sessions/"+sessionID, "user1", "")
	require.Equal(t, http.StatusOK, res.StatusCode, "body: %s", body)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &raw))
	assert.NotContains(t, raw, "version", "concurrency bookkeeping must stay internal")
	assert.Contains(t, raw, "sessionId")
	assert.Contains(t, raw, "turns")
}

func TestGetSessionForeignOwner(t *testing.T) {
	server := setupTestServer(t)
	sessionID := startTestSession(t, server, "user1")

	res, _ := doRequest(t, server, http.MethodGet, "/api/chat/sessions/"+sessionID, "intruder", "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestFeedbackEndpoint(t *testing.T) {
	server := setupTestServer(t)
	sessionID := startTestSession(t, server, "user1")

	res, body := doRequest(t, server, http.MethodPost,
		"/api/chat/sessions/"+sessionID+"/feedback", "", `{"rating": 4}`)
	assert.Equal(t, http.StatusOK, res.StatusCode, "body: %s", body)
}

func TestFeedbackValidation(t *testing.T) {
	server := setupTestServer(t)
	sessionID := startTestSession(t, server, "user1")

	for _, payload := range []string{`{"rating": 0}`, `{"rating": 6}`, `{"rating": 3.5}`, `{}`} {
		res, body := doRequest(t, server, http.MethodPost,
			"/api/chat/sessions/"+sessionID+"/feedback", "", payload)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode, "payload %s, body: %s", payload, body)
	}
}

func TestEndSessionEndpoint(t *testing.T) {
	server := setupTestServer(t)
	sessionID := startTestSession(t, server, "user1")

	res, _ := doRequest(t, server, http.MethodDelete, "/api/chat/sessions/"+sessionID, "user1", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)

	// Ending twice is a no-op, not an error.
	res, _ = doRequest(t, server, http.MethodDelete, "/api/chat/sessions/"+sessionID, "user1", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)

	// The ended session refuses further turns.
	res, body := doRequest(t, server, http.MethodPost,
		"/api/chat/sessions/"+sessionID+"/messages", "user1", `{"message": "hello"}`)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	var e errorBody
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, "SESSION_NOT_FOUND", e.Error.Code)
}

// ==========================
// Conversation Flow
// ==========================

func TestConversationFlow(t *testing.T) {
	server := setupTestServer(t)
	sessionID := startTestSession(t, server, "user1")

	// The engine accumulates context across turns: soil first, then the
	// recommendation request rides on the remembered soil type.
	res, body := doRequest(t, server, http.MethodPost,
		"/api/chat/sessions/"+sessionID+"/messages", "user1", `{"message": "my soil is loamy"}`)
	require.Equal(t, http.StatusOK, res.StatusCode, "body: %s", body)

	res, body = doRequest(t, server, http.MethodPost,
		"/api/chat/sessions/"+sessionID+"/messages", "user1", `{"message": "which crop should i grow"}`)
	require.Equal(t, http.StatusOK, res.StatusCode, "body: %s", body)

	var response models.ChatResponse
	require.NoError(t, json.Unmarshal(body, &response))
	assert.Equal(t, "crop_recommendation", response.Intent)
	require.Len(t, response.Actions, 1)
	assert.Equal(t, "loamy", response.Actions[0].Data["soilType"])

	res, body = doRequest(t, server, http.MethodPost,
		"/api/chat/sessions/"+sessionID+"/feedback", "", `{"rating": 5}`)
	require.Equal(t, http.StatusOK, res.StatusCode, "body: %s", body)

	res, _ = doRequest(t, server, http.MethodDelete, "/api/chat/sessions/"+sessionID, "user1", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
}
